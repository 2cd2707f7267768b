package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math/rand/v2"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"jobportal/internal/model"
)

// LocalStorage writes files under <dir>/<kind>/ and serves them from <baseURL>/<kind>/.
type LocalStorage struct {
	dir     string
	baseURL string
}

// NewLocalStorage creates a disk backed storage rooted at dir.
func NewLocalStorage(dir, baseURL string) *LocalStorage {
	if baseURL == "" {
		baseURL = "/uploads"
	}
	return &LocalStorage{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}
}

// Save validates and copies the upload to disk under a timestamped random name.
func (s *LocalStorage) Save(ctx context.Context, kind Kind, fh *multipart.FileHeader) (model.FileMeta, error) {
	if err := Validate(kind, fh); err != nil {
		return model.FileMeta{}, err
	}
	if err := ctx.Err(); err != nil {
		return model.FileMeta{}, err
	}

	dir := filepath.Join(s.dir, string(kind))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return model.FileMeta{}, fmt.Errorf("create upload dir: %w", err)
	}

	src, err := fh.Open()
	if err != nil {
		return model.FileMeta{}, fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	name := uniqueName(fh.Filename)
	dstPath := filepath.Join(dir, name)
	dst, err := os.OpenFile(dstPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return model.FileMeta{}, fmt.Errorf("create file: %w", err)
	}
	written, err := io.Copy(dst, src)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(dstPath)
		return model.FileMeta{}, fmt.Errorf("write file: %w", err)
	}

	return model.FileMeta{
		Filename:     name,
		OriginalName: fh.Filename,
		Path:         dstPath,
		URL:          path.Join(s.baseURL, string(kind), name),
		Size:         written,
		MimeType:     declaredType(fh),
		Backend:      "local",
	}, nil
}

// Delete removes a stored file. A file that is already gone is not an error.
func (s *LocalStorage) Delete(_ context.Context, meta model.FileMeta) error {
	if meta.Path == "" {
		return nil
	}
	clean := filepath.Clean(meta.Path)
	root := filepath.Clean(s.dir) + string(os.PathSeparator)
	if !strings.HasPrefix(clean, root) {
		return fmt.Errorf("refusing to delete %q outside %q", meta.Path, s.dir)
	}
	if err := os.Remove(clean); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// uniqueName builds "<unix millis>-<random><ext>". Collisions are unlikely,
// and O_EXCL turns the rare one into an error instead of an overwrite.
func uniqueName(original string) string {
	ext := strings.ToLower(filepath.Ext(original))
	return fmt.Sprintf("%d-%d%s", time.Now().UnixMilli(), rand.Int64N(1e9), ext)
}
