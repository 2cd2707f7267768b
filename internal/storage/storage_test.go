package storage

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "jobportal/internal/errors"
	"jobportal/internal/model"
)

// fileHeader builds a real multipart.FileHeader the way an HTTP request would.
func fileHeader(t *testing.T, name, contentType string, size int) *multipart.FileHeader {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="`+name+`"`)
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(bytes.Repeat([]byte("x"), size))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&body, w.Boundary()).ReadForm(32 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form.File["file"][0]
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name        string
		kind        Kind
		filename    string
		contentType string
		size        int
		expected    error
	}{
		{"pdf resume", KindResume, "cv.pdf", "application/pdf", 1024, nil},
		{"docx document", KindDocument, "letter.DOCX", "application/vnd.openxmlformats-officedocument.wordprocessingml.document", 10, nil},
		{"png certificate", KindCertificate, "cert.png", "image/png", 10, nil},
		{"jpeg profile with params", KindProfile, "me.jpg", "image/jpeg; charset=binary", 10, nil},
		{"pdf is not a profile image", KindProfile, "me.pdf", "application/pdf", 10, apperrors.ErrUnsupportedFile},
		{"exe rejected", KindDocument, "virus.exe", "application/octet-stream", 10, apperrors.ErrUnsupportedFile},
		{"mime mismatch", KindResume, "cv.pdf", "image/png", 10, apperrors.ErrUnsupportedFile},
		{"profile over 5MB", KindProfile, "big.png", "image/png", 5<<20 + 1, apperrors.ErrFileTooLarge},
		{"document at 10MB", KindDocument, "big.pdf", "application/pdf", 10 << 20, nil},
		{"document over 10MB", KindDocument, "big.pdf", "application/pdf", 10<<20 + 1, apperrors.ErrFileTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.kind, fileHeader(t, tt.filename, tt.contentType, tt.size))
			if tt.expected == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.expected)
			}
		})
	}
}

func TestValidate_MissingFile(t *testing.T) {
	assert.ErrorIs(t, Validate(KindCertificate, nil), apperrors.ErrFileRequired)
}

func TestLocalStorage_SaveAndDelete(t *testing.T) {
	dir := t.TempDir()
	s := NewLocalStorage(dir, "/uploads")

	meta, err := s.Save(context.Background(), KindResume, fileHeader(t, "My CV.PDF", "application/pdf", 128))
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^\d+-\d+\.pdf$`), meta.Filename)
	assert.Equal(t, "My CV.PDF", meta.OriginalName)
	assert.Equal(t, int64(128), meta.Size)
	assert.Equal(t, "/uploads/resumes/"+meta.Filename, meta.URL)
	assert.Equal(t, filepath.Join(dir, "resumes", meta.Filename), meta.Path)

	_, err = os.Stat(meta.Path)
	require.NoError(t, err)

	require.NoError(t, s.Delete(context.Background(), meta))
	_, err = os.Stat(meta.Path)
	assert.True(t, os.IsNotExist(err))

	// deleting twice is fine
	assert.NoError(t, s.Delete(context.Background(), meta))
}

func TestLocalStorage_RejectsInvalidBeforeWriting(t *testing.T) {
	dir := t.TempDir()
	s := NewLocalStorage(dir, "")

	_, err := s.Save(context.Background(), KindProfile, fileHeader(t, "me.gif.exe", "application/x-msdownload", 10))
	assert.ErrorIs(t, err, apperrors.ErrUnsupportedFile)

	entries, _ := os.ReadDir(dir)
	assert.Empty(t, entries)
}

func TestLocalStorage_DeleteOutsideRootRefused(t *testing.T) {
	s := NewLocalStorage(t.TempDir(), "")
	outside := filepath.Join(t.TempDir(), "keep.txt")
	require.NoError(t, os.WriteFile(outside, []byte("x"), 0o644))

	err := s.Delete(context.Background(), model.FileMeta{Path: outside})

	assert.Error(t, err)
	_, statErr := os.Stat(outside)
	assert.NoError(t, statErr)
}

func TestSaveAll_RollsBackOnFailure(t *testing.T) {
	dir := t.TempDir()
	s := NewLocalStorage(dir, "")
	files := []*multipart.FileHeader{
		fileHeader(t, "a.pdf", "application/pdf", 10),
		fileHeader(t, "b.pdf", "application/pdf", 10),
		fileHeader(t, "c.exe", "application/octet-stream", 10),
	}

	saved, err := SaveAll(context.Background(), s, KindDocument, files)

	assert.ErrorIs(t, err, apperrors.ErrUnsupportedFile)
	assert.Nil(t, saved)
	entries, _ := os.ReadDir(filepath.Join(dir, string(KindDocument)))
	for _, e := range entries {
		assert.False(t, strings.HasSuffix(e.Name(), ".pdf"), "orphan %s left behind", e.Name())
	}
}
