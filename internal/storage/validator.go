package storage

import (
	"fmt"
	"mime"
	"mime/multipart"
	"path/filepath"
	"strings"

	apperrors "jobportal/internal/errors"
)

// Kind partitions stored files by what they are used for.
type Kind string

const (
	KindProfile     Kind = "profiles"
	KindResume      Kind = "resumes"
	KindDocument    Kind = "documents"
	KindCertificate Kind = "certificates"
)

const (
	imageMaxSize    = 5 << 20
	documentMaxSize = 10 << 20
)

var imageTypes = map[string][]string{
	".jpg":  {"image/jpeg", "image/jpg", "image/pjpeg"},
	".jpeg": {"image/jpeg", "image/jpg", "image/pjpeg"},
	".png":  {"image/png"},
	".gif":  {"image/gif"},
}

var documentTypes = map[string][]string{
	".pdf":  {"application/pdf"},
	".doc":  {"application/msword"},
	".docx": {"application/vnd.openxmlformats-officedocument.wordprocessingml.document"},
}

type limits struct {
	types   map[string][]string
	maxSize int64
}

var kinds = map[Kind]limits{
	KindProfile:     {types: imageTypes, maxSize: imageMaxSize},
	KindResume:      {types: merge(documentTypes, imageTypes), maxSize: documentMaxSize},
	KindDocument:    {types: merge(documentTypes, imageTypes), maxSize: documentMaxSize},
	KindCertificate: {types: merge(documentTypes, imageTypes), maxSize: documentMaxSize},
}

func merge(sets ...map[string][]string) map[string][]string {
	out := make(map[string][]string)
	for _, s := range sets {
		for ext, types := range s {
			out[ext] = types
		}
	}
	return out
}

// Validate checks an upload's extension and declared mime type against the
// allow-list for kind, and its size against the kind's ceiling. File
// contents are not inspected.
func Validate(kind Kind, fh *multipart.FileHeader) error {
	if fh == nil {
		return apperrors.ErrFileRequired
	}
	l, ok := kinds[kind]
	if !ok {
		return fmt.Errorf("%w: unknown upload kind %q", apperrors.ErrUnsupportedFile, kind)
	}

	ext := strings.ToLower(filepath.Ext(fh.Filename))
	allowed, ok := l.types[ext]
	if !ok {
		return fmt.Errorf("%w: %s files are not accepted for %s", apperrors.ErrUnsupportedFile, extOrNone(ext), kind)
	}

	declared := declaredType(fh)
	if !contains(allowed, declared) {
		return fmt.Errorf("%w: mime type %q does not match %s", apperrors.ErrUnsupportedFile, declared, ext)
	}

	if fh.Size > l.maxSize {
		return fmt.Errorf("%w: limit is %dMB", apperrors.ErrFileTooLarge, l.maxSize>>20)
	}
	return nil
}

func declaredType(fh *multipart.FileHeader) string {
	ct := fh.Header.Get("Content-Type")
	if ct == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return strings.ToLower(ct)
	}
	return mt
}

func extOrNone(ext string) string {
	if ext == "" {
		return "extensionless"
	}
	return ext
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
