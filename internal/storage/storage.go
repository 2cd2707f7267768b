// Package storage persists uploaded files to local disk or Cloudinary.
package storage

import (
	"context"
	"mime/multipart"

	"github.com/rs/zerolog"

	"jobportal/internal/model"
)

// Storage saves and removes uploaded files.
type Storage interface {
	Save(ctx context.Context, kind Kind, fh *multipart.FileHeader) (model.FileMeta, error)
	Delete(ctx context.Context, meta model.FileMeta) error
}

// SaveAll stores every file in order. When one fails, the files already
// stored are removed before the error is returned.
func SaveAll(ctx context.Context, s Storage, kind Kind, files []*multipart.FileHeader) ([]model.FileMeta, error) {
	saved := make([]model.FileMeta, 0, len(files))
	for _, fh := range files {
		meta, err := s.Save(ctx, kind, fh)
		if err != nil {
			DeleteAll(ctx, s, saved, zerolog.Ctx(ctx))
			return nil, err
		}
		saved = append(saved, meta)
	}
	return saved, nil
}

// DeleteAll removes files best-effort. Failures are logged and leave orphans.
func DeleteAll(ctx context.Context, s Storage, files []model.FileMeta, log *zerolog.Logger) {
	for _, f := range files {
		if err := s.Delete(ctx, f); err != nil {
			log.Warn().Err(err).Str("path", f.Path).Msg("remove stored file")
		}
	}
}
