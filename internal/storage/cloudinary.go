package storage

import (
	"context"
	"fmt"
	"mime/multipart"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"

	"jobportal/internal/model"
)

const uploadTimeout = 30 * time.Second

// CloudinaryStorage uploads files to Cloudinary under jobportal/<kind>.
type CloudinaryStorage struct {
	cld *cloudinary.Cloudinary
}

// NewCloudinaryStorage builds a client from a cloudinary:// url. An empty url
// falls back to the CLOUDINARY_URL environment variable.
func NewCloudinaryStorage(url string) (*CloudinaryStorage, error) {
	var (
		cld *cloudinary.Cloudinary
		err error
	)
	if url == "" {
		cld, err = cloudinary.New()
	} else {
		cld, err = cloudinary.NewFromURL(url)
	}
	if err != nil {
		return nil, fmt.Errorf("cloudinary client: %w", err)
	}
	return &CloudinaryStorage{cld: cld}, nil
}

func boolPtr(b bool) *bool {
	return &b
}

// Save validates the upload and sends it to Cloudinary.
func (s *CloudinaryStorage) Save(ctx context.Context, kind Kind, fh *multipart.FileHeader) (model.FileMeta, error) {
	if err := Validate(kind, fh); err != nil {
		return model.FileMeta{}, err
	}

	f, err := fh.Open()
	if err != nil {
		return model.FileMeta{}, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	res, err := s.cld.Upload.Upload(ctx, f, uploader.UploadParams{
		Folder:         "jobportal/" + string(kind),
		ResourceType:   "auto",
		UseFilename:    boolPtr(true),
		UniqueFilename: boolPtr(true),
		Overwrite:      boolPtr(false),
	})
	if err != nil {
		return model.FileMeta{}, fmt.Errorf("cloudinary upload: %w", err)
	}
	if res.Error.Message != "" {
		return model.FileMeta{}, fmt.Errorf("cloudinary upload: %s", res.Error.Message)
	}

	return model.FileMeta{
		Filename:     res.PublicID,
		OriginalName: fh.Filename,
		Path:         res.PublicID,
		URL:          res.SecureURL,
		Size:         int64(res.Bytes),
		MimeType:     declaredType(fh),
		Backend:      "cloudinary:" + res.ResourceType,
	}, nil
}

// Delete destroys the asset by public id.
func (s *CloudinaryStorage) Delete(ctx context.Context, meta model.FileMeta) error {
	if meta.Path == "" {
		return nil
	}
	resourceType := "image"
	if len(meta.Backend) > len("cloudinary:") {
		resourceType = meta.Backend[len("cloudinary:"):]
	}
	res, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:     meta.Path,
		ResourceType: resourceType,
		Invalidate:   boolPtr(true),
	})
	if err != nil {
		return fmt.Errorf("cloudinary destroy: %w", err)
	}
	if res.Error.Message != "" {
		return fmt.Errorf("cloudinary destroy: %s", res.Error.Message)
	}
	return nil
}
