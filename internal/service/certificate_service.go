package service

import (
	"context"
	"fmt"
	"mime/multipart"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	apperrors "jobportal/internal/errors"
	"jobportal/internal/model"
	"jobportal/internal/policy"
	"jobportal/internal/queue"
	"jobportal/internal/repository"
	"jobportal/internal/storage"
)

// CertificateInput holds the descriptive fields of an uploaded certificate.
type CertificateInput struct {
	Title       string
	Issuer      string
	IssueDate   *time.Time
	Description string
}

// CertificateService handles certificate upload and verification. Every
// change is mirrored into the owning student's profile.
type CertificateService interface {
	Upload(ctx context.Context, actor *model.User, in CertificateInput, file *multipart.FileHeader) (*model.Certificate, error)
	Verify(ctx context.Context, actor *model.User, id uuid.UUID, status model.CertificateStatus, notes string) (*model.Certificate, error)
	Delete(ctx context.Context, actor *model.User, id uuid.UUID) error
	ListForStudent(ctx context.Context, actor *model.User) ([]model.Certificate, error)
	ListAll(ctx context.Context, actor *model.User, status model.CertificateStatus) ([]model.Certificate, error)
}

type certificateService struct {
	store   repository.Store
	storage storage.Storage
	log     zerolog.Logger
}

// NewCertificateService creates a new certificate service.
func NewCertificateService(store repository.Store, files storage.Storage, log zerolog.Logger) CertificateService {
	return &certificateService{store: store, storage: files, log: log}
}

// Upload stores the file, then records the certificate and its mirror entry
// in one transaction. The file is removed when the transaction fails.
func (s *certificateService) Upload(ctx context.Context, actor *model.User, in CertificateInput, file *multipart.FileHeader) (*model.Certificate, error) {
	if err := requireRole(actor, model.RoleStudent); err != nil {
		return nil, err
	}
	if file == nil {
		return nil, apperrors.ErrFileRequired
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, apperrors.Validation("title is required")
	}
	if err := storage.Validate(storage.KindCertificate, file); err != nil {
		return nil, err
	}

	meta, err := s.storage.Save(ctx, storage.KindCertificate, file)
	if err != nil {
		return nil, err
	}

	cert := &model.Certificate{
		StudentID:   actor.ID,
		Title:       title,
		Issuer:      strings.TrimSpace(in.Issuer),
		IssueDate:   in.IssueDate,
		Description: strings.TrimSpace(in.Description),
		File:        datatypes.NewJSONType(meta),
		Status:      model.CertificatePending,
	}
	err = s.store.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		if err := tx.Certificates().Create(ctx, cert); err != nil {
			return fmt.Errorf("create certificate: %w", err)
		}
		student, err := tx.Users().FindByIDForUpdate(ctx, actor.ID)
		if err != nil {
			return notFound(err, "student")
		}
		d := student.Student()
		d.Certificates = append(d.Certificates, model.CertificateMirror{
			CertificateID: cert.ID,
			Title:         cert.Title,
			Status:        cert.Status,
		})
		student.SetStudent(d)
		if err := tx.Users().Update(ctx, student, "student_details"); err != nil {
			return fmt.Errorf("mirror certificate: %w", err)
		}
		return appendEvent(ctx, tx, queue.KindCertificateUploaded, queue.CertificateUploaded{
			CertificateID: cert.ID,
			Title:         cert.Title,
			StudentID:     actor.ID,
			StudentName:   actor.Name,
		})
	})
	if err != nil {
		storage.DeleteAll(ctx, s.storage, []model.FileMeta{meta}, &s.log)
		return nil, err
	}
	return cert, nil
}

// Verify records an admin verdict on a pending certificate.
func (s *certificateService) Verify(ctx context.Context, actor *model.User, id uuid.UUID, status model.CertificateStatus, notes string) (*model.Certificate, error) {
	if !status.Verdict() {
		return nil, apperrors.Validation("status must be verified or rejected")
	}
	cert, err := s.store.Certificates().FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "certificate")
	}
	if err := policy.Authorize(actor, policy.CertificateVerify, policy.Certificate(cert)); err != nil {
		return nil, err
	}

	notes = strings.TrimSpace(notes)
	err = s.store.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		ok, err := tx.Certificates().Transition(ctx, cert.ID, model.CertificatePending, repository.CertificateTransition{
			To:           status,
			VerifiedBy:   actor.ID,
			VerifiedDate: time.Now(),
			Notes:        notes,
		})
		if err != nil {
			return fmt.Errorf("update certificate status: %w", err)
		}
		if !ok {
			return fmt.Errorf("%w: certificate has already been reviewed", apperrors.ErrInvalidTransition)
		}

		student, err := tx.Users().FindByIDForUpdate(ctx, cert.StudentID)
		if err != nil {
			return notFound(err, "student")
		}
		d := student.Student()
		for i := range d.Certificates {
			if d.Certificates[i].CertificateID == cert.ID {
				d.Certificates[i].Status = status
			}
		}
		student.SetStudent(d)
		if err := tx.Users().Update(ctx, student, "student_details"); err != nil {
			return fmt.Errorf("mirror certificate status: %w", err)
		}

		return appendEvent(ctx, tx, queue.KindCertificateVerified, queue.CertificateVerified{
			CertificateID: cert.ID,
			Title:         cert.Title,
			StudentID:     cert.StudentID,
			Status:        string(status),
			Notes:         notes,
		})
	})
	if err != nil {
		return nil, err
	}

	updated, err := s.store.Certificates().FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "certificate")
	}
	return updated, nil
}

// Delete removes a certificate and its mirror entry. The stored file is
// removed after commit; a failure there only leaves an orphan file.
func (s *certificateService) Delete(ctx context.Context, actor *model.User, id uuid.UUID) error {
	cert, err := s.store.Certificates().FindByID(ctx, id)
	if err != nil {
		return notFound(err, "certificate")
	}
	if err := policy.Authorize(actor, policy.CertificateDelete, policy.Certificate(cert)); err != nil {
		return err
	}

	err = s.store.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		if err := tx.Certificates().Delete(ctx, cert.ID); err != nil {
			return notFound(err, "certificate")
		}
		student, err := tx.Users().FindByIDForUpdate(ctx, cert.StudentID)
		if err != nil {
			return notFound(err, "student")
		}
		d := student.Student()
		kept := d.Certificates[:0]
		for _, m := range d.Certificates {
			if m.CertificateID != cert.ID {
				kept = append(kept, m)
			}
		}
		d.Certificates = kept
		student.SetStudent(d)
		return tx.Users().Update(ctx, student, "student_details")
	})
	if err != nil {
		return err
	}

	storage.DeleteAll(ctx, s.storage, []model.FileMeta{cert.File.Data()}, &s.log)
	return nil
}

// ListForStudent returns the actor's certificates.
func (s *certificateService) ListForStudent(ctx context.Context, actor *model.User) ([]model.Certificate, error) {
	if err := requireRole(actor, model.RoleStudent); err != nil {
		return nil, err
	}
	return s.store.Certificates().List(ctx, repository.CertificateFilter{StudentID: &actor.ID})
}

// ListAll returns every certificate, optionally by status.
func (s *certificateService) ListAll(ctx context.Context, actor *model.User, status model.CertificateStatus) ([]model.Certificate, error) {
	if err := requireRole(actor, model.RoleAdmin); err != nil {
		return nil, err
	}
	return s.store.Certificates().List(ctx, repository.CertificateFilter{Status: status})
}
