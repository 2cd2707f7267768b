package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"jobportal/internal/model"
)

// CertificateFilter narrows certificate listings.
type CertificateFilter struct {
	StudentID *uuid.UUID
	Status    model.CertificateStatus
}

// CertificateTransition is the set of columns written by a verification.
type CertificateTransition struct {
	To           model.CertificateStatus
	VerifiedBy   uuid.UUID
	VerifiedDate time.Time
	Notes        string
}

// CertificateRepository defines certificate persistence operations.
type CertificateRepository interface {
	Create(ctx context.Context, cert *model.Certificate) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Certificate, error)
	List(ctx context.Context, filter CertificateFilter) ([]model.Certificate, error)
	// Transition reports false without error when the current status is not from.
	Transition(ctx context.Context, id uuid.UUID, from model.CertificateStatus, t CertificateTransition) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type certificateRepository struct {
	db *gorm.DB
}

// NewCertificateRepository creates a new certificate repository.
func NewCertificateRepository(db *gorm.DB) CertificateRepository {
	return &certificateRepository{db: db}
}

// Create creates a new certificate.
func (r *certificateRepository) Create(ctx context.Context, cert *model.Certificate) error {
	return translate(r.db.WithContext(ctx).Create(cert).Error)
}

// FindByID finds a certificate by ID.
func (r *certificateRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Certificate, error) {
	var cert model.Certificate
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&cert).Error; err != nil {
		return nil, err
	}
	return &cert, nil
}

// List returns matching certificates, newest first.
func (r *certificateRepository) List(ctx context.Context, filter CertificateFilter) ([]model.Certificate, error) {
	q := r.db.WithContext(ctx).Model(&model.Certificate{})
	if filter.StudentID != nil {
		q = q.Where("student_id = ?", *filter.StudentID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	var certs []model.Certificate
	if err := q.Order("created_at DESC").Find(&certs).Error; err != nil {
		return nil, err
	}
	return certs, nil
}

// Transition performs a conditional status update.
func (r *certificateRepository) Transition(ctx context.Context, id uuid.UUID, from model.CertificateStatus, t CertificateTransition) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Certificate{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{
			"status":        t.To,
			"verified_by":   t.VerifiedBy,
			"verified_date": t.VerifiedDate,
			"notes":         t.Notes,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// Delete removes a certificate.
func (r *certificateRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Certificate{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
