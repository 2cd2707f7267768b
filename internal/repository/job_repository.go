package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"jobportal/internal/model"
)

// ErrCountUnderflow is returned when a decrement would make application_count negative.
var ErrCountUnderflow = errors.New("application count would become negative")

// JobFilter narrows job listings. Search matches title, department or location.
type JobFilter struct {
	Search     string
	Department string
	Location   string
	Category   string
	PostedBy   *uuid.UUID
	// IncludeInactive lists soft-deleted jobs too.
	IncludeInactive bool
}

// JobRepository defines job persistence operations.
type JobRepository interface {
	Create(ctx context.Context, job *model.Job) error
	Update(ctx context.Context, job *model.Job) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Job, error)
	List(ctx context.Context, filter JobFilter, page Pagination) ([]model.Job, int64, error)
	// IncrementApplications adds delta to application_count, never going below zero.
	IncrementApplications(ctx context.Context, id uuid.UUID, delta int) error
}

type jobRepository struct {
	db *gorm.DB
}

// NewJobRepository creates a new job repository.
func NewJobRepository(db *gorm.DB) JobRepository {
	return &jobRepository{db: db}
}

// Create creates a new job.
func (r *jobRepository) Create(ctx context.Context, job *model.Job) error {
	return translate(r.db.WithContext(ctx).Create(job).Error)
}

// Update saves the editable columns of a job. application_count is owned by
// IncrementApplications and is never overwritten here.
func (r *jobRepository) Update(ctx context.Context, job *model.Job) error {
	return r.db.WithContext(ctx).Model(job).
		Select("title", "description", "department", "location", "category", "qualification",
			"salary_range", "vacancies", "application_deadline", "is_active", "shopkeeper").
		Updates(job).Error
}

// FindByID finds a job by ID, active or not.
func (r *jobRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Job, error) {
	var job model.Job
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&job).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

// List returns a page of jobs, newest first, and the total matching count.
func (r *jobRepository) List(ctx context.Context, filter JobFilter, page Pagination) ([]model.Job, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Job{})
	if !filter.IncludeInactive {
		q = q.Where("is_active = ?", true)
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		p := likePattern(s)
		q = q.Where("title LIKE ? OR department LIKE ? OR location LIKE ?", p, p, p)
	}
	if d := strings.TrimSpace(filter.Department); d != "" {
		q = q.Where("department LIKE ?", likePattern(d))
	}
	if l := strings.TrimSpace(filter.Location); l != "" {
		q = q.Where("location LIKE ?", likePattern(l))
	}
	if c := strings.TrimSpace(filter.Category); c != "" {
		q = q.Where("category = ?", c)
	}
	if filter.PostedBy != nil {
		q = q.Where("posted_by = ?", *filter.PostedBy)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var jobs []model.Job
	if err := q.Order("created_at DESC").Offset(page.Offset()).Limit(page.Limit).Find(&jobs).Error; err != nil {
		return nil, 0, err
	}
	return jobs, total, nil
}

// IncrementApplications atomically adjusts application_count.
func (r *jobRepository) IncrementApplications(ctx context.Context, id uuid.UUID, delta int) error {
	q := r.db.WithContext(ctx).Model(&model.Job{}).Where("id = ?", id)
	if delta < 0 {
		q = q.Where("application_count >= ?", -delta)
	}
	res := q.UpdateColumn("application_count", gorm.Expr("application_count + ?", delta))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		if delta < 0 {
			return ErrCountUnderflow
		}
		return gorm.ErrRecordNotFound
	}
	return nil
}
