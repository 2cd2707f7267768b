package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"jobportal/internal/model"
)

// ApplicationFilter narrows application listings. Zero values are ignored.
type ApplicationFilter struct {
	StudentID  *uuid.UUID
	EmployerID *uuid.UUID
	JobID      *uuid.UUID
	Status     model.ApplicationStatus
}

// ApplicationTransition is the set of columns written by a status change.
type ApplicationTransition struct {
	To           model.ApplicationStatus
	ReviewedBy   *uuid.UUID
	ReviewedDate *time.Time
	Notes        *string
}

// ApplicationRepository defines application persistence operations.
type ApplicationRepository interface {
	// Create inserts an application; a second one for the same student and job yields ErrDuplicate.
	Create(ctx context.Context, app *model.Application) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Application, error)
	FindByStudentAndJob(ctx context.Context, studentID, jobID uuid.UUID) (*model.Application, error)
	List(ctx context.Context, filter ApplicationFilter) ([]model.Application, error)
	CountActiveByStudent(ctx context.Context, studentID uuid.UUID, since time.Time) (int64, error)
	// Transition moves an application from one status to another. It reports
	// false without error when the current status is not from.
	Transition(ctx context.Context, id uuid.UUID, from model.ApplicationStatus, t ApplicationTransition) (bool, error)
}

type applicationRepository struct {
	db *gorm.DB
}

// NewApplicationRepository creates a new application repository.
func NewApplicationRepository(db *gorm.DB) ApplicationRepository {
	return &applicationRepository{db: db}
}

// Create creates a new application.
func (r *applicationRepository) Create(ctx context.Context, app *model.Application) error {
	return translate(r.db.WithContext(ctx).Create(app).Error)
}

// FindByID finds an application by ID.
func (r *applicationRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Application, error) {
	var app model.Application
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&app).Error; err != nil {
		return nil, err
	}
	return &app, nil
}

// FindByStudentAndJob finds the application of a student for a job.
func (r *applicationRepository) FindByStudentAndJob(ctx context.Context, studentID, jobID uuid.UUID) (*model.Application, error) {
	var app model.Application
	if err := r.db.WithContext(ctx).Where("student_id = ? AND job_id = ?", studentID, jobID).
		First(&app).Error; err != nil {
		return nil, err
	}
	return &app, nil
}

// List returns matching applications, most recent first.
func (r *applicationRepository) List(ctx context.Context, filter ApplicationFilter) ([]model.Application, error) {
	q := r.db.WithContext(ctx).Model(&model.Application{})
	if filter.StudentID != nil {
		q = q.Where("student_id = ?", *filter.StudentID)
	}
	if filter.EmployerID != nil {
		q = q.Where("employer_id = ?", *filter.EmployerID)
	}
	if filter.JobID != nil {
		q = q.Where("job_id = ?", *filter.JobID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	var apps []model.Application
	if err := q.Order("applied_at DESC").Find(&apps).Error; err != nil {
		return nil, err
	}
	return apps, nil
}

// CountActiveByStudent counts applications not withdrawn, submitted at or after since.
func (r *applicationRepository) CountActiveByStudent(ctx context.Context, studentID uuid.UUID, since time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Application{}).
		Where("student_id = ? AND status <> ? AND applied_at >= ?", studentID, model.ApplicationWithdrawn, since).
		Count(&n).Error
	return n, err
}

// Transition performs a conditional status update.
func (r *applicationRepository) Transition(ctx context.Context, id uuid.UUID, from model.ApplicationStatus, t ApplicationTransition) (bool, error) {
	updates := map[string]interface{}{"status": t.To}
	if t.ReviewedBy != nil {
		updates["reviewed_by"] = *t.ReviewedBy
	}
	if t.ReviewedDate != nil {
		updates["reviewed_date"] = *t.ReviewedDate
	}
	if t.Notes != nil {
		updates["notes"] = *t.Notes
	}
	res := r.db.WithContext(ctx).Model(&model.Application{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
