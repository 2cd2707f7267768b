package service

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"jobportal/internal/cache"
	apperrors "jobportal/internal/errors"
	"jobportal/internal/model"
	"jobportal/internal/policy"
	"jobportal/internal/queue"
	"jobportal/internal/repository"
	"jobportal/internal/storage"
)

// MaxApplicationDocuments caps the supporting documents on one application.
const MaxApplicationDocuments = 5

// SubmitInput is a student's application to a job.
type SubmitInput struct {
	JobID       uuid.UUID
	CoverLetter string
	Resume      *multipart.FileHeader
	Documents   []*multipart.FileHeader
}

// ApplicationService runs the application lifecycle: pending, then accepted,
// rejected or withdrawn, all terminal.
type ApplicationService interface {
	Submit(ctx context.Context, actor *model.User, in SubmitInput) (*model.Application, error)
	SetStatus(ctx context.Context, actor *model.User, id uuid.UUID, status model.ApplicationStatus, notes string) (*model.Application, error)
	Withdraw(ctx context.Context, actor *model.User, id uuid.UUID) (*model.Application, error)
	Get(ctx context.Context, actor *model.User, id uuid.UUID) (*model.Application, error)
	ListForStudent(ctx context.Context, actor *model.User) ([]model.Application, error)
	ListForEmployer(ctx context.Context, actor *model.User, jobID *uuid.UUID, status model.ApplicationStatus) ([]model.Application, error)
	ListAll(ctx context.Context, actor *model.User, status model.ApplicationStatus) ([]model.Application, error)
}

type applicationService struct {
	store   repository.Store
	storage storage.Storage
	cache   *cache.Client
	log     zerolog.Logger
}

// NewApplicationService creates a new application service.
func NewApplicationService(store repository.Store, files storage.Storage, cache *cache.Client, log zerolog.Logger) ApplicationService {
	return &applicationService{store: store, storage: files, cache: cache, log: log}
}

// Submit applies the actor to a job. Files are stored before the database
// write; if the write fails they are removed again.
func (s *applicationService) Submit(ctx context.Context, actor *model.User, in SubmitInput) (*model.Application, error) {
	job, err := s.store.Jobs().FindByID(ctx, in.JobID)
	if err != nil {
		return nil, notFound(err, "job")
	}
	if !job.IsActive {
		return nil, fmt.Errorf("%w: job", apperrors.ErrNotFound)
	}
	now := time.Now()
	if !job.Open(now) {
		return nil, apperrors.ErrDeadlinePassed
	}
	if err := requireRole(actor, model.RoleStudent); err != nil {
		return nil, err
	}

	if len(in.Documents) > MaxApplicationDocuments {
		return nil, apperrors.Validation("at most %d documents are allowed", MaxApplicationDocuments)
	}
	if in.Resume != nil {
		if err := storage.Validate(storage.KindResume, in.Resume); err != nil {
			return nil, err
		}
	}
	for _, fh := range in.Documents {
		if err := storage.Validate(storage.KindDocument, fh); err != nil {
			return nil, err
		}
	}

	if _, err := s.store.Applications().FindByStudentAndJob(ctx, actor.ID, job.ID); err == nil {
		return nil, fmt.Errorf("%w: application for this job", apperrors.ErrConflict)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("check existing application: %w", err)
	}

	ent, err := resolveEntitlements(ctx, s.store, actor, now)
	if err != nil {
		return nil, err
	}
	if !ent.CanApply() {
		return nil, fmt.Errorf("%w: %d applications on plan %s", apperrors.ErrLimitReached, ent.ApplicationLimit, ent.PlanName)
	}

	var stored []model.FileMeta
	app := &model.Application{
		JobID:        job.ID,
		StudentID:    actor.ID,
		EmployerID:   job.PostedBy,
		JobTitle:     job.Title,
		Department:   job.Department,
		Shopkeeper:   job.Shopkeeper,
		StudentName:  actor.Name,
		StudentEmail: actor.Email,
		CoverLetter:  strings.TrimSpace(in.CoverLetter),
		Documents:    datatypes.JSONSlice[model.FileMeta]{},
		Status:       model.ApplicationPending,
		AppliedAt:    now,
	}
	if in.Resume != nil {
		meta, err := s.storage.Save(ctx, storage.KindResume, in.Resume)
		if err != nil {
			return nil, err
		}
		stored = append(stored, meta)
		app.Resume = datatypes.NewJSONType(&meta)
	}
	if len(in.Documents) > 0 {
		docs, err := storage.SaveAll(ctx, s.storage, storage.KindDocument, in.Documents)
		if err != nil {
			storage.DeleteAll(ctx, s.storage, stored, &s.log)
			return nil, err
		}
		stored = append(stored, docs...)
		app.Documents = datatypes.JSONSlice[model.FileMeta](docs)
	}

	err = s.store.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		if err := tx.Applications().Create(ctx, app); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return fmt.Errorf("%w: application for this job", apperrors.ErrConflict)
			}
			return fmt.Errorf("create application: %w", err)
		}
		if err := tx.Jobs().IncrementApplications(ctx, job.ID, 1); err != nil {
			return fmt.Errorf("increment application count: %w", err)
		}
		return appendEvent(ctx, tx, queue.KindApplicationSubmitted, queue.ApplicationSubmitted{
			ApplicationID: app.ID,
			JobID:         job.ID,
			JobTitle:      job.Title,
			StudentID:     actor.ID,
			StudentName:   actor.Name,
			EmployerID:    job.PostedBy,
		})
	})
	if err != nil {
		storage.DeleteAll(ctx, s.storage, stored, &s.log)
		return nil, err
	}

	invalidateJob(ctx, s.cache, s.log, job.ID)
	return app, nil
}

// SetStatus records an employer or admin verdict on a pending application.
func (s *applicationService) SetStatus(ctx context.Context, actor *model.User, id uuid.UUID, status model.ApplicationStatus, notes string) (*model.Application, error) {
	if !status.Reviewable() {
		return nil, apperrors.Validation("status must be accepted or rejected")
	}
	app, err := s.store.Applications().FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "application")
	}
	if err := policy.Authorize(actor, policy.ApplicationReview, policy.Application(app)); err != nil {
		return nil, err
	}

	now := time.Now()
	notes = strings.TrimSpace(notes)
	err = s.store.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		ok, err := tx.Applications().Transition(ctx, app.ID, model.ApplicationPending, repository.ApplicationTransition{
			To:           status,
			ReviewedBy:   &actor.ID,
			ReviewedDate: &now,
			Notes:        &notes,
		})
		if err != nil {
			return fmt.Errorf("update application status: %w", err)
		}
		if !ok {
			return fmt.Errorf("%w: application is no longer pending", apperrors.ErrInvalidTransition)
		}
		return appendEvent(ctx, tx, queue.KindApplicationStatusChanged, queue.ApplicationStatusChanged{
			ApplicationID: app.ID,
			JobID:         app.JobID,
			JobTitle:      app.JobTitle,
			StudentID:     app.StudentID,
			Status:        string(status),
			Notes:         notes,
		})
	})
	if err != nil {
		return nil, err
	}

	return s.reload(ctx, app.ID)
}

// Withdraw lets the owning student pull back a pending application.
func (s *applicationService) Withdraw(ctx context.Context, actor *model.User, id uuid.UUID) (*model.Application, error) {
	app, err := s.store.Applications().FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "application")
	}
	if err := policy.Authorize(actor, policy.ApplicationWithdraw, policy.Application(app)); err != nil {
		return nil, err
	}

	err = s.store.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		ok, err := tx.Applications().Transition(ctx, app.ID, model.ApplicationPending, repository.ApplicationTransition{
			To: model.ApplicationWithdrawn,
		})
		if err != nil {
			return fmt.Errorf("withdraw application: %w", err)
		}
		if !ok {
			return fmt.Errorf("%w: application is no longer pending", apperrors.ErrInvalidTransition)
		}
		if err := tx.Jobs().IncrementApplications(ctx, app.JobID, -1); err != nil {
			return fmt.Errorf("decrement application count: %w", err)
		}
		return appendEvent(ctx, tx, queue.KindApplicationWithdrawn, queue.ApplicationWithdrawn{
			ApplicationID: app.ID,
			JobID:         app.JobID,
			JobTitle:      app.JobTitle,
			StudentName:   app.StudentName,
			EmployerID:    app.EmployerID,
		})
	})
	if err != nil {
		return nil, err
	}

	invalidateJob(ctx, s.cache, s.log, app.JobID)
	return s.reload(ctx, app.ID)
}

func (s *applicationService) reload(ctx context.Context, id uuid.UUID) (*model.Application, error) {
	app, err := s.store.Applications().FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "application")
	}
	return app, nil
}

// Get returns an application to its student, the job's employer or an admin.
func (s *applicationService) Get(ctx context.Context, actor *model.User, id uuid.UUID) (*model.Application, error) {
	app, err := s.store.Applications().FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "application")
	}
	if err := policy.Authorize(actor, policy.ApplicationView, policy.Application(app)); err != nil {
		return nil, err
	}
	return app, nil
}

// ListForStudent returns the actor's own applications, newest first.
func (s *applicationService) ListForStudent(ctx context.Context, actor *model.User) ([]model.Application, error) {
	if err := requireRole(actor, model.RoleStudent); err != nil {
		return nil, err
	}
	return s.store.Applications().List(ctx, repository.ApplicationFilter{StudentID: &actor.ID})
}

// ListForEmployer returns applications to jobs the actor posted.
func (s *applicationService) ListForEmployer(ctx context.Context, actor *model.User, jobID *uuid.UUID, status model.ApplicationStatus) ([]model.Application, error) {
	if err := requireRole(actor, model.RoleEmployer); err != nil {
		return nil, err
	}
	return s.store.Applications().List(ctx, repository.ApplicationFilter{
		EmployerID: &actor.ID,
		JobID:      jobID,
		Status:     status,
	})
}

// ListAll returns every application, optionally by status.
func (s *applicationService) ListAll(ctx context.Context, actor *model.User, status model.ApplicationStatus) ([]model.Application, error) {
	if err := requireRole(actor, model.RoleAdmin); err != nil {
		return nil, err
	}
	return s.store.Applications().List(ctx, repository.ApplicationFilter{Status: status})
}
