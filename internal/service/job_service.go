package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"jobportal/internal/cache"
	apperrors "jobportal/internal/errors"
	"jobportal/internal/model"
	"jobportal/internal/policy"
	"jobportal/internal/repository"
)

const jobCacheTTL = 5 * time.Minute

func jobCacheKey(id uuid.UUID) string {
	return fmt.Sprintf("job:%s", id.String())
}

// invalidateJob drops the cached copy of a job. Failures only cost freshness.
func invalidateJob(ctx context.Context, c *cache.Client, log zerolog.Logger, id uuid.UUID) {
	if err := c.Delete(ctx, jobCacheKey(id)); err != nil {
		log.Warn().Err(err).Str("job_id", id.String()).Msg("job cache invalidation failed")
	}
}

// JobInput holds job fields. Nil fields are left unchanged on update.
type JobInput struct {
	Title               *string
	Description         *string
	Department          *string
	Location            *string
	Category            *string
	Qualification       *string
	SalaryRange         *string
	Vacancies           *int
	ApplicationDeadline *time.Time
	IsActive            *bool
}

// JobService handles job postings.
type JobService interface {
	List(ctx context.Context, filter repository.JobFilter, page repository.Pagination) (*Page[model.Job], error)
	Get(ctx context.Context, id uuid.UUID) (*model.Job, error)
	ListMine(ctx context.Context, actor *model.User, page repository.Pagination) (*Page[model.Job], error)
	Create(ctx context.Context, actor *model.User, in JobInput) (*model.Job, error)
	Update(ctx context.Context, actor *model.User, id uuid.UUID, in JobInput) (*model.Job, error)
	Delete(ctx context.Context, actor *model.User, id uuid.UUID) error
}

type jobService struct {
	store repository.Store
	cache *cache.Client
	log   zerolog.Logger
}

// NewJobService creates a new job service.
func NewJobService(store repository.Store, cache *cache.Client, log zerolog.Logger) JobService {
	return &jobService{store: store, cache: cache, log: log}
}

// List returns active jobs, newest first.
func (s *jobService) List(ctx context.Context, filter repository.JobFilter, page repository.Pagination) (*Page[model.Job], error) {
	filter.IncludeInactive = false
	jobs, total, err := s.store.Jobs().List(ctx, filter, page)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	return newPage(jobs, total, page), nil
}

// Get retrieves a job by ID with caching.
func (s *jobService) Get(ctx context.Context, id uuid.UUID) (*model.Job, error) {
	if data, _ := s.cache.Get(ctx, jobCacheKey(id)); data != nil {
		var cached model.Job
		if err := json.Unmarshal(data, &cached); err == nil {
			return &cached, nil
		}
	}

	job, err := s.store.Jobs().FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "job")
	}

	if payload, err := json.Marshal(job); err == nil {
		_ = s.cache.Set(ctx, jobCacheKey(id), payload, jobCacheTTL)
	}
	return job, nil
}

// ListMine returns every job the actor posted, including deactivated ones.
func (s *jobService) ListMine(ctx context.Context, actor *model.User, page repository.Pagination) (*Page[model.Job], error) {
	if err := requireRole(actor, model.RoleEmployer, model.RoleAdmin); err != nil {
		return nil, err
	}
	jobs, total, err := s.store.Jobs().List(ctx, repository.JobFilter{PostedBy: &actor.ID, IncludeInactive: true}, page)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	return newPage(jobs, total, page), nil
}

// Create posts a job under the actor's shop name.
func (s *jobService) Create(ctx context.Context, actor *model.User, in JobInput) (*model.Job, error) {
	if err := requireRole(actor, model.RoleEmployer, model.RoleAdmin); err != nil {
		return nil, err
	}
	if in.Title == nil || in.Department == nil || in.Location == nil || in.ApplicationDeadline == nil {
		return nil, apperrors.Validation("title, department, location and applicationDeadline are required")
	}
	if !in.ApplicationDeadline.After(time.Now()) {
		return nil, apperrors.Validation("applicationDeadline must be in the future")
	}

	job := &model.Job{
		Vacancies:  1,
		IsActive:   true,
		PostedBy:   actor.ID,
		Shopkeeper: actor.ShopLabel(),
	}
	applyJob(job, in)
	if err := validateJob(job); err != nil {
		return nil, err
	}
	if err := s.store.Jobs().Create(ctx, job); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}
	return job, nil
}

// Update edits a job the actor owns. Admins may edit any job.
func (s *jobService) Update(ctx context.Context, actor *model.User, id uuid.UUID, in JobInput) (*model.Job, error) {
	job, err := s.store.Jobs().FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "job")
	}
	if err := policy.Authorize(actor, policy.JobUpdate, policy.Job(job)); err != nil {
		return nil, err
	}

	applyJob(job, in)
	if err := validateJob(job); err != nil {
		return nil, err
	}
	if err := s.store.Jobs().Update(ctx, job); err != nil {
		return nil, fmt.Errorf("update job: %w", err)
	}
	invalidateJob(ctx, s.cache, s.log, id)
	return job, nil
}

// Delete deactivates a job. The row stays so applications keep their reference.
func (s *jobService) Delete(ctx context.Context, actor *model.User, id uuid.UUID) error {
	job, err := s.store.Jobs().FindByID(ctx, id)
	if err != nil {
		return notFound(err, "job")
	}
	if err := policy.Authorize(actor, policy.JobDelete, policy.Job(job)); err != nil {
		return err
	}
	if !job.IsActive {
		return nil
	}
	job.IsActive = false
	if err := s.store.Jobs().Update(ctx, job); err != nil {
		return fmt.Errorf("delete job: %w", err)
	}
	invalidateJob(ctx, s.cache, s.log, id)
	return nil
}

func applyJob(job *model.Job, in JobInput) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	set(&job.Title, in.Title)
	set(&job.Description, in.Description)
	set(&job.Department, in.Department)
	set(&job.Location, in.Location)
	set(&job.Category, in.Category)
	set(&job.Qualification, in.Qualification)
	set(&job.SalaryRange, in.SalaryRange)
	if in.Vacancies != nil {
		job.Vacancies = *in.Vacancies
	}
	if in.ApplicationDeadline != nil {
		job.ApplicationDeadline = *in.ApplicationDeadline
	}
	if in.IsActive != nil {
		job.IsActive = *in.IsActive
	}
}

func validateJob(job *model.Job) error {
	switch {
	case job.Title == "":
		return apperrors.Validation("title is required")
	case job.Department == "":
		return apperrors.Validation("department is required")
	case job.Location == "":
		return apperrors.Validation("location is required")
	case job.Vacancies < 1:
		return apperrors.Validation("vacancies must be at least 1")
	case job.ApplicationDeadline.IsZero():
		return apperrors.Validation("applicationDeadline is required")
	}
	return nil
}
