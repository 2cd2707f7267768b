package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	apperrors "jobportal/internal/errors"
	"jobportal/internal/model"
	"jobportal/internal/policy"
	"jobportal/internal/repository"
)

// MockTestInput holds mock test fields. Nil fields are left unchanged on update.
type MockTestInput struct {
	Title           *string
	Category        *string
	Description     *string
	DurationMinutes *int
	Questions       []model.Question
	IsActive        *bool
}

// MockTestService manages practice exams and scores attempts.
type MockTestService interface {
	List(ctx context.Context, actor *model.User, category string) ([]model.MockTest, error)
	Get(ctx context.Context, actor *model.User, id uuid.UUID) (*model.MockTest, error)
	Create(ctx context.Context, actor *model.User, in MockTestInput) (*model.MockTest, error)
	Update(ctx context.Context, actor *model.User, id uuid.UUID, in MockTestInput) (*model.MockTest, error)
	Delete(ctx context.Context, actor *model.User, id uuid.UUID) error
	Submit(ctx context.Context, actor *model.User, id uuid.UUID, answers []int) (*model.MockTestResult, error)
	Results(ctx context.Context, actor *model.User) ([]model.MockTestResult, error)
}

type mockTestService struct {
	store repository.Store
}

// NewMockTestService creates a new mock test service.
func NewMockTestService(store repository.Store) MockTestService {
	return &mockTestService{store: store}
}

// List returns mock tests. Only admins see inactive tests and answer keys.
func (s *mockTestService) List(ctx context.Context, actor *model.User, category string) ([]model.MockTest, error) {
	admin := actor.Role == model.RoleAdmin
	tests, err := s.store.MockTests().List(ctx, strings.TrimSpace(category), !admin)
	if err != nil {
		return nil, fmt.Errorf("list mock tests: %w", err)
	}
	if !admin {
		for i := range tests {
			tests[i] = tests[i].Redacted()
		}
	}
	return tests, nil
}

// Get returns one mock test, without the answer key for non-admins.
func (s *mockTestService) Get(ctx context.Context, actor *model.User, id uuid.UUID) (*model.MockTest, error) {
	test, err := s.store.MockTests().FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "mock test")
	}
	if actor.Role == model.RoleAdmin {
		return test, nil
	}
	if !test.IsActive {
		return nil, fmt.Errorf("%w: mock test", apperrors.ErrNotFound)
	}
	redacted := test.Redacted()
	return &redacted, nil
}

// Create adds a mock test.
func (s *mockTestService) Create(ctx context.Context, actor *model.User, in MockTestInput) (*model.MockTest, error) {
	if err := policy.Authorize(actor, policy.MockTestManage, policy.Admin("mocktest")); err != nil {
		return nil, err
	}
	test := &model.MockTest{IsActive: true, CreatedBy: actor.ID}
	applyMockTest(test, in)
	if err := validateMockTest(test); err != nil {
		return nil, err
	}
	if err := s.store.MockTests().Create(ctx, test); err != nil {
		return nil, fmt.Errorf("create mock test: %w", err)
	}
	return test, nil
}

// Update edits a mock test.
func (s *mockTestService) Update(ctx context.Context, actor *model.User, id uuid.UUID, in MockTestInput) (*model.MockTest, error) {
	if err := policy.Authorize(actor, policy.MockTestManage, policy.Admin("mocktest")); err != nil {
		return nil, err
	}
	test, err := s.store.MockTests().FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "mock test")
	}
	applyMockTest(test, in)
	if err := validateMockTest(test); err != nil {
		return nil, err
	}
	if err := s.store.MockTests().Update(ctx, test); err != nil {
		return nil, fmt.Errorf("update mock test: %w", err)
	}
	return test, nil
}

// Delete deactivates a mock test; past results stay.
func (s *mockTestService) Delete(ctx context.Context, actor *model.User, id uuid.UUID) error {
	inactive := false
	_, err := s.Update(ctx, actor, id, MockTestInput{IsActive: &inactive})
	return err
}

// Submit scores an attempt. Each answer is an option index, or -1 when skipped.
func (s *mockTestService) Submit(ctx context.Context, actor *model.User, id uuid.UUID, answers []int) (*model.MockTestResult, error) {
	if err := requireRole(actor, model.RoleStudent); err != nil {
		return nil, err
	}
	test, err := s.store.MockTests().FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "mock test")
	}
	if !test.IsActive {
		return nil, fmt.Errorf("%w: mock test", apperrors.ErrNotFound)
	}
	if len(answers) != len(test.Questions) {
		return nil, apperrors.Validation("expected %d answers, got %d", len(test.Questions), len(answers))
	}

	now := time.Now()
	ent, err := resolveEntitlements(ctx, s.store, actor, now)
	if err != nil {
		return nil, err
	}
	if !ent.CanTakeMockTest() {
		return nil, fmt.Errorf("%w: %d mock tests on plan %s", apperrors.ErrLimitReached, ent.MockTestLimit, ent.PlanName)
	}

	score := 0
	for i, q := range test.Questions {
		if q.Answer != nil && answers[i] == *q.Answer {
			score++
		}
	}
	result := &model.MockTestResult{
		MockTestID:  test.ID,
		StudentID:   actor.ID,
		Title:       test.Title,
		Score:       score,
		Total:       len(test.Questions),
		Answers:     datatypes.JSONSlice[int](answers),
		CompletedAt: now,
	}
	if err := s.store.MockTests().CreateResult(ctx, result); err != nil {
		return nil, fmt.Errorf("store result: %w", err)
	}
	return result, nil
}

// Results returns the actor's past attempts.
func (s *mockTestService) Results(ctx context.Context, actor *model.User) ([]model.MockTestResult, error) {
	if err := requireRole(actor, model.RoleStudent); err != nil {
		return nil, err
	}
	return s.store.MockTests().ListResults(ctx, actor.ID)
}

func applyMockTest(test *model.MockTest, in MockTestInput) {
	if in.Title != nil {
		test.Title = strings.TrimSpace(*in.Title)
	}
	if in.Category != nil {
		test.Category = strings.TrimSpace(*in.Category)
	}
	if in.Description != nil {
		test.Description = *in.Description
	}
	if in.DurationMinutes != nil {
		test.DurationMinutes = *in.DurationMinutes
	}
	if in.Questions != nil {
		test.Questions = datatypes.JSONSlice[model.Question](in.Questions)
	}
	if in.IsActive != nil {
		test.IsActive = *in.IsActive
	}
}

func validateMockTest(test *model.MockTest) error {
	if test.Title == "" {
		return apperrors.Validation("title is required")
	}
	if test.DurationMinutes < 1 {
		return apperrors.Validation("durationMinutes must be at least 1")
	}
	if len(test.Questions) == 0 {
		return apperrors.Validation("at least one question is required")
	}
	for i, q := range test.Questions {
		if strings.TrimSpace(q.Prompt) == "" {
			return apperrors.Validation("question %d has no prompt", i+1)
		}
		if len(q.Options) < 2 {
			return apperrors.Validation("question %d needs at least two options", i+1)
		}
		if q.Answer == nil || *q.Answer < 0 || *q.Answer >= len(q.Options) {
			return apperrors.Validation("question %d has no valid answer", i+1)
		}
	}
	return nil
}
