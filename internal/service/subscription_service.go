package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	apperrors "jobportal/internal/errors"
	"jobportal/internal/model"
	"jobportal/internal/policy"
	"jobportal/internal/repository"
)

// Free tier limits apply without an active plan.
const (
	FreeApplicationLimit = 5
	FreeMockTestLimit    = 2
)

// Entitlements are the limits in force for a user and how much of them is used.
// A zero limit means unlimited.
type Entitlements struct {
	PlanID           *uuid.UUID `json:"planId,omitempty"`
	PlanName         string     `json:"planName"`
	ExpiresAt        *time.Time `json:"expiresAt,omitempty"`
	ApplicationLimit int        `json:"applicationLimit"`
	MockTestLimit    int        `json:"mockTestLimit"`
	ApplicationsUsed int64      `json:"applicationsUsed"`
	MockTestsUsed    int64      `json:"mockTestsUsed"`
	// Since is the start of the counting period.
	Since time.Time `json:"since"`
}

// CanApply reports whether another application fits the limit.
func (e *Entitlements) CanApply() bool {
	return e.ApplicationLimit == 0 || e.ApplicationsUsed < int64(e.ApplicationLimit)
}

// CanTakeMockTest reports whether another mock test attempt fits the limit.
func (e *Entitlements) CanTakeMockTest() bool {
	return e.MockTestLimit == 0 || e.MockTestsUsed < int64(e.MockTestLimit)
}

// PlanInput holds plan fields. Nil fields are left unchanged on update.
type PlanInput struct {
	Name             *string
	Description      *string
	Price            *decimal.Decimal
	DurationDays     *int
	MockTestLimit    *int
	ApplicationLimit *int
	Features         []string
	IsActive         *bool
}

// SubscriptionService manages plans and the entitlements they grant.
type SubscriptionService interface {
	ListPlans(ctx context.Context) ([]model.SubscriptionPlan, error)
	GetPlan(ctx context.Context, id uuid.UUID) (*model.SubscriptionPlan, error)
	CreatePlan(ctx context.Context, actor *model.User, in PlanInput) (*model.SubscriptionPlan, error)
	UpdatePlan(ctx context.Context, actor *model.User, id uuid.UUID, in PlanInput) (*model.SubscriptionPlan, error)
	DeletePlan(ctx context.Context, actor *model.User, id uuid.UUID) error
	Subscribe(ctx context.Context, actor *model.User, planID uuid.UUID) (*model.User, error)
	Entitlements(ctx context.Context, actor *model.User) (*Entitlements, error)
}

type subscriptionService struct {
	store repository.Store
}

// NewSubscriptionService creates a new subscription service.
func NewSubscriptionService(store repository.Store) SubscriptionService {
	return &subscriptionService{store: store}
}

// ListPlans returns the active plans, cheapest first.
func (s *subscriptionService) ListPlans(ctx context.Context) ([]model.SubscriptionPlan, error) {
	return s.store.Plans().List(ctx, true)
}

// GetPlan returns one plan.
func (s *subscriptionService) GetPlan(ctx context.Context, id uuid.UUID) (*model.SubscriptionPlan, error) {
	plan, err := s.store.Plans().FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "subscription plan")
	}
	return plan, nil
}

// CreatePlan adds a plan to the catalog.
func (s *subscriptionService) CreatePlan(ctx context.Context, actor *model.User, in PlanInput) (*model.SubscriptionPlan, error) {
	if err := policy.Authorize(actor, policy.PlanManage, policy.Admin("plan")); err != nil {
		return nil, err
	}
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return nil, apperrors.Validation("name is required")
	}
	if in.DurationDays == nil {
		return nil, apperrors.Validation("durationDays is required")
	}

	plan := &model.SubscriptionPlan{IsActive: true, Features: datatypes.JSONSlice[string]{}}
	applyPlan(plan, in)
	if err := validatePlan(plan); err != nil {
		return nil, err
	}
	if err := s.store.Plans().Create(ctx, plan); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("%w: plan %s", apperrors.ErrConflict, plan.Name)
		}
		return nil, fmt.Errorf("create plan: %w", err)
	}
	return plan, nil
}

// UpdatePlan edits a plan. Existing subscribers keep their expiry.
func (s *subscriptionService) UpdatePlan(ctx context.Context, actor *model.User, id uuid.UUID, in PlanInput) (*model.SubscriptionPlan, error) {
	if err := policy.Authorize(actor, policy.PlanManage, policy.Admin("plan")); err != nil {
		return nil, err
	}
	plan, err := s.store.Plans().FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "subscription plan")
	}
	applyPlan(plan, in)
	if err := validatePlan(plan); err != nil {
		return nil, err
	}
	if err := s.store.Plans().Update(ctx, plan); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("%w: plan %s", apperrors.ErrConflict, plan.Name)
		}
		return nil, fmt.Errorf("update plan: %w", err)
	}
	return plan, nil
}

// DeletePlan deactivates a plan so it can no longer be chosen.
func (s *subscriptionService) DeletePlan(ctx context.Context, actor *model.User, id uuid.UUID) error {
	inactive := false
	_, err := s.UpdatePlan(ctx, actor, id, PlanInput{IsActive: &inactive})
	return err
}

func applyPlan(plan *model.SubscriptionPlan, in PlanInput) {
	if in.Name != nil {
		plan.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		plan.Description = *in.Description
	}
	if in.Price != nil {
		plan.Price = *in.Price
	}
	if in.DurationDays != nil {
		plan.DurationDays = *in.DurationDays
	}
	if in.MockTestLimit != nil {
		plan.MockTestLimit = *in.MockTestLimit
	}
	if in.ApplicationLimit != nil {
		plan.ApplicationLimit = *in.ApplicationLimit
	}
	if in.Features != nil {
		plan.Features = datatypes.JSONSlice[string](in.Features)
	}
	if in.IsActive != nil {
		plan.IsActive = *in.IsActive
	}
}

func validatePlan(plan *model.SubscriptionPlan) error {
	switch {
	case plan.Name == "":
		return apperrors.Validation("name is required")
	case plan.Price.IsNegative():
		return apperrors.Validation("price cannot be negative")
	case plan.DurationDays < 1:
		return apperrors.Validation("durationDays must be at least 1")
	case plan.MockTestLimit < 0 || plan.ApplicationLimit < 0:
		return apperrors.Validation("limits cannot be negative")
	}
	return nil
}

// Subscribe puts the actor on a plan starting now.
func (s *subscriptionService) Subscribe(ctx context.Context, actor *model.User, planID uuid.UUID) (*model.User, error) {
	if err := requireRole(actor, model.RoleStudent, model.RoleEmployer); err != nil {
		return nil, err
	}
	plan, err := s.store.Plans().FindByID(ctx, planID)
	if err != nil {
		return nil, notFound(err, "subscription plan")
	}
	if !plan.IsActive {
		return nil, fmt.Errorf("%w: subscription plan", apperrors.ErrNotFound)
	}

	user, err := s.store.Users().FindByID(ctx, actor.ID)
	if err != nil {
		return nil, notFound(err, "user")
	}
	expires := time.Now().Add(time.Duration(plan.DurationDays) * 24 * time.Hour)
	user.SubscriptionPlanID = &plan.ID
	user.SubscriptionExpiresAt = &expires
	if err := s.store.Users().Update(ctx, user, "subscription_plan_id", "subscription_expires_at"); err != nil {
		return nil, fmt.Errorf("subscribe: %w", err)
	}
	return user, nil
}

// Entitlements returns the actor's limits and current usage.
func (s *subscriptionService) Entitlements(ctx context.Context, actor *model.User) (*Entitlements, error) {
	return resolveEntitlements(ctx, s.store, actor, time.Now())
}

// resolveEntitlements finds the plan in force for user at now and counts the
// usage since the plan started. An expired, inactive or missing plan falls
// back to the free tier counted over the whole account history.
func resolveEntitlements(ctx context.Context, store repository.Store, user *model.User, now time.Time) (*Entitlements, error) {
	ent := &Entitlements{
		PlanName:         "Free",
		ApplicationLimit: FreeApplicationLimit,
		MockTestLimit:    FreeMockTestLimit,
	}

	if user.SubscriptionPlanID != nil && user.SubscriptionExpiresAt != nil && user.SubscriptionExpiresAt.After(now) {
		plan, err := store.Plans().FindByID(ctx, *user.SubscriptionPlanID)
		switch {
		case err == nil:
			ent.PlanID = &plan.ID
			ent.PlanName = plan.Name
			ent.ExpiresAt = user.SubscriptionExpiresAt
			ent.ApplicationLimit = plan.ApplicationLimit
			ent.MockTestLimit = plan.MockTestLimit
			ent.Since = user.SubscriptionExpiresAt.Add(-time.Duration(plan.DurationDays) * 24 * time.Hour)
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return nil, fmt.Errorf("load plan: %w", err)
		}
	}

	if user.Role != model.RoleStudent {
		return ent, nil
	}
	var err error
	if ent.ApplicationsUsed, err = store.Applications().CountActiveByStudent(ctx, user.ID, ent.Since); err != nil {
		return nil, fmt.Errorf("count applications: %w", err)
	}
	if ent.MockTestsUsed, err = store.MockTests().CountResults(ctx, user.ID, ent.Since); err != nil {
		return nil, fmt.Errorf("count mock tests: %w", err)
	}
	return ent, nil
}
