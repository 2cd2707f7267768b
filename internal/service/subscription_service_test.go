package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "jobportal/internal/errors"
	"jobportal/internal/model"
)

func ptr[T any](v T) *T { return &v }

func TestEntitlements_Limits(t *testing.T) {
	tests := []struct {
		name      string
		ent       Entitlements
		canApply  bool
		canTakeMT bool
	}{
		{name: "free tier with room", ent: Entitlements{ApplicationLimit: 5, MockTestLimit: 2, ApplicationsUsed: 4, MockTestsUsed: 1}, canApply: true, canTakeMT: true},
		{name: "free tier exhausted", ent: Entitlements{ApplicationLimit: 5, MockTestLimit: 2, ApplicationsUsed: 5, MockTestsUsed: 2}},
		{name: "zero means unlimited", ent: Entitlements{ApplicationsUsed: 1000, MockTestsUsed: 1000}, canApply: true, canTakeMT: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.canApply, tt.ent.CanApply())
			assert.Equal(t, tt.canTakeMT, tt.ent.CanTakeMockTest())
		})
	}
}

func TestSubscriptionService_PlanCatalog(t *testing.T) {
	p := newPortal()
	svc := NewSubscriptionService(p.store)
	ctx := context.Background()

	_, err := svc.CreatePlan(ctx, p.employer, PlanInput{Name: ptr("Basic"), DurationDays: ptr(30)})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	_, err = svc.CreatePlan(ctx, p.admin, PlanInput{Name: ptr("Basic")})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = svc.CreatePlan(ctx, p.admin, PlanInput{Name: ptr("Bad"), DurationDays: ptr(30), Price: ptr(decimal.NewFromInt(-1))})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	basic, err := svc.CreatePlan(ctx, p.admin, PlanInput{
		Name:             ptr("Basic"),
		Price:            ptr(decimal.RequireFromString("199.00")),
		DurationDays:     ptr(30),
		ApplicationLimit: ptr(20),
		MockTestLimit:    ptr(10),
		Features:         []string{"priority support"},
	})
	require.NoError(t, err)
	assert.True(t, basic.IsActive)
	assert.True(t, basic.Price.Equal(decimal.NewFromInt(199)))

	_, err = svc.CreatePlan(ctx, p.admin, PlanInput{Name: ptr("Basic"), DurationDays: ptr(30)})
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	plans, err := svc.ListPlans(ctx)
	require.NoError(t, err)
	assert.Len(t, plans, 1)

	require.NoError(t, svc.DeletePlan(ctx, p.admin, basic.ID))
	plans, err = svc.ListPlans(ctx)
	require.NoError(t, err)
	assert.Empty(t, plans)

	_, err = svc.Subscribe(ctx, p.student, basic.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = svc.GetPlan(ctx, uuid.New())
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestSubscriptionService_SubscribeLiftsFreeTier(t *testing.T) {
	p := newPortal()
	subs := NewSubscriptionService(p.store)
	apps := p.applications()
	ctx := context.Background()

	for i := 0; i < FreeApplicationLimit; i++ {
		job := p.store.addJob(model.Job{
			Title: "Job", Department: "D", Location: "L", IsActive: true,
			PostedBy:            p.employer.ID,
			ApplicationDeadline: time.Now().Add(time.Hour),
		})
		_, err := apps.Submit(ctx, p.student, SubmitInput{JobID: job.ID})
		require.NoError(t, err)
	}

	ent, err := subs.Entitlements(ctx, p.student)
	require.NoError(t, err)
	assert.Equal(t, "Free", ent.PlanName)
	assert.Equal(t, int64(FreeApplicationLimit), ent.ApplicationsUsed)
	assert.False(t, ent.CanApply())

	premium, err := subs.CreatePlan(ctx, p.admin, PlanInput{Name: ptr("Premium"), DurationDays: ptr(90)})
	require.NoError(t, err)

	_, err = subs.Subscribe(ctx, p.admin, premium.ID)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	time.Sleep(5 * time.Millisecond)
	subscribed, err := subs.Subscribe(ctx, p.student, premium.ID)
	require.NoError(t, err)
	require.NotNil(t, subscribed.SubscriptionExpiresAt)
	assert.WithinDuration(t, time.Now().Add(90*24*time.Hour), *subscribed.SubscriptionExpiresAt, time.Minute)

	ent, err = subs.Entitlements(ctx, subscribed)
	require.NoError(t, err)
	assert.Equal(t, "Premium", ent.PlanName)
	assert.Equal(t, int64(0), ent.ApplicationsUsed)
	assert.True(t, ent.CanApply())

	_, err = apps.Submit(ctx, subscribed, SubmitInput{JobID: p.job.ID})
	assert.NoError(t, err)
}

func TestResolveEntitlements_ExpiredPlanFallsBackToFree(t *testing.T) {
	p := newPortal()
	ctx := context.Background()
	plan := &model.SubscriptionPlan{Name: "Basic", DurationDays: 30, ApplicationLimit: 50, IsActive: true}
	require.NoError(t, p.store.Plans().Create(ctx, plan))

	expired := time.Now().Add(-time.Hour)
	p.student.SubscriptionPlanID = &plan.ID
	p.student.SubscriptionExpiresAt = &expired

	ent, err := resolveEntitlements(ctx, p.store, p.student, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "Free", ent.PlanName)
	assert.Equal(t, FreeApplicationLimit, ent.ApplicationLimit)
	assert.True(t, ent.Since.IsZero())
}
