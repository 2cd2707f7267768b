package main

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"jobportal/internal/auth"
	"jobportal/internal/model"
	"jobportal/internal/repository"
)

type mockPlans struct {
	repository.PlanRepository
	mock.Mock
}

func (m *mockPlans) FindByName(ctx context.Context, name string) (*model.SubscriptionPlan, error) {
	args := m.Called(ctx, name)
	if p := args.Get(0); p != nil {
		return p.(*model.SubscriptionPlan), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockPlans) Create(ctx context.Context, plan *model.SubscriptionPlan) error {
	return m.Called(ctx, plan).Error(0)
}

func (m *mockPlans) Update(ctx context.Context, plan *model.SubscriptionPlan) error {
	return m.Called(ctx, plan).Error(0)
}

type mockUsers struct {
	repository.UserRepository
	mock.Mock
}

func (m *mockUsers) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	if u := args.Get(0); u != nil {
		return u.(*model.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUsers) Create(ctx context.Context, user *model.User) error {
	return m.Called(ctx, user).Error(0)
}

func TestSeedPlans_CreatesMissingAndRefreshesExisting(t *testing.T) {
	ctx := context.Background()
	plans := new(mockPlans)
	basicID := uuid.New()

	plans.On("FindByName", ctx, "Free").Return(nil, gorm.ErrRecordNotFound)
	plans.On("FindByName", ctx, "Basic").Return(&model.SubscriptionPlan{ID: basicID, Name: "Basic"}, nil)
	plans.On("FindByName", ctx, "Premium").Return(nil, gorm.ErrRecordNotFound)
	plans.On("Create", ctx, mock.AnythingOfType("*model.SubscriptionPlan")).Return(nil).Twice()
	plans.On("Update", ctx, mock.MatchedBy(func(p *model.SubscriptionPlan) bool {
		return p.ID == basicID && p.ApplicationLimit == 25
	})).Return(nil).Once()

	created, updated, err := seedPlans(ctx, plans, defaultPlans)
	require.NoError(t, err)
	assert.Equal(t, 2, created)
	assert.Equal(t, 1, updated)
	plans.AssertExpectations(t)
}

func TestSeedAdmin(t *testing.T) {
	ctx := context.Background()
	hasher := auth.NewHasher(4)
	log := zerolog.Nop()

	t.Run("creates admin", func(t *testing.T) {
		users := new(mockUsers)
		users.On("FindByEmail", ctx, "root@portal.gov").Return(nil, gorm.ErrRecordNotFound)
		users.On("Create", ctx, mock.MatchedBy(func(u *model.User) bool {
			return u.Role == model.RoleAdmin && u.IsActive && hasher.Compare(u.PasswordHash, "s3cret!")
		})).Return(nil).Once()

		require.NoError(t, seedAdmin(ctx, users, hasher, " Root@Portal.gov ", "s3cret!", log))
		users.AssertExpectations(t)
	})

	t.Run("existing admin is left alone", func(t *testing.T) {
		users := new(mockUsers)
		users.On("FindByEmail", ctx, "root@portal.gov").Return(&model.User{Role: model.RoleAdmin}, nil)

		require.NoError(t, seedAdmin(ctx, users, hasher, "root@portal.gov", "s3cret!", log))
		users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("email taken by another role", func(t *testing.T) {
		users := new(mockUsers)
		users.On("FindByEmail", ctx, "root@portal.gov").Return(&model.User{Role: model.RoleStudent}, nil)

		assert.Error(t, seedAdmin(ctx, users, hasher, "root@portal.gov", "s3cret!", log))
	})

	t.Run("skipped without credentials", func(t *testing.T) {
		users := new(mockUsers)
		require.NoError(t, seedAdmin(ctx, users, hasher, "", "", log))
		users.AssertNotCalled(t, "FindByEmail", mock.Anything, mock.Anything)
	})
}
