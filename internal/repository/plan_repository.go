package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"jobportal/internal/model"
)

// PlanRepository defines subscription plan persistence operations.
type PlanRepository interface {
	Create(ctx context.Context, plan *model.SubscriptionPlan) error
	Update(ctx context.Context, plan *model.SubscriptionPlan) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.SubscriptionPlan, error)
	FindByName(ctx context.Context, name string) (*model.SubscriptionPlan, error)
	List(ctx context.Context, activeOnly bool) ([]model.SubscriptionPlan, error)
}

type planRepository struct {
	db *gorm.DB
}

// NewPlanRepository creates a new plan repository.
func NewPlanRepository(db *gorm.DB) PlanRepository {
	return &planRepository{db: db}
}

// Create creates a new plan.
func (r *planRepository) Create(ctx context.Context, plan *model.SubscriptionPlan) error {
	return translate(r.db.WithContext(ctx).Create(plan).Error)
}

// Update saves an existing plan.
func (r *planRepository) Update(ctx context.Context, plan *model.SubscriptionPlan) error {
	return translate(r.db.WithContext(ctx).Save(plan).Error)
}

// FindByID finds a plan by ID.
func (r *planRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.SubscriptionPlan, error) {
	var plan model.SubscriptionPlan
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&plan).Error; err != nil {
		return nil, err
	}
	return &plan, nil
}

// FindByName finds a plan by its unique name.
func (r *planRepository) FindByName(ctx context.Context, name string) (*model.SubscriptionPlan, error) {
	var plan model.SubscriptionPlan
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&plan).Error; err != nil {
		return nil, err
	}
	return &plan, nil
}

// List returns plans ordered by price.
func (r *planRepository) List(ctx context.Context, activeOnly bool) ([]model.SubscriptionPlan, error) {
	q := r.db.WithContext(ctx).Model(&model.SubscriptionPlan{})
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	var plans []model.SubscriptionPlan
	err := q.Order("price ASC, name ASC").Find(&plans).Error
	return plans, err
}
