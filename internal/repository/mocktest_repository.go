package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"jobportal/internal/model"
)

// MockTestRepository defines mock test and result persistence operations.
type MockTestRepository interface {
	Create(ctx context.Context, test *model.MockTest) error
	Update(ctx context.Context, test *model.MockTest) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.MockTest, error)
	List(ctx context.Context, category string, activeOnly bool) ([]model.MockTest, error)
	CreateResult(ctx context.Context, result *model.MockTestResult) error
	ListResults(ctx context.Context, studentID uuid.UUID) ([]model.MockTestResult, error)
	CountResults(ctx context.Context, studentID uuid.UUID, since time.Time) (int64, error)
}

type mockTestRepository struct {
	db *gorm.DB
}

// NewMockTestRepository creates a new mock test repository.
func NewMockTestRepository(db *gorm.DB) MockTestRepository {
	return &mockTestRepository{db: db}
}

// Create creates a new mock test.
func (r *mockTestRepository) Create(ctx context.Context, test *model.MockTest) error {
	return r.db.WithContext(ctx).Create(test).Error
}

// Update saves an existing mock test.
func (r *mockTestRepository) Update(ctx context.Context, test *model.MockTest) error {
	return r.db.WithContext(ctx).Save(test).Error
}

// FindByID finds a mock test by ID.
func (r *mockTestRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.MockTest, error) {
	var test model.MockTest
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&test).Error; err != nil {
		return nil, err
	}
	return &test, nil
}

// List returns mock tests, newest first.
func (r *mockTestRepository) List(ctx context.Context, category string, activeOnly bool) ([]model.MockTest, error) {
	q := r.db.WithContext(ctx).Model(&model.MockTest{})
	if category != "" {
		q = q.Where("category = ?", category)
	}
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	var tests []model.MockTest
	err := q.Order("created_at DESC").Find(&tests).Error
	return tests, err
}

// CreateResult stores a scored attempt.
func (r *mockTestRepository) CreateResult(ctx context.Context, result *model.MockTestResult) error {
	return r.db.WithContext(ctx).Create(result).Error
}

// ListResults returns a student's attempts, newest first.
func (r *mockTestRepository) ListResults(ctx context.Context, studentID uuid.UUID) ([]model.MockTestResult, error) {
	var results []model.MockTestResult
	err := r.db.WithContext(ctx).Where("student_id = ?", studentID).
		Order("completed_at DESC").Find(&results).Error
	return results, err
}

// CountResults counts a student's attempts completed at or after since.
func (r *mockTestRepository) CountResults(ctx context.Context, studentID uuid.UUID, since time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.MockTestResult{}).
		Where("student_id = ? AND completed_at >= ?", studentID, since).
		Count(&n).Error
	return n, err
}
