package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"jobportal/internal/model"
)

// NotificationFilter narrows a user's inbox.
type NotificationFilter struct {
	Panel      model.Role
	UnreadOnly bool
}

// NotificationRepository defines notification persistence operations.
// Expired notifications are invisible to every read.
type NotificationRepository interface {
	// CreateBatch inserts notifications, skipping any already created for the same event and user.
	CreateBatch(ctx context.Context, notifications []model.Notification) (int64, error)
	FindByID(ctx context.Context, id uuid.UUID, now time.Time) (*model.Notification, error)
	List(ctx context.Context, userID uuid.UUID, filter NotificationFilter, page Pagination, now time.Time) ([]model.Notification, int64, error)
	CountUnread(ctx context.Context, userID uuid.UUID, now time.Time) (int64, error)
	MarkRead(ctx context.Context, id uuid.UUID, at time.Time) error
	MarkAllRead(ctx context.Context, userID uuid.UUID, at time.Time) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type notificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository creates a new notification repository.
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

// CreateBatch inserts notifications idempotently.
func (r *notificationRepository) CreateBatch(ctx context.Context, notifications []model.Notification) (int64, error) {
	if len(notifications) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(notifications, 100)
	return res.RowsAffected, res.Error
}

// FindByID finds an unexpired notification by ID.
func (r *notificationRepository) FindByID(ctx context.Context, id uuid.UUID, now time.Time) (*model.Notification, error) {
	var n model.Notification
	if err := r.db.WithContext(ctx).Where("id = ? AND expires_at > ?", id, now).First(&n).Error; err != nil {
		return nil, err
	}
	return &n, nil
}

// List returns a page of the user's notifications, newest first.
func (r *notificationRepository) List(ctx context.Context, userID uuid.UUID, filter NotificationFilter, page Pagination, now time.Time) ([]model.Notification, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Notification{}).
		Where("user_id = ? AND expires_at > ?", userID, now)
	if filter.Panel != "" {
		q = q.Where("panel = ?", filter.Panel)
	}
	if filter.UnreadOnly {
		q = q.Where("is_read = ?", false)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []model.Notification
	if err := q.Order("created_at DESC").Offset(page.Offset()).Limit(page.Limit).Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// CountUnread counts the user's unread, unexpired notifications.
func (r *notificationRepository) CountUnread(ctx context.Context, userID uuid.UUID, now time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Notification{}).
		Where("user_id = ? AND is_read = ? AND expires_at > ?", userID, false, now).
		Count(&n).Error
	return n, err
}

// MarkRead marks one notification as read.
func (r *notificationRepository) MarkRead(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).Model(&model.Notification{}).
		Where("id = ? AND is_read = ?", id, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": at}).Error
}

// MarkAllRead marks every unread notification of the user as read.
func (r *notificationRepository) MarkAllRead(ctx context.Context, userID uuid.UUID, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.Notification{}).
		Where("user_id = ? AND is_read = ? AND expires_at > ?", userID, false, at).
		Updates(map[string]interface{}{"is_read": true, "read_at": at})
	return res.RowsAffected, res.Error
}

// Delete removes a notification.
func (r *notificationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Notification{}).Error
}

// DeleteExpired purges notifications past their expiry.
func (r *notificationRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&model.Notification{})
	return res.RowsAffected, res.Error
}
