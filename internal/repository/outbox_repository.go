package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"jobportal/internal/model"
)

// OutboxRepository defines outbox persistence operations.
type OutboxRepository interface {
	Append(ctx context.Context, event *model.OutboxEvent) error
	// ClaimPending leases up to limit due events until now+lease so that
	// concurrent dispatchers do not pick the same rows.
	ClaimPending(ctx context.Context, now time.Time, lease time.Duration, limit int) ([]model.OutboxEvent, error)
	MarkDispatched(ctx context.Context, id uuid.UUID, at time.Time) error
	// MarkFailed records a failed attempt. When dead is set the event is parked
	// as failed, otherwise it becomes due again at retryAt.
	MarkFailed(ctx context.Context, id uuid.UUID, attempts int, lastErr string, retryAt time.Time, dead bool) error
	CountByStatus(ctx context.Context, status model.OutboxStatus) (int64, error)
}

type outboxRepository struct {
	db *gorm.DB
}

// NewOutboxRepository creates a new outbox repository.
func NewOutboxRepository(db *gorm.DB) OutboxRepository {
	return &outboxRepository{db: db}
}

// Append adds an event, normally inside the caller's transaction.
func (r *outboxRepository) Append(ctx context.Context, event *model.OutboxEvent) error {
	if event.Status == "" {
		event.Status = model.OutboxPending
	}
	if event.AvailableAt.IsZero() {
		event.AvailableAt = time.Now()
	}
	return r.db.WithContext(ctx).Create(event).Error
}

// ClaimPending selects due events with SKIP LOCKED and pushes their
// availability forward by lease in the same transaction.
func (r *outboxRepository) ClaimPending(ctx context.Context, now time.Time, lease time.Duration, limit int) ([]model.OutboxEvent, error) {
	var events []model.OutboxEvent
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("status = ? AND available_at <= ?", model.OutboxPending, now).
			Order("available_at ASC, created_at ASC").
			Limit(limit).
			Find(&events).Error; err != nil {
			return err
		}
		if len(events) == 0 {
			return nil
		}
		ids := make([]uuid.UUID, len(events))
		for i := range events {
			ids[i] = events[i].ID
		}
		return tx.Model(&model.OutboxEvent{}).Where("id IN ?", ids).
			Update("available_at", now.Add(lease)).Error
	})
	if err != nil {
		return nil, err
	}
	return events, nil
}

// MarkDispatched records a successful publish.
func (r *outboxRepository) MarkDispatched(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).Model(&model.OutboxEvent{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":        model.OutboxDispatched,
			"dispatched_at": at,
			"last_error":    "",
		}).Error
}

// MarkFailed records a failed publish.
func (r *outboxRepository) MarkFailed(ctx context.Context, id uuid.UUID, attempts int, lastErr string, retryAt time.Time, dead bool) error {
	status := model.OutboxPending
	if dead {
		status = model.OutboxFailed
	}
	return r.db.WithContext(ctx).Model(&model.OutboxEvent{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":       status,
			"attempts":     attempts,
			"last_error":   lastErr,
			"available_at": retryAt,
		}).Error
}

// CountByStatus counts events in a status.
func (r *outboxRepository) CountByStatus(ctx context.Context, status model.OutboxStatus) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.OutboxEvent{}).Where("status = ?", status).Count(&n).Error
	return n, err
}
