package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"jobportal/internal/model"
	"jobportal/internal/policy"
	"jobportal/internal/repository"
)

// NotificationService exposes a user's own inbox.
type NotificationService interface {
	List(ctx context.Context, actor *model.User, filter repository.NotificationFilter, page repository.Pagination) (*Page[model.Notification], error)
	UnreadCount(ctx context.Context, actor *model.User) (int64, error)
	MarkRead(ctx context.Context, actor *model.User, id uuid.UUID) (*model.Notification, error)
	MarkAllRead(ctx context.Context, actor *model.User) (int64, error)
	Delete(ctx context.Context, actor *model.User, id uuid.UUID) error
}

type notificationService struct {
	repo repository.NotificationRepository
	now  func() time.Time
}

// NewNotificationService creates a new notification service.
func NewNotificationService(repo repository.NotificationRepository) NotificationService {
	return &notificationService{repo: repo, now: time.Now}
}

// List returns a page of the actor's unexpired notifications.
func (s *notificationService) List(ctx context.Context, actor *model.User, filter repository.NotificationFilter, page repository.Pagination) (*Page[model.Notification], error) {
	list, total, err := s.repo.List(ctx, actor.ID, filter, page, s.now())
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return newPage(list, total, page), nil
}

// UnreadCount counts the actor's unread notifications.
func (s *notificationService) UnreadCount(ctx context.Context, actor *model.User) (int64, error) {
	return s.repo.CountUnread(ctx, actor.ID, s.now())
}

func (s *notificationService) owned(ctx context.Context, actor *model.User, id uuid.UUID) (*model.Notification, error) {
	n, err := s.repo.FindByID(ctx, id, s.now())
	if err != nil {
		return nil, notFound(err, "notification")
	}
	if err := policy.Authorize(actor, policy.NotificationAccess, policy.Notification(n, actor)); err != nil {
		return nil, err
	}
	return n, nil
}

// MarkRead marks one of the actor's notifications as read.
func (s *notificationService) MarkRead(ctx context.Context, actor *model.User, id uuid.UUID) (*model.Notification, error) {
	n, err := s.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if n.IsRead {
		return n, nil
	}
	at := s.now()
	if err := s.repo.MarkRead(ctx, id, at); err != nil {
		return nil, fmt.Errorf("mark notification read: %w", err)
	}
	n.IsRead = true
	n.ReadAt = &at
	return n, nil
}

// MarkAllRead marks every unread notification of the actor and returns how many changed.
func (s *notificationService) MarkAllRead(ctx context.Context, actor *model.User) (int64, error) {
	return s.repo.MarkAllRead(ctx, actor.ID, s.now())
}

// Delete removes one of the actor's notifications.
func (s *notificationService) Delete(ctx context.Context, actor *model.User, id uuid.UUID) error {
	if _, err := s.owned(ctx, actor, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}
