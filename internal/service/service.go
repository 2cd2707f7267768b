package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	apperrors "jobportal/internal/errors"
	"jobportal/internal/model"
	"jobportal/internal/repository"
)

// Page is one page of a listing.
type Page[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Pages int   `json:"pages"`
}

func newPage[T any](items []T, total int64, p repository.Pagination) *Page[T] {
	if items == nil {
		items = []T{}
	}
	return &Page[T]{Items: items, Total: total, Page: p.Page, Limit: p.Limit, Pages: p.Pages(total)}
}

// notFound maps a missing row to ErrNotFound naming what, and passes other errors through.
func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s", apperrors.ErrNotFound, what)
	}
	return err
}

// appendEvent records an outbox event on the given (usually transactional) store.
func appendEvent(ctx context.Context, tx repository.Store, kind string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", kind, err)
	}
	if err := tx.Outbox().Append(ctx, &model.OutboxEvent{Kind: kind, Payload: datatypes.JSON(raw)}); err != nil {
		return fmt.Errorf("append %s event: %w", kind, err)
	}
	return nil
}

func requireRole(actor *model.User, roles ...model.Role) error {
	if actor == nil {
		return apperrors.ErrUnauthorized
	}
	for _, r := range roles {
		if actor.Role == r {
			return nil
		}
	}
	return fmt.Errorf("%w: requires role %v", apperrors.ErrForbidden, roles)
}
