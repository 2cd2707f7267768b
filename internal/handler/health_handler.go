package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"jobportal/internal/model"
)

// OutboxCounter reports how many outbox events are in a status.
type OutboxCounter interface {
	CountByStatus(ctx context.Context, status model.OutboxStatus) (int64, error)
}

// HealthHandler reports liveness and the notification backlog.
type HealthHandler struct {
	outbox OutboxCounter
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(outbox OutboxCounter) *HealthHandler {
	return &HealthHandler{outbox: outbox}
}

// HealthResponse is the /healthz body.
type HealthResponse struct {
	Status        string `json:"status"`
	OutboxPending int64  `json:"outboxPending"`
	OutboxFailed  int64  `json:"outboxFailed"`
}

// Check answers 503 when the database cannot be queried.
func (h *HealthHandler) Check(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	pending, err := h.outbox.CountByStatus(ctx, model.OutboxPending)
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, HealthResponse{Status: "unavailable"})
	}
	failed, err := h.outbox.CountByStatus(ctx, model.OutboxFailed)
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, HealthResponse{Status: "unavailable"})
	}
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok", OutboxPending: pending, OutboxFailed: failed})
}
