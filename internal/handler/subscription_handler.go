package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"jobportal/internal/model"
	"jobportal/internal/service"
)

// SubscriptionHandler handles plan catalog and subscription endpoints.
type SubscriptionHandler struct {
	subscriptionService service.SubscriptionService
}

// NewSubscriptionHandler creates a new subscription handler.
func NewSubscriptionHandler(subscriptionService service.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{subscriptionService: subscriptionService}
}

// PlanRequest represents a plan create or update. A zero limit means
// unlimited; on update omitted fields are unchanged.
type PlanRequest struct {
	Name             *string          `json:"name" validate:"omitempty,min=1,max=100"`
	Description      *string          `json:"description"`
	Price            *decimal.Decimal `json:"price" swaggertype:"string" example:"499.00"`
	DurationDays     *int             `json:"durationDays" validate:"omitempty,min=1"`
	MockTestLimit    *int             `json:"mockTestLimit" validate:"omitempty,min=0"`
	ApplicationLimit *int             `json:"applicationLimit" validate:"omitempty,min=0"`
	Features         []string         `json:"features"`
	IsActive         *bool            `json:"isActive"`
}

func (r PlanRequest) input() service.PlanInput {
	return service.PlanInput{
		Name:             r.Name,
		Description:      r.Description,
		Price:            r.Price,
		DurationDays:     r.DurationDays,
		MockTestLimit:    r.MockTestLimit,
		ApplicationLimit: r.ApplicationLimit,
		Features:         r.Features,
		IsActive:         r.IsActive,
	}
}

// PlansResponse wraps the plan catalog.
type PlansResponse struct {
	Plans []model.SubscriptionPlan `json:"plans"`
}

// ListPlans godoc
// @Summary Active subscription plans
// @Tags subscriptions
// @Produce json
// @Success 200 {object} PlansResponse
// @Router /subscriptions [get]
func (h *SubscriptionHandler) ListPlans(c echo.Context) error {
	plans, err := h.subscriptionService.ListPlans(c.Request().Context())
	if err != nil {
		return err
	}
	if plans == nil {
		plans = []model.SubscriptionPlan{}
	}
	return c.JSON(http.StatusOK, PlansResponse{Plans: plans})
}

// GetPlan godoc
// @Summary Get a plan
// @Tags subscriptions
// @Produce json
// @Param id path string true "Plan ID"
// @Success 200 {object} model.SubscriptionPlan
// @Failure 404 {object} errors.ErrorResponse
// @Router /subscriptions/{id} [get]
func (h *SubscriptionHandler) GetPlan(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	plan, err := h.subscriptionService.GetPlan(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, plan)
}

// CreatePlan godoc
// @Summary Create a plan
// @Tags subscriptions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body PlanRequest true "Plan"
// @Success 201 {object} model.SubscriptionPlan
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /subscriptions [post]
func (h *SubscriptionHandler) CreatePlan(c echo.Context) error {
	var req PlanRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	plan, err := h.subscriptionService.CreatePlan(c.Request().Context(), actor(c), req.input())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, plan)
}

// UpdatePlan godoc
// @Summary Update a plan
// @Tags subscriptions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Plan ID"
// @Param request body PlanRequest true "Changed fields"
// @Success 200 {object} model.SubscriptionPlan
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /subscriptions/{id} [put]
func (h *SubscriptionHandler) UpdatePlan(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req PlanRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	plan, err := h.subscriptionService.UpdatePlan(c.Request().Context(), actor(c), id, req.input())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, plan)
}

// DeletePlan godoc
// @Summary Retire a plan
// @Tags subscriptions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Plan ID"
// @Success 200 {object} MessageResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /subscriptions/{id} [delete]
func (h *SubscriptionHandler) DeletePlan(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.subscriptionService.DeletePlan(c.Request().Context(), actor(c), id); err != nil {
		return err
	}
	return ok(c, "plan deleted successfully")
}

// Subscribe godoc
// @Summary Subscribe to a plan
// @Tags subscriptions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Plan ID"
// @Success 200 {object} UserResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /subscriptions/{id}/subscribe [post]
func (h *SubscriptionHandler) Subscribe(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	user, err := h.subscriptionService.Subscribe(c.Request().Context(), actor(c), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, UserResponse{User: user})
}

// Entitlements godoc
// @Summary Limits and usage in force for the caller
// @Tags subscriptions
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.Entitlements
// @Failure 401 {object} errors.ErrorResponse
// @Router /subscriptions/me/entitlements [get]
func (h *SubscriptionHandler) Entitlements(c echo.Context) error {
	ent, err := h.subscriptionService.Entitlements(c.Request().Context(), actor(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ent)
}
