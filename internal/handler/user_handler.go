package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	apperrors "jobportal/internal/errors"
	"jobportal/internal/model"
	"jobportal/internal/repository"
	"jobportal/internal/service"
)

// UserHandler bundles the admin user management handlers.
type UserHandler struct {
	svc service.UserService
}

// NewUserHandler creates a handler layer.
func NewUserHandler(svc service.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

// UserStatusRequest enables or disables an account.
type UserStatusRequest struct {
	IsActive *bool `json:"isActive" validate:"required"`
}

// ListUsers godoc
// @Summary List users
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param role query string false "Role" Enums(student, employer, admin)
// @Param search query string false "Name or email"
// @Param page query int false "Page" default(1)
// @Param limit query int false "Page size" default(10)
// @Success 200 {object} service.Page[model.User]
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /users [get]
func (h *UserHandler) ListUsers(c echo.Context) error {
	page, err := pagination(c)
	if err != nil {
		return err
	}
	users, err := h.svc.List(c.Request().Context(), actor(c), repository.UserFilter{
		Role:   model.Role(c.QueryParam("role")),
		Search: c.QueryParam("search"),
	}, page)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, users)
}

// GetUser godoc
// @Summary Get user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} model.User
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /users/{id} [get]
func (h *UserHandler) GetUser(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	user, err := h.svc.Get(c.Request().Context(), actor(c), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// SetStatus godoc
// @Summary Enable or disable a user
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param request body UserStatusRequest true "Status"
// @Success 200 {object} model.User
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /users/{id}/status [put]
func (h *UserHandler) SetStatus(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req UserStatusRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	user, err := h.svc.SetActive(c.Request().Context(), actor(c), id, *req.IsActive)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// ShopkeeperHandler serves the public shopkeeper directory.
type ShopkeeperHandler struct {
	svc service.ShopkeeperService
}

// NewShopkeeperHandler creates a new shopkeeper handler.
func NewShopkeeperHandler(svc service.ShopkeeperService) *ShopkeeperHandler {
	return &ShopkeeperHandler{svc: svc}
}

// VerifyShopRequest sets a shop's verified badge.
type VerifyShopRequest struct {
	Verified *bool `json:"verified"`
}

// ListShopkeepers godoc
// @Summary List shopkeepers
// @Tags shopkeepers
// @Produce json
// @Param search query string false "Shop or owner name"
// @Param page query int false "Page" default(1)
// @Param limit query int false "Page size" default(10)
// @Success 200 {object} service.Page[service.Shopkeeper]
// @Failure 400 {object} errors.ErrorResponse
// @Router /shopkeepers [get]
func (h *ShopkeeperHandler) ListShopkeepers(c echo.Context) error {
	page, err := pagination(c)
	if err != nil {
		return err
	}
	shops, err := h.svc.List(c.Request().Context(), c.QueryParam("search"), page)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, shops)
}

// GetShopkeeper godoc
// @Summary Get a shopkeeper with open jobs
// @Tags shopkeepers
// @Produce json
// @Param id path string true "Employer ID"
// @Success 200 {object} service.ShopkeeperDetail
// @Failure 404 {object} errors.ErrorResponse
// @Router /shopkeepers/{id} [get]
func (h *ShopkeeperHandler) GetShopkeeper(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	shop, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, shop)
}

// VerifyShopkeeper godoc
// @Summary Set a shopkeeper's verified badge
// @Tags shopkeepers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Employer ID"
// @Param request body VerifyShopRequest false "Defaults to verified"
// @Success 200 {object} service.Shopkeeper
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /shopkeepers/{id}/verify [put]
func (h *ShopkeeperHandler) VerifyShopkeeper(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req VerifyShopRequest
	if c.Request().ContentLength > 0 {
		if err := c.Bind(&req); err != nil {
			return apperrors.Validation("invalid request body")
		}
	}
	verified := req.Verified == nil || *req.Verified

	shop, err := h.svc.Verify(c.Request().Context(), actor(c), id, verified)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, shop)
}
