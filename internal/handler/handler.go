// Package handler holds the HTTP handlers. Handlers bind and validate the
// request, call one service method and render its result. Errors are returned
// unchanged and rendered by the router's error handler.
package handler

import (
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	apperrors "jobportal/internal/errors"
	"jobportal/internal/middleware"
	"jobportal/internal/model"
	"jobportal/internal/repository"
)

// MessageResponse is returned by endpoints without a resource body.
type MessageResponse struct {
	Message string `json:"message"`
}

// CountResponse is returned by endpoints that report a number of rows.
type CountResponse struct {
	Count int64 `json:"count"`
}

// bind decodes the request body into req and runs the validator on it.
func bind(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return apperrors.Validation("invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return apperrors.Validation("%s", err.Error())
	}
	return nil
}

// pathID parses the :id path parameter.
func pathID(c echo.Context) (uuid.UUID, error) {
	return parseUUID(c.Param("id"), "id")
}

func parseUUID(raw, field string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, apperrors.Validation("invalid %s", field)
	}
	return id, nil
}

// optionalUUID parses a query parameter that may be absent.
func optionalUUID(c echo.Context, name string) (*uuid.UUID, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	id, err := parseUUID(raw, name)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// pagination reads page and limit from the query string.
func pagination(c echo.Context) (repository.Pagination, error) {
	var page, limit int
	if err := echo.QueryParamsBinder(c).Int("page", &page).Int("limit", &limit).BindError(); err != nil {
		return repository.Pagination{}, apperrors.Validation("page and limit must be integers")
	}
	return repository.NewPagination(page, limit), nil
}

func actor(c echo.Context) *model.User {
	return middleware.Actor(c)
}

// formFile returns the named upload, or nil when the field is absent.
func formFile(c echo.Context, name string) (*multipart.FileHeader, error) {
	fh, err := c.FormFile(name)
	if err == http.ErrMissingFile {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Validation("invalid multipart body")
	}
	return fh, nil
}

// formFiles returns every upload under the given field names.
func formFiles(c echo.Context, names ...string) ([]*multipart.FileHeader, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, apperrors.Validation("invalid multipart body")
	}
	var out []*multipart.FileHeader
	for _, n := range names {
		out = append(out, form.File[n]...)
	}
	return out, nil
}

func ok(c echo.Context, message string) error {
	return c.JSON(http.StatusOK, MessageResponse{Message: message})
}
