package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	apperrors "jobportal/internal/errors"
	"jobportal/internal/model"
	"jobportal/internal/service"
)

// ApplicationHandler handles job application endpoints.
type ApplicationHandler struct {
	applicationService service.ApplicationService
}

// NewApplicationHandler creates a new application handler.
func NewApplicationHandler(applicationService service.ApplicationService) *ApplicationHandler {
	return &ApplicationHandler{applicationService: applicationService}
}

// StatusRequest represents a review decision.
type StatusRequest struct {
	Status model.ApplicationStatus `json:"status" validate:"required,oneof=accepted rejected"`
	Notes  string                  `json:"notes" validate:"max=2000"`
}

// ApplicationsResponse wraps a list of applications.
type ApplicationsResponse struct {
	Applications []model.Application `json:"applications"`
}

func applications(list []model.Application) ApplicationsResponse {
	if list == nil {
		list = []model.Application{}
	}
	return ApplicationsResponse{Applications: list}
}

// Submit godoc
// @Summary Apply to a job
// @Tags applications
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param jobId formData string true "Job ID"
// @Param coverLetter formData string false "Cover letter"
// @Param resume formData file false "Resume (pdf, doc, docx, images; 10MB)"
// @Param documents formData file false "Supporting documents, at most 5"
// @Success 201 {object} model.Application
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Failure 429 {object} errors.ErrorResponse
// @Router /applications [post]
func (h *ApplicationHandler) Submit(c echo.Context) error {
	jobID, err := parseUUID(c.FormValue("jobId"), "jobId")
	if err != nil {
		return err
	}
	resume, err := formFile(c, "resume")
	if err != nil {
		return err
	}
	documents, err := formFiles(c, "documents", "documents[]")
	if err != nil {
		return err
	}

	app, err := h.applicationService.Submit(c.Request().Context(), actor(c), service.SubmitInput{
		JobID:       jobID,
		CoverLetter: c.FormValue("coverLetter"),
		Resume:      resume,
		Documents:   documents,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, app)
}

// ListForStudent godoc
// @Summary Own applications
// @Tags applications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} ApplicationsResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /applications/student [get]
func (h *ApplicationHandler) ListForStudent(c echo.Context) error {
	list, err := h.applicationService.ListForStudent(c.Request().Context(), actor(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, applications(list))
}

// ListForEmployer godoc
// @Summary Applications to the caller's jobs
// @Tags applications
// @Produce json
// @Security BearerAuth
// @Param jobId query string false "Job ID"
// @Param status query string false "Status" Enums(pending, accepted, rejected, withdrawn)
// @Success 200 {object} ApplicationsResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /applications/employer [get]
func (h *ApplicationHandler) ListForEmployer(c echo.Context) error {
	jobID, err := optionalUUID(c, "jobId")
	if err != nil {
		return err
	}
	status, err := applicationStatus(c)
	if err != nil {
		return err
	}
	list, err := h.applicationService.ListForEmployer(c.Request().Context(), actor(c), jobID, status)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, applications(list))
}

// ListAll godoc
// @Summary Every application
// @Tags applications
// @Produce json
// @Security BearerAuth
// @Param status query string false "Status" Enums(pending, accepted, rejected, withdrawn)
// @Success 200 {object} ApplicationsResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /applications/admin [get]
func (h *ApplicationHandler) ListAll(c echo.Context) error {
	status, err := applicationStatus(c)
	if err != nil {
		return err
	}
	list, err := h.applicationService.ListAll(c.Request().Context(), actor(c), status)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, applications(list))
}

// Get godoc
// @Summary Get an application
// @Tags applications
// @Produce json
// @Security BearerAuth
// @Param id path string true "Application ID"
// @Success 200 {object} model.Application
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /applications/{id} [get]
func (h *ApplicationHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	app, err := h.applicationService.Get(c.Request().Context(), actor(c), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, app)
}

// SetStatus godoc
// @Summary Accept or reject an application
// @Tags applications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Application ID"
// @Param request body StatusRequest true "Decision"
// @Success 200 {object} model.Application
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /applications/{id}/status [put]
func (h *ApplicationHandler) SetStatus(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req StatusRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	app, err := h.applicationService.SetStatus(c.Request().Context(), actor(c), id, req.Status, req.Notes)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, app)
}

// Withdraw godoc
// @Summary Withdraw own pending application
// @Tags applications
// @Produce json
// @Security BearerAuth
// @Param id path string true "Application ID"
// @Success 200 {object} model.Application
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /applications/{id}/withdraw [put]
func (h *ApplicationHandler) Withdraw(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	app, err := h.applicationService.Withdraw(c.Request().Context(), actor(c), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, app)
}

func applicationStatus(c echo.Context) (model.ApplicationStatus, error) {
	status := model.ApplicationStatus(c.QueryParam("status"))
	switch status {
	case "", model.ApplicationPending, model.ApplicationAccepted, model.ApplicationRejected, model.ApplicationWithdrawn:
		return status, nil
	}
	return "", apperrors.Validation("unknown status %q", status)
}
