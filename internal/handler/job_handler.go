package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"jobportal/internal/repository"
	"jobportal/internal/service"
)

// JobHandler handles job posting endpoints.
type JobHandler struct {
	jobService service.JobService
}

// NewJobHandler creates a new job handler.
func NewJobHandler(jobService service.JobService) *JobHandler {
	return &JobHandler{jobService: jobService}
}

// JobRequest represents a job create or update. On update omitted fields
// are unchanged.
type JobRequest struct {
	Title               *string    `json:"title" validate:"omitempty,min=1,max=255"`
	Description         *string    `json:"description"`
	Department          *string    `json:"department" validate:"omitempty,max=255"`
	Location            *string    `json:"location" validate:"omitempty,max=255"`
	Category            *string    `json:"category" validate:"omitempty,max=100"`
	Qualification       *string    `json:"qualification"`
	SalaryRange         *string    `json:"salaryRange" validate:"omitempty,max=100"`
	Vacancies           *int       `json:"vacancies" validate:"omitempty,min=1"`
	ApplicationDeadline *time.Time `json:"applicationDeadline"`
	IsActive            *bool      `json:"isActive"`
}

func (r JobRequest) input() service.JobInput {
	return service.JobInput{
		Title:               r.Title,
		Description:         r.Description,
		Department:          r.Department,
		Location:            r.Location,
		Category:            r.Category,
		Qualification:       r.Qualification,
		SalaryRange:         r.SalaryRange,
		Vacancies:           r.Vacancies,
		ApplicationDeadline: r.ApplicationDeadline,
		IsActive:            r.IsActive,
	}
}

// List godoc
// @Summary List active jobs
// @Tags jobs
// @Produce json
// @Param search query string false "Search in title and description"
// @Param department query string false "Department"
// @Param location query string false "Location"
// @Param category query string false "Category"
// @Param postedBy query string false "Employer ID"
// @Param page query int false "Page" default(1)
// @Param limit query int false "Page size" default(10)
// @Success 200 {object} service.Page[model.Job]
// @Failure 400 {object} errors.ErrorResponse
// @Router /jobs [get]
func (h *JobHandler) List(c echo.Context) error {
	page, err := pagination(c)
	if err != nil {
		return err
	}
	postedBy, err := optionalUUID(c, "postedBy")
	if err != nil {
		return err
	}

	jobs, err := h.jobService.List(c.Request().Context(), repository.JobFilter{
		Search:     c.QueryParam("search"),
		Department: c.QueryParam("department"),
		Location:   c.QueryParam("location"),
		Category:   c.QueryParam("category"),
		PostedBy:   postedBy,
	}, page)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, jobs)
}

// Get godoc
// @Summary Get a job
// @Tags jobs
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} model.Job
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /jobs/{id} [get]
func (h *JobHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	job, err := h.jobService.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, job)
}

// ListMine godoc
// @Summary Jobs posted by the caller
// @Tags jobs
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page" default(1)
// @Param limit query int false "Page size" default(10)
// @Success 200 {object} service.Page[model.Job]
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /jobs/mine [get]
func (h *JobHandler) ListMine(c echo.Context) error {
	page, err := pagination(c)
	if err != nil {
		return err
	}
	jobs, err := h.jobService.ListMine(c.Request().Context(), actor(c), page)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, jobs)
}

// Create godoc
// @Summary Post a job
// @Tags jobs
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body JobRequest true "Job"
// @Success 201 {object} model.Job
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /jobs [post]
func (h *JobHandler) Create(c echo.Context) error {
	var req JobRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	job, err := h.jobService.Create(c.Request().Context(), actor(c), req.input())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, job)
}

// Update godoc
// @Summary Update a job
// @Tags jobs
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Job ID"
// @Param request body JobRequest true "Changed fields"
// @Success 200 {object} model.Job
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /jobs/{id} [put]
func (h *JobHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req JobRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	job, err := h.jobService.Update(c.Request().Context(), actor(c), id, req.input())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, job)
}

// Delete godoc
// @Summary Close a job
// @Tags jobs
// @Produce json
// @Security BearerAuth
// @Param id path string true "Job ID"
// @Success 200 {object} MessageResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /jobs/{id} [delete]
func (h *JobHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.jobService.Delete(c.Request().Context(), actor(c), id); err != nil {
		return err
	}
	return ok(c, "job deleted successfully")
}
