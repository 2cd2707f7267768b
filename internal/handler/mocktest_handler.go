package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"jobportal/internal/model"
	"jobportal/internal/service"
)

// MockTestHandler handles practice exam endpoints.
type MockTestHandler struct {
	mockTestService service.MockTestService
}

// NewMockTestHandler creates a new mock test handler.
func NewMockTestHandler(mockTestService service.MockTestService) *MockTestHandler {
	return &MockTestHandler{mockTestService: mockTestService}
}

// MockTestRequest represents a mock test create or update. On update
// omitted fields are unchanged.
type MockTestRequest struct {
	Title           *string          `json:"title" validate:"omitempty,min=1,max=255"`
	Category        *string          `json:"category" validate:"omitempty,max=100"`
	Description     *string          `json:"description"`
	DurationMinutes *int             `json:"durationMinutes" validate:"omitempty,min=1"`
	Questions       []model.Question `json:"questions" validate:"omitempty,dive"`
	IsActive        *bool            `json:"isActive"`
}

// SubmitAnswersRequest holds one chosen option index per question, -1 for
// unanswered.
type SubmitAnswersRequest struct {
	Answers []int `json:"answers" validate:"required"`
}

// MockTestsResponse wraps a list of mock tests.
type MockTestsResponse struct {
	MockTests []model.MockTest `json:"mockTests"`
}

// ResultsResponse wraps a list of attempts.
type ResultsResponse struct {
	Results []model.MockTestResult `json:"results"`
}

func (r MockTestRequest) input() service.MockTestInput {
	return service.MockTestInput{
		Title:           r.Title,
		Category:        r.Category,
		Description:     r.Description,
		DurationMinutes: r.DurationMinutes,
		Questions:       r.Questions,
		IsActive:        r.IsActive,
	}
}

// List godoc
// @Summary List mock tests
// @Tags mock-tests
// @Produce json
// @Security BearerAuth
// @Param category query string false "Category"
// @Success 200 {object} MockTestsResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /mock-tests [get]
func (h *MockTestHandler) List(c echo.Context) error {
	tests, err := h.mockTestService.List(c.Request().Context(), actor(c), c.QueryParam("category"))
	if err != nil {
		return err
	}
	if tests == nil {
		tests = []model.MockTest{}
	}
	return c.JSON(http.StatusOK, MockTestsResponse{MockTests: tests})
}

// Get godoc
// @Summary Get a mock test
// @Description Answer keys are only returned to admins.
// @Tags mock-tests
// @Produce json
// @Security BearerAuth
// @Param id path string true "Mock test ID"
// @Success 200 {object} model.MockTest
// @Failure 404 {object} errors.ErrorResponse
// @Router /mock-tests/{id} [get]
func (h *MockTestHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	test, err := h.mockTestService.Get(c.Request().Context(), actor(c), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, test)
}

// Create godoc
// @Summary Create a mock test
// @Tags mock-tests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body MockTestRequest true "Mock test"
// @Success 201 {object} model.MockTest
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /mock-tests [post]
func (h *MockTestHandler) Create(c echo.Context) error {
	var req MockTestRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	test, err := h.mockTestService.Create(c.Request().Context(), actor(c), req.input())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, test)
}

// Update godoc
// @Summary Update a mock test
// @Tags mock-tests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Mock test ID"
// @Param request body MockTestRequest true "Changed fields"
// @Success 200 {object} model.MockTest
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /mock-tests/{id} [put]
func (h *MockTestHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req MockTestRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	test, err := h.mockTestService.Update(c.Request().Context(), actor(c), id, req.input())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, test)
}

// Delete godoc
// @Summary Retire a mock test
// @Tags mock-tests
// @Produce json
// @Security BearerAuth
// @Param id path string true "Mock test ID"
// @Success 200 {object} MessageResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /mock-tests/{id} [delete]
func (h *MockTestHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.mockTestService.Delete(c.Request().Context(), actor(c), id); err != nil {
		return err
	}
	return ok(c, "mock test deleted successfully")
}

// Submit godoc
// @Summary Submit answers and get the score
// @Tags mock-tests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Mock test ID"
// @Param request body SubmitAnswersRequest true "Answers"
// @Success 201 {object} model.MockTestResult
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /mock-tests/{id}/submit [post]
func (h *MockTestHandler) Submit(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req SubmitAnswersRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	result, err := h.mockTestService.Submit(c.Request().Context(), actor(c), id, req.Answers)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, result)
}

// Results godoc
// @Summary Own attempts
// @Tags mock-tests
// @Produce json
// @Security BearerAuth
// @Success 200 {object} ResultsResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /mock-tests/results [get]
func (h *MockTestHandler) Results(c echo.Context) error {
	results, err := h.mockTestService.Results(c.Request().Context(), actor(c))
	if err != nil {
		return err
	}
	if results == nil {
		results = []model.MockTestResult{}
	}
	return c.JSON(http.StatusOK, ResultsResponse{Results: results})
}
