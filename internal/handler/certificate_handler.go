package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	apperrors "jobportal/internal/errors"
	"jobportal/internal/model"
	"jobportal/internal/service"
)

// CertificateHandler handles certificate endpoints.
type CertificateHandler struct {
	certificateService service.CertificateService
}

// NewCertificateHandler creates a new certificate handler.
func NewCertificateHandler(certificateService service.CertificateService) *CertificateHandler {
	return &CertificateHandler{certificateService: certificateService}
}

// VerifyRequest represents an admin verdict on a certificate.
type VerifyRequest struct {
	Status model.CertificateStatus `json:"status" validate:"required,oneof=verified rejected"`
	Notes  string                  `json:"notes" validate:"max=2000"`
}

// CertificatesResponse wraps a list of certificates.
type CertificatesResponse struct {
	Certificates []model.Certificate `json:"certificates"`
}

func certificates(list []model.Certificate) CertificatesResponse {
	if list == nil {
		list = []model.Certificate{}
	}
	return CertificatesResponse{Certificates: list}
}

// Upload godoc
// @Summary Upload a certificate for verification
// @Tags certificates
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param title formData string true "Title"
// @Param issuer formData string false "Issuing body"
// @Param issueDate formData string false "Issue date (YYYY-MM-DD)"
// @Param description formData string false "Description"
// @Param certificate formData file true "Certificate (pdf, doc, docx, images; 10MB)"
// @Success 201 {object} model.Certificate
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 429 {object} errors.ErrorResponse
// @Router /certificates [post]
func (h *CertificateHandler) Upload(c echo.Context) error {
	file, err := formFile(c, "certificate")
	if err != nil {
		return err
	}
	issueDate, err := parseDate(c.FormValue("issueDate"))
	if err != nil {
		return err
	}

	cert, err := h.certificateService.Upload(c.Request().Context(), actor(c), service.CertificateInput{
		Title:       c.FormValue("title"),
		Issuer:      c.FormValue("issuer"),
		IssueDate:   issueDate,
		Description: c.FormValue("description"),
	}, file)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, cert)
}

// ListForStudent godoc
// @Summary Own certificates
// @Tags certificates
// @Produce json
// @Security BearerAuth
// @Success 200 {object} CertificatesResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /certificates/student [get]
func (h *CertificateHandler) ListForStudent(c echo.Context) error {
	list, err := h.certificateService.ListForStudent(c.Request().Context(), actor(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, certificates(list))
}

// ListAll godoc
// @Summary Every certificate
// @Tags certificates
// @Produce json
// @Security BearerAuth
// @Param status query string false "Status" Enums(pending, verified, rejected)
// @Success 200 {object} CertificatesResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /certificates/admin [get]
func (h *CertificateHandler) ListAll(c echo.Context) error {
	status := model.CertificateStatus(c.QueryParam("status"))
	switch status {
	case "", model.CertificatePending, model.CertificateVerified, model.CertificateRejected:
	default:
		return apperrors.Validation("unknown status %q", status)
	}
	list, err := h.certificateService.ListAll(c.Request().Context(), actor(c), status)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, certificates(list))
}

// Verify godoc
// @Summary Verify or reject a certificate
// @Tags certificates
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Certificate ID"
// @Param request body VerifyRequest true "Verdict"
// @Success 200 {object} model.Certificate
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /certificates/{id}/verify [put]
func (h *CertificateHandler) Verify(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req VerifyRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	cert, err := h.certificateService.Verify(c.Request().Context(), actor(c), id, req.Status, req.Notes)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cert)
}

// Delete godoc
// @Summary Delete a certificate
// @Tags certificates
// @Produce json
// @Security BearerAuth
// @Param id path string true "Certificate ID"
// @Success 200 {object} MessageResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /certificates/{id} [delete]
func (h *CertificateHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.certificateService.Delete(c.Request().Context(), actor(c), id); err != nil {
		return err
	}
	return ok(c, "certificate deleted successfully")
}

func parseDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, apperrors.Validation("issueDate must be YYYY-MM-DD")
}
