package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobportal/internal/auth"
	"jobportal/internal/config"
	apperrors "jobportal/internal/errors"
	"jobportal/internal/handler"
	appmw "jobportal/internal/middleware"
	"jobportal/internal/model"
)

func serveError(t *testing.T, err error) (*httptest.ResponseRecorder, apperrors.ErrorResponse) {
	t.Helper()
	e := echo.New()
	e.HTTPErrorHandler = ErrorHandler(zerolog.Nop())
	e.GET("/boom", func(c echo.Context) error { return err })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	var body apperrors.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantCode    string
		wantMessage string
	}{
		{
			name:        "unknown error is hidden",
			err:         errors.New("dial tcp 10.0.0.5:3306: connection refused"),
			wantStatus:  http.StatusInternalServerError,
			wantCode:    "INTERNAL_ERROR",
			wantMessage: "internal server error",
		},
		{
			name:       "wrapped domain error",
			err:        fmt.Errorf("load job: %w", apperrors.ErrNotFound),
			wantStatus: http.StatusNotFound,
			wantCode:   "NOT_FOUND",
		},
		{
			name:        "validation detail reaches the client",
			err:         apperrors.Validation("invalid %s", "jobId"),
			wantStatus:  http.StatusBadRequest,
			wantCode:    "VALIDATION_ERROR",
			wantMessage: "validation failed: invalid jobId",
		},
		{
			name:       "echo not found",
			err:        echo.ErrNotFound,
			wantStatus: http.StatusNotFound,
			wantCode:   "NOT_FOUND",
		},
		{
			name:        "body limit",
			err:         echo.ErrStatusRequestEntityTooLarge,
			wantStatus:  http.StatusRequestEntityTooLarge,
			wantCode:    "FILE_TOO_LARGE",
			wantMessage: "Request Entity Too Large",
		},
		{
			name:       "rate limited",
			err:        apperrors.ErrRateLimited,
			wantStatus: http.StatusTooManyRequests,
			wantCode:   "RATE_LIMITED",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := serveError(t, tt.err)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCode, body.Error)
			if tt.wantMessage != "" {
				assert.Equal(t, tt.wantMessage, body.Message)
			}
		})
	}
}

func TestErrorHandler_SkipsCommittedResponse(t *testing.T) {
	e := echo.New()
	e.HTTPErrorHandler = ErrorHandler(zerolog.Nop())
	e.GET("/partial", func(c echo.Context) error {
		if err := c.String(http.StatusAccepted, "done"); err != nil {
			return err
		}
		return errors.New("late failure")
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/partial", nil))

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "done", rec.Body.String())
}

func TestCustomValidator(t *testing.T) {
	type payload struct {
		Email string `validate:"required,email"`
		Role  string `validate:"oneof=student employer"`
	}
	v := NewValidator()

	assert.NoError(t, v.Validate(&payload{Email: "a@example.com", Role: "student"}))
	assert.Error(t, v.Validate(&payload{Email: "a@example.com", Role: "admin"}))
	assert.Error(t, v.Validate(&payload{Role: "employer"}))
}

type stubOutbox struct {
	pending int64
	err     error
}

func (s stubOutbox) CountByStatus(_ context.Context, status model.OutboxStatus) (int64, error) {
	if status == model.OutboxPending {
		return s.pending, s.err
	}
	return 0, s.err
}

func newTestServer(t *testing.T) *echo.Echo {
	t.Helper()
	cfg := &config.Config{
		CORSOrigins:      []string{"*"},
		UploadDir:        t.TempDir(),
		UploadBackend:    "local",
		RateLimitEnabled: true,
	}
	jwtService := auth.NewJWTService("test-secret", time.Hour)
	authn := appmw.NewAuthenticator(jwtService, auth.NewTokenStore(nil), nil)

	e := echo.New()
	Register(e, cfg, zerolog.Nop(), authn, nil, Handlers{
		Health:        handler.NewHealthHandler(stubOutbox{pending: 3}),
		Auth:          handler.NewAuthHandler(nil),
		Jobs:          handler.NewJobHandler(nil),
		Applications:  handler.NewApplicationHandler(nil),
		Certificates:  handler.NewCertificateHandler(nil),
		Notifications: handler.NewNotificationHandler(nil),
		Chat:          handler.NewChatHandler(nil, nil),
		Subscriptions: handler.NewSubscriptionHandler(nil),
		MockTests:     handler.NewMockTestHandler(nil),
		Shopkeepers:   handler.NewShopkeeperHandler(nil),
		Users:         handler.NewUserHandler(nil),
	})
	return e
}

func TestRegister_Routes(t *testing.T) {
	e := newTestServer(t)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
	var health handler.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, int64(3), health.OutboxPending)

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/auth/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "100", rec.Header().Get("X-RateLimit-Limit"))

	req := httptest.NewRequest(http.MethodPost, "/api/jobs", strings.NewReader(`{}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRegister_LoginIsRateLimited(t *testing.T) {
	e := newTestServer(t)

	login := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"email":"not-an-email"}`))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec
	}

	for i := 0; i < int(appmw.AuthRule.Limit); i++ {
		rec := login()
		require.Equal(t, http.StatusBadRequest, rec.Code, "attempt %d", i+1)
	}

	rec := login()
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestHealth_DatabaseDown(t *testing.T) {
	e := echo.New()
	e.GET("/healthz", handler.NewHealthHandler(stubOutbox{err: errors.New("connection refused")}).Check)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"unavailable"`)
}
