package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"jobportal/internal/auth"
	apperrors "jobportal/internal/errors"
	"jobportal/internal/model"
	"jobportal/internal/repository"
)

type stubUsers struct {
	repository.UserRepository
	users map[uuid.UUID]*model.User
}

func (s stubUsers) FindByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type stubTokens map[string]bool

func (s stubTokens) RevokeToken(_ context.Context, id string, _ time.Duration) error {
	s[id] = true
	return nil
}

func (s stubTokens) IsRevoked(_ context.Context, id string) (bool, error) {
	return s[id], nil
}

func newEcho() *echo.Echo {
	e := echo.New()
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		if he, ok := err.(*echo.HTTPError); ok {
			_ = c.NoContent(he.Code)
			return
		}
		mapped := apperrors.MapErrorToHTTP(err)
		_ = c.JSON(mapped.StatusCode, mapped.ToErrorResponse())
	}
	return e
}

func TestAuthenticate(t *testing.T) {
	jwtService := auth.NewJWTService("test-secret", time.Hour)
	student := &model.User{ID: uuid.New(), Name: "Asha", Role: model.RoleStudent, IsActive: true}
	disabled := &model.User{ID: uuid.New(), Role: model.RoleStudent, IsActive: false}
	users := stubUsers{users: map[uuid.UUID]*model.User{student.ID: student, disabled.ID: disabled}}
	tokens := stubTokens{}
	authn := NewAuthenticator(jwtService, tokens, users)

	e := newEcho()
	secured := e.Group("", authn.Authenticate())
	secured.GET("/me", func(c echo.Context) error {
		return c.String(http.StatusOK, Actor(c).Name)
	})
	secured.GET("/employer", func(c echo.Context) error {
		return c.NoContent(http.StatusNoContent)
	}, Authorize(model.RoleEmployer, model.RoleAdmin))

	valid, _, err := jwtService.GenerateToken(student.ID, string(student.Role))
	require.NoError(t, err)
	revoked, revokedClaims, err := jwtService.GenerateToken(student.ID, string(student.Role))
	require.NoError(t, err)
	tokens[revokedClaims.ID] = true
	inactive, _, err := jwtService.GenerateToken(disabled.ID, string(disabled.Role))
	require.NoError(t, err)
	ghost, _, err := jwtService.GenerateToken(uuid.New(), "student")
	require.NoError(t, err)
	foreign, _, err := auth.NewJWTService("other-secret", time.Hour).GenerateToken(student.ID, "student")
	require.NoError(t, err)
	anonymous, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &auth.Claims{
		UserType:         "admin",
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	tests := []struct {
		name       string
		path       string
		header     string
		wantStatus int
		wantBody   string
	}{
		{name: "valid bearer token", path: "/me", header: "Bearer " + valid, wantStatus: http.StatusOK, wantBody: "Asha"},
		{name: "token in query for websocket upgrades", path: "/me?token=" + valid, wantStatus: http.StatusOK, wantBody: "Asha"},
		{name: "missing token", path: "/me", wantStatus: http.StatusUnauthorized},
		{name: "malformed header", path: "/me", header: valid, wantStatus: http.StatusUnauthorized},
		{name: "foreign signature", path: "/me", header: "Bearer " + foreign, wantStatus: http.StatusUnauthorized},
		{name: "token without user id", path: "/me", header: "Bearer " + anonymous, wantStatus: http.StatusUnauthorized},
		{name: "revoked token", path: "/me", header: "Bearer " + revoked, wantStatus: http.StatusUnauthorized},
		{name: "disabled account", path: "/me", header: "Bearer " + inactive, wantStatus: http.StatusUnauthorized},
		{name: "deleted account", path: "/me", header: "Bearer " + ghost, wantStatus: http.StatusUnauthorized},
		{name: "role not allowed", path: "/employer", header: "Bearer " + valid, wantStatus: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set(echo.HeaderAuthorization, tt.header)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, rec.Body.String())
			}
		})
	}
}

func TestRateLimit_BlocksAfterLimit(t *testing.T) {
	e := newEcho()
	e.POST("/auth/login", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}, RateLimit(newMemoryCounter(), AuthRule, zerolog.Nop()))

	send := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.Header.Set(echo.HeaderXRealIP, ip)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec
	}

	for i := 1; i <= int(AuthRule.Limit); i++ {
		rec := send("10.0.0.1")
		require.Equal(t, http.StatusOK, rec.Code, "attempt %d", i)
		assert.Equal(t, "5", rec.Header().Get("X-RateLimit-Limit"))
	}
	assert.Equal(t, "4", send("10.0.0.2").Header().Get("X-RateLimit-Remaining"))

	rec := send("10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "RATE_LIMITED")

	assert.Equal(t, http.StatusOK, send("10.0.0.3").Code)
}

type brokenCounter struct{}

func (brokenCounter) Incr(context.Context, string, time.Duration) (int64, time.Duration, error) {
	return 0, 0, errors.New("redis: connection refused")
}

func TestRateLimit_CounterFailureFallsBackToLocalBucket(t *testing.T) {
	e := newEcho()
	e.GET("/jobs", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}, RateLimit(brokenCounter{}, Rule{Name: "tiny", Limit: 2, Window: time.Minute}, zerolog.Nop()))

	send := func() *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/jobs", nil))
		return rec
	}

	assert.Equal(t, http.StatusOK, send().Code)
	assert.Equal(t, http.StatusOK, send().Code)

	rec := send()
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "30", rec.Header().Get("Retry-After"))
	assert.Empty(t, rec.Header().Get("X-RateLimit-Remaining"))
}

func TestRateLimit_WithoutCounter(t *testing.T) {
	e := newEcho()
	e.POST("/auth/login", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}, RateLimit(nil, AuthRule, zerolog.Nop()))

	send := func(ip string) int {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.Header.Set(echo.HeaderXRealIP, ip)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec.Code
	}

	for i := 1; i <= int(AuthRule.Limit); i++ {
		require.Equal(t, http.StatusOK, send("10.0.0.1"), "attempt %d", i)
	}
	assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.1"))
	assert.Equal(t, http.StatusOK, send("10.0.0.2"))
}

// memoryCounter is a fixed-window Counter standing in for Redis.
type memoryCounter struct {
	mu     sync.Mutex
	counts map[string]int64
}

func newMemoryCounter() *memoryCounter {
	return &memoryCounter{counts: make(map[string]int64)}
}

func (m *memoryCounter) Incr(_ context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[key]++
	return m.counts[key], window, nil
}
