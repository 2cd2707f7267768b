package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrValidation is returned when request fields are missing or malformed.
	ErrValidation = errors.New("validation failed")
	// ErrUnauthorized is returned when the bearer token is missing, invalid or revoked.
	ErrUnauthorized = errors.New("authentication required")
	// ErrInvalidCredentials is returned when email or password is incorrect.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrForbidden is returned when the actor's role or ownership does not allow the action.
	ErrForbidden = errors.New("access denied")
	// ErrLimitReached is returned when a subscription entitlement is exhausted.
	ErrLimitReached = errors.New("subscription limit reached")
	// ErrNotFound is returned when a resource does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned on duplicate emails, applications or plan names.
	ErrConflict = errors.New("already exists")
	// ErrDeadlinePassed is returned when applying after a job's deadline.
	ErrDeadlinePassed = errors.New("application deadline has passed")
	// ErrInvalidTransition is returned when a status change is not allowed from the current state.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrFileRequired is returned when a mandatory upload is missing.
	ErrFileRequired = errors.New("file is required")
	// ErrUnsupportedFile is returned when an upload's extension or mime type is not allowed.
	ErrUnsupportedFile = errors.New("unsupported file type")
	// ErrFileTooLarge is returned when an upload exceeds its size ceiling.
	ErrFileTooLarge = errors.New("file too large")
	// ErrRateLimited is returned when a client exceeds its request window.
	ErrRateLimited = errors.New("too many requests, please try again later")
)

// Validation wraps ErrValidation with a field-level reason.
func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Message: e.Message,
		Error:   e.Code,
	}
}

var mappings = []struct {
	target error
	status int
	code   string
}{
	{ErrValidation, http.StatusBadRequest, "VALIDATION_ERROR"},
	{ErrFileRequired, http.StatusBadRequest, "FILE_REQUIRED"},
	{ErrUnsupportedFile, http.StatusBadRequest, "UNSUPPORTED_FILE"},
	{ErrFileTooLarge, http.StatusBadRequest, "FILE_TOO_LARGE"},
	{ErrDeadlinePassed, http.StatusBadRequest, "DEADLINE_PASSED"},
	{ErrUnauthorized, http.StatusUnauthorized, "UNAUTHORIZED"},
	{ErrInvalidCredentials, http.StatusUnauthorized, "INVALID_CREDENTIALS"},
	{ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
	{ErrLimitReached, http.StatusForbidden, "LIMIT_REACHED"},
	{ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
	{ErrConflict, http.StatusConflict, "CONFLICT"},
	{ErrInvalidTransition, http.StatusConflict, "INVALID_TRANSITION"},
	{ErrRateLimited, http.StatusTooManyRequests, "RATE_LIMITED"},
}

// MapErrorToHTTP maps domain errors to HTTP errors. Unknown errors become a
// generic 500 so internals never reach the client.
func MapErrorToHTTP(err error) *HTTPError {
	for _, m := range mappings {
		if errors.Is(err, m.target) {
			return NewHTTPError(m.status, err.Error(), m.code)
		}
	}
	return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
}

// CodeForStatus returns the error code used for a bare HTTP status.
func CodeForStatus(status int) string {
	for _, m := range mappings {
		if m.status == status {
			return m.code
		}
	}
	switch {
	case status == http.StatusRequestEntityTooLarge:
		return "FILE_TOO_LARGE"
	case status == http.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	case status >= http.StatusInternalServerError:
		return "INTERNAL_ERROR"
	}
	return ""
}
