package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcarden/authgate/internal/model"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest     = "INVALID_REQUEST"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeEmailExists        = "EMAIL_EXISTS"
	CodeNoSession          = "NO_SESSION"
	CodeInvalidSession     = "INVALID_SESSION"
	CodeProfileNotFound    = "PROFILE_NOT_FOUND"
	CodeProfileExists      = "PROFILE_EXISTS"
	CodeInternalError      = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	// Check for specific error types
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	switch {
	case errors.Is(err, model.ErrInvalidCredentials):
		return &httpError{http.StatusUnauthorized, APIError{CodeInvalidCredentials, "Invalid email or password"}}
	case errors.Is(err, model.ErrEmailExists):
		return &httpError{http.StatusConflict, APIError{CodeEmailExists, "Email already registered"}}
	case errors.Is(err, model.ErrNoSession):
		return &httpError{http.StatusUnauthorized, APIError{CodeNoSession, "No active session"}}
	case errors.Is(err, model.ErrInvalidSession):
		return &httpError{http.StatusUnauthorized, APIError{CodeInvalidSession, "Invalid or expired session"}}
	case errors.Is(err, model.ErrProfileNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeProfileNotFound, "Profile not found"}}
	case errors.Is(err, model.ErrProfileExists):
		return &httpError{http.StatusConflict, APIError{CodeProfileExists, "Profile already exists"}}

	default:
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewNoSessionError creates a no-active-session error
func NewNoSessionError() error {
	return &httpError{http.StatusUnauthorized, APIError{CodeNoSession, "No active session"}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}
