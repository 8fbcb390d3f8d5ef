package handler

import (
	"net/http"

	"github.com/mcarden/authgate/internal/api/apierr"
)

// Re-export from apierr for convenience
type APIError = apierr.APIError
type ErrorResponse = apierr.ErrorResponse

// Re-export error codes
const (
	CodeInvalidRequest     = apierr.CodeInvalidRequest
	CodeInvalidCredentials = apierr.CodeInvalidCredentials
	CodeEmailExists        = apierr.CodeEmailExists
	CodeNoSession          = apierr.CodeNoSession
	CodeInvalidSession     = apierr.CodeInvalidSession
	CodeProfileNotFound    = apierr.CodeProfileNotFound
	CodeProfileExists      = apierr.CodeProfileExists
	CodeInternalError      = apierr.CodeInternalError
)

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	apierr.WriteError(w, err)
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return apierr.NewInvalidRequestError(message)
}

// NewNoSessionError creates a no-active-session error
func NewNoSessionError() error {
	return apierr.NewNoSessionError()
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return apierr.NewInternalError()
}
