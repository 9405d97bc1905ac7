package apiclient

import (
	"fmt"
)

// APIError represents an error response from the update API, matching the
// {"code": ..., "error": ...} body pkg/api's writeError produces.
type APIError struct {
	Code       string `json:"code,omitempty"`
	Message    string `json:"error"`
	StatusCode int    `json:"-"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Message
}

// IsAuthError returns true if this is an authentication or permission error.
func (e *APIError) IsAuthError() bool {
	return e.Code == "UNAUTHENTICATED" || e.Code == "PERMISSION_DENIED"
}

// IsNotFound returns true if this is a not found error.
func (e *APIError) IsNotFound() bool {
	return e.Code == "NOT_FOUND"
}

// IsConflict returns true if this is a conflict error.
func (e *APIError) IsConflict() bool {
	return e.Code == "CONFLICT"
}

// IsValidationError returns true if this is a validation error.
func (e *APIError) IsValidationError() bool {
	return e.Code == "INVALID_ARGUMENT"
}
