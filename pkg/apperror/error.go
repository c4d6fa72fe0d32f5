// Package apperror defines the typed error taxonomy shared by all domains.
package apperror

import (
	"fmt"
	"net/http"
)

// Error represents an application error with HTTP status and error code
type Error struct {
	HTTPStatus int
	Code       string
	Message    string
	Internal   error
	Details    map[string]any
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Internal)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the internal error
func (e *Error) Unwrap() error {
	return e.Internal
}

// WithInternal returns a copy of the error with an internal error attached
func (e *Error) WithInternal(err error) *Error {
	return &Error{
		HTTPStatus: e.HTTPStatus,
		Code:       e.Code,
		Message:    e.Message,
		Internal:   err,
		Details:    e.Details,
	}
}

// WithMessage returns a copy of the error with a custom message
func (e *Error) WithMessage(message string) *Error {
	return &Error{
		HTTPStatus: e.HTTPStatus,
		Code:       e.Code,
		Message:    message,
		Internal:   e.Internal,
		Details:    e.Details,
	}
}

// WithDetails returns a copy of the error with details attached
func (e *Error) WithDetails(details map[string]any) *Error {
	return &Error{
		HTTPStatus: e.HTTPStatus,
		Code:       e.Code,
		Message:    e.Message,
		Internal:   e.Internal,
		Details:    details,
	}
}

// Fields returns the per-field error map attached under Details["fields"],
// or nil if the error carries none.
func (e *Error) Fields() map[string]string {
	if e.Details == nil {
		return nil
	}
	fields, _ := e.Details["fields"].(map[string]string)
	return fields
}

// New creates a new application error
func New(status int, code, message string) *Error {
	return &Error{
		HTTPStatus: status,
		Code:       code,
		Message:    message,
	}
}

// Common error definitions
var (
	// Resource errors
	ErrNotFound = New(http.StatusNotFound, "not_found", "Resource not found")
	ErrConflict = New(http.StatusConflict, "conflict", "Resource already exists")

	// Request and validation errors
	ErrBadRequest       = New(http.StatusBadRequest, "bad_request", "Invalid request")
	ErrValidation       = New(http.StatusUnprocessableEntity, "validation_error", "Instance validation failed")
	ErrEndpointMismatch = New(http.StatusUnprocessableEntity, "endpoint_mismatch", "Relation endpoint validation failed")

	// Capability errors
	ErrFeatureDisabled     = New(http.StatusBadRequest, "feature_disabled", "Feature is not configured")
	ErrProviderUnavailable = New(http.StatusBadGateway, "provider_unavailable", "Upstream provider is unavailable")

	// Server errors
	ErrInternal = New(http.StatusInternalServerError, "internal_error", "An internal error occurred")
	ErrDatabase = New(http.StatusInternalServerError, "database_error", "Database operation failed")
)

// NewBadRequest creates a bad request error with a custom message
func NewBadRequest(message string) *Error {
	return ErrBadRequest.WithMessage(message)
}

// NewNotFound creates a not found error for a resource type and ID
func NewNotFound(resourceType, id string) *Error {
	return ErrNotFound.WithMessage(fmt.Sprintf("%s '%s' not found", resourceType, id))
}

// NewValidation creates a validation error carrying a field→message map.
// The full map is always reported in one response; callers are expected to
// collect every offending field before constructing the error.
func NewValidation(fields map[string]string) *Error {
	return ErrValidation.WithDetails(map[string]any{"fields": fields})
}

// NewEndpointMismatch creates an endpoint mismatch error carrying a
// field→message map (fromEntityId/toEntityId plus any property errors
// found in the same validation pass).
func NewEndpointMismatch(fields map[string]string) *Error {
	return ErrEndpointMismatch.WithDetails(map[string]any{"fields": fields})
}

// NewInternal creates an internal error with a message and optional wrapped error
func NewInternal(message string, err error) *Error {
	return &Error{
		HTTPStatus: http.StatusInternalServerError,
		Code:       "internal_error",
		Message:    message,
		Internal:   err,
	}
}
