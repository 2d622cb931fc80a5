// Package apierror provides standardized error response structures for the API.
// All errors returned to clients go through this package to ensure consistency
// and to prevent leaking internal details (stack traces, DB errors, etc.).
package apierror

import (
	"errors"
	"net/http"

	"chainpilot/internal/apperr"
)

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Detail string `json:"detail"`
	Kind   string `json:"kind,omitempty"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// Validation wraps multiple field errors.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "Validation failed", Fields: fields}
}

// FromError maps the domain error taxonomy to an HTTP status and a safe
// envelope. Unknown errors become a generic 500 without internals.
func FromError(err error) (int, *APIError) {
	switch {
	case errors.Is(err, apperr.ErrScopeViolation):
		return http.StatusForbidden, &APIError{Detail: "Location outside of your scope", Kind: "scope_violation"}
	case errors.Is(err, apperr.ErrInvalidStateTransition):
		return http.StatusConflict, &APIError{Detail: "Suggestion is no longer pending", Kind: "invalid_state_transition"}
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound, &APIError{Detail: "Not found", Kind: "not_found"}
	case errors.Is(err, apperr.ErrValidation):
		return http.StatusUnprocessableEntity, &APIError{Detail: err.Error(), Kind: "validation"}
	case errors.Is(err, apperr.ErrTimeout):
		return http.StatusGatewayTimeout, &APIError{Detail: "Record store did not answer in time", Kind: "timeout"}
	case errors.Is(err, apperr.ErrUpdateFailed):
		return http.StatusBadGateway, &APIError{Detail: "Update failed, please retry", Kind: "update_failed"}
	case errors.Is(err, apperr.ErrFetchFailed):
		return http.StatusBadGateway, &APIError{Detail: "Failed to load data", Kind: "fetch_failed"}
	case errors.Is(err, apperr.ErrSubscription):
		return http.StatusServiceUnavailable, &APIError{Detail: "Live updates unavailable", Kind: "subscription_error"}
	default:
		return http.StatusInternalServerError, &APIError{Detail: "Internal server error"}
	}
}
