package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRequest signals a search request that failed validation.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrMalformedCursor signals a pagination token that could not be decoded.
	ErrMalformedCursor = errors.New("malformed cursor")
	// ErrIndexUnavailable signals that the document index cannot be reached.
	ErrIndexUnavailable = errors.New("index unavailable")
	// ErrQueryFailed signals that the index rejected the query.
	ErrQueryFailed = errors.New("query failed")
	// ErrClassifierDegraded signals that the probabilistic intent tier could not be trained.
	ErrClassifierDegraded = errors.New("classifier degraded")
	// ErrEntityExtraction signals an internal failure while extracting entities.
	ErrEntityExtraction = errors.New("entity extraction failed")
	// ErrPreferenceLookup signals that user preferences could not be read.
	ErrPreferenceLookup = errors.New("preference lookup failed")
	// ErrAnalytics signals that an analytics event could not be recorded.
	ErrAnalytics = errors.New("analytics write failed")
	// ErrUnknownProfile signals a scoring profile name that is not registered.
	ErrUnknownProfile = errors.New("unknown scoring profile")
	// ErrTestNotFound signals an AB test id that is not configured.
	ErrTestNotFound = errors.New("ab test not found")
)

// ValidationError wraps ErrInvalidRequest with the offending field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrInvalidRequest.Error(), e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidRequest }

// NewValidationError creates a validation error for a request field.
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
