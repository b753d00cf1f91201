package relevex

import (
	"errors"

	"github.com/kailas-cloud/relevex/internal/domain"
)

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrInvalidRequest   = domain.ErrInvalidRequest
	ErrIndexUnavailable = domain.ErrIndexUnavailable
	ErrQueryFailed      = domain.ErrQueryFailed
)

// ErrIndexNotConfigured is returned by Search on a client built without
// WithElasticsearch. Explain still works.
var ErrIndexNotConfigured = errors.New("relevex: index not configured (use WithElasticsearch)")
