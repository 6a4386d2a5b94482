package searchkv

import "github.com/kailas-cloud/searchkv/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrNotFound           = domain.ErrNotFound
	ErrMultipleResults    = domain.ErrMultipleResults
	ErrInvalidIndex       = domain.ErrInvalidIndex
	ErrInvalidFilter      = domain.ErrInvalidFilter
	ErrBackendUnavailable = domain.ErrBackendUnavailable
)

// MultipleResultsError carries the match count; use errors.As to read it.
type MultipleResultsError = domain.MultipleResultsError
