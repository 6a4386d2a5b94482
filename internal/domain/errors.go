package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a query or key that matched nothing.
	ErrNotFound = errors.New("not found")
	// ErrMultipleResults signals a single-record read that matched more than one record.
	ErrMultipleResults = errors.New("multiple results")
	// ErrInvalidIndex signals a positional or slice argument the accessor cannot honour.
	ErrInvalidIndex = errors.New("invalid index argument")
	// ErrInvalidFilter signals a filter term that cannot be compiled.
	ErrInvalidFilter = errors.New("invalid filter")
	// ErrBackendUnavailable signals a failure reported by the search or store backend.
	ErrBackendUnavailable = errors.New("backend unavailable")
)

// MultipleResultsError carries the match count behind ErrMultipleResults.
type MultipleResultsError struct {
	Total int
}

func (e *MultipleResultsError) Error() string {
	return fmt.Sprintf("%s: query matched %d records", ErrMultipleResults.Error(), e.Total)
}

func (e *MultipleResultsError) Unwrap() error { return ErrMultipleResults }

// NewMultipleResults creates a multiplicity error for a query that matched total records.
func NewMultipleResults(total int) error {
	return &MultipleResultsError{Total: total}
}
