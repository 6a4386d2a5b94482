package query

import (
	"iter"

	"github.com/kailas-cloud/searchkv/internal/domain"
	domquery "github.com/kailas-cloud/searchkv/internal/domain/query"
)

// Results is the finite outcome of one Iterate call. Ranging over it again
// replays the same items without touching either backend.
type Results struct {
	total   int
	raw     bool
	hits    []domquery.Hit
	records []domain.Record
}

// Total is the number of matches reported by the search backend,
// which may exceed the number of items in the window.
func (r *Results) Total() int { return r.total }

// Raw reports whether the results carry search hits only.
func (r *Results) Raw() bool { return r.raw }

// Len returns the number of items in the window.
func (r *Results) Len() int {
	if r.raw {
		return len(r.hits)
	}
	return len(r.records)
}

// HitList returns the search hits of the window.
func (r *Results) HitList() []domquery.Hit { return r.hits }

// RecordList returns the resolved records (empty in raw mode).
func (r *Results) RecordList() []domain.Record { return r.records }

// All yields the resolved records with their window position.
func (r *Results) All() iter.Seq2[int, domain.Record] {
	return func(yield func(int, domain.Record) bool) {
		for i, rec := range r.records {
			if !yield(i, rec) {
				return
			}
		}
	}
}

// Hits yields the raw search hits with their window position.
func (r *Results) Hits() iter.Seq2[int, domquery.Hit] {
	return func(yield func(int, domquery.Hit) bool) {
		for i, h := range r.hits {
			if !yield(i, h) {
				return
			}
		}
	}
}
