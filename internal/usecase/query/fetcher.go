package query

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/searchkv/internal/domain"
	domquery "github.com/kailas-cloud/searchkv/internal/domain/query"
)

// storeFetcher resolves hits of the current result set to store records and
// keeps them until the next real execution.
type storeFetcher struct {
	store RecordStore

	records []domain.Record
	// stale means the store has not been consulted for the current result set.
	stale bool
	// complete means records covers every hit, not only the first.
	complete bool
}

func (f *storeFetcher) invalidate() {
	f.records = nil
	f.stale = true
	f.complete = false
}

// fetchAll returns one record per hit, issuing a single batched read when the
// cache does not already cover the result set.
func (f *storeFetcher) fetchAll(ctx context.Context, rs domquery.ResultSet) ([]domain.Record, error) {
	if !f.stale && f.complete {
		return f.records, nil
	}

	keys := rs.Keys()
	if len(keys) == 0 {
		f.records, f.stale, f.complete = nil, false, true
		return nil, nil
	}

	records, err := f.store.MultiGet(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("fetch %d records: %w", len(keys), wrapBackend(err))
	}

	f.records, f.stale, f.complete = records, false, true
	return records, nil
}

// fetchOne returns the record behind the first hit.
func (f *storeFetcher) fetchOne(ctx context.Context, rs domquery.ResultSet) (domain.Record, error) {
	if len(rs.Hits) == 0 {
		return domain.Record{}, domain.ErrNotFound
	}
	if !f.stale && len(f.records) > 0 {
		if rec := f.records[0]; rec.Found {
			return rec, nil
		}
		return domain.Record{}, domain.ErrNotFound
	}

	rec, err := f.store.Get(ctx, rs.Hits[0].Key)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Record{}, err
		}
		return domain.Record{}, fmt.Errorf("fetch record %s: %w", rs.Hits[0].Key, wrapBackend(err))
	}

	f.records, f.stale, f.complete = []domain.Record{rec}, false, len(rs.Hits) == 1
	return rec, nil
}

func isDomainErr(err error) bool {
	return errors.Is(err, domain.ErrBackendUnavailable) ||
		errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, domain.ErrInvalidIndex) ||
		errors.Is(err, domain.ErrInvalidFilter) ||
		errors.Is(err, domain.ErrMultipleResults)
}
