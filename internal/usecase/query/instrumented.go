package query

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/searchkv/internal/domain"
	domquery "github.com/kailas-cloud/searchkv/internal/domain/query"
	"github.com/kailas-cloud/searchkv/internal/metrics"
)

const (
	backendSearch = "search"
	backendStore  = "store"
)

// InstrumentedSearcher wraps a Searcher with call metrics and error logging.
type InstrumentedSearcher struct {
	inner  Searcher
	logger *zap.Logger
}

// NewInstrumentedSearcher wraps a search adapter with observability.
func NewInstrumentedSearcher(inner Searcher, logger *zap.Logger) *InstrumentedSearcher {
	return &InstrumentedSearcher{inner: inner, logger: logger}
}

// Search delegates to the inner searcher and records the call.
func (i *InstrumentedSearcher) Search(
	ctx context.Context, q, index string, params domquery.Params,
) (domquery.ResultSet, error) {
	start := time.Now()
	rs, err := i.inner.Search(ctx, q, index, params)
	duration := observe(backendSearch, "search", start, err)

	if err != nil {
		i.logger.Error("Search request failed",
			zap.String("index", index),
			zap.String("query", q),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return domquery.ResultSet{}, err
	}
	return rs, nil
}

// InstrumentedRecords wraps a RecordStore with call metrics and error logging.
type InstrumentedRecords struct {
	inner  RecordStore
	logger *zap.Logger
}

// NewInstrumentedRecords wraps a record adapter with observability.
func NewInstrumentedRecords(inner RecordStore, logger *zap.Logger) *InstrumentedRecords {
	return &InstrumentedRecords{inner: inner, logger: logger}
}

// Get delegates a point read. A missing record is not counted as an error.
func (i *InstrumentedRecords) Get(ctx context.Context, id string) (domain.Record, error) {
	start := time.Now()
	rec, err := i.inner.Get(ctx, id)
	observe(backendStore, "get", start, backendErr(err))
	if backendErr(err) != nil {
		i.logger.Error("Store get failed", zap.String("key", id), zap.Error(err))
	}
	return rec, err
}

// MultiGet delegates a batched read.
func (i *InstrumentedRecords) MultiGet(ctx context.Context, ids []string) ([]domain.Record, error) {
	start := time.Now()
	recs, err := i.inner.MultiGet(ctx, ids)
	duration := observe(backendStore, "multiget", start, err)
	if err != nil {
		i.logger.Error("Store multiget failed",
			zap.Int("keys", len(ids)),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return nil, err
	}
	return recs, nil
}

// Save delegates a write.
func (i *InstrumentedRecords) Save(ctx context.Context, id string, v domain.Value) error {
	start := time.Now()
	err := i.inner.Save(ctx, id, v)
	observe(backendStore, "save", start, err)
	if err != nil {
		i.logger.Error("Store save failed", zap.String("key", id), zap.Error(err))
	}
	return err
}

// Datatype returns the datatype of the wrapped store.
func (i *InstrumentedRecords) Datatype() domain.Datatype { return i.inner.Datatype() }

func observe(backend, op string, start time.Time, err error) time.Duration {
	d := time.Since(start)
	metrics.BackendRequestsTotal.WithLabelValues(backend, op, metrics.StatusLabel(err)).Inc()
	metrics.BackendRequestDuration.WithLabelValues(backend, op).Observe(d.Seconds())
	return d
}

func backendErr(err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	return err
}
