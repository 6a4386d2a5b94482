package searchkv

import (
	"context"
	"fmt"
	"iter"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/searchkv/internal/domain"
	domquery "github.com/kailas-cloud/searchkv/internal/domain/query"
	healthuc "github.com/kailas-cloud/searchkv/internal/usecase/health"
	queryuc "github.com/kailas-cloud/searchkv/internal/usecase/query"
)

// Internal interfaces for substitution in tests.
type recordStore interface {
	queryuc.RecordStore
	Collection() domain.Collection
	Put(ctx context.Context, id string, v domain.Value) error
	Delete(ctx context.Context, id string) error
	StreamKeys(ctx context.Context) iter.Seq2[[]string, error]
	CountKeys(ctx context.Context) (int, error)
}

type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}

// Bucket is an opened key space with its search index.
type Bucket struct {
	records  recordStore
	searcher queryuc.Searcher
	health   healthUseCase
	obs      *observer
	logger   *zap.Logger
}

func newBucket(
	records recordStore, searcher queryuc.Searcher, health healthUseCase, obs *observer, logger *zap.Logger,
) *Bucket {
	return &Bucket{
		records:  records,
		searcher: &observedSearcher{inner: searcher, obs: obs},
		health:   health,
		obs:      obs,
		logger:   logger,
	}
}

// Prefix returns the key prefix shared by all records of the bucket.
func (b *Bucket) Prefix() string { return b.records.Collection().KeyPrefix() }

// Index returns the search index name.
func (b *Bucket) Index() string { return b.records.Collection().Index }

// Datatype returns the storage trait the bucket was bound with.
func (b *Bucket) Datatype() Datatype { return b.records.Datatype() }

// Query starts a new lazy query. A Query is not safe for concurrent use;
// open one per goroutine.
func (b *Bucket) Query() *Query {
	records := &observedRecords{recordStore: b.records, obs: b.obs}
	return queryuc.NewSession(b.searcher, records, b.Index(), queryuc.WithLogger(b.logger))
}

// Save writes v with the bucket's strategy: field maps are merged into
// map buckets, any other bucket is overwritten.
func (b *Bucket) Save(ctx context.Context, id string, v Value) (err error) {
	start := time.Now()
	defer func() { b.obs.observe("save", start, err) }()

	if err = b.records.Save(ctx, id, v); err != nil {
		return fmt.Errorf("save %s: %w", id, err)
	}
	return nil
}

// Put overwrites the record regardless of the bucket datatype.
func (b *Bucket) Put(ctx context.Context, id string, v Value) (err error) {
	start := time.Now()
	defer func() { b.obs.observe("put", start, err) }()

	if err = b.records.Put(ctx, id, v); err != nil {
		return fmt.Errorf("put %s: %w", id, err)
	}
	return nil
}

// Delete removes a record. Deleting a missing record is not an error.
func (b *Bucket) Delete(ctx context.Context, id string) (err error) {
	start := time.Now()
	defer func() { b.obs.observe("delete", start, err) }()

	if err = b.records.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete %s: %w", id, err)
	}
	return nil
}

// Keys yields every record id of the bucket by scanning the key space.
// Ids are unordered; stop ranging to end the scan early.
func (b *Bucket) Keys(ctx context.Context) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for batch, err := range b.records.StreamKeys(ctx) {
			if err != nil {
				yield("", err)
				return
			}
			for _, id := range batch {
				if !yield(id, nil) {
					return
				}
			}
		}
	}
}

// CountKeys counts the records of the bucket by walking the key space.
// Unlike Query().Count() it includes records the index does not cover.
func (b *Bucket) CountKeys(ctx context.Context) (n int, err error) {
	start := time.Now()
	defer func() { b.obs.observe("count_keys", start, err) }()

	return b.records.CountKeys(ctx)
}

// observedSearcher reports search round trips to the observer.
type observedSearcher struct {
	inner queryuc.Searcher
	obs   *observer
}

func (s *observedSearcher) Search(
	ctx context.Context, q, index string, params domquery.Params,
) (rs domquery.ResultSet, err error) {
	start := time.Now()
	defer func() { s.obs.observe("search", start, err) }()

	return s.inner.Search(ctx, q, index, params)
}

// observedRecords reports record reads issued by queries to the observer.
type observedRecords struct {
	recordStore
	obs *observer
}

func (r *observedRecords) Get(ctx context.Context, id string) (rec domain.Record, err error) {
	start := time.Now()
	defer func() { r.obs.observe("get", start, err) }()

	return r.recordStore.Get(ctx, id)
}

func (r *observedRecords) MultiGet(ctx context.Context, ids []string) (recs []domain.Record, err error) {
	start := time.Now()
	defer func() { r.obs.observe("multi_get", start, err) }()

	return r.recordStore.MultiGet(ctx, ids)
}
