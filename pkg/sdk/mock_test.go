package searchkv

import (
	"context"
	"iter"

	"go.uber.org/zap"

	"github.com/kailas-cloud/searchkv/internal/domain"
	domquery "github.com/kailas-cloud/searchkv/internal/domain/query"
	healthuc "github.com/kailas-cloud/searchkv/internal/usecase/health"
)

// --- recordStore mock ---

type mockRecords struct {
	datatype    domain.Datatype
	getFn       func(ctx context.Context, id string) (domain.Record, error)
	multiGetFn  func(ctx context.Context, ids []string) ([]domain.Record, error)
	saveFn      func(ctx context.Context, id string, v domain.Value) error
	putFn       func(ctx context.Context, id string, v domain.Value) error
	deleteFn    func(ctx context.Context, id string) error
	scanBatches [][]string
	scanErr     error
	countFn     func(ctx context.Context) (int, error)
}

func (m *mockRecords) Collection() domain.Collection {
	return domain.NewCollection("default", "users", "")
}

func (m *mockRecords) Datatype() domain.Datatype { return m.datatype }

func (m *mockRecords) Get(ctx context.Context, id string) (domain.Record, error) {
	return m.getFn(ctx, id)
}

func (m *mockRecords) MultiGet(ctx context.Context, ids []string) ([]domain.Record, error) {
	return m.multiGetFn(ctx, ids)
}

func (m *mockRecords) Save(ctx context.Context, id string, v domain.Value) error {
	return m.saveFn(ctx, id, v)
}

func (m *mockRecords) Put(ctx context.Context, id string, v domain.Value) error {
	return m.putFn(ctx, id, v)
}

func (m *mockRecords) Delete(ctx context.Context, id string) error {
	return m.deleteFn(ctx, id)
}

func (m *mockRecords) StreamKeys(_ context.Context) iter.Seq2[[]string, error] {
	return func(yield func([]string, error) bool) {
		for _, b := range m.scanBatches {
			if !yield(b, nil) {
				return
			}
		}
		if m.scanErr != nil {
			yield(nil, m.scanErr)
		}
	}
}

func (m *mockRecords) CountKeys(ctx context.Context) (int, error) {
	return m.countFn(ctx)
}

// --- searcher mock ---

type mockSearcher struct {
	searchFn func(ctx context.Context, q, index string, params domquery.Params) (domquery.ResultSet, error)
	calls    int
}

func (m *mockSearcher) Search(
	ctx context.Context, q, index string, params domquery.Params,
) (domquery.ResultSet, error) {
	m.calls++
	return m.searchFn(ctx, q, index, params)
}

// --- health mock ---

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(context.Context) healthuc.Report { return m.report }

// --- helpers ---

func testBucket(records recordStore, searcher *mockSearcher, obs *observer) *Bucket {
	return newBucket(records, searcher, &mockHealth{}, obs, zap.NewNop())
}
