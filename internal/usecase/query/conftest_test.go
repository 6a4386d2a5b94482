package query

import (
	"context"
	"testing"

	"github.com/kailas-cloud/searchkv/internal/domain"
	domquery "github.com/kailas-cloud/searchkv/internal/domain/query"
)

type searchCall struct {
	query  string
	params domquery.Params
}

// fakeSearcher answers compiled queries from a fixed table of matching ids
// and applies the LIMIT window like the backend would.
type fakeSearcher struct {
	matches map[string][]string
	err     error
	calls   []searchCall
}

func (f *fakeSearcher) Search(_ context.Context, q, _ string, params domquery.Params) (domquery.ResultSet, error) {
	f.calls = append(f.calls, searchCall{query: q, params: params})
	if f.err != nil {
		return domquery.ResultSet{}, f.err
	}

	ids := f.matches[q]
	lo, hi := 0, len(ids)
	if start, ok := params.Start(); ok {
		lo = min(start, len(ids))
	}
	if rows, ok := params.Rows(); ok {
		hi = min(lo+rows, len(ids))
	}

	hits := make([]domquery.Hit, 0, hi-lo)
	for _, id := range ids[lo:hi] {
		hits = append(hits, domquery.Hit{Key: id})
	}
	return domquery.ResultSet{Hits: hits, Total: len(ids)}, nil
}

// fakeStore serves records from memory and counts calls.
type fakeStore struct {
	records   map[string]domain.Value
	datatype  domain.Datatype
	err       error
	gets      []string
	multiGets [][]string
	saves     []string
}

func (f *fakeStore) Get(_ context.Context, id string) (domain.Record, error) {
	f.gets = append(f.gets, id)
	if f.err != nil {
		return domain.Record{}, f.err
	}
	v, ok := f.records[id]
	if !ok {
		return domain.Record{}, domain.ErrNotFound
	}
	return domain.Record{Key: id, Value: v, Found: true}, nil
}

func (f *fakeStore) MultiGet(_ context.Context, ids []string) ([]domain.Record, error) {
	f.multiGets = append(f.multiGets, ids)
	if f.err != nil {
		return nil, f.err
	}
	out := make([]domain.Record, len(ids))
	for i, id := range ids {
		if v, ok := f.records[id]; ok {
			out[i] = domain.Record{Key: id, Value: v, Found: true}
		} else {
			out[i] = domain.Missing(id)
		}
	}
	return out, nil
}

func (f *fakeStore) Save(_ context.Context, id string, v domain.Value) error {
	f.saves = append(f.saves, id)
	if f.err != nil {
		return f.err
	}
	if f.records == nil {
		f.records = make(map[string]domain.Value)
	}
	f.records[id] = v
	return nil
}

func (f *fakeStore) Datatype() domain.Datatype { return f.datatype }

const activeQuery = "@status:{active}"

func newTestSession(t *testing.T, matches map[string][]string) (*Session, *fakeSearcher, *fakeStore) {
	t.Helper()
	fs := &fakeSearcher{matches: matches}
	st := &fakeStore{datatype: domain.DatatypeMap, records: map[string]domain.Value{}}
	for _, ids := range matches {
		for _, id := range ids {
			st.records[id] = domain.MapValue(map[string]string{"id": id})
		}
	}
	return NewSession(fs, st, "users"), fs, st
}
