package search

import (
	"context"
	"testing"

	"github.com/kailas-cloud/searchkv/internal/db"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	searchFn func(ctx context.Context, req *db.SearchRequest) (*db.SearchResult, error)
	last     *db.SearchRequest
	calls    int
}

func (m *mockStore) Search(ctx context.Context, req *db.SearchRequest) (*db.SearchResult, error) {
	m.calls++
	m.last = req
	if m.searchFn != nil {
		return m.searchFn(ctx, req)
	}
	return &db.SearchResult{}, nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return New(ms, "default:users:"), ms
}
