package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/kailas-cloud/searchkv/internal/db"
	"github.com/kailas-cloud/searchkv/internal/domain"
	"github.com/kailas-cloud/searchkv/internal/domain/query"
)

// defaultWindow is the page size used when only an offset is requested.
const defaultWindow = 10

// store is the consumer interface for search operations (ISP).
type store interface {
	Search(ctx context.Context, req *db.SearchRequest) (*db.SearchResult, error)
}

// Repo implements usecase/query.Searcher on top of FT.SEARCH.
type Repo struct {
	store  store
	prefix string
}

// New creates a search repository. Hit keys have keyPrefix stripped.
func New(s store, keyPrefix string) *Repo {
	return &Repo{store: s, prefix: keyPrefix}
}

// Search runs the compiled query against index with the given parameters.
func (r *Repo) Search(ctx context.Context, q, index string, params query.Params) (query.ResultSet, error) {
	req := buildRequest(q, index, params)

	sr, err := r.store.Search(ctx, req)
	if err != nil {
		return query.ResultSet{}, fmt.Errorf("search %s: %w: %w", index, domain.ErrBackendUnavailable, err)
	}

	return r.toResultSet(sr), nil
}

func buildRequest(q, index string, params query.Params) *db.SearchRequest {
	req := &db.SearchRequest{
		Index:     index,
		Query:     q,
		NoContent: params.KeysOnly(),
	}

	rows, hasRows := params.Rows()
	start, hasStart := params.Start()
	switch {
	case hasRows:
		req.Limit, req.HasLimit = rows, true
	case hasStart:
		req.Limit, req.HasLimit = defaultWindow, true
	}
	if hasStart {
		req.Offset = start
	}

	if field, desc := params.Sort(); field != "" {
		req.SortBy, req.SortDesc = field, desc
	}
	if fields := params.Fields(); len(fields) > 0 && !req.NoContent {
		req.ReturnFields = fields
	}
	return req
}

func (r *Repo) toResultSet(sr *db.SearchResult) query.ResultSet {
	if sr == nil {
		return query.ResultSet{}
	}

	hits := make([]query.Hit, 0, len(sr.Entries))
	for _, e := range sr.Entries {
		hits = append(hits, query.Hit{
			Key:    strings.TrimPrefix(e.Key, r.prefix),
			Fields: e.Fields,
		})
	}
	return query.ResultSet{Hits: hits, Total: sr.Total}
}
