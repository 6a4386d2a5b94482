package query

import (
	"context"

	"github.com/kailas-cloud/searchkv/internal/domain"
	domquery "github.com/kailas-cloud/searchkv/internal/domain/query"
)

// Searcher runs a compiled query against the search backend.
type Searcher interface {
	Search(ctx context.Context, q, index string, params domquery.Params) (domquery.ResultSet, error)
}

// RecordStore resolves record ids to store records and writes them back.
type RecordStore interface {
	Get(ctx context.Context, id string) (domain.Record, error)
	MultiGet(ctx context.Context, ids []string) ([]domain.Record, error)
	Save(ctx context.Context, id string, v domain.Value) error
	Datatype() domain.Datatype
}
