package searchkv

import (
	"github.com/kailas-cloud/searchkv/internal/domain"
	domquery "github.com/kailas-cloud/searchkv/internal/domain/query"
	queryuc "github.com/kailas-cloud/searchkv/internal/usecase/query"
)

// Query is a lazy, chainable query over one bucket.
type Query = queryuc.Session

// Results is the materialised outcome of Query.Iterate.
type Results = queryuc.Results

// QueryState is a debugging snapshot of a Query.
type QueryState = queryuc.State

// Record is a stored value resolved from a search hit.
type Record = domain.Record

// Hit is a raw search document.
type Hit = domquery.Hit

// Value is a record payload: a field map or an opaque blob.
type Value = domain.Value

// Datatype is the storage trait of a bucket.
type Datatype = domain.Datatype

// Bucket datatypes.
const (
	DatatypeMap   = domain.DatatypeMap
	DatatypePlain = domain.DatatypePlain
	DatatypeOther = domain.DatatypeOther
)

// ToEnd is the open upper bound for Query.Slice.
const ToEnd = queryuc.ToEnd

// MapValue wraps a field map.
func MapValue(fields map[string]string) Value { return domain.MapValue(fields) }

// PlainValue wraps an opaque payload.
func PlainValue(data []byte) Value { return domain.PlainValue(data) }

// ParseValue turns a JSON object into a field map and anything else into a plain payload.
func ParseValue(data []byte) Value { return domain.ParseValue(data) }
