package record

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"

	"github.com/kailas-cloud/searchkv/internal/db"
	"github.com/kailas-cloud/searchkv/internal/domain"
)

// rootPath addresses the whole JSON document.
const rootPath = "$"

// store is the consumer interface for records (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	JSONSet(ctx context.Context, key, path string, data []byte) error
	JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error)
	JSONMGet(ctx context.Context, keys []string, path string) ([][]byte, error)
	Del(ctx context.Context, key string) error
	ScanKeys(ctx context.Context, pattern string, count int) iter.Seq2[[]string, error]
	IndexStorageType(ctx context.Context, name string) (db.StorageType, error)
}

// saveFunc is a write strategy bound to the collection datatype.
type saveFunc func(ctx context.Context, key string, v domain.Value) error

// Repo implements usecase/query.RecordStore for one collection.
type Repo struct {
	store    store
	coll     domain.Collection
	datatype domain.Datatype
	save     saveFunc
}

// New creates a record repository with a known datatype.
func New(s store, coll domain.Collection, dt domain.Datatype) *Repo {
	r := &Repo{store: s, coll: coll, datatype: dt}
	if dt == domain.DatatypeMap {
		r.save = r.mergeFields
	} else {
		r.save = r.overwrite
	}
	return r
}

// Bind resolves the collection datatype from its index definition and
// returns a repository with the matching write strategy.
// A missing index binds as DatatypeOther.
func Bind(ctx context.Context, s store, coll domain.Collection) (*Repo, error) {
	st, err := s.IndexStorageType(ctx, coll.Index)
	if err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			return New(s, coll, domain.DatatypeOther), nil
		}
		return nil, fmt.Errorf("resolve datatype %s: %w: %w", coll.Index, domain.ErrBackendUnavailable, err)
	}
	return New(s, coll, domain.ParseDatatype(string(st))), nil
}

// Collection returns the bound collection.
func (r *Repo) Collection() domain.Collection { return r.coll }

// Datatype returns the datatype resolved at bind time.
func (r *Repo) Datatype() domain.Datatype { return r.datatype }

// Get returns one record by id.
func (r *Repo) Get(ctx context.Context, id string) (domain.Record, error) {
	key := r.coll.Key(id)

	if r.datatype == domain.DatatypeMap {
		fields, err := r.store.HGetAll(ctx, key)
		if err != nil {
			return domain.Record{}, lookupErr(key, err)
		}
		return domain.Record{Key: id, Value: domain.MapValue(fields), Found: true}, nil
	}

	raw, err := r.store.JSONGet(ctx, key, rootPath)
	if err != nil {
		return domain.Record{}, lookupErr(key, err)
	}
	payload, ok := unwrapRoot(raw)
	if !ok {
		return domain.Record{}, domain.ErrNotFound
	}
	return domain.Record{Key: id, Value: domain.PlainValue(payload), Found: true}, nil
}

// MultiGet fetches many records in one round-trip. The result has one entry per
// id in the same order; ids the store does not hold come back with Found=false.
func (r *Repo) MultiGet(ctx context.Context, ids []string) ([]domain.Record, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.coll.Key(id)
	}
	out := make([]domain.Record, len(ids))

	if r.datatype == domain.DatatypeMap {
		maps, err := r.store.HGetAllMulti(ctx, keys)
		if err != nil {
			return nil, fmt.Errorf("multiget %s: %w: %w", r.coll.Index, domain.ErrBackendUnavailable, err)
		}
		for i, id := range ids {
			if i >= len(maps) || maps[i] == nil {
				out[i] = domain.Missing(id)
				continue
			}
			out[i] = domain.Record{Key: id, Value: domain.MapValue(maps[i]), Found: true}
		}
		return out, nil
	}

	docs, err := r.store.JSONMGet(ctx, keys, rootPath)
	if err != nil {
		return nil, fmt.Errorf("multiget %s: %w: %w", r.coll.Index, domain.ErrBackendUnavailable, err)
	}
	for i, id := range ids {
		var payload []byte
		ok := false
		if i < len(docs) && docs[i] != nil {
			payload, ok = unwrapRoot(docs[i])
		}
		if !ok {
			out[i] = domain.Missing(id)
			continue
		}
		out[i] = domain.Record{Key: id, Value: domain.PlainValue(payload), Found: true}
	}
	return out, nil
}

// Put overwrites the record at id with v.
func (r *Repo) Put(ctx context.Context, id string, v domain.Value) error {
	return r.overwrite(ctx, r.coll.Key(id), v)
}

// Save writes v with the strategy bound to the collection datatype:
// map collections merge map values field by field, everything else is overwritten.
func (r *Repo) Save(ctx context.Context, id string, v domain.Value) error {
	return r.save(ctx, r.coll.Key(id), v)
}

// Delete removes the record at id.
func (r *Repo) Delete(ctx context.Context, id string) error {
	key := r.coll.Key(id)
	if err := r.store.Del(ctx, key); err != nil {
		return fmt.Errorf("del %s: %w: %w", key, domain.ErrBackendUnavailable, err)
	}
	return nil
}

// StreamKeys yields the record ids of the collection in SCAN-sized batches.
func (r *Repo) StreamKeys(ctx context.Context) iter.Seq2[[]string, error] {
	return func(yield func([]string, error) bool) {
		for keys, err := range r.store.ScanKeys(ctx, r.coll.KeyPrefix()+"*", 0) {
			if err != nil {
				yield(nil, fmt.Errorf("stream keys %s: %w: %w", r.coll.KeyPrefix(), domain.ErrBackendUnavailable, err))
				return
			}
			ids := make([]string, len(keys))
			for i, k := range keys {
				ids[i] = r.coll.ID(k)
			}
			if !yield(ids, nil) {
				return
			}
		}
	}
}

// CountKeys counts the records of the collection by walking the keyspace.
func (r *Repo) CountKeys(ctx context.Context) (int, error) {
	total := 0
	for ids, err := range r.StreamKeys(ctx) {
		if err != nil {
			return 0, err
		}
		total += len(ids)
	}
	return total, nil
}

func (r *Repo) mergeFields(ctx context.Context, key string, v domain.Value) error {
	if !v.IsMap() {
		return r.overwrite(ctx, key, v)
	}
	if err := r.store.HSet(ctx, key, v.Fields()); err != nil {
		return fmt.Errorf("hset %s: %w: %w", key, domain.ErrBackendUnavailable, err)
	}
	return nil
}

func (r *Repo) overwrite(ctx context.Context, key string, v domain.Value) error {
	data, err := v.Bytes()
	if err != nil {
		return err
	}
	if !json.Valid(data) {
		if data, err = json.Marshal(string(data)); err != nil {
			return fmt.Errorf("marshal plain value: %w", err)
		}
	}
	if err := r.store.JSONSet(ctx, key, rootPath, data); err != nil {
		return fmt.Errorf("json.set %s: %w: %w", key, domain.ErrBackendUnavailable, err)
	}
	return nil
}

func lookupErr(key string, err error) error {
	if errors.Is(err, db.ErrKeyNotFound) {
		return domain.ErrNotFound
	}
	return fmt.Errorf("get %s: %w: %w", key, domain.ErrBackendUnavailable, err)
}

// unwrapRoot extracts the document from a JSONPath "$" reply, which wraps it in an array.
func unwrapRoot(raw []byte) ([]byte, bool) {
	var docs []json.RawMessage
	if err := json.Unmarshal(raw, &docs); err != nil {
		return raw, len(raw) > 0
	}
	if len(docs) == 0 {
		return nil, false
	}
	return docs[0], true
}
