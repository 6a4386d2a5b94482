package record

import (
	"context"
	"iter"
	"testing"

	"github.com/kailas-cloud/searchkv/internal/db"
	"github.com/kailas-cloud/searchkv/internal/domain"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	hsetFn         func(ctx context.Context, key string, fields map[string]string) error
	hgetAllFn      func(ctx context.Context, key string) (map[string]string, error)
	hgetAllMultiFn func(ctx context.Context, keys []string) ([]map[string]string, error)
	jsonSetFn      func(ctx context.Context, key, path string, data []byte) error
	jsonGetFn      func(ctx context.Context, key string, paths ...string) ([]byte, error)
	jsonMGetFn     func(ctx context.Context, keys []string, path string) ([][]byte, error)
	delFn          func(ctx context.Context, key string) error
	scanBatches    [][]string
	scanErr        error
	storageTypeFn  func(ctx context.Context, name string) (db.StorageType, error)

	calls []string
}

func (m *mockStore) HSet(ctx context.Context, key string, fields map[string]string) error {
	m.calls = append(m.calls, "HSET")
	if m.hsetFn != nil {
		return m.hsetFn(ctx, key, fields)
	}
	return nil
}

func (m *mockStore) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	m.calls = append(m.calls, "HGETALL")
	if m.hgetAllFn != nil {
		return m.hgetAllFn(ctx, key)
	}
	return nil, db.ErrKeyNotFound
}

func (m *mockStore) HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error) {
	m.calls = append(m.calls, "HGETALL*")
	if m.hgetAllMultiFn != nil {
		return m.hgetAllMultiFn(ctx, keys)
	}
	return make([]map[string]string, len(keys)), nil
}

func (m *mockStore) JSONSet(ctx context.Context, key, path string, data []byte) error {
	m.calls = append(m.calls, "JSON.SET")
	if m.jsonSetFn != nil {
		return m.jsonSetFn(ctx, key, path, data)
	}
	return nil
}

func (m *mockStore) JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error) {
	m.calls = append(m.calls, "JSON.GET")
	if m.jsonGetFn != nil {
		return m.jsonGetFn(ctx, key, paths...)
	}
	return nil, db.ErrKeyNotFound
}

func (m *mockStore) JSONMGet(ctx context.Context, keys []string, path string) ([][]byte, error) {
	m.calls = append(m.calls, "JSON.MGET")
	if m.jsonMGetFn != nil {
		return m.jsonMGetFn(ctx, keys, path)
	}
	return make([][]byte, len(keys)), nil
}

func (m *mockStore) Del(ctx context.Context, key string) error {
	m.calls = append(m.calls, "DEL")
	if m.delFn != nil {
		return m.delFn(ctx, key)
	}
	return nil
}

func (m *mockStore) ScanKeys(_ context.Context, _ string, _ int) iter.Seq2[[]string, error] {
	m.calls = append(m.calls, "SCAN")
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

func (m *mockStore) IndexStorageType(ctx context.Context, name string) (db.StorageType, error) {
	if m.storageTypeFn != nil {
		return m.storageTypeFn(ctx, name)
	}
	return db.StorageJSON, nil
}

var testCollection = domain.NewCollection("default", "users", "")

func newTestRepo(t *testing.T, dt domain.Datatype) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return New(ms, testCollection, dt), ms
}
