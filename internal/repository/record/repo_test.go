package record

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/kailas-cloud/searchkv/internal/db"
	"github.com/kailas-cloud/searchkv/internal/domain"
)

func TestBind_ResolvesDatatype(t *testing.T) {
	tests := []struct {
		name string
		st   db.StorageType
		err  error
		want domain.Datatype
	}{
		{"hash", db.StorageHash, nil, domain.DatatypeMap},
		{"json", db.StorageJSON, nil, domain.DatatypePlain},
		{"missing index", "", &db.Error{Op: db.OpIndexInfo, Err: db.ErrIndexNotFound}, domain.DatatypeOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var asked string
			ms := &mockStore{storageTypeFn: func(_ context.Context, name string) (db.StorageType, error) {
				asked = name
				return tt.st, tt.err
			}}
			repo, err := Bind(context.Background(), ms, testCollection)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if repo.Datatype() != tt.want {
				t.Errorf("datatype = %q, want %q", repo.Datatype(), tt.want)
			}
			if asked != "users" {
				t.Errorf("index = %q, want users", asked)
			}
		})
	}
}

func TestBind_BackendError(t *testing.T) {
	ms := &mockStore{storageTypeFn: func(_ context.Context, _ string) (db.StorageType, error) {
		return "", errors.New("connection refused")
	}}
	_, err := Bind(context.Background(), ms, testCollection)
	if !errors.Is(err, domain.ErrBackendUnavailable) {
		t.Fatalf("expected ErrBackendUnavailable, got %v", err)
	}
}

func TestGet_Map(t *testing.T) {
	repo, ms := newTestRepo(t, domain.DatatypeMap)
	ms.hgetAllFn = func(_ context.Context, key string) (map[string]string, error) {
		if key != "default:users:1" {
			t.Errorf("unexpected key %q", key)
		}
		return map[string]string{"name": "ann"}, nil
	}

	rec, err := repo.Get(context.Background(), "1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !rec.Found || rec.Key != "1" || !rec.Value.IsMap() || rec.Value.Fields()["name"] != "ann" {
		t.Errorf("unexpected record: %+v", rec)
	}
}

func TestGet_PlainUnwrapsRoot(t *testing.T) {
	repo, ms := newTestRepo(t, domain.DatatypePlain)
	ms.jsonGetFn = func(_ context.Context, _ string, paths ...string) ([]byte, error) {
		if !slices.Equal(paths, []string{"$"}) {
			t.Errorf("unexpected paths %v", paths)
		}
		return []byte(`[{"name":"ann"}]`), nil
	}

	rec, err := repo.Get(context.Background(), "1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(rec.Value.Plain()) != `{"name":"ann"}` {
		t.Errorf("payload = %s", rec.Value.Plain())
	}
}

func TestGet_NotFound(t *testing.T) {
	for _, dt := range []domain.Datatype{domain.DatatypeMap, domain.DatatypePlain, domain.DatatypeOther} {
		repo, _ := newTestRepo(t, dt)
		if _, err := repo.Get(context.Background(), "404"); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("%s: expected ErrNotFound, got %v", dt, err)
		}
	}
}

func TestGet_BackendError(t *testing.T) {
	repo, ms := newTestRepo(t, domain.DatatypePlain)
	ms.jsonGetFn = func(_ context.Context, _ string, _ ...string) ([]byte, error) {
		return nil, &db.Error{Op: db.OpJSONGet, Err: context.DeadlineExceeded}
	}

	_, err := repo.Get(context.Background(), "1")
	if !errors.Is(err, domain.ErrBackendUnavailable) || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("unexpected error chain: %v", err)
	}
}

func TestMultiGet_PlainOneCall(t *testing.T) {
	repo, ms := newTestRepo(t, domain.DatatypePlain)
	ms.jsonMGetFn = func(_ context.Context, keys []string, _ string) ([][]byte, error) {
		want := []string{"default:users:1", "default:users:2", "default:users:3"}
		if !slices.Equal(keys, want) {
			t.Errorf("keys = %v", keys)
		}
		return [][]byte{[]byte(`[{"n":1}]`), nil, []byte(`[{"n":3}]`)}, nil
	}

	recs, err := repo.MultiGet(context.Background(), []string{"1", "2", "3"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ms.calls) != 1 {
		t.Errorf("expected one store call, got %v", ms.calls)
	}
	if len(recs) != 3 || !recs[0].Found || recs[1].Found || recs[1].Key != "2" || !recs[2].Found {
		t.Errorf("unexpected records: %+v", recs)
	}
}

func TestMultiGet_MapOneCall(t *testing.T) {
	repo, ms := newTestRepo(t, domain.DatatypeMap)
	ms.hgetAllMultiFn = func(_ context.Context, _ []string) ([]map[string]string, error) {
		return []map[string]string{nil, {"n": "2"}}, nil
	}

	recs, err := repo.MultiGet(context.Background(), []string{"1", "2"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(ms.calls, []string{"HGETALL*"}) {
		t.Errorf("unexpected calls: %v", ms.calls)
	}
	if recs[0].Found || recs[1].Value.Fields()["n"] != "2" {
		t.Errorf("unexpected records: %+v", recs)
	}
}

func TestMultiGet_Empty(t *testing.T) {
	repo, ms := newTestRepo(t, domain.DatatypePlain)
	recs, err := repo.MultiGet(context.Background(), nil)
	if err != nil || recs != nil {
		t.Fatalf("expected nil, nil; got %v, %v", recs, err)
	}
	if len(ms.calls) != 0 {
		t.Errorf("expected no store calls, got %v", ms.calls)
	}
}

func TestMultiGet_BackendError(t *testing.T) {
	repo, ms := newTestRepo(t, domain.DatatypeMap)
	ms.hgetAllMultiFn = func(_ context.Context, _ []string) ([]map[string]string, error) {
		return nil, errors.New("boom")
	}
	if _, err := repo.MultiGet(context.Background(), []string{"1"}); !errors.Is(err, domain.ErrBackendUnavailable) {
		t.Fatalf("expected ErrBackendUnavailable, got %v", err)
	}
}

func TestSave_Strategies(t *testing.T) {
	mapVal := domain.MapValue(map[string]string{"status": "active"})
	plainVal := domain.PlainValue([]byte(`{"status":"active"}`))

	tests := []struct {
		name  string
		dt    domain.Datatype
		value domain.Value
		want  string
	}{
		{"map collection merges map value", domain.DatatypeMap, mapVal, "HSET"},
		{"map collection overwrites plain value", domain.DatatypeMap, plainVal, "JSON.SET"},
		{"plain collection overwrites map value", domain.DatatypePlain, mapVal, "JSON.SET"},
		{"plain collection overwrites plain value", domain.DatatypePlain, plainVal, "JSON.SET"},
		{"other collection overwrites", domain.DatatypeOther, mapVal, "JSON.SET"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, ms := newTestRepo(t, tt.dt)
			if err := repo.Save(context.Background(), "1", tt.value); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !slices.Equal(ms.calls, []string{tt.want}) {
				t.Errorf("calls = %v, want [%s]", ms.calls, tt.want)
			}
		})
	}
}

func TestSave_MergeWritesOnlyGivenFields(t *testing.T) {
	repo, ms := newTestRepo(t, domain.DatatypeMap)
	var got map[string]string
	ms.hsetFn = func(_ context.Context, key string, fields map[string]string) error {
		if key != "default:users:7" {
			t.Errorf("unexpected key %q", key)
		}
		got = fields
		return nil
	}

	if err := repo.Save(context.Background(), "7", domain.MapValue(map[string]string{"age": "42"})); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got["age"] != "42" {
		t.Errorf("unexpected fields: %v", got)
	}
}

func TestPut_NonJSONPayloadIsQuoted(t *testing.T) {
	repo, ms := newTestRepo(t, domain.DatatypePlain)
	var payload string
	ms.jsonSetFn = func(_ context.Context, _, path string, data []byte) error {
		if path != "$" {
			t.Errorf("unexpected path %q", path)
		}
		payload = string(data)
		return nil
	}

	if err := repo.Put(context.Background(), "1", domain.PlainValue([]byte("hello"))); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payload != `"hello"` {
		t.Errorf("payload = %s", payload)
	}
}

func TestPut_BackendError(t *testing.T) {
	repo, ms := newTestRepo(t, domain.DatatypePlain)
	ms.jsonSetFn = func(_ context.Context, _, _ string, _ []byte) error {
		return errors.New("boom")
	}
	if err := repo.Put(context.Background(), "1", domain.PlainValue([]byte(`1`))); !errors.Is(err, domain.ErrBackendUnavailable) {
		t.Fatalf("expected ErrBackendUnavailable, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	repo, ms := newTestRepo(t, domain.DatatypePlain)
	var deleted string
	ms.delFn = func(_ context.Context, key string) error {
		deleted = key
		return nil
	}
	if err := repo.Delete(context.Background(), "9"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deleted != "default:users:9" {
		t.Errorf("deleted %q", deleted)
	}
}

func TestStreamKeys_StripsPrefix(t *testing.T) {
	repo, ms := newTestRepo(t, domain.DatatypePlain)
	ms.scanBatches = [][]string{
		{"default:users:1", "default:users:2"},
		{"default:users:3"},
	}

	var batches [][]string
	for ids, err := range repo.StreamKeys(context.Background()) {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		batches = append(batches, ids)
	}
	if len(batches) != 2 || !slices.Equal(batches[0], []string{"1", "2"}) {
		t.Errorf("unexpected batches: %v", batches)
	}
}

func TestCountKeys(t *testing.T) {
	repo, ms := newTestRepo(t, domain.DatatypeMap)
	ms.scanBatches = [][]string{{"default:users:1", "default:users:2"}, {"default:users:3"}}

	n, err := repo.CountKeys(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 3 {
		t.Errorf("count = %d, want 3", n)
	}
}

func TestCountKeys_Error(t *testing.T) {
	repo, ms := newTestRepo(t, domain.DatatypeMap)
	ms.scanBatches = [][]string{{"default:users:1"}}
	ms.scanErr = &db.Error{Op: db.OpScan, Err: errors.New("boom")}

	if _, err := repo.CountKeys(context.Background()); !errors.Is(err, domain.ErrBackendUnavailable) {
		t.Fatalf("expected ErrBackendUnavailable, got %v", err)
	}
}
