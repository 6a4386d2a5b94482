package db

import (
	"context"
	"iter"
	"time"
)

// Store is the main database facade combining all sub-interfaces.
//
//nolint:interfacebloat // facade by design -- consumers use narrow sub-interfaces (ISP)
type Store interface {
	Pinger
	HashStore
	JSONStore
	KeyStore
	IndexInspector
	Searcher
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HashStore provides hash-based key-value operations.
type HashStore interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
}

// JSONStore provides JSON document operations.
type JSONStore interface {
	JSONSet(ctx context.Context, key, path string, data []byte) error
	JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error)
	// JSONMGet returns one entry per key; nil marks a missing key.
	JSONMGet(ctx context.Context, keys []string, path string) ([][]byte, error)
}

// KeyStore provides keyspace operations shared by every storage type.
type KeyStore interface {
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	// ScanKeys yields one batch of keys per SCAN round-trip.
	ScanKeys(ctx context.Context, pattern string, count int) iter.Seq2[[]string, error]
}

// IndexInspector reads FT index metadata.
type IndexInspector interface {
	IndexExists(ctx context.Context, name string) (bool, error)
	IndexStorageType(ctx context.Context, name string) (StorageType, error)
}

// Searcher runs FT.SEARCH queries.
type Searcher interface {
	Search(ctx context.Context, req *SearchRequest) (*SearchResult, error)
}
