package redis

import (
	"context"
	"iter"

	"github.com/kailas-cloud/searchkv/internal/db"
)

const defaultScanCount = 100

// Del deletes a key.
func (s *Store) Del(ctx context.Context, key string) error {
	cmd := s.b().Del().Key(key).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpDel, Err: err}
	}
	return nil
}

// Exists checks if a key exists.
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	cmd := s.b().Exists().Key(key).Build()
	count, err := s.do(ctx, cmd).AsInt64()
	if err != nil {
		return false, &db.Error{Op: db.OpExists, Err: err}
	}
	return count > 0, nil
}

// ScanKeys walks the keyspace lazily, yielding each non-empty SCAN batch.
func (s *Store) ScanKeys(ctx context.Context, pattern string, count int) iter.Seq2[[]string, error] {
	if count <= 0 {
		count = defaultScanCount
	}

	return func(yield func([]string, error) bool) {
		var cursor uint64
		for {
			cmd := s.b().Scan().Cursor(cursor).Match(pattern).Count(int64(count)).Build()
			res, err := s.do(ctx, cmd).AsScanEntry()
			if err != nil {
				yield(nil, &db.Error{Op: db.OpScan, Err: err})
				return
			}
			if len(res.Elements) > 0 && !yield(res.Elements, nil) {
				return
			}
			cursor = res.Cursor
			if cursor == 0 {
				return
			}
		}
	}
}
