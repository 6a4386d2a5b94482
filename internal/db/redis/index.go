package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/searchkv/internal/db"
)

// IndexExists probes index existence via FT.INFO; "unknown index name" means absent.
func (s *Store) IndexExists(ctx context.Context, name string) (bool, error) {
	_, err := s.indexInfo(ctx, name)
	if err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// IndexStorageType reports whether the index covers HASH or JSON keys.
func (s *Store) IndexStorageType(ctx context.Context, name string) (db.StorageType, error) {
	info, err := s.indexInfo(ctx, name)
	if err != nil {
		return "", err
	}
	return parseKeyType(info)
}

func (s *Store) indexInfo(ctx context.Context, name string) (map[string]rueidis.RedisMessage, error) {
	cmd := s.b().Arbitrary("FT.INFO").Args(name).Build()
	info, err := s.do(ctx, cmd).AsMap()
	if err != nil {
		if isRedisErr(err, "unknown index name") || isRedisErr(err, "not found") {
			return nil, db.ErrIndexNotFound
		}
		return nil, &db.Error{Op: db.OpIndexInfo, Err: err}
	}
	return info, nil
}

// parseKeyType finds key_type either inside index_definition (Redis) or at the top level.
func parseKeyType(info map[string]rueidis.RedisMessage) (db.StorageType, error) {
	if def, ok := info["index_definition"]; ok {
		if m, err := def.AsMap(); err == nil {
			if kt, ok := m["key_type"]; ok {
				return toStorageType(kt)
			}
		}
	}
	if kt, ok := info["key_type"]; ok {
		return toStorageType(kt)
	}
	return "", fmt.Errorf("ft.info: key_type not reported")
}

func toStorageType(msg rueidis.RedisMessage) (db.StorageType, error) {
	s, err := msg.ToString()
	if err != nil {
		return "", fmt.Errorf("parse key_type: %w", err)
	}
	return db.StorageType(strings.ToUpper(s)), nil
}
