package redis

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/searchkv/internal/db"
)

// Search runs a paged FT.SEARCH built from req.
func (s *Store) Search(ctx context.Context, req *db.SearchRequest) (*db.SearchResult, error) {
	args, err := buildSearchArgs(req)
	if err != nil {
		return nil, err
	}

	cmd := s.b().Arbitrary("FT.SEARCH").Args(args...).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		if isRedisErr(err, "no such index") || isRedisErr(err, "unknown index name") {
			return nil, &db.Error{Op: db.OpSearch, Err: db.ErrIndexNotFound}
		}
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}

	if req.NoContent {
		return parseKeysResult(raw)
	}
	return parseListResult(raw)
}

func buildSearchArgs(req *db.SearchRequest) ([]string, error) {
	if req.Index == "" {
		return nil, fmt.Errorf("index name is required")
	}
	query := req.Query
	if query == "" {
		query = "*"
	}

	args := []string{req.Index, query}

	if req.NoContent {
		args = append(args, "NOCONTENT")
	} else if len(req.ReturnFields) > 0 {
		args = append(args, "RETURN", strconv.Itoa(len(req.ReturnFields)))
		args = append(args, req.ReturnFields...)
	}

	if req.SortBy != "" {
		dir := "ASC"
		if req.SortDesc {
			dir = "DESC"
		}
		args = append(args, "SORTBY", req.SortBy, dir)
	}

	if req.HasLimit {
		args = append(args, "LIMIT", strconv.Itoa(req.Offset), strconv.Itoa(req.Limit))
	}

	args = append(args, "DIALECT", "2")
	return args, nil
}

// --- Result parsing ---

func parseTotal(raw []rueidis.RedisMessage) (int, error) {
	if len(raw) == 0 {
		return 0, nil
	}
	total, err := raw[0].AsInt64()
	if err != nil {
		return 0, fmt.Errorf("parse total: %w", err)
	}
	return int(total), nil
}

func parseListResult(raw []rueidis.RedisMessage) (*db.SearchResult, error) {
	total, err := parseTotal(raw)
	if err != nil {
		return nil, err
	}

	entries := make([]db.SearchEntry, 0, len(raw)/2)
	// 2-stride: [total, key1, fields1, key2, fields2, ...]
	for i := 1; i+1 < len(raw); i += 2 {
		key, err := raw[i].ToString()
		if err != nil {
			continue
		}

		fields, err := raw[i+1].ToArray()
		if err != nil {
			continue
		}

		entries = append(entries, db.SearchEntry{
			Key:    key,
			Fields: parseFieldPairs(fields),
		})
	}

	return &db.SearchResult{Total: total, Entries: entries}, nil
}

func parseKeysResult(raw []rueidis.RedisMessage) (*db.SearchResult, error) {
	total, err := parseTotal(raw)
	if err != nil {
		return nil, err
	}

	entries := make([]db.SearchEntry, 0, max(len(raw)-1, 0))
	// 1-stride: [total, key1, key2, ...]
	for i := 1; i < len(raw); i++ {
		key, err := raw[i].ToString()
		if err != nil {
			continue
		}
		entries = append(entries, db.SearchEntry{Key: key})
	}

	return &db.SearchResult{Total: total, Entries: entries}, nil
}

func parseFieldPairs(fields []rueidis.RedisMessage) map[string]string {
	m := make(map[string]string, len(fields)/2)
	for j := 0; j+1 < len(fields); j += 2 {
		name, err := fields[j].ToString()
		if err != nil {
			continue
		}
		value, err := fields[j+1].ToString()
		if err != nil {
			continue
		}
		m[name] = value
	}
	return m
}
