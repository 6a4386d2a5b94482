package db

import "errors"

// Sentinel errors for database operations.
var (
	ErrKeyNotFound   = errors.New("db: key not found")
	ErrIndexNotFound = errors.New("db: index not found")

	// ErrSearchUnavailable means the server does not expose FT.* commands.
	ErrSearchUnavailable = errors.New("db: search module not loaded")
)

// Op constants map to Redis command names for error context.
const (
	OpIndexInfo = "FT.INFO"
	OpIndexList = "FT._LIST"
	OpSearch    = "FT.SEARCH"
	OpDel       = "DEL"
	OpHGetAll   = "HGETALL"
	OpHSet      = "HSET"
	OpExists    = "EXISTS"
	OpScan      = "SCAN"
	OpJSONSet   = "JSON.SET"
	OpJSONGet   = "JSON.GET"
	OpJSONMGet  = "JSON.MGET"
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }
