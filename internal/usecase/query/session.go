// Package query implements the lazy query session: filters and parameters are
// collected on a Session and only sent to the search backend when a terminal
// operation needs results. Repeating the last executed query is served from
// the previous result set, and hits are resolved to records with one batched
// store read.
package query

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/kailas-cloud/searchkv/internal/domain"
	domquery "github.com/kailas-cloud/searchkv/internal/domain/query"
)

// ToEnd as a Slice stop bound selects everything after start.
const ToEnd = math.MaxInt

// Session is a single-owner query builder and result accessor.
// It is not safe for concurrent use; create one per request.
type Session struct {
	filters domquery.FilterSet
	params  domquery.Params
	raw     bool
	// err holds the first builder error until the next terminal operation.
	err error

	records RecordStore
	exec    *searchExecutor
	fetch   *storeFetcher
	logger  *zap.Logger
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewSession binds a session to one search index and its record store.
func NewSession(searcher Searcher, records RecordStore, index string, opts ...Option) *Session {
	s := &Session{records: records, logger: zap.NewNop()}
	for _, o := range opts {
		o(s)
	}
	s.fetch = &storeFetcher{store: records, stale: true}
	s.exec = &searchExecutor{
		searcher: searcher,
		index:    index,
		fetcher:  s.fetch,
		logger:   s.logger,
	}
	return s
}

// Where requires field to equal value.
func (s *Session) Where(field, value string) *Session {
	return s.addFilter(s.filters.Where(field, value))
}

// WhereNot requires field to differ from value.
func (s *Session) WhereNot(field, value string) *Session {
	return s.addFilter(s.filters.WhereNot(field, value))
}

// WhereMissing requires field to be unset.
func (s *Session) WhereMissing(field string) *Session {
	return s.addFilter(s.filters.WhereMissing(field))
}

// Query adds a literal search term.
func (s *Session) Query(term string) *Session {
	return s.addFilter(s.filters.Raw(term))
}

// Rows limits the number of hits in the window.
func (s *Session) Rows(n int) *Session {
	s.params.SetRows(n)
	return s
}

// Start sets the offset of the window.
func (s *Session) Start(n int) *Session {
	s.params.SetStart(n)
	return s
}

// SortBy orders hits by field.
func (s *Session) SortBy(field string, desc bool) *Session {
	s.params.SetSort(field, desc)
	return s
}

// Fields restricts the fields carried by each hit.
func (s *Session) Fields(fields ...string) *Session {
	s.params.SetFields(fields...)
	return s
}

// KeysOnly asks the search backend for record keys without content.
func (s *Session) KeysOnly() *Session {
	s.params.SetKeysOnly(true)
	return s
}

// Raw makes the next Iterate return search hits without reading the store.
func (s *Session) Raw() *Session {
	s.raw = true
	return s
}

// Reset clears filters, parameters and raw mode. The last signature, result
// set and record cache are kept.
func (s *Session) Reset() {
	s.filters.Reset()
	s.params = domquery.Params{}
	s.raw = false
	s.err = nil
}

// Get returns the single record matching the query.
// More than one match fails with ErrMultipleResults; no match with ErrNotFound.
func (s *Session) Get(ctx context.Context) (domain.Record, error) {
	defer s.Reset()
	if s.err != nil {
		return domain.Record{}, s.err
	}

	rs, err := s.exec.execute(ctx, &s.filters, s.params)
	if err != nil {
		return domain.Record{}, err
	}
	if rs.Total > 1 {
		return domain.Record{}, domain.NewMultipleResults(rs.Total)
	}
	return s.fetch.fetchOne(ctx, rs)
}

// Count returns the number of matches without reading the store.
// It searches with rows=0, so a following Iterate on the same filters runs its own search.
func (s *Session) Count(ctx context.Context) (int, error) {
	defer s.Reset()
	if s.err != nil {
		return 0, s.err
	}
	return s.exec.count(ctx, &s.filters, s.params)
}

// Iterate runs the query and returns its window, resolved to records unless
// Raw was requested.
func (s *Session) Iterate(ctx context.Context) (*Results, error) {
	defer s.Reset()
	if s.err != nil {
		return nil, s.err
	}

	rs, err := s.exec.execute(ctx, &s.filters, s.params)
	if err != nil {
		return nil, err
	}

	res := &Results{total: rs.Total, raw: s.raw, hits: rs.Hits}
	if s.raw {
		return res, nil
	}
	if res.records, err = s.fetch.fetchAll(ctx, rs); err != nil {
		return nil, err
	}
	return res, nil
}

// GetAt returns the record at position pos of the ordered matches.
func (s *Session) GetAt(ctx context.Context, pos int) (domain.Record, error) {
	defer s.Reset()
	if s.err != nil {
		return domain.Record{}, s.err
	}
	if pos < 0 {
		return domain.Record{}, fmt.Errorf("position %d: %w", pos, domain.ErrInvalidIndex)
	}

	p := s.params.Clone()
	p.SetRows(1)
	p.SetStart(pos)

	rs, err := s.exec.execute(ctx, &s.filters, p)
	if err != nil {
		return domain.Record{}, err
	}
	return s.fetch.fetchOne(ctx, rs)
}

// Slice narrows the window to matches [start, stop). Negative bounds count
// from the end and out-of-range bounds are clamped to the match count, which
// is resolved with a count-only search. The window is applied lazily by the
// next terminal operation. step must be non-zero; other values than 1 are
// accepted but do not skip matches.
func (s *Session) Slice(ctx context.Context, start, stop, step int) (*Session, error) {
	if s.err != nil {
		return s, s.err
	}
	if step == 0 {
		return s, fmt.Errorf("slice step 0: %w", domain.ErrInvalidIndex)
	}

	total, err := s.exec.count(ctx, &s.filters, s.params)
	if err != nil {
		return s, err
	}

	lo, hi := sliceBounds(start, stop, total)
	s.params.SetStart(lo)
	s.params.SetRows(hi - lo)
	return s, nil
}

// Save writes a record with the strategy bound to the collection datatype.
func (s *Session) Save(ctx context.Context, id string, v domain.Value) error {
	if err := s.records.Save(ctx, id, v); err != nil {
		return fmt.Errorf("save %s: %w", id, wrapBackend(err))
	}
	return nil
}

// State is a point-in-time snapshot of a session for debugging.
type State struct {
	Query      string `json:"query"`
	Params     string `json:"params"`
	Raw        bool   `json:"raw"`
	LastQuery  string `json:"last_query,omitempty"`
	LastParams string `json:"last_params,omitempty"`
	Total      int    `json:"total"`
	Hits       int    `json:"hits"`
	Cached     int    `json:"cached_records"`
	Stale      bool   `json:"stale"`
	Datatype   string `json:"datatype"`
	PendingErr string `json:"pending_error,omitempty"`
}

// State reports the pending query and the cached state, and logs it at debug level.
func (s *Session) State() State {
	st := State{
		Query:    s.filters.Compile(),
		Params:   s.params.String(),
		Raw:      s.raw,
		Total:    s.exec.results.Total,
		Hits:     len(s.exec.results.Hits),
		Cached:   len(s.fetch.records),
		Stale:    s.fetch.stale,
		Datatype: string(s.records.Datatype()),
	}
	if last, ok := s.exec.cache.Last(); ok {
		st.LastQuery, st.LastParams = last.Query, last.Params.String()
	}
	if s.err != nil {
		st.PendingErr = s.err.Error()
	}

	s.logger.Debug("Session state",
		zap.String("query", st.Query),
		zap.String("params", st.Params),
		zap.Bool("raw", st.Raw),
		zap.String("last_query", st.LastQuery),
		zap.Int("total", st.Total),
		zap.Int("cached_records", st.Cached),
		zap.Bool("stale", st.Stale),
	)
	return st
}

func (s *Session) addFilter(err error) *Session {
	if err != nil && s.err == nil {
		s.err = fmt.Errorf("%w: %w", domain.ErrInvalidFilter, err)
	}
	return s
}

// sliceBounds resolves [start, stop) against total like sequence slicing.
func sliceBounds(start, stop, total int) (int, int) {
	norm := func(i int) int {
		if i < 0 {
			i += total
		}
		return min(max(i, 0), total)
	}
	lo, hi := norm(start), norm(stop)
	if hi < lo {
		hi = lo
	}
	return lo, hi
}
