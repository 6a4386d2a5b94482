package query

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/kailas-cloud/searchkv/internal/domain"
	domquery "github.com/kailas-cloud/searchkv/internal/domain/query"
	"github.com/kailas-cloud/searchkv/internal/metrics"
)

// searchExecutor owns the current result set and decides whether a search
// call is needed for the next execution.
type searchExecutor struct {
	searcher Searcher
	index    string
	cache    CacheController
	results  domquery.ResultSet
	fetcher  *storeFetcher
	logger   *zap.Logger
}

// execute runs the compiled filters with params unless the signature matches
// the previous execution. A new result set marks the record cache stale.
func (e *searchExecutor) execute(
	ctx context.Context, filters *domquery.FilterSet, params domquery.Params,
) (domquery.ResultSet, error) {
	sig := domquery.NewSignature(filters.Compile(), params)

	if e.cache.IsReuseValid(sig) {
		metrics.QueryCacheTotal.WithLabelValues("reuse").Inc()
		e.logExecution(sig, true)
		return e.results, nil
	}

	metrics.QueryCacheTotal.WithLabelValues("execute").Inc()
	rs, err := e.searcher.Search(ctx, sig.Query, e.index, sig.Params)
	if err != nil {
		return domquery.ResultSet{}, fmt.Errorf("execute %q: %w", sig.Query, wrapBackend(err))
	}

	e.results = rs
	e.fetcher.invalidate()
	e.cache.RecordExecution(sig)
	e.logExecution(sig, false)
	return rs, nil
}

// count executes with rows forced to zero and returns the total.
func (e *searchExecutor) count(ctx context.Context, filters *domquery.FilterSet, params domquery.Params) (int, error) {
	p := params.Clone()
	p.SetRows(0)
	rs, err := e.execute(ctx, filters, p)
	if err != nil {
		return 0, err
	}
	return rs.Total, nil
}

func (e *searchExecutor) logExecution(sig domquery.Signature, reused bool) {
	e.logger.Debug("Query executed",
		zap.String("index", e.index),
		zap.String("query", sig.Query),
		zap.String("params", sig.Params.String()),
		zap.String("digest", strconv.FormatUint(sig.Digest(), 16)),
		zap.Int("total", e.results.Total),
		zap.Bool("reused", reused),
	)
}

// wrapBackend tags adapter errors that are not already classified.
func wrapBackend(err error) error {
	if isDomainErr(err) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrBackendUnavailable, err)
}
