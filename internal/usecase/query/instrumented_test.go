package query

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kailas-cloud/searchkv/internal/domain"
	domquery "github.com/kailas-cloud/searchkv/internal/domain/query"
	"github.com/kailas-cloud/searchkv/internal/metrics"
)

func TestInstrumentedSearcher_CountsCalls(t *testing.T) {
	fs := &fakeSearcher{matches: map[string][]string{"*": {"1"}}}
	is := NewInstrumentedSearcher(fs, zap.NewNop())

	okBefore := testutil.ToFloat64(metrics.BackendRequestsTotal.WithLabelValues("search", "search", "ok"))
	rs, err := is.Search(context.Background(), "*", "users", domquery.Params{})
	require.NoError(t, err)
	assert.Equal(t, 1, rs.Total)
	assert.InDelta(t, okBefore+1,
		testutil.ToFloat64(metrics.BackendRequestsTotal.WithLabelValues("search", "search", "ok")), 0.001)

	fs.err = errors.New("down")
	errBefore := testutil.ToFloat64(metrics.BackendRequestsTotal.WithLabelValues("search", "search", "error"))
	_, err = is.Search(context.Background(), "*", "users", domquery.Params{})
	require.Error(t, err)
	assert.InDelta(t, errBefore+1,
		testutil.ToFloat64(metrics.BackendRequestsTotal.WithLabelValues("search", "search", "error")), 0.001)
}

func TestInstrumentedRecords_NotFoundIsNotAnError(t *testing.T) {
	st := &fakeStore{datatype: domain.DatatypePlain}
	ir := NewInstrumentedRecords(st, zap.NewNop())

	errBefore := testutil.ToFloat64(metrics.BackendRequestsTotal.WithLabelValues("store", "get", "error"))
	_, err := ir.Get(context.Background(), "missing")
	require.ErrorIs(t, err, domain.ErrNotFound)
	assert.InDelta(t, errBefore,
		testutil.ToFloat64(metrics.BackendRequestsTotal.WithLabelValues("store", "get", "error")), 0.001)
	assert.Equal(t, domain.DatatypePlain, ir.Datatype())
}

func TestInstrumentedRecords_Delegates(t *testing.T) {
	st := &fakeStore{records: map[string]domain.Value{"1": domain.PlainValue([]byte(`{}`))}}
	ir := NewInstrumentedRecords(st, zap.NewNop())
	ctx := context.Background()

	recs, err := ir.MultiGet(ctx, []string{"1", "2"})
	require.NoError(t, err)
	assert.True(t, recs[0].Found)
	assert.False(t, recs[1].Found)

	require.NoError(t, ir.Save(ctx, "3", domain.PlainValue([]byte(`1`))))
	assert.Equal(t, []string{"3"}, st.saves)
}

func TestSession_CountsCacheOutcomes(t *testing.T) {
	s, _, _ := newTestSession(t, map[string][]string{activeQuery: {"1"}})
	ctx := context.Background()

	reuse := testutil.ToFloat64(metrics.QueryCacheTotal.WithLabelValues("reuse"))
	execute := testutil.ToFloat64(metrics.QueryCacheTotal.WithLabelValues("execute"))

	for range 3 {
		_, err := s.Where("status", "active").Count(ctx)
		require.NoError(t, err)
	}

	assert.InDelta(t, execute+1, testutil.ToFloat64(metrics.QueryCacheTotal.WithLabelValues("execute")), 0.001)
	assert.InDelta(t, reuse+2, testutil.ToFloat64(metrics.QueryCacheTotal.WithLabelValues("reuse")), 0.001)
}
