package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMiddleware_LabelsByRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Get("/v1/records/at/{position}", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	for _, pos := range []string{"0", "1", "2"} {
		req := httptest.NewRequest(http.MethodGet, "/v1/records/at/"+pos, http.NoBody)
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	got := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/v1/records/at/{position}", "200"))
	if got < 3 {
		t.Errorf("expected >= 3 requests under the route pattern, got %f", got)
	}
	if testutil.CollectAndCount(httpRequestDuration) == 0 {
		t.Error("expected http_request_duration_seconds to have observations")
	}
}

func TestMiddleware_StatusCodes(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Get("/v1/records/one", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusConflict)
	})
	r.Get("/v1/records/count", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.WriteHeader(http.StatusOK) // ignored
	})

	tests := []struct {
		path   string
		status string
	}{
		{"/v1/records/one", "409"},
		{"/v1/records/count", "503"},
	}

	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, tc.path, http.NoBody))

			val := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", tc.path, tc.status))
			if val < 1 {
				t.Errorf("expected requests_total for %s with status %s >= 1, got %f", tc.path, tc.status, val)
			}
		})
	}
}

func TestRoutePath_Unmatched(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/nowhere", http.NoBody)
	if got := routePath(req); got != "unmatched" {
		t.Errorf("routePath = %q, want unmatched", got)
	}
}

func TestStatusLabel(t *testing.T) {
	if StatusLabel(nil) != "ok" || StatusLabel(errors.New("x")) != "error" {
		t.Error("unexpected status labels")
	}
}

func TestRegisterBackendMetrics_Idempotent(t *testing.T) {
	RegisterBackendMetrics()
	RegisterBackendMetrics()

	QueryCacheTotal.WithLabelValues("reuse").Inc()
	if testutil.ToFloat64(QueryCacheTotal.WithLabelValues("reuse")) < 1 {
		t.Error("expected query_cache_total{result=reuse} to be counted")
	}
}
