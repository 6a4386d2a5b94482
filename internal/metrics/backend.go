package metrics

import "github.com/prometheus/client_golang/prometheus"

// Namespace prefixes every searchkv metric.
const Namespace = "searchkv"

// Backend and query cache Prometheus metrics.
var (
	BackendRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "backend_requests_total",
			Help:      "Total number of calls to the search and store backends",
		},
		[]string{"backend", "op", "status"},
	)

	BackendRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "backend_request_duration_seconds",
			Help:      "Backend call duration in seconds",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"backend", "op"},
	)

	QueryCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "query_cache_total",
			Help:      "Query executions served from the previous result set or sent to the search backend",
		},
		[]string{"result"}, // "reuse" / "execute"
	)
)

var backendMetricsRegistered bool

// RegisterBackendMetrics registers backend and cache metrics. Must be called once from main.
func RegisterBackendMetrics() {
	if backendMetricsRegistered {
		return
	}
	prometheus.MustRegister(BackendRequestsTotal)
	prometheus.MustRegister(BackendRequestDuration)
	prometheus.MustRegister(QueryCacheTotal)
	backendMetricsRegistered = true
}

// StatusLabel maps a call outcome onto the status label value.
func StatusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
