package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "ctsprint"

// Page cache Prometheus metrics.
var (
	CacheOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_operations_total",
			Help:      "Total page cache operations",
		},
		[]string{"driver", "op", "result"}, // op: save/get; result: ok/miss/error
	)

	CacheOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cache_operation_duration_seconds",
			Help:      "Page cache operation duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"driver", "op"},
	)
)

var cacheMetricsRegistered bool

// RegisterCacheMetrics registers page cache metrics. Must be called once from main.
func RegisterCacheMetrics() {
	if cacheMetricsRegistered {
		return
	}
	prometheus.MustRegister(CacheOperationsTotal)
	prometheus.MustRegister(CacheOperationDuration)
	cacheMetricsRegistered = true
}
