package metrics

import "github.com/prometheus/client_golang/prometheus"

// Clinical trials API Prometheus metrics.
var (
	TrialsAPIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "trials_api_requests_total",
			Help:      "Total number of clinical trials API requests",
		},
		[]string{"status"},
	)

	TrialsAPIRequestDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "trials_api_request_duration_seconds",
			Help:      "Clinical trials API request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)

	TrialsAPITrialsReturned = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "trials_api_trials_returned",
			Help:      "Number of trial records returned per request",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100},
		},
	)
)

var trialsAPIMetricsRegistered bool

// RegisterTrialsAPIMetrics registers clinical trials API metrics. Must be called once from main.
func RegisterTrialsAPIMetrics() {
	if trialsAPIMetricsRegistered {
		return
	}
	prometheus.MustRegister(TrialsAPIRequestsTotal)
	prometheus.MustRegister(TrialsAPIRequestDuration)
	prometheus.MustRegister(TrialsAPITrialsReturned)
	trialsAPIMetricsRegistered = true
}
