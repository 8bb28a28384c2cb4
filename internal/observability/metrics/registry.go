// Package metrics provides centralized Prometheus metrics for the application.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics track HTTP request patterns and performance
var (
	// HTTPRequestsTotal counts total HTTP requests by method, path, and status
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration measures HTTP request duration in seconds
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestSize measures HTTP request body size in bytes
	HTTPRequestSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_size_bytes",
			Help:    "HTTP request size in bytes",
			Buckets: prometheus.ExponentialBuckets(100, 10, 8),
		},
		[]string{"method", "path"},
	)

	// HTTPResponseSize measures HTTP response body size in bytes
	HTTPResponseSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_response_size_bytes",
			Help:    "HTTP response size in bytes",
			Buckets: prometheus.ExponentialBuckets(100, 10, 8),
		},
		[]string{"method", "path"},
	)

	// ActiveConnections tracks the number of active HTTP connections
	ActiveConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_active_connections",
			Help: "Number of active HTTP connections",
		},
	)
)

// Collection metrics track the scheduled platform sweeps
var (
	// CollectionRunsTotal counts collection sweeps per provider by result
	CollectionRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "collection_runs_total",
			Help: "Total number of collection sweeps per provider",
		},
		[]string{"provider", "status"},
	)

	// CollectionDuration measures time taken by one provider sweep
	CollectionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "collection_duration_seconds",
			Help:    "Time taken to sweep one provider",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		},
		[]string{"provider"},
	)

	// PostsCollectedTotal counts posts collected from each provider
	PostsCollectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "posts_collected_total",
			Help: "Total number of posts collected from providers",
		},
		[]string{"provider"},
	)

	// ProfilesRefreshedTotal counts profile refreshes by result
	ProfilesRefreshedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "profiles_refreshed_total",
			Help: "Total number of profile refreshes",
		},
		[]string{"provider", "status"},
	)

	// CacheSweepRemovedTotal counts expired cache entries removed by sweeps
	CacheSweepRemovedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_sweep_removed_total",
			Help: "Total number of expired cache entries removed by sweeps",
		},
		[]string{"provider"},
	)

	// AlertsDroppedTotal tracks alerts dropped because the delivery queue was full
	AlertsDroppedTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "alerts_dropped_total",
			Help: "Alerts dropped because the delivery queue was full",
		},
	)
)

// RecordHTTPRequest records an HTTP request with its metadata
func RecordHTTPRequest(method, path, status string, duration time.Duration, requestSize, responseSize int) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())

	if requestSize > 0 {
		HTTPRequestSize.WithLabelValues(method, path).Observe(float64(requestSize))
	}
	if responseSize > 0 {
		HTTPResponseSize.WithLabelValues(method, path).Observe(float64(responseSize))
	}
}
