package resilient

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusMetrics implements the Metrics interface using Prometheus.
//
// All metrics are registered on a custom registry rather than the global
// default registerer, which keeps tests isolated and lets multiple client
// instances coexist without collisions. Expose it with promhttp.HandlerFor.
type PrometheusMetrics struct {
	registry *prometheus.Registry

	// admissionsTotal counts admission check outcomes.
	// Labels: provider, check ("quota"|"rate"|"circuit"), status
	// ("allowed"|"denied").
	admissionsTotal *prometheus.CounterVec

	// callDuration tracks wrapped upstream call latency.
	// Labels: provider, status ("success"|"failure").
	callDuration *prometheus.HistogramVec

	// circuitState tracks the breaker state per provider
	// (0=closed, 1=open, 2=half-open).
	circuitState *prometheus.GaugeVec

	// cacheTotal counts result cache lookups. Labels: provider, result
	// ("hit"|"miss").
	cacheTotal *prometheus.CounterVec

	// fallbackTotal counts fallback resolutions. Labels: provider, source
	// (provider name in the chain, or "exhausted").
	fallbackTotal *prometheus.CounterVec

	// quotaUtilization reports used/limit per budget window.
	// Labels: provider, window ("hourly"|"daily").
	quotaUtilization *prometheus.GaugeVec
}

// NewPrometheusMetrics creates a PrometheusMetrics instance with its own
// registry.
func NewPrometheusMetrics() *PrometheusMetrics {
	registry := prometheus.NewRegistry()

	admissionsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "external_call_admissions_total",
			Help: "Admission check outcomes by provider, check, and status",
		},
		[]string{"provider", "check", "status"},
	)

	callDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "external_call_duration_seconds",
			Help:    "Duration of wrapped upstream calls",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0},
		},
		[]string{"provider", "status"},
	)

	circuitState := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "external_call_circuit_state",
			Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
		},
		[]string{"provider"},
	)

	cacheTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "external_call_cache_total",
			Help: "Result cache lookups by provider and result",
		},
		[]string{"provider", "result"},
	)

	fallbackTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "external_call_fallback_total",
			Help: "Fallback resolutions by provider and serving source",
		},
		[]string{"provider", "source"},
	)

	quotaUtilization := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "external_call_quota_utilization",
			Help: "Fraction of quota budget consumed by provider and window",
		},
		[]string{"provider", "window"},
	)

	registry.MustRegister(
		admissionsTotal,
		callDuration,
		circuitState,
		cacheTotal,
		fallbackTotal,
		quotaUtilization,
	)

	return &PrometheusMetrics{
		registry:         registry,
		admissionsTotal:  admissionsTotal,
		callDuration:     callDuration,
		circuitState:     circuitState,
		cacheTotal:       cacheTotal,
		fallbackTotal:    fallbackTotal,
		quotaUtilization: quotaUtilization,
	}
}

// Registry returns the registry holding all resilient-layer metrics.
func (m *PrometheusMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordAdmission records an admission check outcome.
func (m *PrometheusMetrics) RecordAdmission(provider, check string, allowed bool) {
	status := "allowed"
	if !allowed {
		status = "denied"
	}
	m.admissionsTotal.WithLabelValues(provider, check, status).Inc()
}

// RecordCallDuration records the latency of one wrapped upstream call.
func (m *PrometheusMetrics) RecordCallDuration(provider, status string, duration time.Duration) {
	m.callDuration.WithLabelValues(provider, status).Observe(duration.Seconds())
}

// RecordCircuitState records the breaker state as a numeric gauge.
func (m *PrometheusMetrics) RecordCircuitState(provider, state string) {
	var value float64
	switch state {
	case "closed":
		value = 0
	case "open":
		value = 1
	case "half-open":
		value = 2
	}
	m.circuitState.WithLabelValues(provider).Set(value)
}

// RecordCacheHit records a result cache hit.
func (m *PrometheusMetrics) RecordCacheHit(provider string) {
	m.cacheTotal.WithLabelValues(provider, "hit").Inc()
}

// RecordCacheMiss records a result cache miss.
func (m *PrometheusMetrics) RecordCacheMiss(provider string) {
	m.cacheTotal.WithLabelValues(provider, "miss").Inc()
}

// RecordFallback records which source served a degraded call.
func (m *PrometheusMetrics) RecordFallback(provider, source string) {
	m.fallbackTotal.WithLabelValues(provider, source).Inc()
}

// SetQuotaUtilization records the consumed fraction of a budget window.
func (m *PrometheusMetrics) SetQuotaUtilization(provider, window string, fraction float64) {
	m.quotaUtilization.WithLabelValues(provider, window).Set(fraction)
}
