package slo

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// SLO targets define the service level objectives for the application.
// These targets are used to measure and monitor service reliability.
const (
	// AvailabilitySLO defines the target status API uptime percentage
	// (99.9% = 43 minutes downtime per month)
	AvailabilitySLO = 99.9

	// LatencyP95SLO defines the target for 95th percentile status API latency
	// in seconds (200ms)
	LatencyP95SLO = 0.200

	// UpstreamSuccessSLO defines the target ratio of platform calls answered
	// by the upstream itself rather than a fallback (95%)
	UpstreamSuccessSLO = 0.95

	// QuotaHeadroomSLO defines the minimum daily quota fraction that should
	// remain unused at any point in the day (10%)
	QuotaHeadroomSLO = 0.10
)

// SLO tracking metrics
// These gauges are updated periodically (e.g., every minute) based on recent
// measurements to track whether the service is meeting its SLO targets.
var (
	// SLOAvailability tracks the status API availability ratio (0-1)
	// calculated as: (total_requests - 5xx_errors) / total_requests
	SLOAvailability = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "slo_availability_ratio",
			Help: "Current status API availability ratio (0-1), target: 0.999",
		},
	)

	// SLOLatencyP95 tracks the current p95 status API latency in seconds
	// calculated from http_request_duration_seconds histogram
	SLOLatencyP95 = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "slo_latency_p95_seconds",
			Help: "Current p95 status API latency in seconds, target: 0.200",
		},
	)

	// SLOUpstreamSuccess tracks the per-provider ratio of calls served by the
	// upstream rather than a fallback (0-1)
	SLOUpstreamSuccess = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "slo_upstream_success_ratio",
			Help: "Ratio of calls answered by the upstream itself (0-1), target: 0.95",
		},
		[]string{"provider"},
	)

	// SLOQuotaHeadroom tracks the per-provider fraction of the daily quota
	// still unused (0-1)
	SLOQuotaHeadroom = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "slo_quota_headroom_ratio",
			Help: "Fraction of daily quota still unused (0-1), target: >= 0.10",
		},
		[]string{"provider"},
	)
)

// UpdateAvailability updates the status API availability SLO metric.
// Call this periodically with the calculated availability ratio.
func UpdateAvailability(ratio float64) {
	SLOAvailability.Set(ratio)
}

// UpdateLatencyP95 updates the p95 latency SLO metric.
// Call this periodically with the calculated p95 latency in seconds.
//
// Example using Prometheus query:
//
//	histogram_quantile(0.95, rate(http_request_duration_seconds_bucket[5m]))
func UpdateLatencyP95(seconds float64) {
	SLOLatencyP95.Set(seconds)
}

// UpdateUpstreamSuccess updates the upstream success ratio for a provider.
//
// Example calculation:
//
//	total := upstreamCalls + fallbackServes
//	ratio := float64(upstreamCalls) / float64(total)
//	slo.UpdateUpstreamSuccess("instagram", ratio)
func UpdateUpstreamSuccess(provider string, ratio float64) {
	SLOUpstreamSuccess.WithLabelValues(provider).Set(ratio)
}

// UpdateQuotaHeadroom updates the daily quota headroom for a provider.
// Pass the fraction of the daily budget still unused.
func UpdateQuotaHeadroom(provider string, ratio float64) {
	SLOQuotaHeadroom.WithLabelValues(provider).Set(ratio)
}
