package resilient

import "time"

// Metrics defines the interface for recording observability data about the
// layer's decisions and outcomes.
//
// Implementations can use Prometheus, StatsD, or custom metrics systems.
// All methods must be safe for concurrent use and cheap enough to call on
// the hot path.
type Metrics interface {
	// RecordAdmission records the outcome of one admission check.
	//
	// Parameters:
	//   - provider: The upstream provider (ResourceKey.Provider)
	//   - check: Which gate decided ("quota", "rate", "circuit")
	//   - allowed: Whether the check let the call through
	RecordAdmission(provider, check string, allowed bool)

	// RecordCallDuration records the latency of one wrapped upstream call.
	//
	// Parameters:
	//   - provider: The upstream provider
	//   - status: "success" or "failure"
	//   - duration: Wall-clock time of the call closure
	RecordCallDuration(provider, status string, duration time.Duration)

	// RecordCircuitState records a circuit state for a provider.
	//
	// Parameters:
	//   - provider: The upstream provider
	//   - state: "closed", "open", or "half-open"
	RecordCircuitState(provider, state string)

	// RecordCacheHit records a result cache hit for a provider.
	RecordCacheHit(provider string)

	// RecordCacheMiss records a result cache miss for a provider.
	RecordCacheMiss(provider string)

	// RecordFallback records that a fallback provider served a call.
	//
	// Parameters:
	//   - provider: The upstream provider
	//   - source: Name of the fallback provider that produced the value,
	//     or "exhausted" when none did
	RecordFallback(provider, source string)

	// SetQuotaUtilization records the fraction of quota consumed.
	//
	// Parameters:
	//   - provider: The upstream provider
	//   - window: "hourly" or "daily"
	//   - fraction: used/limit in [0,1]; limits of zero report 0
	SetQuotaUtilization(provider, window string, fraction float64)
}

// NoOpMetrics is a Metrics implementation that discards all recordings.
//
// It is the default when no metrics collector is configured, so components
// never need to nil-check their metrics field.
type NoOpMetrics struct{}

// NewNoOpMetrics creates a new NoOpMetrics instance.
func NewNoOpMetrics() *NoOpMetrics {
	return &NoOpMetrics{}
}

// RecordAdmission discards the recording.
func (*NoOpMetrics) RecordAdmission(string, string, bool) {}

// RecordCallDuration discards the recording.
func (*NoOpMetrics) RecordCallDuration(string, string, time.Duration) {}

// RecordCircuitState discards the recording.
func (*NoOpMetrics) RecordCircuitState(string, string) {}

// RecordCacheHit discards the recording.
func (*NoOpMetrics) RecordCacheHit(string) {}

// RecordCacheMiss discards the recording.
func (*NoOpMetrics) RecordCacheMiss(string) {}

// RecordFallback discards the recording.
func (*NoOpMetrics) RecordFallback(string, string) {}

// SetQuotaUtilization discards the recording.
func (*NoOpMetrics) SetQuotaUtilization(string, string, float64) {}
