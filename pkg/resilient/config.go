package resilient

import (
	"fmt"
	"time"
)

// Config holds the per-provider configuration for a Client.
//
// One Client instance is shared by all callers targeting one provider; the
// windows, budgets, and thresholds here apply to every ResourceKey routed
// through it.
type Config struct {
	// Provider names the upstream this client wraps. Used as the metrics
	// label and in log records. Required.
	Provider string

	// Windows defines the rate-limit windows (e.g. per-minute and
	// per-hour). An empty set disables rate limiting.
	Windows []WindowConfig

	// Quota defines the hourly/daily cost-unit budgets. Zero limits
	// disable the corresponding budget.
	Quota QuotaConfig

	// Breaker defines the circuit thresholds.
	Breaker BreakerConfig

	// Cache defines the result cache TTL and capacity.
	Cache CacheConfig

	// Fallbacks is the ordered chain of degraded-data providers consulted
	// after the built-in serve-stale cache rung. The cache rung is always
	// first; list only the providers that come after it.
	Fallbacks []NamedProvider

	// Clock provides time abstraction for testing. Default: SystemClock.
	Clock Clock

	// Metrics receives observability recordings. Default: NoOpMetrics.
	Metrics Metrics

	// Events receives structured events. Default: NoOpEventSink.
	Events EventSink
}

// Validate checks the configuration for values that would produce a
// nonsensical client. It returns the first problem found.
func (c *Config) Validate() error {
	if c.Provider == "" {
		return fmt.Errorf("Provider is required")
	}
	for i, w := range c.Windows {
		if w.Limit <= 0 {
			return fmt.Errorf("Windows[%d].Limit must be positive, got %d", i, w.Limit)
		}
		if w.Window <= 0 {
			return fmt.Errorf("Windows[%d].Window must be positive, got %s", i, w.Window)
		}
		if w.Burst < 0 {
			return fmt.Errorf("Windows[%d].Burst must be non-negative, got %d", i, w.Burst)
		}
	}
	if c.Quota.DailyLimit < 0 {
		return fmt.Errorf("Quota.DailyLimit must be non-negative, got %d", c.Quota.DailyLimit)
	}
	if c.Quota.HourlyLimit < 0 {
		return fmt.Errorf("Quota.HourlyLimit must be non-negative, got %d", c.Quota.HourlyLimit)
	}
	if c.Breaker.FailureThreshold < 0 {
		return fmt.Errorf("Breaker.FailureThreshold must be non-negative, got %d", c.Breaker.FailureThreshold)
	}
	if c.Breaker.RecoveryTimeout < 0 {
		return fmt.Errorf("Breaker.RecoveryTimeout must be non-negative, got %s", c.Breaker.RecoveryTimeout)
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("Cache.TTL must be non-negative, got %s", c.Cache.TTL)
	}
	if c.Cache.MaxEntries < 0 {
		return fmt.Errorf("Cache.MaxEntries must be non-negative, got %d", c.Cache.MaxEntries)
	}
	return nil
}

// ApplyDefaults fills in safe defaults for any zero values so a partially
// specified configuration still yields a functional client.
func (c *Config) ApplyDefaults() {
	if c.Breaker.FailureThreshold == 0 {
		c.Breaker.FailureThreshold = 5
	}
	if c.Breaker.RecoveryTimeout == 0 {
		c.Breaker.RecoveryTimeout = 30 * time.Second
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = 5 * time.Minute
	}
	if c.Cache.MaxEntries == 0 {
		c.Cache.MaxEntries = 1000
	}
	if c.Clock == nil {
		c.Clock = &SystemClock{}
	}
	if c.Metrics == nil {
		c.Metrics = NewNoOpMetrics()
	}
	if c.Events == nil {
		c.Events = NoOpEventSink{}
	}
}
