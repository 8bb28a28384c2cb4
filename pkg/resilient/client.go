package resilient

import (
	"context"
	"fmt"
	"time"
)

// Outcome describes how one Execute invocation was served. It is a
// transient value returned to the caller and never persisted.
type Outcome struct {
	// Succeeded is true when the primary call path succeeded.
	Succeeded bool

	// UsedFallback is true when a fallback provider served the call.
	UsedFallback bool

	// FromCache is true when a proactive cache read served the call
	// without any admission checks or network attempt.
	FromCache bool

	// FallbackSource names the fallback provider that served the call,
	// when UsedFallback is true.
	FallbackSource string

	// Latency is the wall-clock duration of the wrapped call closure.
	// Zero when no call was attempted.
	Latency time.Duration

	// Err is the primary-path error, kept even when a fallback served the
	// call so callers can log what degraded them.
	Err error
}

// Client orchestrates the defensive layer around a single provider's
// outbound calls. It is the only component callers interact with directly.
//
// The admission order is deliberate: quota is checked first because it is
// the most expensive and irreversible resource; rate limiting is checked
// before the circuit breaker so a rate-limited caller never counts as a
// failure against the breaker. No component lock is ever held while the
// wrapped call runs, so a hanging upstream cannot block other callers'
// admission checks.
type Client struct {
	provider string
	limiter  *RateLimiter
	breaker  *CircuitBreaker
	quota    *QuotaManager
	cache    *ResultCache
	fallback *FallbackStrategy
	clock    Clock
	metrics  Metrics
	events   EventSink
}

// NewClient builds a client from the given configuration.
//
// The configuration is validated and defaulted; the serve-stale cache rung
// is always the first fallback provider, followed by cfg.Fallbacks in
// order.
func NewClient(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid resilient client config: %w", err)
	}
	cfg.ApplyDefaults()

	cache := NewResultCache(cfg.Cache, cfg.Clock)

	chain := make([]NamedProvider, 0, len(cfg.Fallbacks)+1)
	chain = append(chain, CacheProvider(cache))
	chain = append(chain, cfg.Fallbacks...)

	return &Client{
		provider: cfg.Provider,
		limiter:  NewRateLimiter(cfg.Windows, cfg.Clock),
		breaker:  NewCircuitBreaker(cfg.Breaker, cfg.Clock, cfg.Metrics, cfg.Events),
		quota:    NewQuotaManager(cfg.Quota, cfg.Clock),
		cache:    cache,
		fallback: NewFallbackStrategy(chain...),
		clock:    cfg.Clock,
		metrics:  cfg.Metrics,
		events:   cfg.Events,
	}, nil
}

// Execute runs a typed call through a client's defensive layer.
//
// It is a generic wrapper over Client.Do; see Do for the full protocol.
// Fallback providers registered on the client must produce values
// assignable to T, otherwise the call fails with a type mismatch error.
func Execute[T any](
	ctx context.Context,
	c *Client,
	key ResourceKey,
	cost int,
	proactiveCache bool,
	call func(ctx context.Context) (T, error),
) (T, Outcome, error) {
	var zero T

	value, outcome, err := c.Do(ctx, key, cost, proactiveCache, func(ctx context.Context) (any, error) {
		return call(ctx)
	})
	if value == nil {
		return zero, outcome, err
	}

	typed, ok := value.(T)
	if !ok {
		if err == nil {
			err = fmt.Errorf("fallback for %s produced %T, want %T", key, value, zero)
		}
		return zero, outcome, err
	}
	return typed, outcome, err
}

// Do runs one call through the full admission pipeline.
//
// Protocol:
//  1. If proactiveCache, a cache hit returns immediately.
//  2. Quota reservation. Denial is non-retriable within the window.
//  3. Rate limiting. A denied call still consumes a window slot.
//  4. Circuit breaker admission, then the wrapped call. Success records
//     into the breaker and the cache; failure records into the breaker.
//  5. Any denial or call failure is resolved through the fallback chain.
//     A fallback hit returns the degraded value with a nil error; an
//     exhausted chain returns a FallbackExhaustedError wrapping the
//     primary error.
//
// Cancellation that aborts the call leaves no state change beyond the
// already-committed quota and rate reservations.
func (c *Client) Do(
	ctx context.Context,
	key ResourceKey,
	cost int,
	proactiveCache bool,
	call func(ctx context.Context) (any, error),
) (any, Outcome, error) {
	if proactiveCache {
		if value, ok := c.cache.Get(key); ok {
			c.metrics.RecordCacheHit(c.provider)
			return value, Outcome{Succeeded: true, FromCache: true}, nil
		}
		c.metrics.RecordCacheMiss(c.provider)
	}

	ok, quotaStatus := c.quota.Reserve(key, cost)
	c.metrics.RecordAdmission(c.provider, "quota", ok)
	c.recordQuotaUtilization(quotaStatus)
	if !ok {
		denial := &QuotaExceededError{Key: key, Status: quotaStatus}
		c.emit(ctx, key, EventQuotaExceeded, map[string]any{
			"daily_used":   quotaStatus.DailyUsed,
			"daily_limit":  quotaStatus.DailyLimit,
			"hourly_used":  quotaStatus.HourlyUsed,
			"hourly_limit": quotaStatus.HourlyLimit,
			"reset_at":     quotaStatus.ResetAt(),
		})
		return c.resolveFallback(ctx, key, denial)
	}

	allowed, rateInfo := c.limiter.Allow(key)
	c.metrics.RecordAdmission(c.provider, "rate", allowed)
	if !allowed {
		denial := &RateLimitedError{Key: key, Info: rateInfo}
		c.emit(ctx, key, EventRateLimited, map[string]any{
			"retry_after": rateInfo.RetryAfter.String(),
			"reset_at":    rateInfo.ResetAt,
		})
		return c.resolveFallback(ctx, key, denial)
	}

	if !c.breaker.Allow(key) {
		c.metrics.RecordAdmission(c.provider, "circuit", false)
		denial := &CircuitOpenError{Key: key, RetryAfter: c.breaker.RetryAfter(key)}
		c.emit(ctx, key, EventCircuitOpen, map[string]any{
			"rejected":    true,
			"retry_after": denial.RetryAfter.String(),
		})
		return c.resolveFallback(ctx, key, denial)
	}
	c.metrics.RecordAdmission(c.provider, "circuit", true)

	// No component lock is held from here: a slow upstream call must not
	// block other callers' admission checks.
	start := c.clock.Now()
	value, callErr := call(ctx)
	latency := c.clock.Now().Sub(start)

	if callErr != nil {
		c.breaker.RecordFailure(key)
		c.metrics.RecordCallDuration(c.provider, "failure", latency)
		primary := &UpstreamCallError{Key: key, Err: callErr}
		result, outcome, err := c.resolveFallback(ctx, key, primary)
		outcome.Latency = latency
		return result, outcome, err
	}

	c.breaker.RecordSuccess(key)
	c.metrics.RecordCallDuration(c.provider, "success", latency)
	c.cache.Put(key, value, 0)

	return value, Outcome{Succeeded: true, Latency: latency}, nil
}

// resolveFallback routes a denial or upstream failure through the fallback
// chain. The primary error is preserved in the outcome either way.
func (c *Client) resolveFallback(ctx context.Context, key ResourceKey, primary error) (any, Outcome, error) {
	value, source, err := c.fallback.Resolve(ctx, key, primary)
	if err != nil {
		c.metrics.RecordFallback(c.provider, "exhausted")
		c.emit(ctx, key, EventFallbackExhausted, map[string]any{
			"cause": primary.Error(),
		})
		return nil, Outcome{Err: err}, err
	}

	c.metrics.RecordFallback(c.provider, source)
	c.emit(ctx, key, EventFallbackUsed, map[string]any{
		"source": source,
		"cause":  primary.Error(),
	})
	return value, Outcome{UsedFallback: true, FallbackSource: source, Err: primary}, nil
}

// recordQuotaUtilization reports used/limit fractions for both budgets.
func (c *Client) recordQuotaUtilization(status QuotaStatus) {
	if status.HourlyLimit > 0 {
		c.metrics.SetQuotaUtilization(c.provider, "hourly",
			float64(status.HourlyUsed)/float64(status.HourlyLimit))
	}
	if status.DailyLimit > 0 {
		c.metrics.SetQuotaUtilization(c.provider, "daily",
			float64(status.DailyUsed)/float64(status.DailyLimit))
	}
}

// emit sends an event to the configured sink.
func (c *Client) emit(ctx context.Context, key ResourceKey, typ EventType, details map[string]any) {
	c.events.Emit(ctx, Event{
		Key:       key,
		Type:      typ,
		Timestamp: c.clock.Now(),
		Details:   details,
	})
}

// Provider returns the provider name this client wraps.
func (c *Client) Provider() string {
	return c.provider
}

// Cache exposes the result cache, mainly for invalidation and stats.
func (c *Client) Cache() *ResultCache {
	return c.cache
}

// RateStatus returns the key's window usage without consuming a slot.
func (c *Client) RateStatus(key ResourceKey) []WindowStatus {
	return c.limiter.Snapshot(key)
}

// QuotaStatus returns the key's quota ledger without consuming anything.
func (c *Client) QuotaStatus(key ResourceKey) QuotaStatus {
	return c.quota.Status(key)
}

// CircuitStatus returns the key's circuit snapshot.
func (c *Client) CircuitStatus(key ResourceKey) CircuitSnapshot {
	return c.breaker.Snapshot(key)
}
