package resilient

import (
	"fmt"
	"time"
)

// The error taxonomy is closed and non-overlapping: every way the layer can
// refuse or fail a call maps to exactly one of the types below. Denials are
// ordinary returned errors, never panics, and all of them are routed through
// the fallback chain before reaching the caller.

// QuotaExceededError indicates the reservation would exceed the hourly or
// daily quota budget. It is not retriable within the current window; callers
// should back off until ResetAt.
type QuotaExceededError struct {
	// Key is the resource whose quota was exhausted.
	Key ResourceKey

	// Status is the ledger state at the time of the failed reservation.
	Status QuotaStatus
}

// Error implements the error interface.
func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("quota exceeded for %s: daily %d/%d, hourly %d/%d, resets at %s",
		e.Key, e.Status.DailyUsed, e.Status.DailyLimit,
		e.Status.HourlyUsed, e.Status.HourlyLimit,
		e.Status.ResetAt().Format(time.RFC3339))
}

// RateLimitedError indicates the request exceeded a configured rate window.
// It is safe to retry after Info.RetryAfter.
type RateLimitedError struct {
	// Key is the resource that was rate limited.
	Key ResourceKey

	// Info carries the limiter state (remaining, reset time, retry delay).
	Info RateInfo
}

// Error implements the error interface.
func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited for %s: retry after %s (resets at %s)",
		e.Key, e.Info.RetryAfter, e.Info.ResetAt.Format(time.RFC3339))
}

// CircuitOpenError indicates the circuit breaker rejected the call because
// the upstream dependency is presumed down. No network attempt was made.
type CircuitOpenError struct {
	// Key is the resource whose circuit is open.
	Key ResourceKey

	// RetryAfter is the time until the breaker will permit a recovery probe.
	RetryAfter time.Duration
}

// Error implements the error interface.
func (e *CircuitOpenError) Error() string {
	return fmt.Sprintf("circuit open for %s: probe permitted in %s", e.Key, e.RetryAfter)
}

// UpstreamCallError wraps the error returned by the caller-supplied call
// closure. It triggers breaker failure recording and a fallback attempt.
type UpstreamCallError struct {
	// Key is the resource whose call failed.
	Key ResourceKey

	// Err is the error returned by the call closure.
	Err error
}

// Error implements the error interface.
func (e *UpstreamCallError) Error() string {
	return fmt.Sprintf("upstream call failed for %s: %v", e.Key, e.Err)
}

// Unwrap returns the wrapped upstream error.
func (e *UpstreamCallError) Unwrap() error {
	return e.Err
}

// FallbackExhaustedError indicates every configured fallback provider failed
// to produce a value. The error that sent the orchestrator down the fallback
// path is attached as the cause.
type FallbackExhaustedError struct {
	// Key is the resource whose fallback chain was exhausted.
	Key ResourceKey

	// Cause is the primary-path error that triggered the fallback attempt.
	Cause error
}

// Error implements the error interface.
func (e *FallbackExhaustedError) Error() string {
	return fmt.Sprintf("all fallback providers failed for %s: %v", e.Key, e.Cause)
}

// Unwrap returns the primary-path error that triggered the fallback.
func (e *FallbackExhaustedError) Unwrap() error {
	return e.Cause
}
