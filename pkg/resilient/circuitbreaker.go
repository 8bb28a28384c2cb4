package resilient

import (
	"context"
	"sync"
	"time"
)

// CircuitState represents the state of one resource's circuit.
type CircuitState int

const (
	// StateClosed is the normal operating state: calls pass through and
	// consecutive failures are counted.
	StateClosed CircuitState = iota

	// StateOpen rejects calls immediately with no network attempt. After
	// the recovery timeout elapses the next Allow transitions to half-open.
	StateOpen

	// StateHalfOpen permits exactly one in-flight recovery probe. Probe
	// success closes the circuit; probe failure reopens it.
	StateHalfOpen
)

// String returns a string representation of the circuit state.
func (s CircuitState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// BreakerConfig holds per-resource circuit breaker thresholds.
type BreakerConfig struct {
	// FailureThreshold is the number of consecutive failures that opens
	// the circuit. Default: 5.
	FailureThreshold int

	// RecoveryTimeout is how long an open circuit waits after the last
	// failure before permitting a recovery probe. Default: 30 seconds.
	RecoveryTimeout time.Duration
}

// circuitEntry holds the breaker state for one ResourceKey. It is owned
// exclusively by the CircuitBreaker and guarded by its own lock.
type circuitEntry struct {
	mu sync.Mutex

	state         CircuitState
	failureCount  int
	lastFailureAt time.Time

	// probeInFlight enforces the single-probe invariant in half-open:
	// set under the same lock as the state transition and cleared when the
	// probe's outcome is recorded.
	probeInFlight bool
}

// CircuitSnapshot is a point-in-time view of one key's circuit.
type CircuitSnapshot struct {
	State         string    `json:"state"`
	FailureCount  int       `json:"failure_count"`
	LastFailureAt time.Time `json:"last_failure_at,omitzero"`
}

// CircuitBreaker is a per-resource failure-detecting state machine that
// stops calling a persistently failing dependency.
//
// State is created lazily per ResourceKey and lives for the process
// lifetime. Transitions emit structured events and a circuit-state metric;
// admission decisions never make network attempts themselves.
type CircuitBreaker struct {
	config  BreakerConfig
	clock   Clock
	metrics Metrics
	events  EventSink

	mu      sync.RWMutex
	entries map[ResourceKey]*circuitEntry
}

// NewCircuitBreaker creates a circuit breaker with the given thresholds.
//
// Zero threshold values take the defaults (5 failures, 30s recovery).
// Nil clock, metrics, or sink fall back to SystemClock, NoOpMetrics, and
// NoOpEventSink respectively.
func NewCircuitBreaker(config BreakerConfig, clock Clock, metrics Metrics, events EventSink) *CircuitBreaker {
	if config.FailureThreshold <= 0 {
		config.FailureThreshold = 5
	}
	if config.RecoveryTimeout <= 0 {
		config.RecoveryTimeout = 30 * time.Second
	}
	if clock == nil {
		clock = &SystemClock{}
	}
	if metrics == nil {
		metrics = NewNoOpMetrics()
	}
	if events == nil {
		events = NoOpEventSink{}
	}
	return &CircuitBreaker{
		config:  config,
		clock:   clock,
		metrics: metrics,
		events:  events,
		entries: make(map[ResourceKey]*circuitEntry),
	}
}

// Allow reports whether a call for the key may proceed.
//
// Closed circuits always allow. Open circuits reject until RecoveryTimeout
// has elapsed since the last failure, at which point the next Allow
// transitions to half-open and is permitted through as the recovery probe.
// While a probe is outstanding, concurrent calls are rejected to avoid a
// thundering herd on recovery.
func (cb *CircuitBreaker) Allow(key ResourceKey) bool {
	e := cb.entry(key)
	now := cb.clock.Now()

	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.state {
	case StateClosed:
		return true

	case StateOpen:
		if now.Sub(e.lastFailureAt) < cb.config.RecoveryTimeout {
			return false
		}
		e.state = StateHalfOpen
		e.probeInFlight = true
		cb.metrics.RecordCircuitState(key.Provider, StateHalfOpen.String())
		cb.emit(key, EventCircuitProbe, map[string]any{
			"failure_count": e.failureCount,
		})
		return true

	case StateHalfOpen:
		if e.probeInFlight {
			return false
		}
		e.probeInFlight = true
		cb.emit(key, EventCircuitProbe, map[string]any{
			"failure_count": e.failureCount,
		})
		return true

	default:
		return true
	}
}

// RecordSuccess records a successful call for the key.
//
// In closed state it resets the consecutive failure count. In half-open
// state it records the probe outcome and closes the circuit.
func (cb *CircuitBreaker) RecordSuccess(key ResourceKey) {
	e := cb.entry(key)

	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.state {
	case StateClosed:
		e.failureCount = 0

	case StateHalfOpen:
		e.state = StateClosed
		e.failureCount = 0
		e.probeInFlight = false
		cb.metrics.RecordCircuitState(key.Provider, StateClosed.String())
		cb.emit(key, EventCircuitClosed, nil)
	}
}

// RecordFailure records a failed call for the key.
//
// In closed state, reaching FailureThreshold consecutive failures opens the
// circuit. In half-open state the probe failure reopens the circuit and
// refreshes the recovery timer.
func (cb *CircuitBreaker) RecordFailure(key ResourceKey) {
	e := cb.entry(key)
	now := cb.clock.Now()

	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.state {
	case StateClosed:
		e.failureCount++
		e.lastFailureAt = now
		if e.failureCount >= cb.config.FailureThreshold {
			e.state = StateOpen
			cb.metrics.RecordCircuitState(key.Provider, StateOpen.String())
			cb.emit(key, EventCircuitOpen, map[string]any{
				"failure_count":    e.failureCount,
				"recovery_timeout": cb.config.RecoveryTimeout.String(),
			})
		}

	case StateHalfOpen:
		e.state = StateOpen
		e.failureCount++
		e.lastFailureAt = now
		e.probeInFlight = false
		cb.metrics.RecordCircuitState(key.Provider, StateOpen.String())
		cb.emit(key, EventCircuitOpen, map[string]any{
			"failure_count": e.failureCount,
			"probe_failed":  true,
		})

	case StateOpen:
		e.lastFailureAt = now
	}
}

// State returns the key's current circuit state without side effects.
func (cb *CircuitBreaker) State(key ResourceKey) CircuitState {
	e := cb.entry(key)
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// RetryAfter returns how long until an open circuit will permit a probe.
// It returns zero for circuits that are not open.
func (cb *CircuitBreaker) RetryAfter(key ResourceKey) time.Duration {
	e := cb.entry(key)
	now := cb.clock.Now()

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateOpen {
		return 0
	}
	remaining := cb.config.RecoveryTimeout - now.Sub(e.lastFailureAt)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Snapshot returns a point-in-time view of the key's circuit for the
// status dashboard.
func (cb *CircuitBreaker) Snapshot(key ResourceKey) CircuitSnapshot {
	e := cb.entry(key)
	e.mu.Lock()
	defer e.mu.Unlock()

	return CircuitSnapshot{
		State:         e.state.String(),
		FailureCount:  e.failureCount,
		LastFailureAt: e.lastFailureAt,
	}
}

// Reset returns the key's circuit to closed with a clean failure count.
func (cb *CircuitBreaker) Reset(key ResourceKey) {
	e := cb.entry(key)
	e.mu.Lock()
	defer e.mu.Unlock()

	e.state = StateClosed
	e.failureCount = 0
	e.lastFailureAt = time.Time{}
	e.probeInFlight = false
	cb.metrics.RecordCircuitState(key.Provider, StateClosed.String())
}

// emit sends a transition event. Called with the entry lock held; sinks
// must not block.
func (cb *CircuitBreaker) emit(key ResourceKey, typ EventType, details map[string]any) {
	cb.events.Emit(context.Background(), Event{
		Key:       key,
		Type:      typ,
		Timestamp: cb.clock.Now(),
		Details:   details,
	})
}

// entry returns the per-key circuit state, creating it lazily on first use.
func (cb *CircuitBreaker) entry(key ResourceKey) *circuitEntry {
	cb.mu.RLock()
	e, ok := cb.entries[key]
	cb.mu.RUnlock()
	if ok {
		return e
	}

	cb.mu.Lock()
	defer cb.mu.Unlock()
	if e, ok = cb.entries[key]; ok {
		return e
	}
	e = &circuitEntry{state: StateClosed}
	cb.entries[key] = e
	return e
}
