package resilient

import (
	"sync"
	"time"
)

// WindowConfig defines one fixed rate-limit window.
type WindowConfig struct {
	// Limit is the nominal maximum number of requests per window.
	Limit int

	// Window is the window length (e.g. time.Minute, time.Hour).
	Window time.Duration

	// Burst is the soft overcommit allowance beyond Limit. Requests in the
	// (Limit, Limit+Burst] range are allowed but flagged with BurstUsed so
	// callers can absorb brief spikes without hard failure.
	Burst int
}

// RateInfo carries caller-visible limiter state for headers and telemetry.
type RateInfo struct {
	// Limit is the nominal limit of the most constrained window.
	Limit int

	// Remaining is the number of non-burst requests left in the most
	// constrained window. Never negative.
	Remaining int

	// ResetAt is when the governing window resets.
	ResetAt time.Time

	// RetryAfter is how long a denied caller should wait. Zero when allowed.
	RetryAfter time.Duration

	// BurstUsed is true when the request was admitted on burst allowance.
	BurstUsed bool
}

// WindowStatus is a point-in-time snapshot of one window for a key.
type WindowStatus struct {
	Limit   int           `json:"limit"`
	Burst   int           `json:"burst"`
	Window  time.Duration `json:"window"`
	Used    int           `json:"used"`
	ResetAt time.Time     `json:"reset_at"`
}

// windowCounter tracks usage of one fixed window for one key.
//
// windowStart is always the start of the current window, recomputed lazily
// on access. There are no background timers.
type windowCounter struct {
	windowStart time.Time
	count       int
}

// keyCounters holds the per-key window state behind its own lock, so that
// unrelated resources never contend with each other.
type keyCounters struct {
	mu      sync.Mutex
	windows []windowCounter
}

// RateLimiter bounds request rate per ResourceKey across multiple fixed
// time windows (e.g. per-minute and per-hour simultaneously).
//
// Semantics are increment-then-check: a denied call still consumes a window
// slot. This matches common fixed-window limiter implementations and keeps
// the counter arithmetic race-free under concurrent access; the trade-off
// is documented in DESIGN.md.
//
// Allow never returns an error. A limiter with no configured windows always
// allows.
type RateLimiter struct {
	windows []WindowConfig
	clock   Clock

	mu   sync.RWMutex
	keys map[ResourceKey]*keyCounters
}

// NewRateLimiter creates a rate limiter for the given window set.
//
// A nil clock defaults to SystemClock. Windows with non-positive limits or
// lengths should be rejected via Config.Validate before construction.
func NewRateLimiter(windows []WindowConfig, clock Clock) *RateLimiter {
	if clock == nil {
		clock = &SystemClock{}
	}
	return &RateLimiter{
		windows: windows,
		clock:   clock,
		keys:    make(map[ResourceKey]*keyCounters),
	}
}

// Allow records one request against every configured window for the key and
// reports whether the request is admitted.
//
// The request is allowed iff, after incrementing, every window satisfies
// count <= limit+burst. BurstUsed is set when any window needed its burst
// allowance. The increment happens before the check, so a denied call still
// costs a slot in each window.
func (r *RateLimiter) Allow(key ResourceKey) (bool, RateInfo) {
	if len(r.windows) == 0 {
		return true, RateInfo{Remaining: -1}
	}

	kc := r.counters(key)
	now := r.clock.Now()

	kc.mu.Lock()
	defer kc.mu.Unlock()

	allowed := true
	burstUsed := false

	info := RateInfo{Remaining: -1}
	var denyResetAt time.Time

	for i := range r.windows {
		cfg := r.windows[i]
		w := &kc.windows[i]

		// Lazy rolling window: reset when the current window has elapsed.
		if now.Sub(w.windowStart) >= cfg.Window {
			w.windowStart = now
			w.count = 0
		}

		w.count++

		resetAt := w.windowStart.Add(cfg.Window)

		if w.count > cfg.Limit+cfg.Burst {
			allowed = false
			// A denied caller must wait for the slowest violated window.
			if resetAt.After(denyResetAt) {
				denyResetAt = resetAt
			}
		} else if w.count > cfg.Limit {
			burstUsed = true
		}

		remaining := cfg.Limit - w.count
		if remaining < 0 {
			remaining = 0
		}
		// Report the most constrained window to the caller.
		if info.Remaining == -1 || remaining < info.Remaining {
			info.Limit = cfg.Limit
			info.Remaining = remaining
			info.ResetAt = resetAt
		}
	}

	if !allowed {
		info.ResetAt = denyResetAt
		info.RetryAfter = denyResetAt.Sub(now)
		if info.RetryAfter < 0 {
			info.RetryAfter = 0
		}
		return false, info
	}

	info.BurstUsed = burstUsed
	return true, info
}

// Snapshot returns the current window usage for the key without consuming
// a slot. Expired windows are reported as unused.
func (r *RateLimiter) Snapshot(key ResourceKey) []WindowStatus {
	statuses := make([]WindowStatus, 0, len(r.windows))
	if len(r.windows) == 0 {
		return statuses
	}

	kc := r.counters(key)
	now := r.clock.Now()

	kc.mu.Lock()
	defer kc.mu.Unlock()

	for i := range r.windows {
		cfg := r.windows[i]
		w := kc.windows[i]

		used := w.count
		resetAt := w.windowStart.Add(cfg.Window)
		if now.Sub(w.windowStart) >= cfg.Window {
			used = 0
			resetAt = now.Add(cfg.Window)
		}

		statuses = append(statuses, WindowStatus{
			Limit:   cfg.Limit,
			Burst:   cfg.Burst,
			Window:  cfg.Window,
			Used:    used,
			ResetAt: resetAt,
		})
	}

	return statuses
}

// Reset clears all window counters for the key.
func (r *RateLimiter) Reset(key ResourceKey) {
	kc := r.counters(key)
	kc.mu.Lock()
	defer kc.mu.Unlock()

	for i := range kc.windows {
		kc.windows[i] = windowCounter{}
	}
}

// counters returns the per-key state, creating it lazily on first use.
func (r *RateLimiter) counters(key ResourceKey) *keyCounters {
	r.mu.RLock()
	kc, ok := r.keys[key]
	r.mu.RUnlock()
	if ok {
		return kc
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if kc, ok = r.keys[key]; ok {
		return kc
	}
	kc = &keyCounters{windows: make([]windowCounter, len(r.windows))}
	r.keys[key] = kc
	return kc
}
