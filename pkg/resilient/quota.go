package resilient

import (
	"sync"
	"time"
)

// QuotaConfig defines the consumable budgets for a provider.
//
// Quota is cost-weighted: operation classes declare how many units they
// consume (a search may cost 100 units while a detail fetch costs 1),
// mirroring real platform quota asymmetry. A limit of zero disables that
// budget.
type QuotaConfig struct {
	// DailyLimit is the number of cost units available per day.
	DailyLimit int

	// HourlyLimit is the number of cost units available per hour.
	HourlyLimit int
}

// QuotaStatus is a point-in-time view of one key's ledger.
type QuotaStatus struct {
	DailyUsed     int       `json:"daily_used"`
	DailyLimit    int       `json:"daily_limit"`
	HourlyUsed    int       `json:"hourly_used"`
	HourlyLimit   int       `json:"hourly_limit"`
	DailyResetAt  time.Time `json:"daily_reset_at"`
	HourlyResetAt time.Time `json:"hourly_reset_at"`
}

// ResetAt returns the next time any budget window resets.
//
// This is the earliest of the hourly and daily reset times, suitable for
// Retry-After style hints on quota denials.
func (s QuotaStatus) ResetAt() time.Time {
	if s.HourlyResetAt.IsZero() {
		return s.DailyResetAt
	}
	if s.DailyResetAt.IsZero() {
		return s.HourlyResetAt
	}
	if s.HourlyResetAt.Before(s.DailyResetAt) {
		return s.HourlyResetAt
	}
	return s.DailyResetAt
}

// quotaLedger tracks cost-unit consumption for one key.
//
// Both windows reset lazily on access, consistent with the rate limiter's
// lazy rolling windows. The ledger lives for the process lifetime or until
// an explicit reset.
type quotaLedger struct {
	mu sync.Mutex

	dailyUsed       int
	hourlyUsed      int
	lastDailyReset  time.Time
	lastHourlyReset time.Time
}

// QuotaManager tracks cost-weighted quota consumption per ResourceKey,
// independent of raw request count.
//
// Unlike the rate limiter, reservation is all-or-nothing: if the declared
// cost would exceed either budget, nothing is recorded. The check and the
// increment happen in a single critical section per key. Reservations are
// never refunded on call failure, matching real API billing semantics where
// quota is charged on request receipt, not success.
type QuotaManager struct {
	config QuotaConfig
	clock  Clock

	mu      sync.RWMutex
	ledgers map[ResourceKey]*quotaLedger
}

// NewQuotaManager creates a quota manager with the given budgets.
// A nil clock defaults to SystemClock.
func NewQuotaManager(config QuotaConfig, clock Clock) *QuotaManager {
	if clock == nil {
		clock = &SystemClock{}
	}
	return &QuotaManager{
		config:  config,
		clock:   clock,
		ledgers: make(map[ResourceKey]*quotaLedger),
	}
}

// Reserve attempts to consume costUnits from the key's hourly and daily
// budgets.
//
// A cost below 1 is treated as 1: every operation class has a minimum
// weight. On success both counters are incremented atomically with the
// check; on failure no usage is recorded. The returned status reflects the
// ledger after the attempt either way.
func (q *QuotaManager) Reserve(key ResourceKey, costUnits int) (bool, QuotaStatus) {
	if costUnits < 1 {
		costUnits = 1
	}

	l := q.ledger(key)
	now := q.clock.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	// Lazy resets, same pattern as the rate limiter's rolling windows.
	if now.Sub(l.lastHourlyReset) >= time.Hour {
		l.hourlyUsed = 0
		l.lastHourlyReset = now
	}
	if now.Sub(l.lastDailyReset) >= 24*time.Hour {
		l.dailyUsed = 0
		l.lastDailyReset = now
	}

	ok := true
	if q.config.DailyLimit > 0 && l.dailyUsed+costUnits > q.config.DailyLimit {
		ok = false
	}
	if q.config.HourlyLimit > 0 && l.hourlyUsed+costUnits > q.config.HourlyLimit {
		ok = false
	}

	if ok {
		l.dailyUsed += costUnits
		l.hourlyUsed += costUnits
	}

	return ok, q.statusLocked(l)
}

// Status returns the key's ledger without consuming anything. Windows that
// have elapsed are reported as reset.
func (q *QuotaManager) Status(key ResourceKey) QuotaStatus {
	l := q.ledger(key)
	now := q.clock.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastHourlyReset) >= time.Hour {
		l.hourlyUsed = 0
		l.lastHourlyReset = now
	}
	if now.Sub(l.lastDailyReset) >= 24*time.Hour {
		l.dailyUsed = 0
		l.lastDailyReset = now
	}

	return q.statusLocked(l)
}

// Reset clears the key's ledger. This is for tests and manual intervention,
// not part of the normal lifecycle.
func (q *QuotaManager) Reset(key ResourceKey) {
	l := q.ledger(key)
	now := q.clock.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.dailyUsed = 0
	l.hourlyUsed = 0
	l.lastDailyReset = now
	l.lastHourlyReset = now
}

// statusLocked builds a QuotaStatus. The ledger's lock must be held.
func (q *QuotaManager) statusLocked(l *quotaLedger) QuotaStatus {
	return QuotaStatus{
		DailyUsed:     l.dailyUsed,
		DailyLimit:    q.config.DailyLimit,
		HourlyUsed:    l.hourlyUsed,
		HourlyLimit:   q.config.HourlyLimit,
		DailyResetAt:  l.lastDailyReset.Add(24 * time.Hour),
		HourlyResetAt: l.lastHourlyReset.Add(time.Hour),
	}
}

// ledger returns the per-key ledger, creating it lazily on first use.
func (q *QuotaManager) ledger(key ResourceKey) *quotaLedger {
	q.mu.RLock()
	l, ok := q.ledgers[key]
	q.mu.RUnlock()
	if ok {
		return l
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if l, ok = q.ledgers[key]; ok {
		return l
	}
	l = &quotaLedger{}
	q.ledgers[key] = l
	return l
}
