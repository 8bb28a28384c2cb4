package resilient

import (
	"sync"
	"testing"
	"time"
)

func testKey(provider string) ResourceKey {
	return ResourceKey{Provider: provider, Operation: "search", Client: "acct-1"}
}

func TestRateLimiter_NoWindowsAlwaysAllows(t *testing.T) {
	limiter := NewRateLimiter(nil, NewMockClock(time.Now()))

	for i := 0; i < 100; i++ {
		allowed, _ := limiter.Allow(testKey("instagram"))
		if !allowed {
			t.Fatalf("call %d denied, want all allowed with no configured windows", i+1)
		}
	}
}

func TestRateLimiter_BurstScenario(t *testing.T) {
	// limit=5, window=60s, burst=2: calls 1-5 allowed without burst,
	// calls 6-7 allowed with burst flagged, call 8 denied.
	clock := NewMockClock(time.Now())
	limiter := NewRateLimiter([]WindowConfig{
		{Limit: 5, Window: 60 * time.Second, Burst: 2},
	}, clock)
	key := testKey("instagram")

	for i := 1; i <= 5; i++ {
		allowed, info := limiter.Allow(key)
		if !allowed {
			t.Fatalf("call %d denied, want allowed", i)
		}
		if info.BurstUsed {
			t.Errorf("call %d flagged BurstUsed, want false", i)
		}
		if wantRemaining := 5 - i; info.Remaining != wantRemaining {
			t.Errorf("call %d Remaining = %d, want %d", i, info.Remaining, wantRemaining)
		}
	}

	for i := 6; i <= 7; i++ {
		allowed, info := limiter.Allow(key)
		if !allowed {
			t.Fatalf("call %d denied, want allowed on burst", i)
		}
		if !info.BurstUsed {
			t.Errorf("call %d BurstUsed = false, want true", i)
		}
		if info.Remaining != 0 {
			t.Errorf("call %d Remaining = %d, want 0", i, info.Remaining)
		}
	}

	allowed, info := limiter.Allow(key)
	if allowed {
		t.Fatal("call 8 allowed, want denied")
	}
	if info.RetryAfter <= 0 {
		t.Errorf("denied call RetryAfter = %s, want positive", info.RetryAfter)
	}
	if info.ResetAt.IsZero() {
		t.Error("denied call ResetAt is zero, want window reset time")
	}
}

func TestRateLimiter_DeniedCallStillConsumesSlot(t *testing.T) {
	// Increment-then-check: the denied 3rd call occupies a slot, so even
	// after the burst allowance is raised conceptually, the window shows
	// the denial's consumption in the snapshot.
	clock := NewMockClock(time.Now())
	limiter := NewRateLimiter([]WindowConfig{
		{Limit: 2, Window: time.Minute},
	}, clock)
	key := testKey("tiktok")

	limiter.Allow(key)
	limiter.Allow(key)
	if allowed, _ := limiter.Allow(key); allowed {
		t.Fatal("3rd call allowed, want denied")
	}

	status := limiter.Snapshot(key)
	if len(status) != 1 {
		t.Fatalf("snapshot windows = %d, want 1", len(status))
	}
	if status[0].Used != 3 {
		t.Errorf("window Used = %d, want 3 (denied call still consumes a slot)", status[0].Used)
	}
}

func TestRateLimiter_LazyWindowReset(t *testing.T) {
	clock := NewMockClock(time.Now())
	limiter := NewRateLimiter([]WindowConfig{
		{Limit: 2, Window: time.Minute},
	}, clock)
	key := testKey("youtube")

	limiter.Allow(key)
	limiter.Allow(key)
	if allowed, _ := limiter.Allow(key); allowed {
		t.Fatal("call over limit allowed before window elapsed")
	}

	clock.Advance(time.Minute)

	allowed, info := limiter.Allow(key)
	if !allowed {
		t.Fatal("call denied after window elapsed, want allowed")
	}
	if info.Remaining != 1 {
		t.Errorf("Remaining after reset = %d, want 1", info.Remaining)
	}
}

func TestRateLimiter_MultipleWindows(t *testing.T) {
	// Per-minute limit of 3 and per-hour limit of 5: the hourly window
	// keeps denying even after the minute window resets.
	clock := NewMockClock(time.Now())
	limiter := NewRateLimiter([]WindowConfig{
		{Limit: 3, Window: time.Minute},
		{Limit: 5, Window: time.Hour},
	}, clock)
	key := testKey("pinterest")

	for i := 1; i <= 3; i++ {
		if allowed, _ := limiter.Allow(key); !allowed {
			t.Fatalf("call %d denied, want allowed", i)
		}
	}
	if allowed, _ := limiter.Allow(key); allowed {
		t.Fatal("4th call allowed, want denied by minute window")
	}

	clock.Advance(time.Minute)

	// Minute window reset; hourly window has 4 consumed (the denial
	// consumed a slot). One more is allowed, then the hourly window denies.
	if allowed, _ := limiter.Allow(key); !allowed {
		t.Fatal("call after minute reset denied, want allowed")
	}
	if allowed, _ := limiter.Allow(key); allowed {
		t.Fatal("call allowed, want denied by hourly window")
	}
}

func TestRateLimiter_IndependentKeys(t *testing.T) {
	clock := NewMockClock(time.Now())
	limiter := NewRateLimiter([]WindowConfig{
		{Limit: 1, Window: time.Minute},
	}, clock)

	a := ResourceKey{Provider: "discord", Operation: "guild", Client: "a"}
	b := ResourceKey{Provider: "discord", Operation: "guild", Client: "b"}

	if allowed, _ := limiter.Allow(a); !allowed {
		t.Fatal("first call for key a denied")
	}
	if allowed, _ := limiter.Allow(b); !allowed {
		t.Fatal("first call for key b denied, keys must not share windows")
	}
	if allowed, _ := limiter.Allow(a); allowed {
		t.Fatal("second call for key a allowed, want denied")
	}
}

func TestRateLimiter_ConcurrentBounds(t *testing.T) {
	// Under any interleaving the allowed count never exceeds limit+burst,
	// and non-burst allowances never exceed limit.
	const (
		limit      = 20
		burst      = 5
		goroutines = 100
	)

	clock := NewMockClock(time.Now())
	limiter := NewRateLimiter([]WindowConfig{
		{Limit: limit, Window: time.Minute, Burst: burst},
	}, clock)
	key := testKey("instagram")

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		allowed  int
		nonBurst int
	)

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, info := limiter.Allow(key)
			if !ok {
				return
			}
			mu.Lock()
			allowed++
			if !info.BurstUsed {
				nonBurst++
			}
			mu.Unlock()
		}()
	}
	wg.Wait()

	if allowed != limit+burst {
		t.Errorf("allowed = %d, want exactly %d (limit+burst)", allowed, limit+burst)
	}
	if nonBurst != limit {
		t.Errorf("non-burst allowed = %d, want exactly %d", nonBurst, limit)
	}
}

func TestRateLimiter_Reset(t *testing.T) {
	clock := NewMockClock(time.Now())
	limiter := NewRateLimiter([]WindowConfig{
		{Limit: 1, Window: time.Hour},
	}, clock)
	key := testKey("tiktok")

	limiter.Allow(key)
	if allowed, _ := limiter.Allow(key); allowed {
		t.Fatal("call over limit allowed")
	}

	limiter.Reset(key)

	if allowed, _ := limiter.Allow(key); !allowed {
		t.Fatal("call after Reset denied, want allowed")
	}
}
