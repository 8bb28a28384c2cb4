package resilient

import (
	"container/list"
	"sync"
	"time"
)

// CacheConfig holds configuration for the result cache.
type CacheConfig struct {
	// TTL is the default entry lifetime when Put is called with a
	// non-positive ttl. Default: 5 minutes.
	TTL time.Duration

	// MaxEntries bounds the cache size; the least recently used entry is
	// evicted when the bound is exceeded. Zero means unbounded.
	MaxEntries int
}

// CacheStats reports cumulative cache counters for monitoring.
type CacheStats struct {
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Evictions int64 `json:"evictions"`
	Entries   int   `json:"entries"`
}

// cacheEntry is one stored value. Lifetime ends at storedAt+ttl (checked
// lazily on read) or on explicit invalidation or LRU eviction.
type cacheEntry struct {
	key      ResourceKey
	value    any
	storedAt time.Time
	ttl      time.Duration
}

// ResultCache is a TTL-keyed store of the last-good response per
// ResourceKey.
//
// It serves two roles: a speed optimization when callers opt in to
// proactive reads, and the first rung of the fallback chain when the
// primary path is unavailable (serve-stale). Expiry is checked at read
// time; there is no background sweeper, though Sweep is available for
// periodic housekeeping.
type ResultCache struct {
	config CacheConfig
	clock  Clock

	mu      sync.Mutex
	entries map[ResourceKey]*list.Element
	lru     *list.List // front = most recently used

	hits      int64
	misses    int64
	evictions int64
}

// NewResultCache creates a result cache.
//
// A zero TTL defaults to 5 minutes; a nil clock defaults to SystemClock.
func NewResultCache(config CacheConfig, clock Clock) *ResultCache {
	if config.TTL <= 0 {
		config.TTL = 5 * time.Minute
	}
	if clock == nil {
		clock = &SystemClock{}
	}
	return &ResultCache{
		config:  config,
		clock:   clock,
		entries: make(map[ResourceKey]*list.Element),
		lru:     list.New(),
	}
}

// Get returns the cached value for the key.
//
// An entry past its TTL is treated as not found and dropped.
func (c *ResultCache) Get(key ResourceKey) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		c.misses++
		return nil, false
	}

	entry := elem.Value.(*cacheEntry)
	if c.clock.Now().Sub(entry.storedAt) >= entry.ttl {
		c.removeLocked(elem)
		c.misses++
		return nil, false
	}

	c.lru.MoveToFront(elem)
	c.hits++
	return entry.value, true
}

// Put stores a value for the key.
//
// A non-positive ttl uses the configured default. Storing over an existing
// key replaces it and refreshes its recency.
func (c *ResultCache) Put(key ResourceKey, value any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.config.TTL
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		entry := elem.Value.(*cacheEntry)
		entry.value = value
		entry.storedAt = c.clock.Now()
		entry.ttl = ttl
		c.lru.MoveToFront(elem)
		return
	}

	elem := c.lru.PushFront(&cacheEntry{
		key:      key,
		value:    value,
		storedAt: c.clock.Now(),
		ttl:      ttl,
	})
	c.entries[key] = elem

	if c.config.MaxEntries > 0 && c.lru.Len() > c.config.MaxEntries {
		if tail := c.lru.Back(); tail != nil {
			c.removeLocked(tail)
			c.evictions++
		}
	}
}

// Invalidate drops the entry for the key, if present.
func (c *ResultCache) Invalidate(key ResourceKey) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		c.removeLocked(elem)
	}
}

// Sweep removes every expired entry and returns how many were dropped.
//
// Expiry is otherwise lazy; Sweep exists for periodic housekeeping from a
// background worker so long-idle entries do not pin memory.
func (c *ResultCache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	removed := 0

	for elem := c.lru.Back(); elem != nil; {
		prev := elem.Prev()
		entry := elem.Value.(*cacheEntry)
		if now.Sub(entry.storedAt) >= entry.ttl {
			c.removeLocked(elem)
			removed++
		}
		elem = prev
	}

	return removed
}

// Len returns the current number of entries, including any not yet
// lazily expired.
func (c *ResultCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// Stats returns cumulative hit/miss/eviction counters.
func (c *ResultCache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CacheStats{
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
		Entries:   c.lru.Len(),
	}
}

// removeLocked unlinks an element from both the map and the LRU list.
// The cache lock must be held.
func (c *ResultCache) removeLocked(elem *list.Element) {
	entry := elem.Value.(*cacheEntry)
	delete(c.entries, entry.key)
	c.lru.Remove(elem)
}
