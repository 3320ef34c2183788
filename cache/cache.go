package cache

import (
	"context"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
)

// entry holds a cached value with its lifecycle timestamps.
type entry[V any] struct {
	value     V
	createdAt time.Time
	expiresAt time.Time
}

// Stats is a point-in-time snapshot of cache counters.
type Stats struct {
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	Evictions uint64 `json:"evictions"`
	Size      int    `json:"size"`
}

// Cache is an in-memory TTL cache with bounded size, probabilistic early
// expiration, and single-flight load coalescing. It is safe for concurrent use.
type Cache[V any] struct {
	config Config

	mu      sync.Mutex
	entries map[string]entry[V]

	// flight coalesces concurrent GetOrCompute calls per key. It holds its
	// own lock internally, independent of mu; the two are never held across
	// a compute call, so a computation may itself use the cache.
	flight singleflight.Group

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

// New creates a cache with the given configuration.
func New[V any](config Config) *Cache[V] {
	config.ApplyDefaults()
	return &Cache[V]{
		config:  config,
		entries: make(map[string]entry[V]),
	}
}

// Get returns the value for key if present and not expired.
// Expired entries are removed as a side effect. When probabilistic expiration
// is enabled, an unexpired entry is evicted early with the configured
// probability and reported as a miss.
func (c *Cache[V]) Get(key string) (V, bool) {
	var zero V
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		c.misses.Add(1)
		return zero, false
	}

	if !e.expiresAt.After(now) {
		delete(c.entries, key)
		c.misses.Add(1)
		return zero, false
	}

	if c.config.ProbabilisticExpiration && rand.Float64() < c.config.ExpirationProbability {
		delete(c.entries, key)
		c.misses.Add(1)
		return zero, false
	}

	c.hits.Add(1)
	return e.value, true
}

// peek returns the value for key if present and not expired, without
// touching the hit/miss counters or rolling probabilistic expiration.
func (c *Cache[V]) peek(key string) (V, bool) {
	var zero V

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || !e.expiresAt.After(time.Now()) {
		return zero, false
	}
	return e.value, true
}

// Set stores value under key using the configured default TTL.
func (c *Cache[V]) Set(key string, value V) {
	c.SetWithTTL(key, value, c.config.DefaultTTL)
}

// SetWithTTL stores value under key with an explicit TTL. If the cache is at
// capacity, the entry with the oldest creation time is evicted first.
func (c *Cache[V]) SetWithTTL(key string, value V, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.config.DefaultTTL
	}
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.entries) >= c.config.MaxEntries {
		c.evictOldestLocked()
	}

	c.entries[key] = entry[V]{
		value:     value,
		createdAt: now,
		expiresAt: now.Add(ttl),
	}
}

// evictOldestLocked removes the entry with the smallest createdAt.
// Caller must hold mu.
func (c *Cache[V]) evictOldestLocked() {
	var oldestKey string
	var oldestAt time.Time
	first := true
	for k, e := range c.entries {
		if first || e.createdAt.Before(oldestAt) {
			oldestKey = k
			oldestAt = e.createdAt
			first = false
		}
	}
	if !first {
		delete(c.entries, oldestKey)
		c.evictions.Add(1)
	}
}

// Remove deletes key from the cache and returns the removed value, if any.
func (c *Cache[V]) Remove(key string) (V, bool) {
	var zero V

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return zero, false
	}
	delete(c.entries, key)
	return e.value, true
}

// Clear removes all entries. Counters are not reset.
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry[V])
}

// CleanExpired removes all entries whose TTL has elapsed.
func (c *Cache[V]) CleanExpired() {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	for k, e := range c.entries {
		if !e.expiresAt.After(now) {
			delete(c.entries, k)
		}
	}
}

// GetOrCompute returns the cached value for key, computing it on a miss.
//
// Concurrent callers for the same missing key are coalesced: compute runs
// exactly once and every waiter receives the value it produced. The value is
// stored with the TTL returned by compute before waiters are released. If
// compute fails, nothing is cached and the error propagates to all waiters.
func (c *Cache[V]) GetOrCompute(ctx context.Context, key string, compute func(ctx context.Context) (V, time.Duration, error)) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}

	v, err, _ := c.flight.Do(key, func() (interface{}, error) {
		// A previous flight may have populated the cache between our miss
		// and joining this flight. Plain lookup, so the initial miss stays
		// a single counted miss.
		if v, ok := c.peek(key); ok {
			return v, nil
		}

		value, ttl, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		c.SetWithTTL(key, value, ttl)
		return value, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return v.(V), nil
}

// Stats returns a snapshot of the hit/miss/eviction counters and current size.
func (c *Cache[V]) Stats() Stats {
	c.mu.Lock()
	size := len(c.entries)
	c.mu.Unlock()

	return Stats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
		Size:      size,
	}
}

// Len returns the current number of entries.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
