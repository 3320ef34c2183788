package resilience

import (
	"sync"
	"time"
)

// Algorithm selects the admission-control algorithm for a RateLimiter.
// The algorithm is fixed for the limiter's lifetime.
type Algorithm int

const (
	// TokenBucket refills tokens at a steady rate and consumes one per request.
	TokenBucket Algorithm = iota
	// LeakyBucket drains queued requests at a steady rate and rejects when full.
	LeakyBucket
)

// String returns the algorithm name.
func (a Algorithm) String() string {
	switch a {
	case TokenBucket:
		return "token-bucket"
	case LeakyBucket:
		return "leaky-bucket"
	default:
		return "unknown"
	}
}

// globalKey is the bucket key used when the limiter is not in per-client mode
// or when no client key is supplied.
const globalKey = "global"

// RateLimiterConfig configures a rate limiter.
type RateLimiterConfig struct {
	// Name identifies this rate limiter for metrics/logging.
	Name string
	// Algorithm selects token bucket or leaky bucket.
	Algorithm Algorithm

	// MaxTokens is the bucket capacity for the token bucket algorithm.
	MaxTokens float64
	// RefillPerSecond is the token refill rate for the token bucket algorithm.
	RefillPerSecond float64

	// Capacity is the bucket capacity for the leaky bucket algorithm.
	Capacity int
	// LeakPerSecond is the drain rate for the leaky bucket algorithm.
	LeakPerSecond float64

	// PerClient gives every distinct client key its own bucket. When false a
	// single global bucket is shared by all callers.
	PerClient bool

	// OnLimit is called when a request is rejected.
	OnLimit func(name, key string)
}

// DefaultRateLimiterConfig returns a global token bucket of 100 tokens
// refilled at 10 per second.
func DefaultRateLimiterConfig(name string) RateLimiterConfig {
	return RateLimiterConfig{
		Name:            name,
		Algorithm:       TokenBucket,
		MaxTokens:       100,
		RefillPerSecond: 10.0,
	}
}

// bucket holds the state for one rate-limit key. Which fields are live is
// decided by the limiter's algorithm, fixed at construction; the bucket is a
// tagged union rather than an interface since the algorithm never changes.
type bucket struct {
	// Token bucket state.
	tokens float64
	// Leaky bucket state.
	occupied int

	lastUpdate time.Time
}

// RateLimiter provides admission control via a token-bucket or leaky-bucket
// algorithm, either globally or per client key. Replenishment is computed
// lazily from wall-clock elapsed time on each Allow call; there is no
// background timer. It is safe for concurrent use.
type RateLimiter struct {
	config RateLimiterConfig

	mu       sync.Mutex
	buckets  map[string]*bucket
	rejected uint64
}

// NewRateLimiter creates a new rate limiter. Buckets are created lazily the
// first time a key is seen and live for the limiter's lifetime.
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	if config.Algorithm == TokenBucket {
		if config.MaxTokens <= 0 {
			config.MaxTokens = 100
		}
		if config.RefillPerSecond < 0 {
			config.RefillPerSecond = 0
		}
	} else {
		if config.Capacity <= 0 {
			config.Capacity = 100
		}
		if config.LeakPerSecond < 0 {
			config.LeakPerSecond = 0
		}
	}

	return &RateLimiter{
		config:  config,
		buckets: make(map[string]*bucket),
	}
}

// Allow reports whether a request against the global bucket is admitted.
func (rl *RateLimiter) Allow() bool {
	return rl.AllowClient("")
}

// AllowClient reports whether a request for the given client key is admitted.
// An empty key, or any key when the limiter is not per-client, uses the
// global bucket. Buckets for different keys never interact.
func (rl *RateLimiter) AllowClient(clientKey string) bool {
	key := globalKey
	if rl.config.PerClient && clientKey != "" {
		key = clientKey
	}

	rl.mu.Lock()
	b, ok := rl.buckets[key]
	if !ok {
		b = rl.newBucket()
		rl.buckets[key] = b
	}
	allowed := rl.admit(b)
	if !allowed {
		rl.rejected++
	}
	rl.mu.Unlock()

	if !allowed && rl.config.OnLimit != nil {
		rl.config.OnLimit(rl.config.Name, key)
	}
	return allowed
}

// Rejected returns the total number of rejected requests across all keys.
func (rl *RateLimiter) Rejected() uint64 {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return rl.rejected
}

// Keys returns the number of buckets currently tracked.
func (rl *RateLimiter) Keys() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.buckets)
}

func (rl *RateLimiter) newBucket() *bucket {
	b := &bucket{lastUpdate: time.Now()}
	if rl.config.Algorithm == TokenBucket {
		b.tokens = rl.config.MaxTokens
	}
	return b
}

// admit advances the bucket by the elapsed wall-clock time and decides
// admission. Caller holds mu; the update is O(1) and never blocks.
func (rl *RateLimiter) admit(b *bucket) bool {
	now := time.Now()
	elapsed := now.Sub(b.lastUpdate).Seconds()
	b.lastUpdate = now

	switch rl.config.Algorithm {
	case TokenBucket:
		b.tokens += elapsed * rl.config.RefillPerSecond
		if b.tokens > rl.config.MaxTokens {
			b.tokens = rl.config.MaxTokens
		}
		if b.tokens >= 1.0 {
			b.tokens -= 1.0
			return true
		}
		return false

	case LeakyBucket:
		leaked := int(elapsed * rl.config.LeakPerSecond)
		if leaked >= b.occupied {
			b.occupied = 0
		} else {
			b.occupied -= leaked
		}
		if b.occupied < rl.config.Capacity {
			b.occupied++
			return true
		}
		return false

	default:
		return false
	}
}
