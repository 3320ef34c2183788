package resilience

import (
	"sync"
	"testing"
	"time"
)

func TestTokenBucket_ExhaustsAtMaxTokens(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		Name:            "test",
		Algorithm:       TokenBucket,
		MaxTokens:       5,
		RefillPerSecond: 0,
	})

	for i := 0; i < 5; i++ {
		if !rl.Allow() {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if rl.Allow() {
		t.Error("request beyond max tokens should be rejected")
	}
	if rl.Rejected() != 1 {
		t.Errorf("expected 1 rejection, got %d", rl.Rejected())
	}
}

func TestTokenBucket_RefillsOverTime(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		Name:            "test",
		Algorithm:       TokenBucket,
		MaxTokens:       2,
		RefillPerSecond: 100,
	})

	rl.Allow()
	rl.Allow()
	if rl.Allow() {
		t.Fatal("bucket should be empty")
	}

	time.Sleep(50 * time.Millisecond)

	if !rl.Allow() {
		t.Error("bucket should have refilled")
	}
}

func TestTokenBucket_RefillCapsAtMaxTokens(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		Name:            "test",
		Algorithm:       TokenBucket,
		MaxTokens:       3,
		RefillPerSecond: 1000,
	})

	time.Sleep(20 * time.Millisecond)

	allowed := 0
	for i := 0; i < 10; i++ {
		if rl.Allow() {
			allowed++
		}
	}
	if allowed != 3 {
		t.Errorf("expected 3 allowed after refill cap, got %d", allowed)
	}
}

func TestLeakyBucket_FillsToCapacity(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		Name:          "test",
		Algorithm:     LeakyBucket,
		Capacity:      4,
		LeakPerSecond: 0,
	})

	for i := 0; i < 4; i++ {
		if !rl.Allow() {
			t.Fatalf("request %d should fit in the bucket", i+1)
		}
	}
	if rl.Allow() {
		t.Error("request beyond capacity should be rejected")
	}
	if rl.Rejected() != 1 {
		t.Errorf("expected 1 rejection, got %d", rl.Rejected())
	}
}

func TestLeakyBucket_DrainsOverTime(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		Name:          "test",
		Algorithm:     LeakyBucket,
		Capacity:      2,
		LeakPerSecond: 100,
	})

	rl.Allow()
	rl.Allow()
	if rl.Allow() {
		t.Fatal("bucket should be full")
	}

	time.Sleep(50 * time.Millisecond)

	if !rl.Allow() {
		t.Error("bucket should have drained")
	}
}

func TestRateLimiter_PerClientIsolation(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		Name:            "test",
		Algorithm:       TokenBucket,
		MaxTokens:       2,
		RefillPerSecond: 0,
		PerClient:       true,
	})

	rl.AllowClient("alice")
	rl.AllowClient("alice")
	if rl.AllowClient("alice") {
		t.Error("alice should be exhausted")
	}

	// Another client gets a fresh bucket.
	if !rl.AllowClient("bob") {
		t.Error("bob should have a full bucket")
	}
	if rl.Keys() != 2 {
		t.Errorf("expected 2 tracked clients, got %d", rl.Keys())
	}
}

func TestRateLimiter_GlobalIgnoresClientKey(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		Name:            "test",
		Algorithm:       TokenBucket,
		MaxTokens:       2,
		RefillPerSecond: 0,
	})

	rl.AllowClient("alice")
	rl.AllowClient("bob")
	if rl.AllowClient("carol") {
		t.Error("global limiter should share one bucket across clients")
	}
	if rl.Keys() != 1 {
		t.Errorf("expected 1 bucket in global mode, got %d", rl.Keys())
	}
}

func TestRateLimiter_OnLimitCallback(t *testing.T) {
	var mu sync.Mutex
	var limited []string

	rl := NewRateLimiter(RateLimiterConfig{
		Name:            "api",
		Algorithm:       TokenBucket,
		MaxTokens:       1,
		RefillPerSecond: 0,
		PerClient:       true,
		OnLimit: func(name, key string) {
			mu.Lock()
			limited = append(limited, name+"/"+key)
			mu.Unlock()
		},
	})

	rl.AllowClient("alice")
	rl.AllowClient("alice")

	mu.Lock()
	defer mu.Unlock()
	if len(limited) != 1 || limited[0] != "api/alice" {
		t.Errorf("expected one callback for api/alice, got %v", limited)
	}
}

func TestRateLimiter_ConcurrentAllow(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		Name:            "test",
		Algorithm:       TokenBucket,
		MaxTokens:       100,
		RefillPerSecond: 0,
	})

	var wg sync.WaitGroup
	results := make(chan bool, 200)
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- rl.Allow()
		}()
	}
	wg.Wait()
	close(results)

	allowed := 0
	for ok := range results {
		if ok {
			allowed++
		}
	}
	if allowed != 100 {
		t.Errorf("expected exactly 100 allowed, got %d", allowed)
	}
	if rl.Rejected() != 100 {
		t.Errorf("expected 100 rejections, got %d", rl.Rejected())
	}
}

func TestAlgorithmString(t *testing.T) {
	if TokenBucket.String() != "token_bucket" {
		t.Errorf("unexpected name %q", TokenBucket.String())
	}
	if LeakyBucket.String() != "leaky_bucket" {
		t.Errorf("unexpected name %q", LeakyBucket.String())
	}
}
