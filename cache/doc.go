// Package cache provides an in-memory TTL cache with stampede protection.
//
// The cache bounds its size by evicting the oldest entry on insert, spreads
// refresh load ahead of hard expiry via probabilistic early expiration, and
// coalesces concurrent loads for a missing key into a single computation:
//
//	c := cache.New[string](cache.DefaultConfig())
//	v, err := c.GetOrCompute(ctx, "user:42", func(ctx context.Context) (string, time.Duration, error) {
//	    u, err := fetchUser(ctx, 42)
//	    return u, 5 * time.Minute, err
//	})
//
// All goroutines requesting the same missing key while a computation is in
// flight receive the value produced by that single computation.
package cache
