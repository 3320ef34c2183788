// Package resilience provides patterns for protecting a service and its
// downstream dependencies from overload and cascading failure.
//
// This package includes:
//   - CircuitBreaker: fails fast when a dependency is unhealthy
//   - RateLimiter: token-bucket or leaky-bucket admission control
//   - Retry: re-invokes failing operations with backoff and jitter
//   - Bulkhead: limits concurrent access to isolate failures
//
// The primitives never call each other; composition is the caller's job:
//
//	cb := resilience.NewCircuitBreaker(resilience.DefaultCircuitBreakerConfig("backend"))
//	retryCfg := resilience.DefaultRetryConfig()
//
//	result, err := resilience.CallResult(cb, ctx, func(ctx context.Context) (string, error) {
//	    return resilience.Retry(ctx, retryCfg, fetchFromBackend)
//	})
package resilience
