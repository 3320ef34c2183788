package resilience

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"
)

// ErrCancelled is returned when a retry loop is aborted before it produced a
// result, either by the cancel predicate or by context cancellation.
var ErrCancelled = errors.New("retry cancelled")

// AttemptsError is returned when every attempt failed. It carries one error
// per failed attempt, in attempt order.
type AttemptsError struct {
	Errors []error
}

// Error returns a summary of the failed attempts.
func (e *AttemptsError) Error() string {
	if len(e.Errors) == 0 {
		return "all retry attempts failed"
	}
	return fmt.Sprintf("all %d retry attempts failed, last error: %v", len(e.Errors), e.Errors[len(e.Errors)-1])
}

// Unwrap returns the per-attempt errors for errors.Is/As matching.
func (e *AttemptsError) Unwrap() []error { return e.Errors }

// RetryConfig configures retry behavior. It is stateless per invocation.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts (including the first).
	MaxAttempts int
	// InitialDelay is the delay before the first retry.
	InitialDelay time.Duration
	// MaxDelay caps the computed backoff delay.
	MaxDelay time.Duration
	// Multiplier is the factor for exponential backoff.
	Multiplier float64
	// Jitter adds a uniformly random extra delay in [0, delay*Jitter].
	// It only ever increases the delay.
	Jitter float64
	// Exponential enables exponential backoff; when false every retry waits
	// InitialDelay (plus jitter).
	Exponential bool
}

// DefaultRetryConfig returns sensible defaults.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  3,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     10 * time.Second,
		Multiplier:   2.0,
		Jitter:       0.1,
		Exponential:  true,
	}
}

func (cfg *RetryConfig) applyDefaults() {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.InitialDelay <= 0 {
		cfg.InitialDelay = 100 * time.Millisecond
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = 10 * time.Second
	}
	if cfg.Multiplier <= 0 {
		cfg.Multiplier = 2.0
	}
}

// Retry executes fn until it succeeds or cfg.MaxAttempts have failed.
// On exhaustion it returns an *AttemptsError holding every attempt's error.
// Context cancellation during the backoff sleep returns ErrCancelled.
func Retry[T any](ctx context.Context, cfg RetryConfig, fn func(ctx context.Context) (T, error)) (T, error) {
	return RetryWithCancel(ctx, cfg, fn, nil)
}

// RetryWithCancel is Retry with a polled cancellation predicate. The predicate
// is checked at the start of every iteration and again immediately before
// sleeping, so cancellation can interrupt before the wait, not only before
// the next attempt. It never interrupts an in-flight fn call.
func RetryWithCancel[T any](ctx context.Context, cfg RetryConfig, fn func(ctx context.Context) (T, error), cancel func() bool) (T, error) {
	var zero T
	cfg.applyDefaults()

	var attemptErrs []error

	for attempt := 1; ; attempt++ {
		if cancel != nil && cancel() {
			return zero, ErrCancelled
		}
		if ctx.Err() != nil {
			return zero, ErrCancelled
		}

		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		attemptErrs = append(attemptErrs, err)

		if attempt >= cfg.MaxAttempts {
			return zero, &AttemptsError{Errors: attemptErrs}
		}

		if cancel != nil && cancel() {
			return zero, ErrCancelled
		}

		delay := backoffDelay(attempt, cfg)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ErrCancelled
		case <-timer.C:
		}
	}
}

// RetryFunc executes a function that returns only an error.
func RetryFunc(ctx context.Context, cfg RetryConfig, fn func(ctx context.Context) error) error {
	_, err := Retry(ctx, cfg, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// backoffDelay computes the sleep before the retry following the given failed
// attempt (1-based). The first retry waits InitialDelay unmodified; growth
// starts from the second failure. Jitter is applied after the cap and only
// adds delay.
func backoffDelay(attempt int, cfg RetryConfig) time.Duration {
	delay := cfg.InitialDelay
	if cfg.Exponential && attempt > 1 {
		scaled := float64(cfg.InitialDelay) * math.Pow(cfg.Multiplier, float64(attempt-1))
		if scaled > float64(cfg.MaxDelay) {
			scaled = float64(cfg.MaxDelay)
		}
		delay = time.Duration(scaled)
	}

	if cfg.Jitter > 0 {
		delay += time.Duration(rand.Float64() * cfg.Jitter * float64(delay))
	}
	return delay
}
