package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastRetryConfig(attempts int) RetryConfig {
	return RetryConfig{
		MaxAttempts:  attempts,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
		Exponential:  true,
	}
}

func TestRetry_SucceedsFirstAttempt(t *testing.T) {
	calls := 0
	v, err := Retry(context.Background(), fastRetryConfig(3), func(ctx context.Context) (string, error) {
		calls++
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != "ok" {
		t.Errorf("expected ok, got %q", v)
	}
	if calls != 1 {
		t.Errorf("expected 1 invocation, got %d", calls)
	}
}

func TestRetry_SucceedsAfterFailures(t *testing.T) {
	calls := 0
	v, err := Retry(context.Background(), fastRetryConfig(5), func(ctx context.Context) (int, error) {
		calls++
		if calls <= 2 {
			return 0, errBackend
		}
		return 7, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 7 {
		t.Errorf("expected 7, got %d", v)
	}
	// Two failures then success: three invocations total.
	if calls != 3 {
		t.Errorf("expected 3 invocations, got %d", calls)
	}
}

func TestRetry_AllAttemptsFail(t *testing.T) {
	calls := 0
	_, err := Retry(context.Background(), fastRetryConfig(4), func(ctx context.Context) (int, error) {
		calls++
		return 0, errBackend
	})
	if calls != 4 {
		t.Errorf("expected 4 invocations, got %d", calls)
	}

	var attempts *AttemptsError
	if !errors.As(err, &attempts) {
		t.Fatalf("expected AttemptsError, got %v", err)
	}
	if len(attempts.Errors) != 4 {
		t.Errorf("expected 4 recorded errors, got %d", len(attempts.Errors))
	}
	if !errors.Is(err, errBackend) {
		t.Error("AttemptsError should unwrap to the underlying failures")
	}
}

func TestRetry_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	_, err := Retry(ctx, fastRetryConfig(3), func(ctx context.Context) (int, error) {
		calls++
		return 0, errBackend
	})
	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}
	if calls != 0 {
		t.Errorf("expected 0 invocations after cancellation, got %d", calls)
	}
}

func TestRetry_ContextCancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	cfg := RetryConfig{
		MaxAttempts:  3,
		InitialDelay: time.Second,
		MaxDelay:     time.Second,
	}

	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := Retry(ctx, cfg, func(ctx context.Context) (int, error) {
		return 0, errBackend
	})
	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("backoff sleep did not observe cancellation, took %s", elapsed)
	}
}

func TestRetryWithCancel_PredicateStopsRetrying(t *testing.T) {
	calls := 0
	_, err := RetryWithCancel(context.Background(), fastRetryConfig(5),
		func(ctx context.Context) (int, error) {
			calls++
			return 0, errBackend
		},
		func() bool { return calls >= 2 },
	)
	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 invocations before cancel, got %d", calls)
	}
}

func TestRetryFunc(t *testing.T) {
	calls := 0
	err := RetryFunc(context.Background(), fastRetryConfig(3), func(ctx context.Context) error {
		calls++
		if calls < 2 {
			return errBackend
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 invocations, got %d", calls)
	}
}

func TestBackoffDelay_Exponential(t *testing.T) {
	cfg := RetryConfig{
		MaxAttempts:  10,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     time.Second,
		Multiplier:   2.0,
		Exponential:  true,
	}

	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{3, 400 * time.Millisecond},
		{4, 800 * time.Millisecond},
		{5, time.Second},
		{8, time.Second},
	}
	for _, tc := range cases {
		if got := backoffDelay(tc.attempt, cfg); got != tc.want {
			t.Errorf("attempt %d: expected %s, got %s", tc.attempt, tc.want, got)
		}
	}
}

func TestBackoffDelay_ConstantWhenNotExponential(t *testing.T) {
	cfg := RetryConfig{
		MaxAttempts:  5,
		InitialDelay: 50 * time.Millisecond,
		MaxDelay:     time.Second,
		Multiplier:   2.0,
	}

	for attempt := 1; attempt <= 5; attempt++ {
		if got := backoffDelay(attempt, cfg); got != 50*time.Millisecond {
			t.Errorf("attempt %d: expected 50ms, got %s", attempt, got)
		}
	}
}

func TestBackoffDelay_JitterNeverReducesDelay(t *testing.T) {
	cfg := RetryConfig{
		MaxAttempts:  5,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     time.Second,
		Multiplier:   2.0,
		Jitter:       0.5,
		Exponential:  true,
	}

	for i := 0; i < 100; i++ {
		got := backoffDelay(2, cfg)
		if got < 200*time.Millisecond {
			t.Fatalf("jitter reduced delay below base: %s", got)
		}
		if got > 300*time.Millisecond {
			t.Fatalf("jitter exceeded configured fraction: %s", got)
		}
	}
}
