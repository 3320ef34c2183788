package resilience

import (
	"context"
	"errors"
	"sync"
	"time"
)

// CircuitState represents the circuit breaker state.
type CircuitState int

const (
	// StateClosed allows requests to pass through.
	StateClosed CircuitState = iota
	// StateOpen rejects all requests without invoking the operation.
	StateOpen
	// StateHalfOpen allows probe requests to test recovery.
	StateHalfOpen
)

// String returns the state name.
func (s CircuitState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrOpenCircuit is returned by Call when the circuit is open; the wrapped
// operation is never invoked in that case.
var ErrOpenCircuit = errors.New("circuit breaker is open")

// CircuitBreakerConfig configures a circuit breaker.
type CircuitBreakerConfig struct {
	// Name identifies this circuit breaker for metrics/logging.
	Name string
	// FailureThreshold is the number of consecutive failures in the closed
	// state before the circuit opens.
	FailureThreshold int
	// Timeout is how long the circuit stays open before CheckTimeout may
	// move it to half-open.
	Timeout time.Duration
	// SuccessThreshold is the number of successes in half-open needed to
	// close the circuit.
	SuccessThreshold int
	// OnStateChange is called when the state changes.
	OnStateChange func(name string, from, to CircuitState)
}

// DefaultCircuitBreakerConfig returns sensible defaults.
func DefaultCircuitBreakerConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:             name,
		FailureThreshold: 5,
		Timeout:          60 * time.Second,
		SuccessThreshold: 1,
	}
}

// CircuitBreaker implements the circuit breaker pattern.
//
// States:
//   - Closed: normal operation, requests pass through
//   - Open: dependency is unhealthy, requests fail immediately
//   - Half-Open: probing for recovery, requests pass through
//
// The open-to-half-open transition is not timer driven: callers must invoke
// CheckTimeout periodically (or before Call); a breaker whose CheckTimeout is
// never called stays open forever.
type CircuitBreaker struct {
	config CircuitBreakerConfig

	mu            sync.Mutex
	state         CircuitState
	failures      int
	successes     int
	lastFailureAt time.Time
}

// NewCircuitBreaker creates a new circuit breaker in the closed state.
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	if config.FailureThreshold <= 0 {
		config.FailureThreshold = 5
	}
	if config.Timeout <= 0 {
		config.Timeout = 60 * time.Second
	}
	if config.SuccessThreshold <= 0 {
		config.SuccessThreshold = 1
	}

	return &CircuitBreaker{
		config: config,
		state:  StateClosed,
	}
}

// Call runs fn through the circuit breaker. If the circuit is open it returns
// ErrOpenCircuit without invoking fn; otherwise fn's error is returned
// unchanged after the breaker records the outcome. Half-open probes are not
// limited: every caller that observes the half-open state may run fn.
func (cb *CircuitBreaker) Call(ctx context.Context, fn func(ctx context.Context) error) error {
	cb.mu.Lock()
	if cb.state == StateOpen {
		cb.mu.Unlock()
		return ErrOpenCircuit
	}
	cb.mu.Unlock()

	err := fn(ctx)
	if err != nil {
		cb.onFailure()
		return err
	}
	cb.onSuccess()
	return nil
}

// CallResult runs a function that returns a value through the circuit breaker.
func CallResult[T any](cb *CircuitBreaker, ctx context.Context, fn func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := cb.Call(ctx, func(ctx context.Context) error {
		var fnErr error
		result, fnErr = fn(ctx)
		return fnErr
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}

// State returns a read-only snapshot of the current state.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Failures returns the current consecutive failure count.
func (cb *CircuitBreaker) Failures() int {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.failures
}

// CheckTimeout transitions the circuit from open to half-open once Timeout
// has elapsed since the last failure. It reports whether a transition
// happened. Callers drive this from a periodic tick or lazily before Call.
func (cb *CircuitBreaker) CheckTimeout() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state != StateOpen {
		return false
	}
	if time.Since(cb.lastFailureAt) < cb.config.Timeout {
		return false
	}
	cb.toState(StateHalfOpen)
	return true
}

// ForceOpen administratively opens the circuit.
func (cb *CircuitBreaker) ForceOpen() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.lastFailureAt = time.Now()
	cb.toState(StateOpen)
}

// ForceClose administratively closes the circuit and resets all counters.
func (cb *CircuitBreaker) ForceClose() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.lastFailureAt = time.Time{}
	cb.toState(StateClosed)
	cb.failures = 0
	cb.successes = 0
}

func (cb *CircuitBreaker) onSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		cb.failures = 0
	case StateHalfOpen:
		cb.successes++
		if cb.successes >= cb.config.SuccessThreshold {
			cb.toState(StateClosed)
		}
	case StateOpen:
		// Operation raced a ForceOpen; the result is ignored.
	}
}

func (cb *CircuitBreaker) onFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures++

	switch cb.state {
	case StateClosed:
		if cb.failures >= cb.config.FailureThreshold {
			cb.lastFailureAt = time.Now()
			cb.toState(StateOpen)
		}
	case StateHalfOpen:
		cb.lastFailureAt = time.Now()
		cb.toState(StateOpen)
	case StateOpen:
	}
}

// toState transitions to a new state, resetting counters. Caller holds mu.
func (cb *CircuitBreaker) toState(to CircuitState) {
	if cb.state == to {
		return
	}

	from := cb.state
	cb.state = to

	switch to {
	case StateClosed, StateOpen:
		cb.failures = 0
		cb.successes = 0
	case StateHalfOpen:
		cb.successes = 0
	}

	if cb.config.OnStateChange != nil {
		cb.config.OnStateChange(cb.config.Name, from, to)
	}
}
