package health

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// CheckFunc probes a single dependency. A nil return means healthy.
type CheckFunc func(ctx context.Context) error

// State tracks the liveness and readiness of the service.
type State struct {
	live      atomic.Bool
	ready     atomic.Bool
	startedAt time.Time

	mu     sync.RWMutex
	checks map[string]CheckFunc
}

// NewState creates a State that is live but not yet ready.
func NewState() *State {
	s := &State{
		startedAt: time.Now(),
		checks:    make(map[string]CheckFunc),
	}
	s.live.Store(true)
	return s
}

// Live reports whether the process is alive.
func (s *State) Live() bool { return s.live.Load() }

// Ready reports whether the service should receive traffic.
func (s *State) Ready() bool { return s.ready.Load() }

// SetReady flips readiness. Called once startup completes, and again with
// false when shutdown begins.
func (s *State) SetReady(ready bool) { s.ready.Store(ready) }

// SetLive flips liveness. Only used when the process is wedged beyond repair.
func (s *State) SetLive(live bool) { s.live.Store(live) }

// Uptime returns the time since the state was created.
func (s *State) Uptime() time.Duration { return time.Since(s.startedAt) }

// RegisterCheck adds a named dependency probe consulted by RunChecks.
func (s *State) RegisterCheck(name string, fn CheckFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checks[name] = fn
}

// CheckResult is the outcome of one dependency probe.
type CheckResult struct {
	Name    string `json:"name"`
	Healthy bool   `json:"healthy"`
	Error   string `json:"error,omitempty"`
}

// RunChecks probes every registered dependency.
func (s *State) RunChecks(ctx context.Context) []CheckResult {
	s.mu.RLock()
	checks := make(map[string]CheckFunc, len(s.checks))
	for name, fn := range s.checks {
		checks[name] = fn
	}
	s.mu.RUnlock()

	results := make([]CheckResult, 0, len(checks))
	for name, fn := range checks {
		res := CheckResult{Name: name, Healthy: true}
		if err := fn(ctx); err != nil {
			res.Healthy = false
			res.Error = err.Error()
		}
		results = append(results, res)
	}
	return results
}

// Healthy reports whether every registered check passes.
func (s *State) Healthy(ctx context.Context) bool {
	for _, res := range s.RunChecks(ctx) {
		if !res.Healthy {
			return false
		}
	}
	return true
}
