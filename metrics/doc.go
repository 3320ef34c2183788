// Package metrics exposes Prometheus instrumentation for the steady service.
//
// It owns a private registry so tests can create isolated instances, and
// provides collector hooks that surface cache, circuit breaker, and rate
// limiter internals without coupling those packages to Prometheus.
package metrics
