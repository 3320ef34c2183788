// Package health tracks service liveness and readiness.
//
// Liveness reflects whether the process is able to serve at all; readiness
// reflects whether it should receive traffic. Graceful shutdown flips
// readiness off first so load balancers drain the instance before the
// listener closes.
package health
