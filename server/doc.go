// Package server provides the HTTP server for the steady service, built on
// Gin with HTTP/2 h2c support.
//
// The server owns the listener lifecycle: Start binds and serves, Stop drains
// gracefully, and Run wires OS signals so shutdown flips readiness off before
// the listener closes.
//
// # Middleware
//
// Built-in middleware (server/middleware):
//
//   - Recovery: panic recovery with structured logging
//   - RequestID: request ID generation and propagation
//   - CORS: cross-origin resource sharing
//   - BodySize: request body size limits
//   - Logging: request logging with duration tracking
//   - Metrics: Prometheus request instrumentation
//   - RateLimit: per-client rate limiting
//   - Concurrency: bulkhead-based load shedding
//   - Auth / RequirePermission: JWT authentication and RBAC
//
// # Endpoints
//
// Built-in endpoints (server/endpoint):
//
//   - /live: Kubernetes liveness probe
//   - /ready: Kubernetes readiness probe
//   - /health: detailed health with dependency checks
//   - /metrics: Prometheus metrics
//   - /stats: runtime and primitive statistics
//   - /version: build version information
package server
