// Package server provides the admin HTTP server of the kubeping agent,
// built on Gin with h2c support.
//
// # Middleware
//
// The stack (server/middleware) wraps the root handler:
//
//   - Recovery: panic recovery with structured logging
//   - RequestID: X-Request-Id generation and propagation
//   - RequestLogger: request logging, probes excluded
//   - Auth: optional static bearer token, probes excluded
//   - RateLimit: per-client limit on GET /pods
//
// # Endpoints
//
//   - GET /health: component health aggregation (503 when any is down)
//   - GET /alive, GET /ready: kubelet probes
//   - GET /version: build information
//   - GET /pods: live pod inventory with readiness verdicts
//   - GET /rounds/last: summary of the most recent discovery round
package server
