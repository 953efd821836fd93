// Package server provides the HTTP server of the scheduler service: a Gin
// engine mounted on a root ServeMux and served over HTTP/2 cleartext.
//
// # Middleware
//
// Every request passes through the net/http middleware chain in
// server/middleware:
//
//   - Recovery: Panic recovery with structured logging
//   - RequestID: Request ID generation and propagation
//   - BodySizeLimit: Request body size limits
//   - RequestLogger: Request logging with duration tracking
//
// # Endpoints
//
// RegisterDefaultEndpoints mounts the handlers of server/endpoint:
//
//   - /health: Health check aggregation over observability.HealthChecker
//   - /info: Service and build information
//   - /version: Build version information
//   - /metrics: Runtime memory and goroutine statistics
package server
