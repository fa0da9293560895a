// Package observability groups the logging, metrics and tracing packages.
//
//   - logging: slog constructors and context propagation
//   - metrics: Prometheus collectors and recorders
//   - tracing: OpenTelemetry provider setup and HTTP middleware
package observability
