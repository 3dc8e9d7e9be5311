// Package server provides the MCP server context and the HTTP plumbing
// around it for leadcal.
//
// # Key Components
//
// ServerContext carries the domain services (availability scheduler, booking
// coordinator, CRM repositories) to tool handlers together with the metrics
// recorder, the audit logger and the per-call tool timeout.
//
// HTTPServer exposes the MCP server over the streamable HTTP transport on
// /mcp. Requests to /mcp are rate limited per client IP; the health endpoints
// are not. Every request is recorded in the HTTP metrics.
//
// HealthChecker serves /healthz (liveness), /readyz (readiness, including any
// registered dependency checks) and /healthz/detailed.
//
// MetricsServer serves Prometheus metrics on a dedicated port so operational
// metrics stay off the main listener.
package server
