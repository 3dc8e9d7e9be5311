// Package instrumentation wires OpenTelemetry metrics and tracing for
// leadcal and writes the per-tool audit log.
//
// Metrics are pulled by Prometheus from the metrics server, or pushed over
// OTLP. Besides HTTP and tool call series, the recorder counts booking
// outcomes (booked, rejected, error) and the number of days each
// availability scan found.
//
// Spans are started for every tool call (tool.<name>) and for every Google
// API request (google.<service>.<method>). Trace ids are copied into audit
// records so a failed booking can be followed from the log into the trace.
//
// Configuration is read from the environment by DefaultConfig:
//
//	INSTRUMENTATION_ENABLED      default true
//	METRICS_EXPORTER             prometheus | otlp | stdout
//	TRACING_EXPORTER             none | otlp | stdout
//	OTEL_EXPORTER_OTLP_ENDPOINT  host:port of the collector
//	OTEL_TRACES_SAMPLER_ARG      sampling ratio, default 0.1
//	AUDIT_LOGGING_INCLUDE_PII    log lead emails and phones in full
package instrumentation
