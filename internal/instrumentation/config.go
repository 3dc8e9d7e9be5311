package instrumentation

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds the configuration for OpenTelemetry instrumentation.
type Config struct {
	ServiceName    string
	ServiceVersion string
	// InstanceID identifies this process; the hostname is used when empty.
	InstanceID string
	// Environment is the deployment (production or development) and is
	// attached to every exported resource.
	Environment string

	// Enabled turns metrics and tracing on. When false the provider hands
	// out a no-op Metrics.
	Enabled bool

	// MetricsExporter is one of prometheus, otlp or stdout.
	MetricsExporter string
	// TracingExporter is one of otlp, stdout or none.
	TracingExporter string

	// OTLPEndpoint is host:port of the collector, without scheme.
	OTLPEndpoint string
	// OTLPInsecure disables TLS towards the collector. Development only.
	OTLPInsecure bool

	// TraceSamplingRate is the parent-based ratio in [0, 1].
	TraceSamplingRate float64

	// DetailedLabels attaches the calendar id to booking metrics.
	DetailedLabels bool

	AuditLogging AuditLoggingConfig
}

// AuditLoggingConfig controls the per-tool audit log.
type AuditLoggingConfig struct {
	Enabled bool
	// IncludePII logs lead emails and phone numbers in full. Otherwise only
	// the email domain and the last four phone digits are written.
	IncludePII bool
}

// DefaultConfig reads the instrumentation settings from the environment.
func DefaultConfig() Config {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("OTEL_SERVICE_NAME", "leadcal")
	v.SetDefault("OTEL_SERVICE_INSTANCE_ID", "")
	v.SetDefault("ENVIRONMENT", "production")
	v.SetDefault("INSTRUMENTATION_ENABLED", true)
	v.SetDefault("METRICS_EXPORTER", ExporterPrometheus)
	v.SetDefault("TRACING_EXPORTER", ExporterNone)
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", false)
	v.SetDefault("OTEL_TRACES_SAMPLER_ARG", 0.1)
	v.SetDefault("METRICS_DETAILED_LABELS", false)
	v.SetDefault("AUDIT_LOGGING_ENABLED", true)
	v.SetDefault("AUDIT_LOGGING_INCLUDE_PII", false)

	return Config{
		ServiceName:       v.GetString("OTEL_SERVICE_NAME"),
		ServiceVersion:    "unknown",
		InstanceID:        v.GetString("OTEL_SERVICE_INSTANCE_ID"),
		Environment:       strings.ToLower(v.GetString("ENVIRONMENT")),
		Enabled:           v.GetBool("INSTRUMENTATION_ENABLED"),
		MetricsExporter:   strings.ToLower(v.GetString("METRICS_EXPORTER")),
		TracingExporter:   strings.ToLower(v.GetString("TRACING_EXPORTER")),
		OTLPEndpoint:      v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT"),
		OTLPInsecure:      v.GetBool("OTEL_EXPORTER_OTLP_INSECURE"),
		TraceSamplingRate: v.GetFloat64("OTEL_TRACES_SAMPLER_ARG"),
		DetailedLabels:    v.GetBool("METRICS_DETAILED_LABELS"),
		AuditLogging: AuditLoggingConfig{
			Enabled:    v.GetBool("AUDIT_LOGGING_ENABLED"),
			IncludePII: v.GetBool("AUDIT_LOGGING_INCLUDE_PII"),
		},
	}
}

// Validate checks exporter names, the sampling rate and that an OTLP
// exporter has an endpoint.
func (c *Config) Validate() error {
	if c.TraceSamplingRate < 0 || c.TraceSamplingRate > 1 {
		return fmt.Errorf("trace sampling rate must be between 0.0 and 1.0, got %g", c.TraceSamplingRate)
	}

	switch c.MetricsExporter {
	case "", ExporterPrometheus, ExporterOTLP, ExporterStdout:
	default:
		return fmt.Errorf("invalid metrics exporter %q, must be one of: prometheus, otlp, stdout", c.MetricsExporter)
	}

	switch c.TracingExporter {
	case "", ExporterOTLP, ExporterStdout, ExporterNone:
	default:
		return fmt.Errorf("invalid tracing exporter %q, must be one of: otlp, stdout, none", c.TracingExporter)
	}

	if c.OTLPEndpoint == "" && (c.MetricsExporter == ExporterOTLP || c.TracingExporter == ExporterOTLP) {
		return fmt.Errorf("OTEL_EXPORTER_OTLP_ENDPOINT is required for the otlp exporter")
	}
	return nil
}
