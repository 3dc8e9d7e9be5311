package instrumentation

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/teemow/leadcal/internal/logging"
)

// ToolInvocation is one audited MCP tool call.
type ToolInvocation struct {
	Tool      string
	Service   string
	Operation string

	// ClientID is the CRM row the call acted on, if known.
	ClientID string
	// Contact is the lead email or phone named in the arguments. It is PII
	// and only logged in full when the audit log is configured to.
	Contact string

	Start    time.Time
	Duration time.Duration
	Status   string
	Error    string

	TraceID string
	SpanID  string
}

// StartToolInvocation begins timing a call and captures the current span.
func StartToolInvocation(ctx context.Context, tool string) *ToolInvocation {
	ti := &ToolInvocation{Tool: tool, Start: time.Now()}
	ti.TraceID, ti.SpanID = spanIDs(ctx)
	return ti
}

// Finish stops the clock. err may be nil for calls that failed with a tool
// error result rather than a Go error.
func (ti *ToolInvocation) Finish(status string, err error) {
	ti.Duration = time.Since(ti.Start)
	ti.Status = status
	if err != nil {
		ti.Error = err.Error()
	}
}

// Succeeded reports whether the call finished with StatusSuccess.
func (ti *ToolInvocation) Succeeded() bool {
	return ti.Status == StatusSuccess
}

// RedactedContact returns the email domain, or the masked phone number.
func (ti *ToolInvocation) RedactedContact() string {
	if strings.Contains(ti.Contact, "@") {
		return logging.ExtractDomain(ti.Contact)
	}
	return logging.MaskPhone(ti.Contact)
}

func (ti *ToolInvocation) logArgs(includePII bool) []any {
	args := []any{
		logging.Tool(ti.Tool),
		logging.Status(ti.Status),
		slog.Duration(logging.KeyDuration, ti.Duration),
	}
	optional := func(key, value string) {
		if value != "" {
			args = append(args, slog.String(key, value))
		}
	}
	optional(logging.KeyService, ti.Service)
	optional(logging.KeyOperation, ti.Operation)
	optional(logging.KeyClientID, ti.ClientID)
	if includePII {
		optional("contact", ti.Contact)
	} else {
		optional("contact", ti.RedactedContact())
	}
	optional("trace_id", ti.TraceID)
	optional("span_id", ti.SpanID)
	optional(logging.KeyError, ti.Error)
	return args
}

// AuditLogger writes one record per tool call.
type AuditLogger struct {
	logger *slog.Logger
	config AuditLoggingConfig
}

// NewAuditLogger returns an audit logger writing to logger, or to the
// default logger when nil.
func NewAuditLogger(logger *slog.Logger, config AuditLoggingConfig) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{logger: logger, config: config}
}

// Log records ti as "tool_executed" or, on failure, "tool_failed" at warn
// level. A nil or disabled logger does nothing.
func (al *AuditLogger) Log(ti *ToolInvocation) {
	if al == nil || !al.config.Enabled || ti == nil {
		return
	}
	args := ti.logArgs(al.config.IncludePII)
	if ti.Succeeded() {
		al.logger.Info("tool_executed", args...)
		return
	}
	al.logger.Warn("tool_failed", args...)
}
