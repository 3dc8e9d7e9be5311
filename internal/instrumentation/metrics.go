package instrumentation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys.
const (
	attrMethod    = "method"
	attrPath      = "path"
	attrStatus    = "status"
	attrOperation = "operation"
	attrService   = "service"
	attrTool      = "tool"
	attrOutcome   = "outcome"
	attrCalendar  = "calendar"
)

var (
	latencyBuckets = []float64{0.001, 0.01, 0.1, 0.5, 1, 2.5, 5, 10}
	apiBuckets     = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}
	dayBuckets     = []float64{0, 1, 2, 3, 5, 7, 10, 14}
)

// Metrics records the server's metrics. The zero value records nothing,
// which is what a disabled Provider hands out.
type Metrics struct {
	httpRequests *timed

	googleAPI *timed

	bookingOutcomes metric.Int64Counter
	availableDays   metric.Int64Histogram

	tools *timed

	// detailedLabels adds the calendar id to booking outcomes.
	detailedLabels bool
}

// timed is a counter paired with a duration histogram sharing attributes.
type timed struct {
	count    metric.Int64Counter
	duration metric.Float64Histogram
}

func (t *timed) record(ctx context.Context, d time.Duration, attrs ...attribute.KeyValue) {
	if t == nil {
		return
	}
	opt := metric.WithAttributes(attrs...)
	t.count.Add(ctx, 1, opt)
	t.duration.Record(ctx, d.Seconds(), opt)
}

// instruments creates metric instruments and collects failures.
type instruments struct {
	meter metric.Meter
	errs  []error
}

func (in *instruments) timed(name, desc, unit string, buckets []float64) *timed {
	count, err := in.meter.Int64Counter(name+"_total",
		metric.WithDescription("Total number of "+desc),
		metric.WithUnit(unit))
	if err != nil {
		in.errs = append(in.errs, fmt.Errorf("%s_total: %w", name, err))
	}
	duration, err := in.meter.Float64Histogram(name+"_duration_seconds",
		metric.WithDescription("Duration of "+desc+" in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(buckets...))
	if err != nil {
		in.errs = append(in.errs, fmt.Errorf("%s_duration_seconds: %w", name, err))
	}
	return &timed{count: count, duration: duration}
}

// NewMetrics creates the instruments on meter.
//
// Exposed series:
//   - http_requests_total, http_requests_duration_seconds
//   - google_api_operations_total, google_api_operations_duration_seconds
//   - mcp_tool_invocations_total, mcp_tool_invocations_duration_seconds
//   - booking_outcomes_total
//   - availability_days_found
func NewMetrics(meter metric.Meter, detailedLabels bool) (*Metrics, error) {
	in := &instruments{meter: meter}
	m := &Metrics{
		httpRequests:   in.timed("http_requests", "HTTP requests", "{request}", latencyBuckets),
		googleAPI:      in.timed("google_api_operations", "Google API operations", "{operation}", apiBuckets),
		tools:          in.timed("mcp_tool_invocations", "MCP tool invocations", "{invocation}", apiBuckets),
		detailedLabels: detailedLabels,
	}

	var err error
	m.bookingOutcomes, err = meter.Int64Counter("booking_outcomes_total",
		metric.WithDescription("Booking attempts by outcome"),
		metric.WithUnit("{booking}"))
	if err != nil {
		in.errs = append(in.errs, fmt.Errorf("booking_outcomes_total: %w", err))
	}
	m.availableDays, err = meter.Int64Histogram("availability_days_found",
		metric.WithDescription("Days with free slots returned per availability scan"),
		metric.WithUnit("{day}"),
		metric.WithExplicitBucketBoundaries(dayBuckets...))
	if err != nil {
		in.errs = append(in.errs, fmt.Errorf("availability_days_found: %w", err))
	}

	if len(in.errs) > 0 {
		return nil, fmt.Errorf("failed to create metrics: %w", errors.Join(in.errs...))
	}
	return m, nil
}

// RecordHTTPRequest records one served HTTP request.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, path string, statusCode int, duration time.Duration) {
	m.httpRequests.record(ctx, duration,
		attribute.String(attrMethod, method),
		attribute.String(attrPath, path),
		attribute.String(attrStatus, strconv.Itoa(statusCode)))
}

// RecordGoogleAPIOperation records a Calendar or Sheets operation performed
// on behalf of a tool.
func (m *Metrics) RecordGoogleAPIOperation(ctx context.Context, service, operation, status string, duration time.Duration) {
	m.googleAPI.record(ctx, duration,
		attribute.String(attrService, service),
		attribute.String(attrOperation, operation),
		attribute.String(attrStatus, status))
}

// RecordToolInvocation records one MCP tool call.
func (m *Metrics) RecordToolInvocation(ctx context.Context, toolName, status string, duration time.Duration) {
	m.tools.record(ctx, duration,
		attribute.String(attrTool, toolName),
		attribute.String(attrStatus, status))
}

// RecordBookingOutcome counts a booking attempt as booked, rejected or error.
func (m *Metrics) RecordBookingOutcome(ctx context.Context, outcome, calendarID string) {
	if m.bookingOutcomes == nil {
		return
	}
	attrs := []attribute.KeyValue{attribute.String(attrOutcome, outcome)}
	if m.detailedLabels && calendarID != "" {
		attrs = append(attrs, attribute.String(attrCalendar, calendarID))
	}
	m.bookingOutcomes.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordAvailabilityDays records how many days an availability scan returned.
func (m *Metrics) RecordAvailabilityDays(ctx context.Context, days int) {
	if m.availableDays == nil {
		return
	}
	m.availableDays.Record(ctx, int64(days))
}
