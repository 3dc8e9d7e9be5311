package server

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/teemow/leadcal/internal/availability"
	"github.com/teemow/leadcal/internal/booking"
	"github.com/teemow/leadcal/internal/instrumentation"
	"github.com/teemow/leadcal/internal/records"
)

// DefaultToolTimeout bounds a single tool call when none is configured.
const DefaultToolTimeout = 30 * time.Second

// Services bundles the domain components the MCP tools operate on.
// Any of them may be nil; tools that need a missing service report it as
// unavailable instead of panicking.
type Services struct {
	Scheduler *availability.Scheduler
	Booking   *booking.Coordinator
	Leads     *records.Leads
	Meetings  *records.Meetings
	Projects  *records.Projects
	Catalog   *records.Catalog
}

// ServerContext holds the context for the MCP server
type ServerContext struct {
	ctx         context.Context
	cancel      context.CancelFunc
	services    Services
	calendarID  string
	toolTimeout time.Duration
	logger      *slog.Logger

	metrics     *instrumentation.Metrics
	auditLogger *instrumentation.AuditLogger

	mu       sync.RWMutex
	shutdown bool
}

// Option configures a ServerContext.
type Option func(*ServerContext)

// WithLogger sets the logger handed to tool handlers.
func WithLogger(logger *slog.Logger) Option {
	return func(sc *ServerContext) {
		if logger != nil {
			sc.logger = logger
		}
	}
}

// WithToolTimeout sets the per-call deadline applied to tool handlers.
func WithToolTimeout(d time.Duration) Option {
	return func(sc *ServerContext) {
		if d > 0 {
			sc.toolTimeout = d
		}
	}
}

// WithCalendarID records the calendar the booking tools act on.
func WithCalendarID(id string) Option {
	return func(sc *ServerContext) {
		sc.calendarID = id
	}
}

// NewServerContext creates a new server context
func NewServerContext(ctx context.Context, services Services, opts ...Option) *ServerContext {
	shutdownCtx, cancel := context.WithCancel(ctx)

	sc := &ServerContext{
		ctx:         shutdownCtx,
		cancel:      cancel,
		services:    services,
		toolTimeout: DefaultToolTimeout,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(sc)
	}
	return sc
}

// Context returns the server context
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Logger returns the server logger.
func (sc *ServerContext) Logger() *slog.Logger {
	return sc.logger
}

// CalendarID returns the calendar the booking tools act on.
func (sc *ServerContext) CalendarID() string {
	return sc.calendarID
}

// ToolTimeout returns the per-call deadline for tool handlers.
func (sc *ServerContext) ToolTimeout() time.Duration {
	return sc.toolTimeout
}

// Scheduler returns the availability scheduler.
func (sc *ServerContext) Scheduler() *availability.Scheduler {
	return sc.services.Scheduler
}

// Booking returns the booking coordinator.
func (sc *ServerContext) Booking() *booking.Coordinator {
	return sc.services.Booking
}

// Leads returns the CRM lead repository.
func (sc *ServerContext) Leads() *records.Leads {
	return sc.services.Leads
}

// Meetings returns the meeting repository.
func (sc *ServerContext) Meetings() *records.Meetings {
	return sc.services.Meetings
}

// Projects returns the project repository.
func (sc *ServerContext) Projects() *records.Projects {
	return sc.services.Projects
}

// Catalog returns the product catalog.
func (sc *ServerContext) Catalog() *records.Catalog {
	return sc.services.Catalog
}

// SetMetrics sets the metrics recorder used by instrumented tool handlers.
func (sc *ServerContext) SetMetrics(m *instrumentation.Metrics) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.metrics = m
}

// Metrics returns the metrics recorder, or nil when instrumentation is off.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.metrics
}

// SetAuditLogger sets the audit logger used by instrumented tool handlers.
func (sc *ServerContext) SetAuditLogger(al *instrumentation.AuditLogger) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.auditLogger = al
}

// AuditLogger returns the audit logger, or nil when not configured.
func (sc *ServerContext) AuditLogger() *instrumentation.AuditLogger {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.auditLogger
}

// IsShutdown returns whether the server has been shutdown
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown shuts down the server context
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	sc.cancel()
	return nil
}
