package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"google.golang.org/api/option"

	"github.com/teemow/leadcal/internal/availability"
	"github.com/teemow/leadcal/internal/booking"
	"github.com/teemow/leadcal/internal/calendar"
	"github.com/teemow/leadcal/internal/config"
	"github.com/teemow/leadcal/internal/google"
	"github.com/teemow/leadcal/internal/records"
	"github.com/teemow/leadcal/internal/server"
)

// backends are the external systems the services are built on.
type backends struct {
	calendar booking.Provider
	leads    records.Store
	meetings records.Store
	projects records.Store
	catalog  records.Store
	locker   booking.Locker

	// checks are registered with the readiness probe.
	checks  map[string]server.CheckFunc
	closers []io.Closer
}

// Close releases connections held by the backends.
func (b *backends) Close() error {
	var errs []error
	for _, c := range b.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (b *backends) addCheck(name string, fn server.CheckFunc) {
	if b.checks == nil {
		b.checks = make(map[string]server.CheckFunc)
	}
	b.checks[name] = fn
}

// schemas returns the record schemas in the order stores are opened.
func schemas(cfg *config.Config) (leads, meetings, projects, catalog records.Schema) {
	return records.LeadSchema(cfg.Sheets.CRM),
		records.MeetingSchema(cfg.Sheets.Meetings),
		records.ProjectSchema(cfg.Sheets.Projects),
		records.CatalogSchema(cfg.Sheets.Catalog)
}

// openBackends connects to Google Calendar, the record spreadsheet and the
// optional Redis lock. Every sheet header is checked before serving.
func openBackends(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*backends, error) {
	b := &backends{}
	limiter := google.NewLimiter(cfg.GoogleQPS)

	calendarCreds := google.NewFileCredentials(cfg.ClientSecretFile, cfg.TokenFile, google.CalendarScopes)
	if !calendarCreds.HasToken() {
		return nil, fmt.Errorf("no calendar token at %s: run `leadcal token` first", cfg.TokenFile)
	}
	calendarHTTP, err := google.HTTPClient(ctx, calendarCreds, limiter)
	if err != nil {
		return nil, fmt.Errorf("failed to authorize calendar access: %w", err)
	}
	calendarClient, err := calendar.NewClient(ctx, cfg.CalendarID, cfg.Location, option.WithHTTPClient(calendarHTTP))
	if err != nil {
		return nil, err
	}
	b.calendar = calendarClient.WithLogger(logger)

	leadSchema, meetingSchema, projectSchema, catalogSchema := schemas(cfg)
	if cfg.UseSheets() {
		sheetsCreds := google.NewServiceAccountCredentials(cfg.ServiceAccountFile, google.SheetsScopes)
		sheetsHTTP, err := google.HTTPClient(ctx, sheetsCreds, limiter)
		if err != nil {
			return nil, fmt.Errorf("failed to authorize spreadsheet access: %w", err)
		}
		svc, err := records.NewSheetsService(ctx, option.WithHTTPClient(sheetsHTTP))
		if err != nil {
			return nil, err
		}

		open := func(schema records.Schema) (records.Store, error) {
			store, err := records.NewSheetsStore(svc, cfg.SpreadsheetID, schema)
			if err != nil {
				return nil, err
			}
			if err := store.Validate(ctx); err != nil {
				return nil, fmt.Errorf("sheet %q: %w", schema.Sheet, err)
			}
			b.addCheck("sheet:"+schema.Sheet, store.Validate)
			return store, nil
		}
		if b.leads, err = open(leadSchema); err != nil {
			return nil, err
		}
		if b.meetings, err = open(meetingSchema); err != nil {
			return nil, err
		}
		if b.projects, err = open(projectSchema); err != nil {
			return nil, err
		}
		if b.catalog, err = open(catalogSchema); err != nil {
			return nil, err
		}
	} else {
		logger.Warn("no spreadsheet configured, records are kept in memory",
			slog.String("environment", cfg.Environment))
		b.leads = records.NewMemoryStore(leadSchema)
		b.meetings = records.NewMemoryStore(meetingSchema)
		b.projects = records.NewMemoryStore(projectSchema)
		b.catalog = records.NewMemoryStore(catalogSchema)
	}

	if cfg.BookingLock.Enabled() {
		rdb, err := booking.NewRedisClient(ctx, cfg.BookingLock.Addr, cfg.BookingLock.Password)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, rdb)
		b.locker = booking.NewRedisLocker(rdb, cfg.BookingLock.TTL, "leadcal:booking", logger)
		b.addCheck("redis", func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
		logger.Info("booking lock uses redis", slog.String("addr", cfg.BookingLock.Addr))
	} else {
		b.locker = booking.NewKeyedMutex()
	}

	return b, nil
}

// newServices builds the domain services on top of b.
func newServices(cfg *config.Config, b *backends, logger *slog.Logger) (server.Services, error) {
	scheduler, err := availability.NewSchedulerWithLogger(b.calendar, cfg.SchedulerSettings(), logger)
	if err != nil {
		return server.Services{}, fmt.Errorf("failed to create scheduler: %w", err)
	}

	coordinator, err := booking.NewCoordinator(b.calendar, cfg.CalendarID, cfg.Location,
		booking.WithLocker(b.locker),
		booking.WithLogger(logger))
	if err != nil {
		return server.Services{}, fmt.Errorf("failed to create booking coordinator: %w", err)
	}

	return server.Services{
		Scheduler: scheduler,
		Booking:   coordinator,
		Leads:     records.NewLeads(b.leads, cfg.Location),
		Meetings:  records.NewMeetings(b.meetings, cfg.Location),
		Projects:  records.NewProjects(b.projects, cfg.Location),
		Catalog:   records.NewCatalog(b.catalog),
	}, nil
}
