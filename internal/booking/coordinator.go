package booking

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/teemow/leadcal/internal/apperror"
	"github.com/teemow/leadcal/internal/availability"
	"github.com/teemow/leadcal/internal/calendar"
	"github.com/teemow/leadcal/internal/logging"
)

// Coordinator books events on one calendar.
type Coordinator struct {
	provider Provider
	locker   Locker
	lockKey  string
	loc      *time.Location
	logger   *slog.Logger
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLocker replaces the default in-process lock.
func WithLocker(l Locker) Option {
	return func(c *Coordinator) {
		if l != nil {
			c.locker = l
		}
	}
}

// WithLogger sets the coordinator's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewCoordinator creates a coordinator for the calendar identified by
// calendarID. Bookings on the same calendar id are serialized.
func NewCoordinator(provider Provider, calendarID string, loc *time.Location, opts ...Option) (*Coordinator, error) {
	if provider == nil {
		return nil, fmt.Errorf("provider cannot be nil")
	}
	if loc == nil {
		return nil, fmt.Errorf("location cannot be nil")
	}
	c := &Coordinator{
		provider: provider,
		locker:   NewKeyedMutex(),
		lockKey:  calendarID,
		loc:      loc,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Location is the zone bookings are normalized to.
func (c *Coordinator) Location() *time.Location {
	return c.loc
}

// Validate checks a request and returns it normalized: trimmed summary,
// times in the coordinator's zone, and bare attendee addresses.
func (c *Coordinator) Validate(req Request) (Request, error) {
	const op = "book"

	req.Summary = strings.TrimSpace(req.Summary)
	if req.Summary == "" {
		return req, apperror.Input(op, "summary is required")
	}
	if req.Start.IsZero() || req.End.IsZero() {
		return req, apperror.Input(op, "start and end are required")
	}
	if !req.End.After(req.Start) {
		return req, apperror.Input(op, "end must be after start")
	}

	attendees := make([]string, 0, len(req.Attendees))
	for _, raw := range req.Attendees {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		addr, err := mail.ParseAddress(raw)
		if err != nil {
			return req, apperror.Input(op, "invalid attendee email %q", raw)
		}
		attendees = append(attendees, addr.Address)
	}
	req.Attendees = attendees

	req.Start = req.Start.In(c.loc)
	req.End = req.End.In(c.loc)
	if strings.TrimSpace(req.Description) == "" {
		req.Description = DefaultDescription
	}
	return req, nil
}

// Book creates the event if [req.Start, req.End) is free. A busy range
// yields a rejected Result listing the conflicting intervals and no event is
// written. Touching an existing event's boundary is not a conflict.
func (c *Coordinator) Book(ctx context.Context, req Request) (*Result, error) {
	req, err := c.Validate(req)
	if err != nil {
		return nil, err
	}

	unlock, err := c.locker.Lock(ctx, c.lockKey)
	if err != nil {
		return nil, apperror.Unavailable("book", fmt.Errorf("failed to acquire booking lock: %w", err))
	}
	defer unlock()

	requested := availability.Interval{Start: req.Start, End: req.End}
	raw, err := c.provider.QueryBusy(ctx, req.Start, req.End)
	if err != nil {
		return nil, apperror.Unavailable("book", err)
	}

	if conflicts := availability.Merge(raw, requested); len(conflicts) > 0 {
		c.logger.Info("booking rejected",
			logging.Operation("book"),
			slog.Time("start", req.Start),
			slog.Int("conflicts", len(conflicts)))
		return &Result{
			Status:    StatusRejected,
			Start:     req.Start,
			End:       req.End,
			Conflicts: conflicts,
		}, nil
	}

	event, err := c.provider.InsertEvent(ctx, calendar.EventInput{
		Summary:             req.Summary,
		Description:         req.Description,
		Start:               req.Start,
		End:                 req.End,
		Attendees:           req.Attendees,
		ConferenceRequestID: newConferenceRequestID(),
	})
	if err != nil {
		return nil, apperror.Unavailable("book", err)
	}

	c.logger.Info("booking created",
		logging.Operation("book"),
		slog.String("event_id", event.ID),
		slog.Int("attendees", len(req.Attendees)))

	return &Result{
		Status:       StatusBooked,
		EventID:      event.ID,
		MeetLink:     event.MeetLink,
		CalendarLink: event.HTMLLink,
		Start:        req.Start,
		End:          req.End,
	}, nil
}

// Details returns the projection of an existing event.
func (c *Coordinator) Details(ctx context.Context, eventID string) (*EventDetails, error) {
	eventID = strings.TrimSpace(eventID)
	if eventID == "" {
		return nil, apperror.Input("get_event", "event_id is required")
	}

	event, err := c.provider.GetEvent(ctx, eventID)
	if err != nil {
		if apperror.Is(err, apperror.KindNotFound) {
			return nil, apperror.NotFound("get_event", "event %s not found", eventID)
		}
		return nil, apperror.Unavailable("get_event", err)
	}

	return &EventDetails{
		ID:          event.ID,
		Summary:     event.Summary,
		Description: event.Description,
		Start:       event.Start.In(c.loc),
		End:         event.End.In(c.loc),
		Attendees:   event.Attendees,
		MeetLink:    event.MeetLink,
		HTMLLink:    event.HTMLLink,
	}, nil
}

func newConferenceRequestID() string {
	return "meet-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
