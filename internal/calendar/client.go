package calendar

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/teemow/leadcal/internal/apperror"
	"github.com/teemow/leadcal/internal/availability"
	"github.com/teemow/leadcal/internal/instrumentation"
	"github.com/teemow/leadcal/internal/logging"
)

// ServiceName labels calendar operations in metrics and spans.
const ServiceName = "calendar"

// Client wraps the Google Calendar service for one calendar.
type Client struct {
	svc        *calendar.Service
	calendarID string
	loc        *time.Location
	logger     *slog.Logger
}

// NewClient creates a Calendar client for calendarID. Times returned by the
// client are expressed in loc.
func NewClient(ctx context.Context, calendarID string, loc *time.Location, opts ...option.ClientOption) (*Client, error) {
	if calendarID == "" {
		return nil, fmt.Errorf("calendar id cannot be empty")
	}
	if loc == nil {
		return nil, fmt.Errorf("location cannot be nil")
	}

	svc, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Calendar service: %w", err)
	}

	return &Client{
		svc:        svc,
		calendarID: calendarID,
		loc:        loc,
		logger:     slog.Default(),
	}, nil
}

// WithLogger sets the client's logger.
func (c *Client) WithLogger(logger *slog.Logger) *Client {
	if logger != nil {
		c.logger = logger
	}
	return c
}

// CalendarID returns the calendar this client operates on.
func (c *Client) CalendarID() string {
	return c.calendarID
}

// Location returns the client's time zone.
func (c *Client) Location() *time.Location {
	return c.loc
}

// QueryBusy returns the busy intervals of the calendar within [start, end).
// Entries the API returns with unparsable times are skipped.
func (c *Client) QueryBusy(ctx context.Context, start, end time.Time) ([]availability.Interval, error) {
	ctx, span := instrumentation.StartGoogleAPISpan(ctx, ServiceName, "freebusy.query")
	defer span.End()

	query := &calendar.FreeBusyRequest{
		TimeMin:  start.In(c.loc).Format(time.RFC3339),
		TimeMax:  end.In(c.loc).Format(time.RFC3339),
		TimeZone: c.loc.String(),
		Items:    []*calendar.FreeBusyRequestItem{{Id: c.calendarID}},
	}

	result, err := c.svc.Freebusy.Query(query).Context(ctx).Do()
	if err != nil {
		err = classify("query_busy", err)
		instrumentation.SetSpanError(span, err)
		return nil, err
	}

	cal, ok := result.Calendars[c.calendarID]
	if !ok {
		return nil, nil
	}
	if len(cal.Errors) > 0 {
		reason := cal.Errors[0].Reason
		if reason == "notFound" {
			return nil, apperror.NotFound("query_busy", "calendar %s not found", c.calendarID)
		}
		return nil, apperror.Unavailable("query_busy", fmt.Errorf("calendar %s: %s", c.calendarID, reason))
	}

	busy := make([]availability.Interval, 0, len(cal.Busy))
	for _, period := range cal.Busy {
		s, errS := time.Parse(time.RFC3339, period.Start)
		e, errE := time.Parse(time.RFC3339, period.End)
		if errS != nil || errE != nil {
			c.logger.Debug("skipping unparsable busy period",
				logging.Operation("query_busy"),
				slog.String("start", period.Start),
				slog.String("end", period.End))
			continue
		}
		busy = append(busy, availability.Interval{Start: s.In(c.loc), End: e.In(c.loc)})
	}

	instrumentation.SetSpanSuccess(span)
	return busy, nil
}

// InsertEvent creates an event and, when input.ConferenceRequestID is set,
// a Google Meet conference for it.
func (c *Client) InsertEvent(ctx context.Context, input EventInput) (*Event, error) {
	ctx, span := instrumentation.StartGoogleAPISpan(ctx, ServiceName, "events.insert")
	defer span.End()

	tz := c.loc.String()
	event := &calendar.Event{
		Summary:     input.Summary,
		Description: input.Description,
		Start: &calendar.EventDateTime{
			DateTime: input.Start.In(c.loc).Format(time.RFC3339),
			TimeZone: tz,
		},
		End: &calendar.EventDateTime{
			DateTime: input.End.In(c.loc).Format(time.RFC3339),
			TimeZone: tz,
		},
	}

	for _, email := range input.Attendees {
		event.Attendees = append(event.Attendees, &calendar.EventAttendee{Email: email})
	}

	call := c.svc.Events.Insert(c.calendarID, event)
	if input.ConferenceRequestID != "" {
		event.ConferenceData = &calendar.ConferenceData{
			CreateRequest: &calendar.CreateConferenceRequest{
				RequestId: input.ConferenceRequestID,
				ConferenceSolutionKey: &calendar.ConferenceSolutionKey{
					Type: ConferenceSolutionMeet,
				},
			},
		}
		call = call.ConferenceDataVersion(1)
	}

	created, err := call.Context(ctx).Do()
	if err != nil {
		err = classify("insert_event", err)
		instrumentation.SetSpanError(span, err)
		return nil, err
	}

	ev := toEvent(created, c.loc)
	instrumentation.SetSpanSuccess(span)
	return &ev, nil
}

// GetEvent retrieves an event by id.
func (c *Client) GetEvent(ctx context.Context, eventID string) (*Event, error) {
	ctx, span := instrumentation.StartGoogleAPISpan(ctx, ServiceName, "events.get")
	defer span.End()

	event, err := c.svc.Events.Get(c.calendarID, eventID).Context(ctx).Do()
	if err != nil {
		err = classify("get_event", err)
		instrumentation.SetSpanError(span, err)
		return nil, err
	}

	ev := toEvent(event, c.loc)
	instrumentation.SetSpanSuccess(span)
	return &ev, nil
}
