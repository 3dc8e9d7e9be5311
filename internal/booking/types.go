package booking

import (
	"context"
	"time"

	"github.com/teemow/leadcal/internal/availability"
	"github.com/teemow/leadcal/internal/calendar"
)

// DefaultDescription is used when a booking request has no description.
const DefaultDescription = "Evento creado automáticamente con Meet."

// Provider is the calendar backend used for bookings.
type Provider interface {
	QueryBusy(ctx context.Context, start, end time.Time) ([]availability.Interval, error)
	InsertEvent(ctx context.Context, input calendar.EventInput) (*calendar.Event, error)
	GetEvent(ctx context.Context, eventID string) (*calendar.Event, error)
}

// Request is a booking request.
type Request struct {
	Summary     string
	Start       time.Time
	End         time.Time
	Attendees   []string
	Description string
}

// Status is the outcome of a booking attempt.
type Status string

const (
	StatusBooked   Status = "booked"
	StatusRejected Status = "rejected"
)

// Result is either a created event or the intervals that blocked it.
type Result struct {
	Status       Status
	EventID      string
	MeetLink     string
	CalendarLink string
	Start        time.Time
	End          time.Time
	Conflicts    []availability.Interval
}

// Booked reports whether the event was created.
func (r *Result) Booked() bool {
	return r.Status == StatusBooked
}

// EventDetails is the projection of an existing event.
type EventDetails struct {
	ID          string
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
	Attendees   []string
	MeetLink    string
	HTMLLink    string
}
