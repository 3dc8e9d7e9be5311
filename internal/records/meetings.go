package records

import (
	"context"
	"strings"
	"time"

	"github.com/teemow/leadcal/internal/apperror"
)

// Meeting sheet columns. The id is the calendar event id.
const (
	MeetingID           Field = "Id"
	MeetingSubject      Field = "Asunto"
	MeetingDetails      Field = "Detalles"
	MeetingStart        Field = "Fecha Inicio"
	MeetingMeetLink     Field = "Meet_Link"
	MeetingCalendarLink Field = "Calendar_Link"
	MeetingStatus       Field = "Estado"
	MeetingCreatedAt    Field = "Fecha Creada"
	MeetingClientID     Field = "Id Cliente"
)

// DefaultMeetingStatus is set on new meetings.
const DefaultMeetingStatus = "Programada"

// MeetingSchema returns the schema of the meetings sheet.
func MeetingSchema(sheet string) Schema {
	return Schema{
		Sheet: sheet,
		Key:   MeetingID,
		Fields: []Field{
			MeetingID, MeetingSubject, MeetingDetails, MeetingStart, MeetingMeetLink,
			MeetingCalendarLink, MeetingStatus, MeetingCreatedAt, MeetingClientID,
		},
	}
}

// Meetings manages the meeting log.
type Meetings struct {
	store Store
	loc   *time.Location
	now   func() time.Time
}

// NewMeetings creates a meeting repository.
func NewMeetings(store Store, loc *time.Location) *Meetings {
	return &Meetings{store: store, loc: loc, now: time.Now}
}

// NewMeeting is the input for Create.
type NewMeeting struct {
	EventID      string
	Subject      string
	Start        time.Time
	ClientID     string
	Details      string
	MeetLink     string
	CalendarLink string
	Status       string
}

// Create records a booked meeting.
func (m *Meetings) Create(ctx context.Context, in NewMeeting) (Record, error) {
	if in.EventID == "" || strings.TrimSpace(in.Subject) == "" || in.Start.IsZero() || strings.TrimSpace(in.ClientID) == "" {
		return nil, apperror.Input("create_meeting_record", "event id, subject, start and client id are required")
	}
	status := in.Status
	if status == "" {
		status = DefaultMeetingStatus
	}
	rec := Record{
		MeetingID:           in.EventID,
		MeetingSubject:      strings.TrimSpace(in.Subject),
		MeetingDetails:      in.Details,
		MeetingStart:        in.Start.In(m.loc).Format(TimestampLayout),
		MeetingMeetLink:     in.MeetLink,
		MeetingCalendarLink: in.CalendarLink,
		MeetingStatus:       status,
		MeetingCreatedAt:    m.now().In(m.loc).Format(TimestampLayout),
		MeetingClientID:     strings.TrimSpace(in.ClientID),
	}
	if _, err := m.store.Insert(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Get returns the meeting with the given event id.
func (m *Meetings) Get(ctx context.Context, id string) (Record, error) {
	return getByKey(ctx, m.store, "get_meeting", "meeting", id)
}

// ListByClient returns the meetings of a client.
func (m *Meetings) ListByClient(ctx context.Context, clientID string) ([]Record, error) {
	return listByField(ctx, m.store, "list_client_meetings", MeetingClientID, clientID)
}

// ListByDate returns the meetings starting on date. Only the first ten
// characters (YYYY-MM-DD) of date are compared.
func (m *Meetings) ListByDate(ctx context.Context, date string) ([]Record, error) {
	return listByDatePrefix(ctx, m.store, "list_meetings_by_date", MeetingStart, date)
}

// Update writes fields of a meeting. Keys must be column names.
func (m *Meetings) Update(ctx context.Context, id string, fields map[string]any) ([]Field, error) {
	return updateByKey(ctx, m.store, "update_meeting", "meeting", id, fields)
}

// Delete removes a meeting row.
func (m *Meetings) Delete(ctx context.Context, id string) error {
	return deleteByKey(ctx, m.store, "delete_meeting", "meeting", id)
}

func getByKey(ctx context.Context, store Store, op, noun, id string) (Record, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.Input(op, "%s id is required", noun)
	}
	rec, found, err := store.Find(ctx, FieldEquals(store.Schema().Key, id))
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, apperror.NotFound(op, "%s with id %q not found", noun, id)
	}
	return rec, nil
}

func listByField(ctx context.Context, store Store, op string, f Field, value string) ([]Record, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, apperror.Input(op, "%s is required", f)
	}
	return store.FindAll(ctx, FieldEquals(f, value))
}

func listByDatePrefix(ctx context.Context, store Store, op string, f Field, date string) ([]Record, error) {
	date = strings.TrimSpace(date)
	if len(date) < len(DateLayout) {
		return nil, apperror.Input(op, "date must be formatted as %s", DateLayout)
	}
	day := date[:len(DateLayout)]
	if _, err := time.Parse(DateLayout, day); err != nil {
		return nil, apperror.Input(op, "date must be formatted as %s", DateLayout)
	}
	return store.FindAll(ctx, func(r Record) bool {
		return strings.HasPrefix(r[f], day)
	})
}

func updateByKey(ctx context.Context, store Store, op, noun, id string, args map[string]any) ([]Field, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.Input(op, "%s id is required", noun)
	}
	fields, err := store.Schema().FieldsFromArgs(op, args)
	if err != nil {
		return nil, err
	}
	written, err := store.Update(ctx, id, fields)
	if err != nil {
		if apperror.Is(err, apperror.KindNotFound) {
			return nil, apperror.NotFound(op, "%s with id %q not found", noun, id)
		}
		return nil, err
	}
	return written, nil
}

func deleteByKey(ctx context.Context, store Store, op, noun, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return apperror.Input(op, "%s id is required", noun)
	}
	deleted, err := store.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return apperror.NotFound(op, "%s with id %q not found", noun, id)
	}
	return nil
}
