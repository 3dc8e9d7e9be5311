package calendar_tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/leadcal/internal/apperror"
	"github.com/teemow/leadcal/internal/availability"
	"github.com/teemow/leadcal/internal/booking"
	"github.com/teemow/leadcal/internal/calendar"
	"github.com/teemow/leadcal/internal/records"
	"github.com/teemow/leadcal/internal/server"
	"github.com/teemow/leadcal/internal/tools/common"
)

var cot = time.FixedZone("COT", -5*60*60)

// fakeCalendar serves busy time and stores inserted events in memory.
type fakeCalendar struct {
	mu       sync.Mutex
	busy     []availability.Interval
	events   map[string]*calendar.Event
	inserted []calendar.EventInput
	queryErr error
}

func newFakeCalendar(busy ...availability.Interval) *fakeCalendar {
	return &fakeCalendar{busy: busy, events: make(map[string]*calendar.Event)}
}

func (f *fakeCalendar) QueryBusy(_ context.Context, start, end time.Time) ([]availability.Interval, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	window := availability.Interval{Start: start, End: end}
	var out []availability.Interval
	for _, b := range f.busy {
		if b.Overlaps(window) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeCalendar) InsertEvent(_ context.Context, in calendar.EventInput) (*calendar.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := fmt.Sprintf("evt%d", len(f.inserted)+1)
	f.inserted = append(f.inserted, in)
	f.busy = append(f.busy, availability.Interval{Start: in.Start, End: in.End})
	ev := &calendar.Event{
		ID:          id,
		Summary:     in.Summary,
		Description: in.Description,
		Start:       in.Start.UTC(),
		End:         in.End.UTC(),
		Attendees:   in.Attendees,
		MeetLink:    "https://meet.google.com/" + id,
		HTMLLink:    "https://calendar.google.com/event?eid=" + id,
	}
	f.events[id] = ev
	return ev, nil
}

func (f *fakeCalendar) GetEvent(_ context.Context, id string) (*calendar.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ev, ok := f.events[id]
	if !ok {
		return nil, apperror.NotFound("get_event", "event not found")
	}
	return ev, nil
}

type fixture struct {
	sc       *server.ServerContext
	cal      *fakeCalendar
	meetings *records.MemoryStore
}

func newFixture(t *testing.T, withMeetings bool, busy ...availability.Interval) *fixture {
	t.Helper()
	cal := newFakeCalendar(busy...)

	scheduler, err := availability.NewScheduler(cal, availability.DefaultSettings(cot))
	require.NoError(t, err)
	coordinator, err := booking.NewCoordinator(cal, "primary", cot)
	require.NoError(t, err)

	f := &fixture{cal: cal}
	services := server.Services{Scheduler: scheduler, Booking: coordinator}
	if withMeetings {
		f.meetings = records.NewMemoryStore(records.MeetingSchema("Meetings"))
		services.Meetings = records.NewMeetings(f.meetings, cot)
	}

	f.sc = server.NewServerContext(context.Background(), services, server.WithCalendarID("primary"))
	t.Cleanup(func() { _ = f.sc.Shutdown() })
	return f
}

func callRequest(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{Params: mcp.CallToolParams{Arguments: args}}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content, got %T", result.Content[0])
	return text.Text
}

func decode[T any](t *testing.T, result *mcp.CallToolResult) T {
	t.Helper()
	require.False(t, result.IsError, resultText(t, result))
	var v T
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &v))
	return v
}

func fixedClock(t time.Time) clock {
	return func() time.Time { return t }
}

func at(day, hour, minute int) time.Time {
	return time.Date(2024, time.March, day, hour, minute, 0, 0, cot)
}

func TestRegisterCalendarTools(t *testing.T) {
	tests := []struct {
		name     string
		readOnly bool
		want     []string
		absent   []string
	}{
		{
			name:     "register in read-write mode",
			readOnly: false,
			want:     []string{"check_availability", "get_event_details", "create_meeting"},
		},
		{
			name:     "register in read-only mode",
			readOnly: true,
			want:     []string{"check_availability", "get_event_details"},
			absent:   []string{"create_meeting"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, false)
			mcpSrv := mcpserver.NewMCPServer("test-server", "1.0.0",
				mcpserver.WithToolCapabilities(true),
			)

			require.NoError(t, RegisterCalendarTools(mcpSrv, f.sc, tt.readOnly))

			tools := mcpSrv.ListTools()
			for _, name := range tt.want {
				assert.Contains(t, tools, name)
			}
			for _, name := range tt.absent {
				assert.NotContains(t, tools, name)
			}
		})
	}
}

func TestCheckAvailability(t *testing.T) {
	friday := at(1, 14, 0)

	t.Run("friday afternoon skips the weekend", func(t *testing.T) {
		f := newFixture(t, false,
			availability.Interval{Start: at(4, 9, 0), End: at(4, 10, 0)},
		)

		result, err := handleCheckAvailability(context.Background(), callRequest(nil), f.sc, fixedClock(friday))
		require.NoError(t, err)
		view := decode[availabilityView](t, result)

		assert.Equal(t, "COT", view.TimeZone)
		assert.Empty(t, view.Message)
		require.Len(t, view.Days, 3)
		assert.Equal(t, []string{"2024-03-01", "2024-03-04", "2024-03-05"},
			[]string{view.Days[0].Date, view.Days[1].Date, view.Days[2].Date})

		require.Len(t, view.Days[0].Slots, 1)
		assert.Equal(t, "2024-03-01T14:00:00-05:00", view.Days[0].Slots[0].Start)
		assert.Equal(t, "14:00 - 17:00", view.Days[0].Slots[0].Display)

		assert.Equal(t, []slotView{
			{Start: "2024-03-04T08:00:00-05:00", End: "2024-03-04T09:00:00-05:00", Display: "08:00 - 09:00"},
			{Start: "2024-03-04T10:00:00-05:00", End: "2024-03-04T17:00:00-05:00", Display: "10:00 - 17:00"},
		}, view.Days[1].Slots)
	})

	t.Run("saturated calendar reports fewer days", func(t *testing.T) {
		f := newFixture(t, false, availability.Interval{Start: at(1, 0, 0), End: at(31, 0, 0)})

		result, err := handleCheckAvailability(context.Background(), callRequest(nil), f.sc, fixedClock(friday))
		require.NoError(t, err)
		view := decode[availabilityView](t, result)

		assert.Empty(t, view.Days)
		assert.Contains(t, view.Message, "only 0 of 3")
	})

	t.Run("provider failure", func(t *testing.T) {
		f := newFixture(t, false)
		f.cal.queryErr = apperror.Unavailable("freebusy", errors.New("backend error"))

		result, err := handleCheckAvailability(context.Background(), callRequest(nil), f.sc, fixedClock(friday))
		require.NoError(t, err)
		assert.True(t, result.IsError)
		assert.Contains(t, resultText(t, result), "provider_unavailable")
	})

	t.Run("auth failure carries reauthorization hint", func(t *testing.T) {
		f := newFixture(t, false)
		f.cal.queryErr = apperror.Unavailable("freebusy", apperror.Auth("freebusy", errors.New("invalid_grant")))

		result, err := handleCheckAvailability(context.Background(), callRequest(nil), f.sc, fixedClock(friday))
		require.NoError(t, err)
		assert.True(t, result.IsError)
		assert.Contains(t, resultText(t, result), common.ReauthHint)
	})

	t.Run("unconfigured", func(t *testing.T) {
		sc := server.NewServerContext(context.Background(), server.Services{})
		defer sc.Shutdown()

		result, err := handleCheckAvailability(context.Background(), callRequest(nil), sc, fixedClock(friday))
		require.NoError(t, err)
		assert.True(t, result.IsError)
	})
}

func TestCreateMeeting(t *testing.T) {
	t.Run("books and records the meeting for a client", func(t *testing.T) {
		f := newFixture(t, true)

		result, err := handleCreateMeeting(context.Background(), callRequest(map[string]any{
			"summary":     "Demo",
			"start":       "2024-03-04T10:00",
			"end":         "2024-03-04T11:00:00-05:00",
			"attendees":   "ana@example.com, Luis <luis@example.com>",
			"description": "Primera reunión",
			"client_id":   "A1B2C3",
		}), f.sc)
		require.NoError(t, err)
		view := decode[bookingView](t, result)

		assert.Equal(t, "booked", view.Status)
		assert.Equal(t, "evt1", view.EventID)
		assert.Equal(t, "https://meet.google.com/evt1", view.MeetLink)
		assert.Equal(t, "2024-03-04T10:00:00-05:00", view.Start)
		assert.True(t, view.Recorded)
		assert.Empty(t, view.RecordError)

		require.Len(t, f.cal.inserted, 1)
		assert.Equal(t, []string{"ana@example.com", "luis@example.com"}, f.cal.inserted[0].Attendees)

		rec, err := f.sc.Meetings().Get(context.Background(), "evt1")
		require.NoError(t, err)
		assert.Equal(t, "A1B2C3", rec[records.MeetingClientID])
		assert.Equal(t, "Demo", rec[records.MeetingSubject])
		assert.Equal(t, records.DefaultMeetingStatus, rec[records.MeetingStatus])
	})

	t.Run("overlap is rejected without writing", func(t *testing.T) {
		f := newFixture(t, true, availability.Interval{Start: at(4, 10, 30), End: at(4, 10, 45)})

		result, err := handleCreateMeeting(context.Background(), callRequest(map[string]any{
			"summary":   "Demo",
			"start":     "2024-03-04T10:00:00-05:00",
			"end":       "2024-03-04T11:00:00-05:00",
			"client_id": "A1B2C3",
		}), f.sc)
		require.NoError(t, err)
		view := decode[bookingView](t, result)

		assert.Equal(t, "rejected", view.Status)
		assert.Equal(t, []intervalView{{Start: "2024-03-04T10:30:00-05:00", End: "2024-03-04T10:45:00-05:00"}}, view.Conflicts)
		assert.Empty(t, view.EventID)
		assert.False(t, view.Recorded)
		assert.Empty(t, f.cal.inserted)

		rows, err := f.sc.Meetings().ListByClient(context.Background(), "A1B2C3")
		require.NoError(t, err)
		assert.Empty(t, rows)
	})

	t.Run("booking stands when the meeting cannot be recorded", func(t *testing.T) {
		f := newFixture(t, false)

		result, err := handleCreateMeeting(context.Background(), callRequest(map[string]any{
			"summary":   "Demo",
			"start":     "2024-03-04T10:00:00-05:00",
			"end":       "2024-03-04T11:00:00-05:00",
			"client_id": "A1B2C3",
		}), f.sc)
		require.NoError(t, err)
		view := decode[bookingView](t, result)

		assert.Equal(t, "booked", view.Status)
		assert.False(t, view.Recorded)
		assert.NotEmpty(t, view.RecordError)
		assert.Len(t, f.cal.inserted, 1)
	})

	invalid := []struct {
		name string
		args map[string]any
		want string
	}{
		{
			name: "bad start",
			args: map[string]any{"summary": "Demo", "start": "mañana", "end": "2024-03-04T11:00:00-05:00"},
			want: "input_error",
		},
		{
			name: "missing end",
			args: map[string]any{"summary": "Demo", "start": "2024-03-04T10:00:00-05:00"},
			want: "input_error",
		},
		{
			name: "end before start",
			args: map[string]any{"summary": "Demo", "start": "2024-03-04T11:00:00-05:00", "end": "2024-03-04T10:00:00-05:00"},
			want: "end must be after start",
		},
		{
			name: "empty summary",
			args: map[string]any{"summary": " ", "start": "2024-03-04T10:00:00-05:00", "end": "2024-03-04T11:00:00-05:00"},
			want: "summary is required",
		},
		{
			name: "bad attendee",
			args: map[string]any{"summary": "Demo", "start": "2024-03-04T10:00:00-05:00", "end": "2024-03-04T11:00:00-05:00", "attendees": "not-an-email"},
			want: "invalid attendee",
		},
	}

	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, true)

			result, err := handleCreateMeeting(context.Background(), callRequest(tt.args), f.sc)
			require.NoError(t, err)
			assert.True(t, result.IsError)
			assert.Contains(t, resultText(t, result), tt.want)
			assert.Empty(t, f.cal.inserted)
		})
	}
}

func TestGetEventDetails(t *testing.T) {
	f := newFixture(t, false)

	booked, err := handleCreateMeeting(context.Background(), callRequest(map[string]any{
		"summary":   "Demo",
		"start":     "2024-03-04T10:00:00-05:00",
		"end":       "2024-03-04T11:00:00-05:00",
		"attendees": []any{"ana@example.com"},
	}), f.sc)
	require.NoError(t, err)
	created := decode[bookingView](t, booked)

	result, err := handleGetEventDetails(context.Background(), callRequest(map[string]any{"event_id": created.EventID}), f.sc)
	require.NoError(t, err)
	view := decode[eventView](t, result)

	assert.Equal(t, created.EventID, view.ID)
	assert.Equal(t, "Demo", view.Summary)
	assert.Equal(t, booking.DefaultDescription, view.Description)
	assert.Equal(t, created.Start, view.Start)
	assert.Equal(t, created.End, view.End)
	assert.Equal(t, []string{"ana@example.com"}, view.Attendees)
	assert.Equal(t, created.CalendarLink, view.HTMLLink)

	tests := []struct {
		name string
		args map[string]any
		want string
	}{
		{name: "unknown event", args: map[string]any{"event_id": "nope"}, want: "not_found"},
		{name: "missing id", args: map[string]any{}, want: "input_error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := handleGetEventDetails(context.Background(), callRequest(tt.args), f.sc)
			require.NoError(t, err)
			assert.True(t, result.IsError)
			assert.Contains(t, resultText(t, result), tt.want)
		})
	}
}
