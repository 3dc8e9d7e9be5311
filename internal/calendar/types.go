package calendar

import (
	"time"

	calendar "google.golang.org/api/calendar/v3"
)

// ConferenceSolutionMeet is the conference solution type for Google Meet.
const ConferenceSolutionMeet = "hangoutsMeet"

// EventInput is the input for creating an event.
type EventInput struct {
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
	Attendees   []string

	// ConferenceRequestID asks Calendar to attach a Meet conference. The same
	// id on a retried insert does not create a second conference.
	ConferenceRequestID string
}

// Event is a calendar event projected into the fields leadcal uses.
type Event struct {
	ID          string
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
	Attendees   []string
	MeetLink    string
	HTMLLink    string
	Status      string
}

func toEvent(event *calendar.Event, loc *time.Location) Event {
	if event == nil {
		return Event{}
	}
	ev := Event{
		ID:          event.Id,
		Summary:     event.Summary,
		Description: event.Description,
		HTMLLink:    event.HtmlLink,
		Status:      event.Status,
		Start:       parseEventTime(event.Start, loc),
		End:         parseEventTime(event.End, loc),
	}

	for _, att := range event.Attendees {
		if att.Email != "" {
			ev.Attendees = append(ev.Attendees, att.Email)
		}
	}

	if event.ConferenceData != nil {
		for _, ep := range event.ConferenceData.EntryPoints {
			if ep.Uri != "" {
				ev.MeetLink = ep.Uri
				break
			}
		}
	}
	if ev.MeetLink == "" {
		ev.MeetLink = event.HangoutLink
	}

	return ev
}

// parseEventTime handles both timed and all-day events. All-day dates are
// interpreted as midnight in loc.
func parseEventTime(dt *calendar.EventDateTime, loc *time.Location) time.Time {
	if dt == nil {
		return time.Time{}
	}
	if dt.DateTime != "" {
		if t, err := time.Parse(time.RFC3339, dt.DateTime); err == nil {
			return t.In(loc)
		}
		return time.Time{}
	}
	if dt.Date != "" {
		if t, err := time.ParseInLocation("2006-01-02", dt.Date, loc); err == nil {
			return t
		}
	}
	return time.Time{}
}
