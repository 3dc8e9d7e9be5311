package calendar_tools

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cast"

	"github.com/teemow/leadcal/internal/apperror"
	"github.com/teemow/leadcal/internal/booking"
	"github.com/teemow/leadcal/internal/instrumentation"
	"github.com/teemow/leadcal/internal/logging"
	"github.com/teemow/leadcal/internal/records"
	"github.com/teemow/leadcal/internal/server"
	"github.com/teemow/leadcal/internal/tools/common"
)

type intervalView struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type bookingView struct {
	Status       string         `json:"status"`
	EventID      string         `json:"event_id,omitempty"`
	MeetLink     string         `json:"meet_link,omitempty"`
	CalendarLink string         `json:"calendar_link,omitempty"`
	Start        string         `json:"start"`
	End          string         `json:"end"`
	Conflicts    []intervalView `json:"conflicts,omitempty"`
	Message      string         `json:"message,omitempty"`
	ClientID     string         `json:"client_id,omitempty"`
	Recorded     bool           `json:"meeting_recorded,omitempty"`
	RecordError  string         `json:"meeting_record_error,omitempty"`
}

type eventView struct {
	ID          string   `json:"event_id"`
	Summary     string   `json:"summary"`
	Description string   `json:"description,omitempty"`
	Start       string   `json:"start"`
	End         string   `json:"end"`
	Attendees   []string `json:"attendees"`
	MeetLink    string   `json:"meet_link,omitempty"`
	HTMLLink    string   `json:"calendar_link,omitempty"`
}

func registerBookingTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	getEventDetailsTool := mcp.NewTool("get_event_details",
		mcp.WithDescription("Get the details of a calendar event: summary, description, start and end, attendees, Meet link and calendar link"),
		mcp.WithString("event_id",
			mcp.Required(),
			mcp.Description("The ID of the calendar event"),
		),
	)

	s.AddTool(getEventDetailsTool, common.InstrumentedToolHandlerWithService(
		"get_event_details", instrumentation.ServiceCalendar, instrumentation.OperationGet, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGetEventDetails(ctx, request, sc)
		}))

	// Booking writes to the calendar and the meetings sheet
	if !readOnly {
		createMeetingTool := mcp.NewTool("create_meeting",
			mcp.WithDescription("Book a Google Meet meeting on the business calendar. The slot is checked for conflicts first; "+
				"a busy slot is rejected with the conflicting intervals and nothing is created. "+
				"Times without an offset are read in the calendar's time zone."),
			mcp.WithString("summary",
				mcp.Required(),
				mcp.Description("Meeting title"),
			),
			mcp.WithString("start",
				mcp.Required(),
				mcp.Description("Start time (RFC3339, e.g. '2024-03-04T10:00:00-05:00', or local '2024-03-04T10:00')"),
			),
			mcp.WithString("end",
				mcp.Required(),
				mcp.Description("End time (RFC3339, e.g. '2024-03-04T11:00:00-05:00', or local '2024-03-04T11:00')"),
			),
			mcp.WithString("attendees",
				mcp.Description("Comma-separated list of attendee email addresses"),
			),
			mcp.WithString("description",
				mcp.Description("Meeting description"),
			),
			mcp.WithString(common.ArgClientID,
				mcp.Description("CRM client ID. When set, the booked meeting is also recorded in the meetings sheet"),
			),
		)

		s.AddTool(createMeetingTool, common.InstrumentedToolHandlerWithService(
			"create_meeting", instrumentation.ServiceCalendar, instrumentation.OperationInsert, sc,
			func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				return handleCreateMeeting(ctx, request, sc)
			}))
	}

	return nil
}

func handleCreateMeeting(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	coordinator := sc.Booking()
	if coordinator == nil {
		return common.Unconfigured("create_meeting"), nil
	}

	args := request.GetArguments()
	loc := coordinator.Location()

	start, err := common.ParseTime(cast.ToString(args["start"]), loc)
	if err != nil {
		return common.ErrorResult(apperror.Input("create_meeting", "start: %v", err)), nil
	}
	end, err := common.ParseTime(cast.ToString(args["end"]), loc)
	if err != nil {
		return common.ErrorResult(apperror.Input("create_meeting", "end: %v", err)), nil
	}

	req := booking.Request{
		Summary:     cast.ToString(args["summary"]),
		Start:       start,
		End:         end,
		Attendees:   common.StringList(args, "attendees"),
		Description: cast.ToString(args["description"]),
	}

	result, err := coordinator.Book(ctx, req)
	if err != nil {
		recordOutcome(ctx, sc, instrumentation.OutcomeError)
		return common.ErrorResult(err), nil
	}

	view := bookingView{
		Status: string(result.Status),
		Start:  result.Start.Format(time.RFC3339),
		End:    result.End.Format(time.RFC3339),
	}

	if !result.Booked() {
		recordOutcome(ctx, sc, instrumentation.OutcomeRejected)
		view.Message = "the requested time overlaps existing events; pick another slot"
		for _, c := range result.Conflicts {
			view.Conflicts = append(view.Conflicts, intervalView{
				Start: c.Start.In(loc).Format(time.RFC3339),
				End:   c.End.In(loc).Format(time.RFC3339),
			})
		}
		return common.JSONResult(view)
	}

	recordOutcome(ctx, sc, instrumentation.OutcomeBooked)
	view.EventID = result.EventID
	view.MeetLink = result.MeetLink
	view.CalendarLink = result.CalendarLink

	if clientID := common.ClientIDFromArgs(args); clientID != "" {
		view.ClientID = clientID
		if err := recordMeeting(ctx, sc, clientID, req, result); err != nil {
			// The event exists; a failed sheet write must not hide it.
			sc.Logger().Warn("failed to record booked meeting",
				logging.Tool("create_meeting"),
				logging.ClientID(clientID),
				slog.String("event_id", result.EventID),
				logging.Err(err))
			view.RecordError = err.Error()
		} else {
			view.Recorded = true
		}
	}

	return common.JSONResult(view)
}

func recordMeeting(ctx context.Context, sc *server.ServerContext, clientID string, req booking.Request, result *booking.Result) error {
	meetings := sc.Meetings()
	if meetings == nil {
		return apperror.Unavailable("record_meeting", common.ErrServiceUnavailable)
	}
	_, err := meetings.Create(ctx, records.NewMeeting{
		EventID:      result.EventID,
		Subject:      strings.TrimSpace(req.Summary),
		Start:        result.Start,
		ClientID:     clientID,
		Details:      req.Description,
		MeetLink:     result.MeetLink,
		CalendarLink: result.CalendarLink,
	})
	return err
}

func recordOutcome(ctx context.Context, sc *server.ServerContext, outcome string) {
	if m := sc.Metrics(); m != nil {
		m.RecordBookingOutcome(ctx, outcome, sc.CalendarID())
	}
}

func handleGetEventDetails(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	coordinator := sc.Booking()
	if coordinator == nil {
		return common.Unconfigured("get_event_details"), nil
	}

	args := request.GetArguments()
	eventID := cast.ToString(args["event_id"])

	details, err := coordinator.Details(ctx, eventID)
	if err != nil {
		return common.ErrorResult(err), nil
	}

	attendees := details.Attendees
	if attendees == nil {
		attendees = []string{}
	}

	return common.JSONResult(eventView{
		ID:          details.ID,
		Summary:     details.Summary,
		Description: details.Description,
		Start:       details.Start.Format(time.RFC3339),
		End:         details.End.Format(time.RFC3339),
		Attendees:   attendees,
		MeetLink:    details.MeetLink,
		HTMLLink:    details.HTMLLink,
	})
}
