package meeting_tools

import (
	"context"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cast"

	"github.com/teemow/leadcal/internal/instrumentation"
	"github.com/teemow/leadcal/internal/logging"
	"github.com/teemow/leadcal/internal/records"
	"github.com/teemow/leadcal/internal/server"
	"github.com/teemow/leadcal/internal/tools/common"
)

type listView struct {
	Count    int                 `json:"count"`
	Meetings []map[string]string `json:"meetings"`
}

type updateView struct {
	MeetingID string   `json:"meeting_id"`
	Updated   []string `json:"updated_fields"`
}

type deleteView struct {
	MeetingID string `json:"meeting_id"`
	Deleted   bool   `json:"deleted"`
}

// RegisterMeetingTools registers the meeting log tools with the MCP server
func RegisterMeetingTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	getMeetingTool := mcp.NewTool("get_meeting",
		mcp.WithDescription("Get a recorded meeting by its ID (the calendar event ID)"),
		mcp.WithString("meeting_id",
			mcp.Required(),
			mcp.Description("Meeting ID"),
		),
	)

	s.AddTool(getMeetingTool, common.InstrumentedToolHandlerWithService(
		"get_meeting", instrumentation.ServiceSheets, instrumentation.OperationGet, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGetMeeting(ctx, request, sc)
		}))

	listClientMeetingsTool := mcp.NewTool("list_client_meetings",
		mcp.WithDescription("List the recorded meetings of a CRM client"),
		mcp.WithString(common.ArgClientID,
			mcp.Required(),
			mcp.Description("Client ID"),
		),
	)

	s.AddTool(listClientMeetingsTool, common.InstrumentedToolHandlerWithService(
		"list_client_meetings", instrumentation.ServiceSheets, instrumentation.OperationList, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListClientMeetings(ctx, request, sc)
		}))

	listMeetingsByDateTool := mcp.NewTool("list_meetings_by_date",
		mcp.WithDescription("List the recorded meetings starting on a date"),
		mcp.WithString("date",
			mcp.Required(),
			mcp.Description("Date formatted YYYY-MM-DD; anything after the first ten characters is ignored"),
		),
	)

	s.AddTool(listMeetingsByDateTool, common.InstrumentedToolHandlerWithService(
		"list_meetings_by_date", instrumentation.ServiceSheets, instrumentation.OperationList, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListMeetingsByDate(ctx, request, sc)
		}))

	// Register update/delete tools only if not in read-only mode
	if !readOnly {
		updateMeetingTool := mcp.NewTool("update_meeting",
			mcp.WithDescription("Update columns of a recorded meeting, e.g. {\"Estado\": \"Realizada\"}. "+
				"Keys are column names; unknown keys are rejected"),
			mcp.WithString("meeting_id",
				mcp.Required(),
				mcp.Description("Meeting ID"),
			),
			mcp.WithObject("fields",
				mcp.Required(),
				mcp.Description("Column name to new value"),
			),
		)

		s.AddTool(updateMeetingTool, common.InstrumentedToolHandlerWithService(
			"update_meeting", instrumentation.ServiceSheets, instrumentation.OperationUpdate, sc,
			func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				return handleUpdateMeeting(ctx, request, sc)
			}))

		deleteMeetingTool := mcp.NewTool("delete_meeting",
			mcp.WithDescription("Delete a recorded meeting. The calendar event itself is not cancelled"),
			mcp.WithString("meeting_id",
				mcp.Required(),
				mcp.Description("Meeting ID"),
			),
		)

		s.AddTool(deleteMeetingTool, common.InstrumentedToolHandlerWithService(
			"delete_meeting", instrumentation.ServiceSheets, instrumentation.OperationDelete, sc,
			func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				return handleDeleteMeeting(ctx, request, sc)
			}))
	}

	return nil
}

func handleGetMeeting(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	meetings := sc.Meetings()
	if meetings == nil {
		return common.Unconfigured("get_meeting"), nil
	}

	rec, err := meetings.Get(ctx, cast.ToString(request.GetArguments()["meeting_id"]))
	if err != nil {
		return common.ErrorResult(err), nil
	}
	return common.JSONResult(rec.Map())
}

func handleListClientMeetings(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	meetings := sc.Meetings()
	if meetings == nil {
		return common.Unconfigured("list_client_meetings"), nil
	}

	recs, err := meetings.ListByClient(ctx, common.ClientIDFromArgs(request.GetArguments()))
	if err != nil {
		return common.ErrorResult(err), nil
	}
	return listResult(recs)
}

func handleListMeetingsByDate(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	meetings := sc.Meetings()
	if meetings == nil {
		return common.Unconfigured("list_meetings_by_date"), nil
	}

	recs, err := meetings.ListByDate(ctx, cast.ToString(request.GetArguments()["date"]))
	if err != nil {
		return common.ErrorResult(err), nil
	}
	return listResult(recs)
}

func handleUpdateMeeting(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	meetings := sc.Meetings()
	if meetings == nil {
		return common.Unconfigured("update_meeting"), nil
	}

	args := request.GetArguments()
	id := cast.ToString(args["meeting_id"])
	written, err := meetings.Update(ctx, id, common.ObjectArg(args, "fields"))
	if err != nil {
		return common.ErrorResult(err), nil
	}
	return common.JSONResult(updateView{MeetingID: id, Updated: common.FieldNames(written)})
}

func handleDeleteMeeting(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	meetings := sc.Meetings()
	if meetings == nil {
		return common.Unconfigured("delete_meeting"), nil
	}

	id := cast.ToString(request.GetArguments()["meeting_id"])
	if err := meetings.Delete(ctx, id); err != nil {
		return common.ErrorResult(err), nil
	}

	sc.Logger().Info("meeting deleted", logging.Tool("delete_meeting"), slog.String("meeting_id", id))
	return common.JSONResult(deleteView{MeetingID: id, Deleted: true})
}

func listResult(recs []records.Record) (*mcp.CallToolResult, error) {
	return common.JSONResult(listView{Count: len(recs), Meetings: common.RecordMaps(recs)})
}
