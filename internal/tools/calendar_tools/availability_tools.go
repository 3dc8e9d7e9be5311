package calendar_tools

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/leadcal/internal/availability"
	"github.com/teemow/leadcal/internal/instrumentation"
	"github.com/teemow/leadcal/internal/logging"
	"github.com/teemow/leadcal/internal/server"
	"github.com/teemow/leadcal/internal/tools/common"
)

type slotView struct {
	Start   string `json:"start"`
	End     string `json:"end"`
	Display string `json:"display"`
}

type dayView struct {
	Day   string     `json:"day"`
	Date  string     `json:"date"`
	Slots []slotView `json:"slots"`
}

type availabilityView struct {
	TimeZone string    `json:"time_zone"`
	Days     []dayView `json:"days"`
	Message  string    `json:"message,omitempty"`
}

func registerAvailabilityTools(s *mcpserver.MCPServer, sc *server.ServerContext, now clock) error {
	checkAvailabilityTool := mcp.NewTool("check_availability",
		mcp.WithDescription("Find free meeting slots on the business calendar. Scans business days from now "+
			"and returns the first days with free time inside working hours, in the calendar's time zone."),
	)

	s.AddTool(checkAvailabilityTool, common.InstrumentedToolHandlerWithService(
		"check_availability", instrumentation.ServiceCalendar, instrumentation.OperationFreeBusy, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleCheckAvailability(ctx, request, sc, now)
		}))

	return nil
}

func handleCheckAvailability(ctx context.Context, _ mcp.CallToolRequest, sc *server.ServerContext, now clock) (*mcp.CallToolResult, error) {
	scheduler := sc.Scheduler()
	if scheduler == nil {
		return common.Unconfigured("check_availability"), nil
	}

	report, err := scheduler.Scan(ctx, now())
	if err != nil {
		sc.Logger().Warn("availability scan failed",
			logging.Tool("check_availability"),
			logging.Calendar(sc.CalendarID()),
			logging.Err(err))
		return common.ErrorResult(err), nil
	}

	if m := sc.Metrics(); m != nil {
		m.RecordAvailabilityDays(ctx, len(report.Days))
	}

	view := availabilityView{TimeZone: report.TimeZone, Days: make([]dayView, 0, len(report.Days))}
	for _, day := range report.Days {
		view.Days = append(view.Days, dayView{
			Day:   day.Label,
			Date:  day.Date.Format(time.DateOnly),
			Slots: slotViews(day.Slots),
		})
	}

	settings := scheduler.Settings()
	if len(view.Days) < settings.DaysNeeded {
		view.Message = fmt.Sprintf("only %d of %d requested days have free time within the next %d days",
			len(view.Days), settings.DaysNeeded, settings.MaxDays)
		sc.Logger().Info("availability below target",
			logging.Tool("check_availability"),
			slog.Int("days_found", len(view.Days)))
	}

	return common.JSONResult(view)
}

func slotViews(slots []availability.FreeSlot) []slotView {
	out := make([]slotView, 0, len(slots))
	for _, slot := range slots {
		out = append(out, slotView{
			Start:   slot.Start.Format(time.RFC3339),
			End:     slot.End.Format(time.RFC3339),
			Display: slot.Start.Format("15:04") + " - " + slot.End.Format("15:04"),
		})
	}
	return out
}
