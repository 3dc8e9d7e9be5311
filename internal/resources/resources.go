package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/leadcal/internal/server"
	"github.com/teemow/leadcal/internal/tools/common"
)

// Resource URIs.
const (
	ScheduleURI = "leadcal://schedule"
	CatalogURI  = "leadcal://catalog"
)

type scheduleView struct {
	CalendarID     string `json:"calendar_id"`
	TimeZone       string `json:"time_zone"`
	Open           string `json:"open"`
	Close          string `json:"close"`
	MinSlotMinutes int    `json:"min_slot_minutes"`
	DaysNeeded     int    `json:"days_needed"`
	MaxDaysScanned int    `json:"max_days_scanned"`
	SkipWeekends   bool   `json:"skip_weekends"`
}

// RegisterResources registers the schedule and catalog resources
func RegisterResources(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	scheduleResource := mcp.NewResource(
		ScheduleURI,
		"Scheduling Settings",
		mcp.WithResourceDescription("Business hours, time zone and slot rules used by check_availability and create_meeting"),
		mcp.WithMIMEType("application/json"),
	)

	s.AddResource(scheduleResource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleSchedule(ctx, request, sc)
	})

	catalogResource := mcp.NewResource(
		CatalogURI,
		"Services Catalog",
		mcp.WithResourceDescription("Services offered, with description and price"),
		mcp.WithMIMEType("application/json"),
	)

	s.AddResource(catalogResource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleCatalog(ctx, request, sc)
	})

	return nil
}

func handleSchedule(_ context.Context, request mcp.ReadResourceRequest, sc *server.ServerContext) ([]mcp.ResourceContents, error) {
	scheduler := sc.Scheduler()
	if scheduler == nil {
		return nil, fmt.Errorf("scheduler: %w", common.ErrServiceUnavailable)
	}

	settings := scheduler.Settings()
	return jsonContents(request.Params.URI, scheduleView{
		CalendarID:     sc.CalendarID(),
		TimeZone:       settings.Location.String(),
		Open:           settings.Open.String(),
		Close:          settings.Close.String(),
		MinSlotMinutes: int(settings.MinSlot.Minutes()),
		DaysNeeded:     settings.DaysNeeded,
		MaxDaysScanned: settings.MaxDays,
		SkipWeekends:   settings.SkipWeekend,
	})
}

func handleCatalog(ctx context.Context, request mcp.ReadResourceRequest, sc *server.ServerContext) ([]mcp.ResourceContents, error) {
	catalog := sc.Catalog()
	if catalog == nil {
		return nil, fmt.Errorf("catalog: %w", common.ErrServiceUnavailable)
	}

	recs, err := catalog.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return jsonContents(request.Params.URI, common.RecordMaps(recs))
}

func jsonContents(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal resource data: %w", err)
	}

	return []mcp.ResourceContents{
		&mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
