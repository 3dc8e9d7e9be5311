package cmd

import (
	"fmt"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/leadcal/internal/resources"
	"github.com/teemow/leadcal/internal/server"
	"github.com/teemow/leadcal/internal/tools/calendar_tools"
	"github.com/teemow/leadcal/internal/tools/catalog_tools"
	"github.com/teemow/leadcal/internal/tools/crm_tools"
	"github.com/teemow/leadcal/internal/tools/meeting_tools"
	"github.com/teemow/leadcal/internal/tools/project_tools"
)

// toolGroup is a set of tools registered together.
type toolGroup struct {
	name     string
	register func(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error
}

var toolGroups = []toolGroup{
	{name: "Scheduling", register: calendar_tools.RegisterCalendarTools},
	{name: "CRM", register: crm_tools.RegisterCRMTools},
	{name: "Meetings", register: meeting_tools.RegisterMeetingTools},
	{name: "Projects", register: project_tools.RegisterProjectTools},
	{name: "Services Catalog", register: catalog_tools.RegisterCatalogTools},
}

// newMCPServer creates the MCP server with tool and resource capabilities.
func newMCPServer() *mcpserver.MCPServer {
	return mcpserver.NewMCPServer("leadcal", version,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithResourceCapabilities(false, false), // Subscribe and listChanged
	)
}

// registerAllTools registers every tool group and the resources.
func registerAllTools(mcpSrv *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	for _, group := range toolGroups {
		if err := group.register(mcpSrv, sc, readOnly); err != nil {
			return fmt.Errorf("failed to register %s tools: %w", group.name, err)
		}
	}

	if err := resources.RegisterResources(mcpSrv, sc); err != nil {
		return fmt.Errorf("failed to register resources: %w", err)
	}

	return nil
}
