package calendar_tools

import (
	"fmt"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/leadcal/internal/server"
)

// clock returns the current time; tests replace it.
type clock func() time.Time

// RegisterCalendarTools registers the availability and booking tools with the MCP server
func RegisterCalendarTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	return registerCalendarTools(s, sc, readOnly, time.Now)
}

func registerCalendarTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool, now clock) error {
	if err := registerAvailabilityTools(s, sc, now); err != nil {
		return fmt.Errorf("failed to register availability tools: %w", err)
	}

	if err := registerBookingTools(s, sc, readOnly); err != nil {
		return fmt.Errorf("failed to register booking tools: %w", err)
	}

	return nil
}
