package common

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/leadcal/internal/instrumentation"
	"github.com/teemow/leadcal/internal/server"
)

// ToolHandler is the signature of an MCP tool handler.
type ToolHandler = func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)

// InstrumentedToolHandler wraps a tool handler with the per-call timeout,
// a tool span, metrics and audit logging.
//
// Usage:
//
//	s.AddTool(myTool, common.InstrumentedToolHandler("my_tool", sc, handler))
func InstrumentedToolHandler(toolName string, sc *server.ServerContext, handler ToolHandler) ToolHandler {
	return InstrumentedToolHandlerWithService(toolName, "", "", sc, handler)
}

// InstrumentedToolHandlerWithService is like InstrumentedToolHandler but also
// labels the call with the Google service and operation it performs, which
// adds it to the google_api_operations series.
//
// Usage:
//
//	s.AddTool(myTool, common.InstrumentedToolHandlerWithService("my_tool", "calendar", "insert", sc, handler))
func InstrumentedToolHandlerWithService(
	toolName string,
	serviceName string,
	operation string,
	sc *server.ServerContext,
	handler ToolHandler,
) ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ctx, cancel := context.WithTimeout(ctx, sc.ToolTimeout())
		defer cancel()

		args := request.GetArguments()
		clientID := ClientIDFromArgs(args)
		ctx, span := instrumentation.StartToolSpan(ctx, toolName,
			instrumentation.ToolSpanAttributes(serviceName, operation, sc.CalendarID(), clientID)...)
		defer span.End()

		invocation := instrumentation.StartToolInvocation(ctx, toolName)
		invocation.Service = serviceName
		invocation.Operation = operation
		invocation.ClientID = clientID
		invocation.Contact = ContactFromArgs(args)

		result, err := handler(ctx, request)

		status := instrumentation.StatusSuccess
		switch {
		case err != nil:
			status = instrumentation.StatusError
			instrumentation.SetSpanError(span, err)
		case result != nil && result.IsError:
			status = instrumentation.StatusError
		default:
			instrumentation.SetSpanSuccess(span)
		}
		invocation.Finish(status, err)

		// nil when instrumentation is disabled.
		if metrics := sc.Metrics(); metrics != nil {
			metrics.RecordToolInvocation(ctx, toolName, status, invocation.Duration)
			if serviceName != "" {
				metrics.RecordGoogleAPIOperation(ctx, serviceName, operation, status, invocation.Duration)
			}
		}
		sc.AuditLogger().Log(invocation)

		return result, err
	}
}
