package catalog_tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cast"

	"github.com/teemow/leadcal/internal/instrumentation"
	"github.com/teemow/leadcal/internal/server"
	"github.com/teemow/leadcal/internal/tools/common"
)

type listView struct {
	Count    int                 `json:"count"`
	Services []map[string]string `json:"services"`
}

// RegisterCatalogTools registers the catalog tools with the MCP server.
// Both tools are read-only, so readOnly has no effect.
func RegisterCatalogTools(s *mcpserver.MCPServer, sc *server.ServerContext, _ bool) error {
	listServicesTool := mcp.NewTool("list_services",
		mcp.WithDescription("List the services offered, with description and price"),
	)

	s.AddTool(listServicesTool, common.InstrumentedToolHandlerWithService(
		"list_services", instrumentation.ServiceSheets, instrumentation.OperationList, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListServices(ctx, request, sc)
		}))

	getServiceTool := mcp.NewTool("get_service",
		mcp.WithDescription("Get one service from the catalog by name (case-insensitive)"),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Service name"),
		),
	)

	s.AddTool(getServiceTool, common.InstrumentedToolHandlerWithService(
		"get_service", instrumentation.ServiceSheets, instrumentation.OperationGet, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGetService(ctx, request, sc)
		}))

	return nil
}

func handleListServices(ctx context.Context, _ mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	catalog := sc.Catalog()
	if catalog == nil {
		return common.Unconfigured("list_services"), nil
	}

	recs, err := catalog.List(ctx)
	if err != nil {
		return common.ErrorResult(err), nil
	}
	return common.JSONResult(listView{Count: len(recs), Services: common.RecordMaps(recs)})
}

func handleGetService(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	catalog := sc.Catalog()
	if catalog == nil {
		return common.Unconfigured("get_service"), nil
	}

	rec, err := catalog.Get(ctx, cast.ToString(request.GetArguments()["name"]))
	if err != nil {
		return common.ErrorResult(err), nil
	}
	return common.JSONResult(rec.Map())
}
