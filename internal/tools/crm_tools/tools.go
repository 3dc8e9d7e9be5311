package crm_tools

import (
	"context"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cast"

	"github.com/teemow/leadcal/internal/instrumentation"
	"github.com/teemow/leadcal/internal/logging"
	"github.com/teemow/leadcal/internal/records"
	"github.com/teemow/leadcal/internal/server"
	"github.com/teemow/leadcal/internal/tools/common"
)

type verifyView struct {
	Exists    bool              `json:"exists"`
	MatchedBy string            `json:"matched_by,omitempty"`
	Client    map[string]string `json:"client,omitempty"`
}

type createView struct {
	ClientID string            `json:"client_id"`
	Client   map[string]string `json:"client"`
}

type updateView struct {
	ClientID string   `json:"client_id"`
	Updated  []string `json:"updated_fields"`
}

// RegisterCRMTools registers the lead tools with the MCP server
func RegisterCRMTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	verifyClientTool := mcp.NewTool("verify_client",
		mcp.WithDescription("Check whether a client exists in the CRM. Looks the client up by phone number (digits only), "+
			"email (case-insensitive) or user handle; at least one is required"),
		mcp.WithString("telefono",
			mcp.Description("Phone number, in any format"),
		),
		mcp.WithString(common.ArgEmail,
			mcp.Description("Email address"),
		),
		mcp.WithString("usuario",
			mcp.Description("User handle on the contact channel"),
		),
	)

	s.AddTool(verifyClientTool, common.InstrumentedToolHandlerWithService(
		"verify_client", instrumentation.ServiceSheets, instrumentation.OperationGet, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleVerifyClient(ctx, request, sc)
		}))

	if readOnly {
		return nil
	}

	createClientTool := mcp.NewTool("create_client",
		mcp.WithDescription("Register a new lead in the CRM. The client gets a generated 6 character ID, type 'Lead' and status 'Nuevo'"),
		mcp.WithString("nombre",
			mcp.Required(),
			mcp.Description("Client name"),
		),
		mcp.WithString("canal",
			mcp.Required(),
			mcp.Description("Acquisition channel: 'whatsapp' or 'web'"),
		),
		mcp.WithString("telefono",
			mcp.Description("Phone number"),
		),
		mcp.WithString(common.ArgEmail,
			mcp.Description("Email address"),
		),
		mcp.WithString("nota",
			mcp.Description("Free-form note"),
		),
		mcp.WithString("usuario",
			mcp.Description("User handle on the contact channel"),
		),
	)

	s.AddTool(createClientTool, common.InstrumentedToolHandlerWithService(
		"create_client", instrumentation.ServiceSheets, instrumentation.OperationAppend, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleCreateClient(ctx, request, sc)
		}))

	updateClientTool := mcp.NewTool("update_client",
		mcp.WithDescription("Update fields of an existing client. Only the fields provided are written"),
		mcp.WithString(common.ArgClientID,
			mcp.Required(),
			mcp.Description("Client ID"),
		),
		mcp.WithString("nombre",
			mcp.Description("Client name"),
		),
		mcp.WithString("telefono",
			mcp.Description("Phone number"),
		),
		mcp.WithString(common.ArgEmail,
			mcp.Description("Email address"),
		),
		mcp.WithString("tipo",
			mcp.Description("Client type: "+strings.Join(records.LeadTypes, ", ")),
		),
		mcp.WithString("estado",
			mcp.Description("Pipeline status: "+strings.Join(records.LeadStatuses, ", ")),
		),
		mcp.WithString("nota",
			mcp.Description("Free-form note"),
		),
		mcp.WithString("usuario",
			mcp.Description("User handle on the contact channel"),
		),
		mcp.WithString("fecha_conversion",
			mcp.Description("Conversion date, formatted '2006-01-02 15:04:05' or '2006-01-02'"),
		),
	)

	s.AddTool(updateClientTool, common.InstrumentedToolHandlerWithService(
		"update_client", instrumentation.ServiceSheets, instrumentation.OperationUpdate, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleUpdateClient(ctx, request, sc)
		}))

	return nil
}

func handleVerifyClient(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	leads := sc.Leads()
	if leads == nil {
		return common.Unconfigured("verify_client"), nil
	}

	args := request.GetArguments()
	query := records.LeadQuery{
		Phone: cast.ToString(args["telefono"]),
		Email: cast.ToString(args[common.ArgEmail]),
		User:  cast.ToString(args["usuario"]),
	}

	match, err := leads.Verify(ctx, query)
	if err != nil {
		return common.ErrorResult(err), nil
	}

	sc.Logger().Debug("client lookup",
		logging.Tool("verify_client"),
		logging.Phone(query.Phone),
		logging.UserHash(query.Email),
		slog.Bool("exists", match.Exists))

	view := verifyView{Exists: match.Exists, MatchedBy: match.MatchedBy}
	if match.Exists {
		view.Client = match.Lead.Map()
	}
	return common.JSONResult(view)
}

func handleCreateClient(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	leads := sc.Leads()
	if leads == nil {
		return common.Unconfigured("create_client"), nil
	}

	args := request.GetArguments()
	rec, err := leads.Create(ctx, records.NewLead{
		Name:    cast.ToString(args["nombre"]),
		Channel: cast.ToString(args["canal"]),
		Phone:   cast.ToString(args["telefono"]),
		Email:   cast.ToString(args[common.ArgEmail]),
		Note:    cast.ToString(args["nota"]),
		User:    cast.ToString(args["usuario"]),
	})
	if err != nil {
		return common.ErrorResult(err), nil
	}

	return common.JSONResult(createView{ClientID: rec[records.LeadID], Client: rec.Map()})
}

func handleUpdateClient(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	leads := sc.Leads()
	if leads == nil {
		return common.Unconfigured("update_client"), nil
	}

	args := request.GetArguments()
	clientID := common.ClientIDFromArgs(args)
	written, err := leads.Update(ctx, clientID, records.LeadUpdate{
		Name:           common.OptionalString(args, "nombre"),
		Phone:          common.OptionalString(args, "telefono"),
		Email:          common.OptionalString(args, common.ArgEmail),
		Type:           common.OptionalString(args, "tipo"),
		Status:         common.OptionalString(args, "estado"),
		Note:           common.OptionalString(args, "nota"),
		User:           common.OptionalString(args, "usuario"),
		ConversionDate: common.OptionalString(args, "fecha_conversion"),
	})
	if err != nil {
		return common.ErrorResult(err), nil
	}

	return common.JSONResult(updateView{ClientID: clientID, Updated: common.FieldNames(written)})
}
