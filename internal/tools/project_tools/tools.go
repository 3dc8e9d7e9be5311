package project_tools

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
	Projects []map[string]string `json:"projects"`
}

type updateView struct {
	ProjectID string   `json:"project_id"`
	Updated   []string `json:"updated_fields"`
}

type notesView struct {
	ClientID string   `json:"client_id"`
	Updated  []string `json:"updated_projects"`
}

type deleteView struct {
	ProjectID string `json:"project_id"`
	Deleted   bool   `json:"deleted"`
}

// RegisterProjectTools registers the project tools with the MCP server
func RegisterProjectTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	getProjectTool := mcp.NewTool("get_project",
		mcp.WithDescription("Get a project by its ID"),
		mcp.WithString("project_id",
			mcp.Required(),
			mcp.Description("Project ID (PRJ-YYYYMMDDhhmmss)"),
		),
	)

	s.AddTool(getProjectTool, common.InstrumentedToolHandlerWithService(
		"get_project", instrumentation.ServiceSheets, instrumentation.OperationGet, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGetProject(ctx, request, sc)
		}))

	listClientProjectsTool := mcp.NewTool("list_client_projects",
		mcp.WithDescription("List the projects of a CRM client"),
		mcp.WithString(common.ArgClientID,
			mcp.Required(),
			mcp.Description("Client ID"),
		),
	)

	s.AddTool(listClientProjectsTool, common.InstrumentedToolHandlerWithService(
		"list_client_projects", instrumentation.ServiceSheets, instrumentation.OperationList, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListClientProjects(ctx, request, sc)
		}))

	listProjectsByDateTool := mcp.NewTool("list_projects_by_date",
		mcp.WithDescription("List the projects starting on a date"),
		mcp.WithString("date",
			mcp.Required(),
			mcp.Description("Date formatted YYYY-MM-DD"),
		),
	)

	s.AddTool(listProjectsByDateTool, common.InstrumentedToolHandlerWithService(
		"list_projects_by_date", instrumentation.ServiceSheets, instrumentation.OperationList, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListProjectsByDate(ctx, request, sc)
		}))

	if readOnly {
		return nil
	}

	createProjectTool := mcp.NewTool("create_project",
		mcp.WithDescription("Create a project for a CRM client. The status defaults to 'En Progreso' and the start date to now"),
		mcp.WithString("nombre",
			mcp.Required(),
			mcp.Description("Project name"),
		),
		mcp.WithString(common.ArgClientID,
			mcp.Required(),
			mcp.Description("Client ID"),
		),
		mcp.WithString("servicio",
			mcp.Description("Service from the catalog"),
		),
		mcp.WithString("descripcion",
			mcp.Description("Project description"),
		),
		mcp.WithString("fecha_inicio",
			mcp.Description("Start date, '2006-01-02' or '2006-01-02 15:04:05'"),
		),
		mcp.WithString("fecha_fin",
			mcp.Description("End date, '2006-01-02' or '2006-01-02 15:04:05'"),
		),
		mcp.WithString("estado",
			mcp.Description("Project status"),
		),
		mcp.WithString("nota",
			mcp.Description("Free-form note"),
		),
	)

	s.AddTool(createProjectTool, common.InstrumentedToolHandlerWithService(
		"create_project", instrumentation.ServiceSheets, instrumentation.OperationAppend, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleCreateProject(ctx, request, sc)
		}))

	updateProjectTool := mcp.NewTool("update_project",
		mcp.WithDescription("Update columns of a project, e.g. {\"Estado\": \"Completado\"}. Keys are column names; unknown keys are rejected"),
		mcp.WithString("project_id",
			mcp.Required(),
			mcp.Description("Project ID"),
		),
		mcp.WithObject("fields",
			mcp.Required(),
			mcp.Description("Column name to new value"),
		),
	)

	s.AddTool(updateProjectTool, common.InstrumentedToolHandlerWithService(
		"update_project", instrumentation.ServiceSheets, instrumentation.OperationUpdate, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleUpdateProject(ctx, request, sc)
		}))

	updateNotesTool := mcp.NewTool("update_client_project_notes",
		mcp.WithDescription("Set the note on every project of a client"),
		mcp.WithString(common.ArgClientID,
			mcp.Required(),
			mcp.Description("Client ID"),
		),
		mcp.WithString("nota",
			mcp.Required(),
			mcp.Description("Note to write"),
		),
	)

	s.AddTool(updateNotesTool, common.InstrumentedToolHandlerWithService(
		"update_client_project_notes", instrumentation.ServiceSheets, instrumentation.OperationUpdate, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleUpdateClientProjectNotes(ctx, request, sc)
		}))

	deleteProjectTool := mcp.NewTool("delete_project",
		mcp.WithDescription("Delete a project"),
		mcp.WithString("project_id",
			mcp.Required(),
			mcp.Description("Project ID"),
		),
	)

	s.AddTool(deleteProjectTool, common.InstrumentedToolHandlerWithService(
		"delete_project", instrumentation.ServiceSheets, instrumentation.OperationDelete, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleDeleteProject(ctx, request, sc)
		}))

	return nil
}

func handleGetProject(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	projects := sc.Projects()
	if projects == nil {
		return common.Unconfigured("get_project"), nil
	}

	rec, err := projects.Get(ctx, cast.ToString(request.GetArguments()["project_id"]))
	if err != nil {
		return common.ErrorResult(err), nil
	}
	return common.JSONResult(rec.Map())
}

func handleListClientProjects(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	projects := sc.Projects()
	if projects == nil {
		return common.Unconfigured("list_client_projects"), nil
	}

	recs, err := projects.ListByClient(ctx, common.ClientIDFromArgs(request.GetArguments()))
	if err != nil {
		return common.ErrorResult(err), nil
	}
	return listResult(recs)
}

func handleListProjectsByDate(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	projects := sc.Projects()
	if projects == nil {
		return common.Unconfigured("list_projects_by_date"), nil
	}

	recs, err := projects.ListByDate(ctx, cast.ToString(request.GetArguments()["date"]))
	if err != nil {
		return common.ErrorResult(err), nil
	}
	return listResult(recs)
}

func handleCreateProject(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	projects := sc.Projects()
	if projects == nil {
		return common.Unconfigured("create_project"), nil
	}

	args := request.GetArguments()
	rec, err := projects.Create(ctx, records.NewProject{
		Name:        cast.ToString(args["nombre"]),
		ClientID:    common.ClientIDFromArgs(args),
		Service:     cast.ToString(args["servicio"]),
		Description: cast.ToString(args["descripcion"]),
		Start:       cast.ToString(args["fecha_inicio"]),
		End:         cast.ToString(args["fecha_fin"]),
		Status:      cast.ToString(args["estado"]),
		Note:        cast.ToString(args["nota"]),
	})
	if err != nil {
		return common.ErrorResult(err), nil
	}

	sc.Logger().Info("project created",
		logging.Tool("create_project"),
		logging.ClientID(rec[records.ProjectClientID]),
		slog.String("project_id", rec[records.ProjectID]))
	return common.JSONResult(rec.Map())
}

func handleUpdateProject(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	projects := sc.Projects()
	if projects == nil {
		return common.Unconfigured("update_project"), nil
	}

	args := request.GetArguments()
	id := cast.ToString(args["project_id"])
	written, err := projects.Update(ctx, id, common.ObjectArg(args, "fields"))
	if err != nil {
		return common.ErrorResult(err), nil
	}
	return common.JSONResult(updateView{ProjectID: id, Updated: common.FieldNames(written)})
}

func handleUpdateClientProjectNotes(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	projects := sc.Projects()
	if projects == nil {
		return common.Unconfigured("update_client_project_notes"), nil
	}

	args := request.GetArguments()
	clientID := common.ClientIDFromArgs(args)
	ids, err := projects.UpdateClientNotes(ctx, clientID, cast.ToString(args["nota"]))
	if err != nil {
		if len(ids) > 0 {
			sc.Logger().Warn("project notes partially updated",
				logging.Tool("update_client_project_notes"),
				logging.ClientID(clientID),
				slog.Int("updated", len(ids)),
				logging.Err(err))
		}
		return common.ErrorResult(err), nil
	}
	return common.JSONResult(notesView{ClientID: clientID, Updated: ids})
}

func handleDeleteProject(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	projects := sc.Projects()
	if projects == nil {
		return common.Unconfigured("delete_project"), nil
	}

	id := cast.ToString(request.GetArguments()["project_id"])
	if err := projects.Delete(ctx, id); err != nil {
		return common.ErrorResult(err), nil
	}
	return common.JSONResult(deleteView{ProjectID: id, Deleted: true})
}

func listResult(recs []records.Record) (*mcp.CallToolResult, error) {
	return common.JSONResult(listView{Count: len(recs), Projects: common.RecordMaps(recs)})
}
