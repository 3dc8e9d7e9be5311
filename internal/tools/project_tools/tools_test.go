package project_tools

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/leadcal/internal/records"
	"github.com/teemow/leadcal/internal/server"
)

var cot = time.FixedZone("COT", -5*60*60)

func seedProjects() []records.Record {
	return []records.Record{
		{records.ProjectID: "PRJ-20240301090000", records.ProjectName: "Landing", records.ProjectStatus: "En Progreso", records.ProjectStart: "2024-03-01 09:00:00", records.ProjectClientID: "AAA111"},
		{records.ProjectID: "PRJ-20240302090000", records.ProjectName: "Chatbot", records.ProjectStatus: "En Progreso", records.ProjectStart: "2024-03-02", records.ProjectClientID: "AAA111"},
		{records.ProjectID: "PRJ-20240302100000", records.ProjectName: "Tienda", records.ProjectStatus: "Completado", records.ProjectStart: "2024-03-02 10:00:00", records.ProjectClientID: "BBB222"},
	}
}

func newTestContext(t *testing.T) *server.ServerContext {
	t.Helper()
	store := records.NewMemoryStore(records.ProjectSchema("Projects"), seedProjects()...)
	sc := server.NewServerContext(context.Background(), server.Services{Projects: records.NewProjects(store, cot)})
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc
}

func callRequest(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{Params: mcp.CallToolParams{Arguments: args}}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content, got %T", result.Content[0])
	return text.Text
}

func decode[T any](t *testing.T, result *mcp.CallToolResult) T {
	t.Helper()
	require.False(t, result.IsError, resultText(t, result))
	var v T
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &v))
	return v
}

func projectNames(view listView) []string {
	names := make([]string, 0, len(view.Projects))
	for _, p := range view.Projects {
		names = append(names, p["Nombre"])
	}
	return names
}

func TestRegisterProjectTools(t *testing.T) {
	readWrite := []string{"get_project", "list_client_projects", "list_projects_by_date",
		"create_project", "update_project", "update_client_project_notes", "delete_project"}

	tests := []struct {
		name     string
		readOnly bool
		want     []string
		absent   []string
	}{
		{name: "register in read-write mode", readOnly: false, want: readWrite},
		{
			name:     "register in read-only mode",
			readOnly: true,
			want:     readWrite[:3],
			absent:   readWrite[3:],
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc := newTestContext(t)
			mcpSrv := mcpserver.NewMCPServer("test-server", "1.0.0",
				mcpserver.WithToolCapabilities(true),
			)

			require.NoError(t, RegisterProjectTools(mcpSrv, sc, tt.readOnly))

			tools := mcpSrv.ListTools()
			for _, name := range tt.want {
				assert.Contains(t, tools, name)
			}
			for _, name := range tt.absent {
				assert.NotContains(t, tools, name)
			}
		})
	}
}

func TestCreateProject(t *testing.T) {
	sc := newTestContext(t)

	result, err := handleCreateProject(context.Background(), callRequest(map[string]any{
		"nombre":    "App móvil",
		"client_id": "CCC333",
		"servicio":  "Desarrollo",
		"fecha_fin": "2024-06-30",
	}), sc)
	require.NoError(t, err)
	rec := decode[map[string]string](t, result)

	assert.True(t, strings.HasPrefix(rec["Id"], "PRJ-"), rec["Id"])
	assert.Len(t, rec["Id"], len("PRJ-20060102150405"))
	assert.Equal(t, "En Progreso", rec["Estado"])
	assert.NotEmpty(t, rec["Fecha_Inicio"])
	assert.Equal(t, "CCC333", rec["Id_Cliente"])

	list, err := sc.Projects().ListByClient(context.Background(), "CCC333")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	invalid := []struct {
		name string
		args map[string]any
	}{
		{name: "missing name", args: map[string]any{"client_id": "CCC333"}},
		{name: "missing client", args: map[string]any{"nombre": "App"}},
		{name: "bad date", args: map[string]any{"nombre": "App", "client_id": "CCC333", "fecha_inicio": "pronto"}},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			result, err := handleCreateProject(context.Background(), callRequest(tt.args), sc)
			require.NoError(t, err)
			assert.True(t, result.IsError)
			assert.Contains(t, resultText(t, result), "input_error")
		})
	}
}

func TestReadProjects(t *testing.T) {
	sc := newTestContext(t)

	result, err := handleGetProject(context.Background(), callRequest(map[string]any{"project_id": "PRJ-20240302100000"}), sc)
	require.NoError(t, err)
	assert.Equal(t, "Tienda", decode[map[string]string](t, result)["Nombre"])

	tests := []struct {
		name    string
		handler func(context.Context, mcp.CallToolRequest, *server.ServerContext) (*mcp.CallToolResult, error)
		args    map[string]any
		want    []string
		wantErr string
	}{
		{name: "by client", handler: handleListClientProjects, args: map[string]any{"client_id": "AAA111"}, want: []string{"Landing", "Chatbot"}},
		{name: "by client id_cliente key", handler: handleListClientProjects, args: map[string]any{"id_cliente": "BBB222"}, want: []string{"Tienda"}},
		{name: "by date", handler: handleListProjectsByDate, args: map[string]any{"date": "2024-03-02"}, want: []string{"Chatbot", "Tienda"}},
		{name: "by date none", handler: handleListProjectsByDate, args: map[string]any{"date": "2024-04-01"}, want: []string{}},
		{name: "by date malformed", handler: handleListProjectsByDate, args: map[string]any{"date": "marzo"}, wantErr: "input_error"},
		{name: "get unknown", handler: handleGetProject, args: map[string]any{"project_id": "PRJ-1"}, wantErr: "not_found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := tt.handler(context.Background(), callRequest(tt.args), sc)
			require.NoError(t, err)
			if tt.wantErr != "" {
				assert.True(t, result.IsError)
				assert.Contains(t, resultText(t, result), tt.wantErr)
				return
			}
			view := decode[listView](t, result)
			assert.Equal(t, len(tt.want), view.Count)
			assert.Equal(t, tt.want, projectNames(view))
		})
	}
}

func TestUpdateProject(t *testing.T) {
	sc := newTestContext(t)

	result, err := handleUpdateProject(context.Background(), callRequest(map[string]any{
		"project_id": "PRJ-20240301090000",
		"fields":     map[string]any{"Estado": "Completado", "Fecha_Fin": "2024-03-20"},
	}), sc)
	require.NoError(t, err)
	view := decode[updateView](t, result)
	assert.Equal(t, []string{"Estado", "Fecha_Fin"}, view.Updated)

	result, err = handleUpdateProject(context.Background(), callRequest(map[string]any{
		"project_id": "PRJ-20240301090000",
		"fields":     map[string]any{"Precio": "100"},
	}), sc)
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "unknown fields Precio")
}

func TestUpdateClientProjectNotes(t *testing.T) {
	sc := newTestContext(t)

	result, err := handleUpdateClientProjectNotes(context.Background(), callRequest(map[string]any{
		"client_id": "AAA111",
		"nota":      "pendiente de pago",
	}), sc)
	require.NoError(t, err)
	view := decode[notesView](t, result)
	assert.Equal(t, []string{"PRJ-20240301090000", "PRJ-20240302090000"}, view.Updated)

	rec, err := sc.Projects().Get(context.Background(), "PRJ-20240302090000")
	require.NoError(t, err)
	assert.Equal(t, "pendiente de pago", rec[records.ProjectNote])

	tests := []struct {
		name string
		args map[string]any
		want string
	}{
		{name: "client without projects", args: map[string]any{"client_id": "ZZZ999", "nota": "x"}, want: "not_found"},
		{name: "empty note", args: map[string]any{"client_id": "AAA111", "nota": " "}, want: "input_error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := handleUpdateClientProjectNotes(context.Background(), callRequest(tt.args), sc)
			require.NoError(t, err)
			assert.True(t, result.IsError)
			assert.Contains(t, resultText(t, result), tt.want)
		})
	}
}

func TestDeleteProject(t *testing.T) {
	sc := newTestContext(t)

	result, err := handleDeleteProject(context.Background(), callRequest(map[string]any{"project_id": "PRJ-20240302100000"}), sc)
	require.NoError(t, err)
	assert.True(t, decode[deleteView](t, result).Deleted)

	result, err = handleDeleteProject(context.Background(), callRequest(map[string]any{"project_id": "PRJ-20240302100000"}), sc)
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "not_found")
}
