package catalog_tools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/leadcal/internal/records"
	"github.com/teemow/leadcal/internal/server"
)

func newTestContext(t *testing.T) *server.ServerContext {
	t.Helper()
	store := records.NewMemoryStore(records.CatalogSchema("Services"),
		records.Record{records.CatalogName: "Landing Page", records.CatalogDescription: "Sitio de una página", records.CatalogPrice: "500"},
		records.Record{records.CatalogName: "Chatbot", records.CatalogDescription: "Asistente de WhatsApp", records.CatalogPrice: "900"},
	)
	sc := server.NewServerContext(context.Background(), server.Services{Catalog: records.NewCatalog(store)})
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

func TestRegisterCatalogTools(t *testing.T) {
	for _, readOnly := range []bool{false, true} {
		sc := newTestContext(t)
		mcpSrv := mcpserver.NewMCPServer("test-server", "1.0.0",
			mcpserver.WithToolCapabilities(true),
		)

		require.NoError(t, RegisterCatalogTools(mcpSrv, sc, readOnly))
		tools := mcpSrv.ListTools()
		assert.Contains(t, tools, "list_services")
		assert.Contains(t, tools, "get_service")
	}
}

func TestListServices(t *testing.T) {
	sc := newTestContext(t)

	result, err := handleListServices(context.Background(), callRequest(nil), sc)
	require.NoError(t, err)
	require.False(t, result.IsError)

	var view listView
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &view))
	assert.Equal(t, 2, view.Count)
	assert.Equal(t, "Landing Page", view.Services[0]["Nombre"])
	assert.Equal(t, "900", view.Services[1]["Precio"])
}

func TestGetService(t *testing.T) {
	sc := newTestContext(t)

	tests := []struct {
		name      string
		args      map[string]any
		wantPrice string
		wantErr   string
	}{
		{name: "exact", args: map[string]any{"name": "Chatbot"}, wantPrice: "900"},
		{name: "case-insensitive", args: map[string]any{"name": " landing page "}, wantPrice: "500"},
		{name: "unknown", args: map[string]any{"name": "SEO"}, wantErr: "not_found"},
		{name: "missing", args: map[string]any{}, wantErr: "input_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := handleGetService(context.Background(), callRequest(tt.args), sc)
			require.NoError(t, err)
			if tt.wantErr != "" {
				assert.True(t, result.IsError)
				assert.Contains(t, resultText(t, result), tt.wantErr)
				return
			}
			require.False(t, result.IsError, resultText(t, result))
			var rec map[string]string
			require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &rec))
			assert.Equal(t, tt.wantPrice, rec["Precio"])
		})
	}
}
