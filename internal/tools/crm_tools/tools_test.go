package crm_tools

import (
	"context"
	"encoding/json"
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

func newTestContext(t *testing.T, rows ...records.Record) (*server.ServerContext, *records.MemoryStore) {
	t.Helper()
	store := records.NewMemoryStore(records.LeadSchema("Lead"), rows...)
	sc := server.NewServerContext(context.Background(), server.Services{Leads: records.NewLeads(store, cot)})
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc, store
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

func seedLeads() []records.Record {
	return []records.Record{
		{records.LeadID: "AAA111", records.LeadName: "Ana", records.LeadPhone: "+57 300 123 4567", records.LeadEmail: "ana@example.com", records.LeadUser: "@ana", records.LeadType: "Lead", records.LeadStatus: "Nuevo"},
		{records.LeadID: "BBB222", records.LeadName: "Luis", records.LeadPhone: "3109876543", records.LeadEmail: "Luis@Example.com", records.LeadUser: "@luis", records.LeadType: "Cliente", records.LeadStatus: "Ganado"},
	}
}

func TestRegisterCRMTools(t *testing.T) {
	tests := []struct {
		name     string
		readOnly bool
		want     []string
		absent   []string
	}{
		{
			name:     "register in read-write mode",
			readOnly: false,
			want:     []string{"verify_client", "create_client", "update_client"},
		},
		{
			name:     "register in read-only mode",
			readOnly: true,
			want:     []string{"verify_client"},
			absent:   []string{"create_client", "update_client"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc, _ := newTestContext(t)
			mcpSrv := mcpserver.NewMCPServer("test-server", "1.0.0",
				mcpserver.WithToolCapabilities(true),
			)

			require.NoError(t, RegisterCRMTools(mcpSrv, sc, tt.readOnly))

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

func TestVerifyClient(t *testing.T) {
	tests := []struct {
		name      string
		args      map[string]any
		exists    bool
		matchedBy string
		clientID  string
	}{
		{name: "phone with formatting", args: map[string]any{"telefono": "573001234567"}, exists: true, matchedBy: "telefono", clientID: "AAA111"},
		{name: "email case-insensitive", args: map[string]any{"correo": "luis@example.COM"}, exists: true, matchedBy: "correo", clientID: "BBB222"},
		{name: "user handle", args: map[string]any{"usuario": "@luis"}, exists: true, matchedBy: "usuario", clientID: "BBB222"},
		{name: "first row wins", args: map[string]any{"telefono": "000", "correo": "nobody@example.com", "usuario": "@ana"}, exists: true, matchedBy: "usuario", clientID: "AAA111"},
		{name: "no match", args: map[string]any{"correo": "nobody@example.com"}, exists: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc, _ := newTestContext(t, seedLeads()...)

			result, err := handleVerifyClient(context.Background(), callRequest(tt.args), sc)
			require.NoError(t, err)
			view := decode[verifyView](t, result)

			assert.Equal(t, tt.exists, view.Exists)
			assert.Equal(t, tt.matchedBy, view.MatchedBy)
			if tt.exists {
				assert.Equal(t, tt.clientID, view.Client["Id"])
			} else {
				assert.Nil(t, view.Client)
			}
		})
	}

	t.Run("requires an identifier", func(t *testing.T) {
		sc, _ := newTestContext(t, seedLeads()...)

		result, err := handleVerifyClient(context.Background(), callRequest(map[string]any{"telefono": " "}), sc)
		require.NoError(t, err)
		assert.True(t, result.IsError)
		assert.Contains(t, resultText(t, result), "input_error")
	})
}

func TestCreateClient(t *testing.T) {
	sc, _ := newTestContext(t)

	result, err := handleCreateClient(context.Background(), callRequest(map[string]any{
		"nombre":   " Ana ",
		"canal":    "WhatsApp",
		"telefono": "+57 300 123 4567",
		"correo":   "ana@example.com",
	}), sc)
	require.NoError(t, err)
	view := decode[createView](t, result)

	assert.Len(t, view.ClientID, 6)
	assert.Equal(t, view.ClientID, view.Client["Id"])
	assert.Equal(t, "Ana", view.Client["Nombre"])
	assert.Equal(t, "whatsapp", view.Client["Canal"])
	assert.Equal(t, "Lead", view.Client["Tipo"])
	assert.Equal(t, "Nuevo", view.Client["Estado"])
	assert.NotEmpty(t, view.Client["Fecha Adquisición"])

	match, err := sc.Leads().Verify(context.Background(), records.LeadQuery{Email: "ana@example.com"})
	require.NoError(t, err)
	assert.True(t, match.Exists)

	invalid := []struct {
		name string
		args map[string]any
	}{
		{name: "missing name", args: map[string]any{"canal": "web"}},
		{name: "missing channel", args: map[string]any{"nombre": "Ana"}},
		{name: "unknown channel", args: map[string]any{"nombre": "Ana", "canal": "telegram"}},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			result, err := handleCreateClient(context.Background(), callRequest(tt.args), sc)
			require.NoError(t, err)
			assert.True(t, result.IsError)
			assert.Contains(t, resultText(t, result), "input_error")
		})
	}
}

func TestUpdateClient(t *testing.T) {
	tests := []struct {
		name    string
		args    map[string]any
		want    []string
		wantErr string
	}{
		{
			name: "status and conversion date",
			args: map[string]any{"client_id": "AAA111", "tipo": "Cliente", "estado": "Ganado", "fecha_conversion": "2024-03-04"},
			want: []string{"Tipo", "Estado", "Fecha Conversion"},
		},
		{
			name: "spanish id key",
			args: map[string]any{"id_cliente": "AAA111", "nota": "llamar el lunes"},
			want: []string{"Nota"},
		},
		{name: "unknown client", args: map[string]any{"client_id": "ZZZ999", "nota": "x"}, wantErr: "not_found"},
		{name: "missing id", args: map[string]any{"nota": "x"}, wantErr: "input_error"},
		{name: "no fields", args: map[string]any{"client_id": "AAA111"}, wantErr: "no fields provided"},
		{name: "bad status", args: map[string]any{"client_id": "AAA111", "estado": "Archivado"}, wantErr: "estado must be one of"},
		{name: "bad date", args: map[string]any{"client_id": "AAA111", "fecha_conversion": "04/03/2024"}, wantErr: "fecha_conversion"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc, _ := newTestContext(t, seedLeads()...)

			result, err := handleUpdateClient(context.Background(), callRequest(tt.args), sc)
			require.NoError(t, err)
			if tt.wantErr != "" {
				assert.True(t, result.IsError)
				assert.Contains(t, resultText(t, result), tt.wantErr)
				return
			}

			view := decode[updateView](t, result)
			assert.Equal(t, "AAA111", view.ClientID)
			assert.Equal(t, tt.want, view.Updated)
		})
	}
}

func TestCRMToolsUnconfigured(t *testing.T) {
	sc := server.NewServerContext(context.Background(), server.Services{})
	defer sc.Shutdown()

	handlers := map[string]func(context.Context, mcp.CallToolRequest, *server.ServerContext) (*mcp.CallToolResult, error){
		"verify_client": handleVerifyClient,
		"create_client": handleCreateClient,
		"update_client": handleUpdateClient,
	}
	for name, handler := range handlers {
		t.Run(name, func(t *testing.T) {
			result, err := handler(context.Background(), callRequest(map[string]any{}), sc)
			require.NoError(t, err)
			assert.True(t, result.IsError)
			assert.Contains(t, resultText(t, result), "provider_unavailable")
		})
	}
}
