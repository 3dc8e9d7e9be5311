package common

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/teemow/leadcal/internal/instrumentation"
	"github.com/teemow/leadcal/internal/server"
)

func newTestServerContext(t *testing.T, opts ...server.Option) *server.ServerContext {
	t.Helper()
	sc := server.NewServerContext(context.Background(), server.Services{}, opts...)
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc
}

func callRequest(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{Params: mcp.CallToolParams{Arguments: args}}
}

func TestInstrumentedToolHandler_Success(t *testing.T) {
	sc := newTestServerContext(t)

	called := false
	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		called = true
		return mcp.NewToolResultText("success"), nil
	}

	result, err := InstrumentedToolHandler("test_tool", sc, handler)(context.Background(), mcp.CallToolRequest{})
	require.NoError(t, err)
	assert.True(t, called)
	require.NotNil(t, result)
	assert.False(t, result.IsError)
}

func TestInstrumentedToolHandler_PropagatesErrors(t *testing.T) {
	sc := newTestServerContext(t)

	expectedErr := errors.New("test error")
	_, err := InstrumentedToolHandler("test_tool", sc, func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return nil, expectedErr
	})(context.Background(), mcp.CallToolRequest{})
	assert.Equal(t, expectedErr, err)

	result, err := InstrumentedToolHandler("test_tool", sc, func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultError("error message"), nil
	})(context.Background(), mcp.CallToolRequest{})
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestInstrumentedToolHandler_AppliesTimeout(t *testing.T) {
	sc := newTestServerContext(t, server.WithToolTimeout(50*time.Millisecond))

	var deadline time.Time
	var hasDeadline bool
	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		deadline, hasDeadline = ctx.Deadline()
		<-ctx.Done()
		return mcp.NewToolResultError(ctx.Err().Error()), nil
	}

	start := time.Now()
	result, err := InstrumentedToolHandler("slow_tool", sc, handler)(context.Background(), mcp.CallToolRequest{})
	require.NoError(t, err)
	assert.True(t, hasDeadline)
	assert.WithinDuration(t, start.Add(50*time.Millisecond), deadline, 40*time.Millisecond)
	assert.True(t, result.IsError)
}

func TestInstrumentedToolHandlerWithService_MetricsAndAudit(t *testing.T) {
	sc := newTestServerContext(t, server.WithCalendarID("primary"))

	metrics, err := instrumentation.NewMetrics(noop.NewMeterProvider().Meter("test"), false)
	require.NoError(t, err)
	sc.SetMetrics(metrics)

	var buf bytes.Buffer
	sc.SetAuditLogger(instrumentation.NewAuditLogger(slog.New(slog.NewTextHandler(&buf, nil)),
		instrumentation.AuditLoggingConfig{Enabled: true}))

	tests := []struct {
		name    string
		handler ToolHandler
		wantMsg string
		wantErr bool
	}{
		{
			name: "success",
			handler: func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				return mcp.NewToolResultText("ok"), nil
			},
			wantMsg: "tool_executed",
		},
		{
			name: "tool error result",
			handler: func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				return mcp.NewToolResultError("rejected"), nil
			},
			wantMsg: "tool_failed",
		},
		{
			name: "go error",
			handler: func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				return nil, errors.New("calendar API error")
			},
			wantMsg: "tool_failed",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			wrapped := InstrumentedToolHandlerWithService("create_meeting", instrumentation.ServiceCalendar, instrumentation.OperationInsert, sc, tt.handler)

			_, err := wrapped(context.Background(), callRequest(map[string]any{
				"client_id": "A1B2C3",
				"correo":    "ana@example.com",
			}))
			assert.Equal(t, tt.wantErr, err != nil)

			out := buf.String()
			assert.Contains(t, out, tt.wantMsg)
			assert.Contains(t, out, "client_id=A1B2C3")
			assert.Contains(t, out, "service=calendar")
			assert.Contains(t, out, "operation=insert")
			assert.Contains(t, out, "contact=example.com")
			assert.NotContains(t, out, "ana@")
		})
	}
}
