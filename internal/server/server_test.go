package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServerContext(t *testing.T) {
	sc := NewServerContext(context.Background(), Services{},
		WithCalendarID("primary"),
		WithToolTimeout(5*time.Second),
		WithLogger(nil),
	)

	assert.Equal(t, "primary", sc.CalendarID())
	assert.Equal(t, 5*time.Second, sc.ToolTimeout())
	assert.NotNil(t, sc.Logger())
	assert.Nil(t, sc.Metrics())
	assert.Nil(t, sc.AuditLogger())
	assert.Nil(t, sc.Booking())

	assert.False(t, sc.IsShutdown())
	require.NoError(t, sc.Shutdown())
	require.NoError(t, sc.Shutdown())
	assert.True(t, sc.IsShutdown())
	assert.ErrorIs(t, sc.Context().Err(), context.Canceled)
}

func TestServerContext_DefaultTimeout(t *testing.T) {
	sc := NewServerContext(context.Background(), Services{}, WithToolTimeout(0))
	assert.Equal(t, DefaultToolTimeout, sc.ToolTimeout())
}

func decodeHealth(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHealthChecker(t *testing.T) {
	tests := []struct {
		name       string
		ready      bool
		shutdown   bool
		checkErr   error
		wantStatus int
	}{
		{name: "ready", ready: true, wantStatus: http.StatusOK},
		{name: "not ready", ready: false, wantStatus: http.StatusServiceUnavailable},
		{name: "shutting down", ready: true, shutdown: true, wantStatus: http.StatusServiceUnavailable},
		{name: "failing dependency", ready: true, checkErr: errors.New("sheet header mismatch"), wantStatus: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc := NewServerContext(context.Background(), Services{})
			if tt.shutdown {
				require.NoError(t, sc.Shutdown())
			}
			h := NewHealthChecker(sc)
			h.SetReady(tt.ready)
			h.AddCheck("sheets", func(context.Context) error { return tt.checkErr })

			mux := http.NewServeMux()
			h.RegisterHealthEndpoints(mux)

			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
			assert.Equal(t, http.StatusOK, rec.Code, "liveness is independent of readiness")

			rec = httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
			assert.Equal(t, tt.wantStatus, rec.Code)
			checks, _ := decodeHealth(t, rec)["checks"].(map[string]any)
			if tt.checkErr != nil {
				assert.Equal(t, tt.checkErr.Error(), checks["sheets"])
			} else {
				assert.Equal(t, healthStatusOK, checks["sheets"])
			}

			rec = httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz/detailed", nil))
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.NotEmpty(t, decodeHealth(t, rec)["uptime"])
		})
	}
}

func TestIPRateLimiter(t *testing.T) {
	rl := NewIPRateLimiter(1, 2, false)
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("192.0.2.1"))
	assert.True(t, rl.Allow("192.0.2.1"))
	assert.False(t, rl.Allow("192.0.2.1"), "burst exhausted")
	assert.True(t, rl.Allow("192.0.2.2"), "other IPs have their own bucket")

	now = now.Add(time.Second)
	assert.True(t, rl.Allow("192.0.2.1"), "token refilled after one second")

	now = now.Add(limiterIdleTTL + time.Second)
	rl.Cleanup()
	assert.Equal(t, 0, rl.size())
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remote     string
		headers    map[string]string
		trustProxy bool
		want       string
	}{
		{name: "remote addr", remote: "192.0.2.1:5000", want: "192.0.2.1"},
		{name: "ipv6 remote addr", remote: "[2001:db8::1]:5000", want: "2001:db8::1"},
		{name: "forwarded ignored", remote: "192.0.2.1:5000", headers: map[string]string{"X-Forwarded-For": "203.0.113.9"}, want: "192.0.2.1"},
		{name: "forwarded trusted", remote: "192.0.2.1:5000", headers: map[string]string{"X-Forwarded-For": "203.0.113.9, 10.0.0.1"}, trustProxy: true, want: "203.0.113.9"},
		{name: "real ip trusted", remote: "192.0.2.1:5000", headers: map[string]string{"X-Real-IP": "203.0.113.7"}, trustProxy: true, want: "203.0.113.7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, clientIP(r, tt.trustProxy))
		})
	}
}

func TestHTTPServer_Handler(t *testing.T) {
	mcpSrv := mcpserver.NewMCPServer("leadcal-test", "test", mcpserver.WithToolCapabilities(true))
	srv, err := NewHTTPServer(mcpSrv, HTTPServerConfig{
		Addr:      "127.0.0.1:0",
		RateLimit: 1,
		RateBurst: 1,
		Health:    NewHealthChecker(nil),
	})
	require.NoError(t, err)
	handler := srv.Handler()

	post := func() *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodPost, MCPEndpoint, strings.NewReader("{"))
		r.RemoteAddr = "192.0.2.1:4000"
		r.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, r)
		return rec
	}

	first := post()
	assert.NotEqual(t, http.StatusTooManyRequests, first.Code)
	second := post()
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "1", second.Header().Get("Retry-After"))

	// health endpoints are not throttled
	for i := 0; i < 3; i++ {
		r := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		r.RemoteAddr = "192.0.2.1:4000"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, r)
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestNewHTTPServer_Validation(t *testing.T) {
	_, err := NewHTTPServer(nil, HTTPServerConfig{Addr: ":0"})
	assert.Error(t, err)

	_, err = NewHTTPServer(mcpserver.NewMCPServer("x", "y"), HTTPServerConfig{})
	assert.Error(t, err)
}

func TestHTTPServer_StartAndShutdown(t *testing.T) {
	mcpSrv := mcpserver.NewMCPServer("leadcal-test", "test")
	srv, err := NewHTTPServer(mcpSrv, HTTPServerConfig{Addr: "127.0.0.1:0", Health: NewHealthChecker(nil)})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- srv.Start(ctx) }()

	var resp *http.Response
	require.Eventually(t, func() bool {
		if srv.Addr() == "127.0.0.1:0" {
			return false
		}
		resp, err = http.Get("http://" + srv.Addr() + "/healthz")
		return err == nil
	}, 2*time.Second, 20*time.Millisecond)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	require.NoError(t, srv.Shutdown(shutdownCtx))
	assert.ErrorIs(t, <-done, http.ErrServerClosed)
}
