package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/felixge/httpsnoop"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/leadcal/internal/instrumentation"
)

// MCPEndpoint is the path the streamable HTTP transport is served on.
const MCPEndpoint = "/mcp"

// HTTPServerConfig configures the streamable HTTP transport.
type HTTPServerConfig struct {
	Addr string
	// RateLimit and RateBurst bound requests per client IP. Zero selects defaults.
	RateLimit float64
	RateBurst int
	// TrustProxy makes the limiter key on X-Forwarded-For / X-Real-IP.
	TrustProxy bool
	Health     *HealthChecker
	Metrics    *instrumentation.Metrics
	Logger     *slog.Logger
}

// HTTPServer exposes an MCP server over streamable HTTP together with the
// health endpoints.
type HTTPServer struct {
	mcpServer  *mcpserver.MCPServer
	config     HTTPServerConfig
	limiter    *IPRateLimiter
	logger     *slog.Logger
	mu         sync.Mutex
	httpServer *http.Server
	listener   net.Listener
}

// NewHTTPServer wraps mcpServer for HTTP serving.
func NewHTTPServer(mcpServer *mcpserver.MCPServer, config HTTPServerConfig) (*HTTPServer, error) {
	if mcpServer == nil {
		return nil, fmt.Errorf("mcp server is required")
	}
	if config.Addr == "" {
		return nil, fmt.Errorf("listen address is required")
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPServer{
		mcpServer: mcpServer,
		config:    config,
		limiter:   NewIPRateLimiter(config.RateLimit, config.RateBurst, config.TrustProxy),
		logger:    logger,
	}, nil
}

// Handler builds the HTTP handler: the rate-limited MCP endpoint plus the
// unthrottled health endpoints, all recorded in the HTTP metrics.
func (s *HTTPServer) Handler() http.Handler {
	mux := http.NewServeMux()

	streamable := mcpserver.NewStreamableHTTPServer(s.mcpServer,
		mcpserver.WithEndpointPath(MCPEndpoint),
	)
	mux.Handle(MCPEndpoint, s.limiter.Middleware(streamable))

	if s.config.Health != nil {
		s.config.Health.RegisterHealthEndpoints(mux)
	}

	return s.instrument(mux)
}

// instrument records method, path, status and duration of every request.
func (s *HTTPServer) instrument(next http.Handler) http.Handler {
	metrics := s.config.Metrics
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := httpsnoop.CaptureMetrics(next, w, r)
		if metrics != nil {
			metrics.RecordHTTPRequest(r.Context(), r.Method, r.URL.Path, m.Code, m.Duration)
		}
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", m.Code,
			"duration", m.Duration)
	})
}

// Start listens on the configured address and serves until Shutdown.
func (s *HTTPServer) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Addr, err)
	}

	s.mu.Lock()
	s.listener = ln
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	srv := s.httpServer
	s.mu.Unlock()

	go s.limiter.Run(ctx, time.Minute)

	s.logger.Info("serving MCP over streamable HTTP",
		"addr", ln.Addr().String(),
		"endpoint", MCPEndpoint)
	return srv.Serve(ln)
}

// Addr returns the bound address once Start has been called.
func (s *HTTPServer) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return s.config.Addr
	}
	return s.listener.Addr().String()
}

// Shutdown gracefully shuts down the server
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.httpServer
	s.mu.Unlock()
	if srv != nil {
		return srv.Shutdown(ctx)
	}
	return nil
}
