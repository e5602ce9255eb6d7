// Package server hosts the rel2coords tools behind the MCP stdio transport
// and serves the optional metrics endpoint.
package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/NERVsystems/rel2coords/pkg/monitoring"
	"github.com/NERVsystems/rel2coords/pkg/tools"
)

// ServerName is the name of the MCP server
const ServerName = "rel2coords"

// Server encapsulates the MCP server with the resolver tools.
type Server struct {
	srv    *mcpserver.MCPServer
	logger *slog.Logger
}

// NewServer creates an MCP server with every tool of registry registered.
func NewServer(registry *tools.Registry, version string, logger *slog.Logger) *Server {
	logger.Info("initializing MCP server",
		"name", ServerName,
		"version", version)

	srv := mcpserver.NewMCPServer(
		ServerName,
		version,
		mcpserver.WithToolCapabilities(false),
		mcpserver.WithRecovery(),
	)
	registry.RegisterTools(srv)

	prompt := mcp.NewPrompt("resolve_route",
		mcp.WithPromptDescription("Instructions for turning an OSM route relation into coordinates"),
	)
	srv.AddPrompt(prompt, func(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		return mcp.NewGetPromptResult(
			"Resolving OSM Elements",
			[]mcp.PromptMessage{
				mcp.NewPromptMessage(mcp.RoleAssistant, mcp.NewTextContent(resolvePrompt)),
			},
		), nil
	})

	return &Server{srv: srv, logger: logger}
}

const resolvePrompt = `Use resolve_element to turn an OpenStreetMap element into coordinates.
Pass the numeric id and kind (relation, way or node). Relations are expanded member by member in document order,
ways node by node. Coordinates are [latitude, longitude] pairs unless format is polyline or geojson.
Entries in "failures" name references that could not be resolved; the remaining coordinates are still usable.
Use polyline_decode to expand a polyline result.`

// Run serves MCP over in and out until ctx is cancelled or in is exhausted.
func (s *Server) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	stdio := mcpserver.NewStdioServer(s.srv)
	stdio.SetErrorLogger(slog.NewLogLogger(s.logger.Handler(), slog.LevelError))

	s.logger.Info("serving MCP over stdio")
	err := stdio.Listen(ctx, in, out)
	if err == nil || errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// GetMCPServer returns the underlying MCP server instance
func (s *Server) GetMCPServer() *mcpserver.MCPServer {
	return s.srv
}

// NewMonitoringServer returns an HTTP server exposing /metrics and /health on addr.
func NewMonitoringServer(addr string, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", monitoring.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(`{"status":"ok"}`)); err != nil {
			logger.Error("failed to write health response", "error", err)
		}
	})

	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 30 * time.Second,
	}
}

// ServeMonitoring runs srv until ctx is done, then shuts it down gracefully.
func ServeMonitoring(ctx context.Context, srv *http.Server, logger *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting Prometheus metrics server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown monitoring server", "error", err)
		return err
	}
	return nil
}
