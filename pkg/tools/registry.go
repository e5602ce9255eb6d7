// Package tools exposes the resolver as MCP tools.
package tools

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/NERVsystems/rel2coords/pkg/monitoring"
	"github.com/NERVsystems/rel2coords/pkg/resolver"
	"github.com/NERVsystems/rel2coords/pkg/tracing"
)

// HandlerFunc is the signature of an MCP tool handler
type HandlerFunc func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)

// ToolDefinition pairs a tool with its handler.
type ToolDefinition struct {
	Name    string
	Tool    mcp.Tool
	Handler HandlerFunc
}

// Registry contains all tool definitions and handlers
type Registry struct {
	logger   *slog.Logger
	resolver *resolver.Resolver
}

// NewRegistry creates a tool registry backed by r
func NewRegistry(r *resolver.Resolver, logger *slog.Logger) *Registry {
	return &Registry{
		logger:   logger,
		resolver: r,
	}
}

// GetToolDefinitions returns the list of all available tools.
func (r *Registry) GetToolDefinitions() []ToolDefinition {
	return []ToolDefinition{
		{Name: "resolve_element", Tool: ResolveElementTool(), Handler: r.HandleResolveElement},
		{Name: "polyline_decode", Tool: PolylineDecodeTool(), Handler: r.HandlePolylineDecode},
		{Name: "get_version", Tool: GetVersionTool(), Handler: HandleGetVersion},
	}
}

// GetToolNames returns a list of all tool names.
func (r *Registry) GetToolNames() []string {
	defs := r.GetToolDefinitions()
	names := make([]string, len(defs))
	for i, def := range defs {
		names[i] = def.Name
	}
	return names
}

// RegisterTools registers all tools with the MCP server.
func (r *Registry) RegisterTools(s *server.MCPServer) {
	for _, def := range r.GetToolDefinitions() {
		r.logger.Debug("registering tool", "name", def.Name)
		s.AddTool(def.Tool, server.ToolHandlerFunc(r.instrument(def.Name, def.Handler)))
	}
}

// instrument wraps a handler with a span and the tool metrics
func (r *Registry) instrument(name string, handler HandlerFunc) HandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ctx, span := tracing.StartSpan(ctx, fmt.Sprintf("mcp.tool.%s", name),
			trace.WithAttributes(attribute.String(tracing.AttrToolName, name)))
		defer span.End()

		start := time.Now()
		result, err := handler(ctx, req)
		duration := time.Since(start)

		success := err == nil && (result == nil || !result.IsError)
		status := tracing.StatusSuccess
		if !success {
			status = tracing.StatusError
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
			}
		}
		span.SetAttributes(
			attribute.String(tracing.AttrToolStatus, status),
			attribute.Int64(tracing.AttrToolDuration, duration.Milliseconds()),
		)
		monitoring.RecordToolRequest(name, duration, success)

		r.logger.Debug("tool executed", "tool", name, "duration", duration, "status", status)
		return result, err
	}
}
