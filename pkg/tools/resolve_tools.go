package tools

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/NERVsystems/rel2coords/pkg/core"
	"github.com/NERVsystems/rel2coords/pkg/export"
	"github.com/NERVsystems/rel2coords/pkg/monitoring"
	"github.com/NERVsystems/rel2coords/pkg/osm"
	"github.com/NERVsystems/rel2coords/pkg/resolver"
)

// ResolveElementOutput is the JSON payload of a resolve_element result
type ResolveElementOutput struct {
	Kind     osm.ElementKind    `json:"kind"`
	ID       string             `json:"id"`
	Format   export.Format      `json:"format"`
	Count    int                `json:"count"`
	Result   json.RawMessage    `json:"result"`
	Failures []resolver.Failure `json:"failures"`
}

// ResolveElementTool returns the tool definition for resolve_element
func ResolveElementTool() mcp.Tool {
	return mcp.NewTool("resolve_element",
		mcp.WithDescription("Resolve an OpenStreetMap relation, way or node into its ordered list of coordinates by following member and node references"),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("The OSM element id, e.g. 2128634"),
		),
		mcp.WithString("kind",
			mcp.Description("Element kind: relation (default), way or node"),
			mcp.Enum("relation", "way", "node"),
		),
		mcp.WithString("format",
			mcp.Description("Output encoding: json (default, [lat, lon] pairs), polyline or geojson"),
			mcp.Enum("json", "polyline", "geojson"),
		),
	)
}

// HandleResolveElement resolves one element
func (r *Registry) HandleResolveElement(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger := r.logger.With("tool", "resolve_element")

	id, err := core.ParseElementIDWithLog(req, logger, "id")
	if err != nil {
		var e *core.Error
		if errors.As(err, &e) {
			return e.ToMCPResult(), nil
		}
		return core.NewError(core.ErrInvalidInput, err.Error()).ToMCPResult(), nil
	}
	kind, err := osm.ParseKind(mcp.ParseString(req, "kind", string(osm.KindRelation)))
	if err != nil {
		return core.NewError(core.ErrInvalidInput, err.Error()).ToMCPResult(), nil
	}
	format, err := export.ParseFormat(mcp.ParseString(req, "format", string(export.FormatJSON)))
	if err != nil {
		return core.NewError(core.ErrInvalidInput, err.Error()).ToMCPResult(), nil
	}

	res, err := r.resolver.Resolve(ctx, kind, id)
	if err != nil {
		logger.Error("resolution aborted", "kind", kind, "id", id, "error", err)
		return core.NewError(core.CodeOf(err), "resolution aborted").WithRef(string(kind), id).WithCause(err).ToMCPResult(), nil
	}
	monitoring.RecordCoordinates(len(res.Coordinates))

	encoded, err := export.Encode(format, export.Feature{Kind: kind, ID: id, Coordinates: res.Coordinates})
	if err != nil {
		return core.NewError(core.ErrInternalError, "failed to encode result").WithCause(err).ToMCPResult(), nil
	}
	if format == export.FormatPolyline {
		encoded, _ = json.Marshal(string(encoded))
	}

	failures := res.Failures
	if failures == nil {
		failures = []resolver.Failure{}
	}
	out, err := json.Marshal(ResolveElementOutput{
		Kind:     kind,
		ID:       id,
		Format:   format,
		Count:    len(res.Coordinates),
		Result:   encoded,
		Failures: failures,
	})
	if err != nil {
		logger.Error("failed to marshal result", "error", err)
		return core.NewError(core.ErrInternalError, "failed to generate result").ToMCPResult(), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}
