package tools

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/NERVsystems/rel2coords/pkg/core"
	"github.com/NERVsystems/rel2coords/pkg/geo"
)

// PolylineDecodeOutput defines the output for decoded polyline points
type PolylineDecodeOutput struct {
	Points []geo.Location `json:"points"`
}

// PolylineDecodeTool returns a tool definition for decoding polylines
func PolylineDecodeTool() mcp.Tool {
	return mcp.NewTool("polyline_decode",
		mcp.WithDescription("Decode an encoded polyline string (as produced by resolve_element with format=polyline) into coordinates"),
		mcp.WithString("polyline",
			mcp.Required(),
			mcp.Description("The encoded polyline string to decode"),
		),
		mcp.WithNumber("precision",
			mcp.Description("Decimal places of precision: 5 (default) or 6"),
		),
	)
}

// HandlePolylineDecode implements polyline decoding
func (r *Registry) HandlePolylineDecode(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger := r.logger.With("tool", "polyline_decode")

	polyline := mcp.ParseString(req, "polyline", "")
	if polyline == "" {
		return core.NewError(core.ErrMissingParameter, "polyline is required").ToMCPResult(), nil
	}
	precision := int(mcp.ParseFloat64(req, "precision", core.Precision5))
	if precision != core.Precision5 && precision != core.Precision6 {
		return core.NewError(core.ErrInvalidInput, "precision must be 5 or 6").ToMCPResult(), nil
	}

	points, err := core.DecodePolylinePrecision(polyline, precision)
	if err != nil {
		logger.Debug("failed to decode polyline", "error", err)
		return core.NewError(core.ErrParseError, err.Error()).
			WithGuidance("Check that the polyline was copied completely").ToMCPResult(), nil
	}

	out, err := json.Marshal(PolylineDecodeOutput{Points: points})
	if err != nil {
		return core.NewError(core.ErrInternalError, "failed to generate result").ToMCPResult(), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}
