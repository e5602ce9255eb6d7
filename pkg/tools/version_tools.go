package tools

import (
	"context"
	"encoding/json"
	"runtime"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/NERVsystems/rel2coords/pkg/version"
)

// VersionInfo represents version information for the service
type VersionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date,omitempty"`
	GoVersion string `json:"go_version"`
}

// GetVersionTool returns a tool definition for retrieving version information
func GetVersionTool() mcp.Tool {
	return mcp.NewTool("get_version",
		mcp.WithDescription("Get the version and build information of rel2coords"),
	)
}

// HandleGetVersion implements version information retrieval
func HandleGetVersion(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	out, _ := json.Marshal(VersionInfo{
		Version:   version.BuildVersion,
		Commit:    version.Commit(),
		BuildDate: version.BuildDate,
		GoVersion: runtime.Version(),
	})
	return mcp.NewToolResultText(string(out)), nil
}
