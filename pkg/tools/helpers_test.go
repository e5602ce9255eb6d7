package tools

import (
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
)

// resultText returns the first text content of a tool result
func resultText(result *mcp.CallToolResult) string {
	for _, c := range result.Content {
		if text, ok := c.(mcp.TextContent); ok {
			return text.Text
		}
	}
	return ""
}

// AssertErrorResult fails the test unless result is an error result
func AssertErrorResult(t *testing.T, result *mcp.CallToolResult, message string) {
	t.Helper()
	if result == nil || !result.IsError {
		t.Error(message)
	}
}

// AssertSuccessResult fails the test if result is an error result
func AssertSuccessResult(t *testing.T, result *mcp.CallToolResult, message string) {
	t.Helper()
	if result == nil {
		t.Fatalf("%s: nil result", message)
	}
	if result.IsError {
		t.Errorf("%s. Got error: %s", message, resultText(result))
	}
}

// ParseResultJSON parses the JSON content from a CallToolResult
func ParseResultJSON(result *mcp.CallToolResult, out interface{}) error {
	return json.Unmarshal([]byte(resultText(result)), out)
}
