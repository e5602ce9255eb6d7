package core

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"
)

// ValidateElementID checks that id is a positive decimal integer, the form
// OSM element ids take in the API.
func ValidateElementID(id string) error {
	if id == "" {
		return NewError(ErrMissingParameter, "element id is required").
			WithGuidance("Pass the numeric id of the OSM element, e.g. 2128634")
	}
	n, err := strconv.ParseUint(id, 10, 64)
	if err != nil || n == 0 {
		return NewError(ErrInvalidInput, fmt.Sprintf("element id must be a positive integer, got %q", id)).
			WithGuidance("Use the number shown in the element URL, e.g. openstreetmap.org/relation/2128634")
	}
	return nil
}

// ParseElementID extracts and validates an element id from a CallToolRequest.
// Numeric arguments are accepted as well as strings.
func ParseElementID(req mcp.CallToolRequest, key string) (string, error) {
	if key == "" {
		key = "id"
	}
	id := mcp.ParseString(req, key, "")
	if err := ValidateElementID(id); err != nil {
		return "", err
	}
	return id, nil
}

// ParseElementIDWithLog is ParseElementID with a debug log on failure
func ParseElementIDWithLog(req mcp.CallToolRequest, logger *slog.Logger, key string) (string, error) {
	id, err := ParseElementID(req, key)
	if err != nil {
		logger.Debug("invalid element id", "key", key, "error", err)
	}
	return id, err
}
