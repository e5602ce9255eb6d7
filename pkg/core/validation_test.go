package core

import (
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
)

func TestValidateElementID(t *testing.T) {
	tests := []struct {
		id   string
		code ErrorCode
	}{
		{"2128634", ""},
		{"1", ""},
		{"", ErrMissingParameter},
		{"0", ErrInvalidInput},
		{"-5", ErrInvalidInput},
		{"12a", ErrInvalidInput},
		{"1.5", ErrInvalidInput},
	}

	for _, tt := range tests {
		err := ValidateElementID(tt.id)
		if tt.code == "" {
			if err != nil {
				t.Errorf("ValidateElementID(%q) = %v, want nil", tt.id, err)
			}
			continue
		}
		if !IsCode(err, tt.code) {
			t.Errorf("ValidateElementID(%q) = %v, want %s", tt.id, err, tt.code)
		}
	}
}

func TestParseElementID(t *testing.T) {
	tests := []struct {
		name    string
		args    map[string]any
		want    string
		wantErr bool
	}{
		{"string", map[string]any{"id": "169202638"}, "169202638", false},
		{"number", map[string]any{"id": float64(2128634)}, "2128634", false},
		{"missing", map[string]any{}, "", true},
		{"fraction", map[string]any{"id": 1.5}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := mcp.CallToolRequest{Params: mcp.CallToolParams{Arguments: tt.args}}
			got, err := ParseElementID(req, "")
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseElementID() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseElementID() = %q, want %q", got, tt.want)
			}
		})
	}
}
