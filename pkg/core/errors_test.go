package core

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
)

func TestServiceErrorCodes(t *testing.T) {
	tests := []struct {
		status int
		code   ErrorCode
	}{
		{http.StatusNotFound, ErrNotFound},
		{http.StatusGone, ErrGone},
		{http.StatusTooManyRequests, ErrRateLimit},
		{509, ErrRateLimit},
		{http.StatusGatewayTimeout, ErrServiceTimeout},
		{http.StatusBadRequest, ErrInvalidInput},
		{http.StatusInternalServerError, ErrInternalError},
		{http.StatusServiceUnavailable, ErrServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.status), func(t *testing.T) {
			err := ServiceError("api.example.org", tt.status)
			if err.Code != tt.code {
				t.Errorf("code = %s, want %s", err.Code, tt.code)
			}
			if err.Guidance == "" {
				t.Error("expected guidance")
			}
		})
	}
}

func TestErrorChain(t *testing.T) {
	cause := errors.New("connection reset")
	err := fmt.Errorf("fetch: %w", NewError(ErrNetworkError, "request failed").WithRef("way", "100").WithCause(cause))

	if !errors.Is(err, cause) {
		t.Error("cause not reachable through errors.Is")
	}
	if CodeOf(err) != ErrNetworkError {
		t.Errorf("CodeOf = %s", CodeOf(err))
	}
	if !IsCode(err, ErrNetworkError) || IsCode(err, ErrParseError) {
		t.Error("IsCode mismatch")
	}
	if CodeOf(cause) != ErrInternalError {
		t.Errorf("CodeOf(plain error) = %s, want INTERNAL_ERROR", CodeOf(cause))
	}

	msg := err.Error()
	for _, part := range []string{"NETWORK_ERROR", "way 100", "connection reset"} {
		if !strings.Contains(msg, part) {
			t.Errorf("message %q missing %q", msg, part)
		}
	}
}

func TestToMCPResult(t *testing.T) {
	result := NewError(ErrMissingParameter, "id is required").ToMCPResult()
	if !result.IsError {
		t.Fatal("expected error result")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("unexpected content type %T", result.Content[0])
	}
	if !strings.Contains(text.Text, `"code":"MISSING_PARAMETER"`) {
		t.Errorf("unexpected payload %s", text.Text)
	}
}
