// Package core provides shared utilities for resolving OpenStreetMap references.
package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
)

// ErrorCode classifies why a reference could not be resolved.
type ErrorCode string

// Standard error codes
const (
	// Input errors
	ErrInvalidInput     ErrorCode = "INVALID_INPUT"
	ErrMissingParameter ErrorCode = "MISSING_PARAMETER"

	// Document errors
	ErrMissingAttribute  ErrorCode = "MISSING_ATTRIBUTE"
	ErrUnknownMemberType ErrorCode = "UNKNOWN_MEMBER_TYPE"
	ErrParseError        ErrorCode = "PARSE_ERROR"

	// Nested relation errors
	ErrCyclicRelation ErrorCode = "CYCLIC_RELATION"
	ErrDepthExceeded  ErrorCode = "DEPTH_EXCEEDED"

	// Service errors
	ErrNotFound           ErrorCode = "NOT_FOUND"
	ErrGone               ErrorCode = "GONE"
	ErrRateLimit          ErrorCode = "RATE_LIMIT"
	ErrServiceTimeout     ErrorCode = "SERVICE_TIMEOUT"
	ErrServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	ErrNetworkError       ErrorCode = "NETWORK_ERROR"
	ErrInternalError      ErrorCode = "INTERNAL_ERROR"
)

// Error is the error type returned by the OSM client and recorded by the resolver.
type Error struct {
	Code     ErrorCode `json:"code"`
	Message  string    `json:"message"`
	Kind     string    `json:"kind,omitempty"`
	Ref      string    `json:"ref,omitempty"`
	Guidance string    `json:"guidance,omitempty"`

	cause error
}

// Error implements the error interface
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Kind != "" || e.Ref != "" {
		msg = fmt.Sprintf("%s (%s %s)", msg, e.Kind, e.Ref)
	}
	if e.cause != nil {
		msg += ": " + e.cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.cause
}

// NewError creates a new Error with the given code and message
func NewError(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// WithRef attaches the element the error refers to.
func (e *Error) WithRef(kind, ref string) *Error {
	e.Kind = kind
	e.Ref = ref
	return e
}

// WithGuidance adds guidance information to the error
func (e *Error) WithGuidance(guidance string) *Error {
	e.Guidance = guidance
	return e
}

// WithCause wraps an underlying error.
func (e *Error) WithCause(err error) *Error {
	e.cause = err
	return e
}

// CodeOf returns the code of the first *Error in err's chain, or
// ErrInternalError when there is none.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrInternalError
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code ErrorCode) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}

// ToMCPResult converts the error to an MCP tool result
func (e *Error) ToMCPResult() *mcp.CallToolResult {
	errorJSON, err := json.Marshal(e)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("ERROR: %s - %s", e.Code, e.Message))
	}
	return mcp.NewToolResultError(string(errorJSON))
}

// ServiceError creates an error for a non-200 response from the OSM API.
func ServiceError(service string, statusCode int) *Error {
	var code ErrorCode
	var guidance string

	switch statusCode {
	case http.StatusNotFound:
		code = ErrNotFound
		guidance = "The element does not exist. Check the id and element kind."
	case http.StatusGone:
		code = ErrGone
		guidance = "The element has been deleted."
	case http.StatusTooManyRequests, 509: // OSM uses 509 for bandwidth limits
		code = ErrRateLimit
		guidance = "The API is throttling requests. Try again later or lower -procs."
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		code = ErrServiceTimeout
		guidance = "The request timed out. Try again later."
	case http.StatusBadRequest:
		code = ErrInvalidInput
		guidance = "The request was invalid. Check the element id."
	case http.StatusInternalServerError:
		code = ErrInternalError
		guidance = "The server encountered an error. This is likely temporary."
	default:
		code = ErrServiceUnavailable
		guidance = "Please try again later."
	}

	return NewError(code, fmt.Sprintf("%s returned HTTP %d", service, statusCode)).
		WithGuidance(guidance)
}
