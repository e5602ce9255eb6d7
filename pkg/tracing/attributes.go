package tracing

import "go.opentelemetry.io/otel/attribute"

// Attribute keys
const (
	// OSM element attributes
	AttrElementKind = "osm.element.kind"
	AttrElementRef  = "osm.element.ref"
	AttrMemberCount = "osm.element.member_count"

	// Resolution attributes
	AttrCoordinateCount = "rel2coords.coordinates"
	AttrFailureCount    = "rel2coords.failures"
	AttrDepth           = "rel2coords.depth"

	// MCP tool attributes
	AttrToolName     = "mcp.tool.name"
	AttrToolStatus   = "mcp.tool.status"
	AttrToolDuration = "mcp.tool.duration_ms"

	// HTTP attributes
	AttrHTTPMethod       = "http.method"
	AttrHTTPURL          = "http.url"
	AttrHTTPStatusCode   = "http.status_code"
	AttrRetryMaxAttempts = "http.retry.max_attempts"
	AttrRetryAttempts    = "http.retry.attempts"

	// Error attributes
	AttrErrorCode    = "error.code"
	AttrErrorMessage = "error.message"
)

// Status values
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// ElementAttributes returns attributes identifying an OSM element
func ElementAttributes(kind, ref string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrElementKind, kind),
		attribute.String(AttrElementRef, ref),
	}
}

// ResultAttributes returns attributes summarising a resolution
func ResultAttributes(coordinates, failures int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int(AttrCoordinateCount, coordinates),
		attribute.Int(AttrFailureCount, failures),
	}
}

// ErrorAttributes returns attributes for errors
func ErrorAttributes(code string, err error) []attribute.KeyValue {
	if err == nil {
		return nil
	}
	return []attribute.KeyValue{
		attribute.String(AttrErrorCode, code),
		attribute.String(AttrErrorMessage, err.Error()),
	}
}
