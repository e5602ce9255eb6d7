// Package monitoring exposes Prometheus metrics for rel2coords.
package monitoring

import (
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/NERVsystems/rel2coords/pkg/core"
	"github.com/NERVsystems/rel2coords/pkg/osm"
)

var (
	// OSM API fetch metrics
	FetchRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rel2coords_fetch_requests_total",
			Help: "Total number of OSM element fetches",
		},
		[]string{"kind", "status"},
	)

	FetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rel2coords_fetch_duration_seconds",
			Help:    "OSM element fetch duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0},
		},
		[]string{"kind"},
	)

	FetchErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rel2coords_fetch_errors_total",
			Help: "Total number of failed OSM element fetches by error code",
		},
		[]string{"kind", "code"},
	)

	// Resolution metrics
	ResolveFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rel2coords_resolve_failures_total",
			Help: "Total number of references skipped during resolution",
		},
		[]string{"kind", "code"},
	)

	CoordinatesResolvedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rel2coords_coordinates_resolved_total",
			Help: "Total number of coordinates produced",
		},
	)

	// MCP tool metrics
	ToolRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rel2coords_tool_requests_total",
			Help: "Total number of MCP tool calls",
		},
		[]string{"tool", "status"},
	)

	ToolRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rel2coords_tool_request_duration_seconds",
			Help:    "MCP tool call duration in seconds",
			Buckets: []float64{0.1, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0, 120.0},
		},
		[]string{"tool"},
	)

	// System metrics
	SystemInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "rel2coords_system_info",
			Help: "System information",
		},
		[]string{"version", "go_version", "build_commit"},
	)
)

func status(success bool) string {
	if success {
		return "success"
	}
	return "error"
}

// RecordFetch records a completed fetch
func RecordFetch(kind osm.ElementKind, duration time.Duration, success bool) {
	FetchRequestsTotal.WithLabelValues(string(kind), status(success)).Inc()
	FetchDuration.WithLabelValues(string(kind)).Observe(duration.Seconds())
}

// RecordFetchError records the error code of a failed fetch
func RecordFetchError(kind osm.ElementKind, code core.ErrorCode) {
	FetchErrorsTotal.WithLabelValues(string(kind), string(code)).Inc()
}

// RecordResolveFailure records one skipped reference
func RecordResolveFailure(kind string, code core.ErrorCode) {
	ResolveFailuresTotal.WithLabelValues(kind, string(code)).Inc()
}

// RecordCoordinates adds n produced coordinates
func RecordCoordinates(n int) {
	CoordinatesResolvedTotal.Add(float64(n))
}

// RecordToolRequest records one MCP tool call
func RecordToolRequest(tool string, duration time.Duration, success bool) {
	ToolRequestsTotal.WithLabelValues(tool, status(success)).Inc()
	ToolRequestDuration.WithLabelValues(tool).Observe(duration.Seconds())
}

// SetSystemInfo publishes the build information gauge
func SetSystemInfo(version, commit string) {
	SystemInfo.WithLabelValues(version, runtime.Version(), commit).Set(1)
}

// Hooks returns OSM client hooks that feed the fetch metrics
func Hooks() *osm.MonitoringHooks {
	return &osm.MonitoringHooks{
		OnResponse: RecordFetch,
		OnError:    RecordFetchError,
	}
}

// Handler serves the default registry
func Handler() http.Handler {
	return promhttp.Handler()
}

// WriteTextfile dumps the default registry in the node_exporter textfile format.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
