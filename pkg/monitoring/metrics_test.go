package monitoring

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/NERVsystems/rel2coords/pkg/core"
	"github.com/NERVsystems/rel2coords/pkg/osm"
)

func TestRecordFetch(t *testing.T) {
	FetchRequestsTotal.Reset()

	RecordFetch(osm.KindNode, 100*time.Millisecond, true)
	RecordFetch(osm.KindNode, 200*time.Millisecond, false)
	RecordFetch(osm.KindWay, 50*time.Millisecond, true)

	if got := testutil.ToFloat64(FetchRequestsTotal.WithLabelValues("node", "success")); got != 1 {
		t.Errorf("node successes = %v, want 1", got)
	}
	if got := testutil.ToFloat64(FetchRequestsTotal.WithLabelValues("node", "error")); got != 1 {
		t.Errorf("node errors = %v, want 1", got)
	}
	if got := testutil.ToFloat64(FetchRequestsTotal.WithLabelValues("way", "success")); got != 1 {
		t.Errorf("way successes = %v, want 1", got)
	}
}

func TestHooksFeedMetrics(t *testing.T) {
	FetchRequestsTotal.Reset()
	FetchErrorsTotal.Reset()

	hooks := Hooks()
	hooks.OnResponse(osm.KindRelation, time.Second, false)
	hooks.OnError(osm.KindRelation, core.ErrNotFound)

	if got := testutil.ToFloat64(FetchRequestsTotal.WithLabelValues("relation", "error")); got != 1 {
		t.Errorf("relation errors = %v, want 1", got)
	}
	if got := testutil.ToFloat64(FetchErrorsTotal.WithLabelValues("relation", "NOT_FOUND")); got != 1 {
		t.Errorf("NOT_FOUND count = %v, want 1", got)
	}
}

func TestRecordResolveFailureAndCoordinates(t *testing.T) {
	ResolveFailuresTotal.Reset()
	before := testutil.ToFloat64(CoordinatesResolvedTotal)

	RecordResolveFailure("area", core.ErrUnknownMemberType)
	RecordResolveFailure("area", core.ErrUnknownMemberType)
	RecordCoordinates(3)

	if got := testutil.ToFloat64(ResolveFailuresTotal.WithLabelValues("area", "UNKNOWN_MEMBER_TYPE")); got != 2 {
		t.Errorf("failures = %v, want 2", got)
	}
	if got := testutil.ToFloat64(CoordinatesResolvedTotal) - before; got != 3 {
		t.Errorf("coordinates delta = %v, want 3", got)
	}
}

func TestRecordToolRequest(t *testing.T) {
	ToolRequestsTotal.Reset()

	RecordToolRequest("resolve_element", time.Second, true)
	RecordToolRequest("resolve_element", time.Second, false)

	if got := testutil.ToFloat64(ToolRequestsTotal.WithLabelValues("resolve_element", "success")); got != 1 {
		t.Errorf("successes = %v, want 1", got)
	}
	if got := testutil.ToFloat64(ToolRequestsTotal.WithLabelValues("resolve_element", "error")); got != 1 {
		t.Errorf("errors = %v, want 1", got)
	}
}

func TestHandlerAndTextfile(t *testing.T) {
	SetSystemInfo("test", "abc123")
	RecordCoordinates(1)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "rel2coords_coordinates_resolved_total") {
		t.Error("metrics endpoint missing coordinates counter")
	}

	path := filepath.Join(t.TempDir(), "rel2coords.prom")
	if err := WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `rel2coords_system_info{build_commit="abc123"`) {
		t.Errorf("textfile missing system info:\n%s", data)
	}
}
