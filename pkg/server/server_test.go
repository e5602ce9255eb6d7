package server

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/NERVsystems/rel2coords/pkg/monitoring"
	"github.com/NERVsystems/rel2coords/pkg/osm"
	"github.com/NERVsystems/rel2coords/pkg/resolver"
	"github.com/NERVsystems/rel2coords/pkg/tools"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/node/1" {
			http.NotFound(w, r)
			return
		}
		_, _ = io.WriteString(w, `<osm><node id="1" lat="12.5" lon="-0.75"/></osm>`)
	}))
	t.Cleanup(api.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	client := osm.NewClient(osm.WithBaseURL(api.URL), osm.WithLogger(logger))
	registry := tools.NewRegistry(resolver.New(client, resolver.WithLogger(logger)), logger)
	return NewServer(registry, "test", logger)
}

func TestNewServer(t *testing.T) {
	s := newTestServer(t)
	if s.GetMCPServer() == nil {
		t.Fatal("NewServer() returned nil MCP server")
	}
}

func TestServer_RunStdio(t *testing.T) {
	s := newTestServer(t)

	inR, inW := io.Pipe()
	outR, outW := io.Pipe()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx, inR, outW)
		outW.Close()
	}()

	responses := bufio.NewScanner(outR)
	call := func(msg string) map[string]any {
		t.Helper()
		if _, err := io.WriteString(inW, msg+"\n"); err != nil {
			t.Fatalf("write request: %v", err)
		}
		if !responses.Scan() {
			t.Fatalf("no response to %s: %v", msg, responses.Err())
		}
		var resp map[string]any
		if err := json.Unmarshal(responses.Bytes(), &resp); err != nil {
			t.Fatalf("invalid response %s: %v", responses.Text(), err)
		}
		return resp
	}

	call(`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2024-11-05","capabilities":{},"clientInfo":{"name":"test","version":"0"}}}`)

	resp := call(`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"resolve_element","arguments":{"id":"1","kind":"node"}}}`)
	b, _ := json.Marshal(resp["result"])
	if !strings.Contains(string(b), `[[12.5,-0.75]]`) {
		t.Errorf("unexpected tools/call result %s", b)
	}

	inW.Close()
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after input closed")
	}
}

func TestMonitoringServer(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := NewMonitoringServer(":0", logger)
	monitoring.RecordCoordinates(1)

	for path, want := range map[string]string{
		"/health":  `{"status":"ok"}`,
		"/metrics": "rel2coords_coordinates_resolved_total",
	} {
		rr := httptest.NewRecorder()
		srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		if rr.Code != http.StatusOK {
			t.Errorf("%s: status %d", path, rr.Code)
		}
		if !strings.Contains(rr.Body.String(), want) {
			t.Errorf("%s: body does not contain %q", path, want)
		}
	}
}

func TestServeMonitoringShutdown(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := NewMonitoringServer("127.0.0.1:0", logger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ServeMonitoring(ctx, srv, logger) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("ServeMonitoring() error = %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("ServeMonitoring() did not return")
	}
}
