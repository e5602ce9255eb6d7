// Command rel2coords prints the coordinates referenced by an OpenStreetMap
// relation, way or node, or serves the same resolution as MCP tools.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/NERVsystems/rel2coords/pkg/core"
	"github.com/NERVsystems/rel2coords/pkg/export"
	"github.com/NERVsystems/rel2coords/pkg/monitoring"
	"github.com/NERVsystems/rel2coords/pkg/osm"
	"github.com/NERVsystems/rel2coords/pkg/resolver"
	"github.com/NERVsystems/rel2coords/pkg/server"
	"github.com/NERVsystems/rel2coords/pkg/tools"
	"github.com/NERVsystems/rel2coords/pkg/tracing"
	ver "github.com/NERVsystems/rel2coords/pkg/version"
)

// Exit codes
const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

type options struct {
	kind           string
	format         string
	procs          int
	depth          int
	retries        int
	timeout        time.Duration
	baseURL        string
	userAgent      string
	debug          bool
	strict         bool
	metricsFile    string
	mcp            bool
	monitoringAddr string
	showVersion    bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func parseFlags(args []string, stderr io.Writer) (*options, *flag.FlagSet, error) {
	opts := &options{}
	fs := flag.NewFlagSet("rel2coords", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: rel2coords [flags] <id>\n       rel2coords -mcp [flags]\n\nFlags:\n")
		fs.PrintDefaults()
	}

	fs.StringVar(&opts.kind, "kind", string(osm.KindRelation), "Element kind: relation, way or node")
	fs.StringVar(&opts.format, "format", string(export.FormatJSON), "Output format: json, polyline or geojson")
	fs.IntVar(&opts.procs, "procs", 1, "Number of references resolved concurrently")
	fs.IntVar(&opts.depth, "depth", 0, "Follow nested relation members up to this depth")
	fs.IntVar(&opts.retries, "retries", 0, "Retries per failed request")
	fs.DurationVar(&opts.timeout, "timeout", core.DefaultClient.Timeout, "Timeout per HTTP request")
	fs.StringVar(&opts.baseURL, "base-url", osm.DefaultBaseURL, "OSM API base URL")
	fs.StringVar(&opts.userAgent, "user-agent", osm.DefaultUserAgent, "User-Agent string for OSM API requests")
	fs.BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	fs.BoolVar(&opts.strict, "strict", false, "Exit with status 1 if any reference could not be resolved")
	fs.StringVar(&opts.metricsFile, "metrics-file", "", "Write Prometheus metrics to this file after resolving")
	fs.BoolVar(&opts.mcp, "mcp", false, "Serve MCP tools over stdio instead of resolving a single id")
	fs.StringVar(&opts.monitoringAddr, "monitoring-addr", "", "Serve /metrics and /health on this address in MCP mode")
	fs.BoolVar(&opts.showVersion, "version", false, "Display version information")

	if err := fs.Parse(args); err != nil {
		return nil, fs, err
	}
	if opts.procs < 1 {
		return nil, fs, errors.New("-procs must be at least 1")
	}
	if opts.depth < 0 || opts.retries < 0 {
		return nil, fs, errors.New("-depth and -retries must not be negative")
	}
	return opts, fs, nil
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	opts, fs, err := parseFlags(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return exitOK
	}
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}

	if opts.showVersion {
		fmt.Fprintln(stdout, ver.String())
		return exitOK
	}

	logLevel := slog.LevelInfo
	if opts.debug {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	kind, err := osm.ParseKind(opts.kind)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}
	format, err := export.ParseFormat(opts.format)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}

	var id string
	if !opts.mcp {
		if fs.NArg() != 1 {
			fs.Usage()
			return exitUsage
		}
		id = fs.Arg(0)
		if err := core.ValidateElementID(id); err != nil {
			fmt.Fprintf(stderr, "invalid %s id: %v\n", kind, err)
			return exitUsage
		}
	}

	shutdownTracing, err := tracing.InitTracing(ctx, tracing.ConfigFromEnv(ver.BuildVersion))
	if err != nil {
		logger.Error("failed to initialize tracing", "error", err)
	} else {
		defer func() {
			if err := shutdownTracing(context.Background()); err != nil {
				logger.Error("error shutting down tracing", "error", err)
			}
		}()
	}
	monitoring.SetSystemInfo(ver.BuildVersion, ver.Commit())

	retry := core.DefaultRetryOptions
	retry.MaxAttempts = opts.retries + 1
	client := osm.NewClient(
		osm.WithBaseURL(opts.baseURL),
		osm.WithTimeout(opts.timeout),
		osm.WithUserAgent(opts.userAgent),
		osm.WithRetryOptions(retry),
		osm.WithHooks(monitoring.Hooks()),
		osm.WithMaxInFlight(opts.procs),
		osm.WithLogger(logger),
	)
	res := resolver.New(client,
		resolver.WithLogger(logger),
		resolver.WithConcurrency(opts.procs),
		resolver.WithMaxDepth(opts.depth),
		resolver.WithFailureObserver(func(f resolver.Failure) {
			monitoring.RecordResolveFailure(f.Kind, f.Code())
		}),
	)

	logger.Debug("starting rel2coords",
		"version", ver.BuildVersion,
		"base_url", opts.baseURL,
		"procs", opts.procs,
		"depth", opts.depth,
		"retries", opts.retries)

	if opts.mcp {
		return serveMCP(ctx, opts, res, stdin, stdout, logger)
	}
	return resolveOne(ctx, opts, res, kind, format, id, stdout, logger)
}

func resolveOne(ctx context.Context, opts *options, res *resolver.Resolver, kind osm.ElementKind, format export.Format, id string, stdout io.Writer, logger *slog.Logger) int {
	start := time.Now()
	result, err := res.Resolve(ctx, kind, id)
	if err != nil {
		logger.Error("resolution aborted", "kind", kind, "id", id, "error", err)
		return exitFailure
	}
	monitoring.RecordCoordinates(len(result.Coordinates))

	logger.Info("resolved element",
		"kind", kind,
		"id", id,
		"coordinates", len(result.Coordinates),
		"failures", len(result.Failures),
		"duration", time.Since(start))

	if err := export.Write(stdout, format, export.Feature{Kind: kind, ID: id, Coordinates: result.Coordinates}); err != nil {
		logger.Error("failed to write output", "error", err)
		return exitFailure
	}

	if opts.metricsFile != "" {
		if err := monitoring.WriteTextfile(opts.metricsFile); err != nil {
			logger.Error("failed to write metrics file", "path", opts.metricsFile, "error", err)
			return exitFailure
		}
	}

	if opts.strict && len(result.Failures) > 0 {
		logger.Error("references could not be resolved", "failures", len(result.Failures))
		return exitFailure
	}
	return exitOK
}

func serveMCP(ctx context.Context, opts *options, res *resolver.Resolver, stdin io.Reader, stdout io.Writer, logger *slog.Logger) int {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	monitorDone := make(chan struct{})
	if opts.monitoringAddr != "" {
		srv := server.NewMonitoringServer(opts.monitoringAddr, logger)
		go func() {
			defer close(monitorDone)
			if err := server.ServeMonitoring(ctx, srv, logger); err != nil {
				logger.Error("monitoring server error", "error", err)
			}
		}()
	} else {
		close(monitorDone)
	}

	registry := tools.NewRegistry(res, logger)
	logger.Info("registered tools", "tools", registry.GetToolNames())

	s := server.NewServer(registry, ver.BuildVersion, logger)
	err := s.Run(ctx, stdin, stdout)
	cancel()
	<-monitorDone

	if err != nil {
		logger.Error("server error", "error", err)
		return exitFailure
	}
	logger.Info("server shutdown complete")
	return exitOK
}
