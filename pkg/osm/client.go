package osm

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/beevik/etree"
	"golang.org/x/sync/semaphore"

	"github.com/NERVsystems/rel2coords/pkg/core"
	"github.com/NERVsystems/rel2coords/pkg/tracing"
)

const (
	// DefaultBaseURL is the public OSM API endpoint
	DefaultBaseURL = "http://www.openstreetmap.org/api/0.6"

	// DefaultUserAgent identifies rel2coords to the OSM API (required by the usage policy)
	DefaultUserAgent = "rel2coords/0.1.0"

	// maxBodyBytes caps a single element document.
	maxBodyBytes = 32 << 20
)

// Client fetches element documents from the OSM API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
	retry      core.RetryOptions
	hooks      *MonitoringHooks
	inFlight   *semaphore.Weighted
	logger     *slog.Logger
}

// ClientOption configures a Client
type ClientOption func(*Client)

// WithBaseURL overrides DefaultBaseURL
func WithBaseURL(u string) ClientOption {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient sets the underlying HTTP client
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets a per-request timeout on a private copy of the HTTP client.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		hc := *c.httpClient
		hc.Timeout = d
		c.httpClient = &hc
	}
}

// WithUserAgent sets the User-Agent header
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) { c.userAgent = ua }
}

// WithRetryOptions enables retries
func WithRetryOptions(opts core.RetryOptions) ClientOption {
	return func(c *Client) { c.retry = opts }
}

// WithHooks installs monitoring hooks
func WithHooks(h *MonitoringHooks) ClientOption {
	return func(c *Client) { c.hooks = h }
}

// WithMaxInFlight bounds the number of concurrent requests. n <= 0 means unbounded.
func WithMaxInFlight(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.inFlight = semaphore.NewWeighted(int64(n))
		} else {
			c.inFlight = nil
		}
	}
}

// WithLogger sets the logger for the client
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) { c.logger = logger }
}

// NewClient creates an OSM API client
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: core.DefaultClient,
		userAgent:  DefaultUserAgent,
		retry:      core.DefaultRetryOptions,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ElementURL returns the API URL of one element.
func (c *Client) ElementURL(kind ElementKind, id string) string {
	return fmt.Sprintf("%s/%s/%s", c.baseURL, kind, url.PathEscape(id))
}

// Fetch retrieves and parses the document for one element.
func (c *Client) Fetch(ctx context.Context, kind ElementKind, id string) (*etree.Document, error) {
	if id == "" {
		return nil, core.NewError(core.ErrMissingParameter, "element id is empty").WithRef(string(kind), id)
	}

	if c.inFlight != nil {
		if err := c.inFlight.Acquire(ctx, 1); err != nil {
			return nil, core.NewError(core.ErrNetworkError, "request cancelled").
				WithRef(string(kind), id).WithCause(err)
		}
		defer c.inFlight.Release(1)
	}

	ctx, span := tracing.StartSpan(ctx, "osm.fetch")
	defer span.End()
	span.SetAttributes(tracing.ElementAttributes(string(kind), id)...)

	u := c.ElementURL(kind, id)
	c.logger.Debug("fetch", "url", u)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, core.NewError(core.ErrInvalidInput, "failed to build request").
			WithRef(string(kind), id).WithCause(err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/xml, text/xml")

	c.hooks.request(kind)
	start := time.Now()

	doc, err := c.do(ctx, req)
	c.hooks.response(kind, time.Since(start), err == nil)
	if err != nil {
		code := core.CodeOf(err)
		c.hooks.failed(kind, code)
		span.SetAttributes(tracing.ErrorAttributes(string(code), err)...)
		return nil, withRef(err, kind, id)
	}
	return doc, nil
}

func (c *Client) do(ctx context.Context, req *http.Request) (*etree.Document, error) {
	resp, err := core.WithRetry(ctx, req, c.httpClient, c.retry, c.logger)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, core.NewError(core.ErrNetworkError, "failed to read response body").WithCause(err)
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(body); err != nil {
		return nil, core.NewError(core.ErrParseError, "invalid XML document").WithCause(err)
	}
	return doc, nil
}

// withRef stamps the element onto a core.Error that does not yet name one.
func withRef(err error, kind ElementKind, id string) error {
	if e, ok := err.(*core.Error); ok && e.Ref == "" {
		return e.WithRef(string(kind), id)
	}
	return err
}
