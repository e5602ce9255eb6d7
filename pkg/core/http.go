package core

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/NERVsystems/rel2coords/pkg/tracing"
)

// RetryOptions configures retry behavior for HTTP requests
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// DefaultRetryOptions performs a single attempt. A failed fetch is reported
// to the caller, which skips the reference.
var DefaultRetryOptions = RetryOptions{
	MaxAttempts:  1,
	InitialDelay: 500 * time.Millisecond,
	MaxDelay:     10 * time.Second,
	Multiplier:   2.0,
}

// DefaultClient provides a pre-configured HTTP client
var DefaultClient = &http.Client{
	Timeout: 30 * time.Second,
	Transport: &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	},
}

// retryable reports whether a failed attempt is worth repeating.
func retryable(code ErrorCode) bool {
	switch code {
	case ErrNotFound, ErrGone, ErrInvalidInput:
		return false
	}
	return true
}

// WithRetry performs a body-less HTTP request with exponential backoff.
// Only a 200 response is returned; any other outcome is an *Error.
func WithRetry(ctx context.Context, req *http.Request, client *http.Client, options RetryOptions, logger *slog.Logger) (*http.Response, error) {
	if client == nil {
		client = DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	if req.Body != nil && req.Body != http.NoBody {
		return nil, NewError(ErrInternalError, "cannot retry request with non-nil body")
	}
	attempts := options.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	ctx, span := tracing.StartSpan(ctx, fmt.Sprintf("http.request %s %s", req.Method, req.URL.Host),
		trace.WithAttributes(
			attribute.String(tracing.AttrHTTPMethod, req.Method),
			attribute.String(tracing.AttrHTTPURL, req.URL.String()),
			attribute.Int(tracing.AttrRetryMaxAttempts, attempts),
		),
	)
	defer span.End()

	logger = logger.With("url", req.URL.String(), "method", req.Method)

	var lastErr *Error
	delay := options.InitialDelay

	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			tracing.AddEvent(ctx, "retry_attempt",
				trace.WithAttributes(
					attribute.Int("attempt", attempt+1),
					attribute.Int64("delay_ms", delay.Milliseconds()),
				),
			)
			logger.Info("retrying request",
				"attempt", attempt+1,
				"max_attempts", attempts,
				"delay", delay,
				"last_error", lastErr,
			)

			select {
			case <-time.After(delay):
			case <-ctx.Done():
				span.SetStatus(codes.Error, "request cancelled")
				return nil, NewError(ErrNetworkError, "request cancelled").WithCause(ctx.Err())
			}

			delay = time.Duration(float64(delay) * options.Multiplier)
			if options.MaxDelay > 0 && delay > options.MaxDelay {
				delay = options.MaxDelay
			}
		}

		resp, err := client.Do(req.Clone(ctx))
		if err == nil && resp.StatusCode == http.StatusOK {
			span.SetAttributes(
				attribute.Int(tracing.AttrHTTPStatusCode, resp.StatusCode),
				attribute.Int(tracing.AttrRetryAttempts, attempt+1),
			)
			span.SetStatus(codes.Ok, "")
			logger.Debug("request successful",
				"status", resp.StatusCode,
				"content_length", resp.ContentLength,
			)
			return resp, nil
		}

		if err != nil {
			lastErr = NewError(ErrNetworkError, "request failed").WithCause(err)
			logger.Debug("request failed", "error", err, "attempt", attempt+1)
			if ctx.Err() != nil {
				break
			}
		} else {
			lastErr = ServiceError(req.URL.Host, resp.StatusCode)
			logger.Debug("request returned error status", "status", resp.StatusCode, "attempt", attempt+1)
			if err := resp.Body.Close(); err != nil {
				logger.Warn("failed to close response body", "error", err)
			}
			span.SetAttributes(attribute.Int(tracing.AttrHTTPStatusCode, resp.StatusCode))
		}

		if !retryable(lastErr.Code) {
			break
		}
	}

	span.RecordError(lastErr)
	span.SetStatus(codes.Error, lastErr.Message)
	return nil, lastErr
}
