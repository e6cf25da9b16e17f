// Package httpx implements a small HTTP client wrapper with built-in
// retry/backoff and optional TLS verification skipping. The pipeline uses it
// for metrics pushes: a batch run publishes its counters once, on exit, and a
// Pushgateway that is restarting at that moment should not turn an otherwise
// successful run into a failure.
//
// Design goals:
//
//   - Keep a tiny, explicit API: Do(*http.Request), compatible with the
//     HTTPDoer interface of the Prometheus push package.
//   - Handle transient failures (transport errors, 5xx, 429) with exponential
//     backoff; treat every other status as final.
//   - Allow skipping TLS verification when talking to endpoints with invalid
//     certificates (e.g., internal test endpoints).
//   - Respect context cancellation during requests and backoff waits.
//   - Be easy to test by injecting a custom RoundTripper and sleep function.
package httpx

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Config configures the HTTP client.
//
// Zero values are given sensible defaults:
//   - Timeout:        30s
//   - MaxRetries:     3
//   - InitialBackoff: 200ms
//   - MaxBackoff:     5s
type Config struct {
	// Timeout is the per-request timeout applied at the http.Client level.
	Timeout time.Duration

	// MaxRetries is the number of retry attempts after the initial request.
	// MaxRetries=0 means "no retries" (only the initial attempt).
	MaxRetries int

	// InitialBackoff is the base backoff duration for the first retry.
	// Each subsequent retry doubles the previous backoff up to MaxBackoff.
	InitialBackoff time.Duration

	// MaxBackoff caps the exponential backoff duration.
	MaxBackoff time.Duration

	// InsecureSkipVerify controls whether TLS certificate verification is
	// disabled. This is useful for talking to servers with self-signed or
	// otherwise invalid certificates, but should be used with care.
	InsecureSkipVerify bool

	// Transport is an optional custom RoundTripper. When nil, a default
	// *http.Transport is constructed based on the TLS settings.
	Transport http.RoundTripper
}

// Client wraps an http.Client with retry and backoff behavior.
type Client struct {
	httpClient     *http.Client
	maxRetries     int
	initialBackoff time.Duration
	maxBackoff     time.Duration

	// sleep is injectable to make tests fast and deterministic.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewClient constructs a Client from Config, applying defaults for zero values.
func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 200 * time.Millisecond
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 5 * time.Second
	}

	transport := cfg.Transport
	if transport == nil {
		transport = &http.Transport{
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: cfg.InsecureSkipVerify, //nolint:gosec // explicitly configurable
			},
		}
	}

	return &Client{
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
		maxRetries:     cfg.MaxRetries,
		initialBackoff: cfg.InitialBackoff,
		maxBackoff:     cfg.MaxBackoff,
		sleep:          sleepContext,
	}
}

// Do sends the request, applying retry and backoff on transient errors. It
// satisfies the single-method HTTPDoer contract, so a *Client can stand in
// wherever an *http.Client is accepted through that interface.
//
// Requests built from an in-memory reader (bytes, strings) carry a GetBody
// and are replayed from it on retry; any other non-nil body is drained into
// memory once up front. The request's own context governs cancellation.
//
// The returned *http.Response has a non-nil Body which the caller must close.
// On error, either no response was obtained or every response encountered a
// retryable status.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	getBody := req.GetBody
	if getBody == nil && req.Body != nil {
		buf, err := io.ReadAll(req.Body)
		req.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("httpx: read request body: %w", err)
		}
		getBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(buf)), nil
		}
	}

	attempts := c.maxRetries + 1
	var lastErr error

	for attempt := 0; attempt < attempts; attempt++ {
		// Respect context cancellation before each attempt.
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		// http.Client.Do consumes the body and may mutate the request, so
		// every attempt gets a fresh clone.
		attemptReq := req.Clone(ctx)
		if getBody != nil {
			body, err := getBody()
			if err != nil {
				return nil, fmt.Errorf("httpx: rewind request body: %w", err)
			}
			attemptReq.Body = body
		}

		resp, err := c.httpClient.Do(attemptReq)
		if err != nil {
			// Network or transport-level error. Treat as retryable.
			lastErr = err
		} else {
			// We have a response; decide whether to retry based on status.
			if !isRetryableStatus(resp.StatusCode) {
				return resp, nil
			}
			// Retryable status: close body and fall through to backoff.
			_ = resp.Body.Close()
			lastErr = fmt.Errorf("httpx: retryable status %d from %s %s", resp.StatusCode, req.Method, req.URL)
		}

		// If this was the last allowed attempt, return the last error.
		if attempt+1 >= attempts {
			return nil, lastErr
		}

		// Wait with backoff before retrying.
		backoff := backoffDuration(c.initialBackoff, attempt, c.maxBackoff)
		if err := c.sleep(ctx, backoff); err != nil {
			return nil, err
		}
	}

	// Should never reach here because of the attempts loop logic.
	return nil, lastErr
}

// isRetryableStatus reports whether the given HTTP status code should trigger
// a retry. This is intentionally conservative: 5xx and 429 are treated as
// transient; everything else is considered final.
func isRetryableStatus(code int) bool {
	if code == http.StatusTooManyRequests {
		return true
	}
	return code >= 500 && code <= 599
}

// backoffDuration returns the exponential backoff duration for the given
// attempt number (0-based retry index), clamped to max.
func backoffDuration(initial time.Duration, attempt int, max time.Duration) time.Duration {
	if attempt <= 0 {
		if initial > max {
			return max
		}
		return initial
	}
	// exponential: initial * 2^attempt
	d := initial << attempt
	if d > max {
		return max
	}
	return d
}

// sleepContext sleeps for d but aborts early if ctx is canceled.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
