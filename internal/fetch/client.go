// Package fetch performs the outbound HTTP GETs for segment acquisition.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/OllyCat/tsgrab/internal/logging"
)

const defaultTimeout = 10 * time.Second

// ErrTooLarge is returned when a response body exceeds Options.MaxBytes.
var ErrTooLarge = errors.New("response body exceeds size limit")

// Fetcher retrieves the full body behind a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// StatusError reports a non-2xx response.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d %s", e.URL, e.Code, http.StatusText(e.Code))
}

// Options configures a Client.
type Options struct {
	// Timeout bounds each request, including reading the body.
	Timeout time.Duration
	// Headers are sent with every request. Nil means DefaultHeaders.
	Headers map[string]string
	// MinInterval spaces successive requests. Zero disables pacing.
	MinInterval time.Duration
	// MaxBytes caps the accepted body size. Zero means unlimited.
	MaxBytes int64
	// Transport overrides the underlying round tripper.
	Transport http.RoundTripper
}

// Client is a sequential HTTP fetcher with a static header set.
type Client struct {
	httpClient *http.Client
	timeout    time.Duration
	limiter    *rate.Limiter
	maxBytes   int64
	logger     *slog.Logger
}

// New creates a Client.
func New(opts Options, logger *slog.Logger) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	headers := opts.Headers
	if headers == nil {
		headers = DefaultHeaders()
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.MinInterval > 0 {
		limiter = rate.NewLimiter(rate.Every(opts.MinInterval), 1)
	}
	return &Client{
		httpClient: &http.Client{Transport: newHeaderTransport(opts.Transport, headers)},
		timeout:    timeout,
		limiter:    limiter,
		maxBytes:   opts.MaxBytes,
		logger:     logging.OrNop(logger).With(logging.Component("fetch")),
	}
}

// Fetch performs a single GET and returns the body. Non-2xx statuses,
// timeouts, and oversized bodies are errors; there are no retries here.
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("GET %s: wait for pacing: %w", url, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", url, err)
	}

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{URL: url, Code: resp.StatusCode}
	}

	var body io.Reader = resp.Body
	if c.maxBytes > 0 {
		body = io.LimitReader(resp.Body, c.maxBytes+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("GET %s: read body: %w", url, err)
	}
	if c.maxBytes > 0 && int64(len(data)) > c.maxBytes {
		return nil, fmt.Errorf("GET %s: %w (%d bytes)", url, ErrTooLarge, c.maxBytes)
	}

	c.logger.Debug("fetched",
		slog.String(logging.FieldURL, url),
		logging.Size("size", int64(len(data))),
		slog.Duration("elapsed", time.Since(started)),
	)
	return data, nil
}
