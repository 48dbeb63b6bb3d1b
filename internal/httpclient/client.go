// Package httpclient provides the HTTP GET client used for provider API reads
package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
)

const (
	// DefaultTimeout is the default timeout for HTTP requests
	DefaultTimeout = 30 * time.Second

	// MaxResponseSize is the maximum allowed response size (32MB).
	// A stream response of a multi-day activity stays well below it.
	MaxResponseSize = 32 * 1024 * 1024

	// UserAgent is the user agent string for HTTP requests
	UserAgent = "strava-track-sync/1.0"
)

// errBodyTooLarge is never retried
var errBodyTooLarge = errors.New("response size exceeds maximum allowed size")

// Client is an interface for HTTP operations
type Client interface {
	// Get performs an HTTP GET request and returns the response body
	Get(ctx context.Context, url string) ([]byte, error)
}

// DefaultClient is the default HTTP client implementation
type DefaultClient struct {
	client          *http.Client
	maxAttempts     uint
	initialInterval time.Duration
}

// Option configures a DefaultClient
type Option func(*DefaultClient)

// WithHTTPClient sets the underlying client, e.g. one that adds bearer authentication.
// The client is copied; a zero Timeout on the copy is replaced by the default.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *DefaultClient) {
		if hc != nil {
			clone := *hc
			c.client = &clone
		}
	}
}

// WithRetry retries failed requests up to maxAttempts times in total with
// exponential backoff starting at initial. maxAttempts <= 1 disables retries.
func WithRetry(maxAttempts uint, initial time.Duration) Option {
	return func(c *DefaultClient) {
		c.maxAttempts = maxAttempts
		c.initialInterval = initial
	}
}

// NewDefaultClient creates a new default HTTP client with the specified timeout.
// If timeout is 0, uses DefaultTimeout.
func NewDefaultClient(timeout time.Duration, opts ...Option) Client {
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	c := &DefaultClient{
		client:      &http.Client{},
		maxAttempts: 1,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.client.Timeout == 0 {
		c.client.Timeout = timeout
	}
	return c
}

// Get performs an HTTP GET request, retrying retryable failures when configured
func (c *DefaultClient) Get(ctx context.Context, url string) ([]byte, error) {
	if c.maxAttempts <= 1 {
		return c.get(ctx, url)
	}

	bo := backoff.NewExponentialBackOff()
	if c.initialInterval > 0 {
		bo.InitialInterval = c.initialInterval
	}

	attempt := 0
	return backoff.Retry(ctx, func() ([]byte, error) {
		attempt++
		body, err := c.get(ctx, url)
		if err == nil {
			return body, nil
		}
		if errors.Is(err, errBodyTooLarge) || !IsRetryable(err) {
			return nil, backoff.Permanent(err)
		}
		slog.DebugContext(ctx, "Retrying request", "attempt", attempt, "error", err)
		return nil, err
	}, backoff.WithBackOff(bo), backoff.WithMaxTries(c.maxAttempts))
}

func (c *DefaultClient) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, NewHTTPError(resp.StatusCode, req.URL.Redacted(), resp.Status)
	}

	if resp.ContentLength > MaxResponseSize {
		return nil, fmt.Errorf("%w: %d bytes (limit %.2f MB)",
			errBodyTooLarge, resp.ContentLength, float64(MaxResponseSize)/(1024*1024))
	}

	// +1 to detect if limit exceeded
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if int64(len(body)) > MaxResponseSize {
		return nil, fmt.Errorf("%w (limit %.2f MB)", errBodyTooLarge, float64(MaxResponseSize)/(1024*1024))
	}

	return body, nil
}
