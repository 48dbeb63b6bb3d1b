package httpclient_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/strava-track-sync/internal/httpclient"
)

// newTestServer creates a new test server with keep-alives disabled.
// This prevents flaky tests when running in parallel, as closing a server
// with keep-alives enabled can affect other tests sharing the HTTP transport.
func newTestServer(handler http.Handler) *httptest.Server {
	server := httptest.NewServer(handler)
	server.Config.SetKeepAlivesEnabled(false)
	return server
}

func TestDefaultClient_Get_Success(t *testing.T) {
	t.Parallel()

	var receivedUserAgent, receivedAccept, receivedAuth string
	server := newTestServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedUserAgent = r.Header.Get("User-Agent")
		receivedAccept = r.Header.Get("Accept")
		receivedAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`[{"id": 1}]`))
	}))
	defer server.Close()

	client := httpclient.NewDefaultClient(5 * time.Second)
	data, err := client.Get(context.Background(), server.URL)

	require.NoError(t, err)
	assert.Equal(t, []byte(`[{"id": 1}]`), data)
	assert.Equal(t, httpclient.UserAgent, receivedUserAgent)
	assert.Equal(t, "application/json", receivedAccept)
	assert.Empty(t, receivedAuth)
}

type headerTransport struct {
	base   http.RoundTripper
	header string
	value  string
}

func (h *headerTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	r = r.Clone(r.Context())
	r.Header.Set(h.header, h.value)
	return h.base.RoundTrip(r)
}

func TestDefaultClient_Get_WithHTTPClient(t *testing.T) {
	t.Parallel()

	var receivedAuth string
	server := newTestServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	hc := &http.Client{Transport: &headerTransport{
		base:   http.DefaultTransport,
		header: "Authorization",
		value:  "Bearer abc",
	}}
	client := httpclient.NewDefaultClient(0, httpclient.WithHTTPClient(hc))

	_, err := client.Get(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "Bearer abc", receivedAuth)
	assert.Zero(t, hc.Timeout, "caller's client is left untouched")
}

func TestDefaultClient_Get_HTTPErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		statusCode    int
		errorContains string
	}{
		{name: "401 Unauthorized", statusCode: http.StatusUnauthorized, errorContains: "HTTP 401"},
		{name: "403 Forbidden", statusCode: http.StatusForbidden, errorContains: "HTTP 403"},
		{name: "404 Not Found", statusCode: http.StatusNotFound, errorContains: "HTTP 404"},
		{name: "429 Too Many Requests", statusCode: http.StatusTooManyRequests, errorContains: "HTTP 429"},
		{name: "500 Internal Server Error", statusCode: http.StatusInternalServerError, errorContains: "HTTP 500"},
		{name: "201 Created is not OK", statusCode: http.StatusCreated, errorContains: "HTTP 201"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server := newTestServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.statusCode)
			}))
			defer server.Close()

			client := httpclient.NewDefaultClient(5 * time.Second)
			_, err := client.Get(context.Background(), server.URL)

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorContains)

			var httpErr *httpclient.HTTPError
			require.ErrorAs(t, err, &httpErr)
			assert.Equal(t, tt.statusCode, httpErr.StatusCode)
		})
	}
}

func TestDefaultClient_Get_NetworkErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		url           string
		errorContains string
	}{
		{name: "invalid URL scheme", url: "://invalid-url", errorContains: "failed to create request"},
		{name: "unreachable host", url: "http://invalid-host-does-not-exist.local:9999", errorContains: "failed to execute request"},
		{name: "empty URL", url: "", errorContains: "failed to execute request"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			client := httpclient.NewDefaultClient(5 * time.Second)
			_, err := client.Get(context.Background(), tt.url)

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorContains)
		})
	}
}

func TestDefaultClient_Get_ContextCancellation(t *testing.T) {
	t.Parallel()

	server := newTestServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(500 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := httpclient.NewDefaultClient(5 * time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Get(ctx, server.URL)
	require.Error(t, err)
}

func TestDefaultClient_Get_SizeLimitExceeded(t *testing.T) {
	t.Parallel()

	server := newTestServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Length", fmt.Sprintf("%d", httpclient.MaxResponseSize+1))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := httpclient.NewDefaultClient(5 * time.Second)
	_, err := client.Get(context.Background(), server.URL)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds maximum allowed size")
}

func TestDefaultClient_Get_Retry(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		maxAttempts  uint
		failures     int32
		failStatus   int
		wantErr      bool
		wantRequests int32
	}{
		{
			name:         "no retry by default",
			maxAttempts:  1,
			failures:     1,
			failStatus:   http.StatusServiceUnavailable,
			wantErr:      true,
			wantRequests: 1,
		},
		{
			name:         "recovers from transient 503",
			maxAttempts:  3,
			failures:     2,
			failStatus:   http.StatusServiceUnavailable,
			wantRequests: 3,
		},
		{
			name:         "recovers from 429",
			maxAttempts:  2,
			failures:     1,
			failStatus:   http.StatusTooManyRequests,
			wantRequests: 2,
		},
		{
			name:         "gives up after max attempts",
			maxAttempts:  2,
			failures:     5,
			failStatus:   http.StatusBadGateway,
			wantErr:      true,
			wantRequests: 2,
		},
		{
			name:         "does not retry 401",
			maxAttempts:  3,
			failures:     5,
			failStatus:   http.StatusUnauthorized,
			wantErr:      true,
			wantRequests: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var requests atomic.Int32
			server := newTestServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				if requests.Add(1) <= tt.failures {
					w.WriteHeader(tt.failStatus)
					return
				}
				_, _ = w.Write([]byte("ok"))
			}))
			defer server.Close()

			client := httpclient.NewDefaultClient(5*time.Second,
				httpclient.WithRetry(tt.maxAttempts, time.Millisecond))
			data, err := client.Get(context.Background(), server.URL)

			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, []byte("ok"), data)
			}
			assert.Equal(t, tt.wantRequests, requests.Load())
		})
	}
}
