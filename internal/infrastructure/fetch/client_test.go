package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/shelfsync/backend/internal/domain"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	c := NewClient(ClientConfig{RequestsPerSecond: 1000, Burst: 100}, nil)
	c.backoff = func(int) time.Duration { return 0 }
	return c
}

func TestNewClient(t *testing.T) {
	client := NewClient(ClientConfig{}, nil)

	assert.NotNil(t, client.httpClient)
	assert.NotNil(t, client.rateLimiter)
	assert.Equal(t, DefaultUserAgent, client.config.UserAgent)
	assert.Equal(t, defaultMaxRetries, client.config.MaxRetries)
	assert.Equal(t, defaultTimeout, client.httpClient.Timeout)
}

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{1, 500 * time.Millisecond},
		{2, 1000 * time.Millisecond},
		{3, 2000 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.expected.String(), func(t *testing.T) {
			assert.Equal(t, tt.expected, exponentialBackoff(tt.attempt))
		})
	}
}

func TestFetch_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, DefaultUserAgent, r.Header.Get("User-Agent"))
		assert.Equal(t, DefaultAcceptLanguage, r.Header.Get("Accept-Language"))
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte("<h1>Nivea Soft крем</h1>"))
	}))
	defer server.Close()

	page, err := newTestClient(t).Fetch(context.Background(), server.URL+"/nivea")

	require.NoError(t, err)
	assert.Equal(t, server.URL+"/nivea", page.URL)
	assert.Equal(t, "<h1>Nivea Soft крем</h1>", page.HTML)
	assert.False(t, page.FetchedAt.IsZero())
}

func TestFetch_DecodesLegacyCharset(t *testing.T) {
	encoded, err := charmap.Windows1251.NewEncoder().String("<h1>Крем за ръце</h1>")
	require.NoError(t, err)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=windows-1251")
		w.Write([]byte(encoded))
	}))
	defer server.Close()

	page, err := newTestClient(t).Fetch(context.Background(), server.URL)

	require.NoError(t, err)
	assert.Equal(t, "<h1>Крем за ръце</h1>", page.HTML)
}

func TestFetch_NotFound(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := newTestClient(t).Fetch(context.Background(), server.URL)

	assert.True(t, errors.Is(err, domain.ErrPageNotFound))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "404 is not retried")
}

func TestFetch_RetriesTransientFailures(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte("<h1>ok</h1>"))
	}))
	defer server.Close()

	page, err := newTestClient(t).Fetch(context.Background(), server.URL)

	require.NoError(t, err)
	assert.Equal(t, "<h1>ok</h1>", page.HTML)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestFetch_Failures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"server error", http.StatusInternalServerError, "", domain.ErrFetchFailure},
		{"rate limited", http.StatusTooManyRequests, "", domain.ErrRateLimited},
		{"empty body", http.StatusOK, "", domain.ErrFetchFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := newTestClient(t).Fetch(context.Background(), server.URL)

			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestFetch_CancelledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	c := NewClient(ClientConfig{RequestsPerSecond: 1000, Burst: 100}, nil)
	c.backoff = func(int) time.Duration { return time.Hour }
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.Fetch(ctx, server.URL)

	assert.True(t, errors.Is(err, context.DeadlineExceeded), "got %v", err)
}
