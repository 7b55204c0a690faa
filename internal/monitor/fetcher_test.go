package monitor

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aleister1102/robotswatch/internal/config"
	"github.com/aleister1102/robotswatch/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyServer drops the connection for the first failures requests, then serves body.
func flakyServer(t *testing.T, failures int32, body string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= failures {
			hijacker, ok := w.(http.Hijacker)
			if !ok {
				t.Error("response writer does not support hijacking")
				return
			}
			conn, _, err := hijacker.Hijack()
			if err != nil {
				t.Error(err)
				return
			}
			_ = conn.Close()
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server, &calls
}

func TestFetcher_SucceedsAfterConnectionFailures(t *testing.T) {
	server, calls := flakyServer(t, 2, "User-agent: *")
	fetcher := newTestFetcher(t, 5, 5*time.Second)

	body, err := fetcher.Fetch(context.Background(), server.URL+"/")
	require.NoError(t, err)
	assert.Equal(t, "User-agent: *", body)
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetcher_ConnectionFailedAfterBudget(t *testing.T) {
	server, calls := flakyServer(t, 100, "User-agent: *")
	fetcher := newTestFetcher(t, 3, 5*time.Second)

	_, err := fetcher.Fetch(context.Background(), server.URL+"/")
	require.Error(t, err)

	var fetchErr *models.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, models.FetchConnectionFailed, fetchErr.Kind)
	assert.Equal(t, 3, fetchErr.Attempts)
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, server.URL+"/robots.txt", fetchErr.URL)
}

func TestFetcher_ConnectionRefused(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	require.NoError(t, listener.Close())

	fetcher := newTestFetcher(t, 2, time.Second)
	_, err = fetcher.Fetch(context.Background(), "http://"+addr+"/")

	var fetchErr *models.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, models.FetchConnectionFailed, fetchErr.Kind)
	assert.Equal(t, 2, fetchErr.Attempts)
}

func TestFetcher_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	fetcher := newTestFetcher(t, 2, 50*time.Millisecond)
	_, err := fetcher.Fetch(context.Background(), server.URL+"/")

	var fetchErr *models.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, models.FetchTimeout, fetchErr.Kind)
	assert.Equal(t, 2, fetchErr.Attempts)
}

func TestFetcher_SendsUserAgent(t *testing.T) {
	var userAgent atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userAgent.Store(r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	fetcher, err := NewFetcherFromConfig(config.NewDefaultMonitorConfig(), nil, zerolog.Nop())
	require.NoError(t, err)

	_, err = fetcher.Fetch(context.Background(), server.URL+"/")
	require.NoError(t, err)
	assert.Equal(t, "Robots.txtMonitor/1.0", userAgent.Load())
}

func TestFetcher_CancelledContextIsNotAFetchError(t *testing.T) {
	server := newRobotsServer(t, "User-agent: *")
	fetcher := newTestFetcher(t, 3, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := fetcher.Fetch(ctx, server.URL+"/")
	require.Error(t, err)
	assert.Equal(t, models.ErrorClassUnexpected, models.ClassifyError(err))
}

func TestFetcher_ResourceURL(t *testing.T) {
	fetcher := newTestFetcher(t, 1, time.Second)
	assert.Equal(t, "https://a.test/shop/robots.txt", fetcher.ResourceURL("https://a.test/shop/"))
}
