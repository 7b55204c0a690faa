package httpclient

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

var _ net.Error = timeoutErr{}

func recordingSleep(delays *[]time.Duration) func(context.Context, time.Duration) error {
	return func(ctx context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return ctx.Err()
	}
}

func TestRetryHandler_SucceedsWithinBudget(t *testing.T) {
	var delays []time.Duration
	handler := NewRetryHandler(RetryHandlerConfig{MaxAttempts: 5, Delay: 2 * time.Minute}, zerolog.Nop()).
		WithSleep(recordingSleep(&delays))

	calls := 0
	do := func(req *HTTPRequest) (*HTTPResponse, error) {
		calls++
		if calls < 3 {
			return nil, NewNetworkError(req.URL, "HTTP request failed", errors.New("connection refused"))
		}
		return &HTTPResponse{StatusCode: http.StatusOK, Body: []byte("User-agent: *")}, nil
	}

	resp, err := handler.DoWithRetry(context.Background(), do, &HTTPRequest{URL: "https://a.test/robots.txt"})
	require.NoError(t, err)
	assert.Equal(t, "User-agent: *", string(resp.Body))
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{2 * time.Minute, 2 * time.Minute}, delays)
}

func TestRetryHandler_BudgetExhausted(t *testing.T) {
	var delays []time.Duration
	var observed []int
	handler := NewRetryHandler(RetryHandlerConfig{MaxAttempts: 5, Delay: 2 * time.Minute}, zerolog.Nop()).
		WithSleep(recordingSleep(&delays)).
		WithObserver(func(attempt int, err error) { observed = append(observed, attempt) })

	calls := 0
	do := func(req *HTTPRequest) (*HTTPResponse, error) {
		calls++
		return nil, NewNetworkError(req.URL, "HTTP request failed", errors.New("connection reset by peer"))
	}

	_, err := handler.DoWithRetry(context.Background(), do, &HTTPRequest{URL: "https://a.test/robots.txt"})
	require.Error(t, err)
	assert.Equal(t, 5, calls)
	assert.Len(t, delays, 4, "no wait after the final attempt")
	assert.Equal(t, []int{1, 2, 3, 4, 5}, observed)
	assert.Equal(t, 5, AttemptsOf(err))
	assert.False(t, IsTimeout(err))

	var retryErr *RetryError
	require.ErrorAs(t, err, &retryErr)
}

func TestRetryHandler_TimeoutClassified(t *testing.T) {
	handler := NewRetryHandler(RetryHandlerConfig{MaxAttempts: 2, Delay: time.Millisecond}, zerolog.Nop())

	do := func(req *HTTPRequest) (*HTTPResponse, error) {
		return nil, NewNetworkError(req.URL, "HTTP request failed", timeoutErr{})
	}

	_, err := handler.DoWithRetry(context.Background(), do, &HTTPRequest{URL: "https://a.test/robots.txt"})
	require.Error(t, err)
	assert.True(t, IsTimeout(err))
	assert.Equal(t, 2, AttemptsOf(err))
}

func TestRetryHandler_NonNetworkErrorNotRetried(t *testing.T) {
	handler := NewRetryHandler(RetryHandlerConfig{MaxAttempts: 5, Delay: time.Millisecond}, zerolog.Nop())

	calls := 0
	do := func(req *HTTPRequest) (*HTTPResponse, error) {
		calls++
		return nil, WrapError(errors.New("bad method"), "failed to create HTTP request")
	}

	_, err := handler.DoWithRetry(context.Background(), do, &HTTPRequest{URL: "https://a.test/robots.txt"})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, AttemptsOf(err))
}

func TestRetryHandler_CancelledDuringWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	handler := NewRetryHandler(RetryHandlerConfig{MaxAttempts: 5, Delay: time.Hour}, zerolog.Nop())

	calls := 0
	do := func(req *HTTPRequest) (*HTTPResponse, error) {
		calls++
		cancel()
		return nil, NewNetworkError(req.URL, "HTTP request failed", errors.New("connection refused"))
	}

	_, err := handler.DoWithRetry(ctx, do, &HTTPRequest{URL: "https://a.test/robots.txt"})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestHTTPClient_RetriesDroppedConnections(t *testing.T) {
	var requestCount int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&requestCount, 1) <= 2 {
			hj, ok := w.(http.Hijacker)
			if !ok {
				t.Error("response writer does not support hijacking")
				return
			}
			conn, _, err := hj.Hijack()
			if err == nil {
				_ = conn.Close()
			}
			return
		}
		_, _ = w.Write([]byte("User-agent: *"))
	}))
	defer server.Close()

	logger := zerolog.Nop()
	client, err := NewHTTPClientBuilder(logger).
		WithRetry(RetryHandlerConfig{MaxAttempts: 5, Delay: time.Millisecond}).
		Build()
	require.NoError(t, err)

	result, err := client.FetchContent(FetchContentInput{URL: server.URL})
	require.NoError(t, err)
	assert.Equal(t, "User-agent: *", string(result.Content))
	assert.Equal(t, int32(3), atomic.LoadInt32(&requestCount))
}

func TestHTTPClient_StatusNotRetried(t *testing.T) {
	var requestCount int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requestCount, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client, err := NewHTTPClientBuilder(zerolog.Nop()).
		WithRetry(RetryHandlerConfig{MaxAttempts: 5, Delay: time.Millisecond}).
		Build()
	require.NoError(t, err)

	_, err = client.FetchContent(FetchContentInput{URL: server.URL})
	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusServiceUnavailable, httpErr.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&requestCount))
}
