package httpclient

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"

	"github.com/rs/zerolog"
	"golang.org/x/net/http2"
)

// HTTPClient wraps net/http.Client with shared headers, body limits and an optional retry handler.
type HTTPClient struct {
	client       *http.Client
	config       HTTPClientConfig
	logger       zerolog.Logger
	retryHandler *RetryHandler
}

// NewHTTPClient creates a new HTTP client with the given configuration using net/http
func NewHTTPClient(config HTTPClientConfig, logger zerolog.Logger) (*HTTPClient, error) {
	logger = logger.With().Str("component", "HTTPClient").Logger()

	client := &http.Client{
		Transport:     newTransport(config, logger),
		Timeout:       config.Timeout,
		CheckRedirect: checkRedirect(config),
	}

	logger.Debug().
		Dur("timeout", config.Timeout).
		Bool("follow_redirects", config.FollowRedirects).
		Bool("http2", config.EnableHTTP2).
		Msg("HTTP client ready")

	return &HTTPClient{client: client, config: config, logger: logger}, nil
}

func newTransport(config HTTPClientConfig, logger zerolog.Logger) *http.Transport {
	dialer := &net.Dialer{Timeout: config.DialTimeout, KeepAlive: config.KeepAlive}
	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          config.MaxIdleConns,
		MaxIdleConnsPerHost:   config.MaxIdleConnsPerHost,
		IdleConnTimeout:       config.IdleConnTimeout,
		TLSHandshakeTimeout:   config.TLSHandshakeTimeout,
		ExpectContinueTimeout: config.ExpectContinueTimeout,
		TLSClientConfig:       &tls.Config{InsecureSkipVerify: config.InsecureSkipVerify},
	}

	if config.EnableHTTP2 {
		if err := http2.ConfigureTransport(transport); err != nil {
			logger.Warn().Err(err).Msg("HTTP/2 unavailable, using HTTP/1.1")
		}
	}
	return transport
}

// checkRedirect hands 3xx responses back to the caller unless following is enabled.
func checkRedirect(config HTTPClientConfig) func(*http.Request, []*http.Request) error {
	if !config.FollowRedirects {
		return func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }
	}
	if config.MaxRedirects <= 0 {
		return nil
	}
	return func(_ *http.Request, via []*http.Request) error {
		if len(via) >= config.MaxRedirects {
			return fmt.Errorf("stopped after %d redirects", config.MaxRedirects)
		}
		return nil
	}
}

// SetRetryHandler attaches a retry handler used by Do.
func (c *HTTPClient) SetRetryHandler(handler *RetryHandler) {
	c.retryHandler = handler
}

// Do performs an HTTP request, with retries if a retry handler is configured.
func (c *HTTPClient) Do(req *HTTPRequest) (*HTTPResponse, error) {
	if c.retryHandler == nil {
		return c.do(req)
	}
	return c.retryHandler.DoWithRetry(requestContext(req.Context), c.do, req)
}

// do performs a single attempt. Transport failures come back as *NetworkError so
// the retry handler can tell them apart from everything else.
func (c *HTTPClient) do(req *HTTPRequest) (*HTTPResponse, error) {
	ctx := requestContext(req.Context)

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, req.Body)
	if err != nil {
		return nil, WrapError(err, "failed to create HTTP request")
	}
	c.applyHeaders(httpReq, req.Headers)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		// A cancelled caller is not a network condition and must not be retried.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, WrapError(ctxErr, "HTTP request aborted")
		}
		return nil, NewNetworkError(req.URL, "HTTP request failed", err)
	}
	defer resp.Body.Close()

	var body io.Reader = resp.Body
	if c.config.MaxContentSize > 0 {
		// One extra byte lets FetchContent tell an exact fit from an overflow.
		body = io.LimitReader(resp.Body, int64(c.config.MaxContentSize)+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, WrapError(ctxErr, "HTTP request aborted")
		}
		return nil, NewNetworkError(req.URL, "failed to read response body", err)
	}

	headers := make(map[string]string, len(resp.Header))
	for key := range resp.Header {
		headers[key] = resp.Header.Get(key)
	}
	return &HTTPResponse{StatusCode: resp.StatusCode, Headers: headers, Body: data}, nil
}

func (c *HTTPClient) applyHeaders(httpReq *http.Request, extra map[string]string) {
	for key, value := range c.config.CustomHeaders {
		httpReq.Header.Set(key, value)
	}
	for key, value := range extra {
		httpReq.Header.Set(key, value)
	}
	if c.config.UserAgent != "" {
		httpReq.Header.Set("User-Agent", c.config.UserAgent)
	}
	if httpReq.Header.Get("Accept") == "" {
		httpReq.Header.Set("Accept", "*/*")
	}
}

func requestContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

// FetchContentInput holds parameters for FetchContent.
type FetchContentInput struct {
	URL         string
	Context     context.Context
	BypassCache bool // Ask intermediaries for a fresh copy
}

// FetchContentResult holds results from FetchContent.
type FetchContentResult struct {
	Content        []byte
	ContentType    string
	HTTPStatusCode int
	Truncated      bool
}

// maxErrorBody caps how much of a non-2xx body is kept on the error.
const maxErrorBody = 1024

// FetchContent GETs input.URL and returns its body. Any status outside 2xx is
// returned as *HTTPError without retrying.
func (c *HTTPClient) FetchContent(input FetchContentInput) (*FetchContentResult, error) {
	headers := map[string]string{}
	if input.BypassCache {
		headers["Cache-Control"] = "no-cache, no-store, must-revalidate"
		headers["Pragma"] = "no-cache"
	}

	resp, err := c.Do(&HTTPRequest{
		URL:     input.URL,
		Method:  http.MethodGet,
		Headers: headers,
		Context: requestContext(input.Context),
	})
	if err != nil {
		c.logger.Debug().Err(err).Str("url", input.URL).Msg("Request failed")
		return nil, err
	}

	result := &FetchContentResult{
		Content:        resp.Body,
		ContentType:    resp.Headers["Content-Type"],
		HTTPStatusCode: resp.StatusCode,
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		if len(result.Content) > maxErrorBody {
			result.Content = result.Content[:maxErrorBody]
		}
		c.logger.Debug().Str("url", input.URL).Int("status_code", resp.StatusCode).Msg("Non-2xx response")
		return result, NewHTTPErrorWithURL(resp.StatusCode, string(result.Content), input.URL)
	}

	if limit := c.config.MaxContentSize; limit > 0 && len(result.Content) > limit {
		result.Content = result.Content[:limit]
		result.Truncated = true
	}
	return result, nil
}
