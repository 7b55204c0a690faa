package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Error represents a general error in the httpclient package.
type Error struct {
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// WrapError wraps an existing error with a message.
func WrapError(err error, message string) error {
	return &Error{Message: message, Err: err}
}

// NetworkError represents a transport-level failure: the request never produced
// a complete response.
type NetworkError struct {
	URL     string
	Message string
	Timeout bool
	Err     error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error for URL '%s': %s: %v", e.URL, e.Message, e.Err)
}

// Unwrap returns the underlying error.
func (e *NetworkError) Unwrap() error {
	return e.Err
}

// NewNetworkError creates a new NetworkError, detecting timeouts from err.
func NewNetworkError(url, message string, err error) *NetworkError {
	return &NetworkError{URL: url, Message: message, Timeout: isTimeout(err), Err: err}
}

// HTTPError represents an HTTP-level error (non-2xx status code).
type HTTPError struct {
	StatusCode int
	Body       string
	URL        string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http error for URL '%s': status %d", e.URL, e.StatusCode)
}

// NewHTTPErrorWithURL creates a new HTTPError.
func NewHTTPErrorWithURL(statusCode int, body string, url string) error {
	return &HTTPError{StatusCode: statusCode, Body: body, URL: url}
}

// RetryError is returned once the retry budget is spent on a retryable failure.
type RetryError struct {
	Attempts int
	Err      error
}

func (e *RetryError) Error() string {
	return fmt.Sprintf("all %d attempts failed: %v", e.Attempts, e.Err)
}

// Unwrap returns the error of the final attempt.
func (e *RetryError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether err is a transport failure worth another attempt.
func IsRetryable(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr)
}

// IsTimeout reports whether err, or the final attempt behind it, timed out.
func IsTimeout(err error) bool {
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return netErr.Timeout
	}
	return isTimeout(err)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// AttemptsOf returns how many attempts produced err; 1 unless err came from the retry handler.
func AttemptsOf(err error) int {
	var retryErr *RetryError
	if errors.As(err, &retryErr) {
		return retryErr.Attempts
	}
	return 1
}
