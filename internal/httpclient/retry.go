package httpclient

import (
	"context"
	"time"

	"github.com/aleister1102/robotswatch/internal/common"
	"github.com/rs/zerolog"
)

// AttemptObserver is told about the outcome of every attempt; err is nil on success.
type AttemptObserver func(attempt int, err error)

// RetryHandler retries transport failures with a fixed delay between attempts.
// HTTP responses of any status are returned as-is and never retried.
type RetryHandler struct {
	maxAttempts int
	delay       time.Duration
	sleep       func(ctx context.Context, d time.Duration) error
	observer    AttemptObserver
	logger      zerolog.Logger
}

// RetryHandlerConfig configuration for retry handler
type RetryHandlerConfig struct {
	MaxAttempts int           `json:"max_attempts"`
	Delay       time.Duration `json:"delay"`
}

// NewRetryHandler creates a new retry handler
func NewRetryHandler(config RetryHandlerConfig, logger zerolog.Logger) *RetryHandler {
	maxAttempts := config.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	return &RetryHandler{
		maxAttempts: maxAttempts,
		delay:       config.Delay,
		sleep:       common.SleepWithContext,
		logger:      logger.With().Str("component", "RetryHandler").Logger(),
	}
}

// WithSleep replaces the wait between attempts, mainly for tests.
func (rh *RetryHandler) WithSleep(sleep func(ctx context.Context, d time.Duration) error) *RetryHandler {
	rh.sleep = sleep
	return rh
}

// WithObserver registers a callback invoked after every attempt.
func (rh *RetryHandler) WithObserver(observer AttemptObserver) *RetryHandler {
	rh.observer = observer
	return rh
}

// MaxAttempts returns the attempt budget.
func (rh *RetryHandler) MaxAttempts() int {
	return rh.maxAttempts
}

// WaitForRetry waits for the fixed delay before the next attempt
func (rh *RetryHandler) WaitForRetry(ctx context.Context, attempt int, url string, cause error) error {
	rh.logger.Warn().
		Str("url", url).
		Int("attempt", attempt).
		Int("max_attempts", rh.maxAttempts).
		Dur("delay", rh.delay).
		Err(cause).
		Msg("Request failed, waiting before retry")

	return rh.sleep(ctx, rh.delay)
}

// DoWithRetry executes an HTTP request with retry logic
func (rh *RetryHandler) DoWithRetry(ctx context.Context, doFunc func(*HTTPRequest) (*HTTPResponse, error), req *HTTPRequest) (*HTTPResponse, error) {
	var lastErr error

	for attempt := 1; attempt <= rh.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		resp, err := doFunc(req)
		if rh.observer != nil {
			rh.observer(attempt, err)
		}
		if err == nil {
			if attempt > 1 {
				rh.logger.Info().Str("url", req.URL).Int("attempt", attempt).Msg("Request succeeded after retry")
			}
			return resp, nil
		}

		if !IsRetryable(err) {
			return nil, err
		}
		lastErr = err

		if attempt == rh.maxAttempts {
			break
		}
		if waitErr := rh.WaitForRetry(ctx, attempt, req.URL, err); waitErr != nil {
			return nil, waitErr
		}
	}

	rh.logger.Error().
		Str("url", req.URL).
		Int("attempts", rh.maxAttempts).
		Err(lastErr).
		Msg("All retry attempts failed")

	return nil, &RetryError{Attempts: rh.maxAttempts, Err: lastErr}
}
