package monitor

import (
	"context"
	"errors"

	"github.com/aleister1102/robotswatch/internal/common"
	"github.com/aleister1102/robotswatch/internal/config"
	"github.com/aleister1102/robotswatch/internal/httpclient"
	"github.com/aleister1102/robotswatch/internal/models"
	"github.com/aleister1102/robotswatch/internal/urlhandler"

	"github.com/rs/zerolog"
)

// Fetcher downloads the monitored resource of a site.
type Fetcher struct {
	client       *httpclient.HTTPClient
	resourcePath string
	bypassCache  bool
	logger       zerolog.Logger
}

// NewFetcher creates a Fetcher on top of an already configured HTTP client.
func NewFetcher(client *httpclient.HTTPClient, cfg config.MonitorConfig, logger zerolog.Logger) *Fetcher {
	return &Fetcher{
		client:       client,
		resourcePath: cfg.ResourcePath,
		bypassCache:  cfg.BypassCache,
		logger:       logger.With().Str("component", "Fetcher").Logger(),
	}
}

// NewFetcherFromConfig builds the HTTP client and retry policy described by cfg.
// observer, when non-nil, is told about every attempt.
func NewFetcherFromConfig(cfg config.MonitorConfig, observer httpclient.AttemptObserver, logger zerolog.Logger) (*Fetcher, error) {
	retryHandler := httpclient.NewRetryHandler(httpclient.RetryHandlerConfig{
		MaxAttempts: cfg.MaxAttempts,
		Delay:       cfg.RetryDelay(),
	}, logger)
	if observer != nil {
		retryHandler.WithObserver(observer)
	}

	client, err := httpclient.NewHTTPClientBuilder(logger).
		WithTimeout(cfg.RequestTimeout()).
		WithUserAgent(cfg.UserAgent).
		WithMaxContentSize(cfg.MaxContentSize).
		WithInsecureSkipVerify(cfg.InsecureSkipVerify).
		WithHTTP2(cfg.EnableHTTP2).
		WithFollowRedirects(false).
		WithRetryHandler(retryHandler).
		Build()
	if err != nil {
		return nil, common.WrapError(err, "failed to build HTTP client")
	}

	return NewFetcher(client, cfg, logger), nil
}

// ResourceURL returns the address fetched for siteURL.
func (f *Fetcher) ResourceURL(siteURL string) string {
	return urlhandler.ResourceURL(siteURL, f.resourcePath)
}

// Fetch returns the body of the resource under siteURL. siteURL must already
// be a validated site root. Failures come back as *models.FetchError, except a
// cancelled ctx which is returned as the context error.
func (f *Fetcher) Fetch(ctx context.Context, siteURL string) (string, error) {
	resourceURL := f.ResourceURL(siteURL)

	result, err := f.client.FetchContent(httpclient.FetchContentInput{
		URL:         resourceURL,
		Context:     ctx,
		BypassCache: f.bypassCache,
	})
	if err != nil {
		return "", f.classify(ctx, resourceURL, err)
	}

	if result.Truncated {
		f.logger.Warn().Str("url", resourceURL).Int("size", len(result.Content)).Msg("Resource exceeded the size limit and was truncated")
	}

	f.logger.Debug().Str("url", resourceURL).Int("size", len(result.Content)).Msg("Resource fetched")
	return string(result.Content), nil
}

func (f *Fetcher) classify(ctx context.Context, resourceURL string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return common.WrapError(ctxErr, "fetch of "+resourceURL+" aborted")
	}

	fetchErr := &models.FetchError{
		URL:      resourceURL,
		Attempts: httpclient.AttemptsOf(err),
		Err:      err,
	}

	var httpErr *httpclient.HTTPError
	switch {
	case errors.As(err, &httpErr):
		fetchErr.Kind = models.FetchUnexpectedStatus
		fetchErr.StatusCode = httpErr.StatusCode
	case httpclient.IsTimeout(err):
		fetchErr.Kind = models.FetchTimeout
	default:
		fetchErr.Kind = models.FetchConnectionFailed
	}

	f.logger.Warn().
		Str("url", resourceURL).
		Str("kind", fetchErr.Kind.String()).
		Int("attempts", fetchErr.Attempts).
		Err(err).
		Msg("Fetch failed")
	return fetchErr
}
