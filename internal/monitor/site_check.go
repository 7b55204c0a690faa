package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/aleister1102/robotswatch/internal/models"
	"github.com/aleister1102/robotswatch/internal/urlhandler"

	"github.com/rs/zerolog"
)

// ContentFetcher downloads the monitored resource of a validated site URL.
type ContentFetcher interface {
	Fetch(ctx context.Context, siteURL string) (string, error)
}

// RecordStore persists the two most recent contents of each site.
type RecordStore interface {
	SiteDir(siteKey string) string
	Load(siteKey string) (models.SiteRecord, error)
	Commit(siteKey, content string) (models.CommitResult, error)
}

type checkState int

const (
	stateInit checkState = iota
	stateFetching
	stateRecording
	stateDiffing
)

func (s checkState) String() string {
	switch s {
	case stateInit:
		return "init"
	case stateFetching:
		return "fetching"
	case stateRecording:
		return "recording"
	case stateDiffing:
		return "diffing"
	default:
		return "unknown"
	}
}

// SiteCheck runs one site through validate, fetch, commit and compare.
// Run always returns exactly one outcome; it never panics and never returns an error.
type SiteCheck struct {
	fetcher ContentFetcher
	store   RecordStore
	now     func() time.Time
	logger  zerolog.Logger
}

// NewSiteCheck creates a SiteCheck
func NewSiteCheck(fetcher ContentFetcher, store RecordStore, logger zerolog.Logger) *SiteCheck {
	return &SiteCheck{
		fetcher: fetcher,
		store:   store,
		now:     time.Now,
		logger:  logger.With().Str("component", "SiteCheck").Logger(),
	}
}

// WithClock overrides the time source used for CheckedAt and Duration.
func (c *SiteCheck) WithClock(now func() time.Time) *SiteCheck {
	c.now = now
	return c
}

// Run checks site. The record store is only mutated after a successful fetch,
// and only once.
func (c *SiteCheck) Run(ctx context.Context, site models.Site) (result models.CheckResult) {
	start := c.now()
	result = models.CheckResult{Site: site, CheckedAt: start}
	state := stateInit

	defer func() {
		if r := recover(); r != nil {
			c.logger.Error().
				Str("url", site.URL).
				Str("state", state.String()).
				Interface("panic", r).
				Msg("Site check panicked")
			result.Outcome = models.CheckError{
				Class:   models.ErrorClassUnexpected,
				Message: fmt.Sprintf("unexpected failure while %s %s: %v", state, site.URL, r),
			}
		}
		result.Duration = c.now().Sub(start)
	}()

	parsedURL, err := urlhandler.ValidateSiteURL(site.URL)
	if err != nil {
		result.Outcome = c.fail(site, state, err)
		return result
	}
	result.SiteKey = urlhandler.SiteKey(parsedURL)

	if _, err := c.store.Load(result.SiteKey); err != nil {
		result.Outcome = c.fail(site, state, err)
		return result
	}
	result.SiteDir = c.store.SiteDir(result.SiteKey)

	state = stateFetching
	content, err := c.fetcher.Fetch(ctx, site.URL)
	if err != nil {
		result.Outcome = c.fail(site, state, err)
		return result
	}

	state = stateRecording
	commit, err := c.store.Commit(result.SiteKey, content)
	if err != nil {
		result.Outcome = c.fail(site, state, err)
		return result
	}

	state = stateDiffing
	result.Outcome = diffOutcome(commit, content)

	c.logger.Debug().
		Str("url", site.URL).
		Str("site_key", result.SiteKey).
		Str("outcome", result.Outcome.Kind().String()).
		Msg("Site checked")
	return result
}

func diffOutcome(commit models.CommitResult, content string) models.CheckOutcome {
	if commit.WasFirstCheck || commit.PreviousContent == nil {
		return models.FirstObservation{Content: content}
	}
	if *commit.PreviousContent == content {
		return models.NoChange{Content: content}
	}
	return models.Changed{OldContent: *commit.PreviousContent, NewContent: content}
}

func (c *SiteCheck) fail(site models.Site, state checkState, err error) models.CheckError {
	class := models.ClassifyError(err)
	c.logger.Warn().
		Err(err).
		Str("url", site.URL).
		Str("state", state.String()).
		Str("class", class.String()).
		Msg("Site check failed")

	return models.CheckError{
		Class:   class,
		Message: err.Error(),
		Err:     err,
	}
}
