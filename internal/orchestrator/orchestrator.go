package orchestrator

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/aleister1102/robotswatch/internal/metrics"
	"github.com/aleister1102/robotswatch/internal/models"
	"github.com/aleister1102/robotswatch/internal/notifier"
	"github.com/aleister1102/robotswatch/internal/reporter"
	"github.com/aleister1102/robotswatch/internal/urlhandler"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// SiteChecker runs the check pipeline for one site.
type SiteChecker interface {
	Run(ctx context.Context, site models.Site) models.CheckResult
}

// Dispatcher performs the side effects of a check result.
type Dispatcher interface {
	Dispatch(result models.CheckResult) error
}

// RunLogger is the run-scoped text log.
type RunLogger interface {
	Log(message string) error
	LogBlankBefore(message string) error
}

// CheckHistory stores one row per check. Optional.
type CheckHistory interface {
	Enabled() bool
	Append(siteDir string, rec models.CheckHistoryRecord) error
}

// Notifications delivers queued site messages and the administrator digest.
type Notifications interface {
	Flush(ctx context.Context) notifier.FlushResult
	SendNow(ctx context.Context, msg models.Message) notifier.FlushResult
}

// RunOrchestratorDeps are the collaborators of a RunOrchestrator. History may be nil.
type RunOrchestratorDeps struct {
	Checker       SiteChecker
	Dispatcher    Dispatcher
	RunLog        RunLogger
	History       CheckHistory
	Notifications Notifications
	Composer      *reporter.MessageComposer
}

// RunOrchestratorConfig tunes how a run is executed.
type RunOrchestratorConfig struct {
	// MaxConcurrentChecks of 1 checks sites one after another in list order.
	MaxConcurrentChecks int
	// RunTimeout of zero means no deadline.
	RunTimeout time.Duration
}

// RunOption customises a single run.
type RunOption func(*runOptions)

type runOptions struct {
	runID        string
	trigger      string
	sourceErrors []string
}

// WithRunID sets the run identifier instead of generating one.
func WithRunID(runID string) RunOption {
	return func(o *runOptions) { o.runID = runID }
}

// WithTrigger labels the run, e.g. "manual" or "scheduled".
func WithTrigger(trigger string) RunOption {
	return func(o *runOptions) { o.trigger = trigger }
}

// WithSourceErrors seeds the digest with problems found while reading the site list.
func WithSourceErrors(errs []string) RunOption {
	return func(o *runOptions) { o.sourceErrors = append(o.sourceErrors, errs...) }
}

// RunOrchestrator checks every site of a list and reports the results.
type RunOrchestrator struct {
	deps   RunOrchestratorDeps
	cfg    RunOrchestratorConfig
	now    func() time.Time
	logger zerolog.Logger
}

// NewRunOrchestrator creates a RunOrchestrator
func NewRunOrchestrator(deps RunOrchestratorDeps, cfg RunOrchestratorConfig, logger zerolog.Logger) *RunOrchestrator {
	if cfg.MaxConcurrentChecks < 1 {
		cfg.MaxConcurrentChecks = 1
	}
	return &RunOrchestrator{
		deps:   deps,
		cfg:    cfg,
		now:    time.Now,
		logger: logger.With().Str("component", "RunOrchestrator").Logger(),
	}
}

// WithClock overrides the time source used for run timestamps.
func (o *RunOrchestrator) WithClock(now func() time.Time) *RunOrchestrator {
	o.now = now
	return o
}

// RunAll checks every site, flushes the queued site messages and sends the
// administrator digest. A failure on one site never stops the others.
// When ctx is cancelled, sites not yet started are skipped and the summary is
// marked as interrupted; messages are still delivered.
func (o *RunOrchestrator) RunAll(ctx context.Context, sites []models.Site, opts ...RunOption) models.RunSummary {
	options := runOptions{trigger: "manual"}
	for _, opt := range opts {
		opt(&options)
	}

	runID := options.runID
	if runID == "" {
		runID = uuid.NewString()
	}
	acc := newRunAccumulator(models.RunSummary{RunID: runID, Sites: len(sites), StartedAt: o.now()})
	acc.addDigest(options.sourceErrors...)

	logger := o.logger.With().Str("run_id", runID).Logger()
	logger.Info().Int("sites", len(sites)).Str("trigger", options.trigger).Msg("Run started")
	o.runLog(acc, fmt.Sprintf("Run started: checking %d site(s).", len(sites)), true)

	runCtx := ctx
	if o.cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, o.cfg.RunTimeout)
		defer cancel()
	}

	var g errgroup.Group
	g.SetLimit(o.cfg.MaxConcurrentChecks)
	for _, site := range sites {
		if runCtx.Err() != nil {
			break
		}
		site := site
		g.Go(func() error {
			if runCtx.Err() != nil {
				return nil
			}
			o.processSite(runCtx, runID, site, acc)
			return nil
		})
	}
	_ = g.Wait()

	summary := acc.snapshot()
	if runCtx.Err() != nil {
		acc.markInterrupted()
		logger.Warn().Err(runCtx.Err()).Int("checked", summary.Total()).Int("sites", len(sites)).Msg("Run interrupted")
		acc.addDigest(fmt.Sprintf("Run interrupted after %d of %d site(s): %v", summary.Total(), len(sites), runCtx.Err()))
	}

	o.runLog(acc, "Run finished. "+summary.CountLine(), false)

	// Deliver even when the run was cancelled.
	deliveryCtx := context.WithoutCancel(ctx)
	flush := o.deps.Notifications.Flush(deliveryCtx)
	acc.addDigest(flush.Errors...)

	acc.finish(o.now())
	summary = acc.snapshot()

	digestResult := o.deps.Notifications.SendNow(deliveryCtx, o.deps.Composer.RunSummary(summary))
	for _, msg := range digestResult.Errors {
		logger.Error().Str("error", msg).Msg("Failed to deliver run summary")
	}

	metrics.ObserveRun(options.trigger, summary.Interrupted, summary.Duration(), len(summary.Digest), summary.FinishedAt)
	logger.Info().
		Int("no_change", summary.NoChange).
		Int("changed", summary.Changed).
		Int("first_run", summary.FirstRun).
		Int("errors", summary.Errors).
		Int("digest", len(summary.Digest)).
		Int("messages_sent", flush.Sent).
		Int("messages_saved", flush.Saved).
		Dur("duration", summary.Duration()).
		Msg("Run finished")
	return summary
}

// processSite runs one site's pipeline. Panics are contained here so the run continues.
func (o *RunOrchestrator) processSite(ctx context.Context, runID string, site models.Site, acc *runAccumulator) {
	site.URL = urlhandler.NormalizeSiteURL(site.URL)
	site.Email = urlhandler.NormalizeEmail(site.Email)

	recorded := false
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		msg := fmt.Sprintf("Unexpected error while processing %s (%s): %v", site.URL, site.Name, r)
		o.logger.Error().Str("run_id", runID).Str("url", site.URL).Interface("panic", r).Msg("Site pipeline panicked")
		acc.addDigest(msg)
		if !recorded {
			acc.record(models.OutcomeError)
			metrics.ObserveCheck(models.OutcomeError.String(), models.ErrorClassUnexpected.String(), 0)
		}
	}()

	result := o.deps.Checker.Run(ctx, site)
	if result.Outcome == nil {
		result.Outcome = models.CheckError{Class: models.ErrorClassUnexpected, Message: "site check returned no outcome"}
	}

	errorClass := ""
	if checkErr, ok := result.Outcome.(models.CheckError); ok {
		errorClass = checkErr.Class.String()
		if checkErr.Class.RequiresInvestigation() {
			acc.addDigest(fmt.Sprintf("%s check for %s (%s) failed.\nDETAILS: %s", checkErr.Class, site.URL, site.Name, checkErr.Message))
		}
	}

	if err := o.deps.Dispatcher.Dispatch(result); err != nil {
		acc.addDigest(err.Error())
	}

	acc.record(result.Outcome.Kind())
	recorded = true
	metrics.ObserveCheck(result.Outcome.Kind().String(), errorClass, result.Duration)

	o.appendHistory(runID, result, errorClass, acc)
}

func (o *RunOrchestrator) appendHistory(runID string, result models.CheckResult, errorClass string, acc *runAccumulator) {
	if o.deps.History == nil || !o.deps.History.Enabled() || !result.HasStorage() {
		return
	}

	rec := models.CheckHistoryRecord{
		RunID:      runID,
		SiteURL:    result.Site.URL,
		CheckedAt:  result.CheckedAt,
		Outcome:    result.Outcome.Kind().String(),
		ErrorClass: errorClass,
		DurationMs: result.Duration.Milliseconds(),
	}
	if content, ok := fetchedContent(result.Outcome); ok {
		sum := sha256.Sum256([]byte(content))
		rec.ContentHash = hex.EncodeToString(sum[:])
		rec.ContentSize = int64(len(content))
	}
	if checkErr, ok := result.Outcome.(models.CheckError); ok {
		rec.Message = checkErr.Message
	}

	if err := o.deps.History.Append(result.SiteDir, rec); err != nil {
		o.logger.Error().Err(err).Str("url", result.Site.URL).Msg("Failed to append check history")
		acc.addDigest(fmt.Sprintf("Error writing check history for %s.\nDETAILS: %v", result.Site.URL, err))
	}
}

func fetchedContent(outcome models.CheckOutcome) (string, bool) {
	switch o := outcome.(type) {
	case models.NoChange:
		return o.Content, true
	case models.Changed:
		return o.NewContent, true
	case models.FirstObservation:
		return o.Content, true
	default:
		return "", false
	}
}

func (o *RunOrchestrator) runLog(acc *runAccumulator, message string, blankBefore bool) {
	if o.deps.RunLog == nil {
		return
	}
	var err error
	if blankBefore {
		err = o.deps.RunLog.LogBlankBefore(message)
	} else {
		err = o.deps.RunLog.Log(message)
	}
	if err != nil {
		o.logger.Error().Err(err).Msg("Failed to update the main log")
		acc.addDigest(fmt.Sprintf("Error when updating the main log.\nDETAILS: %v", err))
	}
}

// FailRun notifies the administrator that a run could not start, e.g. because
// the site list was unreadable.
func (o *RunOrchestrator) FailRun(ctx context.Context, cause error) notifier.FlushResult {
	o.logger.Error().Err(cause).Msg("Run could not start")
	if o.deps.RunLog != nil {
		if err := o.deps.RunLog.LogBlankBefore("Run failed to start: " + cause.Error()); err != nil {
			o.logger.Error().Err(err).Msg("Failed to update the main log")
		}
	}
	return o.deps.Notifications.SendNow(context.WithoutCancel(ctx), o.deps.Composer.RunFailed(cause))
}
