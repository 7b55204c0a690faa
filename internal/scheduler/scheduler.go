package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aleister1102/robotswatch/internal/common"
	"github.com/aleister1102/robotswatch/internal/config"
	"github.com/aleister1102/robotswatch/internal/models"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Run triggers.
const (
	TriggerManual    = "manual"
	TriggerScheduled = "scheduled"
	TriggerStartup   = "startup"
)

// Scheduler runs the check cycle on a cron schedule in automated mode.
// Overlapping runs are skipped, and a panicking run does not stop the schedule.
type Scheduler struct {
	cfg     config.SchedulerConfig
	history *RunHistoryDB
	cycle   CycleFunc
	cron    *cron.Cron
	entryID cron.EntryID

	mu        sync.Mutex
	isRunning bool
	runCtx    context.Context

	logger zerolog.Logger
}

// NewScheduler creates a Scheduler. history may be nil to skip run bookkeeping.
func NewScheduler(cfg config.SchedulerConfig, history *RunHistoryDB, cycle CycleFunc, logger zerolog.Logger) (*Scheduler, error) {
	logger = logger.With().Str("component", "Scheduler").Logger()
	cl := cronLogger{logger: logger}

	s := &Scheduler{
		cfg:     cfg,
		history: history,
		cycle:   cycle,
		runCtx:  context.Background(),
		logger:  logger,
	}
	s.cron = cron.New(
		cron.WithParser(config.CronParser),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)

	entryID, err := s.cron.AddFunc(cfg.CronExpression, func() {
		s.RunOnce(s.context(), TriggerScheduled)
	})
	if err != nil {
		return nil, common.WrapErrorf(err, "invalid cron expression %q", cfg.CronExpression)
	}
	s.entryID = entryID
	return s, nil
}

// NextRun returns when the next scheduled run is due, zero before Start.
func (s *Scheduler) NextRun() time.Time {
	return s.cron.Entry(s.entryID).Next
}

// Start runs the schedule until ctx is cancelled, then waits for a run in progress to finish.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("scheduler is already running")
	}
	s.isRunning = true
	s.runCtx = ctx
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()
	}()

	s.logger.Info().Str("cron", s.cfg.CronExpression).Bool("run_on_start", s.cfg.RunOnStart).Msg("Scheduler starting")
	if s.cfg.RunOnStart {
		s.RunOnce(ctx, TriggerStartup)
	}

	s.cron.Start()
	s.logger.Info().Time("next_run", s.NextRun()).Msg("Next run scheduled")

	<-ctx.Done()
	s.logger.Info().Msg("Context cancelled, stopping scheduler")
	stopped := s.cron.Stop()
	<-stopped.Done()

	s.logger.Info().Msg("Scheduler stopped")
	return nil
}

// RunOnce performs one tracked run.
func (s *Scheduler) RunOnce(ctx context.Context, trigger string) (models.RunSummary, error) {
	runID := uuid.NewString()
	logger := s.logger.With().Str("run_id", runID).Str("trigger", trigger).Logger()
	logger.Info().Msg("Starting run")

	var summary models.RunSummary
	var err error
	if s.history != nil {
		summary, err = s.history.Track(ctx, runID, trigger, s.cycle)
	} else {
		summary, err = s.cycle(ctx, runID, trigger)
	}

	if err != nil {
		logger.Error().Err(err).Msg("Run failed")
		return summary, err
	}
	logger.Info().
		Int("no_change", summary.NoChange).
		Int("changed", summary.Changed).
		Int("first_run", summary.FirstRun).
		Int("errors", summary.Errors).
		Bool("interrupted", summary.Interrupted).
		Msg("Run finished")
	return summary, nil
}

func (s *Scheduler) context() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runCtx
}
