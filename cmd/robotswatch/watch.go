package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/aleister1102/robotswatch/internal/metrics"
	"github.com/aleister1102/robotswatch/internal/scheduler"

	"github.com/spf13/cobra"
)

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Run checks on the configured cron schedule until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := resolveEnv(cmd.Context())
			if err != nil {
				return err
			}
			return runWatch(cmd.Context(), e)
		},
	}
}

func runWatch(ctx context.Context, e *env) error {
	metrics.Init()

	a, err := newApp(e.cfg, e.logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(); cerr != nil {
			e.logger.Warn().Err(cerr).Msg("Failed to close run log")
		}
	}()

	history, err := scheduler.NewRunHistoryDB(e.cfg.SchedulerConfig.SQLiteDBPath, e.logger)
	if err != nil {
		return err
	}
	defer history.Close()

	sched, err := scheduler.NewScheduler(e.cfg.SchedulerConfig, history, a.runCycle, e.logger)
	if err != nil {
		return err
	}

	if addr := e.cfg.MetricsConfig.ListenAddress; addr != "" {
		stopMetrics := serveMetrics(ctx, addr, e)
		defer stopMetrics()
	}

	e.logger.Info().
		Str("cron", e.cfg.SchedulerConfig.CronExpression).
		Time("next_run", sched.NextRun()).
		Msg("Scheduler starting")
	return sched.Start(ctx)
}

func serveMetrics(ctx context.Context, addr string, e *env) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		e.logger.Info().Str("address", addr).Msg("Serving metrics")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			e.logger.Error().Err(err).Msg("Metrics server stopped")
		}
	}()

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			e.logger.Warn().Err(err).Msg("Metrics server shutdown failed")
		}
	}
}
