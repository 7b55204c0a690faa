package main

import (
	"context"
	"fmt"

	"github.com/aleister1102/robotswatch/internal/models"
	"github.com/aleister1102/robotswatch/internal/scheduler"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Check every site in the site list once and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := resolveEnv(cmd.Context())
			if err != nil {
				return err
			}
			return runOnce(cmd.Context(), e)
		},
	}
}

func runOnce(ctx context.Context, e *env) error {
	a, err := newApp(e.cfg, e.logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(); cerr != nil {
			e.logger.Warn().Err(cerr).Msg("Failed to close run log")
		}
	}()

	runID := uuid.NewString()
	var summary models.RunSummary

	history, herr := scheduler.NewRunHistoryDB(e.cfg.SchedulerConfig.SQLiteDBPath, e.logger)
	if herr != nil {
		e.logger.Warn().Err(herr).Msg("Run history unavailable, this run will not be recorded")
		summary, err = a.runCycle(ctx, runID, scheduler.TriggerManual)
	} else {
		defer history.Close()
		summary, err = history.Track(ctx, runID, scheduler.TriggerManual, a.runCycle)
	}
	if err != nil {
		return fmt.Errorf("run %s failed: %w", runID, err)
	}

	e.logger.Info().
		Str("run_id", summary.RunID).
		Int("sites", summary.Sites).
		Int("changed", summary.Changed).
		Int("errors", summary.Errors).
		Bool("interrupted", summary.Interrupted).
		Msg("Run complete")

	if summary.Interrupted {
		return fmt.Errorf("run %s interrupted after %d of %d site(s)", summary.RunID, summary.Total(), summary.Sites)
	}
	return nil
}
