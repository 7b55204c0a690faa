package main

import (
	"context"

	"github.com/aleister1102/robotswatch/internal/config"
	"github.com/aleister1102/robotswatch/internal/datastore"
	"github.com/aleister1102/robotswatch/internal/differ"
	applog "github.com/aleister1102/robotswatch/internal/logger"
	"github.com/aleister1102/robotswatch/internal/metrics"
	"github.com/aleister1102/robotswatch/internal/models"
	"github.com/aleister1102/robotswatch/internal/monitor"
	"github.com/aleister1102/robotswatch/internal/notifier"
	"github.com/aleister1102/robotswatch/internal/orchestrator"
	"github.com/aleister1102/robotswatch/internal/reporter"
	"github.com/aleister1102/robotswatch/internal/sitesource"

	"github.com/rs/zerolog"
)

// app holds the long-lived services one or more runs share.
type app struct {
	cfg           *config.GlobalConfig
	runLog        *applog.RunLog
	notifications *notifier.NotificationHelper
	mutexes       *datastore.SiteMutexManager
	orchestrator  *orchestrator.RunOrchestrator
	sites         *sitesource.CSVSiteSource
	logger        zerolog.Logger
}

func newApp(cfg *config.GlobalConfig, logger zerolog.Logger) (*app, error) {
	runLog, err := applog.NewRunLog(applog.RunLogConfig{
		Path:       cfg.StorageConfig.MainLogFile,
		MaxSizeMB:  cfg.StorageConfig.MainLogMaxSizeMB,
		MaxBackups: cfg.StorageConfig.MainLogMaxBackups,
	}, logger)
	if err != nil {
		return nil, err
	}

	notifications, err := notifier.NewNotificationHelperFromConfig(cfg.NotificationConfig, cfg.UnsentDir(), logger)
	if err != nil {
		_ = runLog.Close()
		return nil, err
	}

	fetcher, err := monitor.NewFetcherFromConfig(cfg.MonitorConfig, metrics.ObserveFetchAttempt, logger)
	if err != nil {
		_ = runLog.Close()
		return nil, err
	}

	mutexes := datastore.NewSiteMutexManager(logger)
	store := datastore.NewFileRecordStore(cfg.StorageConfig.DataDir, mutexes, logger)
	composer := reporter.NewMessageComposer(cfg.NotificationConfig.AdminEmail)

	dispatcherDeps := reporter.ReportDispatcherDeps{
		SiteLog:   applog.NewSiteLogWriter(logger),
		RunLog:    runLog,
		Snapshots: datastore.NewSnapshotWriter(logger),
		Queue:     notifications,
		Composer:  composer,
		Differ:    differ.NewLineDiffer(cfg.DiffConfig),
	}
	if cfg.DiffConfig.RenderEnabled {
		renderer, err := reporter.NewHTMLDiffRenderer()
		if err != nil {
			logger.Warn().Err(err).Msg("Diff renderer unavailable, change reports will carry no HTML diff")
		} else {
			dispatcherDeps.Renderer = renderer
		}
	}

	orch := orchestrator.NewRunOrchestrator(orchestrator.RunOrchestratorDeps{
		Checker:       monitor.NewSiteCheck(fetcher, store, logger),
		Dispatcher:    reporter.NewReportDispatcher(dispatcherDeps, logger),
		RunLog:        runLog,
		History:       datastore.NewParquetCheckHistory(cfg.StorageConfig, logger),
		Notifications: notifications,
		Composer:      composer,
	}, orchestrator.RunOrchestratorConfig{
		MaxConcurrentChecks: cfg.MonitorConfig.MaxConcurrentChecks,
		RunTimeout:          cfg.MonitorConfig.RunTimeout(),
	}, logger)

	return &app{
		cfg:           cfg,
		runLog:        runLog,
		notifications: notifications,
		mutexes:       mutexes,
		orchestrator:  orch,
		sites:         sitesource.NewCSVSiteSource(cfg.MonitorConfig.SitesFile, logger),
		logger:        logger,
	}, nil
}

// runCycle loads the site list and checks every site. An unreadable list
// notifies the administrator and is returned as an error.
func (a *app) runCycle(ctx context.Context, runID, trigger string) (models.RunSummary, error) {
	loaded, err := a.sites.Load()
	if err != nil {
		result := a.orchestrator.FailRun(ctx, err)
		for _, msg := range result.Errors {
			a.logger.Error().Str("error", msg).Msg("Failed to deliver run failure notification")
		}
		return models.RunSummary{RunID: runID}, err
	}
	if len(loaded.Sites) == 0 && len(loaded.RowErrors) == 0 {
		a.logger.Warn().Str("path", a.sites.Path()).Msg("Site list is empty")
	}

	summary := a.orchestrator.RunAll(ctx, loaded.Sites,
		orchestrator.WithRunID(runID),
		orchestrator.WithTrigger(trigger),
		orchestrator.WithSourceErrors(loaded.RowErrors),
	)
	// Site locks are only needed while a run is in flight.
	a.mutexes.Prune(nil)
	return summary, nil
}

func (a *app) Close() error {
	return a.runLog.Close()
}
