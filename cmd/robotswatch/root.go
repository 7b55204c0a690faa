package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aleister1102/robotswatch/internal/config"
	applog "github.com/aleister1102/robotswatch/internal/logger"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type rootFlags struct {
	configFile string
	sitesFile  string
	logLevel   string
	mode       string
}

type envKeyType string

const envKey envKeyType = "env"

// env is the configuration and process logger shared by every subcommand.
type env struct {
	cfg    *config.GlobalConfig
	logger zerolog.Logger
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:   "robotswatch",
		Short: "Monitor robots.txt files and report changes to site owners",
		Long: `robotswatch fetches the robots.txt file of every site in a CSV site list,
compares it with the copy recorded on the previous run and emails the site
owner when it changed. Without a subcommand it runs in the mode set by the
configuration (onetime or automated).`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			e, err := loadEnv(flags)
			if err != nil {
				return err
			}
			cmd.SetContext(context.WithValue(cmd.Context(), envKey, e))
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := resolveEnv(cmd.Context())
			if err != nil {
				return err
			}
			if strings.EqualFold(e.cfg.Mode, config.ModeAutomated) {
				return runWatch(cmd.Context(), e)
			}
			return runOnce(cmd.Context(), e)
		},
	}

	cmd.PersistentFlags().StringVarP(&flags.configFile, "config", "c", "", "Path to the YAML/JSON configuration file. If not set, searches default locations.")
	cmd.PersistentFlags().StringVarP(&flags.sitesFile, "sites", "f", "", "CSV site list (url,name,email); overrides monitor_config.sites_file")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides log_config.log_level")
	cmd.PersistentFlags().StringVarP(&flags.mode, "mode", "m", "", "onetime or automated; overrides the configured mode")

	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newWatchCmd())
	cmd.AddCommand(newSitesCmd())
	cmd.AddCommand(newHistoryCmd())

	return cmd
}

func loadEnv(flags *rootFlags) (*env, error) {
	bootstrap := zerolog.Nop()
	cfg, err := config.LoadGlobalConfig(flags.configFile, bootstrap)
	if err != nil {
		return nil, fmt.Errorf("could not load configuration: %w", err)
	}

	if flags.sitesFile != "" {
		cfg.MonitorConfig.SitesFile = flags.sitesFile
	}
	if flags.logLevel != "" {
		cfg.LogConfig.LogLevel = flags.logLevel
	}
	if flags.mode != "" {
		cfg.Mode = flags.mode
	}

	if err := config.ValidateConfig(cfg); err != nil {
		return nil, err
	}

	logger, err := applog.New(cfg.LogConfig)
	if err != nil {
		return nil, fmt.Errorf("could not initialize logger: %w", err)
	}
	logger.Debug().Str("mode", cfg.Mode).Str("sites_file", cfg.MonitorConfig.SitesFile).Msg("Configuration loaded")

	return &env{cfg: cfg, logger: logger}, nil
}

func resolveEnv(ctx context.Context) (*env, error) {
	e, ok := ctx.Value(envKey).(*env)
	if !ok || e == nil {
		return nil, errors.New("configuration not loaded")
	}
	return e, nil
}
