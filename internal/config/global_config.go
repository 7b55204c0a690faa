package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/aleister1102/robotswatch/internal/common"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// GlobalConfig contains all configuration sections for the application
type GlobalConfig struct {
	DiffConfig         DiffConfig         `json:"diff_config,omitempty" yaml:"diff_config,omitempty"`
	LogConfig          LogConfig          `json:"log_config,omitempty" yaml:"log_config,omitempty"`
	MetricsConfig      MetricsConfig      `json:"metrics_config,omitempty" yaml:"metrics_config,omitempty"`
	Mode               string             `json:"mode,omitempty" yaml:"mode,omitempty" validate:"required,mode"`
	MonitorConfig      MonitorConfig      `json:"monitor_config,omitempty" yaml:"monitor_config,omitempty"`
	NotificationConfig NotificationConfig `json:"notification_config,omitempty" yaml:"notification_config,omitempty"`
	SchedulerConfig    SchedulerConfig    `json:"scheduler_config,omitempty" yaml:"scheduler_config,omitempty"`
	StorageConfig      StorageConfig      `json:"storage_config,omitempty" yaml:"storage_config,omitempty"`
}

// NewDefaultGlobalConfig creates a new GlobalConfig with default values
func NewDefaultGlobalConfig() *GlobalConfig {
	return &GlobalConfig{
		DiffConfig:         NewDefaultDiffConfig(),
		LogConfig:          NewDefaultLogConfig(),
		MetricsConfig:      NewDefaultMetricsConfig(),
		Mode:               DefaultMode,
		MonitorConfig:      NewDefaultMonitorConfig(),
		NotificationConfig: NewDefaultNotificationConfig(),
		SchedulerConfig:    NewDefaultSchedulerConfig(),
		StorageConfig:      NewDefaultStorageConfig(),
	}
}

// LoadGlobalConfig loads the configuration from a file or default locations.
// It determines the config file path using GetConfigPath, supports both JSON and YAML formats.
// YAML is preferred if the file extension is .yaml or .yml.
func LoadGlobalConfig(providedPath string, logger zerolog.Logger) (*GlobalConfig, error) {
	cfg := NewDefaultGlobalConfig()

	if providedPath != "" {
		if _, err := os.Stat(providedPath); err != nil {
			return nil, common.NewValidationError("config_file", providedPath, "config file does not exist")
		}
	}

	filePath := GetConfigPath(providedPath)
	if filePath == "" {
		logger.Debug().Msg("No config file found, using defaults")
		cfg.applyEnvironment()
		return cfg, nil
	}

	fileManager := common.NewFileManager(logger)
	data, err := loadConfigFileContent(fileManager, filePath)
	if err != nil {
		return nil, common.WrapError(err, "failed to load config file content")
	}

	if err := parseConfigContent(data, filePath, cfg); err != nil {
		return nil, common.WrapError(err, "failed to parse config content")
	}

	cfg.applyEnvironment()
	logger.Debug().Str("path", filePath).Msg("Configuration loaded")
	return cfg, nil
}

// applyEnvironment fills secrets that are better kept out of config files.
func (c *GlobalConfig) applyEnvironment() {
	if c.NotificationConfig.SMTPPassword == "" {
		c.NotificationConfig.SMTPPassword = os.Getenv(SMTPPasswordEnvVar)
	}
}

// UnsentDir resolves where undeliverable messages are written.
func (c *GlobalConfig) UnsentDir() string {
	if c.NotificationConfig.UnsentDir != "" {
		return c.NotificationConfig.UnsentDir
	}
	return filepath.Join(c.StorageConfig.DataDir, DefaultStorageUnsentDirName)
}

// loadConfigFileContent reads the config file using FileManager
func loadConfigFileContent(fileManager *common.FileManager, filePath string) ([]byte, error) {
	return fileManager.ReadFile(filePath, common.FileReadOptions{MaxSize: 1024 * 1024})
}

// parseConfigContent parses the config content based on file extension
func parseConfigContent(data []byte, filePath string, cfg *GlobalConfig) error {
	ext := filepath.Ext(filePath)
	if isYAMLFile(ext) {
		return parseYAMLConfig(data, filePath, cfg)
	}
	return parseJSONConfig(data, filePath, cfg)
}

// isYAMLFile checks if the file extension indicates a YAML file
func isYAMLFile(ext string) bool {
	return ext == ".yaml" || ext == ".yml"
}

// parseYAMLConfig parses YAML configuration
func parseYAMLConfig(data []byte, filePath string, cfg *GlobalConfig) error {
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return common.NewError("failed to unmarshal YAML from '%s': %w", filePath, err)
	}
	return nil
}

// parseJSONConfig parses JSON configuration
func parseJSONConfig(data []byte, filePath string, cfg *GlobalConfig) error {
	if err := json.Unmarshal(data, cfg); err != nil {
		return common.NewError("failed to unmarshal JSON from '%s': %w", filePath, err)
	}
	return nil
}
