package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultGlobalConfig(t *testing.T) {
	cfg := NewDefaultGlobalConfig()

	require.NotNil(t, cfg)
	assert.Equal(t, ModeOnetime, cfg.Mode)
	assert.Equal(t, "robots.txt", cfg.MonitorConfig.ResourcePath)
	assert.Equal(t, 40, cfg.MonitorConfig.RequestTimeoutSeconds)
	assert.Equal(t, 5, cfg.MonitorConfig.MaxAttempts)
	assert.Equal(t, 120, cfg.MonitorConfig.RetryDelaySeconds)
	assert.Equal(t, "Robots.txtMonitor/1.0", cfg.MonitorConfig.UserAgent)
	assert.Equal(t, 1, cfg.MonitorConfig.MaxConcurrentChecks)
	assert.Equal(t, "data", cfg.StorageConfig.DataDir)
	assert.Equal(t, "data/main_log.txt", cfg.StorageConfig.MainLogFile)
	assert.False(t, cfg.NotificationConfig.EmailsEnabled)
	assert.Equal(t, filepath.Join("data", "_unsent_emails"), cfg.UnsentDir())

	require.NoError(t, ValidateConfig(cfg))
}

func TestLoadGlobalConfig_NoConfigFile(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, "")

	cfg, err := LoadGlobalConfig("", zerolog.Nop())

	require.NoError(t, err)
	assert.Equal(t, ModeOnetime, cfg.Mode)
}

func TestLoadGlobalConfig_NonExistentFile(t *testing.T) {
	cfg, err := LoadGlobalConfig("/nonexistent/config.json", zerolog.Nop())

	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "config file does not exist")
}

func TestLoadGlobalConfig_JSONFile(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "config.json")
	configData := `{
		"mode": "automated",
		"log_config": {"log_level": "debug"},
		"monitor_config": {"max_attempts": 3, "retry_delay_seconds": 0, "user_agent": "test-agent"}
	}`
	require.NoError(t, os.WriteFile(configFile, []byte(configData), 0644))

	cfg, err := LoadGlobalConfig(configFile, zerolog.Nop())

	require.NoError(t, err)
	assert.Equal(t, ModeAutomated, cfg.Mode)
	assert.Equal(t, "debug", cfg.LogConfig.LogLevel)
	assert.Equal(t, 3, cfg.MonitorConfig.MaxAttempts)
	assert.Equal(t, 0, cfg.MonitorConfig.RetryDelaySeconds)
	assert.Equal(t, "test-agent", cfg.MonitorConfig.UserAgent)
	assert.Equal(t, "robots.txt", cfg.MonitorConfig.ResourcePath, "unset fields keep defaults")
}

func TestLoadGlobalConfig_YAMLFile(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "config.yaml")
	configData := `
mode: automated
notification_config:
  emails_enabled: true
  admin_email: admin@example.com
  sender_email: monitor@example.com
  smtp_host: smtp.example.com
  discord_webhook_url: https://discord.com/api/webhooks/1/abc
scheduler_config:
  cron_expression: "30 5 * * 1"
`
	require.NoError(t, os.WriteFile(configFile, []byte(configData), 0644))
	t.Setenv(SMTPPasswordEnvVar, "from-env")

	cfg, err := LoadGlobalConfig(configFile, zerolog.Nop())

	require.NoError(t, err)
	assert.True(t, cfg.NotificationConfig.EmailsEnabled)
	assert.Equal(t, "admin@example.com", cfg.NotificationConfig.AdminEmail)
	assert.Equal(t, "from-env", cfg.NotificationConfig.SMTPPassword)
	assert.Equal(t, 587, cfg.NotificationConfig.SMTPPort)
	assert.Equal(t, "30 5 * * 1", cfg.SchedulerConfig.CronExpression)
	require.NoError(t, ValidateConfig(cfg))
}

func TestLoadGlobalConfig_InvalidYAML(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(configFile, []byte("mode: [unclosed"), 0644))

	_, err := LoadGlobalConfig(configFile, zerolog.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to unmarshal YAML")
}

func TestGetConfigPath_EnvVar(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte("mode: onetime\n"), 0644))
	t.Setenv(ConfigPathEnvVar, configFile)

	assert.Equal(t, configFile, GetConfigPath(""))
}

func TestGetConfigPath_FlagWins(t *testing.T) {
	dir := t.TempDir()
	flagFile := filepath.Join(dir, "flag.yaml")
	envFile := filepath.Join(dir, "env.yaml")
	require.NoError(t, os.WriteFile(flagFile, nil, 0644))
	require.NoError(t, os.WriteFile(envFile, nil, 0644))
	t.Setenv(ConfigPathEnvVar, envFile)

	assert.Equal(t, flagFile, GetConfigPath(flagFile))
}
