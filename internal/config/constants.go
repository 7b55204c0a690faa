package config

const (
	// ConfigPathEnvVar overrides the config file search.
	ConfigPathEnvVar = "ROBOTSWATCH_CONFIG_PATH"
	// SMTPPasswordEnvVar supplies the SMTP password when the config file leaves it empty.
	SMTPPasswordEnvVar = "ROBOTSWATCH_SMTP_PASSWORD"

	// Mode Defaults
	ModeOnetime   = "onetime"
	ModeAutomated = "automated"
	DefaultMode   = ModeOnetime

	// Monitor Defaults
	DefaultMonitorSitesFile             = "monitored_sites.csv"
	DefaultMonitorResourcePath          = "robots.txt"
	DefaultMonitorRequestTimeoutSeconds = 40
	DefaultMonitorMaxAttempts           = 5
	DefaultMonitorRetryDelaySeconds     = 120
	DefaultMonitorUserAgent             = "Robots.txtMonitor/1.0"
	DefaultMonitorMaxContentSize        = 512 * 1024
	DefaultMonitorMaxConcurrentChecks   = 1

	// Diff Defaults
	DefaultDiffMaxFileSizeMB = 5

	// Storage Defaults
	DefaultStorageDataDir           = "data"
	DefaultStorageMainLogFile       = "data/main_log.txt"
	DefaultStorageMainLogMaxSizeMB  = 10
	DefaultStorageMainLogMaxBackups = 5
	DefaultStorageCompressionCodec  = "zstd"
	DefaultStorageUnsentDirName     = "_unsent_emails"

	// Log Defaults
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "console"
	DefaultLogFile       = ""
	DefaultMaxLogSizeMB  = 100
	DefaultMaxLogBackups = 3

	// Notification Defaults
	DefaultSMTPPort          = 587
	DefaultSendDelayMillis   = 500
	DefaultDiscordUsername   = "robotswatch"
	DefaultDiscordTimeoutSec = 20

	// Scheduler Defaults
	DefaultSchedulerCronExpression = "0 6 * * *"
	DefaultSchedulerSQLiteDBPath   = "data/run_history.db"

	// Metrics Defaults
	DefaultMetricsListenAddress = ":9108"
)
