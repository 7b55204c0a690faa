package config

// SchedulerConfig defines configuration for automated mode
type SchedulerConfig struct {
	CronExpression string `json:"cron_expression,omitempty" yaml:"cron_expression,omitempty" validate:"required,cron"`
	RunOnStart     bool   `json:"run_on_start" yaml:"run_on_start"`
	SQLiteDBPath   string `json:"sqlite_db_path,omitempty" yaml:"sqlite_db_path,omitempty" validate:"required"`
}

// NewDefaultSchedulerConfig creates default scheduler configuration
func NewDefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		CronExpression: DefaultSchedulerCronExpression,
		RunOnStart:     false,
		SQLiteDBPath:   DefaultSchedulerSQLiteDBPath,
	}
}
