package config

import (
	"time"
)

// MonitorConfig defines how sites are fetched and checked
type MonitorConfig struct {
	SitesFile             string `json:"sites_file,omitempty" yaml:"sites_file,omitempty" validate:"required"`
	ResourcePath          string `json:"resource_path,omitempty" yaml:"resource_path,omitempty" validate:"required"`
	RequestTimeoutSeconds int    `json:"request_timeout_seconds,omitempty" yaml:"request_timeout_seconds,omitempty" validate:"min=1"`
	MaxAttempts           int    `json:"max_attempts,omitempty" yaml:"max_attempts,omitempty" validate:"min=1,max=20"`
	RetryDelaySeconds     int    `json:"retry_delay_seconds" yaml:"retry_delay_seconds" validate:"min=0"`
	UserAgent             string `json:"user_agent,omitempty" yaml:"user_agent,omitempty" validate:"required"`
	MaxContentSize        int    `json:"max_content_size,omitempty" yaml:"max_content_size,omitempty" validate:"min=1"` // bytes
	MaxConcurrentChecks   int    `json:"max_concurrent_checks,omitempty" yaml:"max_concurrent_checks,omitempty" validate:"min=1"`
	RunTimeoutMinutes     int    `json:"run_timeout_minutes" yaml:"run_timeout_minutes" validate:"min=0"` // 0 disables the per-run deadline
	BypassCache           bool   `json:"bypass_cache" yaml:"bypass_cache"`
	InsecureSkipVerify    bool   `json:"insecure_skip_verify" yaml:"insecure_skip_verify"`
	EnableHTTP2           bool   `json:"enable_http2" yaml:"enable_http2"`
}

// NewDefaultMonitorConfig creates default monitor configuration
func NewDefaultMonitorConfig() MonitorConfig {
	return MonitorConfig{
		SitesFile:             DefaultMonitorSitesFile,
		ResourcePath:          DefaultMonitorResourcePath,
		RequestTimeoutSeconds: DefaultMonitorRequestTimeoutSeconds,
		MaxAttempts:           DefaultMonitorMaxAttempts,
		RetryDelaySeconds:     DefaultMonitorRetryDelaySeconds,
		UserAgent:             DefaultMonitorUserAgent,
		MaxContentSize:        DefaultMonitorMaxContentSize,
		MaxConcurrentChecks:   DefaultMonitorMaxConcurrentChecks,
		BypassCache:           true,
		EnableHTTP2:           true,
	}
}

// RequestTimeout is the per-attempt timeout.
func (c MonitorConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// RetryDelay is the fixed wait between attempts.
func (c MonitorConfig) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelaySeconds) * time.Second
}

// RunTimeout is the per-run deadline, zero when disabled.
func (c MonitorConfig) RunTimeout() time.Duration {
	return time.Duration(c.RunTimeoutMinutes) * time.Minute
}
