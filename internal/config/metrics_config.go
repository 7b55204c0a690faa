package config

// MetricsConfig controls the Prometheus endpoint served in automated mode.
// An empty ListenAddress disables it.
type MetricsConfig struct {
	ListenAddress string `json:"listen_address" yaml:"listen_address" validate:"omitempty,hostname_port"`
}

// NewDefaultMetricsConfig creates default metrics configuration
func NewDefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{ListenAddress: DefaultMetricsListenAddress}
}
