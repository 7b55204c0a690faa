package config

// StorageConfig defines where per-site records, logs and history live
type StorageConfig struct {
	DataDir           string `json:"data_dir,omitempty" yaml:"data_dir,omitempty" validate:"required"`
	MainLogFile       string `json:"main_log_file,omitempty" yaml:"main_log_file,omitempty" validate:"required"`
	MainLogMaxSizeMB  int    `json:"main_log_max_size_mb,omitempty" yaml:"main_log_max_size_mb,omitempty" validate:"min=0"`
	MainLogMaxBackups int    `json:"main_log_max_backups,omitempty" yaml:"main_log_max_backups,omitempty" validate:"min=0"`
	HistoryEnabled    bool   `json:"history_enabled" yaml:"history_enabled"`
	CompressionCodec  string `json:"compression_codec,omitempty" yaml:"compression_codec,omitempty" validate:"omitempty,compression"`
}

// NewDefaultStorageConfig creates default storage configuration
func NewDefaultStorageConfig() StorageConfig {
	return StorageConfig{
		DataDir:           DefaultStorageDataDir,
		MainLogFile:       DefaultStorageMainLogFile,
		MainLogMaxSizeMB:  DefaultStorageMainLogMaxSizeMB,
		MainLogMaxBackups: DefaultStorageMainLogMaxBackups,
		HistoryEnabled:    true,
		CompressionCodec:  DefaultStorageCompressionCodec,
	}
}
