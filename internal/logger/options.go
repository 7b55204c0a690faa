package logger

import (
	"strings"

	"github.com/aleister1102/robotswatch/internal/common"
	"github.com/aleister1102/robotswatch/internal/config"
	"github.com/rs/zerolog"
)

// LogFormat selects how process log lines are rendered.
type LogFormat int

const (
	FormatJSON LogFormat = iota
	FormatConsole
	FormatText // console layout without colour
)

// LoggerConfig is config.LogConfig resolved into typed values.
type LoggerConfig struct {
	Level      zerolog.Level
	Format     LogFormat
	FilePath   string // empty disables file output
	MaxSizeMB  int
	MaxBackups int
}

// ConvertConfig resolves the textual log settings. Only the level can fail.
func ConvertConfig(cfg config.LogConfig) (LoggerConfig, error) {
	level := zerolog.InfoLevel
	if cfg.LogLevel != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
		if err != nil {
			return LoggerConfig{}, common.WrapError(err, "invalid log level")
		}
		level = parsed
	}

	return LoggerConfig{
		Level:      level,
		Format:     ParseFormat(cfg.LogFormat),
		FilePath:   cfg.LogFile,
		MaxSizeMB:  positiveOr(cfg.MaxLogSizeMB, 100),
		MaxBackups: positiveOr(cfg.MaxLogBackups, 3),
	}, nil
}

// ParseFormat falls back to FormatConsole for unknown names.
func ParseFormat(format string) LogFormat {
	switch strings.ToLower(format) {
	case "json":
		return FormatJSON
	case "text":
		return FormatText
	default:
		return FormatConsole
	}
}

func positiveOr(value, fallback int) int {
	if value <= 0 {
		return fallback
	}
	return value
}
