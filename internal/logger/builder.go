package logger

import (
	"io"
	"os"

	"github.com/aleister1102/robotswatch/internal/common"
	"github.com/aleister1102/robotswatch/internal/config"
	"github.com/rs/zerolog"
)

// LoggerBuilder assembles the process logger from configuration.
type LoggerBuilder struct {
	config        LoggerConfig
	configErr     error
	consoleOutput io.Writer
}

func NewLoggerBuilder() *LoggerBuilder {
	return &LoggerBuilder{
		config: LoggerConfig{
			Level:      zerolog.InfoLevel,
			Format:     FormatConsole,
			MaxSizeMB:  100,
			MaxBackups: 3,
		},
		consoleOutput: os.Stderr,
	}
}

func (lb *LoggerBuilder) WithConfig(cfg config.LogConfig) *LoggerBuilder {
	lb.config, lb.configErr = ConvertConfig(cfg)
	return lb
}

// WithConsoleOutput redirects console output, stderr by default.
func (lb *LoggerBuilder) WithConsoleOutput(w io.Writer) *LoggerBuilder {
	lb.consoleOutput = w
	return lb
}

// Build always writes to the console output and also to a rotating file when one is configured.
func (lb *LoggerBuilder) Build() (zerolog.Logger, error) {
	if lb.configErr != nil {
		return zerolog.Nop(), lb.configErr
	}

	writers := []io.Writer{consoleWriter(lb.config.Format, lb.consoleOutput)}
	if lb.config.FilePath != "" {
		w, err := fileWriter(lb.config)
		if err != nil {
			return zerolog.Nop(), common.WrapError(err, "failed to create log file writer")
		}
		writers = append(writers, w)
	}

	return zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(lb.config.Level).
		With().
		Timestamp().
		Logger(), nil
}
