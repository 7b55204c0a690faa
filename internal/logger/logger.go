package logger

import (
	"github.com/aleister1102/robotswatch/internal/config"
	"github.com/rs/zerolog"
)

// New creates the process logger from configuration.
func New(cfg config.LogConfig) (zerolog.Logger, error) {
	return NewLoggerBuilder().WithConfig(cfg).Build()
}
