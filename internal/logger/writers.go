package logger

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/aleister1102/robotswatch/internal/common"
	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

func consoleWriter(format LogFormat, out io.Writer) io.Writer {
	if format == FormatJSON {
		return out
	}
	return zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.RFC3339,
		NoColor:    format == FormatText,
	}
}

// fileWriter rotates cfg.FilePath by size. Console formats are written
// without colour codes.
func fileWriter(cfg LoggerConfig) (io.Writer, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.FilePath), common.DefaultDirPerm); err != nil {
		return nil, err
	}

	rotating := &lumberjack.Logger{
		Filename:   cfg.FilePath,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		LocalTime:  true,
	}
	if cfg.Format == FormatJSON {
		return rotating, nil
	}
	return consoleWriter(FormatText, rotating), nil
}
