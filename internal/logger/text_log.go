package logger

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/aleister1102/robotswatch/internal/common"
	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// SiteLogFileName is the per-site log kept next to the site's records.
const SiteLogFileName = "log.txt"

// RunLogConfig describes the run-scoped text log.
type RunLogConfig struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
}

// RunLog is the append-only, human-readable log shared by every site in a run.
// Lines look like "05-03-24, 14:07: message". Safe for concurrent use.
type RunLog struct {
	mu     sync.Mutex
	out    io.Writer
	closer io.Closer
	now    func() time.Time
	logger zerolog.Logger
}

// NewRunLog opens the run log at cfg.Path, rotating by size through lumberjack.
func NewRunLog(cfg RunLogConfig, logger zerolog.Logger) (*RunLog, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.Path), common.DefaultDirPerm); err != nil {
		return nil, common.WrapError(err, "failed to create run log directory")
	}

	writer := &lumberjack.Logger{
		Filename:   cfg.Path,
		MaxSize:    positiveOr(cfg.MaxSizeMB, 10),
		MaxBackups: cfg.MaxBackups,
		LocalTime:  true,
	}

	runLog := NewRunLogWithWriter(writer, time.Now, logger)
	runLog.closer = writer
	return runLog, nil
}

// NewRunLogWithWriter builds a RunLog on an arbitrary writer.
func NewRunLogWithWriter(w io.Writer, now func() time.Time, logger zerolog.Logger) *RunLog {
	if now == nil {
		now = time.Now
	}
	return &RunLog{
		out:    w,
		now:    now,
		logger: logger.With().Str("component", "RunLog").Logger(),
	}
}

// Log appends one timestamped line.
func (l *RunLog) Log(message string) error {
	return l.write(message, false)
}

// LogBlankBefore appends a blank line followed by one timestamped line.
func (l *RunLog) LogBlankBefore(message string) error {
	return l.write(message, true)
}

func (l *RunLog) write(message string, blankBefore bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var sb strings.Builder
	if blankBefore {
		sb.WriteString("\n")
	}
	sb.WriteString(common.FormatLogLine(l.now(), message))
	sb.WriteString("\n")

	l.logger.Info().Msg(message)

	if _, err := io.WriteString(l.out, sb.String()); err != nil {
		l.logger.Error().Err(err).Msg("Failed to update the run log")
		return common.WrapError(err, "failed to write run log")
	}
	return nil
}

// Close releases the underlying file, if any.
func (l *RunLog) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

// SiteLogWriter appends timestamped lines to <site dir>/log.txt.
type SiteLogWriter struct {
	fileManager *common.FileManager
	now         func() time.Time
}

// NewSiteLogWriter creates a SiteLogWriter
func NewSiteLogWriter(logger zerolog.Logger) *SiteLogWriter {
	return &SiteLogWriter{
		fileManager: common.NewFileManager(logger),
		now:         time.Now,
	}
}

// WithClock overrides the time source, mainly for tests.
func (w *SiteLogWriter) WithClock(now func() time.Time) *SiteLogWriter {
	w.now = now
	return w
}

// Log appends message to the site's log. siteDir must already exist.
func (w *SiteLogWriter) Log(siteDir, message string) error {
	path := filepath.Join(siteDir, SiteLogFileName)
	if err := w.fileManager.AppendLine(path, common.FormatLogLine(w.now(), message)); err != nil {
		return common.WrapError(err, "failed to update site log")
	}
	return nil
}
