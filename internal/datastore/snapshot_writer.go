package datastore

import (
	"path/filepath"
	"time"

	"github.com/aleister1102/robotswatch/internal/common"
	"github.com/rs/zerolog"
)

// SnapshotWriter stores timestamped artifacts under <site dir>/snapshots.
type SnapshotWriter struct {
	fileManager *common.FileManager
	logger      zerolog.Logger
}

// NewSnapshotWriter creates a SnapshotWriter
func NewSnapshotWriter(logger zerolog.Logger) *SnapshotWriter {
	return &SnapshotWriter{
		fileManager: common.NewFileManager(logger),
		logger:      logger.With().Str("component", "SnapshotWriter").Logger(),
	}
}

// WriteContent saves content as snapshots/<stamp>_<label>.txt and returns the path.
func (w *SnapshotWriter) WriteContent(siteDir, label, content string, at time.Time) (string, error) {
	return w.write(siteDir, label, ".txt", []byte(content), at)
}

// WriteDiff saves a rendered HTML diff as snapshots/<stamp>_<label>.html.
func (w *SnapshotWriter) WriteDiff(siteDir, label string, html []byte, at time.Time) (string, error) {
	return w.write(siteDir, label, ".html", html, at)
}

func (w *SnapshotWriter) write(siteDir, label, ext string, data []byte, at time.Time) (string, error) {
	dir := filepath.Join(siteDir, SnapshotsDirName)
	if err := w.fileManager.EnsureDirectory(dir, common.DefaultDirPerm); err != nil {
		return "", common.WrapError(err, "failed to prepare snapshots directory")
	}

	base := filepath.Join(dir, common.FormatFileStamp(at)+"_"+label)
	path := w.fileManager.UniquePath(base, ext)

	if err := w.fileManager.WriteFile(path, data, common.DefaultFileWriteOptions()); err != nil {
		return "", common.WrapError(err, "failed to write snapshot")
	}

	w.logger.Debug().Str("path", path).Int("size", len(data)).Msg("Snapshot written")
	return path, nil
}
