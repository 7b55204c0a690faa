package datastore

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aleister1102/robotswatch/internal/config"
	"github.com/aleister1102/robotswatch/internal/models"
	"github.com/parquet-go/parquet-go"
	"github.com/rs/zerolog"
)

// HistoryFileName is the per-site check history file.
const HistoryFileName = "history.parquet"

// ParquetCheckHistory appends one row per check to <site dir>/history.parquet.
// Parquet files are immutable, so an append rewrites the file with the new row added.
type ParquetCheckHistory struct {
	enabled     bool
	compression parquet.WriterOption
	mutexes     *SiteMutexManager
	logger      zerolog.Logger
}

// NewParquetCheckHistory creates a history writer from the storage configuration.
func NewParquetCheckHistory(cfg config.StorageConfig, logger zerolog.Logger) *ParquetCheckHistory {
	h := &ParquetCheckHistory{
		enabled: cfg.HistoryEnabled,
		mutexes: NewSiteMutexManager(logger),
		logger:  logger.With().Str("component", "ParquetCheckHistory").Logger(),
	}
	h.compression = h.compressionOption(cfg.CompressionCodec)
	return h
}

// Enabled reports whether Append writes anything.
func (h *ParquetCheckHistory) Enabled() bool {
	return h.enabled
}

func (h *ParquetCheckHistory) compressionOption(codec string) parquet.WriterOption {
	switch strings.ToLower(codec) {
	case "snappy":
		return parquet.Compression(&parquet.Snappy)
	case "gzip":
		return parquet.Compression(&parquet.Gzip)
	case "zstd":
		return parquet.Compression(&parquet.Zstd)
	case "none", "uncompressed", "":
		return parquet.Compression(&parquet.Uncompressed)
	default:
		h.logger.Warn().Str("codec", codec).Msg("Unsupported compression codec string, defaulting to Uncompressed")
		return parquet.Compression(&parquet.Uncompressed)
	}
}

// Append adds rec to the history of the site stored in siteDir.
func (h *ParquetCheckHistory) Append(siteDir string, rec models.CheckHistoryRecord) error {
	if !h.enabled {
		return nil
	}

	mutex := h.mutexes.GetMutex(siteDir)
	mutex.Lock()
	defer mutex.Unlock()

	path := filepath.Join(siteDir, HistoryFileName)
	records, err := readCheckHistory(path)
	if err != nil {
		// A corrupt file must not block new rows; start over and say so.
		h.logger.Error().Err(err).Str("path", path).Msg("Error reading existing history file, will overwrite")
		records = nil
	}
	records = append(records, rec)

	if err := h.writeAll(path, records); err != nil {
		return &models.StorageError{Op: "write history", Path: path, Err: err}
	}

	h.logger.Debug().Str("path", path).Int("total_records", len(records)).Msg("Check history updated")
	return nil
}

func (h *ParquetCheckHistory) writeAll(path string, records []models.CheckHistoryRecord) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+HistoryFileName+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temporary history file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	writer := parquet.NewGenericWriter[models.CheckHistoryRecord](tmp, h.compression)
	if _, err := writer.Write(records); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("writing history rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("closing parquet writer: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("closing temporary history file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("replacing history file: %w", err)
	}
	return nil
}

// Read returns the site's history, newest first. A missing file yields no rows.
func (h *ParquetCheckHistory) Read(siteDir string) ([]models.CheckHistoryRecord, error) {
	mutex := h.mutexes.GetMutex(siteDir)
	mutex.Lock()
	defer mutex.Unlock()

	path := filepath.Join(siteDir, HistoryFileName)
	records, err := readCheckHistory(path)
	if err != nil {
		return nil, &models.StorageError{Op: "read history", Path: path, Err: err}
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CheckedAt.After(records[j].CheckedAt)
	})
	return records, nil
}

func readCheckHistory(path string) ([]models.CheckHistoryRecord, error) {
	osFile, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open history file '%s': %w", path, err)
	}
	defer osFile.Close()

	stat, err := osFile.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat history file '%s': %w", path, err)
	}
	if stat.Size() == 0 {
		return nil, nil
	}

	pqFile, err := parquet.OpenFile(osFile, stat.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file '%s': %w", path, err)
	}

	reader := parquet.NewReader(pqFile)
	defer reader.Close()

	var records []models.CheckHistoryRecord
	for {
		var record models.CheckHistoryRecord
		if err := reader.Read(&record); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("error reading record from parquet file '%s': %w", path, err)
		}
		records = append(records, record)
	}
	return records, nil
}
