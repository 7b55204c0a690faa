package scheduler

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aleister1102/robotswatch/internal/models"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

// Run statuses stored in run_history.
const (
	StatusStarted     = "STARTED"
	StatusCompleted   = "COMPLETED"
	StatusInterrupted = "INTERRUPTED"
	StatusFailed      = "FAILED"
)

// CycleFunc performs one run and reports its summary. An error means the run could not take place.
type CycleFunc func(ctx context.Context, runID, trigger string) (models.RunSummary, error)

// RunHistoryDB records one row per run in SQLite.
type RunHistoryDB struct {
	db     *sql.DB
	logger zerolog.Logger
}

// NewRunHistoryDB opens (or creates) the database at dataSourceName and ensures the schema.
func NewRunHistoryDB(dataSourceName string, logger zerolog.Logger) (*RunHistoryDB, error) {
	logger = logger.With().Str("component", "RunHistoryDB").Logger()

	dbDir := filepath.Dir(dataSourceName)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create run history directory %s: %w", dbDir, err)
	}

	dbInstance, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("sql.Open failed for %s: %w", dataSourceName, err)
	}
	// SQLite allows a single writer.
	dbInstance.SetMaxOpenConns(1)

	h := &RunHistoryDB{db: dbInstance, logger: logger}
	if err := h.InitSchema(); err != nil {
		_ = h.Close()
		return nil, fmt.Errorf("failed to initialize run history schema: %w", err)
	}

	logger.Debug().Str("path", dataSourceName).Msg("Run history database ready")
	return h, nil
}

// Close closes the database connection.
func (h *RunHistoryDB) Close() error {
	if h.db != nil {
		return h.db.Close()
	}
	return nil
}

// InitSchema creates the run_history table if it doesn't already exist.
func (h *RunHistoryDB) InitSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS run_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT UNIQUE NOT NULL,
		trigger_source TEXT NOT NULL,
		started_at DATETIME NOT NULL,
		finished_at DATETIME,
		status TEXT NOT NULL,
		site_count INTEGER DEFAULT 0,
		no_change INTEGER DEFAULT 0,
		changed INTEGER DEFAULT 0,
		first_run INTEGER DEFAULT 0,
		errors INTEGER DEFAULT 0,
		digest_count INTEGER DEFAULT 0,
		error_message TEXT
	);
	`
	if _, err := h.db.Exec(query); err != nil {
		h.logger.Error().Err(err).Msg("Failed to initialize schema")
		return err
	}
	return nil
}

// RecordRunStart inserts a STARTED row and returns its ID.
func (h *RunHistoryDB) RecordRunStart(runID, trigger string, startedAt time.Time) (int64, error) {
	query := `INSERT INTO run_history (run_id, trigger_source, started_at, status) VALUES (?, ?, ?, ?)`
	result, err := h.db.Exec(query, runID, trigger, startedAt, StatusStarted)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run start record: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID: %w", err)
	}
	h.logger.Debug().Int64("db_id", id).Str("run_id", runID).Msg("Recorded run start")
	return id, nil
}

// RecordRunCompletion stores the counters of a finished run.
func (h *RunHistoryDB) RecordRunCompletion(id int64, summary models.RunSummary, status string, runErr error) error {
	finishedAt := summary.FinishedAt
	if finishedAt.IsZero() {
		finishedAt = time.Now()
	}
	errMsg := sql.NullString{}
	if runErr != nil {
		errMsg = sql.NullString{String: runErr.Error(), Valid: true}
	}

	query := `UPDATE run_history SET finished_at = ?, status = ?, site_count = ?, no_change = ?, changed = ?, first_run = ?, errors = ?, digest_count = ?, error_message = ? WHERE id = ?`
	_, err := h.db.Exec(query, finishedAt, status, summary.Sites, summary.NoChange, summary.Changed, summary.FirstRun, summary.Errors, len(summary.Digest), errMsg, id)
	if err != nil {
		return fmt.Errorf("failed to update run completion for ID %d: %w", id, err)
	}
	h.logger.Debug().Int64("db_id", id).Str("status", status).Msg("Recorded run completion")
	return nil
}

// RecentRuns returns up to limit runs, newest first.
func (h *RunHistoryDB) RecentRuns(limit int) ([]models.RunHistoryEntry, error) {
	query := `SELECT id, run_id, trigger_source, started_at, finished_at, status, site_count, no_change, changed, first_run, errors, digest_count
		FROM run_history ORDER BY started_at DESC, id DESC LIMIT ?`
	rows, err := h.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query run history: %w", err)
	}
	defer rows.Close()

	var entries []models.RunHistoryEntry
	for rows.Next() {
		var entry models.RunHistoryEntry
		var finishedAt sql.NullTime
		if err := rows.Scan(&entry.ID, &entry.RunID, &entry.Trigger, &entry.StartedAt, &finishedAt, &entry.Status,
			&entry.SiteCount, &entry.NoChange, &entry.Changed, &entry.FirstRun, &entry.Errors, &entry.DigestCount); err != nil {
			return nil, fmt.Errorf("failed to scan run history row: %w", err)
		}
		if finishedAt.Valid {
			t := finishedAt.Time
			entry.FinishedAt = &t
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Track records a run around cycle. Bookkeeping failures are logged and never stop the run.
func (h *RunHistoryDB) Track(ctx context.Context, runID, trigger string, cycle CycleFunc) (models.RunSummary, error) {
	id, startErr := h.RecordRunStart(runID, trigger, time.Now())
	if startErr != nil {
		h.logger.Error().Err(startErr).Str("run_id", runID).Msg("Failed to record run start")
	}

	summary, err := cycle(ctx, runID, trigger)

	if startErr == nil {
		status := statusFor(summary, err)
		if recErr := h.RecordRunCompletion(id, summary, status, err); recErr != nil {
			h.logger.Error().Err(recErr).Str("run_id", runID).Msg("Failed to record run completion")
		}
	}
	return summary, err
}

func statusFor(summary models.RunSummary, err error) string {
	switch {
	case err != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)):
		return StatusInterrupted
	case err != nil:
		return StatusFailed
	case summary.Interrupted:
		return StatusInterrupted
	default:
		return StatusCompleted
	}
}
