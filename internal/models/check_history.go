package models

import "time"

// CheckHistoryRecord is one row of a site's append-only check history.
type CheckHistoryRecord struct {
	RunID       string    `parquet:"run_id"`
	SiteURL     string    `parquet:"site_url"`
	CheckedAt   time.Time `parquet:"checked_at,timestamp"`
	Outcome     string    `parquet:"outcome"`
	ContentHash string    `parquet:"content_hash,optional"`
	ContentSize int64     `parquet:"content_size"`
	ErrorClass  string    `parquet:"error_class,optional"`
	Message     string    `parquet:"message,optional"`
	DurationMs  int64     `parquet:"duration_ms"`
}

// RunHistoryEntry is one row of the run_history table.
type RunHistoryEntry struct {
	ID          int64
	RunID       string
	Trigger     string
	StartedAt   time.Time
	FinishedAt  *time.Time
	Status      string
	SiteCount   int
	NoChange    int
	Changed     int
	FirstRun    int
	Errors      int
	DigestCount int
}
