package models

import (
	"fmt"
	"time"
)

// RunSummary holds the per-run counters and the admin error digest.
type RunSummary struct {
	RunID       string
	Sites       int // sites in the list, checked or not
	StartedAt   time.Time
	FinishedAt  time.Time
	NoChange    int
	Changed     int
	FirstRun    int
	Errors      int
	Digest      []string
	Interrupted bool
}

// Total is the number of sites accounted for.
func (s RunSummary) Total() int {
	return s.NoChange + s.Changed + s.FirstRun + s.Errors
}

// Duration returns how long the run took.
func (s RunSummary) Duration() time.Duration {
	if s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

// CountLine renders the counters the way they appear in the run log.
func (s RunSummary) CountLine() string {
	return fmt.Sprintf("No change: %d, changed: %d, first run: %d, errors: %d.", s.NoChange, s.Changed, s.FirstRun, s.Errors)
}
