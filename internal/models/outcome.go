package models

import (
	"fmt"
	"time"
)

// OutcomeKind identifies which variant a CheckOutcome holds.
type OutcomeKind int

const (
	OutcomeNoChange OutcomeKind = iota
	OutcomeChanged
	OutcomeFirstObservation
	OutcomeError
)

// String returns the lowercase label used in logs, metrics and history rows.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeNoChange:
		return "no_change"
	case OutcomeChanged:
		return "changed"
	case OutcomeFirstObservation:
		return "first_run"
	case OutcomeError:
		return "error"
	default:
		return "unknown"
	}
}

// CheckOutcome is the closed set of results a site check can produce.
// Consumers switch on the concrete type; every variant is listed below.
type CheckOutcome interface {
	Kind() OutcomeKind
	isCheckOutcome()
}

// NoChange means the fetched content equals the previously recorded content.
type NoChange struct {
	Content string
}

// Changed means the fetched content differs from the previously recorded content.
type Changed struct {
	OldContent string
	NewContent string
}

// FirstObservation means the fetch succeeded and nothing had been recorded before.
type FirstObservation struct {
	Content string
}

// CheckError means the check stopped early. Class tells which stage failed.
type CheckError struct {
	Class   ErrorClass
	Message string
	Err     error
}

func (NoChange) Kind() OutcomeKind         { return OutcomeNoChange }
func (Changed) Kind() OutcomeKind          { return OutcomeChanged }
func (FirstObservation) Kind() OutcomeKind { return OutcomeFirstObservation }
func (CheckError) Kind() OutcomeKind       { return OutcomeError }

func (NoChange) isCheckOutcome()         {}
func (Changed) isCheckOutcome()          {}
func (FirstObservation) isCheckOutcome() {}
func (CheckError) isCheckOutcome()       {}

// Error lets a CheckError travel as a regular error when needed.
func (e CheckError) Error() string {
	if e.Err != nil && e.Message == "" {
		return fmt.Sprintf("%s error: %v", e.Class, e.Err)
	}
	return fmt.Sprintf("%s error: %s", e.Class, e.Message)
}

// Unwrap returns the underlying cause.
func (e CheckError) Unwrap() error {
	return e.Err
}

// CheckResult is what a SiteCheck hands to the reporting stage.
type CheckResult struct {
	Site      Site
	SiteKey   string // empty when the URL failed validation
	SiteDir   string // empty when no storage location was prepared
	Outcome   CheckOutcome
	CheckedAt time.Time
	Duration  time.Duration
}

// HasStorage reports whether the check got far enough to prepare the site's storage location.
func (r CheckResult) HasStorage() bool {
	return r.SiteDir != ""
}
