package models

import (
	"errors"
	"fmt"
)

// ErrorClass groups check failures by the stage they happened in.
type ErrorClass int

const (
	ErrorClassValidation ErrorClass = iota
	ErrorClassFetch
	ErrorClassStorage
	ErrorClassUnexpected
)

func (c ErrorClass) String() string {
	switch c {
	case ErrorClassValidation:
		return "validation"
	case ErrorClassFetch:
		return "fetch"
	case ErrorClassStorage:
		return "storage"
	default:
		return "unexpected"
	}
}

// RequiresInvestigation reports whether failures of this class belong in the admin digest.
// Validation and fetch failures are the site owner's concern.
func (c ErrorClass) RequiresInvestigation() bool {
	return c == ErrorClassStorage || c == ErrorClassUnexpected
}

// FetchErrorKind is the failure class of the final fetch attempt.
type FetchErrorKind int

const (
	FetchTimeout FetchErrorKind = iota
	FetchConnectionFailed
	FetchUnexpectedStatus
)

func (k FetchErrorKind) String() string {
	switch k {
	case FetchTimeout:
		return "timeout"
	case FetchConnectionFailed:
		return "connection failed"
	case FetchUnexpectedStatus:
		return "unexpected status"
	default:
		return "unknown"
	}
}

// FetchError is returned by the fetcher once it gives up on a resource.
type FetchError struct {
	Kind       FetchErrorKind
	URL        string
	StatusCode int // set only for FetchUnexpectedStatus
	Attempts   int
	Err        error
}

func (e *FetchError) Error() string {
	switch e.Kind {
	case FetchUnexpectedStatus:
		return fmt.Sprintf("unexpected status code %d from %s", e.StatusCode, e.URL)
	case FetchTimeout:
		return fmt.Sprintf("timed out fetching %s after %d attempt(s)", e.URL, e.Attempts)
	default:
		if e.Err != nil {
			return fmt.Sprintf("failed to connect to %s after %d attempt(s): %v", e.URL, e.Attempts, e.Err)
		}
		return fmt.Sprintf("failed to connect to %s after %d attempt(s)", e.URL, e.Attempts)
	}
}

// Unwrap returns the transport error, if any.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// StorageError wraps a failure to read or write a site's persisted files.
type StorageError struct {
	Op   string
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s failed for %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying filesystem error.
func (e *StorageError) Unwrap() error {
	return e.Err
}

// URLValidationError represents a site URL that cannot be checked.
type URLValidationError struct {
	URL     string
	Message string
}

// Error returns the error message for URLValidationError.
func (e *URLValidationError) Error() string {
	return fmt.Sprintf("invalid URL %s: %s", e.URL, e.Message)
}

// ClassifyError maps an error raised during a check onto an ErrorClass.
func ClassifyError(err error) ErrorClass {
	var validationErr *URLValidationError
	var fetchErr *FetchError
	var storageErr *StorageError
	switch {
	case errors.As(err, &validationErr):
		return ErrorClassValidation
	case errors.As(err, &fetchErr):
		return ErrorClassFetch
	case errors.As(err, &storageErr):
		return ErrorClassStorage
	default:
		return ErrorClassUnexpected
	}
}
