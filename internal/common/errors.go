package common

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates a file or record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidConfiguration is matched by every *ConfigurationError.
	ErrInvalidConfiguration = errors.New("invalid configuration")
)

// WrapError wraps an error with additional context information
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// WrapErrorf wraps an error with formatted context information
func WrapErrorf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// NewError creates a new error with a formatted message
func NewError(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}

// ValidationError reports a rejected input value.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field '%s': %s (value: %v)", e.Field, e.Message, e.Value)
}

func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// ConfigurationError names the config section and field that failed a cross-field check.
type ConfigurationError struct {
	Section string
	Field   string
	Reason  string
}

func (e *ConfigurationError) Error() string {
	switch {
	case e.Section != "" && e.Field != "":
		return fmt.Sprintf("configuration error in section '%s', field '%s': %s", e.Section, e.Field, e.Reason)
	case e.Section != "":
		return fmt.Sprintf("configuration error in section '%s': %s", e.Section, e.Reason)
	default:
		return "configuration error: " + e.Reason
	}
}

func (e *ConfigurationError) Unwrap() error {
	return ErrInvalidConfiguration
}

func NewConfigurationError(section, field, reason string) *ConfigurationError {
	return &ConfigurationError{Section: section, Field: field, Reason: reason}
}

// ErrorCollector gathers the non-nil errors of a multi-step operation.
// The zero value is ready to use.
type ErrorCollector struct {
	errs []error
}

func NewErrorCollector() *ErrorCollector {
	return &ErrorCollector{}
}

// Add ignores nil errors.
func (ec *ErrorCollector) Add(err error) {
	if err != nil {
		ec.errs = append(ec.errs, err)
	}
}

// AddWithContext wraps err with context before adding it.
func (ec *ErrorCollector) AddWithContext(err error, context string) {
	ec.Add(WrapError(err, context))
}

func (ec *ErrorCollector) HasErrors() bool {
	return len(ec.errs) > 0
}

// Error returns nil, the single collected error, or all of them joined.
func (ec *ErrorCollector) Error() error {
	switch len(ec.errs) {
	case 0:
		return nil
	case 1:
		return ec.errs[0]
	}
	return errors.Join(ec.errs...)
}

func (ec *ErrorCollector) Errors() []error {
	return ec.errs
}
