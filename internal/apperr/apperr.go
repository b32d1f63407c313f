// Package apperr defines the error categories used across fdm-cli.
//
// Error taxonomy
//
//	UserError          – missing or invalid user input (wrong flag, bad value, …).
//	                     The CLI prints only the message. Exit code: 1.
//
//	ConfigurationError – a rule table, schema or practicality file is structurally
//	                     invalid or vacuous. Raised at load time, before any row
//	                     is processed. Exit code: 1.
//
//	ValidationError    – a record field violates a declared hard physical bound
//	                     while the bounds policy is "reject". Recorded per row,
//	                     never aborts a batch.
//
//	ComputationError   – arithmetic would be undefined (zero variance, empty
//	                     column). Always degraded to a diagnostic.
//
//	ErrCancelled       – the user aborted an interactive prompt. Exit code: 0.
//
// Everything else is a plain Go error (I/O, decoding, SQL, …) and is
// propagated with fmt.Errorf("context: %w", err) wrapping.
package apperr

import (
	"errors"
	"fmt"
)

// ErrCancelled is returned when the user explicitly aborts an interactive
// operation. The CLI should exit 0 rather than 1 when it sees this error.
var ErrCancelled = errors.New("operation cancelled")

// UserError represents an error caused by invalid or missing user input.
type UserError struct {
	Message string
}

func (e *UserError) Error() string { return e.Message }

// User creates a UserError with the given message.
func User(msg string) error { return &UserError{Message: msg} }

// Userf creates a formatted UserError.
func Userf(format string, args ...any) error {
	return &UserError{Message: fmt.Sprintf(format, args...)}
}

// IsUser reports whether err is (or wraps) a *UserError.
func IsUser(err error) bool {
	var u *UserError
	return errors.As(err, &u)
}

// ConfigurationError reports an invalid rule table, schema or range catalog.
// Source names the file (or "embedded") the configuration came from.
type ConfigurationError struct {
	Source   string
	Problems []string
}

func (e *ConfigurationError) Error() string {
	src := e.Source
	if src == "" {
		src = "configuration"
	}
	switch len(e.Problems) {
	case 0:
		return src + ": invalid configuration"
	case 1:
		return src + ": " + e.Problems[0]
	default:
		return fmt.Sprintf("%s: %s (and %d more problem(s))", src, e.Problems[0], len(e.Problems)-1)
	}
}

// Configf creates a ConfigurationError with a single formatted problem.
func Configf(source, format string, args ...any) error {
	return &ConfigurationError{Source: source, Problems: []string{fmt.Sprintf(format, args...)}}
}

// IsConfiguration reports whether err is (or wraps) a *ConfigurationError.
func IsConfiguration(err error) bool {
	var c *ConfigurationError
	return errors.As(err, &c)
}

// ValidationError reports a field value outside its declared hard bound.
type ValidationError struct {
	RecordID string
	Field    string
	Value    float64
	Min, Max float64
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("record %s: %s=%g outside physical bounds [%g, %g]", e.RecordID, e.Field, e.Value, e.Min, e.Max)
}

// IsValidation reports whether err is (or wraps) a *ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// ComputationError reports an undefined statistic for a column.
type ComputationError struct {
	Column string
	Reason string
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("column %s: %s", e.Column, e.Reason)
}

// IsComputation reports whether err is (or wraps) a *ComputationError.
func IsComputation(err error) bool {
	var c *ComputationError
	return errors.As(err, &c)
}
