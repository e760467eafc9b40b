// Package sortid - errors.go provides the error taxonomy shared by every identifier family.
//
// Three kinds of failure exist:
//   - configuration errors, fatal at construction (ConfigError)
//   - format errors, returned by decoding and parsing (FormatError)
//   - arithmetic boundaries: clock regression in strict mode (ClockError), time field
//     exhaustion (OverflowError), and Increment/Decrement past the representable range.

package sortid

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors. Typed errors below unwrap to these so callers can use errors.Is.
var (
	// ErrInvalidConfig is returned when a generator or codec configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrInvalidBitLayout is returned when a BitLayout is invalid.
	ErrInvalidBitLayout = errors.New("invalid bit layout")

	// ErrInvalidFormat is returned for any malformed string or byte input.
	ErrInvalidFormat = errors.New("invalid identifier format")

	// ErrInvalidLength is returned when an encoded string or byte slice has the wrong length.
	ErrInvalidLength = errors.New("invalid length")

	// ErrInvalidCharacter is returned when an encoded string contains a symbol
	// outside the codec alphabet.
	ErrInvalidCharacter = errors.New("invalid character")

	// ErrOverflow is returned when a decoded value does not fit the bit layout,
	// or when Increment is called on the largest representable identifier.
	ErrOverflow = errors.New("value overflows identifier width")

	// ErrUnderflow is returned when Decrement is called on the zero identifier.
	ErrUnderflow = errors.New("value underflows identifier width")

	// ErrClockMovedBack is returned in strict mode when the clock regresses beyond
	// the drift tolerance.
	ErrClockMovedBack = errors.New("clock moved backwards")

	// ErrTimeOverflow is returned when the time field is exhausted.
	ErrTimeOverflow = errors.New("time field exhausted")
)

// ============================================================================
// Custom Error Types
// ============================================================================

// ConfigError represents a configuration validation error.
//
// Example usage:
//
//	gen, err := tsid.NewGenerator(cfg)
//	if configErr, ok := sortid.GetConfigError(err); ok {
//	    log.Error("invalid configuration", "field", configErr.Field, "reason", configErr.Reason)
//	}
type ConfigError struct {
	// Field is the name of the configuration field that failed validation.
	Field string

	// Value is the invalid value (as string for logging).
	Value string

	// Reason is a human-readable explanation of why the value is invalid.
	Reason string

	// Constraint describes the valid range or constraint.
	Constraint string

	// Err is the sentinel this error unwraps to besides ErrInvalidConfig.
	Err error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s=%s (%s) - %s",
		e.Field, e.Value, e.Reason, e.Constraint)
}

// Unwrap returns the underlying errors for errors.Is() compatibility.
func (e *ConfigError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrInvalidConfig, e.Err}
	}
	return []error{ErrInvalidConfig}
}

// FormatError describes why an encoded identifier was rejected.
type FormatError struct {
	// Input is the rejected input, truncated for display.
	Input string

	// Position is the byte offset of the offending symbol, or -1.
	Position int

	// Err is the specific cause: ErrInvalidLength, ErrInvalidCharacter or ErrOverflow.
	Err error
}

// Error implements the error interface.
func (e *FormatError) Error() string {
	if e.Position >= 0 {
		return fmt.Sprintf("invalid identifier format: %v at position %d in %q", e.Err, e.Position, e.Input)
	}
	return fmt.Sprintf("invalid identifier format: %v in %q", e.Err, e.Input)
}

// Unwrap returns ErrInvalidFormat and the specific cause.
func (e *FormatError) Unwrap() []error {
	return []error{ErrInvalidFormat, e.Err}
}

// ClockError represents a clock regression that exceeded the drift tolerance.
//
// It is only returned by generators running with StrictClock. In the default mode the
// generator keeps issuing identifiers from its last timestamp instead.
type ClockError struct {
	// Current is the clock reading in time units since the epoch.
	Current uint64

	// Last is the last timestamp used, in time units since the epoch.
	Last uint64

	// Tolerance is the configured drift tolerance.
	Tolerance time.Duration

	// Unit is the time unit of Current and Last.
	Unit time.Duration

	// Node is the node id of the generator that saw the regression.
	Node uint64
}

// Error implements the error interface.
func (e *ClockError) Error() string {
	return fmt.Sprintf("clock moved backwards: drift=%v tolerance=%v current=%d last=%d node=%d",
		e.Drift(), e.Tolerance, e.Current, e.Last, e.Node)
}

// Unwrap returns the underlying error for errors.Is() compatibility.
func (e *ClockError) Unwrap() error {
	return ErrClockMovedBack
}

// Drift returns how far the clock moved backwards.
func (e *ClockError) Drift() time.Duration {
	if e.Last < e.Current {
		return 0
	}
	return time.Duration(e.Last-e.Current) * e.Unit
}

// ExceedsTolerance returns true if the drift exceeds the tolerance.
func (e *ClockError) ExceedsTolerance() bool {
	return e.Drift() > e.Tolerance
}

// OverflowError reports that the time field reached its maximum value. Past this
// point the generator cannot issue larger identifiers and fails instead of wrapping.
type OverflowError struct {
	// Timestamp is the time value that no longer fits, in time units since the epoch.
	Timestamp uint64

	// MaxTimestamp is the largest value of the time field.
	MaxTimestamp uint64

	// Node is the node id of the generator.
	Node uint64
}

// Error implements the error interface.
func (e *OverflowError) Error() string {
	return fmt.Sprintf("time field exhausted: timestamp=%d max=%d node=%d",
		e.Timestamp, e.MaxTimestamp, e.Node)
}

// Unwrap returns the underlying error for errors.Is() compatibility.
func (e *OverflowError) Unwrap() error {
	return ErrTimeOverflow
}

// ============================================================================
// Error Helper Functions
// ============================================================================

// IsConfigError checks if an error is or wraps a ConfigError.
func IsConfigError(err error) bool {
	var configErr *ConfigError
	return errors.As(err, &configErr)
}

// IsFormatError checks if an error is or wraps a FormatError.
func IsFormatError(err error) bool {
	var formatErr *FormatError
	return errors.As(err, &formatErr)
}

// IsClockError checks if an error is or wraps a ClockError.
func IsClockError(err error) bool {
	var clockErr *ClockError
	return errors.As(err, &clockErr)
}

// IsOverflowError checks if an error is or wraps an OverflowError.
func IsOverflowError(err error) bool {
	var overflowErr *OverflowError
	return errors.As(err, &overflowErr)
}

// GetConfigError extracts the ConfigError from an error chain.
func GetConfigError(err error) (*ConfigError, bool) {
	var configErr *ConfigError
	if errors.As(err, &configErr) {
		return configErr, true
	}
	return nil, false
}

// GetFormatError extracts the FormatError from an error chain.
func GetFormatError(err error) (*FormatError, bool) {
	var formatErr *FormatError
	if errors.As(err, &formatErr) {
		return formatErr, true
	}
	return nil, false
}

// GetClockError extracts the ClockError from an error chain.
func GetClockError(err error) (*ClockError, bool) {
	var clockErr *ClockError
	if errors.As(err, &clockErr) {
		return clockErr, true
	}
	return nil, false
}

// ============================================================================
// Error Constructor Helpers
// ============================================================================

// NewConfigError creates a ConfigError. cause may be nil.
func NewConfigError(field, value, reason, constraint string, cause error) *ConfigError {
	return &ConfigError{
		Field:      field,
		Value:      value,
		Reason:     reason,
		Constraint: constraint,
		Err:        cause,
	}
}

// NewFormatError creates a FormatError for input. position may be -1.
func NewFormatError(input string, position int, cause error) *FormatError {
	const maxShown = 64
	if len(input) > maxShown {
		input = input[:maxShown] + "..."
	}
	return &FormatError{Input: input, Position: position, Err: cause}
}

func newClockError(current, last uint64, tolerance, unit time.Duration, node uint64) *ClockError {
	return &ClockError{
		Current:   current,
		Last:      last,
		Tolerance: tolerance,
		Unit:      unit,
		Node:      node,
	}
}

func newOverflowError(timestamp, maxTimestamp, node uint64) *OverflowError {
	return &OverflowError{
		Timestamp:    timestamp,
		MaxTimestamp: maxTimestamp,
		Node:         node,
	}
}
