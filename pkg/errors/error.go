// Package errors provides structured error handling with typed error codes.
//
// Error codes are organized into categories:
//   - General errors (1-99): Unknown and general errors
//   - Validation errors (100-199): Invalid parameters, intervals and configuration
//   - Data/Resource errors (200-299): Missing data, query failures, unavailable sources, key conflicts,
//     incompatible database schemas
//   - Sync errors (300-399): Stalled or concurrent kline syncs
//   - Market data errors (700-799): Kline fetching, writing and parsing errors
//
// Besides the coded *Error, the package defines the typed errors raised by the
// kline sync pipeline:
//
//	SourceUnavailableError  the kline source failed; re-run the sync, it resumes from the stored cursor
//	StalledSyncError        the source stopped making progress; do not retry blindly
//	IntegrityError          a write hit a duplicate key; logged and skipped
//	InsufficientDataError   a gap cannot be filled because there is nothing to fill from
//
// Usage:
//
//	err := errors.Newf(errors.ErrCodeDataNotFound, "no klines for %s", symbol)
//	if errors.IsSourceUnavailableError(err) { ... }
package errors

import (
	"errors"
	"fmt"
	"time"
)

// Error represents a structured error with an error code and message.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// New creates a new Error with the given code and message.
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   nil,
	}
}

// Newf creates a new Error with the given code and formatted message.
func Newf(code ErrorCode, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   nil,
	}
}

// Wrap wraps an existing error with a new Error containing the given code and message.
func Wrap(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Wrapf wraps an existing error with a new Error containing the given code and formatted message.
func Wrapf(code ErrorCode, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Cause)
	}

	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Join is a convenience wrapper around the standard errors.Join function.
func Join(errs ...error) error {
	return errors.Join(errs...)
}

// GetCode extracts the ErrorCode of the outermost coded error in err's chain.
// Typed pipeline errors report their own code. Anything else is ErrCodeUnknown.
func GetCode(err error) ErrorCode {
	for e := err; e != nil; e = errors.Unwrap(e) {
		switch t := e.(type) {
		case *Error:
			return t.Code
		case interface{ Code() ErrorCode }:
			return t.Code()
		}
	}

	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}

	return ErrCodeUnknown
}

// HasCode checks if an error has a specific ErrorCode.
func HasCode(err error, code ErrorCode) bool {
	return GetCode(err) == code
}

// SourceUnavailableError is returned when the kline source fails for a fetch window.
// The sync that raised it can be re-invoked and resumes from the last stored candle.
type SourceUnavailableError struct {
	Symbol   string
	Interval string
	Start    time.Time
	End      time.Time
	Cause    error
}

// NewSourceUnavailableError creates a new SourceUnavailableError.
func NewSourceUnavailableError(symbol, interval string, start, end time.Time, cause error) *SourceUnavailableError {
	return &SourceUnavailableError{
		Symbol:   symbol,
		Interval: interval,
		Start:    start,
		End:      end,
		Cause:    cause,
	}
}

// Error implements the error interface.
func (e *SourceUnavailableError) Error() string {
	return fmt.Sprintf("kline source unavailable for %s %s [%s, %s]: %v",
		e.Symbol, e.Interval, e.Start.Format(time.RFC3339), e.End.Format(time.RFC3339), e.Cause)
}

// Unwrap returns the underlying error cause.
func (e *SourceUnavailableError) Unwrap() error {
	return e.Cause
}

// Code returns ErrCodeDataSourceUnavailable.
func (e *SourceUnavailableError) Code() ErrorCode {
	return ErrCodeDataSourceUnavailable
}

// IsSourceUnavailableError checks if an error is a SourceUnavailableError.
func IsSourceUnavailableError(err error) bool {
	var target *SourceUnavailableError

	return errors.As(err, &target)
}

// StalledSyncError is returned when a fetch did not move the sync cursor forward.
type StalledSyncError struct {
	Symbol   string
	Interval string
	// Cursor is the first timestamp the stalled request asked for.
	Cursor time.Time
	// Last is the newest timestamp the source returned.
	Last time.Time
}

// NewStalledSyncError creates a new StalledSyncError.
func NewStalledSyncError(symbol, interval string, cursor, last time.Time) *StalledSyncError {
	return &StalledSyncError{
		Symbol:   symbol,
		Interval: interval,
		Cursor:   cursor,
		Last:     last,
	}
}

// Error implements the error interface.
func (e *StalledSyncError) Error() string {
	return fmt.Sprintf("sync stalled for %s %s: requested from %s but source returned data up to %s",
		e.Symbol, e.Interval, e.Cursor.Format(time.RFC3339), e.Last.Format(time.RFC3339))
}

// Code returns ErrCodeSyncStalled.
func (e *StalledSyncError) Code() ErrorCode {
	return ErrCodeSyncStalled
}

// IsStalledSyncError checks if an error is a StalledSyncError.
func IsStalledSyncError(err error) bool {
	var target *StalledSyncError

	return errors.As(err, &target)
}

// IntegrityError is returned when a write violates the (symbol, timestamp) key.
// It is not fatal: the batch is skipped and callers carry on.
type IntegrityError struct {
	Symbol string
	Table  string
	Cause  error
}

// NewIntegrityError creates a new IntegrityError.
func NewIntegrityError(symbol, table string, cause error) *IntegrityError {
	return &IntegrityError{
		Symbol: symbol,
		Table:  table,
		Cause:  cause,
	}
}

// Error implements the error interface.
func (e *IntegrityError) Error() string {
	return fmt.Sprintf("integrity violation writing %s into %s: %v", e.Symbol, e.Table, e.Cause)
}

// Unwrap returns the underlying error cause.
func (e *IntegrityError) Unwrap() error {
	return e.Cause
}

// Code returns ErrCodeIntegrityViolation.
func (e *IntegrityError) Code() ErrorCode {
	return ErrCodeIntegrityViolation
}

// IsIntegrityError checks if an error is an IntegrityError.
func IsIntegrityError(err error) bool {
	var target *IntegrityError

	return errors.As(err, &target)
}

// InsufficientDataError represents an error when there is not enough data
// to fill a time grid.
type InsufficientDataError struct {
	Required int    // Minimum data points required
	Actual   int    // Actual data points available
	Symbol   string // Optional: symbol context
	Message  string // Human-readable message
}

// NewInsufficientDataError creates a new InsufficientDataError.
func NewInsufficientDataError(required, actual int, symbol, message string) *InsufficientDataError {
	return &InsufficientDataError{
		Required: required,
		Actual:   actual,
		Symbol:   symbol,
		Message:  message,
	}
}

// NewInsufficientDataErrorf creates a new InsufficientDataError with a formatted message.
func NewInsufficientDataErrorf(required, actual int, symbol, format string, args ...any) *InsufficientDataError {
	return &InsufficientDataError{
		Required: required,
		Actual:   actual,
		Symbol:   symbol,
		Message:  fmt.Sprintf(format, args...),
	}
}

// Error implements the error interface.
func (e *InsufficientDataError) Error() string {
	return e.Message
}

// Code returns ErrCodeInsufficientData.
func (e *InsufficientDataError) Code() ErrorCode {
	return ErrCodeInsufficientData
}

// IsInsufficientDataError checks if an error is an InsufficientDataError.
// It uses errors.As to check the error chain.
func IsInsufficientDataError(err error) bool {
	var insufficientErr *InsufficientDataError

	return errors.As(err, &insufficientErr)
}
