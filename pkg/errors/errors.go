// Package errors defines the error taxonomy for the PesTrie query engine.
package errors

import (
	"errors"
	"fmt"
)

// Error codes for the application.
const (
	CodeUnknown               = "UNKNOWN_ERROR"
	CodeIndexOpen             = "INDEX_OPEN_ERROR"
	CodeIndexFormat           = "INDEX_FORMAT_ERROR"
	CodeIndexTruncation       = "INDEX_TRUNCATION_ERROR"
	CodePlanOpen              = "PLAN_OPEN_ERROR"
	CodeIncompatibleQuery     = "INCOMPATIBLE_QUERY_ERROR"
	CodeOutOfRangeObservation = "OUT_OF_RANGE_OBSERVATION"
	CodeConfigError           = "CONFIG_ERROR"
)

// AppError represents an application error with a code and message.
type AppError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is checks if the error matches the target.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates a new AppError.
func New(code string, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with an AppError.
func Wrap(code string, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common error instances. These are fatal unless noted otherwise.
var (
	// ErrIndexOpen: cannot open the index file. Fatal.
	ErrIndexOpen = New(CodeIndexOpen, "cannot open index file")
	// ErrIndexFormat: unrecognized magic bytes. Fatal.
	ErrIndexFormat = New(CodeIndexFormat, "invalid PesTrie index file")
	// ErrIndexTruncation: short read on a fixed-size block. Fatal.
	ErrIndexTruncation = New(CodeIndexTruncation, "truncated index file")
	// ErrPlanOpen: the query-plan file is missing. Non-fatal.
	ErrPlanOpen = New(CodePlanOpen, "cannot open query plan file")
	// ErrIncompatibleQuery: query type unsupported by the loaded index variant. Non-fatal.
	ErrIncompatibleQuery = New(CodeIncompatibleQuery, "query type not supported by loaded index")
	// ErrConfigError: configuration could not be loaded or validated.
	ErrConfigError = New(CodeConfigError, "configuration error")
)

// IsIndexOpenError reports whether err is an index-open failure.
func IsIndexOpenError(err error) bool {
	return errors.Is(err, ErrIndexOpen)
}

// IsIndexFormatError reports whether err is an invalid-magic failure.
func IsIndexFormatError(err error) bool {
	return errors.Is(err, ErrIndexFormat)
}

// IsIndexTruncationError reports whether err is a short-read failure.
func IsIndexTruncationError(err error) bool {
	return errors.Is(err, ErrIndexTruncation)
}

// IsPlanOpenError reports whether err is a missing-plan-file failure.
func IsPlanOpenError(err error) bool {
	return errors.Is(err, ErrPlanOpen)
}

// IsIncompatibleQueryError reports whether err is a PT/SE mismatch.
func IsIncompatibleQueryError(err error) bool {
	return errors.Is(err, ErrIncompatibleQuery)
}

// GetErrorCode extracts the error code from an error.
func GetErrorCode(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknown
}

// GetErrorMessage extracts the error message from an error.
func GetErrorMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	if err != nil {
		return err.Error()
	}
	return ""
}
