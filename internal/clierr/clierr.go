// Package clierr defines structured error types for CLI commands.
// Errors carry a machine-readable code, a human-readable message,
// and optional details for scripted consumers.
package clierr

import (
	"errors"
	"fmt"
	"strconv"
)

// Error code constants: uppercase, underscore-separated, stable across minor versions.
const (
	TaskNotFound        = "TASK_NOT_FOUND"
	PlanNotFound        = "PLAN_NOT_FOUND"
	PlanAlreadyExists   = "PLAN_ALREADY_EXISTS"
	PresetNotFound      = "PRESET_NOT_FOUND"
	InvalidInput        = "INVALID_INPUT"
	InvalidDuration     = "INVALID_DURATION"
	InvalidDate         = "INVALID_DATE"
	InvalidTaskID       = "INVALID_TASK_ID"
	InvalidStatus       = "INVALID_STATUS"
	DependencyNotFound  = "DEPENDENCY_NOT_FOUND"
	DuplicateDependency = "DUPLICATE_DEPENDENCY"
	SelfReference       = "SELF_REFERENCE"
	CycleDetected       = "CYCLE_DETECTED"
	SchedulingError     = "SCHEDULING_ERROR"
	CalendarUnavailable = "CALENDAR_UNAVAILABLE"
	NoChanges           = "NO_CHANGES"
	ConfirmationReq     = "CONFIRMATION_REQUIRED"
	InternalError       = "INTERNAL_ERROR"
)

// ErrorKind groups codes into the categories callers react to.
type ErrorKind int

const (
	// KindOther covers lookup and CLI usage errors.
	KindOther ErrorKind = iota
	// KindValidation is rejected input; nothing was mutated.
	KindValidation
	// KindCycle is a dependency set that would close a cycle; nothing was mutated.
	KindCycle
	// KindScheduling is a failed recomputation; the last good dates are kept.
	KindScheduling
	// KindCalendar is unavailable holiday data; scheduling degraded to weekends only.
	KindCalendar
)

var kindByCode = map[string]ErrorKind{
	InvalidInput:        KindValidation,
	InvalidDuration:     KindValidation,
	InvalidDate:         KindValidation,
	InvalidTaskID:       KindValidation,
	InvalidStatus:       KindValidation,
	DependencyNotFound:  KindValidation,
	DuplicateDependency: KindValidation,
	SelfReference:       KindValidation,
	CycleDetected:       KindCycle,
	SchedulingError:     KindScheduling,
	CalendarUnavailable: KindCalendar,
}

// Error represents a structured CLI error with a machine-readable code.
type Error struct {
	Code    string
	Message string
	Details map[string]any

	cause error
}

// Error implements the error interface.
func (e *Error) Error() string { return e.Message }

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error { return e.cause }

// New creates an Error with the given code and message.
func New(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates an Error with a formatted message.
func Newf(code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error whose message is taken from cause.
func Wrap(code string, cause error) *Error {
	return &Error{Code: code, Message: cause.Error(), cause: cause}
}

// WithDetails returns the error with the given details map attached.
func (e *Error) WithDetails(details map[string]any) *Error {
	e.Details = details
	return e
}

// Kind returns the category of the error's code.
func (e *Error) Kind() ErrorKind {
	return kindByCode[e.Code]
}

// ExitCode returns 2 for InternalError, 1 for all others.
func (e *Error) ExitCode() int {
	if e.Code == InternalError {
		return 2 //nolint:mnd // exit code 2 for internal errors
	}
	return 1
}

// KindOf returns the kind of the first *Error in err's chain, or KindOther.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind()
	}
	return KindOther
}

// HasCode reports whether err's chain contains an *Error with the given code.
func HasCode(err error, code string) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}

// SilentError signals an exit code without additional output.
// Used by batch operations where results are already written to stdout.
type SilentError struct {
	Code int
}

// Error implements the error interface.
func (e *SilentError) Error() string { return "exit " + strconv.Itoa(e.Code) }
