package schedule

import (
	"errors"
	"fmt"
)

var (
	// ErrScheduling marks a recomputation that could not place every task.
	ErrScheduling = errors.New("scheduling failed")
	// ErrInvalidDuration marks a task shorter than one working day.
	ErrInvalidDuration = errors.New("duration must be at least 1 working day")
)

// Error describes a scheduling failure. TaskID is zero when the failure is
// not tied to one task.
type Error struct {
	TaskID int
	Msg    string
	Err    error
}

func (e *Error) Error() string {
	msg := e.Msg
	if e.TaskID != 0 {
		msg = fmt.Sprintf("task %d: %s", e.TaskID, msg)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", ErrScheduling.Error(), msg)
}

// Unwrap exposes both ErrScheduling and the underlying cause.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrScheduling}
	}
	return []error{ErrScheduling, e.Err}
}

func schedulingError(taskID int, cause error, format string, args ...any) error {
	return &Error{TaskID: taskID, Msg: fmt.Sprintf(format, args...), Err: cause}
}
