package engine

import (
	"errors"
	"fmt"
)

// WorkflowError represents a failed transition attempt.
//
// The code distinguishes client errors (invalid command, illegal
// transition, unknown task) from system faults (side effect failed,
// file read error). Client errors are normal outcomes and are never
// retried; side-effect failures leave the task status unchanged and
// may be retried by the caller.
type WorkflowError struct {
	// Code identifies the error category.
	Code WorkflowErrorCode

	// Message is a human-readable description.
	Message string

	// TaskID identifies the affected task.
	TaskID string

	// Command is the requested command, if any.
	Command string

	// Detail carries the raw failure detail from a collaborator
	// (for example the side-effect executor's message).
	Detail string
}

// WorkflowErrorCode categorizes transition failures.
type WorkflowErrorCode string

const (
	// ErrCodeInvalidCommand indicates a missing or empty command.
	ErrCodeInvalidCommand WorkflowErrorCode = "INVALID_COMMAND"

	// ErrCodeInvalidTransition indicates the command is not legal from
	// the task's current status. A normal outcome, not a system fault.
	ErrCodeInvalidTransition WorkflowErrorCode = "INVALID_TRANSITION"

	// ErrCodeSideEffectFailed indicates the external executor failed.
	// The task's recorded status is unchanged.
	ErrCodeSideEffectFailed WorkflowErrorCode = "SIDE_EFFECT_FAILED"

	// ErrCodeFileReadError indicates an I/O failure other than
	// not-found while reading project or task files.
	ErrCodeFileReadError WorkflowErrorCode = "FILE_READ_ERROR"

	// ErrCodeNotFound indicates an unknown task or document.
	ErrCodeNotFound WorkflowErrorCode = "NOT_FOUND"
)

// Error implements the error interface.
func (e *WorkflowError) Error() string {
	if e.TaskID != "" && e.Command != "" {
		return fmt.Sprintf("%s: %s (task=%s, command=%s)", e.Code, e.Message, e.TaskID, e.Command)
	}
	if e.TaskID != "" {
		return fmt.Sprintf("%s: %s (task=%s)", e.Code, e.Message, e.TaskID)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// CodeOf extracts the workflow error code from an error chain.
// Returns empty string when err is not a WorkflowError.
func CodeOf(err error) WorkflowErrorCode {
	var we *WorkflowError
	if errors.As(err, &we) {
		return we.Code
	}
	return ""
}

// IsInvalidTransition reports whether err is an illegal-transition
// failure. Uses errors.As to handle wrapped errors.
func IsInvalidTransition(err error) bool {
	return CodeOf(err) == ErrCodeInvalidTransition
}

// IsInvalidCommand reports whether err is a missing-command failure.
func IsInvalidCommand(err error) bool {
	return CodeOf(err) == ErrCodeInvalidCommand
}

// IsSideEffectFailed reports whether err is a side-effect failure.
func IsSideEffectFailed(err error) bool {
	return CodeOf(err) == ErrCodeSideEffectFailed
}

// IsNotFound reports whether err is an unknown-task failure.
func IsNotFound(err error) bool {
	return CodeOf(err) == ErrCodeNotFound
}

// NewInvalidCommandError creates a WorkflowError for an empty command.
func NewInvalidCommandError(taskID string) *WorkflowError {
	return &WorkflowError{
		Code:    ErrCodeInvalidCommand,
		Message: "command must be non-empty",
		TaskID:  taskID,
	}
}

// NewInvalidTransitionError creates a WorkflowError for a command that
// is not legal from the task's current status.
func NewInvalidTransitionError(taskID, command, category, statusCode string) *WorkflowError {
	return &WorkflowError{
		Code:    ErrCodeInvalidTransition,
		Message: fmt.Sprintf("command not legal for %s task at %s", category, statusCode),
		TaskID:  taskID,
		Command: command,
	}
}

// NewSideEffectError creates a WorkflowError for an executor failure.
func NewSideEffectError(taskID, command, detail string) *WorkflowError {
	return &WorkflowError{
		Code:    ErrCodeSideEffectFailed,
		Message: "side-effect execution failed",
		TaskID:  taskID,
		Command: command,
		Detail:  detail,
	}
}

// NewNotFoundError creates a WorkflowError for an unknown task.
func NewNotFoundError(taskID string) *WorkflowError {
	return &WorkflowError{
		Code:    ErrCodeNotFound,
		Message: "task not found",
		TaskID:  taskID,
	}
}
