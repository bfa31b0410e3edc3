// Package persistence provides standardized error types for persistence operations.
package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all implementations should use.
var (
	// ErrWorkflowNotFound indicates a workflow was not found by the given identifier.
	ErrWorkflowNotFound = errors.New("workflow not found")

	// ErrStepNotFound indicates a step was not found within the workflow.
	ErrStepNotFound = errors.New("step not found")

	// ErrTransitionNotFound indicates a transition was not found within the workflow.
	ErrTransitionNotFound = errors.New("transition not found")

	// ErrDuplicateStepName indicates a step with the same internal name already
	// exists in the workflow.
	ErrDuplicateStepName = errors.New("step name already exists in workflow")

	// ErrVersionConflict indicates a write carried a stale workflow version.
	ErrVersionConflict = errors.New("workflow version conflict")
)

// WorkflowError wraps workflow-related errors with additional context.
type WorkflowError struct {
	Op         string // Operation being performed (e.g., "GetByID", "Save", "Delete")
	WorkflowID string
	Err        error
	Message    string
}

func (e *WorkflowError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s operation failed for workflow %s: %s (%v)", e.Op, e.WorkflowID, e.Message, e.Err)
	}

	return fmt.Sprintf("%s operation failed for workflow %s: %v", e.Op, e.WorkflowID, e.Err)
}

func (e *WorkflowError) Unwrap() error {
	return e.Err
}

func (e *WorkflowError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewWorkflowError creates a new workflow error with context.
func NewWorkflowError(op, workflowID string, err error) *WorkflowError {
	return &WorkflowError{
		Op:         op,
		WorkflowID: workflowID,
		Err:        err,
	}
}

// StepError wraps step-related errors with additional context.
type StepError struct {
	Op         string
	WorkflowID string
	StepID     string
	Err        error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s operation failed for step %s in workflow %s: %v", e.Op, e.StepID, e.WorkflowID, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

func (e *StepError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// TransitionError wraps transition-related errors with additional context.
type TransitionError struct {
	Op           string
	WorkflowID   string
	TransitionID string
	Err          error
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s operation failed for transition %s in workflow %s: %v", e.Op, e.TransitionID, e.WorkflowID, e.Err)
}

func (e *TransitionError) Unwrap() error {
	return e.Err
}

func (e *TransitionError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsWorkflowNotFound checks if an error indicates a workflow was not found.
func IsWorkflowNotFound(err error) bool {
	return errors.Is(err, ErrWorkflowNotFound)
}

// IsStepNotFound checks if an error indicates a step was not found.
func IsStepNotFound(err error) bool {
	return errors.Is(err, ErrStepNotFound)
}

// IsTransitionNotFound checks if an error indicates a transition was not found.
func IsTransitionNotFound(err error) bool {
	return errors.Is(err, ErrTransitionNotFound)
}

// IsDuplicateStepName checks if an error indicates a step name collision.
func IsDuplicateStepName(err error) bool {
	return errors.Is(err, ErrDuplicateStepName)
}

// IsVersionConflict checks if an error indicates a stale workflow write.
func IsVersionConflict(err error) bool {
	return errors.Is(err, ErrVersionConflict)
}
