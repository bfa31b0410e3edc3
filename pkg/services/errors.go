package services

import (
	"errors"
	"fmt"

	"github.com/praxisflow/praxis/pkg/persistence"
)

// Business Logic Errors - These indicate client errors (4xx responses).
var (
	// Validation Errors (400 Bad Request).
	ErrInvalidRequest   = errors.New("invalid request")
	ErrInvalidSortField = errors.New("invalid sort field")
	ErrInvalidSortOrder = errors.New("invalid sort order")

	ErrWorkflowNameRequired = errors.New("workflow name is required")
	ErrInvalidStepType      = errors.New("invalid step type")
	ErrInvalidStepColor     = errors.New("invalid step color")
	ErrInvalidRole          = errors.New("invalid role")
	ErrStepNameRequired     = errors.New("step name is required")
	ErrDuplicateStepName    = persistence.ErrDuplicateStepName
	ErrTransitionEndpoint   = errors.New("transition endpoints must reference steps in the workflow")
	ErrEmptyPositionBatch   = errors.New("position update requires at least one step")

	// Business Logic Conflicts (409 Conflict).
	ErrDefaultWorkflowDelete     = errors.New("the default workflow cannot be deleted")
	ErrDefaultWorkflowDeactivate = errors.New("the default workflow cannot be deactivated")
	ErrVersionConflict           = persistence.ErrVersionConflict
)

// ServiceError wraps service-level errors with additional context.
type ServiceError struct {
	Op      string // Operation name
	Code    string // Error code for API responses
	Message string // Human-readable message
	Err     error  // Underlying error
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func (e *ServiceError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsValidationError checks if an error is a validation error that should return HTTP 400.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrInvalidSortField) ||
		errors.Is(err, ErrInvalidSortOrder) ||
		errors.Is(err, ErrWorkflowNameRequired) ||
		errors.Is(err, ErrInvalidStepType) ||
		errors.Is(err, ErrInvalidStepColor) ||
		errors.Is(err, ErrInvalidRole) ||
		errors.Is(err, ErrStepNameRequired) ||
		errors.Is(err, ErrDuplicateStepName) ||
		errors.Is(err, ErrTransitionEndpoint) ||
		errors.Is(err, ErrEmptyPositionBatch)
}

// IsConflictError checks if an error is a business logic conflict that should return HTTP 409.
func IsConflictError(err error) bool {
	return errors.Is(err, ErrDefaultWorkflowDelete) ||
		errors.Is(err, ErrDefaultWorkflowDeactivate) ||
		errors.Is(err, ErrVersionConflict)
}

// NewValidationError creates a new validation error with context.
func NewValidationError(op, code, message string, err error) *ServiceError {
	return &ServiceError{
		Op:      op,
		Code:    code,
		Message: message,
		Err:     err,
	}
}
