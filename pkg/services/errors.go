// Package services provides the session controller, the terminal-action
// dispatcher, and the standardized error types for both.
package services

import (
	"errors"
	"fmt"

	"github.com/helixworks/intake/pkg/clients"
)

// Business logic errors. Validation errors map to 400, conflicts to 409,
// downstream failures to 502.
var (
	// Validation errors (400 Bad Request).
	ErrInvalidEmail = errors.New("a valid email address is required")
	ErrNoSolution   = errors.New("no solution has been computed for this session")

	// Navigation conflicts (409 Conflict). Gate refusals are silent no-ops
	// in the sequencer itself; the service layer names them so the HTTP
	// surface can explain the refusal.
	ErrStepGateNotSatisfied = errors.New("current step is not complete")
	ErrAtFirstStep          = errors.New("already at the first step")
	ErrAtTerminalStep       = errors.New("already at the terminal step")
	ErrTransitionPending    = errors.New("a step transition is already in progress")

	// Terminal-action conflicts (409 Conflict).
	ErrExitInFlight     = errors.New("a terminal action is already in flight")
	ErrSessionCompleted = errors.New("session already completed a terminal action")

	// Downstream failures (502 Bad Gateway).
	ErrDownstreamFailure = errors.New("downstream service failure")
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

// IsValidationError checks if an error should return HTTP 400.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidEmail) ||
		errors.Is(err, ErrNoSolution)
}

// IsConflictError checks if an error should return HTTP 409.
func IsConflictError(err error) bool {
	return errors.Is(err, ErrStepGateNotSatisfied) ||
		errors.Is(err, ErrAtFirstStep) ||
		errors.Is(err, ErrAtTerminalStep) ||
		errors.Is(err, ErrTransitionPending) ||
		errors.Is(err, ErrExitInFlight) ||
		errors.Is(err, ErrSessionCompleted)
}

// IsDownstreamError checks if an error should return HTTP 502.
func IsDownstreamError(err error) bool {
	return errors.Is(err, ErrDownstreamFailure) ||
		errors.Is(err, clients.ErrRequestFailed)
}

// NewConflictError creates a conflict error with operation context.
func NewConflictError(op, code string, err error) *ServiceError {
	return &ServiceError{
		Op:   op,
		Code: code,
		Err:  err,
	}
}
