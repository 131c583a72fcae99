package service

import (
	"errors"
	"fmt"

	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/policy"
)

// Common service errors - sentinel errors used across service implementations.
// Callers check for them with errors.Is; the API layer maps each to a status code.
var (
	// ErrUnauthorized indicates a missing, invalid or expired credential, or
	// a credential whose user no longer exists.
	// API layer should map this to HTTP 401 Unauthorized.
	ErrUnauthorized = errors.New("authentication required")

	// ErrInvalidCredentials is returned by login for both an unknown email
	// and a wrong password.
	// API layer should map this to HTTP 401 Unauthorized.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrForbidden indicates the actor is known but not permitted to act.
	// API layer should map this to HTTP 403 Forbidden.
	ErrForbidden = errors.New("access denied")

	// ErrNotFound indicates the requested user or task does not exist.
	// API layer should map this to HTTP 404 Not Found.
	ErrNotFound = errors.New("resource not found")

	// ErrConflict indicates the email is already registered.
	// API layer should map this to HTTP 400 Bad Request.
	ErrConflict = errors.New("user already exists")

	// ErrInvalidState indicates the target cannot undergo the operation in
	// its current state, e.g. promoting a Manager.
	// API layer should map this to HTTP 400 Bad Request.
	ErrInvalidState = errors.New("invalid state for operation")
)

// DeniedError reports a policy denial. It matches the sentinel for the
// reason's kind through errors.Is and its message is safe to show clients.
type DeniedError struct {
	Reason policy.Reason
}

// Error implements the error interface.
func (e *DeniedError) Error() string {
	return e.Reason.String()
}

// Unwrap returns the sentinel matching the denial kind.
func (e *DeniedError) Unwrap() error {
	switch e.Reason.Kind() {
	case policy.KindUnauthenticated:
		return ErrUnauthorized
	case policy.KindValidation:
		return domain.ErrValidation
	case policy.KindInvalidState:
		return ErrInvalidState
	default:
		return ErrForbidden
	}
}

// authorize evaluates action and converts a denial into a *DeniedError.
func authorize(actor *policy.Actor, action policy.Action) error {
	d := policy.Evaluate(actor, action)
	if d.Allowed {
		return nil
	}
	return &DeniedError{Reason: d.Reason}
}

// ServiceError wraps an unexpected failure with the operation it occurred in.
type ServiceError struct {
	Service string
	Op      string
	Err     error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s service %s operation failed", e.Service, e.Op)
	}
	return fmt.Sprintf("%s service %s operation failed: %v", e.Service, e.Op, e.Err)
}

// Unwrap returns the wrapped error.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

func userError(op string, err error) error {
	return &ServiceError{Service: "user", Op: op, Err: err}
}

func taskError(op string, err error) error {
	return &ServiceError{Service: "task", Op: op, Err: err}
}
