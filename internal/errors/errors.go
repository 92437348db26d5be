// Package errors provides the error taxonomy shared by the pricing engine.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	// ErrArgument marks malformed or out-of-domain inputs. Never retried.
	ErrArgument = errors.New("invalid argument")
	// ErrState marks an operation invoked before its prerequisites exist.
	ErrState = errors.New("invalid state")
	// ErrConfigInvalid marks a configuration file that fails validation.
	ErrConfigInvalid = errors.New("invalid configuration")
	// ErrDatabaseError marks a failure of the snapshot store backend.
	ErrDatabaseError = errors.New("database error")
)

// ValidationError represents an out-of-domain input value.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s (%v): %s", e.Field, e.Value, e.Message)
}

// Unwrap lets errors.Is(err, ErrArgument) match.
func (e *ValidationError) Unwrap() error {
	return ErrArgument
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// StateError represents an operation that requires prior initialization.
type StateError struct {
	Operation string
	Message   string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("state error [%s]: %s", e.Operation, e.Message)
}

// Unwrap lets errors.Is(err, ErrState) match.
func (e *StateError) Unwrap() error {
	return ErrState
}

// NewStateError creates a new StateError.
func NewStateError(operation, message string) *StateError {
	return &StateError{
		Operation: operation,
		Message:   message,
	}
}

// StoreError represents a failure of the snapshot store.
type StoreError struct {
	Operation string
	SessionID string
	Err       error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store error [%s] %s: %v", e.Operation, e.SessionID, e.Err)
}

func (e *StoreError) Unwrap() []error {
	return []error{ErrDatabaseError, e.Err}
}

// NewStoreError creates a new StoreError.
func NewStoreError(operation, sessionID string, err error) *StoreError {
	return &StoreError{
		Operation: operation,
		SessionID: sessionID,
		Err:       err,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// IsArgument reports whether err is an ArgumentError.
func IsArgument(err error) bool {
	return errors.Is(err, ErrArgument)
}

// IsState reports whether err is a StateError.
func IsState(err error) bool {
	return errors.Is(err, ErrState)
}
