package models

import (
	"errors"
	"fmt"
)

// ErrTimeout is returned when an awaited user response window elapsed
// without a response.
var ErrTimeout = errors.New("response window elapsed")

// ValidationError represents malformed caller input. It is surfaced to the
// end user as a rejection message and never aborts the broader flow.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NewValidationError creates a validation error for the given field
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// NotFoundError represents an operation referencing a missing record.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// NewNotFoundError creates a not-found error for the given resource
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// InsufficientFundsError is returned when a balance move exceeds the
// source balance. Balances are left untouched.
type InsufficientFundsError struct {
	Available int64
	Requested int64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient balance: have %d available, need %d", e.Available, e.Requested)
}

// NewInsufficientFundsError creates an insufficient-funds error
func NewInsufficientFundsError(available, requested int64) *InsufficientFundsError {
	return &InsufficientFundsError{Available: available, Requested: requested}
}

// IsInsufficientFunds reports whether err is an InsufficientFundsError
func IsInsufficientFunds(err error) bool {
	var ife *InsufficientFundsError
	return errors.As(err, &ife)
}

// IsValidation reports whether err is a ValidationError
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsNotFound reports whether err is a NotFoundError
func IsNotFound(err error) bool {
	var nfe *NotFoundError
	return errors.As(err, &nfe)
}
