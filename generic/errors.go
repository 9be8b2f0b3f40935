/*
errors.go - Centralized error types for the engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Domain packages return these (or wrap them) so the HTTP layer can map
  every failure to a status code without knowing the domain.

ERROR CATEGORIES:
  1. Validation errors - Bad input, reported per field (422)
  2. Conflict errors - Uniqueness and state-machine violations (409)
  3. Not found errors - Missing or foreign-tenant entities (404)
  4. Everything else - Store failures, surfaced as-is (500)

USAGE:
  if generic.IsConflict(err) {
      // duplicate period, approval not pending, ...
  }

SEE ALSO:
  - approval.go: Returns ErrInvalidTransition
  - period.go: Returns ErrDuplicatePeriod
  - api/handlers.go: Maps categories to HTTP status codes
*/
package generic

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation is the category of every ValidationError.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned when a referenced entity doesn't exist in the
	// caller's organization.
	ErrNotFound = errors.New("not found")

	// ErrDuplicatePeriod is returned when the organization already has a
	// period for the requested year.
	ErrDuplicatePeriod = errors.New("period already exists for year")

	// ErrDuplicate is returned by stores on any other uniqueness violation.
	ErrDuplicate = errors.New("duplicate record")

	// ErrInvalidTransition is returned when an approval is not in a state
	// that allows the requested action.
	ErrInvalidTransition = errors.New("invalid approval transition")

	// ErrBalanceNotFound is returned when no vacation balance row exists for
	// the employee and year a ledger update targets.
	ErrBalanceNotFound = errors.New("vacation balance not found")

	// ErrInsufficientBalance is returned when a vacation request exceeds the
	// remaining balance.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrMissingOrganization is returned when the context carries no tenant.
	ErrMissingOrganization = errors.New("organization not set on context")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// FieldError is one failed rule on one input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects field errors for a single operation.
type ValidationError struct {
	Fields []FieldError
}

// NewValidationError builds a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}

// Add appends a field error.
func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// HasErrors reports whether any field failed.
func (e *ValidationError) HasErrors() bool { return e != nil && len(e.Fields) > 0 }

// OrNil returns e as an error when it holds field errors, nil otherwise.
func (e *ValidationError) OrNil() error {
	if e.HasErrors() {
		return e
	}
	return nil
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NotFoundError names the missing entity.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// NotFound is shorthand for &NotFoundError{Kind: kind, ID: id}.
func NotFound(kind, id string) error { return &NotFoundError{Kind: kind, ID: id} }

// TransitionError describes a rejected approval state change.
type TransitionError struct {
	From   ApprovalStatus
	Action string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s approval in status %s", e.Action, e.From)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

// InsufficientBalanceError provides details about a balance shortage.
type InsufficientBalanceError struct {
	EmployeeID EmployeeID
	Year       int
	Available  Amount
	Requested  Amount
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance for %d: available %s, requested %s",
		e.Year, e.Available.Days(), e.Requested.Days())
}

func (e *InsufficientBalanceError) Unwrap() error { return ErrInsufficientBalance }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInsufficientBalance) ||
		errors.Is(err, ErrMissingOrganization)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrBalanceNotFound)
}

// IsConflict returns true if the error is a uniqueness or state conflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrDuplicatePeriod) ||
		errors.Is(err, ErrDuplicate) ||
		errors.Is(err, ErrInvalidTransition)
}

// ValidationFields extracts the field errors of a ValidationError, if any.
func ValidationFields(err error) []FieldError {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Fields
	}
	return nil
}
