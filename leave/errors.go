/*
errors.go - Centralized error taxonomy for the leave core

PURPOSE:
  All error types in one place for consistency and discoverability.
  Storage and transport layers wrap these with additional context.

ERROR CATEGORIES:
  1. Business-rule errors - expected outcomes, shown to the end user
     (insufficient balance, overlapping request, invalid transition,
     validation failures, not found)
  2. Invariant violations - defect signals, never a normal user outcome
     (a ledger mutation that would drive a counter negative through no
     business-rule path); logged and surfaced as internal errors

USAGE:
  Callers branch with errors.Is on the sentinels:

    if errors.Is(err, leave.ErrInsufficientBalance) {
        // show remaining balance to the user
    }

  Structured variants carry context and Unwrap() to the sentinels, so
  errors.As recovers the details when needed.

SEE ALSO:
  - ledger: returns InsufficientBalanceError / InvariantError
  - lifecycle: returns OverlapError / TransitionError / ValidationError
*/
package leave

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNotFound is returned when a referenced balance or request does not
	// exist. Ledger rows are provisioned externally; the core never
	// auto-creates them.
	ErrNotFound = errors.New("not found")

	// ErrInsufficientBalance is returned when a reservation exceeds the
	// available days.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrOverlappingRequest is returned when a new span intersects an
	// existing pending or approved request of the same employee.
	ErrOverlappingRequest = errors.New("overlapping request")

	// ErrInvalidTransition is returned when a state machine rule is violated,
	// e.g. approving an already-rejected request.
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrValidation is returned on malformed input: empty rejection reason,
	// non-positive day count, from date after to date.
	ErrValidation = errors.New("validation failed")

	// ErrInvariantViolation signals a defect, not a business condition: a
	// ledger counter would go negative through no business-rule path.
	// Treat as fatal and log; never show as a normal validation message.
	ErrInvariantViolation = errors.New("invariant violation")

	// ErrConcurrentModification is returned by stores when an optimistic
	// version check fails. The ledger retries; callers normally never see it.
	ErrConcurrentModification = errors.New("concurrent modification detected")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InsufficientBalanceError reports a balance shortage.
type InsufficientBalanceError struct {
	EmployeeID    string
	LeaveTypeCode string
	Year          int
	Available     decimal.Decimal
	Requested     decimal.Decimal
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance for %s/%s/%d: available %s, requested %s",
		e.EmployeeID, e.LeaveTypeCode, e.Year, e.Available, e.Requested)
}

func (e *InsufficientBalanceError) Unwrap() error { return ErrInsufficientBalance }

// OverlapError reports a date-range conflict with an existing request.
type OverlapError struct {
	EmployeeID    string
	ConflictingID string
	From          Date
	To            Date
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("request overlaps existing request %s covering [%s, %s]",
		e.ConflictingID, e.From, e.To)
}

func (e *OverlapError) Unwrap() error { return ErrOverlappingRequest }

// TransitionError reports a state machine violation.
type TransitionError struct {
	RequestID string
	From      Status
	Attempted string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s request %s in status %q", e.Attempted, e.RequestID, e.From)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

// ValidationError reports malformed input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// InvariantError reports a ledger counter that would go negative. This is a
// caller or storage defect.
type InvariantError struct {
	EmployeeID    string
	LeaveTypeCode string
	Year          int
	Counter       string // "pendingApproval" or "used"
	Value         decimal.Decimal
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("ledger invariant violated for %s/%s/%d: %s would become %s",
		e.EmployeeID, e.LeaveTypeCode, e.Year, e.Counter, e.Value)
}

func (e *InvariantError) Unwrap() error { return ErrInvariantViolation }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsBusinessError reports whether the error is an expected outcome suitable
// for direct user-facing display.
func IsBusinessError(err error) bool {
	return errors.Is(err, ErrInsufficientBalance) ||
		errors.Is(err, ErrOverlappingRequest) ||
		errors.Is(err, ErrInvalidTransition) ||
		errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrNotFound)
}

// IsInvariant reports whether the error signals an internal defect.
func IsInvariant(err error) bool {
	return errors.Is(err, ErrInvariantViolation)
}

// IsNotFound reports whether the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
