/*
Package leave provides the shared domain model for the leave-management core.

PURPOSE:
  This package contains the types and rules shared by the three components of
  the core: the balance ledger, the request lifecycle, and the calendar
  projector. It has no dependencies on storage or transport.

KEY CONCEPTS IN THIS FILE (types.go):
  - Date/DayType: calendar dates and full/half-day endpoint markers
  - Status: the closed request state machine vocabulary
  - LeaveType: immutable reference data describing a category of leave
  - Holiday: externally supplied reference data for calendar rendering
  - Request: one leave application, preserved forever (audit history)

DESIGN PRINCIPLES:
  1. Precision: day quantities use decimal.Decimal so 0.5-day increments
     are exact (never float64)
  2. Closed enums: statuses, day types, and holiday kinds are typed values
     validated at the boundary, so invalid states are rejected early
  3. Plain data: every exported type serializes to any transport without
     framework-specific baggage

SEE ALSO:
  - days.go: total-day computation and span overlap rules
  - errors.go: the error taxonomy shared by all components
*/
package leave

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// DAY TYPE - Full or half-day request endpoints
// =============================================================================

// DayType describes how much of a boundary date a request consumes.
type DayType string

const (
	FullDay    DayType = "full"
	FirstHalf  DayType = "firstHalf"
	SecondHalf DayType = "secondHalf"
)

// Valid reports whether the value is one of the closed set.
func (d DayType) Valid() bool {
	switch d {
	case FullDay, FirstHalf, SecondHalf:
		return true
	}
	return false
}

// IsHalf reports whether the endpoint consumes half a day.
func (d DayType) IsHalf() bool { return d == FirstHalf || d == SecondHalf }

// =============================================================================
// STATUS - Request state machine vocabulary
// =============================================================================

type Status string

const (
	StatusPending           Status = "pending"
	StatusApproved          Status = "approved"
	StatusPartiallyApproved Status = "partiallyApproved"
	StatusRejected          Status = "rejected"
	StatusCancelled         Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusPartiallyApproved, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transition may leave this status.
// Approved and partially approved requests admit exactly one exception:
// cancellation before the leave starts, which the lifecycle service checks
// against the from-date.
func (s Status) Terminal() bool {
	return s == StatusRejected || s == StatusCancelled
}

// Active reports whether the request currently holds or consumes balance,
// which is what makes it relevant for overlap checks.
func (s Status) Active() bool {
	return s == StatusPending || s == StatusApproved || s == StatusPartiallyApproved
}

// =============================================================================
// LEAVE TYPE - Immutable reference data
// =============================================================================

// LeaveType describes a category of leave ("CL", "SL", ...). Created by
// administrative configuration; the core never mutates it.
type LeaveType struct {
	Code                   string
	Name                   string
	IsCarryForwardEligible bool
	MaxCarryForwardDays    *decimal.Decimal // nil = no cap
	IsEncashable           bool
	RequiresHalfDaySupport bool
}

// =============================================================================
// HOLIDAY - External reference data
// =============================================================================

type HolidayKind string

const (
	HolidayNational   HolidayKind = "national"
	HolidayState      HolidayKind = "state"
	HolidayOptional   HolidayKind = "optional"
	HolidayRestricted HolidayKind = "restricted"
)

func (k HolidayKind) Valid() bool {
	switch k {
	case HolidayNational, HolidayState, HolidayOptional, HolidayRestricted:
		return true
	}
	return false
}

type Holiday struct {
	Date Date
	Name string
	Kind HolidayKind
}

// =============================================================================
// REQUEST - One leave application
// =============================================================================

// Request is a single leave application. Requests are created once on
// submission and mutated only through status transitions; they are never
// deleted (cancellation is a status, not removal).
type Request struct {
	ID            string
	EmployeeID    string
	LeaveTypeCode string

	// Inclusive calendar span with half-day endpoint markers.
	FromDate    Date
	ToDate      Date
	FromDayType DayType
	ToDayType   DayType

	// TotalDays is derived from the span on submission (see TotalDays).
	TotalDays decimal.Decimal

	// GrantedDays is set only for partially approved requests; the count is
	// supplied by the approver, not computed here.
	GrantedDays *decimal.Decimal

	Reason string
	Status Status

	ApproverID         string
	ApproverRemarks    string
	RejectionReason    string
	CancellationReason string

	SubmittedAt time.Time
	DecidedAt   *time.Time
}

// ConsumedDays returns the day count the request holds against the ledger:
// granted days for a partial approval, total days otherwise.
func (r *Request) ConsumedDays() decimal.Decimal {
	if r.Status == StatusPartiallyApproved && r.GrantedDays != nil {
		return *r.GrantedDays
	}
	return r.TotalDays
}

// Covers reports whether the request's inclusive span contains the date.
func (r *Request) Covers(d Date) bool {
	return r.FromDate.BeforeOrEqual(d) && d.BeforeOrEqual(r.ToDate)
}
