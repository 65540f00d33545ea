/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Validation is done in handlers and in the domain services, not in DTOs.
  DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - leave: the domain model these map from
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/leave-engine/calendar"
	"github.com/warp/leave-engine/leave"
	"github.com/warp/leave-engine/ledger"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// BalanceDTO represents one ledger row in API responses. Available is the
// derived figure, included so clients never recompute it.
type BalanceDTO struct {
	EmployeeID      string `json:"employee_id"`
	LeaveTypeCode   string `json:"leave_type_code"`
	Year            int    `json:"year"`
	OpeningBalance  string `json:"opening_balance"`
	Credited        string `json:"credited"`
	Used            string `json:"used"`
	Lapsed          string `json:"lapsed"`
	PendingApproval string `json:"pending_approval"`
	Available       string `json:"available"`
}

// SubmitLeaveRequest is the body for submitting a leave request.
type SubmitLeaveRequest struct {
	LeaveTypeCode string `json:"leave_type_code"`
	FromDate      string `json:"from_date"` // YYYY-MM-DD
	ToDate        string `json:"to_date"`
	FromDayType   string `json:"from_day_type,omitempty"` // defaults to "full"
	ToDayType     string `json:"to_day_type,omitempty"`
	Reason        string `json:"reason,omitempty"`
}

// DecisionRequest is the body for approve/reject actions. A non-nil
// granted_days on approval makes it a partial approval.
type DecisionRequest struct {
	ApproverID  string   `json:"approver_id"`
	Remarks     string   `json:"remarks,omitempty"`
	Reason      string   `json:"reason,omitempty"` // rejection reason
	GrantedDays *float64 `json:"granted_days,omitempty"`
}

// CancelRequest is the body for cancelling a request.
type CancelRequest struct {
	Reason string `json:"reason,omitempty"`
}

// LeaveRequestDTO represents a leave request in API responses.
type LeaveRequestDTO struct {
	ID              string  `json:"id"`
	EmployeeID      string  `json:"employee_id"`
	LeaveTypeCode   string  `json:"leave_type_code"`
	FromDate        string  `json:"from_date"`
	ToDate          string  `json:"to_date"`
	FromDayType     string  `json:"from_day_type"`
	ToDayType       string  `json:"to_day_type"`
	TotalDays       string  `json:"total_days"`
	GrantedDays     *string `json:"granted_days,omitempty"`
	Reason          string  `json:"reason,omitempty"`
	Status          string  `json:"status"`
	ApproverID      string  `json:"approver_id,omitempty"`
	ApproverRemarks string  `json:"approver_remarks,omitempty"`
	RejectionReason string  `json:"rejection_reason,omitempty"`
	CancelReason    string  `json:"cancellation_reason,omitempty"`
	SubmittedAt     string  `json:"submitted_at"`
	DecidedAt       *string `json:"decided_at,omitempty"`
}

// HolidayDTO represents a holiday.
type HolidayDTO struct {
	Date string `json:"date"`
	Name string `json:"name"`
	Kind string `json:"kind"`
}

// LeaveTypeDTO represents a leave type.
type LeaveTypeDTO struct {
	Code                   string  `json:"code"`
	Name                   string  `json:"name"`
	IsCarryForwardEligible bool    `json:"is_carry_forward_eligible"`
	MaxCarryForwardDays    *string `json:"max_carry_forward_days,omitempty"`
	IsEncashable           bool    `json:"is_encashable"`
	RequiresHalfDaySupport bool    `json:"requires_half_day_support"`
}

// CalendarDayDTO is one cell of the projected month grid.
type CalendarDayDTO struct {
	Date      string            `json:"date"`
	InMonth   bool              `json:"in_month"`
	IsToday   bool              `json:"is_today"`
	IsWeekend bool              `json:"is_weekend"`
	Holiday   *HolidayDTO       `json:"holiday,omitempty"`
	Requests  []LeaveRequestDTO `json:"requests,omitempty"`
}

// AdjustmentRequest is the body for administrative credit/lapse operations.
type AdjustmentRequest struct {
	EmployeeID    string  `json:"employee_id"`
	LeaveTypeCode string  `json:"leave_type_code"`
	Year          int     `json:"year"`
	Days          float64 `json:"days"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toBalanceDTO(b *ledger.Balance) BalanceDTO {
	return BalanceDTO{
		EmployeeID:      b.Key.EmployeeID,
		LeaveTypeCode:   b.Key.LeaveTypeCode,
		Year:            b.Key.Year,
		OpeningBalance:  b.OpeningBalance.String(),
		Credited:        b.Credited.String(),
		Used:            b.Used.String(),
		Lapsed:          b.Lapsed.String(),
		PendingApproval: b.PendingApproval.String(),
		Available:       b.Available().String(),
	}
}

func toRequestDTO(req *leave.Request) LeaveRequestDTO {
	dto := LeaveRequestDTO{
		ID:              req.ID,
		EmployeeID:      req.EmployeeID,
		LeaveTypeCode:   req.LeaveTypeCode,
		FromDate:        req.FromDate.String(),
		ToDate:          req.ToDate.String(),
		FromDayType:     string(req.FromDayType),
		ToDayType:       string(req.ToDayType),
		TotalDays:       req.TotalDays.String(),
		Reason:          req.Reason,
		Status:          string(req.Status),
		ApproverID:      req.ApproverID,
		ApproverRemarks: req.ApproverRemarks,
		RejectionReason: req.RejectionReason,
		CancelReason:    req.CancellationReason,
		SubmittedAt:     req.SubmittedAt.UTC().Format(time.RFC3339),
	}
	if req.GrantedDays != nil {
		s := req.GrantedDays.String()
		dto.GrantedDays = &s
	}
	if req.DecidedAt != nil {
		s := req.DecidedAt.UTC().Format(time.RFC3339)
		dto.DecidedAt = &s
	}
	return dto
}

func toRequestDTOs(reqs []*leave.Request) []LeaveRequestDTO {
	dtos := make([]LeaveRequestDTO, len(reqs))
	for i, req := range reqs {
		dtos[i] = toRequestDTO(req)
	}
	return dtos
}

func toHolidayDTO(h leave.Holiday) HolidayDTO {
	return HolidayDTO{Date: h.Date.String(), Name: h.Name, Kind: string(h.Kind)}
}

func toLeaveTypeDTO(lt leave.LeaveType) LeaveTypeDTO {
	dto := LeaveTypeDTO{
		Code:                   lt.Code,
		Name:                   lt.Name,
		IsCarryForwardEligible: lt.IsCarryForwardEligible,
		IsEncashable:           lt.IsEncashable,
		RequiresHalfDaySupport: lt.RequiresHalfDaySupport,
	}
	if lt.MaxCarryForwardDays != nil {
		s := lt.MaxCarryForwardDays.String()
		dto.MaxCarryForwardDays = &s
	}
	return dto
}

func toCalendarDTO(days []calendar.Day) []CalendarDayDTO {
	dtos := make([]CalendarDayDTO, len(days))
	for i, d := range days {
		dto := CalendarDayDTO{
			Date:      d.Date.String(),
			InMonth:   d.InMonth,
			IsToday:   d.IsToday,
			IsWeekend: d.IsWeekend,
		}
		if d.Holiday != nil {
			h := toHolidayDTO(*d.Holiday)
			dto.Holiday = &h
		}
		if len(d.Requests) > 0 {
			dto.Requests = toRequestDTOs(d.Requests)
		}
		dtos[i] = dto
	}
	return dtos
}

func daysFromFloat(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v)
}
