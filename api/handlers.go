/*
handlers.go - HTTP API handlers for the leave-management core

PURPOSE:
  Exposes the ledger, lifecycle, and calendar components via REST. Handles
  HTTP request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Balances:
    GET  /api/employees/{id}/balances             All leave types for a year
    GET  /api/employees/{id}/balances/{code}      One ledger row

  Requests:
    POST /api/employees/{id}/requests             Submit
    GET  /api/employees/{id}/requests             History
    GET  /api/requests/pending                    Approval queue
    POST /api/requests/{id}/approve               Approve (partial when
                                                  granted_days is set)
    POST /api/requests/{id}/reject                Reject
    POST /api/requests/{id}/cancel                Cancel

  Calendar:
    GET  /api/employees/{id}/calendar?year=&month=

  Reference data:
    GET/POST /api/holidays
    GET/POST /api/leave-types

  Admin:
    POST /api/admin/credit                        Accrue days
    POST /api/admin/lapse                         Forfeit days

ERROR HANDLING:
  Business-rule errors map to client statuses and are safe to show:
  - 400: validation failures, malformed input
  - 404: unknown balance/request
  - 409: invalid transition, overlapping request
  - 422: insufficient balance
  Invariant violations are logged server-side and returned as an opaque 500;
  they signal a defect, not bad user input.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/warp/leave-engine/calendar"
	"github.com/warp/leave-engine/leave"
	"github.com/warp/leave-engine/ledger"
	"github.com/warp/leave-engine/lifecycle"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Lifecycle *lifecycle.Service
	Balances  *ledger.Ledger
	Catalog   leave.Catalog
	Log       *logrus.Logger

	// now is injectable for calendar tests; defaults to time.Now.
	now func() time.Time
}

// NewHandler creates a new handler wired to the given services.
func NewHandler(svc *lifecycle.Service, balances *ledger.Ledger, catalog leave.Catalog, log *logrus.Logger) *Handler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Handler{
		Lifecycle: svc,
		Balances:  balances,
		Catalog:   catalog,
		Log:       log,
		now:       time.Now,
	}
}

// =============================================================================
// BALANCE HANDLERS
// =============================================================================

// GetBalances returns every ledger row of an employee for a year.
func (h *Handler) GetBalances(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "id")
	year := h.yearParam(r)

	leaveTypes, err := h.Catalog.ListLeaveTypes(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}

	dtos := make([]BalanceDTO, 0, len(leaveTypes))
	for _, lt := range leaveTypes {
		key := ledger.Key{EmployeeID: employeeID, LeaveTypeCode: lt.Code, Year: year}
		balance, err := h.Balances.GetBalance(r.Context(), key)
		if leave.IsNotFound(err) {
			continue // not provisioned for this employee-year
		}
		if err != nil {
			h.writeError(w, err)
			return
		}
		dtos = append(dtos, toBalanceDTO(balance))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetBalance returns one ledger row.
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	key := ledger.Key{
		EmployeeID:    chi.URLParam(r, "id"),
		LeaveTypeCode: chi.URLParam(r, "code"),
		Year:          h.yearParam(r),
	}
	balance, err := h.Balances.GetBalance(r.Context(), key)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBalanceDTO(balance))
}

// =============================================================================
// REQUEST HANDLERS
// =============================================================================

// SubmitRequest submits a leave request for an employee.
func (h *Handler) SubmitRequest(w http.ResponseWriter, r *http.Request) {
	var body SubmitLeaveRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeError(w, &leave.ValidationError{Field: "body", Message: "invalid JSON"})
		return
	}

	fromDate, err := leave.ParseDate(body.FromDate)
	if err != nil {
		h.writeError(w, &leave.ValidationError{Field: "from_date", Message: "use YYYY-MM-DD"})
		return
	}
	toDate, err := leave.ParseDate(body.ToDate)
	if err != nil {
		h.writeError(w, &leave.ValidationError{Field: "to_date", Message: "use YYYY-MM-DD"})
		return
	}

	req, err := h.Lifecycle.Submit(r.Context(), lifecycle.SubmitInput{
		EmployeeID:    chi.URLParam(r, "id"),
		LeaveTypeCode: body.LeaveTypeCode,
		FromDate:      fromDate,
		ToDate:        toDate,
		FromDayType:   dayTypeOrFull(body.FromDayType),
		ToDayType:     dayTypeOrFull(body.ToDayType),
		Reason:        body.Reason,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRequestDTO(req))
}

// ListRequests returns an employee's request history, newest first.
func (h *Handler) ListRequests(w http.ResponseWriter, r *http.Request) {
	reqs, err := h.Lifecycle.ListByEmployee(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTOs(reqs))
}

// ListPendingRequests returns the approval queue, oldest first.
func (h *Handler) ListPendingRequests(w http.ResponseWriter, r *http.Request) {
	reqs, err := h.Lifecycle.ListPending(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTOs(reqs))
}

// ApproveRequest approves a pending request; with granted_days it becomes a
// partial approval.
func (h *Handler) ApproveRequest(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var body DecisionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeError(w, &leave.ValidationError{Field: "body", Message: "invalid JSON"})
		return
	}

	var (
		req *leave.Request
		err error
	)
	if body.GrantedDays != nil {
		req, err = h.Lifecycle.ApprovePartial(r.Context(), id, body.ApproverID, body.Remarks,
			daysFromFloat(*body.GrantedDays))
	} else {
		req, err = h.Lifecycle.Approve(r.Context(), id, body.ApproverID, body.Remarks)
	}
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTO(req))
}

// RejectRequest rejects a pending request. The reason is mandatory.
func (h *Handler) RejectRequest(w http.ResponseWriter, r *http.Request) {
	var body DecisionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeError(w, &leave.ValidationError{Field: "body", Message: "invalid JSON"})
		return
	}
	req, err := h.Lifecycle.Reject(r.Context(), chi.URLParam(r, "id"), body.ApproverID, body.Reason)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTO(req))
}

// CancelLeaveRequest cancels a pending request, or an approved one whose
// leave has not started.
func (h *Handler) CancelLeaveRequest(w http.ResponseWriter, r *http.Request) {
	var body CancelRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeError(w, &leave.ValidationError{Field: "body", Message: "invalid JSON"})
		return
	}
	req, err := h.Lifecycle.Cancel(r.Context(), chi.URLParam(r, "id"), body.Reason)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTO(req))
}

// =============================================================================
// CALENDAR HANDLER
// =============================================================================

// GetCalendar projects an employee's month grid.
func (h *Handler) GetCalendar(w http.ResponseWriter, r *http.Request) {
	year := h.yearParam(r)
	month := h.monthParam(r)
	if month < time.January || month > time.December {
		h.writeError(w, &leave.ValidationError{Field: "month", Message: "must be 1-12"})
		return
	}

	reqs, err := h.Lifecycle.ListByEmployee(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	// Only spans that hold or consume days belong on the calendar.
	var active []*leave.Request
	for _, req := range reqs {
		if req.Status.Active() {
			active = append(active, req)
		}
	}

	holidays, err := h.Catalog.ListHolidays(r.Context(), year)
	if err != nil {
		h.writeError(w, err)
		return
	}

	days := calendar.ProjectAt(leave.DateOf(h.now()), year, month, active, holidays)
	writeJSON(w, http.StatusOK, toCalendarDTO(days))
}

// =============================================================================
// REFERENCE DATA HANDLERS
// =============================================================================

// ListHolidays returns the holidays of a year.
func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	holidays, err := h.Catalog.ListHolidays(r.Context(), h.yearParam(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	dtos := make([]HolidayDTO, len(holidays))
	for i, holiday := range holidays {
		dtos[i] = toHolidayDTO(holiday)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateHoliday registers a holiday.
func (h *Handler) CreateHoliday(w http.ResponseWriter, r *http.Request) {
	var body HolidayDTO
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeError(w, &leave.ValidationError{Field: "body", Message: "invalid JSON"})
		return
	}
	date, err := leave.ParseDate(body.Date)
	if err != nil {
		h.writeError(w, &leave.ValidationError{Field: "date", Message: "use YYYY-MM-DD"})
		return
	}
	kind := leave.HolidayKind(body.Kind)
	if !kind.Valid() {
		h.writeError(w, &leave.ValidationError{Field: "kind", Message: "unknown holiday kind"})
		return
	}
	holiday := leave.Holiday{Date: date, Name: body.Name, Kind: kind}
	if err := h.Catalog.AddHoliday(r.Context(), holiday); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toHolidayDTO(holiday))
}

// ListLeaveTypes returns the leave-type catalog.
func (h *Handler) ListLeaveTypes(w http.ResponseWriter, r *http.Request) {
	leaveTypes, err := h.Catalog.ListLeaveTypes(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	dtos := make([]LeaveTypeDTO, len(leaveTypes))
	for i, lt := range leaveTypes {
		dtos[i] = toLeaveTypeDTO(lt)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateLeaveType registers or updates a leave type.
func (h *Handler) CreateLeaveType(w http.ResponseWriter, r *http.Request) {
	var body LeaveTypeDTO
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeError(w, &leave.ValidationError{Field: "body", Message: "invalid JSON"})
		return
	}
	if body.Code == "" || body.Name == "" {
		h.writeError(w, &leave.ValidationError{Field: "code", Message: "code and name required"})
		return
	}
	lt := leave.LeaveType{
		Code:                   body.Code,
		Name:                   body.Name,
		IsCarryForwardEligible: body.IsCarryForwardEligible,
		IsEncashable:           body.IsEncashable,
		RequiresHalfDaySupport: body.RequiresHalfDaySupport,
	}
	if body.MaxCarryForwardDays != nil {
		capDays, err := parseDecimalField(*body.MaxCarryForwardDays)
		if err != nil {
			h.writeError(w, &leave.ValidationError{Field: "max_carry_forward_days", Message: "invalid decimal"})
			return
		}
		lt.MaxCarryForwardDays = &capDays
	}
	if err := h.Catalog.PutLeaveType(r.Context(), lt); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toLeaveTypeDTO(lt))
}

// =============================================================================
// ADMIN HANDLERS
// =============================================================================

// CreditBalance accrues days outside the request flow.
func (h *Handler) CreditBalance(w http.ResponseWriter, r *http.Request) {
	h.adjust(w, r, h.Balances.Credit)
}

// LapseBalance forfeits days outside the request flow.
func (h *Handler) LapseBalance(w http.ResponseWriter, r *http.Request) {
	h.adjust(w, r, h.Balances.AdjustLapse)
}

func (h *Handler) adjust(w http.ResponseWriter, r *http.Request,
	op func(ctx context.Context, key ledger.Key, days decimal.Decimal) (*ledger.Balance, error)) {
	var body AdjustmentRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeError(w, &leave.ValidationError{Field: "body", Message: "invalid JSON"})
		return
	}
	key := ledger.Key{
		EmployeeID:    body.EmployeeID,
		LeaveTypeCode: body.LeaveTypeCode,
		Year:          body.Year,
	}
	balance, err := op(r.Context(), key, daysFromFloat(body.Days))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBalanceDTO(balance))
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) yearParam(r *http.Request) int {
	if v := r.URL.Query().Get("year"); v != "" {
		if year, err := strconv.Atoi(v); err == nil {
			return year
		}
	}
	return h.now().Year()
}

func (h *Handler) monthParam(r *http.Request) time.Month {
	if v := r.URL.Query().Get("month"); v != "" {
		if m, err := strconv.Atoi(v); err == nil {
			return time.Month(m)
		}
	}
	return h.now().Month()
}

func parseDecimalField(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(s)
}

func dayTypeOrFull(s string) leave.DayType {
	if s == "" {
		return leave.FullDay
	}
	return leave.DayType(s)
}

// writeError maps domain errors to HTTP statuses. Invariant violations are
// logged and returned opaque; business errors carry their message.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case leave.IsInvariant(err):
		h.Log.WithError(err).Error("invariant violation surfaced to API")
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error: "internal error",
			Code:  "internal",
		})
	case errors.Is(err, leave.ErrNotFound):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: err.Error(), Code: "not_found"})
	case errors.Is(err, leave.ErrValidation):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "validation"})
	case errors.Is(err, leave.ErrInvalidTransition):
		writeJSON(w, http.StatusConflict, ErrorResponse{Error: err.Error(), Code: "invalid_transition"})
	case errors.Is(err, leave.ErrOverlappingRequest):
		writeJSON(w, http.StatusConflict, ErrorResponse{Error: err.Error(), Code: "overlapping_request"})
	case errors.Is(err, leave.ErrInsufficientBalance):
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error(), Code: "insufficient_balance"})
	default:
		h.Log.WithError(err).Error("unhandled error in API")
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error: "internal error",
			Code:  "internal",
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
