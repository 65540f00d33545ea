/*
Package lifecycle owns the leave request state machine and keeps it
consistent with the balance ledger.

PURPOSE:
  Validates and transitions a request through its states, reserving and
  releasing ledger days at each step.

REQUEST FLOW:

  Submit ──▶ pending ──▶ approved            (Consume totalDays)
                    ──▶ partiallyApproved    (Consume granted, Release rest)
                    ──▶ rejected             (Release totalDays)
                    ──▶ cancelled            (Release totalDays)

  approved / partiallyApproved ──▶ cancelled while the leave has not started
                                   (Restore consumed days)

FAIL-CLOSED SUBMISSION:
  Submit reserves days before creating the record. If the reservation fails
  the submission fails with the same error and no record exists. If the
  record write fails afterwards, the reservation is released again, so an
  error never leaves a half-submitted state behind. Submissions of one
  employee are serialized, so two overlapping spans cannot both pass the
  conflict check before either record exists.

DECISION ATOMICITY:
  Decisions mutate the ledger first and persist the request second. When the
  request write fails, the ledger mutation is reversed, so an error never
  leaves consumed or released days behind with the request unchanged, and
  the decision can simply be retried.

OVERLAP RULE:
  A new span may not intersect any pending or approved request of the same
  employee, except where the only shared date is split into opposite halves
  (see leave.SpansOverlap).

SEE ALSO:
  - ledger: the balance primitives driven by each transition
  - leave/days.go: total-day computation and the overlap carve-out
*/
package lifecycle

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/warp/leave-engine/leave"
	"github.com/warp/leave-engine/ledger"
)

// =============================================================================
// REQUEST STORE - Persistence interface
// =============================================================================

// RequestStore persists leave requests. Requests are created once and
// updated in place on status transitions; they are never deleted.
// Implementations must return leave.ErrNotFound from Get for unknown IDs.
type RequestStore interface {
	Create(ctx context.Context, req *leave.Request) error
	Get(ctx context.Context, id string) (*leave.Request, error)
	Update(ctx context.Context, req *leave.Request) error

	// ListByEmployee returns all requests of one employee, newest first.
	ListByEmployee(ctx context.Context, employeeID string) ([]*leave.Request, error)

	// ListPending returns all pending requests across employees, oldest
	// first (approval queues drain in submission order).
	ListPending(ctx context.Context) ([]*leave.Request, error)
}

// =============================================================================
// SERVICE
// =============================================================================

// Service orchestrates the request state machine.
type Service struct {
	Requests RequestStore
	Balances *ledger.Ledger
	Log      *logrus.Logger

	// Now is injectable for tests; defaults to time.Now.
	Now func() time.Time

	mu      sync.Mutex
	submits map[string]*sync.Mutex
}

func NewService(requests RequestStore, balances *ledger.Ledger, log *logrus.Logger) *Service {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{
		Requests: requests,
		Balances: balances,
		Log:      log,
		Now:      time.Now,
		submits:  make(map[string]*sync.Mutex),
	}
}

// submitLock returns the mutex serializing submissions of one employee.
func (s *Service) submitLock(employeeID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.submits[employeeID]
	if !ok {
		m = &sync.Mutex{}
		s.submits[employeeID] = m
	}
	return m
}

// SubmitInput carries everything the requester provides.
type SubmitInput struct {
	EmployeeID    string
	LeaveTypeCode string
	FromDate      leave.Date
	ToDate        leave.Date
	FromDayType   leave.DayType
	ToDayType     leave.DayType
	Reason        string
}

// =============================================================================
// SUBMIT
// =============================================================================

// Submit validates a new request, checks for conflicts, reserves the days,
// and creates the record in pending status.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (*leave.Request, error) {
	if strings.TrimSpace(in.EmployeeID) == "" {
		return nil, &leave.ValidationError{Field: "employeeId", Message: "required"}
	}
	if strings.TrimSpace(in.LeaveTypeCode) == "" {
		return nil, &leave.ValidationError{Field: "leaveTypeCode", Message: "required"}
	}

	totalDays, err := leave.TotalDays(in.FromDate, in.ToDate, in.FromDayType, in.ToDayType)
	if err != nil {
		return nil, err
	}

	req := &leave.Request{
		ID:            uuid.NewString(),
		EmployeeID:    in.EmployeeID,
		LeaveTypeCode: in.LeaveTypeCode,
		FromDate:      in.FromDate,
		ToDate:        in.ToDate,
		FromDayType:   in.FromDayType,
		ToDayType:     in.ToDayType,
		TotalDays:     totalDays,
		Reason:        in.Reason,
		Status:        leave.StatusPending,
		SubmittedAt:   s.Now(),
	}

	// Conflict check through record creation happens under the employee's
	// submit lock; a concurrent overlapping submission sees this record.
	lock := s.submitLock(in.EmployeeID)
	lock.Lock()
	defer lock.Unlock()

	if err := s.checkOverlap(ctx, req); err != nil {
		return nil, err
	}

	key := s.keyFor(req)
	if _, err := s.Balances.Reserve(ctx, key, totalDays); err != nil {
		// Fail-closed: reservation failed, no record is created.
		return nil, err
	}

	if err := s.Requests.Create(ctx, req); err != nil {
		// Compensate so the hold does not leak.
		if _, relErr := s.Balances.Release(ctx, key, totalDays); relErr != nil {
			s.Log.WithError(relErr).WithField("request_id", req.ID).
				Error("failed to release reservation after create failure")
		}
		return nil, err
	}

	s.Log.WithFields(logrus.Fields{
		"request_id":  req.ID,
		"employee_id": req.EmployeeID,
		"leave_type":  req.LeaveTypeCode,
		"total_days":  totalDays.String(),
	}).Info("leave request submitted")

	return req, nil
}

func (s *Service) checkOverlap(ctx context.Context, req *leave.Request) error {
	existing, err := s.Requests.ListByEmployee(ctx, req.EmployeeID)
	if err != nil {
		return err
	}
	for _, other := range existing {
		if !other.Status.Active() {
			continue
		}
		if leave.SpansOverlap(req, other) {
			return &leave.OverlapError{
				EmployeeID:    req.EmployeeID,
				ConflictingID: other.ID,
				From:          other.FromDate,
				To:            other.ToDate,
			}
		}
	}
	return nil
}

// =============================================================================
// DECISIONS
// =============================================================================

// Approve moves a pending request to approved, consuming its reservation.
func (s *Service) Approve(ctx context.Context, id, approverID, remarks string) (*leave.Request, error) {
	if strings.TrimSpace(approverID) == "" {
		return nil, &leave.ValidationError{Field: "approverId", Message: "required"}
	}

	req, err := s.Requests.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Status != leave.StatusPending {
		return nil, &leave.TransitionError{RequestID: id, From: req.Status, Attempted: "approve"}
	}

	key := s.keyFor(req)
	if _, err := s.Balances.Consume(ctx, key, req.TotalDays); err != nil {
		return nil, err
	}

	now := s.Now()
	req.Status = leave.StatusApproved
	req.ApproverID = approverID
	req.ApproverRemarks = remarks
	req.DecidedAt = &now
	if err := s.Requests.Update(ctx, req); err != nil {
		s.reverseConsume(ctx, key, req.TotalDays, req.ID)
		return nil, err
	}
	return req, nil
}

// ApprovePartial approves a reduced day count. How many days are granted is
// the approver's call; the remainder of the reservation is released. The
// request ends in partiallyApproved, terminal like approved.
func (s *Service) ApprovePartial(ctx context.Context, id, approverID, remarks string, grantedDays decimal.Decimal) (*leave.Request, error) {
	if strings.TrimSpace(approverID) == "" {
		return nil, &leave.ValidationError{Field: "approverId", Message: "required"}
	}

	req, err := s.Requests.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Status != leave.StatusPending {
		return nil, &leave.TransitionError{RequestID: id, From: req.Status, Attempted: "approve"}
	}
	if !grantedDays.IsPositive() || grantedDays.GreaterThan(req.TotalDays) {
		return nil, &leave.ValidationError{
			Field:   "grantedDays",
			Message: "must be positive and at most the requested total",
		}
	}

	key := s.keyFor(req)
	if _, err := s.Balances.Consume(ctx, key, grantedDays); err != nil {
		return nil, err
	}
	remainder := req.TotalDays.Sub(grantedDays)
	if remainder.IsPositive() {
		if _, err := s.Balances.Release(ctx, key, remainder); err != nil {
			s.reverseConsume(ctx, key, grantedDays, req.ID)
			return nil, err
		}
	}

	now := s.Now()
	req.Status = leave.StatusPartiallyApproved
	req.GrantedDays = &grantedDays
	req.ApproverID = approverID
	req.ApproverRemarks = remarks
	req.DecidedAt = &now
	if err := s.Requests.Update(ctx, req); err != nil {
		s.reverseConsume(ctx, key, grantedDays, req.ID)
		if remainder.IsPositive() {
			s.reverseRelease(ctx, key, remainder, req.ID)
		}
		return nil, err
	}
	return req, nil
}

// Reject moves a pending request to rejected, releasing its reservation.
// The reason is mandatory.
func (s *Service) Reject(ctx context.Context, id, approverID, reason string) (*leave.Request, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, &leave.ValidationError{Field: "rejectionReason", Message: "required"}
	}

	req, err := s.Requests.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Status != leave.StatusPending {
		return nil, &leave.TransitionError{RequestID: id, From: req.Status, Attempted: "reject"}
	}

	key := s.keyFor(req)
	if _, err := s.Balances.Release(ctx, key, req.TotalDays); err != nil {
		return nil, err
	}

	now := s.Now()
	req.Status = leave.StatusRejected
	req.ApproverID = approverID
	req.RejectionReason = reason
	req.DecidedAt = &now
	if err := s.Requests.Update(ctx, req); err != nil {
		s.reverseRelease(ctx, key, req.TotalDays, req.ID)
		return nil, err
	}
	return req, nil
}

// =============================================================================
// CANCEL
// =============================================================================

// Cancel withdraws a request. A pending request releases its hold. An
// approved (or partially approved) request can only be cancelled while its
// from-date is still in the future; the consumed days are restored. A leave
// already started or taken cannot be cancelled.
func (s *Service) Cancel(ctx context.Context, id, reason string) (*leave.Request, error) {
	req, err := s.Requests.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	key := s.keyFor(req)
	var reversal func()
	switch req.Status {
	case leave.StatusPending:
		if _, err := s.Balances.Release(ctx, key, req.TotalDays); err != nil {
			return nil, err
		}
		days := req.TotalDays
		reversal = func() { s.reverseRelease(ctx, key, days, req.ID) }

	case leave.StatusApproved, leave.StatusPartiallyApproved:
		today := leave.DateOf(s.Now())
		if !req.FromDate.After(today) {
			return nil, &leave.TransitionError{RequestID: id, From: req.Status, Attempted: "cancel"}
		}
		days := req.ConsumedDays()
		if _, err := s.Balances.Restore(ctx, key, days); err != nil {
			return nil, err
		}
		reversal = func() { s.reverseRestore(ctx, key, days, req.ID) }

	default:
		return nil, &leave.TransitionError{RequestID: id, From: req.Status, Attempted: "cancel"}
	}

	req.Status = leave.StatusCancelled
	req.CancellationReason = reason
	if err := s.Requests.Update(ctx, req); err != nil {
		reversal()
		return nil, err
	}
	return req, nil
}

// =============================================================================
// LEDGER REVERSALS - Keep decisions all-or-nothing
// =============================================================================

// When a request write fails after the ledger already moved, the ledger
// mutation is reversed so the request keeps its prior hold and the decision
// can be retried. A reversal that itself fails leaves the ledger out of sync
// and is logged for manual correction.

func (s *Service) reverseConsume(ctx context.Context, key ledger.Key, days decimal.Decimal, requestID string) {
	if _, err := s.Balances.Unconsume(ctx, key, days); err != nil {
		s.logReversalFailure(err, requestID)
	}
}

func (s *Service) reverseRelease(ctx context.Context, key ledger.Key, days decimal.Decimal, requestID string) {
	if _, err := s.Balances.Reserve(ctx, key, days); err != nil {
		s.logReversalFailure(err, requestID)
	}
}

// reverseRestore puts restored days back into used. The days sit in available
// after the Restore, so the Reserve cannot fail on balance.
func (s *Service) reverseRestore(ctx context.Context, key ledger.Key, days decimal.Decimal, requestID string) {
	if _, err := s.Balances.Reserve(ctx, key, days); err != nil {
		s.logReversalFailure(err, requestID)
		return
	}
	if _, err := s.Balances.Consume(ctx, key, days); err != nil {
		s.logReversalFailure(err, requestID)
	}
}

func (s *Service) logReversalFailure(err error, requestID string) {
	s.Log.WithError(err).WithField("request_id", requestID).
		Error("failed to reverse ledger mutation after request write failure")
}

// =============================================================================
// READS
// =============================================================================

func (s *Service) Get(ctx context.Context, id string) (*leave.Request, error) {
	return s.Requests.Get(ctx, id)
}

func (s *Service) ListByEmployee(ctx context.Context, employeeID string) ([]*leave.Request, error) {
	return s.Requests.ListByEmployee(ctx, employeeID)
}

func (s *Service) ListPending(ctx context.Context) ([]*leave.Request, error) {
	return s.Requests.ListPending(ctx)
}

func (s *Service) keyFor(req *leave.Request) ledger.Key {
	return ledger.Key{
		EmployeeID:    req.EmployeeID,
		LeaveTypeCode: req.LeaveTypeCode,
		Year:          req.FromDate.Year(),
	}
}
