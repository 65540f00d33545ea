package ledger

import (
	"context"
	"errors"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/warp/leave-engine/leave"
)

// =============================================================================
// LEDGER SERVICE
// =============================================================================

// saveRetries bounds retries when a Save races an external writer sharing
// the store. Under the per-key lock a conflict is rare.
const saveRetries = 3

// Ledger serializes balance mutations per key and enforces the availability
// invariant.
type Ledger struct {
	store Store
	log   *logrus.Logger

	mu    sync.Mutex
	locks map[Key]*sync.Mutex
}

func New(store Store, log *logrus.Logger) *Ledger {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Ledger{
		store: store,
		log:   log,
		locks: make(map[Key]*sync.Mutex),
	}
}

// keyLock returns the mutex serializing mutations for one key.
func (l *Ledger) keyLock(key Key) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.locks[key]
	if !ok {
		m = &sync.Mutex{}
		l.locks[key] = m
	}
	return m
}

// update runs a read-check-write cycle under the key lock. mutate sees the
// current row and either mutates it or returns the error to surface.
func (l *Ledger) update(ctx context.Context, key Key, mutate func(*Balance) error) (*Balance, error) {
	lock := l.keyLock(key)
	lock.Lock()
	defer lock.Unlock()

	for attempt := 0; ; attempt++ {
		balance, err := l.store.Get(ctx, key)
		if err != nil {
			return nil, err
		}

		if err := mutate(balance); err != nil {
			return nil, err
		}

		err = l.store.Save(ctx, balance)
		if err == nil {
			return balance, nil
		}
		if !errors.Is(err, leave.ErrConcurrentModification) || attempt >= saveRetries {
			return nil, err
		}
	}
}

// =============================================================================
// READ
// =============================================================================

// GetBalance returns the current row. Fails with leave.ErrNotFound when the
// row was never provisioned.
func (l *Ledger) GetBalance(ctx context.Context, key Key) (*Balance, error) {
	return l.store.Get(ctx, key)
}

// =============================================================================
// REQUEST-DRIVEN MUTATIONS
// =============================================================================

// Reserve holds days for a pending request. The availability check and the
// mutation happen atomically under the key lock; there is no partial
// reservation.
func (l *Ledger) Reserve(ctx context.Context, key Key, days decimal.Decimal) (*Balance, error) {
	if err := positiveDays(days); err != nil {
		return nil, err
	}
	return l.update(ctx, key, func(b *Balance) error {
		if b.Available().LessThan(days) {
			return &leave.InsufficientBalanceError{
				EmployeeID:    key.EmployeeID,
				LeaveTypeCode: key.LeaveTypeCode,
				Year:          key.Year,
				Available:     b.Available(),
				Requested:     days,
			}
		}
		b.PendingApproval = b.PendingApproval.Add(days)
		return nil
	})
}

// Release drops a hold when a pending request is rejected or cancelled.
// Driving the pending counter negative is a caller bug, not a business
// condition: it fails with an invariant violation and is logged as a defect.
func (l *Ledger) Release(ctx context.Context, key Key, days decimal.Decimal) (*Balance, error) {
	if err := positiveDays(days); err != nil {
		return nil, err
	}
	return l.update(ctx, key, func(b *Balance) error {
		next := b.PendingApproval.Sub(days)
		if next.IsNegative() {
			return l.invariant(key, "pendingApproval", next)
		}
		b.PendingApproval = next
		return nil
	})
}

// Consume moves days from pending to used on approval. Same negative guard
// as Release.
func (l *Ledger) Consume(ctx context.Context, key Key, days decimal.Decimal) (*Balance, error) {
	if err := positiveDays(days); err != nil {
		return nil, err
	}
	return l.update(ctx, key, func(b *Balance) error {
		next := b.PendingApproval.Sub(days)
		if next.IsNegative() {
			return l.invariant(key, "pendingApproval", next)
		}
		b.PendingApproval = next
		b.Used = b.Used.Add(days)
		return nil
	})
}

// Restore moves days from used back to available, for cancelling an approved
// leave that has not started.
func (l *Ledger) Restore(ctx context.Context, key Key, days decimal.Decimal) (*Balance, error) {
	if err := positiveDays(days); err != nil {
		return nil, err
	}
	return l.update(ctx, key, func(b *Balance) error {
		next := b.Used.Sub(days)
		if next.IsNegative() {
			return l.invariant(key, "used", next)
		}
		b.Used = next
		return nil
	})
}

// Unconsume moves days from used back into pending, reversing a Consume whose
// surrounding transition failed to persist. The request keeps its hold and the
// transition can be retried.
func (l *Ledger) Unconsume(ctx context.Context, key Key, days decimal.Decimal) (*Balance, error) {
	if err := positiveDays(days); err != nil {
		return nil, err
	}
	return l.update(ctx, key, func(b *Balance) error {
		next := b.Used.Sub(days)
		if next.IsNegative() {
			return l.invariant(key, "used", next)
		}
		b.Used = next
		b.PendingApproval = b.PendingApproval.Add(days)
		return nil
	})
}

// =============================================================================
// ADMINISTRATIVE MUTATIONS - Outside the request flow
// =============================================================================

// Credit accrues days during the year (monthly accrual, manual grant).
func (l *Ledger) Credit(ctx context.Context, key Key, days decimal.Decimal) (*Balance, error) {
	if err := positiveDays(days); err != nil {
		return nil, err
	}
	return l.update(ctx, key, func(b *Balance) error {
		b.Credited = b.Credited.Add(days)
		return nil
	})
}

// AdjustLapse forfeits days, e.g. on a carry-forward cap at year end. The
// lapse may not exceed what is currently available.
func (l *Ledger) AdjustLapse(ctx context.Context, key Key, days decimal.Decimal) (*Balance, error) {
	if err := positiveDays(days); err != nil {
		return nil, err
	}
	return l.update(ctx, key, func(b *Balance) error {
		if b.Available().LessThan(days) {
			return &leave.InsufficientBalanceError{
				EmployeeID:    key.EmployeeID,
				LeaveTypeCode: key.LeaveTypeCode,
				Year:          key.Year,
				Available:     b.Available(),
				Requested:     days,
			}
		}
		b.Lapsed = b.Lapsed.Add(days)
		return nil
	})
}

// =============================================================================
// HELPERS
// =============================================================================

func (l *Ledger) invariant(key Key, counter string, value decimal.Decimal) error {
	err := &leave.InvariantError{
		EmployeeID:    key.EmployeeID,
		LeaveTypeCode: key.LeaveTypeCode,
		Year:          key.Year,
		Counter:       counter,
		Value:         value,
	}
	l.log.WithFields(logrus.Fields{
		"employee_id": key.EmployeeID,
		"leave_type":  key.LeaveTypeCode,
		"year":        key.Year,
		"counter":     counter,
		"value":       value.String(),
	}).Error("ledger invariant violated")
	return err
}

func positiveDays(days decimal.Decimal) error {
	if !days.IsPositive() {
		return &leave.ValidationError{Field: "days", Message: "day count must be positive"}
	}
	return nil
}
