/*
Package ledger implements the balance ledger: the single source of truth for
"how many days of leave-type T does employee E have left in year Y".

PURPOSE:
  Maintains the per-(employee, leave type, year) bookkeeping record and is
  the only component permitted to mutate the used, lapsed, and pending
  counters. The request lifecycle drives it through three primitives:

    Reserve  - hold days for a pending request
    Release  - drop a hold (rejection, cancellation before decision)
    Consume  - convert a hold into used days (approval)

  plus Restore (used back to available, for cancelling an approved leave
  that has not started) and the administrative Credit / AdjustLapse.

CORE INVARIANT:
  available = opening + credited - used - lapsed - pending
  available >= 0 after every mutation. A mutation that would break this is
  rejected, never clamped, and no observer may see an intermediate state.

CONCURRENCY:
  Mutations on one key are serialized by a per-key mutex for the duration of
  the read-check-write. Different keys proceed in parallel with no
  coordination. The store additionally carries a version stamp so a write
  that races an external writer fails with ErrConcurrentModification and is
  retried under the lock.

SEE ALSO:
  - ledger.go: the Ledger service and its operations
  - store/memory, store/sqlite: Store implementations
*/
package ledger

import (
	"context"

	"github.com/shopspring/decimal"
)

// =============================================================================
// KEY AND BALANCE
// =============================================================================

// Key identifies one ledger row.
type Key struct {
	EmployeeID    string
	LeaveTypeCode string
	Year          int
}

// Balance is the bookkeeping record for one key. Available is always derived,
// never stored, so it cannot drift from the counters.
type Balance struct {
	Key Key

	OpeningBalance  decimal.Decimal
	Credited        decimal.Decimal
	Used            decimal.Decimal
	Lapsed          decimal.Decimal
	PendingApproval decimal.Decimal

	// Version is the optimistic-concurrency stamp maintained by the store.
	Version int64
}

// Available derives the spendable day count.
func (b *Balance) Available() decimal.Decimal {
	return b.OpeningBalance.
		Add(b.Credited).
		Sub(b.Used).
		Sub(b.Lapsed).
		Sub(b.PendingApproval)
}

// =============================================================================
// STORE - Persistence interface
// =============================================================================

// Store persists ledger rows. Implementations must return leave.ErrNotFound
// from Get when no row exists, and leave.ErrConcurrentModification from Save
// when the stored version differs from balance.Version.
type Store interface {
	// Get returns the row for the key.
	Get(ctx context.Context, key Key) (*Balance, error)

	// Create inserts a new row. Used by provisioning and fixtures; the
	// ledger itself never auto-creates rows.
	Create(ctx context.Context, balance *Balance) error

	// Save writes the row conditioned on balance.Version matching the
	// stored version, then increments it.
	Save(ctx context.Context, balance *Balance) error
}
