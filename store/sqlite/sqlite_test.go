package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/leave-engine/leave"
	"github.com/warp/leave-engine/ledger"
	"github.com/warp/leave-engine/store/sqlite"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()

	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func days(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

// =============================================================================
// BALANCES
// =============================================================================

func TestBalanceStore_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	key := ledger.Key{EmployeeID: "emp-1", LeaveTypeCode: "CL", Year: 2026}
	require.NoError(t, store.Balances.Create(ctx, &ledger.Balance{
		Key:             key,
		OpeningBalance:  days(12),
		PendingApproval: days(2.5),
	}))

	got, err := store.Balances.Get(ctx, key)
	require.NoError(t, err)

	assert.Equal(t, key, got.Key)
	assert.True(t, got.OpeningBalance.Equal(days(12)))
	assert.True(t, got.PendingApproval.Equal(days(2.5)), "half days must round-trip exactly")
	assert.True(t, got.Available().Equal(days(9.5)))
	assert.Equal(t, int64(1), got.Version)
}

func TestBalanceStore_GetUnknown_NotFound(t *testing.T) {
	store := newTestStore(t)

	key := ledger.Key{EmployeeID: "emp-404", LeaveTypeCode: "CL", Year: 2026}
	_, err := store.Balances.Get(context.Background(), key)
	assert.ErrorIs(t, err, leave.ErrNotFound)
}

func TestBalanceStore_SaveBumpsVersion(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	key := ledger.Key{EmployeeID: "emp-1", LeaveTypeCode: "CL", Year: 2026}
	require.NoError(t, store.Balances.Create(ctx, &ledger.Balance{
		Key:            key,
		OpeningBalance: days(12),
	}))

	b, err := store.Balances.Get(ctx, key)
	require.NoError(t, err)

	b.Used = days(3)
	require.NoError(t, store.Balances.Save(ctx, b))
	assert.Equal(t, int64(2), b.Version)

	got, err := store.Balances.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, got.Used.Equal(days(3)))
	assert.Equal(t, int64(2), got.Version)
}

func TestBalanceStore_StaleSave_ConcurrentModification(t *testing.T) {
	// Two readers load the same version; the second write must lose.

	store := newTestStore(t)
	ctx := context.Background()

	key := ledger.Key{EmployeeID: "emp-1", LeaveTypeCode: "CL", Year: 2026}
	require.NoError(t, store.Balances.Create(ctx, &ledger.Balance{
		Key:            key,
		OpeningBalance: days(12),
	}))

	first, err := store.Balances.Get(ctx, key)
	require.NoError(t, err)
	second, err := store.Balances.Get(ctx, key)
	require.NoError(t, err)

	first.Used = days(1)
	require.NoError(t, store.Balances.Save(ctx, first))

	second.Used = days(2)
	err = store.Balances.Save(ctx, second)
	assert.ErrorIs(t, err, leave.ErrConcurrentModification)

	got, err := store.Balances.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, got.Used.Equal(days(1)), "losing write must not apply")
}

func TestBalanceStore_SaveUnknown_NotFound(t *testing.T) {
	store := newTestStore(t)

	b := &ledger.Balance{
		Key:     ledger.Key{EmployeeID: "emp-404", LeaveTypeCode: "CL", Year: 2026},
		Version: 1,
	}
	err := store.Balances.Save(context.Background(), b)
	assert.ErrorIs(t, err, leave.ErrNotFound)
}

// =============================================================================
// REQUESTS
// =============================================================================

func TestRequestStore_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	submitted := time.Date(2026, time.January, 2, 10, 30, 0, 0, time.UTC)
	req := &leave.Request{
		ID:            "req-1",
		EmployeeID:    "emp-1",
		LeaveTypeCode: "CL",
		FromDate:      leave.NewDate(2026, time.January, 10),
		ToDate:        leave.NewDate(2026, time.January, 12),
		FromDayType:   leave.FullDay,
		ToDayType:     leave.SecondHalf,
		TotalDays:     days(2.5),
		Reason:        "family function",
		Status:        leave.StatusPending,
		SubmittedAt:   submitted,
	}
	require.NoError(t, store.Requests.Create(ctx, req))

	got, err := store.Requests.Get(ctx, "req-1")
	require.NoError(t, err)

	assert.Equal(t, req.EmployeeID, got.EmployeeID)
	assert.True(t, got.FromDate.Equal(req.FromDate))
	assert.True(t, got.ToDate.Equal(req.ToDate))
	assert.Equal(t, leave.SecondHalf, got.ToDayType)
	assert.True(t, got.TotalDays.Equal(days(2.5)))
	assert.Equal(t, leave.StatusPending, got.Status)
	assert.Nil(t, got.GrantedDays)
	assert.Nil(t, got.DecidedAt)
	assert.True(t, got.SubmittedAt.Equal(submitted))
}

func TestRequestStore_UpdateDecisionFields(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	req := &leave.Request{
		ID:            "req-1",
		EmployeeID:    "emp-1",
		LeaveTypeCode: "CL",
		FromDate:      leave.NewDate(2026, time.January, 10),
		ToDate:        leave.NewDate(2026, time.January, 14),
		FromDayType:   leave.FullDay,
		ToDayType:     leave.FullDay,
		TotalDays:     days(5),
		Status:        leave.StatusPending,
		SubmittedAt:   time.Now().UTC(),
	}
	require.NoError(t, store.Requests.Create(ctx, req))

	granted := days(3)
	decided := time.Date(2026, time.January, 3, 9, 0, 0, 0, time.UTC)
	req.Status = leave.StatusPartiallyApproved
	req.GrantedDays = &granted
	req.ApproverID = "mgr-1"
	req.ApproverRemarks = "only 3 possible"
	req.DecidedAt = &decided
	require.NoError(t, store.Requests.Update(ctx, req))

	got, err := store.Requests.Get(ctx, "req-1")
	require.NoError(t, err)
	assert.Equal(t, leave.StatusPartiallyApproved, got.Status)
	require.NotNil(t, got.GrantedDays)
	assert.True(t, got.GrantedDays.Equal(days(3)))
	assert.Equal(t, "mgr-1", got.ApproverID)
	require.NotNil(t, got.DecidedAt)
	assert.True(t, got.DecidedAt.Equal(decided))
}

func TestRequestStore_UpdateUnknown_NotFound(t *testing.T) {
	store := newTestStore(t)

	err := store.Requests.Update(context.Background(), &leave.Request{ID: "req-404"})
	assert.ErrorIs(t, err, leave.ErrNotFound)
}

func TestRequestStore_Listings(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, time.January, 2, 8, 0, 0, 0, time.UTC)
	mk := func(id, emp string, status leave.Status, offset time.Duration) {
		require.NoError(t, store.Requests.Create(ctx, &leave.Request{
			ID:            id,
			EmployeeID:    emp,
			LeaveTypeCode: "CL",
			FromDate:      leave.NewDate(2026, time.February, 2),
			ToDate:        leave.NewDate(2026, time.February, 2),
			FromDayType:   leave.FullDay,
			ToDayType:     leave.FullDay,
			TotalDays:     days(1),
			Status:        status,
			SubmittedAt:   base.Add(offset),
		}))
	}
	mk("req-old", "emp-1", leave.StatusPending, 0)
	mk("req-new", "emp-1", leave.StatusApproved, time.Hour)
	mk("req-other", "emp-2", leave.StatusPending, 2*time.Hour)

	byEmployee, err := store.Requests.ListByEmployee(ctx, "emp-1")
	require.NoError(t, err)
	require.Len(t, byEmployee, 2)
	assert.Equal(t, "req-new", byEmployee[0].ID, "newest first")
	assert.Equal(t, "req-old", byEmployee[1].ID)

	pending, err := store.Requests.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "req-old", pending[0].ID, "oldest first")
	assert.Equal(t, "req-other", pending[1].ID)
}

// =============================================================================
// CATALOG
// =============================================================================

func TestCatalogStore_LeaveTypes(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	maxCarry := days(10)
	require.NoError(t, store.Catalog.PutLeaveType(ctx, leave.LeaveType{
		Code:                   "EL",
		Name:                   "Earned Leave",
		IsCarryForwardEligible: true,
		MaxCarryForwardDays:    &maxCarry,
		IsEncashable:           true,
	}))
	require.NoError(t, store.Catalog.PutLeaveType(ctx, leave.LeaveType{
		Code:                   "CL",
		Name:                   "Casual Leave",
		RequiresHalfDaySupport: true,
	}))

	el, err := store.Catalog.GetLeaveType(ctx, "EL")
	require.NoError(t, err)
	assert.True(t, el.IsCarryForwardEligible)
	require.NotNil(t, el.MaxCarryForwardDays)
	assert.True(t, el.MaxCarryForwardDays.Equal(days(10)))
	assert.True(t, el.IsEncashable)

	// Upsert replaces in place.
	require.NoError(t, store.Catalog.PutLeaveType(ctx, leave.LeaveType{
		Code: "EL",
		Name: "Earned Leave (revised)",
	}))
	el, err = store.Catalog.GetLeaveType(ctx, "EL")
	require.NoError(t, err)
	assert.Equal(t, "Earned Leave (revised)", el.Name)
	assert.Nil(t, el.MaxCarryForwardDays)

	all, err := store.Catalog.ListLeaveTypes(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "CL", all[0].Code)
	assert.Equal(t, "EL", all[1].Code)

	_, err = store.Catalog.GetLeaveType(ctx, "XX")
	assert.ErrorIs(t, err, leave.ErrNotFound)
}

func TestCatalogStore_HolidaysFilterByYear(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Catalog.AddHoliday(ctx, leave.Holiday{
		Date: leave.NewDate(2026, time.January, 26), Name: "Republic Day", Kind: leave.HolidayNational,
	}))
	require.NoError(t, store.Catalog.AddHoliday(ctx, leave.Holiday{
		Date: leave.NewDate(2026, time.January, 14), Name: "Makar Sankranti", Kind: leave.HolidayState,
	}))
	require.NoError(t, store.Catalog.AddHoliday(ctx, leave.Holiday{
		Date: leave.NewDate(2025, time.December, 25), Name: "Christmas", Kind: leave.HolidayNational,
	}))

	in2026, err := store.Catalog.ListHolidays(ctx, 2026)
	require.NoError(t, err)
	require.Len(t, in2026, 2)
	assert.Equal(t, "Makar Sankranti", in2026[0].Name, "ordered by date")
	assert.Equal(t, "Republic Day", in2026[1].Name)
	assert.Equal(t, leave.HolidayNational, in2026[1].Kind)

	all, err := store.Catalog.ListHolidays(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
