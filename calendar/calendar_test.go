package calendar_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/leave-engine/calendar"
	"github.com/warp/leave-engine/leave"
)

// =============================================================================
// GRID SHAPE
// =============================================================================

func TestProjectAt_PadsToFullWeeks(t *testing.T) {
	// January 2026 starts on a Thursday, so the grid must reach back to
	// Sunday 2025-12-28 and run through Saturday 2026-01-31.

	today := leave.NewDate(2026, time.January, 15)
	days := calendar.ProjectAt(today, 2026, time.January, nil, nil)

	require.NotEmpty(t, days)
	assert.Zero(t, len(days)%7, "grid length must be a multiple of 7, got %d", len(days))

	first := days[0]
	assert.Equal(t, time.Sunday, first.Date.Weekday())
	assert.True(t, first.Date.Equal(leave.NewDate(2025, time.December, 28)))
	assert.False(t, first.InMonth)

	last := days[len(days)-1]
	assert.Equal(t, time.Saturday, last.Date.Weekday())
	assert.True(t, last.Date.Equal(leave.NewDate(2026, time.January, 31)))
	assert.True(t, last.InMonth)
}

func TestProjectAt_GridIsContiguous(t *testing.T) {
	today := leave.NewDate(2026, time.February, 10)
	days := calendar.ProjectAt(today, 2026, time.February, nil, nil)

	for i := 1; i < len(days); i++ {
		assert.True(t, days[i].Date.Equal(days[i-1].Date.AddDays(1)),
			"gap between %s and %s", days[i-1].Date, days[i].Date)
	}
}

func TestProjectAt_MarksTodayAndWeekends(t *testing.T) {
	today := leave.NewDate(2026, time.January, 15)
	days := calendar.ProjectAt(today, 2026, time.January, nil, nil)

	todayCount := 0
	for _, d := range days {
		if d.IsToday {
			todayCount++
			assert.True(t, d.Date.Equal(today))
		}
		wd := d.Date.Weekday()
		assert.Equal(t, wd == time.Saturday || wd == time.Sunday, d.IsWeekend)
	}
	assert.Equal(t, 1, todayCount)
}

func TestProjectAt_TodayOutsideMonth_NotMarked(t *testing.T) {
	today := leave.NewDate(2026, time.June, 1)
	days := calendar.ProjectAt(today, 2026, time.January, nil, nil)

	for _, d := range days {
		assert.False(t, d.IsToday)
	}
}

// =============================================================================
// HOLIDAYS
// =============================================================================

func TestProjectAt_AttachesHolidays(t *testing.T) {
	holidays := []leave.Holiday{
		{Date: leave.NewDate(2026, time.January, 14), Name: "Makar Sankranti", Kind: leave.HolidayState},
		{Date: leave.NewDate(2026, time.January, 26), Name: "Republic Day", Kind: leave.HolidayNational},
	}

	today := leave.NewDate(2026, time.January, 15)
	days := calendar.ProjectAt(today, 2026, time.January, nil, holidays)

	found := map[string]string{}
	for _, d := range days {
		if d.Holiday != nil {
			found[d.Date.String()] = d.Holiday.Name
		}
	}
	assert.Equal(t, map[string]string{
		"2026-01-14": "Makar Sankranti",
		"2026-01-26": "Republic Day",
	}, found)
}

// =============================================================================
// LEAVE SPANS
// =============================================================================

func TestProjectAt_AttachesCoveringRequests(t *testing.T) {
	req := &leave.Request{
		ID:          "req-1",
		EmployeeID:  "emp-1",
		FromDate:    leave.NewDate(2026, time.January, 12),
		ToDate:      leave.NewDate(2026, time.January, 14),
		FromDayType: leave.FullDay,
		ToDayType:   leave.FullDay,
		Status:      leave.StatusApproved,
	}

	today := leave.NewDate(2026, time.January, 5)
	days := calendar.ProjectAt(today, 2026, time.January, []*leave.Request{req}, nil)

	covered := 0
	for _, d := range days {
		if len(d.Requests) > 0 {
			covered++
			assert.Equal(t, "req-1", d.Requests[0].ID)
			assert.True(t, d.Date.AfterOrEqual(req.FromDate))
			assert.True(t, d.Date.BeforeOrEqual(req.ToDate))
		}
	}
	assert.Equal(t, 3, covered)
}

func TestProjectAt_OppositeHalfDayRequestsShareADate(t *testing.T) {
	// Two half-day requests on the same date both render on that cell.

	jan12 := leave.NewDate(2026, time.January, 12)
	morning := &leave.Request{
		ID: "req-a", EmployeeID: "emp-1",
		FromDate: jan12, ToDate: jan12,
		FromDayType: leave.FirstHalf, ToDayType: leave.FirstHalf,
		Status: leave.StatusApproved,
	}
	afternoon := &leave.Request{
		ID: "req-b", EmployeeID: "emp-1",
		FromDate: jan12, ToDate: jan12,
		FromDayType: leave.SecondHalf, ToDayType: leave.SecondHalf,
		Status: leave.StatusPending,
	}

	today := leave.NewDate(2026, time.January, 5)
	days := calendar.ProjectAt(today, 2026, time.January,
		[]*leave.Request{afternoon, morning}, nil)

	var cell *calendar.Day
	for i := range days {
		if days[i].Date.Equal(jan12) {
			cell = &days[i]
			break
		}
	}
	require.NotNil(t, cell)
	require.Len(t, cell.Requests, 2)
	// Sorted by FromDate then ID, regardless of input order.
	assert.Equal(t, "req-a", cell.Requests[0].ID)
	assert.Equal(t, "req-b", cell.Requests[1].ID)
}

func TestProjectAt_IgnoresSpansOutsideWindow(t *testing.T) {
	req := &leave.Request{
		ID:          "req-march",
		FromDate:    leave.NewDate(2026, time.March, 2),
		ToDate:      leave.NewDate(2026, time.March, 6),
		FromDayType: leave.FullDay,
		ToDayType:   leave.FullDay,
		Status:      leave.StatusApproved,
	}

	today := leave.NewDate(2026, time.January, 5)
	days := calendar.ProjectAt(today, 2026, time.January, []*leave.Request{req}, nil)

	for _, d := range days {
		assert.Empty(t, d.Requests)
	}
}
