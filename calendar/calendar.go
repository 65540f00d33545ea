/*
Package calendar projects requests and holidays onto a month grid.

PURPOSE:
  Pure, side-effect-free projection of a display month into an ordered
  sequence of days for rendering: weekend flags, the matching holiday, and
  every leave span overlapping each date.

GRID SHAPE:
  The window is the month padded to full weeks: it starts on the Sunday on
  or before the 1st and ends on the Saturday on or after the last day, so
  the result length is always a multiple of 7. This fixes the ragged-grid
  bug for months starting mid-week.

PURITY:
  Project performs no caching and reads no state; identical inputs produce
  identical output. It is safe to call from any number of goroutines. The
  projector never mutates requests or holidays.

SEE ALSO:
  - leave/types.go: Request and Holiday inputs
*/
package calendar

import (
	"sort"
	"time"

	"github.com/warp/leave-engine/leave"
)

// =============================================================================
// DAY - One grid cell
// =============================================================================

// Day is one cell of the projected grid. Recomputed on every call, never
// persisted.
type Day struct {
	Date      leave.Date
	InMonth   bool // false on the padding days of adjacent months
	IsToday   bool
	IsWeekend bool
	Holiday   *leave.Holiday
	Requests  []*leave.Request
}

// =============================================================================
// PROJECTION
// =============================================================================

// Project builds the padded grid for a month using the current date for the
// IsToday flag.
func Project(year int, month time.Month, requests []*leave.Request, holidays []leave.Holiday) []Day {
	return ProjectAt(leave.Today(), year, month, requests, holidays)
}

// ProjectAt is Project with an explicit "today", for deterministic tests and
// callers rendering in a fixed timezone.
func ProjectAt(today leave.Date, year int, month time.Month, requests []*leave.Request, holidays []leave.Holiday) []Day {
	first := leave.NewDate(year, month, 1)
	last := first.AddDays(daysInMonth(year, month) - 1)

	// Pad to full weeks: Sunday on/before the 1st, Saturday on/after the last.
	start := first.AddDays(-int(first.Weekday()))
	end := last.AddDays(int(time.Saturday - last.Weekday()))

	// Deterministic span order regardless of input order.
	spans := make([]*leave.Request, len(requests))
	copy(spans, requests)
	sort.SliceStable(spans, func(i, j int) bool {
		if !spans[i].FromDate.Equal(spans[j].FromDate) {
			return spans[i].FromDate.Before(spans[j].FromDate)
		}
		return spans[i].ID < spans[j].ID
	})

	var days []Day
	for d := start; d.BeforeOrEqual(end); d = d.AddDays(1) {
		day := Day{
			Date:      d,
			InMonth:   d.Month() == month && d.Year() == year,
			IsToday:   d.Equal(today),
			IsWeekend: d.IsWeekend(),
		}

		// Zero or one holiday per day; first match wins when the caller
		// supplies duplicates.
		for i := range holidays {
			if holidays[i].Date.Equal(d) {
				day.Holiday = &holidays[i]
				break
			}
		}

		for _, req := range spans {
			if req.Covers(d) {
				day.Requests = append(day.Requests, req)
			}
		}

		days = append(days, day)
	}
	return days
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
