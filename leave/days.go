/*
days.go - Day counting and span overlap rules

PURPOSE:
  Implements the two arithmetic rules every component must agree on:
  1. How many days a span consumes (inclusive count, minus 0.5 per
     half-day endpoint)
  2. When two spans conflict (any date intersection, except opposite
     halves of one shared date)

HALF-DAY SEMANTICS:
  A half-day endpoint means the leave occupies only that half of the
  boundary date. Two requests can therefore share a date when one takes
  the first half and the other the second half:

    [Jan 10 ........ Jan 12(secondHalf)]
                     [Jan 12(firstHalf) ........ Jan 14]   <- no conflict

  Any other shared date is a conflict.

SINGLE-DAY SPANS:
  When from == to, both endpoint markers describe the same date and must
  agree: (full, full) is one day, (firstHalf, firstHalf) or
  (secondHalf, secondHalf) is half a day. Mixing opposite halves on a
  single date is rejected.

SEE ALSO:
  - types.go: DayType and Request definitions
  - errors.go: ValidationError returned on malformed spans
*/
package leave

import "github.com/shopspring/decimal"

var half = decimal.NewFromFloat(0.5)

// =============================================================================
// TOTAL DAYS
// =============================================================================

// TotalDays computes the day count a span consumes: the inclusive number of
// calendar days between from and to, minus 0.5 for each half-day endpoint.
// Fails with ValidationError when the span is malformed or counts to zero.
func TotalDays(from, to Date, fromType, toType DayType) (decimal.Decimal, error) {
	if !fromType.Valid() || !toType.Valid() {
		return decimal.Zero, &ValidationError{Field: "dayType", Message: "unknown day type"}
	}
	if to.Before(from) {
		return decimal.Zero, &ValidationError{Field: "toDate", Message: "to date before from date"}
	}

	days := decimal.NewFromInt(int64(DaysBetween(from, to)))

	if from.Equal(to) {
		switch {
		case fromType == FullDay && toType == FullDay:
			// one full day
		case fromType == toType:
			days = days.Sub(half)
		case fromType == FullDay || toType == FullDay:
			// one marker set, the other left at full: a single half day
			days = days.Sub(half)
		default:
			return decimal.Zero, &ValidationError{
				Field:   "dayType",
				Message: "single-day span cannot mix first and second half",
			}
		}
	} else {
		if fromType.IsHalf() {
			days = days.Sub(half)
		}
		if toType.IsHalf() {
			days = days.Sub(half)
		}
	}

	if !days.IsPositive() {
		return decimal.Zero, &ValidationError{Field: "totalDays", Message: "span consumes no days"}
	}
	return days, nil
}

// =============================================================================
// SPAN OVERLAP
// =============================================================================

// dayOccupancy is how much of one calendar date a span occupies.
type dayOccupancy int

const (
	occupiesNone dayOccupancy = iota
	occupiesFirstHalf
	occupiesSecondHalf
	occupiesFull
)

// occupancyOn returns how much of date d the span [from, to] occupies.
func occupancyOn(d, from, to Date, fromType, toType DayType) dayOccupancy {
	if d.Before(from) || d.After(to) {
		return occupiesNone
	}

	if from.Equal(to) {
		// Single-day span: the half markers agree (enforced by TotalDays).
		if fromType.IsHalf() {
			return halfOccupancy(fromType)
		}
		if toType.IsHalf() {
			return halfOccupancy(toType)
		}
		return occupiesFull
	}

	switch {
	case d.Equal(from) && fromType.IsHalf():
		return halfOccupancy(fromType)
	case d.Equal(to) && toType.IsHalf():
		return halfOccupancy(toType)
	default:
		return occupiesFull
	}
}

func halfOccupancy(t DayType) dayOccupancy {
	if t == FirstHalf {
		return occupiesFirstHalf
	}
	return occupiesSecondHalf
}

func (a dayOccupancy) conflictsWith(b dayOccupancy) bool {
	if a == occupiesNone || b == occupiesNone {
		return false
	}
	if a == occupiesFull || b == occupiesFull {
		return true
	}
	return a == b
}

// SpansOverlap reports whether two requests occupy any common part of a
// common date. A shared date where one request takes the first half and the
// other the second half is not a conflict.
func SpansOverlap(a, b *Request) bool {
	// Cheap reject: no date intersection at all.
	if a.ToDate.Before(b.FromDate) || b.ToDate.Before(a.FromDate) {
		return false
	}

	start := a.FromDate
	if b.FromDate.After(start) {
		start = b.FromDate
	}
	end := a.ToDate
	if b.ToDate.Before(end) {
		end = b.ToDate
	}

	for d := start; d.BeforeOrEqual(end); d = d.AddDays(1) {
		occA := occupancyOn(d, a.FromDate, a.ToDate, a.FromDayType, a.ToDayType)
		occB := occupancyOn(d, b.FromDate, b.ToDate, b.FromDayType, b.ToDayType)
		if occA.conflictsWith(occB) {
			return true
		}
	}
	return false
}
