package leave_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/leave-engine/leave"
)

// =============================================================================
// TOTAL DAYS
// =============================================================================

func TestTotalDays(t *testing.T) {
	jan5 := leave.NewDate(2026, time.January, 5)
	jan9 := leave.NewDate(2026, time.January, 9)

	tests := []struct {
		name     string
		from, to leave.Date
		fromType leave.DayType
		toType   leave.DayType
		want     string
	}{
		{"five full days", jan5, jan9, leave.FullDay, leave.FullDay, "5"},
		{"single full day", jan5, jan5, leave.FullDay, leave.FullDay, "1"},
		{"single first half", jan5, jan5, leave.FirstHalf, leave.FirstHalf, "0.5"},
		{"single second half", jan5, jan5, leave.SecondHalf, leave.SecondHalf, "0.5"},
		{"single half with one marker", jan5, jan5, leave.FirstHalf, leave.FullDay, "0.5"},
		{"start afternoon", jan5, jan9, leave.SecondHalf, leave.FullDay, "4.5"},
		{"end midday", jan5, jan9, leave.FullDay, leave.FirstHalf, "4.5"},
		{"both halves", jan5, jan9, leave.SecondHalf, leave.FirstHalf, "4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := leave.TotalDays(tt.from, tt.to, tt.fromType, tt.toType)
			require.NoError(t, err)
			want, err := decimal.NewFromString(tt.want)
			require.NoError(t, err)
			assert.True(t, got.Equal(want), "want %s, got %s", want, got)
		})
	}
}

func TestTotalDays_InvalidSpans(t *testing.T) {
	jan5 := leave.NewDate(2026, time.January, 5)
	jan9 := leave.NewDate(2026, time.January, 9)

	tests := []struct {
		name     string
		from, to leave.Date
		fromType leave.DayType
		toType   leave.DayType
	}{
		{"to before from", jan9, jan5, leave.FullDay, leave.FullDay},
		{"mixed halves on one day", jan5, jan5, leave.FirstHalf, leave.SecondHalf},
		{"unknown day type", jan5, jan9, leave.DayType("morning"), leave.FullDay},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := leave.TotalDays(tt.from, tt.to, tt.fromType, tt.toType)
			assert.ErrorIs(t, err, leave.ErrValidation)
		})
	}
}

// =============================================================================
// SPAN OVERLAP
// =============================================================================

func span(from, to leave.Date, fromType, toType leave.DayType) *leave.Request {
	return &leave.Request{
		FromDate:    from,
		ToDate:      to,
		FromDayType: fromType,
		ToDayType:   toType,
		Status:      leave.StatusPending,
	}
}

func TestSpansOverlap(t *testing.T) {
	jan10 := leave.NewDate(2026, time.January, 10)
	jan12 := leave.NewDate(2026, time.January, 12)
	jan14 := leave.NewDate(2026, time.January, 14)
	jan20 := leave.NewDate(2026, time.January, 20)
	jan22 := leave.NewDate(2026, time.January, 22)

	t.Run("disjoint ranges do not overlap", func(t *testing.T) {
		a := span(jan10, jan12, leave.FullDay, leave.FullDay)
		b := span(jan20, jan22, leave.FullDay, leave.FullDay)
		assert.False(t, leave.SpansOverlap(a, b))
	})

	t.Run("shared full boundary day overlaps", func(t *testing.T) {
		// [01-10, 01-12] and [01-12, 01-14] both claim 01-12 in full.
		a := span(jan10, jan12, leave.FullDay, leave.FullDay)
		b := span(jan12, jan14, leave.FullDay, leave.FullDay)
		assert.True(t, leave.SpansOverlap(a, b))
		assert.True(t, leave.SpansOverlap(b, a))
	})

	t.Run("opposite halves on shared day do not overlap", func(t *testing.T) {
		// First request ends with the second half of 01-12, second starts
		// with the first half of the same day.
		a := span(jan10, jan12, leave.FullDay, leave.SecondHalf)
		b := span(jan12, jan14, leave.FirstHalf, leave.FullDay)
		assert.False(t, leave.SpansOverlap(a, b))
		assert.False(t, leave.SpansOverlap(b, a))
	})

	t.Run("same half on shared day overlaps", func(t *testing.T) {
		a := span(jan10, jan12, leave.FullDay, leave.FirstHalf)
		b := span(jan12, jan14, leave.FirstHalf, leave.FullDay)
		assert.True(t, leave.SpansOverlap(a, b))
	})

	t.Run("half against full on shared day overlaps", func(t *testing.T) {
		a := span(jan10, jan12, leave.FullDay, leave.SecondHalf)
		b := span(jan12, jan14, leave.FullDay, leave.FullDay)
		assert.True(t, leave.SpansOverlap(a, b))
	})

	t.Run("containment overlaps", func(t *testing.T) {
		a := span(jan10, jan14, leave.FullDay, leave.FullDay)
		b := span(jan12, jan12, leave.FirstHalf, leave.FirstHalf)
		assert.True(t, leave.SpansOverlap(a, b))
	})

	t.Run("two half-day requests on same date opposite halves coexist", func(t *testing.T) {
		a := span(jan12, jan12, leave.FirstHalf, leave.FirstHalf)
		b := span(jan12, jan12, leave.SecondHalf, leave.SecondHalf)
		assert.False(t, leave.SpansOverlap(a, b))
	})
}

// =============================================================================
// DATES
// =============================================================================

func TestDaysBetween(t *testing.T) {
	jan5 := leave.NewDate(2026, time.January, 5)
	assert.Equal(t, 1, leave.DaysBetween(jan5, jan5))
	assert.Equal(t, 5, leave.DaysBetween(jan5, jan5.AddDays(4)))
	assert.Equal(t, 0, leave.DaysBetween(jan5, jan5.AddDays(-1)))
}

func TestDateJSONRoundTrip(t *testing.T) {
	d := leave.NewDate(2026, time.March, 7)
	data, err := d.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"2026-03-07"`, string(data))

	var parsed leave.Date
	require.NoError(t, parsed.UnmarshalJSON(data))
	assert.True(t, parsed.Equal(d))
}
