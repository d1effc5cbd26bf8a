package daterange

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNew_TruncatesTimeOfDay(t *testing.T) {
	start := time.Date(2026, 6, 10, 14, 30, 12, 0, time.UTC)
	end := time.Date(2026, 6, 15, 9, 0, 0, 0, time.UTC)

	dr, err := New(start, end)
	require.NoError(t, err)
	assert.Equal(t, day(2026, 6, 10), dr.Start)
	assert.Equal(t, day(2026, 6, 15), dr.End)
	assert.Equal(t, 5, dr.Days())
}

func TestNew_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		start time.Time
		end   time.Time
	}{
		{name: "end before start", start: day(2026, 6, 15), end: day(2026, 6, 10)},
		{name: "equal bounds", start: day(2026, 6, 10), end: day(2026, 6, 10)},
		{name: "zero start", end: day(2026, 6, 10)},
		{name: "same day different hours", start: time.Date(2026, 6, 10, 1, 0, 0, 0, time.UTC), end: time.Date(2026, 6, 10, 23, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.start, tt.end)
			assert.ErrorIs(t, err, ErrInvalidRange)
		})
	}
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name string
		a, b DateRange
		want bool
	}{
		{
			name: "partial overlap",
			a:    DateRange{Start: day(2026, 6, 10), End: day(2026, 6, 15)},
			b:    DateRange{Start: day(2026, 6, 12), End: day(2026, 6, 20)},
			want: true,
		},
		{
			name: "contained",
			a:    DateRange{Start: day(2026, 6, 10), End: day(2026, 6, 20)},
			b:    DateRange{Start: day(2026, 6, 12), End: day(2026, 6, 14)},
			want: true,
		},
		{
			name: "back to back dropoff and pickup",
			a:    DateRange{Start: day(2026, 6, 10), End: day(2026, 6, 15)},
			b:    DateRange{Start: day(2026, 6, 15), End: day(2026, 6, 18)},
			want: false,
		},
		{
			name: "disjoint",
			a:    DateRange{Start: day(2026, 6, 10), End: day(2026, 6, 12)},
			b:    DateRange{Start: day(2026, 6, 20), End: day(2026, 6, 22)},
			want: false,
		},
		{
			name: "identical",
			a:    DateRange{Start: day(2026, 6, 10), End: day(2026, 6, 15)},
			b:    DateRange{Start: day(2026, 6, 10), End: day(2026, 6, 15)},
			want: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Overlaps(tt.b))
			// The predicate is symmetric.
			assert.Equal(t, tt.want, tt.b.Overlaps(tt.a))
		})
	}
}

func TestContainsDay(t *testing.T) {
	dr := DateRange{Start: day(2026, 6, 10), End: day(2026, 6, 15)}
	assert.True(t, dr.ContainsDay(day(2026, 6, 10)))
	assert.True(t, dr.ContainsDay(time.Date(2026, 6, 14, 23, 59, 0, 0, time.UTC)))
	assert.False(t, dr.ContainsDay(day(2026, 6, 15)))
	assert.False(t, dr.ContainsDay(day(2026, 6, 9)))
}

func TestSingle(t *testing.T) {
	dr := Single(time.Date(2026, 6, 20, 18, 45, 0, 0, time.UTC))
	assert.Equal(t, day(2026, 6, 20), dr.Start)
	assert.Equal(t, day(2026, 6, 21), dr.End)
	assert.Equal(t, 1, dr.Days())
}
