package daterange

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidRange = errors.New("daterange: end must be after start")
)

// DateRange represents a half-open interval [Start, End) of calendar days.
// Both bounds are normalized to UTC midnight at construction; the engine never
// compares times of day.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// New builds a validated range. Any time-of-day component on either bound is
// truncated before validation, so a caller passing timestamps gets calendar
// semantics without having to normalize first.
func New(start, end time.Time) (DateRange, error) {
	dr := DateRange{Start: TruncateDay(start), End: TruncateDay(end)}
	if err := dr.Validate(); err != nil {
		return DateRange{}, err
	}
	return dr, nil
}

// TruncateDay drops the time-of-day component, keeping the UTC calendar date.
func TruncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func (dr DateRange) Validate() error {
	if dr.Start.IsZero() || dr.End.IsZero() {
		return ErrInvalidRange
	}
	if !dr.End.After(dr.Start) {
		return ErrInvalidRange
	}
	return nil
}

// Days returns the number of whole days covered by the range.
func (dr DateRange) Days() int {
	return int(dr.End.Sub(dr.Start).Hours() / 24)
}

// Overlaps is the single overlap predicate for the whole engine. Two half-open
// ranges overlap iff each starts before the other ends, so a dropoff on day X
// and a pickup on day X never conflict.
func (dr DateRange) Overlaps(other DateRange) bool {
	return dr.Start.Before(other.End) && other.Start.Before(dr.End)
}

func (dr DateRange) Contains(other DateRange) bool {
	return !dr.Start.After(other.Start) && !dr.End.Before(other.End)
}

// ContainsDay reports whether the calendar day of t falls inside the range.
func (dr DateRange) ContainsDay(t time.Time) bool {
	day := TruncateDay(t)
	return !day.Before(dr.Start) && day.Before(dr.End)
}

// Single wraps one calendar day as a [day, day+1) range, which lets blocked
// days share the same overlap predicate as reservations.
func Single(day time.Time) DateRange {
	start := TruncateDay(day)
	return DateRange{Start: start, End: start.AddDate(0, 0, 1)}
}

func (dr DateRange) String() string {
	return fmt.Sprintf("[%s, %s)", dr.Start.Format("2006-01-02"), dr.End.Format("2006-01-02"))
}
