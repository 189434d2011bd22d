package calendar

import (
	"fmt"
	"time"
)

// Range is a closed interval of days.
type Range struct {
	Start Date
	End   Date
}

// NewRange validates that end is not before start.
func NewRange(start, end Date) (Range, error) {
	if end.Before(start) {
		return Range{}, fmt.Errorf("%w: %s > %s", ErrInvalidRange, start, end)
	}
	return Range{Start: start, End: end}, nil
}

// MonthRange returns the closed range covering the given month.
func MonthRange(year, month int) (Range, error) {
	first, last, err := MonthBounds(year, time.Month(month))
	if err != nil {
		return Range{}, err
	}
	return Range{Start: first, End: last}, nil
}

// Occupied returns the days an entry with an optional end occupies. A missing
// end marks a point entry that occupies only its start day.
func Occupied(start Date, end *Date) Range {
	if end == nil || end.IsZero() {
		return Range{Start: start, End: start}
	}
	return Range{Start: start, End: *end}
}

// Contains reports whether d falls inside r, endpoints included.
func (r Range) Contains(d Date) bool {
	return !d.Before(r.Start) && !d.After(r.End)
}

// Overlaps reports whether r and other share at least one day.
func (r Range) Overlaps(other Range) bool {
	return Overlaps(r.Start, r.End, other.Start, other.End)
}

// Days returns the number of days in r, endpoints included.
func (r Range) Days() int {
	return r.Start.DaysUntil(r.End) + 1
}

func (r Range) String() string {
	return r.Start.String() + ".." + r.End.String()
}

// Overlaps is the closed-interval intersection test aStart <= bEnd && aEnd >= bStart.
func Overlaps(aStart, aEnd, bStart, bEnd Date) bool {
	return !aStart.After(bEnd) && !aEnd.Before(bStart)
}
