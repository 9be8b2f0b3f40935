package generic

import (
	"time"
)

// =============================================================================
// DATE - Calendar date with no time-of-day or zone component
// =============================================================================

// DateLayout is the wire format for every date in the system.
const DateLayout = "2006-01-02"

// Date is a calendar day. The underlying time is always midnight UTC.
type Date struct {
	Time time.Time
}

// NewDate builds a Date from its components.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf normalizes any time to the start of its calendar day, keeping
// the wall-clock date it had in its own location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, err
	}
	return DateOf(t), nil
}

// MustParseDate parses a date or panics. Use in tests and fixtures.
func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Comparison
func (d Date) Before(o Date) bool        { return d.Time.Before(o.Time) }
func (d Date) After(o Date) bool         { return d.Time.After(o.Time) }
func (d Date) Equal(o Date) bool         { return d.Time.Equal(o.Time) }
func (d Date) BeforeOrEqual(o Date) bool { return !d.After(o) }

// Properties
func (d Date) Year() int         { return d.Time.Year() }
func (d Date) Month() time.Month { return d.Time.Month() }
func (d Date) Day() int          { return d.Time.Day() }
func (d Date) IsZero() bool      { return d.Time.IsZero() }
func (d Date) String() string    { return d.Time.Format(DateLayout) }

// =============================================================================
// TIME UTILITIES
// =============================================================================

// DaysBetween returns the number of whole days from -> to (negative if to is earlier).
// Both dates are midnight UTC; time.Duration would overflow past ~292 years.
func DaysBetween(from, to Date) int {
	return int((to.Time.Unix() - from.Time.Unix()) / secondsPerDay)
}

const secondsPerDay = 24 * 60 * 60

// InclusiveDays counts calendar days in [start, end]. A zero end means a
// single-day range. Both ends are normalized to the start of the day
// before differencing.
func InclusiveDays(start Date, end *Date) int {
	last := start
	if end != nil && !end.IsZero() {
		last = *end
	}
	return DaysBetween(DateOf(start.Time), DateOf(last.Time)) + 1
}

func StartOfYear(year int) Date { return NewDate(year, time.January, 1) }
func EndOfYear(year int) Date   { return NewDate(year, time.December, 31) }

// Overlaps reports whether [aStart, aEnd] and [bStart, bEnd] share at least one day.
func Overlaps(aStart, aEnd, bStart, bEnd Date) bool {
	return aStart.BeforeOrEqual(bEnd) && bStart.BeforeOrEqual(aEnd)
}
