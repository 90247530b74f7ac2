package generic

import (
	"time"
)

// =============================================================================
// TIME POINT - Day-granular date used for every scheduling decision
// =============================================================================

// TimePoint is a calendar date. Occurrences, due dates and sweeps are all
// decided at day granularity; the time-of-day is never significant.
type TimePoint struct {
	Time time.Time
}

const dateLayout = "2006-01-02"

// Constructors
func NewTimePoint(year int, month time.Month, day int) TimePoint {
	return TimePoint{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf drops the time-of-day of t (in t's own location) and returns the date.
func DateOf(t time.Time) TimePoint {
	return NewTimePoint(t.Year(), t.Month(), t.Day())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (TimePoint, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return TimePoint{}, err
	}
	return DateOf(t), nil
}

// Comparison
func (tp TimePoint) Before(other TimePoint) bool        { return tp.normalize().Before(other.normalize()) }
func (tp TimePoint) Equal(other TimePoint) bool         { return tp.normalize().Equal(other.normalize()) }
func (tp TimePoint) After(other TimePoint) bool         { return tp.normalize().After(other.normalize()) }
func (tp TimePoint) BeforeOrEqual(other TimePoint) bool { return !tp.After(other) }
func (tp TimePoint) AfterOrEqual(other TimePoint) bool  { return !tp.Before(other) }

func (tp TimePoint) normalize() time.Time {
	return time.Date(tp.Time.Year(), tp.Time.Month(), tp.Time.Day(), 0, 0, 0, 0, time.UTC)
}

// Arithmetic
func (tp TimePoint) AddDays(n int) TimePoint { return DateOf(tp.normalize().AddDate(0, 0, n)) }

// Properties
func (tp TimePoint) Year() int             { return tp.Time.Year() }
func (tp TimePoint) Month() time.Month     { return tp.Time.Month() }
func (tp TimePoint) Day() int              { return tp.Time.Day() }
func (tp TimePoint) Weekday() time.Weekday { return tp.Time.Weekday() }
func (tp TimePoint) IsWeekend() bool {
	wd := tp.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}
func (tp TimePoint) IsBusinessDay() bool { return !tp.IsWeekend() }
func (tp TimePoint) IsZero() bool        { return tp.Time.IsZero() }

// StartOfDay returns midnight UTC of the date, the boundary used by the
// overdue sweep.
func (tp TimePoint) StartOfDay() time.Time { return tp.normalize() }

func (tp TimePoint) String() string { return tp.Time.Format(dateLayout) }

// =============================================================================
// CALENDAR UTILITIES
// =============================================================================
// Business days are Monday to Friday. Holidays are not modeled.

func DaysBetween(from, to TimePoint) int {
	return int(to.normalize().Sub(from.normalize()).Hours() / 24)
}

func StartOfMonth(year int, month time.Month) TimePoint { return NewTimePoint(year, month, 1) }

func EndOfMonth(year int, month time.Month) TimePoint {
	return DateOf(time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1))
}

func DaysInMonth(year int, month time.Month) int { return EndOfMonth(year, month).Day() }

// IsBusinessDay reports whether the date falls on a weekday.
func IsBusinessDay(tp TimePoint) bool { return tp.IsBusinessDay() }

// ClampDay returns day-of-month `day` in the given month, clamped down to the
// month's last day. Day 31 in February yields the 28th or 29th.
func ClampDay(year int, month time.Month, day int) TimePoint {
	if last := DaysInMonth(year, month); day > last {
		day = last
	}
	if day < 1 {
		day = 1
	}
	return NewTimePoint(year, month, day)
}

// LastBusinessDay walks backward from the end of the month until it finds a
// weekday.
func LastBusinessDay(year int, month time.Month) TimePoint {
	d := EndOfMonth(year, month)
	for !d.IsBusinessDay() {
		d = d.AddDays(-1)
	}
	return d
}

// NthBusinessDay returns the n-th (1-based) business day of the month, or the
// last business day when n is -1. When the month has fewer than n business
// days the last business day is returned; the result never leaves the month.
func NthBusinessDay(year int, month time.Month, n int) TimePoint {
	if n == -1 {
		return LastBusinessDay(year, month)
	}

	count := 0
	d := StartOfMonth(year, month)
	last := EndOfMonth(year, month)
	for d.BeforeOrEqual(last) {
		if d.IsBusinessDay() {
			count++
			if count == n {
				return d
			}
		}
		d = d.AddDays(1)
	}
	return LastBusinessDay(year, month)
}

// =============================================================================
// CLOCK - Injected source of "now"
// =============================================================================

// Clock supplies the current instant. Scheduling code never reads the wall
// clock directly so tests can pin any reference date.
type Clock interface {
	Now() time.Time
	Today() TimePoint
}

// SystemClock reads the wall clock in a fixed location.
type SystemClock struct {
	Location *time.Location
}

func (c SystemClock) Now() time.Time {
	if c.Location != nil {
		return time.Now().In(c.Location)
	}
	return time.Now().UTC()
}

func (c SystemClock) Today() TimePoint { return DateOf(c.Now()) }

// FixedClock always returns the same instant.
type FixedClock struct {
	At time.Time
}

func NewFixedClock(year int, month time.Month, day int) FixedClock {
	return FixedClock{At: time.Date(year, month, day, 9, 0, 0, 0, time.UTC)}
}

func (c FixedClock) Now() time.Time   { return c.At }
func (c FixedClock) Today() TimePoint { return DateOf(c.At) }
