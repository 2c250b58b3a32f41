package rentcycle

import (
	"time"
)

// =============================================================================
// DATE - Day-granularity calendar date (UTC)
// =============================================================================

// Date is a calendar date with day granularity. All rent-cycle arithmetic is
// date-only; time of day never participates in comparisons.
type Date struct {
	Time time.Time
}

// Constructors
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a "2006-01-02" string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t.UTC()}, nil
}

// DateOf truncates a time.Time to its calendar date.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

func Today() Date {
	return DateOf(time.Now())
}

// Comparison
func (d Date) Before(other Date) bool        { return d.normalize().Before(other.normalize()) }
func (d Date) Equal(other Date) bool         { return d.normalize().Equal(other.normalize()) }
func (d Date) After(other Date) bool         { return d.normalize().After(other.normalize()) }
func (d Date) BeforeOrEqual(other Date) bool { return d.Before(other) || d.Equal(other) }
func (d Date) AfterOrEqual(other Date) bool  { return d.After(other) || d.Equal(other) }

func (d Date) normalize() time.Time {
	return time.Date(d.Time.Year(), d.Time.Month(), d.Time.Day(), 0, 0, 0, 0, time.UTC)
}

// Arithmetic
func (d Date) AddDays(n int) Date { return Date{Time: d.Time.AddDate(0, 0, n)} }

// AddMonths advances n calendar months, clamping the day to the target
// month's end: Jan 31 + 1 month is Feb 29 in a leap year, never Mar 2.
func (d Date) AddMonths(n int) Date {
	first := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, n, 0)
	return Date{Time: first}.OnDay(d.Day())
}

// AddYears advances n calendar years with the same day clamping,
// so Feb 29 + 1 year is Feb 28.
func (d Date) AddYears(n int) Date { return d.AddMonths(12 * n) }

// Properties
func (d Date) Year() int         { return d.Time.Year() }
func (d Date) Month() time.Month { return d.Time.Month() }
func (d Date) Day() int          { return d.Time.Day() }
func (d Date) IsZero() bool      { return d.Time.IsZero() }

func (d Date) String() string {
	return d.Time.Format("2006-01-02")
}

// MonthLabel returns the billing-period label for a monthly cycle,
// e.g. "January 2024". Payment records and arrears reports use this form.
func (d Date) MonthLabel() string {
	return d.Time.Format("January 2006")
}

// YearLabel returns the billing-period label for a yearly cycle, e.g. "2024".
func (d Date) YearLabel() string {
	return d.Time.Format("2006")
}

// DaysInMonth returns the number of days in d's month.
func (d Date) DaysInMonth() int {
	return time.Date(d.Year(), d.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// OnDay returns the date in d's month with the given day-of-month,
// clamped to the last day of the month. This is the calendar-safe way to
// place a due day: OnDay(31) in February yields Feb 28/29, never an
// invalid date normalized into March.
func (d Date) OnDay(day int) Date {
	if max := d.DaysInMonth(); day > max {
		day = max
	}
	return NewDate(d.Year(), d.Month(), day)
}

// StartOfMonth returns the first day of d's month.
func (d Date) StartOfMonth() Date {
	return NewDate(d.Year(), d.Month(), 1)
}

// EndOfMonth returns the last day of d's month.
func (d Date) EndOfMonth() Date {
	return NewDate(d.Year(), d.Month(), d.DaysInMonth())
}

// SameMonth reports whether two dates fall in the same calendar month.
func (d Date) SameMonth(other Date) bool {
	return d.Year() == other.Year() && d.Month() == other.Month()
}

// DaysBetween returns the whole days from 'from' to 'to'.
func DaysBetween(from, to Date) int {
	return int(to.normalize().Sub(from.normalize()).Hours() / 24)
}
