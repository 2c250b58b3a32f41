/*
schedule.go - Due-Date Calculator

PURPOSE:
  Computes the first due date for a new tenancy and, for monthly cycles
  starting after the due day, the prorated charge for the partial first
  month.

RULES:
  Yearly:  first due date = start + 1 year. No proration.
  Monthly: the due day anchors the cycle.
    start.day <= dueDay  -> due this month on the due day, no proration
    start.day >  dueDay  -> due next month on the due day; the partial
                            first month is charged pro rata by days
                            occupied (inclusive of the start day),
                            rounded half-up to a whole unit.

  Due days that exceed a month's length clamp to the month's last day,
  so dueDay=31 is always calendar-safe.
*/
package rentcycle

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Schedule is the fully-determined first billing schedule for a tenancy.
type Schedule struct {
	NextDueDate Date

	// Prorated is the partial first-month charge, nil when the tenancy
	// starts on or before the due day (or the cycle is yearly).
	Prorated *Money

	// ProratedLabel describes the partial period covered by the prorated
	// charge, e.g. "Prorated rent for Jan 20 - Jan 31, 2024 (39% of monthly rent)".
	// Recorded as the first payment's note.
	ProratedLabel string
}

// InitialSchedule computes the first due date and proration for a tenancy
// starting on 'start' with the given billing frequency, contractual due
// day (1-31), and base rent.
func InitialSchedule(start Date, freq Frequency, dueDay int, rent Money) (Schedule, error) {
	if start.IsZero() {
		return Schedule{}, fmt.Errorf("start date: %w", ErrInvalidDate)
	}
	if !freq.Valid() {
		return Schedule{}, fmt.Errorf("frequency %q: %w", freq, ErrInvalidDate)
	}
	if dueDay < 1 || dueDay > 31 {
		return Schedule{}, &InvalidDueDayError{DueDay: dueDay}
	}
	if rent.IsNegative() || rent.IsZero() {
		return Schedule{}, fmt.Errorf("rent amount must be positive: %w", ErrNegativeAmount)
	}

	if freq == Yearly {
		return Schedule{NextDueDate: start.AddYears(1)}, nil
	}

	dueInStartMonth := start.OnDay(dueDay)
	if start.Day() <= dueInStartMonth.Day() {
		// First full cycle begins immediately.
		return Schedule{NextDueDate: dueInStartMonth}, nil
	}

	// Started after the due day: defer the first full cycle one month and
	// charge the partial first month pro rata. Anchor on the first of the
	// month so a Jan 30 start can't normalize past February.
	next := start.StartOfMonth().AddMonths(1).OnDay(dueDay)

	daysInMonth := start.DaysInMonth()
	daysOccupied := daysInMonth - start.Day() + 1 // inclusive of start day
	prorated := rent.
		Div(decimal.NewFromInt(int64(daysInMonth))).
		MulInt(int64(daysOccupied)).
		RoundUnit()

	pct := prorated.Value.
		Div(rent.Value).
		Mul(decimal.NewFromInt(100)).
		Round(0)

	label := fmt.Sprintf("Prorated rent for %s - %s (%s%% of monthly rent)",
		start.Time.Format("Jan 2"),
		start.EndOfMonth().Time.Format("Jan 2, 2006"),
		pct)

	return Schedule{
		NextDueDate:   next,
		Prorated:      &prorated,
		ProratedLabel: label,
	}, nil
}
