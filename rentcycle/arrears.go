/*
arrears.go - Arrears Resolver

PURPOSE:
  Enumerates the billing periods whose due date has passed unpaid and the
  total amount owed. Also reports the next upcoming period, which the UI
  shows as "due soon" - that is a separate question from "overdue" and the
  two are never conflated.

COMPARISON SEMANTICS:
  A period is overdue when its due date is STRICTLY before 'now' at date
  granularity. Rent due today is not yet late.

SANITY LIMIT:
  The walk is bounded at 600 periods (50 years of monthly rent). A due
  date that far in the past is corrupt data, not a real debt, and is
  flagged as such instead of silently producing a huge report.
*/
package rentcycle

import "fmt"

// maxArrearsPeriods bounds the overdue walk against pathological far-past
// due dates.
const maxArrearsPeriods = 600

// ArrearsReport is the result of resolving a tenancy's overdue periods.
type ArrearsReport struct {
	// Overdue lists the unpaid periods whose due date has passed,
	// oldest first. Empty when the tenancy is current.
	Overdue []Period

	// TotalOverdue = rent * len(Overdue).
	TotalOverdue Money

	// Upcoming is the next period to fall due. When periods are overdue
	// it is the period after the newest overdue one; otherwise it is the
	// period due on NextDueDate. Always populated, so "amount due soon"
	// displays work even for tenants who are fully current.
	Upcoming Period
}

// Arrears walks the billing timeline from nextDue and reports every period
// strictly before 'now', plus the next upcoming period.
func Arrears(nextDue Date, freq Frequency, rent Money, now Date) (ArrearsReport, error) {
	if nextDue.IsZero() || now.IsZero() {
		return ArrearsReport{}, fmt.Errorf("arrears: %w", ErrInvalidDate)
	}
	if !freq.Valid() {
		return ArrearsReport{}, fmt.Errorf("frequency %q: %w", freq, ErrInvalidDate)
	}
	if rent.IsNegative() {
		return ArrearsReport{}, fmt.Errorf("rent amount: %w", ErrNegativeAmount)
	}

	var overdue []Period
	current := nextDue
	for current.Before(now) {
		if len(overdue) >= maxArrearsPeriods {
			return ArrearsReport{}, fmt.Errorf("next due date %s vs now %s: %w",
				nextDue, now, ErrArrearsOverflow)
		}
		overdue = append(overdue, Period{Label: freq.Label(current), DueDate: current})
		current = freq.Step(current)
	}

	return ArrearsReport{
		Overdue:      overdue,
		TotalOverdue: rent.MulInt(int64(len(overdue))),
		Upcoming:     Period{Label: freq.Label(current), DueDate: current},
	}, nil
}

// PayablePeriods returns the periods a payment action should offer for
// settlement: the overdue periods when any exist, otherwise the single
// upcoming period. This mirrors the payment dialog, where a current tenant
// still pays for the next cycle.
func (r ArrearsReport) PayablePeriods() []Period {
	if len(r.Overdue) > 0 {
		return r.Overdue
	}
	return []Period{r.Upcoming}
}
