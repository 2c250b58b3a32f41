/*
breakdown.go - Month-by-month rent ledger for a monthly tenancy

PURPOSE:
  Builds the per-month view shown on a unit's detail page: for each month
  of the tenancy, what was expected, what was paid, and whether the month
  is settled or overdue. Also derives the outstanding total from it.

ANCHOR:
  The walk always runs FORWARD from the tenancy's start date, clamped so
  it never reports a month before occupancy began. It covers at most the
  twelve most recent months, ending with the current month.

PAYMENT MATCHING:
  A payment belongs to a month when its period label or note names that
  month, or, failing that, when the payment date falls inside it. Period
  labels are authoritative; the date fallback covers records imported
  without labels.
*/
package rentcycle

import "strings"

// breakdownWindow caps the report at the twelve most recent months.
const breakdownWindow = 12

// MonthStatus is one row of the monthly breakdown.
type MonthStatus struct {
	Period   Period
	Expected Money
	Paid     Money
	IsPaid   bool
	Overdue  bool
}

// MonthlyBreakdown returns the month-by-month rent ledger for a monthly
// tenancy, most recent month first. Yearly tenancies have no monthly
// ledger and return nil.
func MonthlyBreakdown(t Tenancy, dueDay int, payments []PaymentRecord, now Date) []MonthStatus {
	if t.Frequency != Monthly || t.StartDate.IsZero() {
		return nil
	}
	if dueDay < 1 || dueDay > 31 {
		dueDay = 5 // contractual default
	}

	// Clamp the window start: never before occupancy, at most 12 months back.
	cursor := t.StartDate.StartOfMonth()
	if floor := now.StartOfMonth().AddMonths(-(breakdownWindow - 1)); cursor.Before(floor) {
		cursor = floor
	}

	var rows []MonthStatus
	for cursor.BeforeOrEqual(now) {
		due := cursor.OnDay(dueDay)
		label := Monthly.Label(cursor)

		paid := Zero()
		for _, p := range payments {
			if paymentCoversMonth(p, cursor, label) {
				paid = paid.Add(p.Amount)
			}
		}

		isPaid := !paid.LessThan(t.RentAmount)
		rows = append(rows, MonthStatus{
			Period:   Period{Label: label, DueDate: due},
			Expected: t.RentAmount,
			Paid:     paid,
			IsPaid:   isPaid,
			Overdue:  !isPaid && now.After(due),
		})

		cursor = cursor.AddMonths(1)
		if len(rows) >= breakdownWindow {
			break
		}
	}

	// Most recent first.
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
	return rows
}

func paymentCoversMonth(p PaymentRecord, month Date, label string) bool {
	if p.PeriodLabel != "" {
		return p.PeriodLabel == label
	}
	if p.Notes != "" {
		return strings.Contains(p.Notes, label)
	}
	return p.Date.SameMonth(month)
}

// OutstandingReport summarizes the unsettled overdue months.
type OutstandingReport struct {
	Amount Money
	Months []MonthStatus
}

// Outstanding derives the overdue months and the total shortfall
// (expected minus paid, per overdue month) from a breakdown.
func Outstanding(breakdown []MonthStatus) OutstandingReport {
	report := OutstandingReport{Amount: Zero()}
	for _, m := range breakdown {
		if m.Overdue {
			report.Months = append(report.Months, m)
			report.Amount = report.Amount.Add(m.Expected.Sub(m.Paid))
		}
	}
	return report
}
