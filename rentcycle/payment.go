/*
payment.go - Payment Reconciler

PURPOSE:
  Applies a recorded payment (cash plus an optional draw from the advance
  balance) against a tenancy. Returns the updated advance balance, the
  advanced next-due date, and one immutable payment record per settled
  billing period.

TIMELINE RULE:
  NextDueDate advances by exactly one frequency step per settled period,
  measured from its CURRENT value - never from "today". Early and late
  payments both preserve the billing timeline.

SURPLUS BANKING:
  Cash in excess of one period's rent is credited into the advance
  balance:

    newAdvance = advance - advanceDraw + max(0, amountPaid - rent)

CONSERVATION:
  The reconciler rejects any draw that would leave the advance balance
  negative, before computing anything else. On error the input tenancy is
  untouched and no records are produced.
*/
package rentcycle

// PaymentRecord is one immutable payment ledger entry. Records are
// append-only: history is corrected by inserting compensating records,
// never by editing past ones.
type PaymentRecord struct {
	TenancyID   string
	Amount      Money
	Date        Date
	AdvanceUsed Money
	PeriodLabel string
	Notes       string
}

// ReconcileResult is the fully-determined outcome of a payment
// reconciliation. The caller persists it with a conditional write keyed
// on the input snapshot's NextDueDate.
type ReconcileResult struct {
	AdvanceBalance Money
	NextDueDate    Date
	Payments       []PaymentRecord
}

// ReconcilePayment applies a payment of 'amountPaid' cash per settled
// period plus an 'advanceDraw' against the tenancy, settling the given
// billing periods (typically selected from ArrearsReport.PayablePeriods).
func ReconcilePayment(t Tenancy, amountPaid, advanceDraw Money, periods []Period, paidOn Date) (ReconcileResult, error) {
	if t.Status == StatusEnded {
		return ReconcileResult{}, ErrTenancyEnded
	}
	if amountPaid.IsNegative() || advanceDraw.IsNegative() {
		return ReconcileResult{}, ErrNegativeAmount
	}
	if len(periods) == 0 {
		return ReconcileResult{}, ErrNoPeriodsSelected
	}
	if advanceDraw.GreaterThan(t.AdvanceBalance) {
		return ReconcileResult{}, &InsufficientAdvanceError{
			TenancyID: t.ID,
			Available: t.AdvanceBalance,
			Requested: advanceDraw,
		}
	}

	surplus := amountPaid.Sub(t.RentAmount)
	if surplus.IsNegative() {
		surplus = Zero()
	}
	newAdvance := t.AdvanceBalance.Sub(advanceDraw).Add(surplus)

	records := make([]PaymentRecord, len(periods))
	for i, p := range periods {
		rec := PaymentRecord{
			TenancyID:   t.ID,
			Amount:      amountPaid,
			Date:        paidOn,
			PeriodLabel: p.Label,
			Notes:       "Rent payment for " + p.Label,
		}
		// The advance draw belongs to the action, not to each period.
		if i == 0 {
			rec.AdvanceUsed = advanceDraw
		} else {
			rec.AdvanceUsed = Zero()
		}
		records[i] = rec
	}

	return ReconcileResult{
		AdvanceBalance: newAdvance,
		NextDueDate:    t.Frequency.StepN(t.NextDueDate, len(periods)),
		Payments:       records,
	}, nil
}
