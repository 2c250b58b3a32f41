/*
renewal.go - Renewal Calculator

PURPOSE:
  Computes the terms of a lease renewal: new rent (with an optional
  percentage increment), new lease end date, advanced next-due date, and
  merged advance balance.

RULES:
  - newRent = round(rent * (1 + pct/100)), half-up to a whole unit,
    when the increment applies; otherwise unchanged.
  - newEndDate = (endDate ?? now) + durationYears.
  - NextDueDate advances by exactly ONE frequency step regardless of the
    renewal duration: the immediately pending cycle is unaffected by the
    new terms.
  - RenewalCount increments by exactly 1 per renewal.
  - OriginalRent never changes; it is the baseline for cumulative
    increment reporting.
*/
package rentcycle

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// RenewalResult is the fully-determined outcome of a lease renewal.
type RenewalResult struct {
	RentAmount     Money
	EndDate        Date
	NextDueDate    Date
	AdvanceBalance Money
	RenewalCount   int
}

// RenewLease computes renewal terms for the tenancy. 'now' anchors the new
// end date for open-ended leases; it never influences the billing clock.
func RenewLease(t Tenancy, durationYears int, applyIncrement bool, incrementPercent decimal.Decimal, additionalAdvance Money, now Date) (RenewalResult, error) {
	if t.Status == StatusEnded {
		return RenewalResult{}, ErrTenancyEnded
	}
	if durationYears <= 0 {
		return RenewalResult{}, fmt.Errorf("renewal duration must be positive: %w", ErrInvalidDate)
	}
	if additionalAdvance.IsNegative() {
		return RenewalResult{}, fmt.Errorf("additional advance: %w", ErrNegativeAmount)
	}
	if applyIncrement && incrementPercent.IsNegative() {
		return RenewalResult{}, fmt.Errorf("increment percent: %w", ErrNegativeAmount)
	}

	newRent := t.RentAmount
	if applyIncrement {
		factor := decimal.NewFromInt(1).Add(incrementPercent.Div(decimal.NewFromInt(100)))
		newRent = t.RentAmount.Mul(factor).RoundUnit()
	}

	anchor := now
	if t.EndDate != nil {
		anchor = *t.EndDate
	}

	return RenewalResult{
		RentAmount:     newRent,
		EndDate:        anchor.AddYears(durationYears),
		NextDueDate:    t.Frequency.Step(t.NextDueDate),
		AdvanceBalance: t.AdvanceBalance.Add(additionalAdvance),
		RenewalCount:   t.RenewalCount + 1,
	}, nil
}

// CumulativeIncrement reports the lifetime rent increase against the rent
// captured at tenancy creation, as a percentage. Zero when the original
// rent is unset or unchanged.
func CumulativeIncrement(t Tenancy) decimal.Decimal {
	if t.OriginalRent.IsZero() {
		return decimal.Zero
	}
	return t.RentAmount.Value.
		Sub(t.OriginalRent.Value).
		Div(t.OriginalRent.Value).
		Mul(decimal.NewFromInt(100))
}
