package rentcycle_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/rent-engine/rentcycle"
)

// =============================================================================
// MONTHLY BREAKDOWN
// =============================================================================

func TestMonthlyBreakdown_WalksForwardFromStartDate(t *testing.T) {
	// GIVEN: Tenancy started Feb 2024, now is April 2024, no payments
	// THEN: Rows for Feb, Mar, Apr - most recent first - and nothing
	//       before occupancy began.

	ten := activeTenancy()
	ten.StartDate = date(2024, time.February, 10)

	rows := rentcycle.MonthlyBreakdown(ten, 5, nil, date(2024, time.April, 20))
	require.Len(t, rows, 3)

	assert.Equal(t, "April 2024", rows[0].Period.Label)
	assert.Equal(t, "March 2024", rows[1].Period.Label)
	assert.Equal(t, "February 2024", rows[2].Period.Label)

	// Feb and Mar due dates have passed unpaid.
	assert.True(t, rows[1].Overdue)
	assert.True(t, rows[2].Overdue)
	// April's due day (the 5th) has passed too by the 20th.
	assert.True(t, rows[0].Overdue)
}

func TestMonthlyBreakdown_PaymentsMatchByPeriodLabel(t *testing.T) {
	ten := activeTenancy()
	ten.StartDate = date(2024, time.February, 1)

	payments := []rentcycle.PaymentRecord{
		{TenancyID: ten.ID, Amount: money(2000), Date: date(2024, time.March, 20), PeriodLabel: "February 2024"},
	}

	rows := rentcycle.MonthlyBreakdown(ten, 5, payments, date(2024, time.March, 10))
	require.Len(t, rows, 2)

	feb := rows[1]
	assert.Equal(t, "February 2024", feb.Period.Label)
	assert.True(t, feb.IsPaid)
	assert.False(t, feb.Overdue)
	assert.True(t, feb.Paid.Equal(money(2000)))

	// The March payment record does not leak into March via its date:
	// its label pins it to February.
	mar := rows[0]
	assert.False(t, mar.IsPaid)
}

func TestMonthlyBreakdown_NoteFallbackMatchesMonth(t *testing.T) {
	ten := activeTenancy()
	ten.StartDate = date(2024, time.February, 1)

	payments := []rentcycle.PaymentRecord{
		{TenancyID: ten.ID, Amount: money(2000), Date: date(2024, time.April, 2), Notes: "Rent payment for February 2024"},
	}

	rows := rentcycle.MonthlyBreakdown(ten, 5, payments, date(2024, time.March, 10))
	feb := rows[len(rows)-1]
	assert.True(t, feb.IsPaid)
}

func TestMonthlyBreakdown_PartialPaymentStaysOverdue(t *testing.T) {
	ten := activeTenancy()
	ten.StartDate = date(2024, time.February, 1)

	payments := []rentcycle.PaymentRecord{
		{TenancyID: ten.ID, Amount: money(800), Date: date(2024, time.February, 6), PeriodLabel: "February 2024"},
	}

	rows := rentcycle.MonthlyBreakdown(ten, 5, payments, date(2024, time.March, 10))
	feb := rows[len(rows)-1]
	assert.False(t, feb.IsPaid)
	assert.True(t, feb.Overdue)
	assert.True(t, feb.Paid.Equal(money(800)))
}

func TestMonthlyBreakdown_CappedAtTwelveMostRecentMonths(t *testing.T) {
	ten := activeTenancy()
	ten.StartDate = date(2020, time.January, 1)

	rows := rentcycle.MonthlyBreakdown(ten, 5, nil, date(2024, time.June, 15))
	require.Len(t, rows, 12)

	// Most recent first, window ends at the current month.
	assert.Equal(t, "June 2024", rows[0].Period.Label)
	assert.Equal(t, "July 2023", rows[11].Period.Label)
}

func TestMonthlyBreakdown_YearlyTenancyHasNone(t *testing.T) {
	ten := activeTenancy()
	ten.Frequency = rentcycle.Yearly
	assert.Nil(t, rentcycle.MonthlyBreakdown(ten, 5, nil, date(2024, time.June, 15)))
}

func TestOutstanding_SumsShortfallOfOverdueMonths(t *testing.T) {
	ten := activeTenancy()
	ten.StartDate = date(2024, time.January, 1)

	payments := []rentcycle.PaymentRecord{
		{TenancyID: ten.ID, Amount: money(2000), Date: date(2024, time.January, 5), PeriodLabel: "January 2024"},
		{TenancyID: ten.ID, Amount: money(500), Date: date(2024, time.February, 7), PeriodLabel: "February 2024"},
	}

	rows := rentcycle.MonthlyBreakdown(ten, 5, payments, date(2024, time.March, 10))
	report := rentcycle.Outstanding(rows)

	// Feb short 1500, Mar unpaid 2000.
	require.Len(t, report.Months, 2)
	assert.True(t, report.Amount.Equal(money(3500)), "got %s", report.Amount)
}
