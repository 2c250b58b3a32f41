package rentcycle_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/rent-engine/rentcycle"
)

// =============================================================================
// ARREARS RESOLVER
// =============================================================================

func TestArrears_ThreeMonthsOverdue(t *testing.T) {
	// GIVEN: nextDueDate=2024-01-05, monthly, rent=2000, now=2024-04-10
	// THEN: periods [Jan 2024, Feb 2024, Mar 2024], totalOverdue=6000

	report, err := rentcycle.Arrears(date(2024, time.January, 5), rentcycle.Monthly, money(2000), date(2024, time.April, 10))
	require.NoError(t, err)

	require.Len(t, report.Overdue, 3)
	assert.Equal(t, "January 2024", report.Overdue[0].Label)
	assert.Equal(t, "February 2024", report.Overdue[1].Label)
	assert.Equal(t, "March 2024", report.Overdue[2].Label)
	assert.True(t, report.TotalOverdue.Equal(money(6000)), "got %s", report.TotalOverdue)
	assert.Equal(t, "April 2024", report.Upcoming.Label)
}

func TestArrears_EndOfMonthDueDay_NoMonthSkipped(t *testing.T) {
	// GIVEN: nextDueDate=2024-01-31, monthly, rent=2000, now=2024-05-01
	// THEN: every month is billed. The walk clamps onto Feb 29 instead of
	//       normalizing past February into March.

	report, err := rentcycle.Arrears(date(2024, time.January, 31), rentcycle.Monthly, money(2000), date(2024, time.May, 1))
	require.NoError(t, err)

	require.Len(t, report.Overdue, 4)
	assert.Equal(t, "January 2024", report.Overdue[0].Label)
	assert.Equal(t, "February 2024", report.Overdue[1].Label)
	assert.Equal(t, "March 2024", report.Overdue[2].Label)
	assert.Equal(t, "April 2024", report.Overdue[3].Label)
	assert.Equal(t, date(2024, time.February, 29), report.Overdue[1].DueDate)
	assert.Equal(t, date(2024, time.March, 29), report.Overdue[2].DueDate)
	assert.True(t, report.TotalOverdue.Equal(money(8000)), "got %s", report.TotalOverdue)
	assert.Equal(t, "May 2024", report.Upcoming.Label)
}

func TestArrears_DueTodayIsNotOverdue(t *testing.T) {
	// Strict comparison at date granularity: rent due today is not late.
	report, err := rentcycle.Arrears(date(2024, time.March, 5), rentcycle.Monthly, money(2000), date(2024, time.March, 5))
	require.NoError(t, err)

	assert.Empty(t, report.Overdue)
	assert.True(t, report.TotalOverdue.IsZero())
	assert.Equal(t, "March 2024", report.Upcoming.Label)
}

func TestArrears_CurrentTenancy_UpcomingStillReported(t *testing.T) {
	// GIVEN: Nothing overdue
	// THEN: The upcoming period is reported for "due soon" displays,
	//       and PayablePeriods offers exactly that one period.

	report, err := rentcycle.Arrears(date(2024, time.June, 5), rentcycle.Monthly, money(2000), date(2024, time.April, 10))
	require.NoError(t, err)

	assert.Empty(t, report.Overdue)
	assert.Equal(t, "June 2024", report.Upcoming.Label)

	payable := report.PayablePeriods()
	require.Len(t, payable, 1)
	assert.Equal(t, "June 2024", payable[0].Label)
}

func TestArrears_PayablePeriods_PrefersOverdue(t *testing.T) {
	report, err := rentcycle.Arrears(date(2024, time.January, 5), rentcycle.Monthly, money(2000), date(2024, time.March, 10))
	require.NoError(t, err)

	payable := report.PayablePeriods()
	require.Len(t, payable, 2)
	assert.Equal(t, "January 2024", payable[0].Label)
	assert.Equal(t, "February 2024", payable[1].Label)
}

func TestArrears_Yearly_UsesYearLabels(t *testing.T) {
	report, err := rentcycle.Arrears(date(2022, time.June, 1), rentcycle.Yearly, money(120000), date(2024, time.July, 1))
	require.NoError(t, err)

	require.Len(t, report.Overdue, 3)
	assert.Equal(t, "2022", report.Overdue[0].Label)
	assert.Equal(t, "2023", report.Overdue[1].Label)
	assert.Equal(t, "2024", report.Overdue[2].Label)
	assert.True(t, report.TotalOverdue.Equal(money(360000)))
}

func TestArrears_Idempotent(t *testing.T) {
	// Same frozen now + same inputs = identical results.
	now := date(2024, time.April, 10)
	first, err := rentcycle.Arrears(date(2024, time.January, 5), rentcycle.Monthly, money(2000), now)
	require.NoError(t, err)
	second, err := rentcycle.Arrears(date(2024, time.January, 5), rentcycle.Monthly, money(2000), now)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestArrears_FarPastDueDate_FlaggedAsDataError(t *testing.T) {
	// 600+ monthly periods overdue is corrupt data, not a real debt.
	_, err := rentcycle.Arrears(date(1900, time.January, 5), rentcycle.Monthly, money(2000), date(2024, time.April, 10))
	assert.ErrorIs(t, err, rentcycle.ErrArrearsOverflow)
}

func TestArrears_InvalidInputs(t *testing.T) {
	_, err := rentcycle.Arrears(rentcycle.Date{}, rentcycle.Monthly, money(2000), date(2024, time.April, 10))
	assert.ErrorIs(t, err, rentcycle.ErrInvalidDate)

	_, err = rentcycle.Arrears(date(2024, time.January, 5), rentcycle.Monthly, money(-1), date(2024, time.April, 10))
	assert.ErrorIs(t, err, rentcycle.ErrNegativeAmount)
}
