package rentcycle_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/rent-engine/rentcycle"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func date(year int, month time.Month, day int) rentcycle.Date {
	return rentcycle.NewDate(year, month, day)
}

func money(v int64) rentcycle.Money {
	return rentcycle.NewMoneyFromInt(v)
}

// =============================================================================
// DUE-DATE CALCULATOR
// =============================================================================

func TestInitialSchedule_StartBeforeDueDay_NoProration(t *testing.T) {
	// GIVEN: Monthly tenancy starting Jan 3, due day 5
	// WHEN: Computing the initial schedule
	// THEN: First full cycle begins immediately, no proration

	sched, err := rentcycle.InitialSchedule(date(2024, time.January, 3), rentcycle.Monthly, 5, money(3000))
	require.NoError(t, err)

	assert.Equal(t, date(2024, time.January, 5), sched.NextDueDate)
	assert.Nil(t, sched.Prorated)
}

func TestInitialSchedule_StartOnDueDay_NoProration(t *testing.T) {
	sched, err := rentcycle.InitialSchedule(date(2024, time.March, 5), rentcycle.Monthly, 5, money(2000))
	require.NoError(t, err)

	assert.Equal(t, date(2024, time.March, 5), sched.NextDueDate)
	assert.Nil(t, sched.Prorated)
}

func TestInitialSchedule_StartAfterDueDay_Prorates(t *testing.T) {
	// GIVEN: startDate=2024-01-20, dueDay=5, rent=3000, monthly
	// THEN: nextDueDate=2024-02-05, prorated = round(3000/31*12) = 1161

	sched, err := rentcycle.InitialSchedule(date(2024, time.January, 20), rentcycle.Monthly, 5, money(3000))
	require.NoError(t, err)

	assert.Equal(t, date(2024, time.February, 5), sched.NextDueDate)
	require.NotNil(t, sched.Prorated)
	assert.True(t, sched.Prorated.Equal(money(1161)),
		"prorated = %s, want 1161", sched.Prorated)
	assert.Contains(t, sched.ProratedLabel, "Jan 20")
	assert.Contains(t, sched.ProratedLabel, "Jan 31, 2024")
}

func TestInitialSchedule_ProrationNeverExceedsRent(t *testing.T) {
	rent := money(3000)
	for day := 6; day <= 31; day++ {
		sched, err := rentcycle.InitialSchedule(date(2024, time.January, day), rentcycle.Monthly, 5, rent)
		require.NoError(t, err)
		require.NotNil(t, sched.Prorated, "day %d", day)
		assert.True(t, sched.Prorated.IsPositive(), "day %d", day)
		assert.False(t, sched.Prorated.GreaterThan(rent), "day %d", day)
		assert.Equal(t, date(2024, time.February, 5), sched.NextDueDate, "day %d", day)
	}
}

func TestInitialSchedule_Yearly_AddsOneYear(t *testing.T) {
	sched, err := rentcycle.InitialSchedule(date(2024, time.June, 15), rentcycle.Yearly, 5, money(120000))
	require.NoError(t, err)

	assert.Equal(t, date(2025, time.June, 15), sched.NextDueDate)
	assert.Nil(t, sched.Prorated)
}

func TestInitialSchedule_DueDayClampsToMonthEnd(t *testing.T) {
	// GIVEN: Due day 31 in a February start
	// THEN: Due date clamps to Feb 29 (2024 is a leap year), never Mar 2

	sched, err := rentcycle.InitialSchedule(date(2024, time.February, 10), rentcycle.Monthly, 31, money(1500))
	require.NoError(t, err)
	assert.Equal(t, date(2024, time.February, 29), sched.NextDueDate)
}

func TestInitialSchedule_DeferredDueDateClampsToMonthEnd(t *testing.T) {
	// GIVEN: Start Jan 31 with due day 30: deferred into February
	// THEN: Feb 30 is impossible; the due date clamps to Feb 29

	sched, err := rentcycle.InitialSchedule(date(2024, time.January, 31), rentcycle.Monthly, 30, money(1500))
	require.NoError(t, err)
	assert.Equal(t, date(2024, time.February, 29), sched.NextDueDate)
	require.NotNil(t, sched.Prorated)
	// One day occupied out of 31: round(1500/31*1) = 48
	assert.True(t, sched.Prorated.Equal(money(48)), "got %s", sched.Prorated)
}

func TestInitialSchedule_InvalidInputs(t *testing.T) {
	cases := []struct {
		name    string
		start   rentcycle.Date
		freq    rentcycle.Frequency
		dueDay  int
		rent    rentcycle.Money
		wantErr error
	}{
		{"zero start date", rentcycle.Date{}, rentcycle.Monthly, 5, money(1000), rentcycle.ErrInvalidDate},
		{"due day zero", date(2024, time.January, 1), rentcycle.Monthly, 0, money(1000), rentcycle.ErrInvalidDate},
		{"due day 32", date(2024, time.January, 1), rentcycle.Monthly, 32, money(1000), rentcycle.ErrInvalidDate},
		{"negative rent", date(2024, time.January, 1), rentcycle.Monthly, 5, money(-10), rentcycle.ErrNegativeAmount},
		{"zero rent", date(2024, time.January, 1), rentcycle.Monthly, 5, money(0), rentcycle.ErrNegativeAmount},
		{"bad frequency", date(2024, time.January, 1), rentcycle.Frequency("weekly"), 5, money(1000), rentcycle.ErrInvalidDate},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := rentcycle.InitialSchedule(tc.start, tc.freq, tc.dueDay, tc.rent)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}
