package rentcycle_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/warp/rent-engine/rentcycle"
)

// =============================================================================
// DATE ARITHMETIC - Short-month clamping
// =============================================================================

func TestAddMonths_ClampsToMonthEnd(t *testing.T) {
	// GIVEN: Jan 31 in a leap year
	// THEN: one month later is Feb 29, not a normalized Mar 2

	assert.Equal(t, date(2024, time.February, 29), date(2024, time.January, 31).AddMonths(1))
	assert.Equal(t, date(2023, time.February, 28), date(2023, time.January, 31).AddMonths(1))
	assert.Equal(t, date(2024, time.April, 30), date(2024, time.March, 31).AddMonths(1))
}

func TestAddMonths_PlainDaysUnaffected(t *testing.T) {
	assert.Equal(t, date(2024, time.February, 5), date(2024, time.January, 5).AddMonths(1))
	assert.Equal(t, date(2025, time.January, 15), date(2024, time.December, 15).AddMonths(1))
	assert.Equal(t, date(2023, time.December, 31), date(2024, time.January, 31).AddMonths(-1))
}

func TestAddYears_LeapDayClamps(t *testing.T) {
	assert.Equal(t, date(2025, time.February, 28), date(2024, time.February, 29).AddYears(1))
	assert.Equal(t, date(2028, time.February, 29), date(2024, time.February, 29).AddYears(4))
}

func TestStep_Monthly_EndOfMonthCrossesFebruary(t *testing.T) {
	assert.Equal(t, date(2024, time.February, 29), rentcycle.Monthly.Step(date(2024, time.January, 31)))
	assert.Equal(t, date(2023, time.February, 28), rentcycle.Monthly.Step(date(2023, time.January, 31)))
}

func TestStep_Yearly_LeapDayClamps(t *testing.T) {
	assert.Equal(t, date(2025, time.February, 28), rentcycle.Yearly.Step(date(2024, time.February, 29)))
}

func TestStepN_WalksOneCycleAtATime(t *testing.T) {
	// Once the day clamps to February's end it stays clamped: Jan 31
	// steps to Feb 29, then Mar 29, then Apr 29.

	start := date(2024, time.January, 31)
	assert.Equal(t, date(2024, time.March, 29), rentcycle.Monthly.StepN(start, 2))
	assert.Equal(t, date(2024, time.April, 29), rentcycle.Monthly.StepN(start, 3))

	// StepN agrees with repeated Step at every count.
	cursor := start
	for n := 1; n <= 14; n++ {
		cursor = rentcycle.Monthly.Step(cursor)
		assert.Equal(t, cursor, rentcycle.Monthly.StepN(start, n), "after %d steps", n)
	}
}
