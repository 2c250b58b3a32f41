/*
errors.go - Centralized error types for the rent-cycle engine

PURPOSE:
  All calculator error kinds in one place. Calculators validate inputs
  eagerly and fail fast with one of these; none of them ever returns a
  partially-correct result.

ERROR CATEGORIES:
  1. Input validation - malformed dates, out-of-range due days, negative money
  2. Reconciliation   - advance overdraw, empty period selection
  3. Persistence      - optimistic-concurrency conflicts (surfaced by stores)

USAGE:
  Callers branch with errors.Is():

    if errors.Is(err, rentcycle.ErrStaleTenancyState) {
        // reload, recompute, retry once
    }
*/
package rentcycle

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidDate is returned for a malformed start date or an
	// out-of-range due day.
	ErrInvalidDate = errors.New("invalid date")

	// ErrNegativeAmount is returned when any monetary input is negative.
	ErrNegativeAmount = errors.New("negative amount")

	// ErrInsufficientAdvance is returned when an advance draw exceeds the
	// tenancy's advance balance.
	ErrInsufficientAdvance = errors.New("insufficient advance balance")

	// ErrNoPeriodsSelected is returned for a reconciliation request that
	// resolves to zero billing periods.
	ErrNoPeriodsSelected = errors.New("no billing periods selected")

	// ErrTenancyEnded is returned when a lifecycle operation targets an
	// ended tenancy. Ended tenancies are frozen.
	ErrTenancyEnded = errors.New("tenancy has ended")

	// ErrStaleTenancyState is returned by stores when a conditional save
	// detects that the tenancy changed since its snapshot was read.
	ErrStaleTenancyState = errors.New("stale tenancy state")

	// ErrArrearsOverflow is returned when the overdue walk exceeds the
	// sanity limit, which indicates corrupt due-date data rather than a
	// genuinely ancient debt.
	ErrArrearsOverflow = errors.New("arrears period limit exceeded")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InsufficientAdvanceError details an advance overdraw.
type InsufficientAdvanceError struct {
	TenancyID string
	Available Money
	Requested Money
}

func (e *InsufficientAdvanceError) Error() string {
	return fmt.Sprintf("insufficient advance: available %v, requested %v",
		e.Available, e.Requested)
}

func (e *InsufficientAdvanceError) Unwrap() error {
	return ErrInsufficientAdvance
}

// InvalidDueDayError details an out-of-range due day.
type InvalidDueDayError struct {
	DueDay int
}

func (e *InvalidDueDayError) Error() string {
	return fmt.Sprintf("due day must be 1-31, got %d", e.DueDay)
}

func (e *InvalidDueDayError) Unwrap() error {
	return ErrInvalidDate
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsRetryable returns true if the error might succeed on retry with a
// fresh tenancy snapshot.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStaleTenancyState)
}

// IsClientError returns true if the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidDate) ||
		errors.Is(err, ErrNegativeAmount) ||
		errors.Is(err, ErrInsufficientAdvance) ||
		errors.Is(err, ErrNoPeriodsSelected) ||
		errors.Is(err, ErrTenancyEnded)
}
