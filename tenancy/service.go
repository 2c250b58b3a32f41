/*
service.go - Tenancy lifecycle orchestration

PURPOSE:
  Connects the pure rentcycle calculators to the Repository. Every
  operation follows the same shape:

    1. Load a tenancy snapshot
    2. Invoke a calculator (pure, no I/O)
    3. Persist the result with SaveTenancyIf, keyed on the snapshot's
       NextDueDate
    4. On ErrStaleTenancyState: reload, recompute, retry ONCE, then
       surface the conflict to the caller

  The calculators never see the store; the store never computes.

SEE ALSO:
  - rentcycle: the four calculators
  - repository.go: the persistence contract
*/
package tenancy

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/warp/rent-engine/rentcycle"
)

// ErrUnitOccupied is returned when a tenant is assigned to a unit that
// already has an active tenancy.
var ErrUnitOccupied = errors.New("unit is already occupied")

// Service orchestrates tenancy lifecycle operations.
type Service struct {
	repo  Repository
	clock Clock
}

func NewService(repo Repository, clock Clock) *Service {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Service{repo: repo, clock: clock}
}

// =============================================================================
// ASSIGN TENANT
// =============================================================================

// AssignTenantInput carries the terms of a new tenancy.
type AssignTenantInput struct {
	PropertyID      string
	TenantID        string
	OwnerID         string
	StartDate       rentcycle.Date
	RentAmount      rentcycle.Money
	Frequency       rentcycle.Frequency
	SecurityDeposit rentcycle.Money
	AdvancePayment  rentcycle.Money
}

// AssignTenantResult is the created tenancy plus the prorated first
// payment, when the start date fell after the due day.
type AssignTenantResult struct {
	Tenancy         *Tenancy
	ProratedPayment *Payment
}

// AssignTenant creates a tenancy on a vacant unit. The unit's due day
// seeds the first due date; a mid-cycle start records the prorated partial
// month as the tenancy's first payment, and the unit is marked occupied.
func (s *Service) AssignTenant(ctx context.Context, in AssignTenantInput) (*AssignTenantResult, error) {
	if in.SecurityDeposit.IsNegative() || in.AdvancePayment.IsNegative() {
		return nil, rentcycle.ErrNegativeAmount
	}

	unit, err := s.repo.GetProperty(ctx, in.PropertyID)
	if err != nil {
		return nil, err
	}
	if unit.Status == PropertyOccupied {
		return nil, fmt.Errorf("unit %s: %w", unit.ID, ErrUnitOccupied)
	}

	sched, err := rentcycle.InitialSchedule(in.StartDate, in.Frequency, unit.EffectiveDueDay(), in.RentAmount)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	ten := &Tenancy{
		Tenancy: rentcycle.Tenancy{
			ID:              uuid.NewString(),
			PropertyID:      in.PropertyID,
			TenantID:        in.TenantID,
			RentAmount:      in.RentAmount,
			Frequency:       in.Frequency,
			StartDate:       in.StartDate,
			NextDueDate:     sched.NextDueDate,
			AdvanceBalance:  in.AdvancePayment,
			SecurityDeposit: in.SecurityDeposit,
			Status:          rentcycle.StatusActive,
			OriginalRent:    in.RentAmount,
		},
		OwnerID:   in.OwnerID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateTenancy(ctx, ten); err != nil {
		return nil, err
	}

	result := &AssignTenantResult{Tenancy: ten}

	if sched.Prorated != nil {
		p := &Payment{
			ID:          uuid.NewString(),
			TenancyID:   ten.ID,
			PropertyID:  in.PropertyID,
			TenantID:    in.TenantID,
			OwnerID:     in.OwnerID,
			Amount:      *sched.Prorated,
			Date:        in.StartDate,
			Method:      MethodCash,
			AdvanceUsed: rentcycle.Zero(),
			Notes:       sched.ProratedLabel,
			CreatedAt:   now,
		}
		if err := s.repo.AppendPayments(ctx, []*Payment{p}); err != nil {
			return nil, err
		}
		result.ProratedPayment = p
	}

	if err := s.repo.SetPropertyStatus(ctx, in.PropertyID, PropertyOccupied); err != nil {
		return nil, err
	}
	return result, nil
}

// =============================================================================
// RECORD PAYMENT
// =============================================================================

// RecordPaymentInput describes one payment action. PeriodIndices select
// periods from the arrears resolver's payable list; empty settles the
// single period due next.
type RecordPaymentInput struct {
	TenancyID     string
	AmountPaid    rentcycle.Money
	AdvanceDraw   rentcycle.Money
	PeriodIndices []int
	Method        PaymentMethod
	TransactionID string
	Notes         string
}

// RecordPaymentResult reports the applied reconciliation.
type RecordPaymentResult struct {
	Tenancy  *Tenancy
	Payments []*Payment
}

// RecordPayment loads the tenancy, reconciles the payment against it, and
// persists the outcome conditionally. A concurrent update triggers one
// reload-recompute-retry before the conflict is surfaced.
func (s *Service) RecordPayment(ctx context.Context, in RecordPaymentInput) (*RecordPaymentResult, error) {
	method := in.Method
	if method == "" {
		method = MethodCash
	}
	if !method.Valid() {
		return nil, fmt.Errorf("unknown payment method %q", in.Method)
	}

	var result *RecordPaymentResult
	err := s.withRetry(func() error {
		ten, err := s.repo.GetTenancy(ctx, in.TenancyID)
		if err != nil {
			return err
		}

		periods, err := s.selectPeriods(ten, in.PeriodIndices)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		outcome, err := rentcycle.ReconcilePayment(ten.Tenancy, in.AmountPaid, in.AdvanceDraw, periods, now)
		if err != nil {
			return err
		}

		payments := make([]*Payment, len(outcome.Payments))
		createdAt := time.Now().UTC()
		for i, rec := range outcome.Payments {
			notes := rec.Notes
			if in.Notes != "" {
				notes = notes + " - " + in.Notes
			}
			payments[i] = &Payment{
				ID:            uuid.NewString(),
				TenancyID:     ten.ID,
				PropertyID:    ten.PropertyID,
				TenantID:      ten.TenantID,
				OwnerID:       ten.OwnerID,
				Amount:        rec.Amount,
				Date:          rec.Date,
				Method:        method,
				TransactionID: in.TransactionID,
				AdvanceUsed:   rec.AdvanceUsed,
				PeriodLabel:   rec.PeriodLabel,
				Notes:         notes,
				CreatedAt:     createdAt,
			}
		}
		update := TenancyUpdate{
			NextDueDate:    &outcome.NextDueDate,
			AdvanceBalance: &outcome.AdvanceBalance,
		}
		// One guarded write: the due-date advance never lands without
		// its payment rows.
		if err := s.repo.ApplyReconciliation(ctx, ten.ID, ten.NextDueDate, update, payments); err != nil {
			return err
		}

		ten.NextDueDate = outcome.NextDueDate
		ten.AdvanceBalance = outcome.AdvanceBalance
		result = &RecordPaymentResult{Tenancy: ten, Payments: payments}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// selectPeriods resolves the caller's selection against the payable list.
func (s *Service) selectPeriods(ten *Tenancy, indices []int) ([]rentcycle.Period, error) {
	report, err := rentcycle.Arrears(ten.NextDueDate, ten.Frequency, ten.RentAmount, s.clock.Now())
	if err != nil {
		return nil, err
	}
	payable := report.PayablePeriods()

	if len(indices) == 0 {
		// Default: settle the single period due next.
		return payable[:1], nil
	}

	seen := make(map[int]bool, len(indices))
	var selected []rentcycle.Period
	for _, i := range indices {
		if i < 0 || i >= len(payable) || seen[i] {
			continue
		}
		seen[i] = true
		selected = append(selected, payable[i])
	}
	if len(selected) == 0 {
		return nil, rentcycle.ErrNoPeriodsSelected
	}
	return selected, nil
}

// =============================================================================
// RENEW LEASE
// =============================================================================

type RenewLeaseInput struct {
	TenancyID         string
	DurationYears     int
	ApplyIncrement    bool
	IncrementPercent  decimal.Decimal
	AdditionalAdvance rentcycle.Money
}

// RenewLease applies renewal terms with the same conditional-save contract
// as RecordPayment.
func (s *Service) RenewLease(ctx context.Context, in RenewLeaseInput) (*Tenancy, error) {
	var renewed *Tenancy
	err := s.withRetry(func() error {
		ten, err := s.repo.GetTenancy(ctx, in.TenancyID)
		if err != nil {
			return err
		}

		outcome, err := rentcycle.RenewLease(ten.Tenancy, in.DurationYears, in.ApplyIncrement, in.IncrementPercent, in.AdditionalAdvance, s.clock.Now())
		if err != nil {
			return err
		}

		update := TenancyUpdate{
			RentAmount:     &outcome.RentAmount,
			NextDueDate:    &outcome.NextDueDate,
			AdvanceBalance: &outcome.AdvanceBalance,
			EndDate:        &outcome.EndDate,
			RenewalCount:   &outcome.RenewalCount,
		}
		if err := s.repo.SaveTenancyIf(ctx, ten.ID, ten.NextDueDate, update); err != nil {
			return err
		}

		ten.RentAmount = outcome.RentAmount
		ten.NextDueDate = outcome.NextDueDate
		ten.AdvanceBalance = outcome.AdvanceBalance
		ten.EndDate = &outcome.EndDate
		ten.RenewalCount = outcome.RenewalCount
		renewed = ten
		return nil
	})
	if err != nil {
		return nil, err
	}
	return renewed, nil
}

// =============================================================================
// END TENANCY
// =============================================================================

// EndTenancy transitions a tenancy active -> ended and frees its unit.
// The transition happens at most once; an ended tenancy is frozen.
func (s *Service) EndTenancy(ctx context.Context, tenancyID string) (*Tenancy, error) {
	ten, err := s.repo.GetTenancy(ctx, tenancyID)
	if err != nil {
		return nil, err
	}
	if ten.Status == rentcycle.StatusEnded {
		return nil, rentcycle.ErrTenancyEnded
	}

	ended := rentcycle.StatusEnded
	if err := s.repo.SaveTenancyIf(ctx, ten.ID, ten.NextDueDate, TenancyUpdate{Status: &ended}); err != nil {
		return nil, err
	}
	if err := s.repo.SetPropertyStatus(ctx, ten.PropertyID, PropertyVacant); err != nil {
		return nil, err
	}

	ten.Status = rentcycle.StatusEnded
	return ten, nil
}

// =============================================================================
// READ SIDE
// =============================================================================

// ArrearsFor resolves a tenancy's overdue periods as of the service clock.
func (s *Service) ArrearsFor(ctx context.Context, tenancyID string) (rentcycle.ArrearsReport, error) {
	ten, err := s.repo.GetTenancy(ctx, tenancyID)
	if err != nil {
		return rentcycle.ArrearsReport{}, err
	}
	return rentcycle.Arrears(ten.NextDueDate, ten.Frequency, ten.RentAmount, s.clock.Now())
}

// BreakdownResult bundles a tenancy's monthly ledger with its outstanding
// summary.
type BreakdownResult struct {
	Months      []rentcycle.MonthStatus
	Outstanding rentcycle.OutstandingReport
}

// BreakdownFor builds the month-by-month rent ledger for a monthly
// tenancy.
func (s *Service) BreakdownFor(ctx context.Context, tenancyID string) (*BreakdownResult, error) {
	ten, err := s.repo.GetTenancy(ctx, tenancyID)
	if err != nil {
		return nil, err
	}
	unit, err := s.repo.GetProperty(ctx, ten.PropertyID)
	if err != nil {
		return nil, err
	}
	payments, err := s.repo.ListPaymentsByTenancy(ctx, tenancyID)
	if err != nil {
		return nil, err
	}

	records := make([]rentcycle.PaymentRecord, len(payments))
	for i, p := range payments {
		records[i] = rentcycle.PaymentRecord{
			TenancyID:   p.TenancyID,
			Amount:      p.Amount,
			Date:        p.Date,
			AdvanceUsed: p.AdvanceUsed,
			PeriodLabel: p.PeriodLabel,
			Notes:       p.Notes,
		}
	}

	months := rentcycle.MonthlyBreakdown(ten.Tenancy, unit.EffectiveDueDay(), records, s.clock.Now())
	return &BreakdownResult{
		Months:      months,
		Outstanding: rentcycle.Outstanding(months),
	}, nil
}

// PaymentHistory returns a tenant's own payment records, for the tenant
// dashboard view.
func (s *Service) PaymentHistory(ctx context.Context, tenantID string) ([]*Payment, error) {
	return s.repo.ListPaymentsByTenant(ctx, tenantID)
}

// =============================================================================
// RETRY
// =============================================================================

// withRetry runs fn and, on an optimistic-concurrency conflict, retries
// exactly once with a fresh snapshot. Any second conflict is surfaced.
func (s *Service) withRetry(fn func() error) error {
	err := fn()
	if err == nil || !errors.Is(err, rentcycle.ErrStaleTenancyState) {
		return err
	}
	return fn()
}
