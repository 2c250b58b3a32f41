/*
Package analytics derives portfolio-level figures from stored tenancies
and payments.

PURPOSE:
  Answers the owner's dashboard questions: how full is the portfolio,
  how much rent should arrive each month, how much actually arrived,
  and who is behind.

RULES:
  - Everything is computed on read from the stores. No cached rollups,
    so figures can never drift from the ledger.
  - Yearly rents enter the expected-monthly figure at one twelfth.
  - A tenancy counts as overdue when at least one due date lies strictly
    before today.
  - Collection growth compares the current calendar month's receipts
    with the previous month's; a zero previous month reports 100% when
    anything was collected, 0% otherwise.

SEE ALSO:
  - rentcycle/arrears.go: the overdue walk reused per tenancy
  - tenancy/repository.go: the stores read here
*/
package analytics

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/rent-engine/rentcycle"
	"github.com/warp/rent-engine/tenancy"
)

var twelve = decimal.NewFromInt(12)
var hundred = decimal.NewFromInt(100)

// PortfolioStats is the owner's at-a-glance summary.
type PortfolioStats struct {
	TotalUnits       int
	OccupiedUnits    int
	VacantUnits      int
	OccupancyPercent decimal.Decimal
	ActiveTenancies  int

	// ExpectedMonthlyRent sums active rents, yearly ones at 1/12.
	ExpectedMonthlyRent rentcycle.Money

	// CollectedThisMonth sums payments dated in the current calendar month.
	CollectedThisMonth rentcycle.Money
	// CollectionGrowthPercent compares this month against the previous one.
	CollectionGrowthPercent decimal.Decimal

	// OverdueTenancies counts active tenancies with at least one unpaid
	// past-due period.
	OverdueTenancies int
	TotalOverdue     rentcycle.Money
}

// MonthRevenue is one point in the trailing revenue series.
type MonthRevenue struct {
	Label     string
	Collected rentcycle.Money
	Payments  int
}

// Service computes analytics over a repository.
type Service struct {
	repo  tenancy.Repository
	clock tenancy.Clock
}

func NewService(repo tenancy.Repository, clock tenancy.Clock) *Service {
	if clock == nil {
		clock = tenancy.SystemClock{}
	}
	return &Service{repo: repo, clock: clock}
}

// Stats computes the portfolio summary for one owner.
func (s *Service) Stats(ctx context.Context, ownerID string) (*PortfolioStats, error) {
	now := s.clock.Now()

	units, err := s.repo.ListProperties(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list properties: %w", err)
	}
	tenancies, err := s.repo.ListTenancies(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list tenancies: %w", err)
	}
	payments, err := s.repo.ListPaymentsByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}

	stats := &PortfolioStats{TotalUnits: len(units)}
	for _, u := range units {
		if u.Status == tenancy.PropertyOccupied {
			stats.OccupiedUnits++
		}
	}
	stats.VacantUnits = stats.TotalUnits - stats.OccupiedUnits
	if stats.TotalUnits > 0 {
		stats.OccupancyPercent = decimal.NewFromInt(int64(stats.OccupiedUnits)).
			Div(decimal.NewFromInt(int64(stats.TotalUnits))).
			Mul(hundred).Round(1)
	}

	expected := decimal.Zero
	overdueTotal := rentcycle.Zero()
	for _, t := range tenancies {
		if t.Status != rentcycle.StatusActive {
			continue
		}
		stats.ActiveTenancies++

		switch t.Frequency {
		case rentcycle.Yearly:
			expected = expected.Add(t.RentAmount.Value.Div(twelve))
		default:
			expected = expected.Add(t.RentAmount.Value)
		}

		report, err := rentcycle.Arrears(t.NextDueDate, t.Frequency, t.RentAmount, now)
		if err != nil {
			return nil, fmt.Errorf("arrears for tenancy %s: %w", t.ID, err)
		}
		if len(report.Overdue) > 0 {
			stats.OverdueTenancies++
			overdueTotal = overdueTotal.Add(report.TotalOverdue)
		}
	}
	stats.ExpectedMonthlyRent = rentcycle.Money{Value: expected.Round(2)}
	stats.TotalOverdue = overdueTotal

	current := monthTotal(payments, now)
	previous := monthTotal(payments, now.StartOfMonth().AddMonths(-1))
	stats.CollectedThisMonth = current
	stats.CollectionGrowthPercent = growth(current, previous)
	return stats, nil
}

// Revenue returns collected totals for the trailing months window,
// oldest first, ending at the current month. Months with no payments
// appear with a zero total.
func (s *Service) Revenue(ctx context.Context, ownerID string, months int) ([]MonthRevenue, error) {
	if months <= 0 {
		months = 12
	}
	now := s.clock.Now()

	payments, err := s.repo.ListPaymentsByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}

	series := make([]MonthRevenue, 0, months)
	cursor := now.StartOfMonth().AddMonths(-(months - 1))
	for i := 0; i < months; i++ {
		point := MonthRevenue{Label: cursor.MonthLabel(), Collected: rentcycle.Zero()}
		for _, p := range payments {
			if p.Date.SameMonth(cursor) {
				point.Collected = point.Collected.Add(p.Amount)
				point.Payments++
			}
		}
		series = append(series, point)
		cursor = cursor.AddMonths(1)
	}
	return series, nil
}

func monthTotal(payments []*tenancy.Payment, month rentcycle.Date) rentcycle.Money {
	total := rentcycle.Zero()
	for _, p := range payments {
		if p.Date.SameMonth(month) {
			total = total.Add(p.Amount)
		}
	}
	return total
}

func growth(current, previous rentcycle.Money) decimal.Decimal {
	if previous.IsZero() {
		if current.IsZero() {
			return decimal.Zero
		}
		return hundred
	}
	return current.Value.Sub(previous.Value).
		Div(previous.Value).
		Mul(hundred).Round(1)
}
