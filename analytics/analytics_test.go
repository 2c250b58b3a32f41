package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/rent-engine/rentcycle"
	"github.com/warp/rent-engine/tenancy"
	"github.com/warp/rent-engine/tenancy/store"
)

func date(t *testing.T, s string) rentcycle.Date {
	t.Helper()
	d, err := rentcycle.ParseDate(s)
	require.NoError(t, err)
	return d
}

func money(v int64) rentcycle.Money { return rentcycle.NewMoneyFromInt(v) }

func seedUnit(t *testing.T, repo *store.Memory, id string, status tenancy.PropertyStatus) {
	t.Helper()
	require.NoError(t, repo.CreateProperty(context.Background(), &tenancy.Property{
		ID: id, OwnerID: "owner-1", UnitName: id, Type: "apartment",
		RentAmount: money(3000), RentFrequency: rentcycle.Monthly, Status: status,
	}))
}

func seedTenancy(t *testing.T, repo *store.Memory, id string, rent int64, freq rentcycle.Frequency, nextDue string) {
	t.Helper()
	require.NoError(t, repo.CreateTenancy(context.Background(), &tenancy.Tenancy{
		Tenancy: rentcycle.Tenancy{
			ID: id, PropertyID: "unit-" + id, TenantID: "tenant-" + id,
			RentAmount: money(rent), Frequency: freq,
			StartDate: date(t, "2024-01-01"), NextDueDate: date(t, nextDue),
			Status: rentcycle.StatusActive, OriginalRent: money(rent),
		},
		OwnerID: "owner-1",
	}))
}

func seedPayment(t *testing.T, repo *store.Memory, id string, amount int64, paid string) {
	t.Helper()
	require.NoError(t, repo.AppendPayments(context.Background(), []*tenancy.Payment{{
		ID: id, TenancyID: "ten-1", PropertyID: "unit-1", OwnerID: "owner-1",
		Amount: money(amount), Date: date(t, paid), Method: tenancy.MethodCash,
		CreatedAt: time.Now().UTC(),
	}}))
}

func TestStats_OccupancyAndExpectedRent(t *testing.T) {
	// GIVEN 3 occupied units out of 4, one monthly 3000, one monthly
	// 2000, one yearly 24000
	repo := store.NewMemory()
	seedUnit(t, repo, "a1", tenancy.PropertyOccupied)
	seedUnit(t, repo, "a2", tenancy.PropertyOccupied)
	seedUnit(t, repo, "a3", tenancy.PropertyOccupied)
	seedUnit(t, repo, "a4", tenancy.PropertyVacant)
	seedTenancy(t, repo, "t1", 3000, rentcycle.Monthly, "2024-04-05")
	seedTenancy(t, repo, "t2", 2000, rentcycle.Monthly, "2024-04-05")
	seedTenancy(t, repo, "t3", 24000, rentcycle.Yearly, "2025-01-01")

	svc := NewService(repo, tenancy.FixedClock{Date: date(t, "2024-03-10")})

	// WHEN stats are computed
	stats, err := svc.Stats(context.Background(), "owner-1")
	require.NoError(t, err)

	// THEN occupancy is 75% and the yearly rent enters at one twelfth
	assert.Equal(t, 4, stats.TotalUnits)
	assert.Equal(t, 3, stats.OccupiedUnits)
	assert.Equal(t, 1, stats.VacantUnits)
	assert.True(t, stats.OccupancyPercent.Equal(decimal.NewFromInt(75)),
		"occupancy: %s", stats.OccupancyPercent)
	assert.True(t, stats.ExpectedMonthlyRent.Equal(money(7000)),
		"expected: %s", stats.ExpectedMonthlyRent.Value)
	assert.Equal(t, 3, stats.ActiveTenancies)
}

func TestStats_OverdueDetection(t *testing.T) {
	// GIVEN one tenancy current and one 2 months behind
	repo := store.NewMemory()
	seedTenancy(t, repo, "t1", 3000, rentcycle.Monthly, "2024-04-05")
	seedTenancy(t, repo, "t2", 2000, rentcycle.Monthly, "2024-01-05")

	svc := NewService(repo, tenancy.FixedClock{Date: date(t, "2024-03-10")})

	stats, err := svc.Stats(context.Background(), "owner-1")
	require.NoError(t, err)

	// THEN only the second tenancy is overdue, for Jan, Feb and Mar
	assert.Equal(t, 1, stats.OverdueTenancies)
	assert.True(t, stats.TotalOverdue.Equal(money(6000)),
		"overdue: %s", stats.TotalOverdue.Value)
}

func TestStats_CollectionGrowth(t *testing.T) {
	// GIVEN 2000 collected last month and 3000 this month
	repo := store.NewMemory()
	seedPayment(t, repo, "p1", 2000, "2024-02-10")
	seedPayment(t, repo, "p2", 3000, "2024-03-08")

	svc := NewService(repo, tenancy.FixedClock{Date: date(t, "2024-03-15")})

	stats, err := svc.Stats(context.Background(), "owner-1")
	require.NoError(t, err)

	// THEN growth is +50%
	assert.True(t, stats.CollectedThisMonth.Equal(money(3000)))
	assert.True(t, stats.CollectionGrowthPercent.Equal(decimal.NewFromInt(50)),
		"growth: %s", stats.CollectionGrowthPercent)
}

func TestStats_GrowthFromZeroBase(t *testing.T) {
	repo := store.NewMemory()
	seedPayment(t, repo, "p1", 1500, "2024-03-08")

	svc := NewService(repo, tenancy.FixedClock{Date: date(t, "2024-03-15")})

	stats, err := svc.Stats(context.Background(), "owner-1")
	require.NoError(t, err)
	assert.True(t, stats.CollectionGrowthPercent.Equal(decimal.NewFromInt(100)))
}

func TestRevenue_TrailingSeries(t *testing.T) {
	// GIVEN payments spread over three months
	repo := store.NewMemory()
	seedPayment(t, repo, "p1", 2000, "2024-01-10")
	seedPayment(t, repo, "p2", 2000, "2024-02-09")
	seedPayment(t, repo, "p3", 500, "2024-02-20")
	seedPayment(t, repo, "p4", 3000, "2024-03-05")

	svc := NewService(repo, tenancy.FixedClock{Date: date(t, "2024-03-15")})

	// WHEN a 3 month series is requested
	series, err := svc.Revenue(context.Background(), "owner-1", 3)
	require.NoError(t, err)
	require.Len(t, series, 3)

	// THEN months come oldest first with per-month totals
	assert.Equal(t, "January 2024", series[0].Label)
	assert.True(t, series[0].Collected.Equal(money(2000)))
	assert.Equal(t, 1, series[0].Payments)

	assert.Equal(t, "February 2024", series[1].Label)
	assert.True(t, series[1].Collected.Equal(money(2500)))
	assert.Equal(t, 2, series[1].Payments)

	assert.Equal(t, "March 2024", series[2].Label)
	assert.True(t, series[2].Collected.Equal(money(3000)))
}

func TestRevenue_EmptyMonthsAreZero(t *testing.T) {
	repo := store.NewMemory()
	svc := NewService(repo, tenancy.FixedClock{Date: date(t, "2024-03-15")})

	series, err := svc.Revenue(context.Background(), "owner-1", 12)
	require.NoError(t, err)
	require.Len(t, series, 12)
	for _, point := range series {
		assert.True(t, point.Collected.IsZero())
		assert.Zero(t, point.Payments)
	}
	assert.Equal(t, "April 2023", series[0].Label)
	assert.Equal(t, "March 2024", series[11].Label)
}
