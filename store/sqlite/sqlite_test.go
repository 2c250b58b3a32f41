package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/rent-engine/rentcycle"
	"github.com/warp/rent-engine/tenancy"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func date(t *testing.T, s string) rentcycle.Date {
	t.Helper()
	d, err := rentcycle.ParseDate(s)
	require.NoError(t, err)
	return d
}

func seedTenancy(t *testing.T, s *Store) *tenancy.Tenancy {
	t.Helper()
	ten := &tenancy.Tenancy{
		Tenancy: rentcycle.Tenancy{
			ID:             "ten-1",
			PropertyID:     "unit-1",
			TenantID:       "tenant-1",
			RentAmount:     rentcycle.NewMoneyFromInt(2000),
			Frequency:      rentcycle.Monthly,
			StartDate:      date(t, "2024-01-05"),
			NextDueDate:    date(t, "2024-02-05"),
			AdvanceBalance: rentcycle.NewMoneyFromInt(500),
			Status:         rentcycle.StatusActive,
			OriginalRent:   rentcycle.NewMoneyFromInt(2000),
		},
		OwnerID:   "owner-1",
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	require.NoError(t, s.CreateTenancy(context.Background(), ten))
	return ten
}

func TestTenancyRoundTrip(t *testing.T) {
	// GIVEN a stored tenancy
	s := newTestStore(t)
	seedTenancy(t, s)

	// WHEN it is read back
	got, err := s.GetTenancy(context.Background(), "ten-1")
	require.NoError(t, err)

	// THEN every field survives the trip
	assert.Equal(t, "owner-1", got.OwnerID)
	assert.True(t, got.RentAmount.Equal(rentcycle.NewMoneyFromInt(2000)))
	assert.True(t, got.NextDueDate.Equal(date(t, "2024-02-05")))
	assert.True(t, got.AdvanceBalance.Equal(rentcycle.NewMoneyFromInt(500)))
	assert.Equal(t, rentcycle.StatusActive, got.Status)
	assert.Nil(t, got.EndDate)
}

func TestSaveTenancyIf_AppliesWhenDueDateMatches(t *testing.T) {
	s := newTestStore(t)
	seedTenancy(t, s)

	newDue := date(t, "2024-03-05")
	newAdvance := rentcycle.NewMoneyFromInt(700)
	err := s.SaveTenancyIf(context.Background(), "ten-1", date(t, "2024-02-05"), tenancy.TenancyUpdate{
		NextDueDate:    &newDue,
		AdvanceBalance: &newAdvance,
	})
	require.NoError(t, err)

	got, err := s.GetTenancy(context.Background(), "ten-1")
	require.NoError(t, err)
	assert.True(t, got.NextDueDate.Equal(newDue))
	assert.True(t, got.AdvanceBalance.Equal(newAdvance))
}

func TestSaveTenancyIf_RejectsStaleSnapshot(t *testing.T) {
	// GIVEN a tenancy whose due date has already advanced past the
	// caller's snapshot
	s := newTestStore(t)
	seedTenancy(t, s)

	// WHEN an update arrives guarded by the old due date
	newDue := date(t, "2024-04-05")
	err := s.SaveTenancyIf(context.Background(), "ten-1", date(t, "2024-01-05"), tenancy.TenancyUpdate{
		NextDueDate: &newDue,
	})

	// THEN the update is rejected and nothing changed
	require.ErrorIs(t, err, rentcycle.ErrStaleTenancyState)
	got, gerr := s.GetTenancy(context.Background(), "ten-1")
	require.NoError(t, gerr)
	assert.True(t, got.NextDueDate.Equal(date(t, "2024-02-05")))
}

func TestApplyReconciliation_CommitsUpdateAndPaymentsTogether(t *testing.T) {
	s := newTestStore(t)
	seedTenancy(t, s)

	newDue := date(t, "2024-03-05")
	newAdvance := rentcycle.NewMoneyFromInt(500)
	payments := []*tenancy.Payment{{
		ID: "pay-1", TenancyID: "ten-1", PropertyID: "unit-1",
		TenantID: "tenant-1", OwnerID: "owner-1",
		Amount: rentcycle.NewMoneyFromInt(2000), Date: date(t, "2024-02-10"),
		Method: tenancy.MethodUPI, PeriodLabel: "February 2024",
		Notes: "Rent payment for February 2024", CreatedAt: time.Now().UTC(),
	}}

	err := s.ApplyReconciliation(context.Background(), "ten-1", date(t, "2024-02-05"), tenancy.TenancyUpdate{
		NextDueDate:    &newDue,
		AdvanceBalance: &newAdvance,
	}, payments)
	require.NoError(t, err)

	got, err := s.GetTenancy(context.Background(), "ten-1")
	require.NoError(t, err)
	assert.True(t, got.NextDueDate.Equal(newDue))

	history, err := s.ListPaymentsByTenancy(context.Background(), "ten-1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "February 2024", history[0].PeriodLabel)
}

func TestApplyReconciliation_StaleSnapshotWritesNothing(t *testing.T) {
	// GIVEN a snapshot whose due date has already moved on
	s := newTestStore(t)
	seedTenancy(t, s)

	newDue := date(t, "2024-04-05")
	payments := []*tenancy.Payment{{
		ID: "pay-1", TenancyID: "ten-1", PropertyID: "unit-1",
		TenantID: "tenant-1", OwnerID: "owner-1",
		Amount: rentcycle.NewMoneyFromInt(2000), Date: date(t, "2024-03-10"),
		Method: tenancy.MethodCash, PeriodLabel: "March 2024",
		CreatedAt: time.Now().UTC(),
	}}

	// WHEN the reconciliation is applied against the stale snapshot
	err := s.ApplyReconciliation(context.Background(), "ten-1", date(t, "2024-01-05"), tenancy.TenancyUpdate{
		NextDueDate: &newDue,
	}, payments)

	// THEN the whole transaction rolls back: due date untouched, no rows
	require.ErrorIs(t, err, rentcycle.ErrStaleTenancyState)

	got, gerr := s.GetTenancy(context.Background(), "ten-1")
	require.NoError(t, gerr)
	assert.True(t, got.NextDueDate.Equal(date(t, "2024-02-05")))

	history, herr := s.ListPaymentsByTenancy(context.Background(), "ten-1")
	require.NoError(t, herr)
	assert.Empty(t, history)
}

func TestAppendPayments_AtomicBatch(t *testing.T) {
	s := newTestStore(t)
	seedTenancy(t, s)

	batch := []*tenancy.Payment{
		{
			ID: "pay-1", TenancyID: "ten-1", PropertyID: "unit-1",
			TenantID: "tenant-1", OwnerID: "owner-1",
			Amount: rentcycle.NewMoneyFromInt(2000), Date: date(t, "2024-02-10"),
			Method: tenancy.MethodBankTransfer, PeriodLabel: "February 2024",
			Notes: "Rent payment for February 2024", CreatedAt: time.Now().UTC(),
		},
		{
			ID: "pay-2", TenancyID: "ten-1", PropertyID: "unit-1",
			TenantID: "tenant-1", OwnerID: "owner-1",
			Amount: rentcycle.NewMoneyFromInt(2000), Date: date(t, "2024-03-10"),
			Method: tenancy.MethodCash, PeriodLabel: "March 2024",
			Notes: "Rent payment for March 2024", CreatedAt: time.Now().UTC(),
		},
	}
	require.NoError(t, s.AppendPayments(context.Background(), batch))

	got, err := s.ListPaymentsByTenancy(context.Background(), "ten-1")
	require.NoError(t, err)
	require.Len(t, got, 2)

	// Newest first.
	assert.Equal(t, "pay-2", got[0].ID)
	assert.Equal(t, "March 2024", got[0].PeriodLabel)
	assert.Equal(t, tenancy.MethodCash, got[0].Method)
	assert.Equal(t, "pay-1", got[1].ID)
	assert.True(t, got[1].Amount.Equal(rentcycle.NewMoneyFromInt(2000)))
}

func TestScan_CorruptAmount_FailsLoudly(t *testing.T) {
	// A stored amount that no longer parses is a data error, not a zero
	// balance. The scan must name the offending row and column.
	s := newTestStore(t)
	seedTenancy(t, s)

	_, err := s.db.Exec(`UPDATE tenancies SET rent_amount = 'garbage' WHERE id = 'ten-1'`)
	require.NoError(t, err)

	_, err = s.GetTenancy(context.Background(), "ten-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ten-1 rent_amount")
}

func TestScan_CorruptPaymentAmount_FailsLoudly(t *testing.T) {
	s := newTestStore(t)
	seedTenancy(t, s)

	require.NoError(t, s.AppendPayments(context.Background(), []*tenancy.Payment{{
		ID: "pay-1", TenancyID: "ten-1", PropertyID: "unit-1",
		TenantID: "tenant-1", OwnerID: "owner-1",
		Amount: rentcycle.NewMoneyFromInt(2000), Date: date(t, "2024-02-10"),
		Method: tenancy.MethodCash, CreatedAt: time.Now().UTC(),
	}}))

	_, err := s.db.Exec(`UPDATE payments SET amount = 'garbage' WHERE id = 'pay-1'`)
	require.NoError(t, err)

	_, err = s.ListPaymentsByTenancy(context.Background(), "ten-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pay-1 amount")
}

func TestPropertyLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	parent := &tenancy.ParentProperty{
		ID: "prop-1", OwnerID: "owner-1", Name: "Sunrise Apartments",
		Address: "12 Hill Road", CreatedAt: time.Now().UTC(), UpdatedAt: time.Now().UTC(),
	}
	require.NoError(t, s.CreateParentProperty(ctx, parent))

	unit := &tenancy.Property{
		ID: "unit-1", ParentPropertyID: "prop-1", OwnerID: "owner-1",
		UnitName: "A-101", Type: "apartment",
		RentAmount:    rentcycle.NewMoneyFromInt(3000),
		RentFrequency: rentcycle.Monthly,
		Status:        tenancy.PropertyVacant,
		CreatedAt:     time.Now().UTC(), UpdatedAt: time.Now().UTC(),
	}
	require.NoError(t, s.CreateProperty(ctx, unit))

	// Unset due day is persisted as the default.
	got, err := s.GetProperty(ctx, "unit-1")
	require.NoError(t, err)
	assert.Equal(t, tenancy.DefaultDueDay, got.DueDay)
	assert.Equal(t, tenancy.PropertyVacant, got.Status)

	require.NoError(t, s.SetPropertyStatus(ctx, "unit-1", tenancy.PropertyOccupied))
	got, err = s.GetProperty(ctx, "unit-1")
	require.NoError(t, err)
	assert.Equal(t, tenancy.PropertyOccupied, got.Status)

	parents, err := s.ListParentProperties(ctx, "owner-1")
	require.NoError(t, err)
	require.Len(t, parents, 1)
	assert.Equal(t, "Sunrise Apartments", parents[0].Name)
}
