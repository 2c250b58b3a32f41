/*
repository.go - Persistence interface for the tenancy domain

PURPOSE:
  Defines the narrow interface between the lifecycle service and storage.
  Two implementations exist: tenancy/store (in-memory, tests/dev) and
  store/sqlite (production).

OPTIMISTIC CONCURRENCY:
  Rent-cycle results are persisted with a conditional update keyed on
  the tenancy's NextDueDate (SaveTenancyIf, ApplyReconciliation). Two
  concurrent reconciliations against the same tenancy cannot both win:
  whichever lands second sees a changed NextDueDate and gets
  ErrStaleTenancyState. The service reloads, recomputes, and retries
  once. ApplyReconciliation additionally writes the payment rows in the
  same transaction, so an advanced due date always has its payments.

APPEND-ONLY PAYMENTS:
  Payments have Append operations only - no Update, no Delete. Editing
  history is done by inserting compensating records.
*/
package tenancy

import (
	"context"
	"errors"

	"github.com/warp/rent-engine/rentcycle"
)

// ErrNotFound reports a lookup that matched nothing. Stores wrap it with
// the entity kind and id.
var ErrNotFound = errors.New("not found")

// =============================================================================
// REPOSITORY
// =============================================================================

// Repository is everything the lifecycle service needs from storage.
type Repository interface {
	TenancyStore
	PaymentStore
	PropertyStore

	// ApplyReconciliation persists a reconciliation outcome atomically:
	// the guarded tenancy update and its payment rows commit together or
	// not at all. Same staleness contract as SaveTenancyIf - when the
	// stored NextDueDate no longer equals expectedNextDue, nothing is
	// written and rentcycle.ErrStaleTenancyState is returned.
	ApplyReconciliation(ctx context.Context, id string, expectedNextDue rentcycle.Date, u TenancyUpdate, payments []*Payment) error
}

// TenancyUpdate is a partial update; nil fields are left untouched.
type TenancyUpdate struct {
	RentAmount     *rentcycle.Money
	NextDueDate    *rentcycle.Date
	AdvanceBalance *rentcycle.Money
	EndDate        *rentcycle.Date
	Status         *rentcycle.Status
	RenewalCount   *int
}

// TenancyStore persists tenancies.
type TenancyStore interface {
	CreateTenancy(ctx context.Context, t *Tenancy) error

	GetTenancy(ctx context.Context, id string) (*Tenancy, error)

	// ListTenancies returns all tenancies for an owner.
	ListTenancies(ctx context.Context, ownerID string) ([]*Tenancy, error)

	// ListTenanciesByTenant returns a tenant's own tenancies.
	ListTenanciesByTenant(ctx context.Context, tenantID string) ([]*Tenancy, error)

	// SaveTenancyIf applies the update only while the stored NextDueDate
	// still equals expectedNextDue. Returns rentcycle.ErrStaleTenancyState
	// when the row has moved on since the snapshot was read.
	SaveTenancyIf(ctx context.Context, id string, expectedNextDue rentcycle.Date, u TenancyUpdate) error

	// ListOwners returns the distinct owner ids with at least one tenancy.
	ListOwners(ctx context.Context) ([]string, error)
}

// PaymentStore persists payment records. APPEND-ONLY: no Update, no Delete.
type PaymentStore interface {
	// AppendPayments writes the records atomically: all or none.
	AppendPayments(ctx context.Context, payments []*Payment) error

	ListPaymentsByTenancy(ctx context.Context, tenancyID string) ([]*Payment, error)
	ListPaymentsByOwner(ctx context.Context, ownerID string) ([]*Payment, error)
	ListPaymentsByTenant(ctx context.Context, tenantID string) ([]*Payment, error)
}

// PropertyStore persists units and their parent properties.
type PropertyStore interface {
	CreateParentProperty(ctx context.Context, p *ParentProperty) error
	ListParentProperties(ctx context.Context, ownerID string) ([]*ParentProperty, error)

	CreateProperty(ctx context.Context, p *Property) error
	GetProperty(ctx context.Context, id string) (*Property, error)
	ListProperties(ctx context.Context, ownerID string) ([]*Property, error)

	// SetPropertyStatus flips a unit between vacant and occupied.
	SetPropertyStatus(ctx context.Context, id string, status PropertyStatus) error
}
