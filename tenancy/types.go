// Package tenancy holds the property-management domain entities and the
// lifecycle service that connects the rentcycle calculators to persistence.
// Calculators compute; this package loads snapshots, invokes them, and saves
// results with optimistic concurrency.
package tenancy

import (
	"time"

	"github.com/warp/rent-engine/rentcycle"
)

// =============================================================================
// ENTITIES
// =============================================================================

// Tenancy is the persisted rental agreement. The embedded rentcycle value
// is the calculation snapshot; the rest is ownership and audit metadata.
type Tenancy struct {
	rentcycle.Tenancy

	OwnerID   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Payment is one persisted payment row. Immutable once created: history is
// corrected by inserting compensating records, never by editing.
type Payment struct {
	ID            string
	TenancyID     string
	PropertyID    string
	TenantID      string
	OwnerID       string
	Amount        rentcycle.Money
	Date          rentcycle.Date
	Method        PaymentMethod
	TransactionID string
	AdvanceUsed   rentcycle.Money
	PeriodLabel   string
	Notes         string
	CreatedAt     time.Time
}

type PaymentMethod string

const (
	MethodCash         PaymentMethod = "cash"
	MethodBankTransfer PaymentMethod = "bank_transfer"
	MethodCheque       PaymentMethod = "cheque"
	MethodUPI          PaymentMethod = "upi"
	MethodOnline       PaymentMethod = "online"
)

// Valid reports whether m is a known payment method.
func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodCash, MethodBankTransfer, MethodCheque, MethodUPI, MethodOnline:
		return true
	}
	return false
}

// PropertyStatus tracks unit occupancy.
type PropertyStatus string

const (
	PropertyVacant   PropertyStatus = "vacant"
	PropertyOccupied PropertyStatus = "occupied"
)

// DefaultDueDay is the contractual day-of-month rent falls due when a unit
// does not specify one.
const DefaultDueDay = 5

// Property is a rentable unit under a parent property. Its rent fields seed
// a new tenancy; rent-cycle logic never touches them afterwards.
type Property struct {
	ID               string
	ParentPropertyID string
	OwnerID          string
	UnitName         string
	UnitDetails      string
	Type             string
	RentAmount       rentcycle.Money
	RentFrequency    rentcycle.Frequency
	DueDay           int
	SecurityDeposit  rentcycle.Money
	Status           PropertyStatus
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// EffectiveDueDay returns the unit's due day, defaulted when unset.
func (p Property) EffectiveDueDay() int {
	if p.DueDay >= 1 && p.DueDay <= 31 {
		return p.DueDay
	}
	return DefaultDueDay
}

// ParentProperty groups units under one address.
type ParentProperty struct {
	ID        string
	OwnerID   string
	Name      string
	Address   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// =============================================================================
// CLOCK
// =============================================================================

// Clock provides "now" so the service stays testable with a frozen date.
type Clock interface {
	Now() rentcycle.Date
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() rentcycle.Date { return rentcycle.Today() }

// FixedClock always returns the same date.
type FixedClock struct {
	Date rentcycle.Date
}

func (c FixedClock) Now() rentcycle.Date { return c.Date }
