/*
Package rentcycle implements the rent lifecycle calculation engine.

PURPOSE:
  Deterministic rules that, given a tenancy's start date, rent frequency,
  and due day, answer the four lifecycle questions:
  - When is rent first due, and what does a partial first month cost?
  - Which billing periods are overdue, and how much is owed?
  - What happens to the advance balance and due date when a payment lands?
  - What are the new terms when a lease is renewed?

DESIGN PRINCIPLES:
  1. Purity: every calculator is a function of its inputs. No hidden state,
     no I/O, no clock reads - "now" is always an explicit argument.
  2. Precision: decimal.Decimal for all money, never float64 arithmetic.
  3. Completeness: a calculator returns a fully-determined result or an
     error. It never mutates its input tenancy and never partially applies.

  Persistence of a result is the caller's job (see the tenancy package),
  guarded by a conditional write keyed on the tenancy's NextDueDate.

SEE ALSO:
  - schedule.go: first due date + proration
  - arrears.go:  overdue period enumeration
  - payment.go:  payment reconciliation
  - renewal.go:  lease renewal terms
*/
package rentcycle

// =============================================================================
// FREQUENCY - Billing cadence
// =============================================================================

type Frequency string

const (
	Monthly Frequency = "monthly"
	Yearly  Frequency = "yearly"
)

// Valid reports whether f is a known billing frequency.
func (f Frequency) Valid() bool {
	return f == Monthly || f == Yearly
}

// Step advances a date by one billing cycle.
func (f Frequency) Step(d Date) Date {
	if f == Yearly {
		return d.AddYears(1)
	}
	return d.AddMonths(1)
}

// StepN advances a date by n billing cycles, one cycle at a time.
// Iterating Step keeps the result on the same dates the per-period walk
// visits: a due day of 31 settles onto the 29th (or 28th) after crossing
// February and stays there, rather than jumping back to the 31st.
func (f Frequency) StepN(d Date, n int) Date {
	for i := 0; i < n; i++ {
		d = f.Step(d)
	}
	return d
}

// Label returns the billing-period label for the period due on d:
// month + year for monthly cycles, bare year for yearly.
func (f Frequency) Label(d Date) string {
	if f == Yearly {
		return d.YearLabel()
	}
	return d.MonthLabel()
}

// =============================================================================
// TENANCY STATUS
// =============================================================================

type Status string

const (
	StatusActive Status = "active"
	StatusEnded  Status = "ended"
)

// =============================================================================
// TENANCY - Calculation snapshot
// =============================================================================

// Tenancy is the snapshot of a rental agreement that the calculators
// operate on. It is a value type: calculators read it and return new field
// values, they never write through it.
//
// INVARIANTS:
//   - NextDueDate >= StartDate, and advances monotonically forward
//   - AdvanceBalance >= 0
//   - OriginalRent is set at creation and never changes
//   - active -> ended happens exactly once; an ended tenancy is frozen
type Tenancy struct {
	ID             string
	PropertyID     string
	TenantID       string
	RentAmount     Money
	Frequency      Frequency
	StartDate      Date
	EndDate        *Date // nil = open-ended lease
	NextDueDate    Date
	AdvanceBalance Money
	SecurityDeposit Money
	Status         Status
	RenewalCount   int
	OriginalRent   Money // baseline for lifetime increment reporting
}

// =============================================================================
// PERIOD - One billing period
// =============================================================================

// Period identifies a single billing period by its due date and
// human-readable label ("January 2024" or "2024").
type Period struct {
	Label   string
	DueDate Date
}

// PeriodsFrom enumerates n consecutive billing periods starting at the
// period due on 'due'.
func PeriodsFrom(due Date, f Frequency, n int) []Period {
	periods := make([]Period, 0, n)
	current := due
	for i := 0; i < n; i++ {
		periods = append(periods, Period{Label: f.Label(current), DueDate: current})
		current = f.Step(current)
	}
	return periods
}
