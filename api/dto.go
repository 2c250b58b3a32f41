/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

MONEY ON THE WIRE:
  Amounts travel as JSON numbers. Internally everything is decimal;
  the conversion happens only at this boundary.

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - server.go: Router setup
*/
package api

import (
	"time"

	"github.com/warp/rent-engine/analytics"
	"github.com/warp/rent-engine/rentcycle"
	"github.com/warp/rent-engine/tenancy"
)

// =============================================================================
// PROPERTIES
// =============================================================================

// PropertyDTO represents a rentable unit in API responses.
type PropertyDTO struct {
	ID               string  `json:"id"`
	ParentPropertyID string  `json:"parent_property_id,omitempty"`
	UnitName         string  `json:"unit_name"`
	UnitDetails      string  `json:"unit_details,omitempty"`
	Type             string  `json:"type"`
	RentAmount       float64 `json:"rent_amount"`
	RentFrequency    string  `json:"rent_frequency"`
	DueDay           int     `json:"due_day"`
	SecurityDeposit  float64 `json:"security_deposit"`
	Status           string  `json:"status"`
	CreatedAt        string  `json:"created_at,omitempty"`
}

// CreatePropertyRequest is the request to register a unit.
type CreatePropertyRequest struct {
	ParentPropertyID string  `json:"parent_property_id,omitempty"`
	OwnerID          string  `json:"owner_id"`
	UnitName         string  `json:"unit_name"`
	UnitDetails      string  `json:"unit_details,omitempty"`
	Type             string  `json:"type"`
	RentAmount       float64 `json:"rent_amount"`
	RentFrequency    string  `json:"rent_frequency"`
	DueDay           int     `json:"due_day,omitempty"`
	SecurityDeposit  float64 `json:"security_deposit,omitempty"`
}

// =============================================================================
// TENANCIES
// =============================================================================

// TenancyDTO represents a tenancy in API responses.
type TenancyDTO struct {
	ID              string  `json:"id"`
	PropertyID      string  `json:"property_id"`
	TenantID        string  `json:"tenant_id"`
	RentAmount      float64 `json:"rent_amount"`
	Frequency       string  `json:"rent_frequency"`
	StartDate       string  `json:"start_date"`
	EndDate         *string `json:"end_date,omitempty"`
	NextDueDate     string  `json:"next_due_date"`
	AdvanceBalance  float64 `json:"advance_balance"`
	SecurityDeposit float64 `json:"security_deposit"`
	Status          string  `json:"status"`
	RenewalCount    int     `json:"renewal_count"`
	OriginalRent    float64 `json:"original_rent"`
}

// AssignTenantRequest creates a tenancy on a vacant unit.
type AssignTenantRequest struct {
	PropertyID      string  `json:"property_id"`
	TenantID        string  `json:"tenant_id"`
	OwnerID         string  `json:"owner_id"`
	StartDate       string  `json:"start_date"`
	RentAmount      float64 `json:"rent_amount"`
	RentFrequency   string  `json:"rent_frequency"`
	SecurityDeposit float64 `json:"security_deposit,omitempty"`
	AdvancePayment  float64 `json:"advance_payment,omitempty"`
}

// AssignTenantResponse returns the created tenancy and, for mid-cycle
// starts, the recorded prorated first payment.
type AssignTenantResponse struct {
	Tenancy         TenancyDTO  `json:"tenancy"`
	ProratedPayment *PaymentDTO `json:"prorated_payment,omitempty"`
}

// RenewLeaseRequest applies renewal terms to an active tenancy.
type RenewLeaseRequest struct {
	DurationYears     int     `json:"duration_years"`
	ApplyIncrement    bool    `json:"apply_increment"`
	IncrementPercent  float64 `json:"increment_percent,omitempty"`
	AdditionalAdvance float64 `json:"additional_advance,omitempty"`
}

// =============================================================================
// PAYMENTS
// =============================================================================

// PaymentDTO represents one payment record.
type PaymentDTO struct {
	ID            string  `json:"id"`
	TenancyID     string  `json:"tenancy_id"`
	Amount        float64 `json:"amount"`
	Date          string  `json:"date"`
	Method        string  `json:"method"`
	TransactionID string  `json:"transaction_id,omitempty"`
	AdvanceUsed   float64 `json:"advance_used"`
	PeriodLabel   string  `json:"period_label,omitempty"`
	Notes         string  `json:"notes,omitempty"`
}

// RecordPaymentRequest reconciles a payment against selected periods.
type RecordPaymentRequest struct {
	AmountPaid    float64 `json:"amount_paid"`
	AdvanceDraw   float64 `json:"advance_draw,omitempty"`
	PeriodIndices []int   `json:"period_indices,omitempty"`
	Method        string  `json:"method,omitempty"`
	TransactionID string  `json:"transaction_id,omitempty"`
	Notes         string  `json:"notes,omitempty"`
}

// RecordPaymentResponse returns the updated tenancy and payment records.
type RecordPaymentResponse struct {
	Tenancy  TenancyDTO   `json:"tenancy"`
	Payments []PaymentDTO `json:"payments"`
}

// =============================================================================
// REPORTS
// =============================================================================

// PeriodDTO is one billing period.
type PeriodDTO struct {
	Label   string `json:"label"`
	DueDate string `json:"due_date"`
}

// ArrearsDTO separates what is owed from what is merely next.
type ArrearsDTO struct {
	Overdue      []PeriodDTO `json:"overdue"`
	TotalOverdue float64     `json:"total_overdue"`
	Upcoming     PeriodDTO   `json:"upcoming"`
}

// MonthStatusDTO is one row of the monthly breakdown.
type MonthStatusDTO struct {
	Label    string  `json:"label"`
	DueDate  string  `json:"due_date"`
	Expected float64 `json:"expected"`
	Paid     float64 `json:"paid"`
	IsPaid   bool    `json:"is_paid"`
	Overdue  bool    `json:"overdue"`
}

// BreakdownDTO is the month-by-month ledger plus the overdue shortfall.
type BreakdownDTO struct {
	Months            []MonthStatusDTO `json:"months"`
	OutstandingAmount float64          `json:"outstanding_amount"`
	OverdueMonths     int              `json:"overdue_months"`
}

// StatsDTO is the owner dashboard summary.
type StatsDTO struct {
	TotalUnits              int     `json:"total_units"`
	OccupiedUnits           int     `json:"occupied_units"`
	VacantUnits             int     `json:"vacant_units"`
	OccupancyPercent        float64 `json:"occupancy_percent"`
	ActiveTenancies         int     `json:"active_tenancies"`
	ExpectedMonthlyRent     float64 `json:"expected_monthly_rent"`
	CollectedThisMonth      float64 `json:"collected_this_month"`
	CollectionGrowthPercent float64 `json:"collection_growth_percent"`
	OverdueTenancies        int     `json:"overdue_tenancies"`
	TotalOverdue            float64 `json:"total_overdue"`
}

// MonthRevenueDTO is one point in the revenue series.
type MonthRevenueDTO struct {
	Label     string  `json:"label"`
	Collected float64 `json:"collected"`
	Payments  int     `json:"payments"`
}

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toPropertyDTO(p *tenancy.Property) PropertyDTO {
	return PropertyDTO{
		ID:               p.ID,
		ParentPropertyID: p.ParentPropertyID,
		UnitName:         p.UnitName,
		UnitDetails:      p.UnitDetails,
		Type:             p.Type,
		RentAmount:       p.RentAmount.Value.InexactFloat64(),
		RentFrequency:    string(p.RentFrequency),
		DueDay:           p.EffectiveDueDay(),
		SecurityDeposit:  p.SecurityDeposit.Value.InexactFloat64(),
		Status:           string(p.Status),
		CreatedAt:        p.CreatedAt.Format(time.RFC3339),
	}
}

func toTenancyDTO(t *tenancy.Tenancy) TenancyDTO {
	dto := TenancyDTO{
		ID:              t.ID,
		PropertyID:      t.PropertyID,
		TenantID:        t.TenantID,
		RentAmount:      t.RentAmount.Value.InexactFloat64(),
		Frequency:       string(t.Frequency),
		StartDate:       t.StartDate.String(),
		NextDueDate:     t.NextDueDate.String(),
		AdvanceBalance:  t.AdvanceBalance.Value.InexactFloat64(),
		SecurityDeposit: t.SecurityDeposit.Value.InexactFloat64(),
		Status:          string(t.Status),
		RenewalCount:    t.RenewalCount,
		OriginalRent:    t.OriginalRent.Value.InexactFloat64(),
	}
	if t.EndDate != nil {
		end := t.EndDate.String()
		dto.EndDate = &end
	}
	return dto
}

func toPaymentDTO(p *tenancy.Payment) PaymentDTO {
	return PaymentDTO{
		ID:            p.ID,
		TenancyID:     p.TenancyID,
		Amount:        p.Amount.Value.InexactFloat64(),
		Date:          p.Date.String(),
		Method:        string(p.Method),
		TransactionID: p.TransactionID,
		AdvanceUsed:   p.AdvanceUsed.Value.InexactFloat64(),
		PeriodLabel:   p.PeriodLabel,
		Notes:         p.Notes,
	}
}

func toPaymentDTOs(payments []*tenancy.Payment) []PaymentDTO {
	dtos := make([]PaymentDTO, 0, len(payments))
	for _, p := range payments {
		dtos = append(dtos, toPaymentDTO(p))
	}
	return dtos
}

func toPeriodDTO(p rentcycle.Period) PeriodDTO {
	return PeriodDTO{Label: p.Label, DueDate: p.DueDate.String()}
}

func toArrearsDTO(r rentcycle.ArrearsReport) ArrearsDTO {
	dto := ArrearsDTO{
		Overdue:      make([]PeriodDTO, 0, len(r.Overdue)),
		TotalOverdue: r.TotalOverdue.Value.InexactFloat64(),
		Upcoming:     toPeriodDTO(r.Upcoming),
	}
	for _, p := range r.Overdue {
		dto.Overdue = append(dto.Overdue, toPeriodDTO(p))
	}
	return dto
}

func toBreakdownDTO(b *tenancy.BreakdownResult) BreakdownDTO {
	dto := BreakdownDTO{
		Months:            make([]MonthStatusDTO, 0, len(b.Months)),
		OutstandingAmount: b.Outstanding.Amount.Value.InexactFloat64(),
		OverdueMonths:     len(b.Outstanding.Months),
	}
	for _, m := range b.Months {
		dto.Months = append(dto.Months, MonthStatusDTO{
			Label:    m.Period.Label,
			DueDate:  m.Period.DueDate.String(),
			Expected: m.Expected.Value.InexactFloat64(),
			Paid:     m.Paid.Value.InexactFloat64(),
			IsPaid:   m.IsPaid,
			Overdue:  m.Overdue,
		})
	}
	return dto
}

func toStatsDTO(s *analytics.PortfolioStats) StatsDTO {
	return StatsDTO{
		TotalUnits:              s.TotalUnits,
		OccupiedUnits:           s.OccupiedUnits,
		VacantUnits:             s.VacantUnits,
		OccupancyPercent:        s.OccupancyPercent.InexactFloat64(),
		ActiveTenancies:         s.ActiveTenancies,
		ExpectedMonthlyRent:     s.ExpectedMonthlyRent.Value.InexactFloat64(),
		CollectedThisMonth:      s.CollectedThisMonth.Value.InexactFloat64(),
		CollectionGrowthPercent: s.CollectionGrowthPercent.InexactFloat64(),
		OverdueTenancies:        s.OverdueTenancies,
		TotalOverdue:            s.TotalOverdue.Value.InexactFloat64(),
	}
}

func toRevenueDTOs(series []analytics.MonthRevenue) []MonthRevenueDTO {
	dtos := make([]MonthRevenueDTO, 0, len(series))
	for _, point := range series {
		dtos = append(dtos, MonthRevenueDTO{
			Label:     point.Label,
			Collected: point.Collected.Value.InexactFloat64(),
			Payments:  point.Payments,
		})
	}
	return dtos
}
