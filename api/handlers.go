/*
handlers.go - HTTP API handlers for the rent lifecycle engine

PURPOSE:
  Exposes the tenancy lifecycle service via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Properties:
    GET    /api/buildings               List parent properties
    POST   /api/buildings               Create parent property
    GET    /api/properties              List units
    POST   /api/properties              Register unit
    GET    /api/properties/{id}         Get unit

  Tenancies:
    GET    /api/tenancies               List tenancies for an owner
    POST   /api/tenancies               Assign tenant to a vacant unit
    GET    /api/tenancies/{id}          Get tenancy
    GET    /api/tenancies/{id}/arrears  Overdue periods + upcoming period
    GET    /api/tenancies/{id}/breakdown Month-by-month ledger
    GET    /api/tenancies/{id}/payments  Payment history
    POST   /api/tenancies/{id}/payments  Record + reconcile a payment
    POST   /api/tenancies/{id}/renew     Renew lease
    POST   /api/tenancies/{id}/end       End tenancy

  Tenants:
    GET    /api/tenants/{id}/payments    Tenant's own payment history

  Dashboard:
    GET    /api/dashboard/stats          Portfolio summary
    GET    /api/dashboard/revenue        Trailing revenue series

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input, rejected domain operations
  - 404: Resource not found
  - 409: Conflict (stale state after the retry was also lost)
  - 500: Internal errors

SECURITY NOTE:
  Currently NO authentication or authorization. Owner scoping is a
  query parameter. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - tenancy/service.go: The lifecycle operations behind these handlers
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/warp/rent-engine/analytics"
	"github.com/warp/rent-engine/rentcycle"
	"github.com/warp/rent-engine/tenancy"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds the API's dependencies. metrics may be nil in tests.
type Handler struct {
	svc     *tenancy.Service
	stats   *analytics.Service
	repo    tenancy.Repository
	metrics *Metrics
}

func NewHandler(svc *tenancy.Service, stats *analytics.Service, repo tenancy.Repository, metrics *Metrics) *Handler {
	return &Handler{svc: svc, stats: stats, repo: repo, metrics: metrics}
}

// =============================================================================
// PROPERTY ENDPOINTS
// =============================================================================

// ListBuildings returns an owner's parent properties.
// GET /api/buildings?owner_id=...
func (h *Handler) ListBuildings(w http.ResponseWriter, r *http.Request) {
	ownerID := r.URL.Query().Get("owner_id")
	buildings, err := h.repo.ListParentProperties(r.Context(), ownerID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list buildings", err)
		return
	}

	out := make([]map[string]string, 0, len(buildings))
	for _, b := range buildings {
		out = append(out, map[string]string{
			"id":      b.ID,
			"name":    b.Name,
			"address": b.Address,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// CreateBuilding registers a parent property.
// POST /api/buildings
func (h *Handler) CreateBuilding(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OwnerID string `json:"owner_id"`
		Name    string `json:"name"`
		Address string `json:"address,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.Name == "" || req.OwnerID == "" {
		writeError(w, http.StatusBadRequest, "name and owner_id are required", nil)
		return
	}

	now := time.Now().UTC()
	building := &tenancy.ParentProperty{
		ID:        uuid.NewString(),
		OwnerID:   req.OwnerID,
		Name:      req.Name,
		Address:   req.Address,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.repo.CreateParentProperty(r.Context(), building); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create building", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": building.ID})
}

// ListProperties returns an owner's units.
// GET /api/properties?owner_id=...
func (h *Handler) ListProperties(w http.ResponseWriter, r *http.Request) {
	ownerID := r.URL.Query().Get("owner_id")
	units, err := h.repo.ListProperties(r.Context(), ownerID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list properties", err)
		return
	}

	dtos := make([]PropertyDTO, 0, len(units))
	for _, u := range units {
		dtos = append(dtos, toPropertyDTO(u))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateProperty registers a rentable unit.
// POST /api/properties
func (h *Handler) CreateProperty(w http.ResponseWriter, r *http.Request) {
	var req CreatePropertyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.UnitName == "" || req.OwnerID == "" {
		writeError(w, http.StatusBadRequest, "unit_name and owner_id are required", nil)
		return
	}
	freq := rentcycle.Frequency(req.RentFrequency)
	if !freq.Valid() {
		writeError(w, http.StatusBadRequest, "invalid rent_frequency", nil)
		return
	}

	now := time.Now().UTC()
	unit := &tenancy.Property{
		ID:               uuid.NewString(),
		ParentPropertyID: req.ParentPropertyID,
		OwnerID:          req.OwnerID,
		UnitName:         req.UnitName,
		UnitDetails:      req.UnitDetails,
		Type:             req.Type,
		RentAmount:       moneyFromFloat(req.RentAmount),
		RentFrequency:    freq,
		DueDay:           req.DueDay,
		SecurityDeposit:  moneyFromFloat(req.SecurityDeposit),
		Status:           tenancy.PropertyVacant,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := h.repo.CreateProperty(r.Context(), unit); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create property", err)
		return
	}
	writeJSON(w, http.StatusCreated, toPropertyDTO(unit))
}

// GetProperty returns one unit.
// GET /api/properties/{id}
func (h *Handler) GetProperty(w http.ResponseWriter, r *http.Request) {
	unit, err := h.repo.GetProperty(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPropertyDTO(unit))
}

// =============================================================================
// TENANCY ENDPOINTS
// =============================================================================

// ListTenancies returns an owner's tenancies.
// GET /api/tenancies?owner_id=...
func (h *Handler) ListTenancies(w http.ResponseWriter, r *http.Request) {
	ownerID := r.URL.Query().Get("owner_id")
	tenancies, err := h.repo.ListTenancies(r.Context(), ownerID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list tenancies", err)
		return
	}

	dtos := make([]TenancyDTO, 0, len(tenancies))
	for _, t := range tenancies {
		dtos = append(dtos, toTenancyDTO(t))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// AssignTenant creates a tenancy on a vacant unit.
// POST /api/tenancies
func (h *Handler) AssignTenant(w http.ResponseWriter, r *http.Request) {
	var req AssignTenantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	start, err := rentcycle.ParseDate(req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid start_date", err)
		return
	}

	result, err := h.svc.AssignTenant(r.Context(), tenancy.AssignTenantInput{
		PropertyID:      req.PropertyID,
		TenantID:        req.TenantID,
		OwnerID:         req.OwnerID,
		StartDate:       start,
		RentAmount:      moneyFromFloat(req.RentAmount),
		Frequency:       rentcycle.Frequency(req.RentFrequency),
		SecurityDeposit: moneyFromFloat(req.SecurityDeposit),
		AdvancePayment:  moneyFromFloat(req.AdvancePayment),
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}

	resp := AssignTenantResponse{Tenancy: toTenancyDTO(result.Tenancy)}
	if result.ProratedPayment != nil {
		dto := toPaymentDTO(result.ProratedPayment)
		resp.ProratedPayment = &dto
	}
	writeJSON(w, http.StatusCreated, resp)
}

// GetTenancy returns one tenancy.
// GET /api/tenancies/{id}
func (h *Handler) GetTenancy(w http.ResponseWriter, r *http.Request) {
	ten, err := h.repo.GetTenancy(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTenancyDTO(ten))
}

// GetArrears returns overdue periods and the upcoming period, kept apart.
// GET /api/tenancies/{id}/arrears
func (h *Handler) GetArrears(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.ArrearsFor(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toArrearsDTO(report))
}

// GetBreakdown returns the month-by-month ledger for a monthly tenancy.
// GET /api/tenancies/{id}/breakdown
func (h *Handler) GetBreakdown(w http.ResponseWriter, r *http.Request) {
	breakdown, err := h.svc.BreakdownFor(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBreakdownDTO(breakdown))
}

// ListPayments returns a tenancy's payment history, newest first.
// GET /api/tenancies/{id}/payments
func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := h.repo.ListPaymentsByTenancy(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPaymentDTOs(payments))
}

// RecordPayment reconciles a payment against the tenancy's selected periods.
// POST /api/tenancies/{id}/payments
func (h *Handler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	var req RecordPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.Method != "" && !tenancy.PaymentMethod(req.Method).Valid() {
		writeError(w, http.StatusBadRequest, "invalid payment method", nil)
		return
	}

	result, err := h.svc.RecordPayment(r.Context(), tenancy.RecordPaymentInput{
		TenancyID:     chi.URLParam(r, "id"),
		AmountPaid:    moneyFromFloat(req.AmountPaid),
		AdvanceDraw:   moneyFromFloat(req.AdvanceDraw),
		PeriodIndices: req.PeriodIndices,
		Method:        tenancy.PaymentMethod(req.Method),
		TransactionID: req.TransactionID,
		Notes:         req.Notes,
	})
	if err != nil {
		if h.metrics != nil && errors.Is(err, rentcycle.ErrStaleTenancyState) {
			h.metrics.StaleConflicts.Inc()
		}
		respondDomainError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.PaymentsRecorded.Inc()
	}
	writeJSON(w, http.StatusCreated, RecordPaymentResponse{
		Tenancy:  toTenancyDTO(result.Tenancy),
		Payments: toPaymentDTOs(result.Payments),
	})
}

// RenewLease applies renewal terms to an active tenancy.
// POST /api/tenancies/{id}/renew
func (h *Handler) RenewLease(w http.ResponseWriter, r *http.Request) {
	var req RenewLeaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.DurationYears <= 0 {
		writeError(w, http.StatusBadRequest, "duration_years must be positive", nil)
		return
	}

	renewed, err := h.svc.RenewLease(r.Context(), tenancy.RenewLeaseInput{
		TenancyID:         chi.URLParam(r, "id"),
		DurationYears:     req.DurationYears,
		ApplyIncrement:    req.ApplyIncrement,
		IncrementPercent:  decimal.NewFromFloat(req.IncrementPercent),
		AdditionalAdvance: moneyFromFloat(req.AdditionalAdvance),
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTenancyDTO(renewed))
}

// EndTenancy closes an active tenancy and frees the unit.
// POST /api/tenancies/{id}/end
func (h *Handler) EndTenancy(w http.ResponseWriter, r *http.Request) {
	ended, err := h.svc.EndTenancy(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTenancyDTO(ended))
}

// GetTenantPayments returns a tenant's own payment history across
// tenancies, for the tenant-facing view.
// GET /api/tenants/{id}/payments
func (h *Handler) GetTenantPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := h.svc.PaymentHistory(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPaymentDTOs(payments))
}

// =============================================================================
// DASHBOARD ENDPOINTS
// =============================================================================

// GetStats returns the owner's portfolio summary.
// GET /api/dashboard/stats?owner_id=...
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.stats.Stats(r.Context(), r.URL.Query().Get("owner_id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to compute stats", err)
		return
	}
	writeJSON(w, http.StatusOK, toStatsDTO(stats))
}

// GetRevenue returns the trailing monthly revenue series.
// GET /api/dashboard/revenue?owner_id=...&months=12
func (h *Handler) GetRevenue(w http.ResponseWriter, r *http.Request) {
	months := 12
	if raw := r.URL.Query().Get("months"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 60 {
			writeError(w, http.StatusBadRequest, "months must be between 1 and 60", nil)
			return
		}
		months = parsed
	}

	series, err := h.stats.Revenue(r.Context(), r.URL.Query().Get("owner_id"), months)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to compute revenue", err)
		return
	}
	writeJSON(w, http.StatusOK, toRevenueDTOs(series))
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// respondDomainError maps domain errors onto HTTP statuses.
func respondDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, tenancy.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found", err)
	case errors.Is(err, rentcycle.ErrStaleTenancyState):
		writeError(w, http.StatusConflict, "tenancy changed concurrently, retry", err)
	case errors.Is(err, tenancy.ErrUnitOccupied):
		writeError(w, http.StatusBadRequest, "unit is already occupied", err)
	case rentcycle.IsClientError(err):
		writeError(w, http.StatusBadRequest, "operation rejected", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal error", err)
	}
}

func moneyFromFloat(v float64) rentcycle.Money {
	return rentcycle.Money{Value: decimal.NewFromFloat(v)}
}
