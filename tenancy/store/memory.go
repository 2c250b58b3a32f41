// Package store provides an in-memory Repository implementation for tests
// and development mode.
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/warp/rent-engine/rentcycle"
	"github.com/warp/rent-engine/tenancy"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu        sync.RWMutex
	tenancies map[string]*tenancy.Tenancy
	payments  []*tenancy.Payment
	units     map[string]*tenancy.Property
	parents   map[string]*tenancy.ParentProperty
}

func NewMemory() *Memory {
	return &Memory{
		tenancies: make(map[string]*tenancy.Tenancy),
		units:     make(map[string]*tenancy.Property),
		parents:   make(map[string]*tenancy.ParentProperty),
	}
}

var _ tenancy.Repository = (*Memory)(nil)

// =============================================================================
// TENANCIES
// =============================================================================

func (m *Memory) CreateTenancy(_ context.Context, t *tenancy.Tenancy) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tenancies[t.ID]; ok {
		return fmt.Errorf("tenancy %s already exists", t.ID)
	}
	cp := *t
	m.tenancies[t.ID] = &cp
	return nil
}

func (m *Memory) GetTenancy(_ context.Context, id string) (*tenancy.Tenancy, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tenancies[id]
	if !ok {
		return nil, fmt.Errorf("tenancy %s: %w", id, tenancy.ErrNotFound)
	}
	cp := *t
	return &cp, nil
}

func (m *Memory) ListTenancies(_ context.Context, ownerID string) ([]*tenancy.Tenancy, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*tenancy.Tenancy
	for _, t := range m.tenancies {
		if t.OwnerID == ownerID {
			cp := *t
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) ListTenanciesByTenant(_ context.Context, tenantID string) ([]*tenancy.Tenancy, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*tenancy.Tenancy
	for _, t := range m.tenancies {
		if t.TenantID == tenantID {
			cp := *t
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) ListOwners(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	seen := make(map[string]bool)
	var out []string
	for _, t := range m.tenancies {
		if !seen[t.OwnerID] {
			seen[t.OwnerID] = true
			out = append(out, t.OwnerID)
		}
	}
	sort.Strings(out)
	return out, nil
}

// SaveTenancyIf applies the update only while the stored NextDueDate still
// matches the caller's snapshot. The check and write happen under one lock,
// which is the in-memory analog of the sqlite conditional UPDATE.
func (m *Memory) SaveTenancyIf(_ context.Context, id string, expectedNextDue rentcycle.Date, u tenancy.TenancyUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveTenancyIfLocked(id, expectedNextDue, u)
}

// ApplyReconciliation performs the guarded tenancy update and the payment
// appends under one lock: a stale snapshot writes nothing at all.
func (m *Memory) ApplyReconciliation(_ context.Context, id string, expectedNextDue rentcycle.Date, u tenancy.TenancyUpdate, payments []*tenancy.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.saveTenancyIfLocked(id, expectedNextDue, u); err != nil {
		return err
	}
	for _, p := range payments {
		cp := *p
		m.payments = append(m.payments, &cp)
	}
	return nil
}

func (m *Memory) saveTenancyIfLocked(id string, expectedNextDue rentcycle.Date, u tenancy.TenancyUpdate) error {
	t, ok := m.tenancies[id]
	if !ok {
		return fmt.Errorf("tenancy %s: %w", id, tenancy.ErrNotFound)
	}
	if !t.NextDueDate.Equal(expectedNextDue) {
		return rentcycle.ErrStaleTenancyState
	}

	if u.RentAmount != nil {
		t.RentAmount = *u.RentAmount
	}
	if u.NextDueDate != nil {
		t.NextDueDate = *u.NextDueDate
	}
	if u.AdvanceBalance != nil {
		t.AdvanceBalance = *u.AdvanceBalance
	}
	if u.EndDate != nil {
		d := *u.EndDate
		t.EndDate = &d
	}
	if u.Status != nil {
		t.Status = *u.Status
	}
	if u.RenewalCount != nil {
		t.RenewalCount = *u.RenewalCount
	}
	t.UpdatedAt = time.Now().UTC()
	return nil
}

// =============================================================================
// PAYMENTS - Append-only
// =============================================================================

func (m *Memory) AppendPayments(_ context.Context, payments []*tenancy.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range payments {
		cp := *p
		m.payments = append(m.payments, &cp)
	}
	return nil
}

func (m *Memory) ListPaymentsByTenancy(_ context.Context, tenancyID string) ([]*tenancy.Payment, error) {
	return m.listPayments(func(p *tenancy.Payment) bool { return p.TenancyID == tenancyID })
}

func (m *Memory) ListPaymentsByOwner(_ context.Context, ownerID string) ([]*tenancy.Payment, error) {
	return m.listPayments(func(p *tenancy.Payment) bool { return p.OwnerID == ownerID })
}

func (m *Memory) ListPaymentsByTenant(_ context.Context, tenantID string) ([]*tenancy.Payment, error) {
	return m.listPayments(func(p *tenancy.Payment) bool { return p.TenantID == tenantID })
}

func (m *Memory) listPayments(match func(*tenancy.Payment) bool) ([]*tenancy.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*tenancy.Payment
	for _, p := range m.payments {
		if match(p) {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[j].Date.Before(out[i].Date) })
	return out, nil
}

// =============================================================================
// PROPERTIES
// =============================================================================

func (m *Memory) CreateParentProperty(_ context.Context, p *tenancy.ParentProperty) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.parents[p.ID] = &cp
	return nil
}

func (m *Memory) ListParentProperties(_ context.Context, ownerID string) ([]*tenancy.ParentProperty, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*tenancy.ParentProperty
	for _, p := range m.parents {
		if p.OwnerID == ownerID {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *Memory) CreateProperty(_ context.Context, p *tenancy.Property) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.units[p.ID]; ok {
		return fmt.Errorf("property %s already exists", p.ID)
	}
	cp := *p
	m.units[p.ID] = &cp
	return nil
}

func (m *Memory) GetProperty(_ context.Context, id string) (*tenancy.Property, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.units[id]
	if !ok {
		return nil, fmt.Errorf("property %s: %w", id, tenancy.ErrNotFound)
	}
	cp := *p
	return &cp, nil
}

func (m *Memory) ListProperties(_ context.Context, ownerID string) ([]*tenancy.Property, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*tenancy.Property
	for _, p := range m.units {
		if p.OwnerID == ownerID {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UnitName < out[j].UnitName })
	return out, nil
}

func (m *Memory) SetPropertyStatus(_ context.Context, id string, status tenancy.PropertyStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.units[id]
	if !ok {
		return fmt.Errorf("property %s: %w", id, tenancy.ErrNotFound)
	}
	p.Status = status
	p.UpdatedAt = time.Now().UTC()
	return nil
}
