/*
Package sqlite provides the SQLite-backed Repository implementation.

PURPOSE:
  Persists tenancies, payments, and properties. In production the same
  patterns apply to PostgreSQL - only minor SQL dialect differences.

OPTIMISTIC CONCURRENCY:
  SaveTenancyIf is a single conditional UPDATE guarded by the tenancy's
  current next_due_date:

    UPDATE tenancies SET ... WHERE id = ? AND next_due_date = ?

  Zero rows affected means another reconciliation won the race; the call
  returns rentcycle.ErrStaleTenancyState and the service retries with a
  fresh snapshot. ApplyReconciliation wraps the same guarded UPDATE and
  the payment INSERTs in one transaction, so the due date cannot advance
  without its payment rows.

APPEND-ONLY PAYMENTS:
  No UPDATE or DELETE statement exists for the payments table. Editing
  history is done by inserting compensating records.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. In production with PostgreSQL,
  database-level concurrency control handles this instead.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - tenancy/repository.go: Interface definitions
  - tenancy/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/rent-engine/rentcycle"
	"github.com/warp/rent-engine/tenancy"
)

// Store implements tenancy.Repository using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ tenancy.Repository = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS parent_properties (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL,
		name TEXT NOT NULL,
		address TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_parent_properties_owner
		ON parent_properties(owner_id);

	CREATE TABLE IF NOT EXISTS properties (
		id TEXT PRIMARY KEY,
		parent_property_id TEXT,
		owner_id TEXT NOT NULL,
		unit_name TEXT NOT NULL,
		unit_details TEXT,
		type TEXT NOT NULL,
		rent_amount TEXT NOT NULL,
		rent_frequency TEXT NOT NULL,
		due_day INTEGER NOT NULL DEFAULT 5,
		security_deposit TEXT NOT NULL DEFAULT '0',
		status TEXT NOT NULL DEFAULT 'vacant',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_properties_owner
		ON properties(owner_id);
	CREATE INDEX IF NOT EXISTS idx_properties_parent
		ON properties(parent_property_id);

	CREATE TABLE IF NOT EXISTS tenancies (
		id TEXT PRIMARY KEY,
		property_id TEXT NOT NULL,
		tenant_id TEXT NOT NULL,
		owner_id TEXT NOT NULL,
		rent_amount TEXT NOT NULL,
		rent_frequency TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT,
		next_due_date TEXT NOT NULL,
		advance_balance TEXT NOT NULL DEFAULT '0',
		security_deposit TEXT NOT NULL DEFAULT '0',
		status TEXT NOT NULL DEFAULT 'active',
		renewal_count INTEGER NOT NULL DEFAULT 0,
		original_rent TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_tenancies_owner
		ON tenancies(owner_id);
	CREATE INDEX IF NOT EXISTS idx_tenancies_tenant
		ON tenancies(tenant_id);
	CREATE INDEX IF NOT EXISTS idx_tenancies_property
		ON tenancies(property_id);

	-- Payments are append-only: no UPDATE, no DELETE.
	CREATE TABLE IF NOT EXISTS payments (
		id TEXT PRIMARY KEY,
		tenancy_id TEXT NOT NULL,
		property_id TEXT NOT NULL,
		tenant_id TEXT,
		owner_id TEXT NOT NULL,
		amount TEXT NOT NULL,
		date TEXT NOT NULL,
		method TEXT NOT NULL DEFAULT 'cash',
		transaction_id TEXT,
		advance_used TEXT NOT NULL DEFAULT '0',
		period_label TEXT,
		notes TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_payments_tenancy
		ON payments(tenancy_id, date DESC);
	CREATE INDEX IF NOT EXISTS idx_payments_owner
		ON payments(owner_id, date DESC);
	CREATE INDEX IF NOT EXISTS idx_payments_tenant
		ON payments(tenant_id, date DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// TENANCIES
// =============================================================================

func (s *Store) CreateTenancy(ctx context.Context, t *tenancy.Tenancy) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var endDate sql.NullString
	if t.EndDate != nil {
		endDate = sql.NullString{String: t.EndDate.String(), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tenancies (
			id, property_id, tenant_id, owner_id, rent_amount, rent_frequency,
			start_date, end_date, next_due_date, advance_balance,
			security_deposit, status, renewal_count, original_rent,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.PropertyID, t.TenantID, t.OwnerID,
		t.RentAmount.String(), string(t.Frequency),
		t.StartDate.String(), endDate, t.NextDueDate.String(),
		t.AdvanceBalance.String(), t.SecurityDeposit.String(),
		string(t.Status), t.RenewalCount, t.OriginalRent.String(),
		t.CreatedAt.Format(time.RFC3339), t.UpdatedAt.Format(time.RFC3339),
	)
	return err
}

func (s *Store) GetTenancy(ctx context.Context, id string) (*tenancy.Tenancy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, tenancySelect+` WHERE id = ?`, id)
	t, err := scanTenancy(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("tenancy %s: %w", id, tenancy.ErrNotFound)
	}
	return t, err
}

func (s *Store) ListTenancies(ctx context.Context, ownerID string) ([]*tenancy.Tenancy, error) {
	return s.listTenancies(ctx, `owner_id = ?`, ownerID)
}

func (s *Store) ListTenanciesByTenant(ctx context.Context, tenantID string) ([]*tenancy.Tenancy, error) {
	return s.listTenancies(ctx, `tenant_id = ?`, tenantID)
}

func (s *Store) listTenancies(ctx context.Context, where string, arg any) ([]*tenancy.Tenancy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, tenancySelect+` WHERE `+where+` ORDER BY created_at`, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*tenancy.Tenancy
	for rows.Next() {
		t, err := scanTenancy(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) ListOwners(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT owner_id FROM tenancies ORDER BY owner_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// SaveTenancyIf applies the update only while the stored next_due_date
// still equals the caller's snapshot. The WHERE clause is the entire
// concurrency story: zero rows affected means a conflict.
func (s *Store) SaveTenancyIf(ctx context.Context, id string, expectedNextDue rentcycle.Date, u tenancy.TenancyUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveTenancyIf(ctx, s.db, id, expectedNextDue, u)
}

// ApplyReconciliation runs the guarded tenancy update and the payment
// inserts in one transaction. A stale snapshot rolls everything back, so
// the due date never advances without its payment rows.
func (s *Store) ApplyReconciliation(ctx context.Context, id string, expectedNextDue rentcycle.Date, u tenancy.TenancyUpdate, payments []*tenancy.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := saveTenancyIf(ctx, tx, id, expectedNextDue, u); err != nil {
		return err
	}
	if err := insertPayments(ctx, tx, payments); err != nil {
		return err
	}
	return tx.Commit()
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func saveTenancyIf(ctx context.Context, db execer, id string, expectedNextDue rentcycle.Date, u tenancy.TenancyUpdate) error {
	set := "updated_at = ?"
	args := []any{time.Now().UTC().Format(time.RFC3339)}

	if u.RentAmount != nil {
		set += ", rent_amount = ?"
		args = append(args, u.RentAmount.String())
	}
	if u.NextDueDate != nil {
		set += ", next_due_date = ?"
		args = append(args, u.NextDueDate.String())
	}
	if u.AdvanceBalance != nil {
		set += ", advance_balance = ?"
		args = append(args, u.AdvanceBalance.String())
	}
	if u.EndDate != nil {
		set += ", end_date = ?"
		args = append(args, u.EndDate.String())
	}
	if u.Status != nil {
		set += ", status = ?"
		args = append(args, string(*u.Status))
	}
	if u.RenewalCount != nil {
		set += ", renewal_count = ?"
		args = append(args, *u.RenewalCount)
	}
	args = append(args, id, expectedNextDue.String())

	res, err := db.ExecContext(ctx,
		`UPDATE tenancies SET `+set+` WHERE id = ? AND next_due_date = ?`, args...)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		// Either the row is gone or its due date moved under us.
		var exists int
		if err := db.QueryRowContext(ctx,
			`SELECT COUNT(1) FROM tenancies WHERE id = ?`, id).Scan(&exists); err != nil {
			return err
		}
		if exists == 0 {
			return fmt.Errorf("tenancy %s: %w", id, tenancy.ErrNotFound)
		}
		return rentcycle.ErrStaleTenancyState
	}
	return nil
}

const tenancySelect = `
	SELECT id, property_id, tenant_id, owner_id, rent_amount, rent_frequency,
	       start_date, end_date, next_due_date, advance_balance,
	       security_deposit, status, renewal_count, original_rent,
	       created_at, updated_at
	FROM tenancies`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTenancy(row rowScanner) (*tenancy.Tenancy, error) {
	var (
		t                  tenancy.Tenancy
		rentStr, advStr    string
		depStr, origStr    string
		freqStr, statusStr string
		startStr, nextStr  string
		endStr             sql.NullString
		createdStr, updStr string
	)
	err := row.Scan(&t.ID, &t.PropertyID, &t.TenantID, &t.OwnerID,
		&rentStr, &freqStr, &startStr, &endStr, &nextStr,
		&advStr, &depStr, &statusStr, &t.RenewalCount, &origStr,
		&createdStr, &updStr)
	if err != nil {
		return nil, err
	}

	// Amounts fail as loudly as dates: a row we cannot read faithfully
	// is an error, not a zero balance.
	if t.RentAmount, err = rentcycle.ParseMoney(rentStr); err != nil {
		return nil, fmt.Errorf("tenancy %s rent_amount: %w", t.ID, err)
	}
	if t.AdvanceBalance, err = rentcycle.ParseMoney(advStr); err != nil {
		return nil, fmt.Errorf("tenancy %s advance_balance: %w", t.ID, err)
	}
	if t.SecurityDeposit, err = rentcycle.ParseMoney(depStr); err != nil {
		return nil, fmt.Errorf("tenancy %s security_deposit: %w", t.ID, err)
	}
	if t.OriginalRent, err = rentcycle.ParseMoney(origStr); err != nil {
		return nil, fmt.Errorf("tenancy %s original_rent: %w", t.ID, err)
	}
	t.Frequency = rentcycle.Frequency(freqStr)
	t.Status = rentcycle.Status(statusStr)

	if t.StartDate, err = rentcycle.ParseDate(startStr); err != nil {
		return nil, fmt.Errorf("tenancy %s start_date: %w", t.ID, err)
	}
	if t.NextDueDate, err = rentcycle.ParseDate(nextStr); err != nil {
		return nil, fmt.Errorf("tenancy %s next_due_date: %w", t.ID, err)
	}
	if endStr.Valid {
		end, err := rentcycle.ParseDate(endStr.String)
		if err != nil {
			return nil, fmt.Errorf("tenancy %s end_date: %w", t.ID, err)
		}
		t.EndDate = &end
	}

	t.CreatedAt, _ = time.Parse(time.RFC3339, createdStr)
	t.UpdatedAt, _ = time.Parse(time.RFC3339, updStr)
	return &t, nil
}

// =============================================================================
// PAYMENTS - append-only
// =============================================================================

// AppendPayments writes the records atomically: all or none.
func (s *Store) AppendPayments(ctx context.Context, payments []*tenancy.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := insertPayments(ctx, tx, payments); err != nil {
		return err
	}
	return tx.Commit()
}

func insertPayments(ctx context.Context, tx *sql.Tx, payments []*tenancy.Payment) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO payments (
			id, tenancy_id, property_id, tenant_id, owner_id, amount, date,
			method, transaction_id, advance_used, period_label, notes, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, p := range payments {
		_, err := stmt.ExecContext(ctx,
			p.ID, p.TenancyID, p.PropertyID, p.TenantID, p.OwnerID,
			p.Amount.String(), p.Date.String(), string(p.Method),
			p.TransactionID, p.AdvanceUsed.String(), p.PeriodLabel,
			p.Notes, p.CreatedAt.Format(time.RFC3339),
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) ListPaymentsByTenancy(ctx context.Context, tenancyID string) ([]*tenancy.Payment, error) {
	return s.listPayments(ctx, `tenancy_id = ?`, tenancyID)
}

func (s *Store) ListPaymentsByOwner(ctx context.Context, ownerID string) ([]*tenancy.Payment, error) {
	return s.listPayments(ctx, `owner_id = ?`, ownerID)
}

func (s *Store) ListPaymentsByTenant(ctx context.Context, tenantID string) ([]*tenancy.Payment, error) {
	return s.listPayments(ctx, `tenant_id = ?`, tenantID)
}

func (s *Store) listPayments(ctx context.Context, where string, arg any) ([]*tenancy.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tenancy_id, property_id, tenant_id, owner_id, amount, date,
		       method, transaction_id, advance_used, period_label, notes, created_at
		FROM payments WHERE `+where+` ORDER BY date DESC, created_at DESC`, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*tenancy.Payment
	for rows.Next() {
		var (
			p                   tenancy.Payment
			amountStr, advStr   string
			dateStr, methodStr  string
			tenantID            sql.NullString
			txnID, label, notes sql.NullString
			createdStr          string
		)
		err := rows.Scan(&p.ID, &p.TenancyID, &p.PropertyID, &tenantID,
			&p.OwnerID, &amountStr, &dateStr, &methodStr, &txnID,
			&advStr, &label, &notes, &createdStr)
		if err != nil {
			return nil, err
		}
		p.TenantID = tenantID.String
		if p.Amount, err = rentcycle.ParseMoney(amountStr); err != nil {
			return nil, fmt.Errorf("payment %s amount: %w", p.ID, err)
		}
		if p.AdvanceUsed, err = rentcycle.ParseMoney(advStr); err != nil {
			return nil, fmt.Errorf("payment %s advance_used: %w", p.ID, err)
		}
		p.Method = tenancy.PaymentMethod(methodStr)
		p.TransactionID = txnID.String
		p.PeriodLabel = label.String
		p.Notes = notes.String
		if p.Date, err = rentcycle.ParseDate(dateStr); err != nil {
			return nil, fmt.Errorf("payment %s date: %w", p.ID, err)
		}
		p.CreatedAt, _ = time.Parse(time.RFC3339, createdStr)
		out = append(out, &p)
	}
	return out, rows.Err()
}

// =============================================================================
// PROPERTIES
// =============================================================================

func (s *Store) CreateParentProperty(ctx context.Context, p *tenancy.ParentProperty) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO parent_properties (id, owner_id, name, address, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.OwnerID, p.Name, p.Address,
		p.CreatedAt.Format(time.RFC3339), p.UpdatedAt.Format(time.RFC3339),
	)
	return err
}

func (s *Store) ListParentProperties(ctx context.Context, ownerID string) ([]*tenancy.ParentProperty, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner_id, name, address, created_at, updated_at
		FROM parent_properties WHERE owner_id = ? ORDER BY name`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*tenancy.ParentProperty
	for rows.Next() {
		var (
			p                  tenancy.ParentProperty
			address            sql.NullString
			createdStr, updStr string
		)
		if err := rows.Scan(&p.ID, &p.OwnerID, &p.Name, &address, &createdStr, &updStr); err != nil {
			return nil, err
		}
		p.Address = address.String
		p.CreatedAt, _ = time.Parse(time.RFC3339, createdStr)
		p.UpdatedAt, _ = time.Parse(time.RFC3339, updStr)
		out = append(out, &p)
	}
	return out, rows.Err()
}

func (s *Store) CreateProperty(ctx context.Context, p *tenancy.Property) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO properties (
			id, parent_property_id, owner_id, unit_name, unit_details, type,
			rent_amount, rent_frequency, due_day, security_deposit, status,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.ParentPropertyID, p.OwnerID, p.UnitName, p.UnitDetails,
		p.Type, p.RentAmount.String(), string(p.RentFrequency),
		p.EffectiveDueDay(), p.SecurityDeposit.String(), string(p.Status),
		p.CreatedAt.Format(time.RFC3339), p.UpdatedAt.Format(time.RFC3339),
	)
	return err
}

func (s *Store) GetProperty(ctx context.Context, id string) (*tenancy.Property, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, propertySelect+` WHERE id = ?`, id)
	p, err := scanProperty(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("property %s: %w", id, tenancy.ErrNotFound)
	}
	return p, err
}

func (s *Store) ListProperties(ctx context.Context, ownerID string) ([]*tenancy.Property, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, propertySelect+` WHERE owner_id = ? ORDER BY unit_name`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*tenancy.Property
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) SetPropertyStatus(ctx context.Context, id string, status tenancy.PropertyStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`UPDATE properties SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("property %s: %w", id, tenancy.ErrNotFound)
	}
	return nil
}

const propertySelect = `
	SELECT id, parent_property_id, owner_id, unit_name, unit_details, type,
	       rent_amount, rent_frequency, due_day, security_deposit, status,
	       created_at, updated_at
	FROM properties`

func scanProperty(row rowScanner) (*tenancy.Property, error) {
	var (
		p                  tenancy.Property
		parentID, details  sql.NullString
		rentStr, depStr    string
		freqStr, statusStr string
		createdStr, updStr string
	)
	err := row.Scan(&p.ID, &parentID, &p.OwnerID, &p.UnitName, &details,
		&p.Type, &rentStr, &freqStr, &p.DueDay, &depStr, &statusStr,
		&createdStr, &updStr)
	if err != nil {
		return nil, err
	}

	p.ParentPropertyID = parentID.String
	p.UnitDetails = details.String
	if p.RentAmount, err = rentcycle.ParseMoney(rentStr); err != nil {
		return nil, fmt.Errorf("property %s rent_amount: %w", p.ID, err)
	}
	if p.SecurityDeposit, err = rentcycle.ParseMoney(depStr); err != nil {
		return nil, fmt.Errorf("property %s security_deposit: %w", p.ID, err)
	}
	p.RentFrequency = rentcycle.Frequency(freqStr)
	p.Status = tenancy.PropertyStatus(statusStr)
	p.CreatedAt, _ = time.Parse(time.RFC3339, createdStr)
	p.UpdatedAt, _ = time.Parse(time.RFC3339, updStr)
	return &p, nil
}
