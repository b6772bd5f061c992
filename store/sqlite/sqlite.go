/*
Package sqlite provides a SQLite-backed implementation of the payroll stores.

PURPOSE:
  Holds everything a payroll run reads or writes locally: the employee and
  project directory, time entries, the org's raw overtime settings, the
  stored ledger credential, and the record of every submitted run.

INTERFACES IMPLEMENTED:
  payroll.EntrySource:     Payable time entries for a period
  runner.Store:            Settings, run records, paid markers
  httpclient.TokenSource:  Ledger access token

KEY TABLES:
  employees:          Directory, payee link, fallback hourly rate
  projects:           Project names for check lines
  time_entries:       Worked time; paid/exception flags
  org_settings:       Key/value org configuration (raw overtime JSON)
  payroll_runs:       One row per submission
  payroll_checks:     One row per employee per submission
  ledger_credentials: Access token for the accounting ledger

PAYABLE ENTRIES:
  An entry is payable when it is inside the period, not yet paid, and has
  no unresolved exception. Hours and money are stored as decimal TEXT.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. Run records and paid markers are
  written in one database transaction.

USAGE:
  store, err := sqlite.New("./data/payroll.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - payroll/types.go: EntrySource and EntryRow
  - runner/runner.go: Store interface
  - store/memory: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/payroll"
)

// SettingsKeyPayrollRules is the org_settings key holding raw overtime JSON.
const SettingsKeyPayrollRules = "payroll_rules"

// Store implements the payroll storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Each connection to ":memory:" is its own database.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
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

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		print_on_check_name TEXT,
		payee_type TEXT NOT NULL DEFAULT 'vendor',
		payee_id TEXT,
		base_rate TEXT NOT NULL DEFAULT '0',
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS projects (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS time_entries (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL REFERENCES employees(id),
		project_id TEXT REFERENCES projects(id),
		entry_date TEXT NOT NULL,
		hours TEXT,
		total_pay TEXT,
		paid BOOLEAN NOT NULL DEFAULT FALSE,
		paid_run_id TEXT,
		has_exception BOOLEAN NOT NULL DEFAULT FALSE,
		exception_resolved BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TEXT NOT NULL
	);

	-- Hot path: payable entries in a period
	CREATE INDEX IF NOT EXISTS idx_time_entries_payable
		ON time_entries(paid, entry_date);
	CREATE INDEX IF NOT EXISTS idx_time_entries_employee_date
		ON time_entries(employee_id, entry_date);

	CREATE TABLE IF NOT EXISTS org_settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS payroll_runs (
		id TEXT PRIMARY KEY,
		period_start TEXT NOT NULL,
		period_end TEXT NOT NULL,
		snapshot_hash TEXT NOT NULL,
		batch_key TEXT NOT NULL DEFAULT '',
		check_count INTEGER NOT NULL,
		status TEXT NOT NULL,
		fatal_error TEXT,
		adjustment_reason TEXT,
		idempotency_key TEXT,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS payroll_checks (
		run_id TEXT NOT NULL REFERENCES payroll_runs(id),
		employee_id TEXT NOT NULL,
		display_name TEXT NOT NULL,
		total_hours TEXT NOT NULL,
		total_pay TEXT NOT NULL,
		ok BOOLEAN NOT NULL,
		transaction_id TEXT,
		error TEXT,
		warnings_json TEXT,
		PRIMARY KEY (run_id, employee_id)
	);

	CREATE TABLE IF NOT EXISTS ledger_credentials (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		access_token TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return err
	}

	// Databases created before batch keys existed lack the column.
	var n int
	if err := s.db.QueryRow(
		"SELECT COUNT(*) FROM pragma_table_info('payroll_runs') WHERE name = 'batch_key'",
	).Scan(&n); err != nil {
		return err
	}
	if n == 0 {
		if _, err := s.db.Exec("ALTER TABLE payroll_runs ADD COLUMN batch_key TEXT NOT NULL DEFAULT ''"); err != nil {
			return err
		}
	}

	_, err := s.db.Exec(`CREATE INDEX IF NOT EXISTS idx_payroll_runs_batch
		ON payroll_runs(batch_key, status)`)
	return err
}

// =============================================================================
// DIRECTORY
// =============================================================================

// Employee is a payee in the local directory.
type Employee struct {
	ID               generic.EmployeeID
	Name             string
	PrintOnCheckName string
	Payee            payroll.PayeeRef
	BaseRate         decimal.Decimal
}

// SaveEmployee inserts or updates an employee.
func (s *Store) SaveEmployee(ctx context.Context, emp Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO employees (id, name, print_on_check_name, payee_type, payee_id, base_rate, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			print_on_check_name = excluded.print_on_check_name,
			payee_type = excluded.payee_type,
			payee_id = excluded.payee_id,
			base_rate = excluded.base_rate
	`

	payeeType := emp.Payee.Type
	if payeeType == "" {
		payeeType = payroll.PayeeVendor
	}
	_, err := s.db.ExecContext(ctx, query,
		emp.ID, emp.Name, nullString(emp.PrintOnCheckName),
		string(payeeType), nullString(emp.Payee.ID), emp.BaseRate.String(),
		now(),
	)
	return err
}

// GetEmployee returns generic.ErrEmployeeNotFound for an unknown ID.
func (s *Store) GetEmployee(ctx context.Context, id generic.EmployeeID) (*Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		emp              Employee
		printName, payee sql.NullString
		payeeType, rate  string
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, print_on_check_name, payee_type, payee_id, base_rate FROM employees WHERE id = ?",
		id,
	).Scan(&emp.ID, &emp.Name, &printName, &payeeType, &payee, &rate)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, generic.ErrEmployeeNotFound
	}
	if err != nil {
		return nil, err
	}

	emp.PrintOnCheckName = printName.String
	emp.Payee = payroll.PayeeRef{Type: payroll.ParsePayeeType(payeeType), ID: payee.String}
	emp.BaseRate = parseDecimal(sql.NullString{String: rate, Valid: true})
	return &emp, nil
}

// ListEmployees returns all employees ordered by name.
func (s *Store) ListEmployees(ctx context.Context) ([]Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, print_on_check_name, payee_type, payee_id, base_rate FROM employees ORDER BY name",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var employees []Employee
	for rows.Next() {
		var (
			emp              Employee
			printName, payee sql.NullString
			payeeType, rate  string
		)
		if err := rows.Scan(&emp.ID, &emp.Name, &printName, &payeeType, &payee, &rate); err != nil {
			return nil, err
		}
		emp.PrintOnCheckName = printName.String
		emp.Payee = payroll.PayeeRef{Type: payroll.ParsePayeeType(payeeType), ID: payee.String}
		emp.BaseRate = parseDecimal(sql.NullString{String: rate, Valid: true})
		employees = append(employees, emp)
	}
	return employees, rows.Err()
}

// Project names a line on a check.
type Project struct {
	ID   generic.ProjectID
	Name string
}

// SaveProject inserts or renames a project.
func (s *Store) SaveProject(ctx context.Context, p Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO projects (id, name, created_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name
	`, p.ID, p.Name, now())
	return err
}

// =============================================================================
// TIME ENTRIES (payroll.EntrySource)
// =============================================================================

// TimeEntry is a stored unit of worked time. TotalPay is nil when the
// entry carries no pre-computed pay and the employee's base rate applies.
type TimeEntry struct {
	ID                string
	EmployeeID        generic.EmployeeID
	ProjectID         generic.ProjectID
	Date              generic.TimePoint
	Hours             decimal.Decimal
	TotalPay          *decimal.Decimal
	HasException      bool
	ExceptionResolved bool
	Paid              bool
	PaidRunID         generic.RunID
}

// SaveTimeEntry inserts or replaces an entry.
func (s *Store) SaveTimeEntry(ctx context.Context, e TimeEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var totalPay sql.NullString
	if e.TotalPay != nil {
		totalPay = sql.NullString{String: e.TotalPay.String(), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO time_entries
		(id, employee_id, project_id, entry_date, hours, total_pay, paid, paid_run_id,
		 has_exception, exception_resolved, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			employee_id = excluded.employee_id,
			project_id = excluded.project_id,
			entry_date = excluded.entry_date,
			hours = excluded.hours,
			total_pay = excluded.total_pay,
			paid = excluded.paid,
			paid_run_id = excluded.paid_run_id,
			has_exception = excluded.has_exception,
			exception_resolved = excluded.exception_resolved
	`,
		e.ID, e.EmployeeID, nullString(string(e.ProjectID)), e.Date.String(),
		e.Hours.String(), totalPay, e.Paid, nullString(string(e.PaidRunID)),
		e.HasException, e.ExceptionResolved, now(),
	)
	return err
}

// ListPayableEntries returns unpaid entries in the period with no
// unresolved exception, joined with employee and project metadata.
func (s *Store) ListPayableEntries(ctx context.Context, period generic.Period, exclude []generic.EmployeeID) ([]payroll.EntryRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT te.id, te.employee_id, te.project_id, te.entry_date, te.hours, te.total_pay,
		       e.base_rate, e.name, e.print_on_check_name, e.payee_type, e.payee_id,
		       p.name
		FROM time_entries te
		JOIN employees e ON e.id = te.employee_id
		LEFT JOIN projects p ON p.id = te.project_id
		WHERE te.paid = FALSE
		  AND (te.has_exception = FALSE OR te.exception_resolved = TRUE)
		  AND te.entry_date >= ? AND te.entry_date <= ?
	`
	args := []any{period.Start.String(), period.End.String()}
	if len(exclude) > 0 {
		query += " AND te.employee_id NOT IN (" + placeholders(len(exclude)) + ")"
		for _, id := range exclude {
			args = append(args, string(id))
		}
	}
	query += " ORDER BY te.employee_id, te.entry_date, te.created_at, te.id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query time entries: %w", err)
	}
	defer rows.Close()

	var out []payroll.EntryRow
	for rows.Next() {
		row, err := scanEntryRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func scanEntryRow(rows *sql.Rows) (payroll.EntryRow, error) {
	var (
		row                          payroll.EntryRow
		projectID, hours, totalPay   sql.NullString
		entryDate, baseRate          string
		printName, payeeID, projName sql.NullString
		payeeType                    string
	)

	err := rows.Scan(
		&row.Entry.ID, &row.Entry.EmployeeID, &projectID, &entryDate, &hours, &totalPay,
		&baseRate, &row.EmployeeName, &printName, &payeeType, &payeeID,
		&projName,
	)
	if err != nil {
		return row, fmt.Errorf("failed to scan time entry: %w", err)
	}

	// A malformed date leaves the zero TimePoint; the allocator tolerates it.
	row.Entry.EntryDate, _ = generic.ParseDay(entryDate)
	row.Entry.ProjectID = generic.ProjectID(projectID.String)
	row.Entry.Hours = parseDecimal(hours)
	row.Entry.TotalPay = parseDecimal(totalPay)
	row.Entry.EmployeeBaseRate = parseDecimal(sql.NullString{String: baseRate, Valid: true})
	row.PrintOnCheckName = printName.String
	row.Payee = payroll.PayeeRef{Type: payroll.ParsePayeeType(payeeType), ID: payeeID.String}
	row.ProjectName = projName.String
	return row, nil
}

// =============================================================================
// SETTINGS
// =============================================================================

// PayrollSettings returns the raw overtime JSON, or "" when never saved.
func (s *Store) PayrollSettings(ctx context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var value string
	err := s.db.QueryRowContext(ctx,
		"SELECT value FROM org_settings WHERE key = ?", SettingsKeyPayrollRules,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return value, err
}

// SavePayrollSettings stores raw overtime JSON as given.
func (s *Store) SavePayrollSettings(ctx context.Context, raw string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO org_settings (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, SettingsKeyPayrollRules, raw, now())
	return err
}

// =============================================================================
// LEDGER CREDENTIAL (httpclient.TokenSource)
// =============================================================================

// LedgerToken returns the stored access token, or "" when not connected.
func (s *Store) LedgerToken(ctx context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var token string
	err := s.db.QueryRowContext(ctx,
		"SELECT access_token FROM ledger_credentials WHERE id = 1",
	).Scan(&token)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return token, err
}

// SaveLedgerToken replaces the stored token. An empty token disconnects.
func (s *Store) SaveLedgerToken(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	token = strings.TrimSpace(token)
	if token == "" {
		_, err := s.db.ExecContext(ctx, "DELETE FROM ledger_credentials")
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ledger_credentials (id, access_token, updated_at) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET access_token = excluded.access_token, updated_at = excluded.updated_at
	`, token, now())
	return err
}

// =============================================================================
// RUNS
// =============================================================================

// RecordRun stores a run with its checks and marks paidEntryIDs as paid by
// it, all in one transaction.
func (s *Store) RecordRun(ctx context.Context, run payroll.Run, checks []payroll.Check, paidEntryIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	createdAt := run.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO payroll_runs
		(id, period_start, period_end, snapshot_hash, batch_key, check_count, status, fatal_error,
		 adjustment_reason, idempotency_key, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID, run.Period.Start.String(), run.Period.End.String(), run.SnapshotHash,
		run.BatchKey, run.CheckCount, string(run.Status), nullString(run.FatalError),
		nullString(run.AdjustmentReason), nullString(run.IdempotencyKey),
		createdAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	for _, c := range checks {
		warnings, _ := json.Marshal(c.Warnings)
		_, err := tx.ExecContext(ctx, `
			INSERT INTO payroll_checks
			(run_id, employee_id, display_name, total_hours, total_pay, ok, transaction_id, error, warnings_json)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			run.ID, c.EmployeeID, c.DisplayName, c.TotalHours.String(), c.TotalPay.String(),
			c.OK, nullString(c.TransactionID), nullString(c.Error), string(warnings),
		)
		if err != nil {
			return fmt.Errorf("failed to insert check for %s: %w", c.EmployeeID, err)
		}
	}

	for _, id := range paidEntryIDs {
		if _, err := tx.ExecContext(ctx,
			"UPDATE time_entries SET paid = TRUE, paid_run_id = ? WHERE id = ?", run.ID, id,
		); err != nil {
			return fmt.Errorf("failed to mark entry %s paid: %w", id, err)
		}
	}

	return tx.Commit()
}

const runColumns = `id, period_start, period_end, snapshot_hash, batch_key, check_count, status,
	fatal_error, adjustment_reason, idempotency_key, created_at`

// GetRun returns a run and its checks, or generic.ErrRunNotFound.
func (s *Store) GetRun(ctx context.Context, id generic.RunID) (*payroll.Run, []payroll.Check, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, err := scanRun(s.db.QueryRowContext(ctx,
		"SELECT "+runColumns+" FROM payroll_runs WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, generic.ErrRunNotFound
	}
	if err != nil {
		return nil, nil, err
	}

	checks, err := s.listChecks(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return run, checks, nil
}

// ListRuns returns the most recent runs first. limit <= 0 means no limit.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]payroll.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := "SELECT " + runColumns + " FROM payroll_runs ORDER BY created_at DESC"
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []payroll.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// FindCompletedRunByBatchKey returns the latest completed run with this
// batch key, or nil.
func (s *Store) FindCompletedRunByBatchKey(ctx context.Context, key string) (*payroll.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, err := scanRun(s.db.QueryRowContext(ctx,
		"SELECT "+runColumns+" FROM payroll_runs WHERE batch_key = ? AND status = ? ORDER BY created_at DESC LIMIT 1",
		key, string(payroll.RunCompleted)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return run, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*payroll.Run, error) {
	var (
		run                           payroll.Run
		start, end, status, createdAt string
		fatal, reason, key            sql.NullString
	)
	err := row.Scan(&run.ID, &start, &end, &run.SnapshotHash, &run.BatchKey, &run.CheckCount, &status,
		&fatal, &reason, &key, &createdAt)
	if err != nil {
		return nil, err
	}

	startDay, _ := generic.ParseDay(start)
	endDay, _ := generic.ParseDay(end)
	run.Period = generic.Period{Start: startDay, End: endDay}
	run.Status = payroll.RunStatus(status)
	run.FatalError = fatal.String
	run.AdjustmentReason = reason.String
	run.IdempotencyKey = key.String
	run.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return &run, nil
}

func (s *Store) listChecks(ctx context.Context, runID generic.RunID) ([]payroll.Check, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, employee_id, display_name, total_hours, total_pay, ok, transaction_id, error, warnings_json
		FROM payroll_checks WHERE run_id = ? ORDER BY employee_id
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var checks []payroll.Check
	for rows.Next() {
		var (
			c                   payroll.Check
			hours, pay          string
			txnID, errMsg, warn sql.NullString
		)
		if err := rows.Scan(&c.RunID, &c.EmployeeID, &c.DisplayName, &hours, &pay, &c.OK, &txnID, &errMsg, &warn); err != nil {
			return nil, err
		}
		c.TotalHours = generic.MustParseDecimal(hours)
		c.TotalPay = generic.MustParseDecimal(pay)
		c.TransactionID = txnID.String
		c.Error = errMsg.String
		if warn.Valid && warn.String != "" {
			_ = json.Unmarshal([]byte(warn.String), &c.Warnings)
		}
		checks = append(checks, c)
	}
	return checks, rows.Err()
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo). The ledger credential is kept.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"payroll_checks", "payroll_runs", "time_entries", "projects", "employees", "org_settings"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// parseDecimal maps NULL and unparseable text to zero.
func parseDecimal(ns sql.NullString) decimal.Decimal {
	if !ns.Valid {
		return decimal.Zero
	}
	return generic.MustParseDecimal(strings.TrimSpace(ns.String))
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
