/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements every persistence interface of the engine in one database so
  that a payroll record and its edit logs can be written in one transaction.

INTERFACES IMPLEMENTED:
  generic.TimeStore:         Worked hours per employee per day
  payroll.Store:             Payroll records and edit logs
  payroll.EmployeeDirectory: Employee lookups
  leave.Source:              Leave requests

KEY TABLES:
  time_records:      One row per (employee, date), overwritten on upsert
  payroll_records:   One row per (employee, period start, period end)
  payroll_edit_logs: Append-only, deleted only with their record
  employees:         Directory (id, name, role)
  leave_requests:    Requests as replicated from the Leave module

INDEXES:
  - idx_time_records_employee_date: Upsert key and range sums (hot path)
  - idx_payroll_records_employee_period: One record per employee per period
  - idx_payroll_records_created_at: Retention sweep
  - idx_edit_logs_payroll_seq: Ordered history per record

VALUES:
  Money and hours are stored as decimal TEXT, never REAL. Dates are
  YYYY-MM-DD. Timestamps are fixed-width UTC so they compare as strings.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. In production with PostgreSQL,
  database-level concurrency control handles this instead.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/payroll.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  ledger := generic.NewTimeLedger(store)
  engine := payroll.NewEngine(ledger, store, store, nil)

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - generic/store.go: TimeStore contract
  - payroll/store.go: Record store contract
  - store/memory/memory.go: In-memory implementation for testing
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
	"github.com/warp/payroll-engine/leave"
	"github.com/warp/payroll-engine/payroll"
)

// timestampLayout is fixed-width so stored timestamps sort lexically.
const timestampLayout = "2006-01-02T15:04:05.000000000Z"

// Store implements all storage interfaces using SQLite.
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
	if dbPath == ":memory:" {
		// Every connection would get its own empty database.
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

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Worked hours, one row per employee per day
	CREATE TABLE IF NOT EXISTS time_records (
		employee_id TEXT NOT NULL,
		date TEXT NOT NULL,
		hours_worked TEXT NOT NULL,
		source TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_time_records_employee_date
		ON time_records(employee_id, date);

	-- Employees
	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		role TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	-- Leave requests (read by the engine)
	CREATE TABLE IF NOT EXISTS leave_requests (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		leave_type TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		status TEXT NOT NULL,
		reason TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_leave_requests_employee
		ON leave_requests(employee_id);

	-- Payroll records
	CREATE TABLE IF NOT EXISTS payroll_records (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		employee_name TEXT NOT NULL,
		period_start TEXT NOT NULL,
		period_end TEXT NOT NULL,
		pay_date TEXT NOT NULL,
		hours_worked TEXT NOT NULL,
		hourly_rate TEXT NOT NULL,
		basic_pay TEXT NOT NULL,
		overtime TEXT NOT NULL,
		allowances TEXT NOT NULL,
		commissions TEXT NOT NULL,
		incentives TEXT NOT NULL,
		gross_pay TEXT NOT NULL,
		social_insurance TEXT NOT NULL,
		health_insurance TEXT NOT NULL,
		housing_fund TEXT NOT NULL,
		tax TEXT NOT NULL,
		loans TEXT NOT NULL,
		total_deductions TEXT NOT NULL,
		net_pay TEXT NOT NULL,
		status TEXT NOT NULL,
		breakdown_json TEXT,
		created_at TEXT NOT NULL,
		created_by TEXT,
		edit_count INTEGER NOT NULL DEFAULT 0,
		edit_hash TEXT
	);

	-- CRITICAL: one record per employee per pay period
	CREATE UNIQUE INDEX IF NOT EXISTS idx_payroll_records_employee_period
		ON payroll_records(employee_id, period_start, period_end);
	CREATE INDEX IF NOT EXISTS idx_payroll_records_created_at
		ON payroll_records(created_at);

	-- Edit logs (append-only, removed only with their record)
	CREATE TABLE IF NOT EXISTS payroll_edit_logs (
		id TEXT PRIMARY KEY,
		payroll_id TEXT NOT NULL REFERENCES payroll_records(id) ON DELETE CASCADE,
		sequence INTEGER NOT NULL,
		edited_by TEXT NOT NULL,
		edited_at TEXT NOT NULL,
		field_changed TEXT NOT NULL,
		old_value TEXT NOT NULL,
		new_value TEXT NOT NULL,
		reason TEXT,
		prev_hash TEXT,
		hash TEXT NOT NULL
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_edit_logs_payroll_seq
		ON payroll_edit_logs(payroll_id, sequence);
	`

	_, err := s.db.Exec(schema)
	return err
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// =============================================================================
// TIME STORE (generic.TimeStore interface)
// =============================================================================

// UpsertTime inserts or overwrites the hours of (employee, date).
func (s *Store) UpsertTime(ctx context.Context, rec generic.TimeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.upsertTime(ctx, s.db, rec)
}

func (s *Store) upsertTime(ctx context.Context, db execer, rec generic.TimeRecord) error {
	query := `
		INSERT INTO time_records (employee_id, date, hours_worked, source, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(employee_id, date) DO UPDATE SET
			hours_worked = excluded.hours_worked,
			source = excluded.source,
			updated_at = excluded.updated_at
	`

	_, err := db.ExecContext(ctx, query,
		rec.EmployeeID,
		rec.Date.String(),
		rec.HoursWorked.String(),
		rec.Source,
		formatTimestamp(rec.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert time record: %w", err)
	}
	return nil
}

// UpsertTimeBatch upserts all records in one transaction.
func (s *Store) UpsertTimeBatch(ctx context.Context, recs []generic.TimeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	for _, rec := range recs {
		if err := s.upsertTime(ctx, sqlTx, rec); err != nil {
			return err
		}
	}

	return sqlTx.Commit()
}

// DeleteTime removes the record of (employee, date).
func (s *Store) DeleteTime(ctx context.Context, employeeID generic.EmployeeID, date generic.TimePoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"DELETE FROM time_records WHERE employee_id = ? AND date = ?",
		employeeID, date.String(),
	)
	return err
}

// LoadTime returns an employee's records in [from, to].
func (s *Store) LoadTime(ctx context.Context, employeeID generic.EmployeeID, from, to generic.TimePoint) ([]generic.TimeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT employee_id, date, hours_worked, source, updated_at
		FROM time_records
		WHERE employee_id = ? AND date >= ? AND date <= ?
		ORDER BY date ASC
	`

	rows, err := s.db.QueryContext(ctx, query, employeeID, from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query time records: %w", err)
	}
	defer rows.Close()

	var records []generic.TimeRecord
	for rows.Next() {
		var (
			rec       generic.TimeRecord
			date      string
			hours     string
			updatedAt string
		)
		if err := rows.Scan(&rec.EmployeeID, &date, &hours, &rec.Source, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan time record: %w", err)
		}
		if rec.Date, err = generic.ParseDate(date); err != nil {
			return nil, err
		}
		if rec.HoursWorked, err = decimal.NewFromString(hours); err != nil {
			return nil, fmt.Errorf("bad hours %q for %s: %w", hours, rec.EmployeeID, err)
		}
		rec.UpdatedAt = parseTimestamp(updatedAt)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// =============================================================================
// PAYROLL STORE (payroll.Store interface)
// =============================================================================

const recordColumns = `
	id, employee_id, employee_name, period_start, period_end, pay_date,
	hours_worked, hourly_rate, basic_pay, overtime, allowances, commissions,
	incentives, gross_pay, social_insurance, health_insurance, housing_fund,
	tax, loans, total_deductions, net_pay, status, breakdown_json,
	created_at, created_by, edit_count, edit_hash`

// InsertRecord stores a new record. A second record for the same employee
// and period fails with generic.ErrDuplicateRecord.
func (s *Store) InsertRecord(ctx context.Context, rec payroll.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	breakdownJSON, _ := json.Marshal(rec.Breakdown)

	query := `INSERT INTO payroll_records (` + recordColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	d := rec.Deductions
	_, err := s.db.ExecContext(ctx, query,
		rec.ID, rec.EmployeeID, rec.EmployeeName,
		rec.PayPeriodStart.String(), rec.PayPeriodEnd.String(), rec.PayDate.String(),
		rec.HoursWorked.String(), rec.HourlyRate.String(),
		rec.BasicPay.String(), rec.Overtime.String(), rec.Allowances.String(),
		rec.Commissions.String(), rec.Incentives.String(), rec.GrossPay.String(),
		d.SocialInsurance.String(), d.HealthInsurance.String(), d.HousingFund.String(),
		d.Tax.String(), d.Loans.String(), d.TotalDeductions.String(),
		rec.NetPay.String(), rec.Status, string(breakdownJSON),
		formatTimestamp(rec.CreatedAt), nullString(rec.CreatedBy),
		rec.EditCount, nullString(rec.EditHash),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("%w: %s %s", generic.ErrDuplicateRecord, rec.EmployeeID, rec.Period().Label())
		}
		return fmt.Errorf("failed to insert payroll record: %w", err)
	}
	return nil
}

// GetRecord retrieves a record by ID.
func (s *Store) GetRecord(ctx context.Context, id string) (payroll.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		"SELECT "+recordColumns+" FROM payroll_records WHERE id = ?", id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return payroll.Record{}, fmt.Errorf("%w: %s", generic.ErrRecordNotFound, id)
	}
	return rec, err
}

// FindRecord looks up the record of an employee for a period.
func (s *Store) FindRecord(ctx context.Context, employeeID generic.EmployeeID, period generic.Period) (payroll.Record, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		"SELECT "+recordColumns+" FROM payroll_records WHERE employee_id = ? AND period_start = ? AND period_end = ?",
		employeeID, period.Start.String(), period.End.String(),
	)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return payroll.Record{}, false, nil
	}
	if err != nil {
		return payroll.Record{}, false, err
	}
	return rec, true, nil
}

// ListRecords returns records matching filter by period start, then employee.
func (s *Store) ListRecords(ctx context.Context, filter payroll.RecordFilter) ([]payroll.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		where []string
		args  []any
	)
	if filter.EmployeeID != "" {
		where = append(where, "employee_id = ?")
		args = append(args, filter.EmployeeID)
	}
	if filter.Period != nil {
		where = append(where, "period_start = ? AND period_end = ?")
		args = append(args, filter.Period.Start.String(), filter.Period.End.String())
	}
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, filter.Status)
	}

	query := "SELECT " + recordColumns + " FROM payroll_records"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY period_start ASC, employee_id ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query payroll records: %w", err)
	}
	defer rows.Close()

	records := []payroll.Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// UpdateRecord writes the editable columns of rec and appends logs in one
// transaction.
func (s *Store) UpdateRecord(ctx context.Context, rec payroll.Record, logs []payroll.EditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	query := `
		UPDATE payroll_records SET
			basic_pay = ?, overtime = ?, allowances = ?, commissions = ?,
			incentives = ?, gross_pay = ?, social_insurance = ?,
			health_insurance = ?, housing_fund = ?, tax = ?, loans = ?,
			total_deductions = ?, net_pay = ?, status = ?,
			edit_count = ?, edit_hash = ?
		WHERE id = ?
	`

	d := rec.Deductions
	res, err := sqlTx.ExecContext(ctx, query,
		rec.BasicPay.String(), rec.Overtime.String(), rec.Allowances.String(),
		rec.Commissions.String(), rec.Incentives.String(), rec.GrossPay.String(),
		d.SocialInsurance.String(), d.HealthInsurance.String(), d.HousingFund.String(),
		d.Tax.String(), d.Loans.String(), d.TotalDeductions.String(),
		rec.NetPay.String(), rec.Status,
		rec.EditCount, nullString(rec.EditHash),
		rec.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update payroll record: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", generic.ErrRecordNotFound, rec.ID)
	}

	for _, l := range logs {
		if err := insertEditLog(ctx, sqlTx, l); err != nil {
			return err
		}
	}

	return sqlTx.Commit()
}

func insertEditLog(ctx context.Context, db execer, l payroll.EditLog) error {
	query := `
		INSERT INTO payroll_edit_logs
		(id, payroll_id, sequence, edited_by, edited_at, field_changed,
		 old_value, new_value, reason, prev_hash, hash)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := db.ExecContext(ctx, query,
		l.ID, l.PayrollID, l.Sequence, l.EditedBy,
		formatTimestamp(l.EditedAt), l.FieldChanged,
		l.OldValue.String(), l.NewValue.String(),
		l.Reason, nullString(l.PrevHash), l.Hash,
	)
	if err != nil {
		return fmt.Errorf("failed to insert edit log: %w", err)
	}
	return nil
}

// EditLogs returns a record's edit logs ordered by sequence.
func (s *Store) EditLogs(ctx context.Context, payrollID string) ([]payroll.EditLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, payroll_id, sequence, edited_by, edited_at, field_changed,
		       old_value, new_value, reason, prev_hash, hash
		FROM payroll_edit_logs
		WHERE payroll_id = ?
		ORDER BY sequence ASC
	`

	rows, err := s.db.QueryContext(ctx, query, payrollID)
	if err != nil {
		return nil, fmt.Errorf("failed to query edit logs: %w", err)
	}
	defer rows.Close()

	logs := []payroll.EditLog{}
	for rows.Next() {
		var (
			l                payroll.EditLog
			editedAt         string
			reason, prevHash sql.NullString
		)
		err := rows.Scan(&l.ID, &l.PayrollID, &l.Sequence, &l.EditedBy, &editedAt,
			&l.FieldChanged, &l.OldValue, &l.NewValue, &reason, &prevHash, &l.Hash)
		if err != nil {
			return nil, fmt.Errorf("failed to scan edit log: %w", err)
		}
		l.EditedAt = parseTimestamp(editedAt)
		l.Reason = reason.String
		l.PrevHash = prevHash.String
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

// DeleteRecordsCreatedBefore removes records created before cutoff and
// their edit logs in one transaction.
func (s *Store) DeleteRecordsCreatedBefore(ctx context.Context, cutoff time.Time) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	rows, err := sqlTx.QueryContext(ctx,
		"SELECT id FROM payroll_records WHERE created_at < ? ORDER BY id",
		formatTimestamp(cutoff),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query expired records: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, id := range ids {
		if _, err := sqlTx.ExecContext(ctx, "DELETE FROM payroll_edit_logs WHERE payroll_id = ?", id); err != nil {
			return nil, fmt.Errorf("failed to delete edit logs of %s: %w", id, err)
		}
		if _, err := sqlTx.ExecContext(ctx, "DELETE FROM payroll_records WHERE id = ?", id); err != nil {
			return nil, fmt.Errorf("failed to delete payroll record %s: %w", id, err)
		}
	}

	if err := sqlTx.Commit(); err != nil {
		return nil, err
	}
	return ids, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (payroll.Record, error) {
	var (
		rec                                payroll.Record
		start, end, payDate                string
		breakdownJSON, createdBy, editHash sql.NullString
		createdAt                          string
	)

	// Money columns scan straight into decimal.Decimal, so a malformed
	// amount fails the read instead of surfacing as zero.
	d := &rec.Deductions
	err := row.Scan(
		&rec.ID, &rec.EmployeeID, &rec.EmployeeName, &start, &end, &payDate,
		&rec.HoursWorked, &rec.HourlyRate, &rec.BasicPay, &rec.Overtime,
		&rec.Allowances, &rec.Commissions, &rec.Incentives, &rec.GrossPay,
		&d.SocialInsurance, &d.HealthInsurance, &d.HousingFund,
		&d.Tax, &d.Loans, &d.TotalDeductions, &rec.NetPay, &rec.Status, &breakdownJSON,
		&createdAt, &createdBy, &rec.EditCount, &editHash,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return rec, err
	}
	if err != nil {
		return rec, fmt.Errorf("failed to scan payroll record: %w", err)
	}

	rec.PayPeriodStart, _ = generic.ParseDate(start)
	rec.PayPeriodEnd, _ = generic.ParseDate(end)
	rec.PayDate, _ = generic.ParseDate(payDate)
	rec.CreatedAt = parseTimestamp(createdAt)
	rec.CreatedBy = createdBy.String
	rec.EditHash = editHash.String

	if breakdownJSON.Valid && breakdownJSON.String != "" {
		json.Unmarshal([]byte(breakdownJSON.String), &rec.Breakdown)
	}
	return rec, nil
}

// =============================================================================
// EMPLOYEE DIRECTORY (payroll.EmployeeDirectory interface)
// =============================================================================

// SaveEmployee saves an employee.
func (s *Store) SaveEmployee(ctx context.Context, emp payroll.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO employees (id, name, role, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			role = excluded.role
	`

	_, err := s.db.ExecContext(ctx, query,
		emp.ID, emp.Name, emp.Role,
		formatTimestamp(time.Now()),
	)
	return err
}

// Employee retrieves an employee by ID.
func (s *Store) Employee(ctx context.Context, id generic.EmployeeID) (payroll.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var emp payroll.Employee
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, role FROM employees WHERE id = ?",
		id,
	).Scan(&emp.ID, &emp.Name, &emp.Role)

	if errors.Is(err, sql.ErrNoRows) {
		return payroll.Employee{}, &generic.EmployeeNotFoundError{EmployeeID: id}
	}
	return emp, err
}

// ListEmployees returns all employees ordered by ID.
func (s *Store) ListEmployees(ctx context.Context) ([]payroll.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT id, name, role FROM employees ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	employees := []payroll.Employee{}
	for rows.Next() {
		var emp payroll.Employee
		if err := rows.Scan(&emp.ID, &emp.Name, &emp.Role); err != nil {
			return nil, err
		}
		employees = append(employees, emp)
	}
	return employees, rows.Err()
}

// =============================================================================
// LEAVE REQUESTS (leave.Source interface)
// =============================================================================

// SaveLeaveRequest inserts or replaces a leave request.
func (s *Store) SaveLeaveRequest(ctx context.Context, r leave.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO leave_requests (id, employee_id, leave_type, start_date, end_date, status, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			employee_id = excluded.employee_id,
			leave_type = excluded.leave_type,
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			status = excluded.status,
			reason = excluded.reason
	`

	_, err := s.db.ExecContext(ctx, query,
		r.ID, r.EmployeeID, r.Type,
		r.StartDate.String(), r.EndDate.String(),
		r.Status, nullString(r.Reason),
	)
	return err
}

// LeaveRequests returns an employee's requests in any status.
func (s *Store) LeaveRequests(ctx context.Context, employeeID generic.EmployeeID) ([]leave.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryLeaveRequests(ctx,
		"SELECT id, employee_id, leave_type, start_date, end_date, status, reason FROM leave_requests WHERE employee_id = ? ORDER BY start_date",
		employeeID,
	)
}

// ListLeaveRequests returns every request ordered by start date.
func (s *Store) ListLeaveRequests(ctx context.Context) ([]leave.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryLeaveRequests(ctx,
		"SELECT id, employee_id, leave_type, start_date, end_date, status, reason FROM leave_requests ORDER BY start_date, id",
	)
}

func (s *Store) queryLeaveRequests(ctx context.Context, query string, args ...any) ([]leave.Request, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query leave requests: %w", err)
	}
	defer rows.Close()

	requests := []leave.Request{}
	for rows.Next() {
		var (
			r          leave.Request
			start, end string
			reason     sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.EmployeeID, &r.Type, &start, &end, &r.Status, &reason); err != nil {
			return nil, fmt.Errorf("failed to scan leave request: %w", err)
		}
		r.StartDate, _ = generic.ParseDate(start)
		r.EndDate, _ = generic.ParseDate(end)
		r.Reason = reason.String
		requests = append(requests, r)
	}
	return requests, rows.Err()
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"payroll_edit_logs", "payroll_records", "time_records", "leave_requests", "employees"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

// Helper functions

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func parseTimestamp(s string) time.Time {
	t, err := time.Parse(timestampLayout, s)
	if err != nil {
		t, _ = time.Parse(time.RFC3339Nano, s)
	}
	return t
}

func isUniqueConstraintError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "duplicate key"))
}

var (
	_ generic.TimeStore         = (*Store)(nil)
	_ payroll.Store             = (*Store)(nil)
	_ payroll.EmployeeDirectory = (*Store)(nil)
	_ leave.Source              = (*Store)(nil)
)
