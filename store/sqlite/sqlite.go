/*
Package sqlite provides a SQLite-backed implementation of timeoff.TxStore.

PURPOSE:
  Persists organizations, employees, holidays, time-off types, requests,
  approvals, periods, vacation balances and the audit log. Every query is
  scoped by organization_id.

KEY TABLES:
  time_off_requests:  Requests; status is the only mutable column
  approvals:          One row per approvable
  vacation_balances:  Ledger rows per (employee, year)
  periods:            Yearly windows per organization
  audit_log:          Append-only history

INDEXES:
  Uniqueness the workflow relies on:
  - idx_periods_org_year:        one period per (organization, year)
  - idx_approvals_approvable:    one approval per approvable
  - idx_balances_employee_year:  one balance per (employee, year)

CONCURRENCY:
  The pool is limited to one connection, so SQLite sees one writer at a
  time and ":memory:" databases are shared by every call. Inside WithTx
  use only the Store passed to fn; the outer Store would wait for the
  connection the transaction holds.

USAGE:
  store, err := sqlite.New("./data/peopledear.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  svc := timeoff.NewService(store)

MIGRATION:
  Schema is auto-migrated on New().

SEE ALSO:
  - timeoff/store.go: Interface definitions
  - store/memory: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/peopledear/peopledear/generic"
	"github.com/peopledear/peopledear/timeoff"
)

// timeLayout is fixed-width so timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store implements timeoff.TxStore using SQLite.
type Store struct {
	*repo
	db *sql.DB
}

var _ timeoff.TxStore = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}
	db.SetMaxOpenConns(1)

	store := &Store{repo: &repo{q: db}, db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "migrate database")
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// WithTx executes fn within a database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(timeoff.Store) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}
	defer sqlTx.Rollback()

	if err := fn(&repo{q: sqlTx}); err != nil {
		return err
	}
	return errors.Wrap(sqlTx.Commit(), "commit transaction")
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS organizations (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		organization_id TEXT NOT NULL REFERENCES organizations(id),
		name TEXT NOT NULL,
		email TEXT NOT NULL,
		role TEXT NOT NULL,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_employees_org ON employees(organization_id);

	CREATE TABLE IF NOT EXISTS holidays (
		id TEXT PRIMARY KEY,
		organization_id TEXT NOT NULL REFERENCES organizations(id),
		date TEXT NOT NULL,
		name TEXT NOT NULL,
		recurring INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_holidays_org ON holidays(organization_id, date);

	CREATE TABLE IF NOT EXISTS time_off_types (
		id TEXT PRIMARY KEY,
		organization_id TEXT NOT NULL REFERENCES organizations(id),
		kind TEXT NOT NULL,
		name TEXT NOT NULL,
		requires_approval INTEGER NOT NULL,
		requires_justification INTEGER NOT NULL,
		balance_mode TEXT NOT NULL,
		is_active INTEGER NOT NULL,
		config_json TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_types_org ON time_off_types(organization_id);

	CREATE TABLE IF NOT EXISTS periods (
		id TEXT PRIMARY KEY,
		organization_id TEXT NOT NULL REFERENCES organizations(id),
		year INTEGER NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		status TEXT NOT NULL,
		created_at TEXT NOT NULL
	);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_periods_org_year ON periods(organization_id, year);

	CREATE TABLE IF NOT EXISTS time_off_requests (
		id TEXT PRIMARY KEY,
		organization_id TEXT NOT NULL REFERENCES organizations(id),
		employee_id TEXT NOT NULL REFERENCES employees(id),
		period_id TEXT NOT NULL REFERENCES periods(id),
		time_off_type_id TEXT NOT NULL REFERENCES time_off_types(id),
		kind TEXT NOT NULL,
		status TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT,
		is_half_day INTEGER NOT NULL,
		reason TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		CHECK (end_date IS NULL OR end_date >= start_date)
	);
	CREATE INDEX IF NOT EXISTS idx_requests_employee
		ON time_off_requests(organization_id, employee_id, start_date);

	CREATE TABLE IF NOT EXISTS approvals (
		id TEXT PRIMARY KEY,
		organization_id TEXT NOT NULL REFERENCES organizations(id),
		approvable_type TEXT NOT NULL,
		approvable_id TEXT NOT NULL,
		status TEXT NOT NULL,
		approved_by TEXT NOT NULL DEFAULT '',
		approved_at TEXT,
		rejection_reason TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_approvals_approvable
		ON approvals(approvable_type, approvable_id);
	CREATE INDEX IF NOT EXISTS idx_approvals_org_status ON approvals(organization_id, status);

	CREATE TABLE IF NOT EXISTS vacation_balances (
		id TEXT PRIMARY KEY,
		organization_id TEXT NOT NULL REFERENCES organizations(id),
		employee_id TEXT NOT NULL REFERENCES employees(id),
		year INTEGER NOT NULL,
		from_last_year INTEGER NOT NULL DEFAULT 0,
		accrued INTEGER NOT NULL DEFAULT 0,
		taken INTEGER NOT NULL DEFAULT 0,
		updated_at TEXT NOT NULL
	);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_balances_employee_year
		ON vacation_balances(employee_id, year);

	CREATE TABLE IF NOT EXISTS audit_log (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		organization_id TEXT NOT NULL,
		timestamp TEXT NOT NULL,
		actor_id TEXT NOT NULL,
		action TEXT NOT NULL,
		subject_type TEXT NOT NULL,
		subject_id TEXT NOT NULL,
		payload_json TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_audit_subject ON audit_log(organization_id, subject_type, subject_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// REPO - Queries shared by the Store and its transactions
// =============================================================================

type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// repo implements timeoff.Store over a *sql.DB or a *sql.Tx.
type repo struct {
	q queryer
}

var _ timeoff.Store = (*repo)(nil)

type scanner interface {
	Scan(dest ...any) error
}

// Helper functions

func formatTime(t time.Time) string { return t.UTC().Format(timeLayout) }

func parseTime(s string) time.Time {
	t, _ := time.Parse(timeLayout, s)
	return t
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func nullDate(d *generic.Date) sql.NullString {
	if d == nil || d.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func parseDate(s string) generic.Date {
	d, _ := generic.ParseDate(s)
	return d
}

func isUniqueConstraintError(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}

// exec runs a write and maps uniqueness violations to generic.ErrDuplicate.
func (r *repo) exec(ctx context.Context, what, query string, args ...any) (int64, error) {
	res, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueConstraintError(err) {
			return 0, generic.ErrDuplicate
		}
		return 0, errors.Wrap(err, what)
	}
	n, err := res.RowsAffected()
	return n, errors.Wrap(err, what)
}

// notFound maps sql.ErrNoRows to nf and wraps anything else.
func notFound(err error, nf error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return nf
	}
	return errors.Wrap(err, what)
}

// =============================================================================
// DIRECTORY
// =============================================================================

func (r *repo) SaveOrganization(ctx context.Context, org generic.Organization) error {
	_, err := r.exec(ctx, "save organization", `
		INSERT INTO organizations (id, name, created_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name`,
		org.ID, org.Name, formatTime(org.CreatedAt))
	return err
}

func (r *repo) GetOrganization(ctx context.Context, id generic.OrganizationID) (generic.Organization, error) {
	var org generic.Organization
	var created string
	err := r.q.QueryRowContext(ctx, `SELECT id, name, created_at FROM organizations WHERE id = ?`, id).
		Scan(&org.ID, &org.Name, &created)
	if err != nil {
		return generic.Organization{}, notFound(err, generic.NotFound("organization", string(id)), "get organization")
	}
	org.CreatedAt = parseTime(created)
	return org, nil
}

func (r *repo) ListOrganizations(ctx context.Context) ([]generic.Organization, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT id, name, created_at FROM organizations ORDER BY name`)
	if err != nil {
		return nil, errors.Wrap(err, "list organizations")
	}
	defer rows.Close()

	var out []generic.Organization
	for rows.Next() {
		var org generic.Organization
		var created string
		if err := rows.Scan(&org.ID, &org.Name, &created); err != nil {
			return nil, errors.Wrap(err, "scan organization")
		}
		org.CreatedAt = parseTime(created)
		out = append(out, org)
	}
	return out, rows.Err()
}

func (r *repo) SaveEmployee(ctx context.Context, emp generic.Employee) error {
	n, err := r.exec(ctx, "save employee", `
		INSERT INTO employees (id, organization_id, name, email, role, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, email = excluded.email, role = excluded.role
		WHERE employees.organization_id = excluded.organization_id`,
		emp.ID, emp.OrganizationID, emp.Name, emp.Email, emp.Role, formatTime(emp.CreatedAt))
	if err != nil {
		return err
	}
	if n == 0 {
		return generic.ErrDuplicate
	}
	return nil
}

const employeeColumns = `id, organization_id, name, email, role, created_at`

func scanEmployee(row scanner) (generic.Employee, error) {
	var emp generic.Employee
	var created string
	err := row.Scan(&emp.ID, &emp.OrganizationID, &emp.Name, &emp.Email, &emp.Role, &created)
	emp.CreatedAt = parseTime(created)
	return emp, err
}

func (r *repo) GetEmployee(ctx context.Context, orgID generic.OrganizationID, id generic.EmployeeID) (generic.Employee, error) {
	emp, err := scanEmployee(r.q.QueryRowContext(ctx,
		`SELECT `+employeeColumns+` FROM employees WHERE organization_id = ? AND id = ?`, orgID, id))
	if err != nil {
		return generic.Employee{}, notFound(err, generic.NotFound("employee", string(id)), "get employee")
	}
	return emp, nil
}

func (r *repo) ListEmployees(ctx context.Context, orgID generic.OrganizationID) ([]generic.Employee, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT `+employeeColumns+` FROM employees WHERE organization_id = ? ORDER BY name`, orgID)
	if err != nil {
		return nil, errors.Wrap(err, "list employees")
	}
	defer rows.Close()

	var out []generic.Employee
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan employee")
		}
		out = append(out, emp)
	}
	return out, rows.Err()
}

func (r *repo) SaveHoliday(ctx context.Context, h generic.Holiday) error {
	_, err := r.exec(ctx, "save holiday", `
		INSERT INTO holidays (id, organization_id, date, name, recurring) VALUES (?, ?, ?, ?, ?)`,
		h.ID, h.OrganizationID, h.Date.String(), h.Name, h.Recurring)
	return err
}

func (r *repo) ListHolidays(ctx context.Context, orgID generic.OrganizationID) ([]generic.Holiday, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, organization_id, date, name, recurring FROM holidays
		WHERE organization_id = ? ORDER BY date`, orgID)
	if err != nil {
		return nil, errors.Wrap(err, "list holidays")
	}
	defer rows.Close()

	var out []generic.Holiday
	for rows.Next() {
		var h generic.Holiday
		var date string
		if err := rows.Scan(&h.ID, &h.OrganizationID, &date, &h.Name, &h.Recurring); err != nil {
			return nil, errors.Wrap(err, "scan holiday")
		}
		h.Date = parseDate(date)
		out = append(out, h)
	}
	return out, rows.Err()
}

func (r *repo) DeleteHoliday(ctx context.Context, orgID generic.OrganizationID, id string) error {
	n, err := r.exec(ctx, "delete holiday", `DELETE FROM holidays WHERE organization_id = ? AND id = ?`, orgID, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return generic.NotFound("holiday", id)
	}
	return nil
}
