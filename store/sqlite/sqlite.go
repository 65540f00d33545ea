/*
Package sqlite provides a SQLite-backed implementation of the storage
interfaces.

PURPOSE:
  Implements ledger.Store, the request store, and leave.Catalog using
  SQLite. In production the same patterns apply to PostgreSQL - only minor
  SQL dialect differences.

KEY TABLES:
  leave_balances: one row per (employee, leave type, year), version-stamped
  leave_requests: full application history, status-only mutations, no deletes
  leave_types:    immutable reference data
  holidays:       external reference data

OPTIMISTIC CONCURRENCY:
  Balance writes are conditioned on the stored version:

    UPDATE leave_balances SET ..., version = version + 1
    WHERE employee_id = ? AND ... AND version = ?

  Zero rows affected means a concurrent writer got there first; the caller
  (the ledger, under its per-key lock) retries.

DECIMALS:
  Day quantities are stored as TEXT and parsed with shopspring/decimal, so
  0.5-day values round-trip exactly.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/leave.db")  // or ":memory:"
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  ldg := ledger.New(store.Balances, logger)
  svc := lifecycle.NewService(store.Requests, ldg, logger)

SEE ALSO:
  - ledger/balance.go: Store interface and version contract
  - store/memory: in-memory implementation for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/leave-engine/leave"
	"github.com/warp/leave-engine/ledger"
)

// Store bundles the three storage facets backed by one SQLite database.
type Store struct {
	db *sql.DB

	Balances *BalanceStore
	Requests *RequestStore
	Catalog  *CatalogStore
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{
		db:       db,
		Balances: &BalanceStore{db: db},
		Requests: &RequestStore{db: db},
		Catalog:  &CatalogStore{db: db},
	}
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
	CREATE TABLE IF NOT EXISTS leave_types (
		code TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		carry_forward_eligible INTEGER NOT NULL DEFAULT 0,
		max_carry_forward_days TEXT,
		encashable INTEGER NOT NULL DEFAULT 0,
		half_day_support INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS leave_balances (
		employee_id TEXT NOT NULL,
		leave_type_code TEXT NOT NULL,
		year INTEGER NOT NULL,
		opening_balance TEXT NOT NULL,
		credited TEXT NOT NULL,
		used TEXT NOT NULL,
		lapsed TEXT NOT NULL,
		pending_approval TEXT NOT NULL,
		version INTEGER NOT NULL,
		PRIMARY KEY (employee_id, leave_type_code, year)
	);

	CREATE TABLE IF NOT EXISTS leave_requests (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		leave_type_code TEXT NOT NULL,
		from_date TEXT NOT NULL,
		to_date TEXT NOT NULL,
		from_day_type TEXT NOT NULL,
		to_day_type TEXT NOT NULL,
		total_days TEXT NOT NULL,
		granted_days TEXT,
		reason TEXT,
		status TEXT NOT NULL,
		approver_id TEXT,
		approver_remarks TEXT,
		rejection_reason TEXT,
		cancellation_reason TEXT,
		submitted_at TEXT NOT NULL,
		decided_at TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_requests_employee
		ON leave_requests(employee_id, from_date);
	CREATE INDEX IF NOT EXISTS idx_requests_status
		ON leave_requests(status);

	CREATE TABLE IF NOT EXISTS holidays (
		date TEXT NOT NULL,
		name TEXT NOT NULL,
		kind TEXT NOT NULL,
		PRIMARY KEY (date, name)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// BALANCE STORE - implements ledger.Store
// =============================================================================

type BalanceStore struct {
	db *sql.DB
}

func (s *BalanceStore) Get(ctx context.Context, key ledger.Key) (*ledger.Balance, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT opening_balance, credited, used, lapsed, pending_approval, version
		FROM leave_balances
		WHERE employee_id = ? AND leave_type_code = ? AND year = ?`,
		key.EmployeeID, key.LeaveTypeCode, key.Year)

	var opening, credited, used, lapsed, pending string
	b := &ledger.Balance{Key: key}
	err := row.Scan(&opening, &credited, &used, &lapsed, &pending, &b.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, leave.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if b.OpeningBalance, err = decimal.NewFromString(opening); err != nil {
		return nil, err
	}
	if b.Credited, err = decimal.NewFromString(credited); err != nil {
		return nil, err
	}
	if b.Used, err = decimal.NewFromString(used); err != nil {
		return nil, err
	}
	if b.Lapsed, err = decimal.NewFromString(lapsed); err != nil {
		return nil, err
	}
	if b.PendingApproval, err = decimal.NewFromString(pending); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *BalanceStore) Create(ctx context.Context, balance *ledger.Balance) error {
	balance.Version = 1
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO leave_balances
			(employee_id, leave_type_code, year,
			 opening_balance, credited, used, lapsed, pending_approval, version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		balance.Key.EmployeeID, balance.Key.LeaveTypeCode, balance.Key.Year,
		balance.OpeningBalance.String(), balance.Credited.String(),
		balance.Used.String(), balance.Lapsed.String(),
		balance.PendingApproval.String(), balance.Version)
	return err
}

func (s *BalanceStore) Save(ctx context.Context, balance *ledger.Balance) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE leave_balances
		SET opening_balance = ?, credited = ?, used = ?, lapsed = ?,
		    pending_approval = ?, version = version + 1
		WHERE employee_id = ? AND leave_type_code = ? AND year = ? AND version = ?`,
		balance.OpeningBalance.String(), balance.Credited.String(),
		balance.Used.String(), balance.Lapsed.String(),
		balance.PendingApproval.String(),
		balance.Key.EmployeeID, balance.Key.LeaveTypeCode, balance.Key.Year,
		balance.Version)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		// Row missing or version stale; distinguish for the caller.
		var exists int
		row := s.db.QueryRowContext(ctx, `
			SELECT COUNT(1) FROM leave_balances
			WHERE employee_id = ? AND leave_type_code = ? AND year = ?`,
			balance.Key.EmployeeID, balance.Key.LeaveTypeCode, balance.Key.Year)
		if err := row.Scan(&exists); err != nil {
			return err
		}
		if exists == 0 {
			return leave.ErrNotFound
		}
		return leave.ErrConcurrentModification
	}
	balance.Version++
	return nil
}

// =============================================================================
// REQUEST STORE - implements lifecycle.RequestStore
// =============================================================================

type RequestStore struct {
	db *sql.DB
}

func (s *RequestStore) Create(ctx context.Context, req *leave.Request) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO leave_requests
			(id, employee_id, leave_type_code, from_date, to_date,
			 from_day_type, to_day_type, total_days, granted_days, reason,
			 status, approver_id, approver_remarks, rejection_reason,
			 cancellation_reason, submitted_at, decided_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		req.ID, req.EmployeeID, req.LeaveTypeCode,
		req.FromDate.String(), req.ToDate.String(),
		string(req.FromDayType), string(req.ToDayType),
		req.TotalDays.String(), nullDecimal(req.GrantedDays), req.Reason,
		string(req.Status), req.ApproverID, req.ApproverRemarks,
		req.RejectionReason, req.CancellationReason,
		req.SubmittedAt.UTC().Format(time.RFC3339Nano), nullTime(req.DecidedAt))
	return err
}

func (s *RequestStore) Get(ctx context.Context, id string) (*leave.Request, error) {
	row := s.db.QueryRowContext(ctx, selectRequest+` WHERE id = ?`, id)
	req, err := scanRequest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, leave.ErrNotFound
	}
	return req, err
}

func (s *RequestStore) Update(ctx context.Context, req *leave.Request) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE leave_requests
		SET granted_days = ?, status = ?, approver_id = ?, approver_remarks = ?,
		    rejection_reason = ?, cancellation_reason = ?, decided_at = ?
		WHERE id = ?`,
		nullDecimal(req.GrantedDays), string(req.Status), req.ApproverID,
		req.ApproverRemarks, req.RejectionReason, req.CancellationReason,
		nullTime(req.DecidedAt), req.ID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return leave.ErrNotFound
	}
	return nil
}

func (s *RequestStore) ListByEmployee(ctx context.Context, employeeID string) ([]*leave.Request, error) {
	rows, err := s.db.QueryContext(ctx,
		selectRequest+` WHERE employee_id = ? ORDER BY submitted_at DESC`, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRequests(rows)
}

func (s *RequestStore) ListPending(ctx context.Context) ([]*leave.Request, error) {
	rows, err := s.db.QueryContext(ctx,
		selectRequest+` WHERE status = ? ORDER BY submitted_at ASC`,
		string(leave.StatusPending))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRequests(rows)
}

const selectRequest = `
	SELECT id, employee_id, leave_type_code, from_date, to_date,
	       from_day_type, to_day_type, total_days, granted_days, reason,
	       status, approver_id, approver_remarks, rejection_reason,
	       cancellation_reason, submitted_at, decided_at
	FROM leave_requests`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (*leave.Request, error) {
	var (
		req              leave.Request
		fromDate, toDate string
		fromType, toType string
		totalDays        string
		grantedDays      sql.NullString
		status           string
		submittedAt      string
		decidedAt        sql.NullString
	)
	err := row.Scan(&req.ID, &req.EmployeeID, &req.LeaveTypeCode,
		&fromDate, &toDate, &fromType, &toType, &totalDays, &grantedDays,
		&req.Reason, &status, &req.ApproverID, &req.ApproverRemarks,
		&req.RejectionReason, &req.CancellationReason, &submittedAt, &decidedAt)
	if err != nil {
		return nil, err
	}

	if req.FromDate, err = leave.ParseDate(fromDate); err != nil {
		return nil, err
	}
	if req.ToDate, err = leave.ParseDate(toDate); err != nil {
		return nil, err
	}
	req.FromDayType = leave.DayType(fromType)
	req.ToDayType = leave.DayType(toType)
	req.Status = leave.Status(status)

	if req.TotalDays, err = decimal.NewFromString(totalDays); err != nil {
		return nil, err
	}
	if grantedDays.Valid {
		granted, err := decimal.NewFromString(grantedDays.String)
		if err != nil {
			return nil, err
		}
		req.GrantedDays = &granted
	}
	if req.SubmittedAt, err = time.Parse(time.RFC3339Nano, submittedAt); err != nil {
		return nil, err
	}
	if decidedAt.Valid {
		decided, err := time.Parse(time.RFC3339Nano, decidedAt.String)
		if err != nil {
			return nil, err
		}
		req.DecidedAt = &decided
	}
	return &req, nil
}

func scanRequests(rows *sql.Rows) ([]*leave.Request, error) {
	var result []*leave.Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, req)
	}
	return result, rows.Err()
}

// =============================================================================
// CATALOG - implements leave.Catalog
// =============================================================================

type CatalogStore struct {
	db *sql.DB
}

func (s *CatalogStore) PutLeaveType(ctx context.Context, lt leave.LeaveType) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO leave_types
			(code, name, carry_forward_eligible, max_carry_forward_days,
			 encashable, half_day_support)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(code) DO UPDATE SET
			name = excluded.name,
			carry_forward_eligible = excluded.carry_forward_eligible,
			max_carry_forward_days = excluded.max_carry_forward_days,
			encashable = excluded.encashable,
			half_day_support = excluded.half_day_support`,
		lt.Code, lt.Name, boolInt(lt.IsCarryForwardEligible),
		nullDecimal(lt.MaxCarryForwardDays), boolInt(lt.IsEncashable),
		boolInt(lt.RequiresHalfDaySupport))
	return err
}

func (s *CatalogStore) GetLeaveType(ctx context.Context, code string) (*leave.LeaveType, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT code, name, carry_forward_eligible, max_carry_forward_days,
		       encashable, half_day_support
		FROM leave_types WHERE code = ?`, code)

	lt, err := scanLeaveType(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, leave.ErrNotFound
	}
	return lt, err
}

func (s *CatalogStore) ListLeaveTypes(ctx context.Context) ([]leave.LeaveType, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT code, name, carry_forward_eligible, max_carry_forward_days,
		       encashable, half_day_support
		FROM leave_types ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []leave.LeaveType
	for rows.Next() {
		lt, err := scanLeaveType(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *lt)
	}
	return result, rows.Err()
}

func scanLeaveType(row rowScanner) (*leave.LeaveType, error) {
	var (
		lt                   leave.LeaveType
		carryForward, encash int
		halfDay              int
		maxCarry             sql.NullString
	)
	err := row.Scan(&lt.Code, &lt.Name, &carryForward, &maxCarry, &encash, &halfDay)
	if err != nil {
		return nil, err
	}
	lt.IsCarryForwardEligible = carryForward != 0
	lt.IsEncashable = encash != 0
	lt.RequiresHalfDaySupport = halfDay != 0
	if maxCarry.Valid {
		capDays, err := decimal.NewFromString(maxCarry.String)
		if err != nil {
			return nil, err
		}
		lt.MaxCarryForwardDays = &capDays
	}
	return &lt, nil
}

func (s *CatalogStore) AddHoliday(ctx context.Context, h leave.Holiday) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO holidays (date, name, kind) VALUES (?, ?, ?)`,
		h.Date.String(), h.Name, string(h.Kind))
	return err
}

func (s *CatalogStore) ListHolidays(ctx context.Context, year int) ([]leave.Holiday, error) {
	query := `SELECT date, name, kind FROM holidays`
	var args []any
	if year != 0 {
		query += ` WHERE date >= ? AND date <= ?`
		args = append(args,
			leave.NewDate(year, time.January, 1).String(),
			leave.NewDate(year, time.December, 31).String())
	}
	query += ` ORDER BY date`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []leave.Holiday
	for rows.Next() {
		var h leave.Holiday
		var date, kind string
		if err := rows.Scan(&date, &h.Name, &kind); err != nil {
			return nil, err
		}
		if h.Date, err = leave.ParseDate(date); err != nil {
			return nil, err
		}
		h.Kind = leave.HolidayKind(kind)
		result = append(result, h)
	}
	return result, rows.Err()
}

// =============================================================================
// HELPERS
// =============================================================================

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullDecimal(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return d.String()
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}
