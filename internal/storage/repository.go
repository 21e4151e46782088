package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"conti/internal/core"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// MemberTotal is one row of a budget's running totals, maintained by the
// totals worker from the expense history.
type MemberTotal struct {
	BudgetID        string
	MemberID        string
	PaidCents       int64 // amounts this member paid for kind=expense records
	ShareCents      int64 // this member's shares across kind=expense records
	SettledOutCents int64 // settlement payments this member made
	SettledInCents  int64 // settlement payments this member received
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// --- members ---

func (r *SQLiteRepository) CreateMember(ctx context.Context, m core.Member) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO members (id, name, email) VALUES (?, ?, ?)`,
		m.ID, m.Name, m.Email)
	if err != nil {
		return fmt.Errorf("create member: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetMember(ctx context.Context, id string) (core.Member, error) {
	var m core.Member
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, email FROM members WHERE id = ?`, id).
		Scan(&m.ID, &m.Name, &m.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Member{}, ErrNotFound
	}
	if err != nil {
		return core.Member{}, fmt.Errorf("get member: %w", err)
	}
	return m, nil
}

// GetBudgetMembers returns a snapshot of every member of the budget keyed
// by member id.
func (r *SQLiteRepository) GetBudgetMembers(ctx context.Context, budgetID string) (map[string]core.Member, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT m.id, m.name, m.email
		 FROM members m
		 JOIN budget_members bm ON bm.member_id = m.id
		 WHERE bm.budget_id = ?`, budgetID)
	if err != nil {
		return nil, fmt.Errorf("get budget members: %w", err)
	}
	defer rows.Close()

	members := make(map[string]core.Member)
	for rows.Next() {
		var m core.Member
		if err := rows.Scan(&m.ID, &m.Name, &m.Email); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members[m.ID] = m
	}
	return members, rows.Err()
}

// --- budgets ---

func (r *SQLiteRepository) CreateBudget(ctx context.Context, b core.Budget) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO budgets (id, name, currency, owner_id) VALUES (?, ?, ?, ?)`,
		b.ID, b.Name, b.Currency, b.OwnerID)
	if err != nil {
		return fmt.Errorf("insert budget: %w", err)
	}
	for _, mid := range b.MemberIDs {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO budget_members (budget_id, member_id) VALUES (?, ?)`,
			b.ID, mid)
		if err != nil {
			return fmt.Errorf("insert budget member: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	slog.InfoContext(ctx, "Budget created",
		"budget_id", b.ID,
		"name", b.Name,
		"currency", b.Currency,
		"members", len(b.MemberIDs))
	return nil
}

func (r *SQLiteRepository) GetBudget(ctx context.Context, id string) (core.Budget, error) {
	var b core.Budget
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, currency, owner_id FROM budgets WHERE id = ?`, id).
		Scan(&b.ID, &b.Name, &b.Currency, &b.OwnerID)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Budget{}, ErrNotFound
	}
	if err != nil {
		return core.Budget{}, fmt.Errorf("get budget: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT member_id FROM budget_members WHERE budget_id = ? ORDER BY joined_at, member_id`, id)
	if err != nil {
		return core.Budget{}, fmt.Errorf("get budget member ids: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var mid string
		if err := rows.Scan(&mid); err != nil {
			return core.Budget{}, fmt.Errorf("scan member id: %w", err)
		}
		b.MemberIDs = append(b.MemberIDs, mid)
	}
	return b, rows.Err()
}

func (r *SQLiteRepository) ListBudgetsByMember(ctx context.Context, memberID string) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT b.id FROM budgets b
		 JOIN budget_members bm ON bm.budget_id = b.id
		 WHERE bm.member_id = ?
		 ORDER BY b.created_at`, memberID)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan budget id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	budgets := make([]core.Budget, 0, len(ids))
	for _, id := range ids {
		b, err := r.GetBudget(ctx, id)
		if err != nil {
			return nil, err
		}
		budgets = append(budgets, b)
	}
	return budgets, nil
}

// ListBudgetIDs returns every budget id, for the totals sweep.
func (r *SQLiteRepository) ListBudgetIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM budgets ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list budget ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan budget id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *SQLiteRepository) AddBudgetMember(ctx context.Context, budgetID, memberID string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO budget_members (budget_id, member_id) VALUES (?, ?)`,
		budgetID, memberID)
	if err != nil {
		return fmt.Errorf("add budget member: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) RemoveBudgetMember(ctx context.Context, budgetID, memberID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM budget_members WHERE budget_id = ? AND member_id = ?`,
		budgetID, memberID)
	if err != nil {
		return fmt.Errorf("remove budget member: %w", err)
	}
	return nil
}

// --- expenses ---

func (r *SQLiteRepository) CreateExpense(ctx context.Context, e core.Expense) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO expenses (id, budget_id, kind, description, amount_cents, currency, expense_date, created_by)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.BudgetID, string(e.Kind), e.Description, e.Amount.Cents, e.Currency, e.Date.String(), e.CreatedBy)
	if err != nil {
		return fmt.Errorf("insert expense: %w", err)
	}

	if err := insertShares(ctx, tx, e); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved",
		"expense_id", e.ID,
		"budget_id", e.BudgetID,
		"expense_kind", string(e.Kind),
		"amount_cents", e.Amount.Cents,
		"currency", e.Currency)
	return nil
}

// UpdateExpense replaces the mutable fields and the share map, bumping the
// record version.
func (r *SQLiteRepository) UpdateExpense(ctx context.Context, e core.Expense) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE expenses
		 SET description = ?, amount_cents = ?, currency = ?, expense_date = ?,
		     version = version + 1, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND deleted = 0`,
		e.Description, e.Amount.Cents, e.Currency, e.Date.String(), e.ID)
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}

	_, err = tx.ExecContext(ctx, `DELETE FROM expense_shares WHERE expense_id = ?`, e.ID)
	if err != nil {
		return fmt.Errorf("clear shares: %w", err)
	}
	if err := insertShares(ctx, tx, e); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func insertShares(ctx context.Context, tx *sql.Tx, e core.Expense) error {
	for i, mid := range e.PaidFor {
		share := e.Shares[mid]
		_, err := tx.ExecContext(ctx,
			`INSERT INTO expense_shares (expense_id, member_id, share_cents, position) VALUES (?, ?, ?, ?)`,
			e.ID, mid, share.Cents, i)
		if err != nil {
			return fmt.Errorf("insert share: %w", err)
		}
	}
	return nil
}

func (r *SQLiteRepository) SoftDeleteExpense(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE expenses SET deleted = 1, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted = 0`, id)
	if err != nil {
		return fmt.Errorf("soft delete expense: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) GetExpense(ctx context.Context, id string) (core.Expense, error) {
	var (
		e    core.Expense
		kind string
		date string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, budget_id, kind, description, amount_cents, currency, expense_date, created_by
		 FROM expenses WHERE id = ? AND deleted = 0`, id).
		Scan(&e.ID, &e.BudgetID, &kind, &e.Description, &e.Amount.Cents, &e.Currency, &date, &e.CreatedBy)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, ErrNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense: %w", err)
	}
	e.Kind = core.ExpenseKind(kind)
	e.Date, err = core.ParseDate(date)
	if err != nil {
		return core.Expense{}, fmt.Errorf("parse expense date: %w", err)
	}

	if err := r.loadShares(ctx, &e); err != nil {
		return core.Expense{}, err
	}
	return e, nil
}

func (r *SQLiteRepository) loadShares(ctx context.Context, e *core.Expense) error {
	rows, err := r.db.QueryContext(ctx,
		`SELECT member_id, share_cents FROM expense_shares WHERE expense_id = ? ORDER BY position`, e.ID)
	if err != nil {
		return fmt.Errorf("get expense shares: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			mid   string
			cents int64
		)
		if err := rows.Scan(&mid, &cents); err != nil {
			return fmt.Errorf("scan share: %w", err)
		}
		if e.Shares == nil {
			e.Shares = make(map[string]core.Money)
		}
		e.PaidFor = append(e.PaidFor, mid)
		e.Shares[mid] = core.Money{Cents: cents}
	}
	return rows.Err()
}

// ListExpenses returns the budget's non-deleted history, oldest first, with
// share maps attached.
func (r *SQLiteRepository) ListExpenses(ctx context.Context, budgetID string) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, budget_id, kind, description, amount_cents, currency, expense_date, created_by
		 FROM expenses
		 WHERE budget_id = ? AND deleted = 0
		 ORDER BY expense_date, created_at`, budgetID)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []core.Expense
	for rows.Next() {
		var (
			e    core.Expense
			kind string
			date string
		)
		if err := rows.Scan(&e.ID, &e.BudgetID, &kind, &e.Description, &e.Amount.Cents, &e.Currency, &date, &e.CreatedBy); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		e.Kind = core.ExpenseKind(kind)
		e.Date, err = core.ParseDate(date)
		if err != nil {
			return nil, fmt.Errorf("parse expense date: %w", err)
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range expenses {
		if err := r.loadShares(ctx, &expenses[i]); err != nil {
			return nil, err
		}
	}
	return expenses, nil
}

// --- running totals ---

// ReplaceMemberTotals swaps the budget's running totals for a freshly
// recomputed set in one transaction, so readers never see partial rows.
func (r *SQLiteRepository) ReplaceMemberTotals(ctx context.Context, budgetID string, totals []MemberTotal) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `DELETE FROM member_totals WHERE budget_id = ?`, budgetID)
	if err != nil {
		return fmt.Errorf("clear member totals: %w", err)
	}
	for _, t := range totals {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO member_totals (budget_id, member_id, paid_cents, share_cents, settled_out_cents, settled_in_cents)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			budgetID, t.MemberID, t.PaidCents, t.ShareCents, t.SettledOutCents, t.SettledInCents)
		if err != nil {
			return fmt.Errorf("insert member total: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetMemberTotals(ctx context.Context, budgetID string) ([]MemberTotal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT budget_id, member_id, paid_cents, share_cents, settled_out_cents, settled_in_cents
		 FROM member_totals WHERE budget_id = ?`, budgetID)
	if err != nil {
		return nil, fmt.Errorf("get member totals: %w", err)
	}
	defer rows.Close()

	var totals []MemberTotal
	for rows.Next() {
		var t MemberTotal
		if err := rows.Scan(&t.BudgetID, &t.MemberID, &t.PaidCents, &t.ShareCents, &t.SettledOutCents, &t.SettledInCents); err != nil {
			return nil, fmt.Errorf("scan member total: %w", err)
		}
		totals = append(totals, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Slice(totals, func(i, j int) bool { return totals[i].MemberID < totals[j].MemberID })
	return totals, nil
}

// --- rate snapshots ---

// SaveRateSnapshot persists a fetched day-stamped rate table so restarts
// and offline periods can fall back to the last known rates.
func (r *SQLiteRepository) SaveRateSnapshot(ctx context.Context, rs core.RateSnapshot) error {
	payload, err := json.Marshal(rs.Rates)
	if err != nil {
		return fmt.Errorf("marshal rates: %w", err)
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO rate_snapshots (as_of, base, rates_json) VALUES (?, ?, ?)`,
		rs.AsOf, rs.Base, string(payload))
	if err != nil {
		return fmt.Errorf("save rate snapshot: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetRateSnapshot(ctx context.Context, asOf, base string) (core.RateSnapshot, error) {
	var payload string
	err := r.db.QueryRowContext(ctx,
		`SELECT rates_json FROM rate_snapshots WHERE as_of = ? AND base = ?`, asOf, base).
		Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return core.RateSnapshot{}, ErrNotFound
	}
	if err != nil {
		return core.RateSnapshot{}, fmt.Errorf("get rate snapshot: %w", err)
	}

	rs := core.RateSnapshot{AsOf: asOf, Base: base}
	if err := json.Unmarshal([]byte(payload), &rs.Rates); err != nil {
		return core.RateSnapshot{}, fmt.Errorf("unmarshal rates: %w", err)
	}
	return rs, nil
}
