package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/expensetracker/expense-api/internal/core/domain"
)

const expenseColumns = `id, user_id, amount, date, description, category, created_at, updated_at`

type ExpenseRepository struct {
	db PGXDB
}

func NewExpenseRepository(db PGXDB) *ExpenseRepository {
	return &ExpenseRepository{db: db}
}

// parseID maps a non-numeric identifier to ok=false; callers report it as not found.
func parseID(s string) (int64, bool) {
	id, err := strconv.ParseInt(s, 10, 64)
	return id, err == nil && id > 0
}

func (r *ExpenseRepository) Create(ctx context.Context, e *domain.Expense) error {
	owner, ok := parseID(e.UserID)
	if !ok {
		return fmt.Errorf("failed to create expense: invalid owner id %q", e.UserID)
	}
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO expenses (user_id, amount, date, description, category, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, owner, e.Amount, domain.DateOf(e.Date), e.Description, string(e.Category), e.CreatedAt, e.UpdatedAt).Scan(&id)
	if err != nil {
		return fmt.Errorf("failed to create expense: %w", err)
	}
	e.ID = strconv.FormatInt(id, 10)
	return nil
}

func (r *ExpenseRepository) FindByID(ctx context.Context, ownerID, id string) (*domain.Expense, error) {
	eid, ok := parseID(id)
	owner, ownerOK := parseID(ownerID)
	if !ok || !ownerOK {
		return nil, domain.ErrExpenseNotFound
	}
	row := r.db.QueryRow(ctx, `SELECT `+expenseColumns+` FROM expenses WHERE id = $1 AND user_id = $2`, eid, owner)
	e, err := scanExpense(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrExpenseNotFound
		}
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}
	return e, nil
}

func (r *ExpenseRepository) List(ctx context.Context, ownerID string, f domain.ExpenseFilter) ([]*domain.Expense, error) {
	owner, ok := parseID(ownerID)
	if !ok {
		return []*domain.Expense{}, nil
	}
	w := buildWhere(owner, f)
	rows, err := r.db.Query(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE `+w.String()+` ORDER BY `+orderBy(f.Ordering),
		w.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query expenses: %w", err)
	}
	defer rows.Close()

	out := []*domain.Expense{}
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}
	return out, nil
}

func (r *ExpenseRepository) Update(ctx context.Context, e *domain.Expense) error {
	eid, ok := parseID(e.ID)
	owner, ownerOK := parseID(e.UserID)
	if !ok || !ownerOK {
		return domain.ErrExpenseNotFound
	}
	tag, err := r.db.Exec(ctx, `
		UPDATE expenses
		SET amount = $1, date = $2, description = $3, category = $4, updated_at = $5
		WHERE id = $6 AND user_id = $7
	`, e.Amount, domain.DateOf(e.Date), e.Description, string(e.Category), e.UpdatedAt, eid, owner)
	if err != nil {
		return fmt.Errorf("failed to update expense: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrExpenseNotFound
	}
	return nil
}

func (r *ExpenseRepository) Delete(ctx context.Context, ownerID, id string) error {
	eid, ok := parseID(id)
	owner, ownerOK := parseID(ownerID)
	if !ok || !ownerOK {
		return domain.ErrExpenseNotFound
	}
	tag, err := r.db.Exec(ctx, `DELETE FROM expenses WHERE id = $1 AND user_id = $2`, eid, owner)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrExpenseNotFound
	}
	return nil
}

func (r *ExpenseRepository) Summarize(ctx context.Context, ownerID string, f domain.ExpenseFilter) (*domain.ExpenseSummary, error) {
	sum := &domain.ExpenseSummary{Total: decimal.Zero}
	owner, ok := parseID(ownerID)
	if !ok {
		return sum, nil
	}
	w := buildWhere(owner, f)
	rows, err := r.db.Query(ctx,
		`SELECT category, COUNT(*), COALESCE(SUM(amount), 0) FROM expenses WHERE `+w.String()+
			` GROUP BY category ORDER BY category`,
		w.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize expenses: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			ct  domain.CategoryTotal
			cat string
		)
		if err := rows.Scan(&cat, &ct.Count, &ct.Total); err != nil {
			return nil, fmt.Errorf("failed to scan summary: %w", err)
		}
		ct.Category = domain.Category(cat)
		sum.Count += ct.Count
		sum.Total = sum.Total.Add(ct.Total)
		sum.ByCategory = append(sum.ByCategory, ct)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate summary: %w", err)
	}
	return sum, nil
}

func scanExpense(row pgx.Row) (*domain.Expense, error) {
	var (
		e        domain.Expense
		id, uid  int64
		category string
	)
	if err := row.Scan(&id, &uid, &e.Amount, &e.Date, &e.Description, &category, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	e.ID = strconv.FormatInt(id, 10)
	e.UserID = strconv.FormatInt(uid, 10)
	e.Category = domain.Category(category)
	e.Date = domain.DateOf(e.Date)
	e.CreatedAt = e.CreatedAt.UTC()
	e.UpdatedAt = e.UpdatedAt.UTC()
	return &e, nil
}
