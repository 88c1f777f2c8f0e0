package ports

import (
	"context"

	"github.com/expensetracker/expense-api/internal/core/domain"
)

// ExpenseRepository defines persistence operations for expenses. Every read and
// write is scoped by owner: implementations must include the owner ID in the
// storage predicate and report domain.ErrExpenseNotFound when nothing matches.
type ExpenseRepository interface {
	// Create inserts e and assigns e.ID.
	Create(ctx context.Context, e *domain.Expense) error
	FindByID(ctx context.Context, ownerID, id string) (*domain.Expense, error)
	List(ctx context.Context, ownerID string, filter domain.ExpenseFilter) ([]*domain.Expense, error)
	// Update overwrites the mutable fields of the expense identified by
	// (e.UserID, e.ID).
	Update(ctx context.Context, e *domain.Expense) error
	Delete(ctx context.Context, ownerID, id string) error
	Summarize(ctx context.Context, ownerID string, filter domain.ExpenseFilter) (*domain.ExpenseSummary, error)
}
