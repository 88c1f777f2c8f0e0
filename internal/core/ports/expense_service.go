package ports

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/expensetracker/expense-api/internal/core/domain"
)

// ListExpensesParams holds the raw listing query parameters.
type ListExpensesParams struct {
	Filter    string
	StartDate string
	EndDate   string
	Category  string
	MinAmount string
	MaxAmount string
	Search    string
	Ordering  string
}

// ExpenseInput carries a create or update payload. Nil fields were absent from
// the request. The owner always comes from the caller identity.
type ExpenseInput struct {
	Amount      *decimal.Decimal
	Date        *string
	Description *string
	Category    *string
}

// ExpenseService defines the owner-scoped expense use cases.
type ExpenseService interface {
	List(ctx context.Context, who domain.Identity, params ListExpensesParams) ([]*domain.Expense, error)
	Summary(ctx context.Context, who domain.Identity, params ListExpensesParams) (*domain.ExpenseSummary, error)
	Get(ctx context.Context, who domain.Identity, id string) (*domain.Expense, error)
	Create(ctx context.Context, who domain.Identity, in ExpenseInput) (*domain.Expense, error)
	// Update applies in to the expense. When partial is false, amount, date
	// and category are required.
	Update(ctx context.Context, who domain.Identity, id string, in ExpenseInput, partial bool) (*domain.Expense, error)
	Delete(ctx context.Context, who domain.Identity, id string) error
}
