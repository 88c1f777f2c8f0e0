package postgres

import (
	"fmt"
	"strings"

	"github.com/expensetracker/expense-api/internal/core/domain"
)

var orderColumns = map[domain.SortField]string{
	domain.SortByDate:      "date",
	domain.SortByAmount:    "amount",
	domain.SortByCreatedAt: "created_at",
}

// whereClause accumulates predicates with positional placeholders.
type whereClause struct {
	conds []string
	args  []any
}

func (w *whereClause) add(format string, arg any) {
	w.args = append(w.args, arg)
	w.conds = append(w.conds, fmt.Sprintf(format, len(w.args)))
}

func (w *whereClause) String() string {
	return strings.Join(w.conds, " AND ")
}

// buildWhere returns the predicate for an owner's expenses matching f. The
// owner is always the first argument.
func buildWhere(ownerID int64, f domain.ExpenseFilter) *whereClause {
	w := &whereClause{}
	w.add("user_id = $%d", ownerID)
	if f.DateFrom != nil {
		w.add("date >= $%d", *f.DateFrom)
	}
	if f.DateTo != nil {
		w.add("date <= $%d", *f.DateTo)
	}
	if f.Category != "" {
		w.add("category = $%d", string(f.Category))
	}
	if f.MinAmount != nil {
		w.add("amount >= $%d", *f.MinAmount)
	}
	if f.MaxAmount != nil {
		w.add("amount <= $%d", *f.MaxAmount)
	}
	if f.Search != "" {
		w.args = append(w.args, "%"+escapeLike(f.Search)+"%")
		n := len(w.args)
		w.conds = append(w.conds, fmt.Sprintf("(description ILIKE $%d OR category ILIKE $%d)", n, n))
	}
	return w
}

// orderBy only ever emits whitelisted column names.
func orderBy(o domain.Ordering) string {
	col, ok := orderColumns[o.Field]
	if !ok {
		o = domain.DefaultOrdering
		col = orderColumns[o.Field]
	}
	dir := "ASC"
	if o.Desc {
		dir = "DESC"
	}
	return col + " " + dir + ", id DESC"
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
