package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// SortField names an expense attribute a listing may be ordered by.
type SortField string

const (
	SortByDate      SortField = "date"
	SortByAmount    SortField = "amount"
	SortByCreatedAt SortField = "created_at"
)

// Ordering is a sort field plus direction. Ties always break on id, descending.
type Ordering struct {
	Field SortField
	Desc  bool
}

// DefaultOrdering lists newest expenses first.
var DefaultOrdering = Ordering{Field: SortByDate, Desc: true}

// ParseOrdering reads "field" or "-field". Anything unrecognised yields DefaultOrdering.
func ParseOrdering(s string) Ordering {
	s = strings.TrimSpace(s)
	desc := strings.HasPrefix(s, "-")
	switch f := SortField(strings.TrimPrefix(s, "-")); f {
	case SortByDate, SortByAmount, SortByCreatedAt:
		return Ordering{Field: f, Desc: desc}
	}
	return DefaultOrdering
}

func (o Ordering) String() string {
	if o.Desc {
		return "-" + string(o.Field)
	}
	return string(o.Field)
}

// ExpenseFilter is the resolved, storage-agnostic form of a listing query.
// Nil bounds and empty strings mean "no constraint". Date bounds are inclusive
// calendar dates; amount bounds are inclusive.
type ExpenseFilter struct {
	DateFrom  *time.Time
	DateTo    *time.Time
	Category  Category
	MinAmount *decimal.Decimal
	MaxAmount *decimal.Decimal
	Search    string
	Ordering  Ordering
}

// Matches reports whether e satisfies every predicate of f. Ownership is not
// part of the filter; callers narrow by owner first.
func (f ExpenseFilter) Matches(e *Expense) bool {
	if f.DateFrom != nil && e.Date.Before(*f.DateFrom) {
		return false
	}
	if f.DateTo != nil && e.Date.After(*f.DateTo) {
		return false
	}
	if f.Category != "" && e.Category != f.Category {
		return false
	}
	if f.MinAmount != nil && e.Amount.LessThan(*f.MinAmount) {
		return false
	}
	if f.MaxAmount != nil && e.Amount.GreaterThan(*f.MaxAmount) {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(e.Description), needle) &&
			!strings.Contains(strings.ToLower(string(e.Category)), needle) {
			return false
		}
	}
	return true
}
