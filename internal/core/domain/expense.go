package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Category is the stored code of an expense category.
type Category string

const (
	CategoryGroceries   Category = "GROCERIES"
	CategoryLeisure     Category = "LEISURE"
	CategoryElectronics Category = "ELECTRONICS"
	CategoryUtilities   Category = "UTILITIES"
	CategoryClothing    Category = "CLOTHING"
	CategoryHealth      Category = "HEALTH"
	CategoryOthers      Category = "OTHERS"
)

// CategorySet is an ordered, read-only set of categories with display labels.
type CategorySet struct {
	order  []Category
	labels map[Category]string
}

// NewCategorySet builds a set from (code, label) pairs, keeping their order.
func NewCategorySet(pairs ...[2]string) CategorySet {
	s := CategorySet{labels: make(map[Category]string, len(pairs))}
	for _, p := range pairs {
		c := Category(p[0])
		s.order = append(s.order, c)
		s.labels[c] = p[1]
	}
	return s
}

// Categories is the fixed category enumeration, built once at start-up.
var Categories = NewCategorySet(
	[2]string{string(CategoryGroceries), "Groceries"},
	[2]string{string(CategoryLeisure), "Leisure"},
	[2]string{string(CategoryElectronics), "Electronics"},
	[2]string{string(CategoryUtilities), "Utilities"},
	[2]string{string(CategoryClothing), "Clothing"},
	[2]string{string(CategoryHealth), "Health"},
	[2]string{string(CategoryOthers), "Others"},
)

func (s CategorySet) Contains(c Category) bool {
	_, ok := s.labels[c]
	return ok
}

func (s CategorySet) Label(c Category) string {
	return s.labels[c]
}

// Codes returns the category codes in declaration order.
func (s CategorySet) Codes() []string {
	out := make([]string, len(s.order))
	for i, c := range s.order {
		out[i] = string(c)
	}
	return out
}

const (
	// DateLayout is the wire and query format of an expense date.
	DateLayout = "2006-01-02"

	AmountDecimalPlaces = 2
	AmountMaxDigits     = 10
)

var amountCeiling = decimal.New(1, AmountMaxDigits-AmountDecimalPlaces)

// Expense is a single spending record owned by exactly one user.
type Expense struct {
	ID          string
	UserID      string
	Amount      decimal.Decimal
	Date        time.Time
	Description string
	Category    Category
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Validate checks the expense invariants against the given category set.
func (e *Expense) Validate(categories CategorySet) error {
	verr := NewValidationError()
	if msg := CheckAmount(e.Amount); msg != "" {
		verr.Add("amount", msg)
	}
	if e.Date.IsZero() {
		verr.Add("date", FieldRequired)
	}
	if e.Category == "" {
		verr.Add("category", FieldRequired)
	} else if !categories.Contains(e.Category) {
		verr.Add("category", CategoryChoiceMessage(categories))
	}
	return verr.Err()
}

// CheckAmount returns a human-readable problem with amount, or "" if it is acceptable.
func CheckAmount(amount decimal.Decimal) string {
	switch {
	case !amount.IsPositive():
		return "The expense amount must be greater than zero."
	case !amount.Equal(amount.Round(AmountDecimalPlaces)):
		return fmt.Sprintf("Ensure that there are no more than %d decimal places.", AmountDecimalPlaces)
	case amount.GreaterThanOrEqual(amountCeiling):
		return fmt.Sprintf("Ensure that there are no more than %d digits in total.", AmountMaxDigits)
	}
	return ""
}

func CategoryChoiceMessage(categories CategorySet) string {
	return "Category must be one of the following: " + strings.Join(categories.Codes(), ", ") + "."
}

// ParseDate parses a YYYY-MM-DD calendar date as midnight UTC.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, strings.TrimSpace(s), time.UTC)
}

// DateOf returns the calendar date of t (in t's location) as midnight UTC.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// CategoryTotal aggregates the expenses of one category.
type CategoryTotal struct {
	Category Category
	Count    int64
	Total    decimal.Decimal
}

// ExpenseSummary aggregates a filtered set of expenses.
type ExpenseSummary struct {
	Count      int64
	Total      decimal.Decimal
	ByCategory []CategoryTotal
}
