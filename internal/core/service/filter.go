package service

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/expensetracker/expense-api/internal/core/domain"
	"github.com/expensetracker/expense-api/internal/core/ports"
)

// Relative date windows accepted by the "filter" query parameter.
const (
	FilterPastWeek    = "past_week"
	FilterPastMonth   = "past_month"
	FilterLast3Months = "last_3_months"
	FilterCustom      = "custom"
)

var relativeWindows = map[string]int{
	FilterPastWeek:    7,
	FilterPastMonth:   30,
	FilterLast3Months: 90,
}

// ResolveFilter turns raw listing parameters into a domain.ExpenseFilter.
// today is the caller's current calendar date. Unknown "filter" and
// "ordering" values are ignored; malformed custom dates, categories and amount
// bounds are rejected with a *domain.ValidationError.
func ResolveFilter(p ports.ListExpensesParams, today time.Time, categories domain.CategorySet) (domain.ExpenseFilter, error) {
	f := domain.ExpenseFilter{Ordering: domain.ParseOrdering(p.Ordering)}
	verr := domain.NewValidationError()
	today = domain.DateOf(today)

	kind := strings.TrimSpace(p.Filter)
	if days, ok := relativeWindows[kind]; ok {
		from := today.AddDate(0, 0, -days)
		f.DateFrom = &from
	} else if kind == FilterCustom {
		from, to := resolveCustomRange(p.StartDate, p.EndDate, verr)
		f.DateFrom, f.DateTo = from, to
	}

	if c := strings.TrimSpace(p.Category); c != "" {
		if !categories.Contains(domain.Category(c)) {
			verr.Add("category", domain.CategoryChoiceMessage(categories))
		} else {
			f.Category = domain.Category(c)
		}
	}

	f.MinAmount = parseAmountBound("min_amount", p.MinAmount, verr)
	f.MaxAmount = parseAmountBound("max_amount", p.MaxAmount, verr)
	f.Search = strings.TrimSpace(p.Search)

	if err := verr.Err(); err != nil {
		return domain.ExpenseFilter{}, err
	}
	return f, nil
}

func resolveCustomRange(rawStart, rawEnd string, verr *domain.ValidationError) (*time.Time, *time.Time) {
	start := parseBoundDate("start_date", rawStart, verr)
	end := parseBoundDate("end_date", rawEnd, verr)
	if start == nil || end == nil {
		return nil, nil
	}
	if start.After(*end) {
		verr.Add("start_date", "start_date must be on or before end_date.")
		return nil, nil
	}
	return start, end
}

func parseBoundDate(field, raw string, verr *domain.ValidationError) *time.Time {
	if strings.TrimSpace(raw) == "" {
		verr.Add(field, "This parameter is required when filter=custom.")
		return nil
	}
	d, err := domain.ParseDate(raw)
	if err != nil {
		verr.Add(field, "Date has wrong format. Use YYYY-MM-DD.")
		return nil
	}
	return &d
}

func parseAmountBound(field, raw string, verr *domain.ValidationError) *decimal.Decimal {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		verr.Add(field, "Enter a number.")
		return nil
	}
	return &d
}
