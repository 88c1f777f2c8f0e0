package handler

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/expensetracker/expense-api/internal/core/domain"
	"github.com/expensetracker/expense-api/internal/core/ports"
)

func toExpenseResponse(e *domain.Expense) expenseResponse {
	return expenseResponse{
		ID:          e.ID,
		User:        e.UserID,
		Amount:      e.Amount.StringFixed(domain.AmountDecimalPlaces),
		Date:        e.Date.Format(domain.DateLayout),
		Description: e.Description,
		Category:    string(e.Category),
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}

func toSummaryResponse(s *domain.ExpenseSummary, categories domain.CategorySet) summaryResponse {
	out := summaryResponse{
		Count:      s.Count,
		Total:      s.Total.StringFixed(domain.AmountDecimalPlaces),
		ByCategory: make([]categoryTotalResponse, 0, len(s.ByCategory)),
	}
	for _, ct := range s.ByCategory {
		out.ByCategory = append(out.ByCategory, categoryTotalResponse{
			Category: string(ct.Category),
			Label:    categories.Label(ct.Category),
			Count:    ct.Count,
			Total:    ct.Total.StringFixed(domain.AmountDecimalPlaces),
		})
	}
	return out
}

// toExpenseInput converts the request body. Amount may be sent as a JSON
// number or a numeric string; null counts as absent.
func toExpenseInput(req expenseRequest) (ports.ExpenseInput, error) {
	in := ports.ExpenseInput{
		Date:        req.Date,
		Description: req.Description,
		Category:    req.Category,
	}

	raw := bytes.TrimSpace(req.Amount)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return in, nil
	}

	var s string
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &s); err != nil {
			return in, domain.FieldValidationError("amount", "A valid number is required.")
		}
	} else {
		s = string(raw)
	}
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return in, domain.FieldValidationError("amount", "A valid number is required.")
	}
	in.Amount = &d
	return in, nil
}

func listParams(c echo.Context) ports.ListExpensesParams {
	return ports.ListExpensesParams{
		Filter:    c.QueryParam("filter"),
		StartDate: c.QueryParam("start_date"),
		EndDate:   c.QueryParam("end_date"),
		Category:  c.QueryParam("category"),
		MinAmount: c.QueryParam("min_amount"),
		MaxAmount: c.QueryParam("max_amount"),
		Search:    c.QueryParam("search"),
		Ordering:  c.QueryParam("ordering"),
	}
}
