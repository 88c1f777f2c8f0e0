package handler

import (
	"encoding/json"
	"time"
)

// ErrorBody is the JSON envelope of every error response. Fields is only set
// for validation failures.
type ErrorBody struct {
	Error  string              `json:"error"`
	Fields map[string][]string `json:"fields,omitempty"`
}

// expenseRequest is the create/update payload. Absent keys stay nil so PATCH
// can tell them apart from empty values. Any owner field is ignored.
type expenseRequest struct {
	Amount      json.RawMessage `json:"amount" swaggertype:"string" example:"12.50"`
	Date        *string         `json:"date" example:"2024-05-01"`
	Description *string         `json:"description" validate:"omitempty,max=2000"`
	Category    *string         `json:"category" example:"GROCERIES"`
}

type expenseResponse struct {
	ID          string    `json:"id"`
	User        string    `json:"user"`
	Amount      string    `json:"amount" example:"12.50"`
	Date        string    `json:"date" example:"2024-05-01"`
	Description string    `json:"description"`
	Category    string    `json:"category" example:"GROCERIES"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type categoryTotalResponse struct {
	Category string `json:"category"`
	Label    string `json:"label"`
	Count    int64  `json:"count"`
	Total    string `json:"total"`
}

type summaryResponse struct {
	Count      int64                   `json:"count"`
	Total      string                  `json:"total"`
	ByCategory []categoryTotalResponse `json:"by_category"`
}
