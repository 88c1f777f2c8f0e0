package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/expensetracker/expense-api/internal/api/metrics"
	"github.com/expensetracker/expense-api/internal/core/domain"
	"github.com/expensetracker/expense-api/internal/core/ports"
)

type ExpenseHandler struct {
	service    ports.ExpenseService
	categories domain.CategorySet
}

func NewExpenseHandler(service ports.ExpenseService, categories domain.CategorySet) *ExpenseHandler {
	return &ExpenseHandler{service: service, categories: categories}
}

// List returns the caller's expenses.
//
// @Summary      List expenses
// @Tags         expenses
// @Produce      json
// @Security     BearerAuth
// @Param        filter      query  string  false  "past_week, past_month, last_3_months or custom"
// @Param        start_date  query  string  false  "YYYY-MM-DD, with filter=custom"
// @Param        end_date    query  string  false  "YYYY-MM-DD, with filter=custom"
// @Param        category    query  string  false  "Category code"
// @Param        min_amount  query  string  false  "Inclusive lower bound"
// @Param        max_amount  query  string  false  "Inclusive upper bound"
// @Param        search      query  string  false  "Matches description or category"
// @Param        ordering    query  string  false  "date, amount or created_at; prefix with - for descending"
// @Success      200  {array}   expenseResponse
// @Failure      400  {object}  ErrorBody
// @Failure      401  {object}  ErrorBody
// @Router       /expenses [get]
func (h *ExpenseHandler) List(c echo.Context) error {
	who, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	expenses, err := h.service.List(c.Request().Context(), who, listParams(c))
	if err != nil {
		return err
	}

	out := make([]expenseResponse, 0, len(expenses))
	for _, e := range expenses {
		out = append(out, toExpenseResponse(e))
	}
	return c.JSON(http.StatusOK, out)
}

// Summary aggregates the caller's filtered expenses.
//
// @Summary      Summarize expenses
// @Tags         expenses
// @Produce      json
// @Security     BearerAuth
// @Param        filter      query  string  false  "past_week, past_month, last_3_months or custom"
// @Param        start_date  query  string  false  "YYYY-MM-DD, with filter=custom"
// @Param        end_date    query  string  false  "YYYY-MM-DD, with filter=custom"
// @Param        category    query  string  false  "Category code"
// @Param        search      query  string  false  "Matches description or category"
// @Success      200  {object}  summaryResponse
// @Failure      400  {object}  ErrorBody
// @Failure      401  {object}  ErrorBody
// @Router       /expenses/summary [get]
func (h *ExpenseHandler) Summary(c echo.Context) error {
	who, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	summary, err := h.service.Summary(c.Request().Context(), who, listParams(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toSummaryResponse(summary, h.categories))
}

// Get returns one of the caller's expenses.
//
// @Summary      Get expense
// @Tags         expenses
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Expense ID"
// @Success      200  {object}  expenseResponse
// @Failure      401  {object}  ErrorBody
// @Failure      404  {object}  ErrorBody
// @Router       /expenses/{id} [get]
func (h *ExpenseHandler) Get(c echo.Context) error {
	who, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	e, err := h.service.Get(c.Request().Context(), who, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toExpenseResponse(e))
}

// Create records a new expense for the caller.
//
// @Summary      Create expense
// @Tags         expenses
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      expenseRequest  true  "Expense"
// @Success      201   {object}  expenseResponse
// @Failure      400   {object}  ErrorBody
// @Failure      401   {object}  ErrorBody
// @Router       /expenses [post]
func (h *ExpenseHandler) Create(c echo.Context) error {
	who, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	in, err := h.bind(c)
	if err != nil {
		return err
	}

	e, err := h.service.Create(c.Request().Context(), who, in)
	if err != nil {
		return err
	}

	metrics.ExpensesCreatedTotal.WithLabelValues(string(e.Category)).Inc()
	return c.JSON(http.StatusCreated, toExpenseResponse(e))
}

// Update replaces (PUT) or patches (PATCH) one of the caller's expenses.
//
// @Summary      Update expense
// @Tags         expenses
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string          true  "Expense ID"
// @Param        body  body      expenseRequest  true  "Expense"
// @Success      200   {object}  expenseResponse
// @Failure      400   {object}  ErrorBody
// @Failure      401   {object}  ErrorBody
// @Failure      404   {object}  ErrorBody
// @Router       /expenses/{id} [put]
// @Router       /expenses/{id} [patch]
func (h *ExpenseHandler) Update(c echo.Context) error {
	who, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	in, err := h.bind(c)
	if err != nil {
		return err
	}

	partial := c.Request().Method == http.MethodPatch
	e, err := h.service.Update(c.Request().Context(), who, c.Param("id"), in, partial)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toExpenseResponse(e))
}

// Delete removes one of the caller's expenses.
//
// @Summary      Delete expense
// @Tags         expenses
// @Security     BearerAuth
// @Param        id   path  string  true  "Expense ID"
// @Success      204
// @Failure      401  {object}  ErrorBody
// @Failure      404  {object}  ErrorBody
// @Router       /expenses/{id} [delete]
func (h *ExpenseHandler) Delete(c echo.Context) error {
	who, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	if err := h.service.Delete(c.Request().Context(), who, c.Param("id")); err != nil {
		return err
	}

	metrics.ExpensesDeletedTotal.Inc()
	return c.NoContent(http.StatusNoContent)
}

func (h *ExpenseHandler) bind(c echo.Context) (ports.ExpenseInput, error) {
	var req expenseRequest
	if err := c.Bind(&req); err != nil {
		return ports.ExpenseInput{}, errInvalidBody()
	}
	if err := c.Validate(&req); err != nil {
		return ports.ExpenseInput{}, err
	}
	return toExpenseInput(req)
}
