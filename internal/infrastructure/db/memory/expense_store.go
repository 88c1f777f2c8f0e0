// Package memory holds process-local implementations of the storage ports.
// They back STORAGE_DRIVER=memory and SESSION_STORE=memory and the tests of
// the layers above.
package memory

import (
	"context"
	"sort"
	"strconv"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/expensetracker/expense-api/internal/core/domain"
)

// ExpenseStore keeps expenses in a map keyed by ID.
type ExpenseStore struct {
	mu     sync.RWMutex
	nextID int64
	byID   map[string]domain.Expense
}

func NewExpenseStore() *ExpenseStore {
	return &ExpenseStore{byID: make(map[string]domain.Expense)}
}

func (s *ExpenseStore) Create(_ context.Context, e *domain.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	e.ID = strconv.FormatInt(s.nextID, 10)
	s.byID[e.ID] = *e
	return nil
}

func (s *ExpenseStore) FindByID(_ context.Context, ownerID, id string) (*domain.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.byID[id]
	if !ok || e.UserID != ownerID {
		return nil, domain.ErrExpenseNotFound
	}
	return &e, nil
}

func (s *ExpenseStore) List(_ context.Context, ownerID string, filter domain.ExpenseFilter) ([]*domain.Expense, error) {
	out := s.matching(ownerID, filter)
	sortExpenses(out, filter.Ordering)
	return out, nil
}

func (s *ExpenseStore) Update(_ context.Context, e *domain.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.byID[e.ID]
	if !ok || cur.UserID != e.UserID {
		return domain.ErrExpenseNotFound
	}
	next := *e
	next.CreatedAt = cur.CreatedAt
	s.byID[e.ID] = next
	return nil
}

func (s *ExpenseStore) Delete(_ context.Context, ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.byID[id]
	if !ok || e.UserID != ownerID {
		return domain.ErrExpenseNotFound
	}
	delete(s.byID, id)
	return nil
}

func (s *ExpenseStore) Summarize(_ context.Context, ownerID string, filter domain.ExpenseFilter) (*domain.ExpenseSummary, error) {
	sum := &domain.ExpenseSummary{Total: decimal.Zero}
	totals := make(map[domain.Category]*domain.CategoryTotal)
	for _, e := range s.matching(ownerID, filter) {
		sum.Count++
		sum.Total = sum.Total.Add(e.Amount)
		ct, ok := totals[e.Category]
		if !ok {
			ct = &domain.CategoryTotal{Category: e.Category, Total: decimal.Zero}
			totals[e.Category] = ct
		}
		ct.Count++
		ct.Total = ct.Total.Add(e.Amount)
	}
	for _, ct := range totals {
		sum.ByCategory = append(sum.ByCategory, *ct)
	}
	sort.Slice(sum.ByCategory, func(i, j int) bool {
		return sum.ByCategory[i].Category < sum.ByCategory[j].Category
	})
	return sum, nil
}

func (s *ExpenseStore) matching(ownerID string, filter domain.ExpenseFilter) []*domain.Expense {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.Expense
	for _, e := range s.byID {
		if e.UserID != ownerID || !filter.Matches(&e) {
			continue
		}
		cp := e
		out = append(out, &cp)
	}
	return out
}

func sortExpenses(list []*domain.Expense, o domain.Ordering) {
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		var c int
		switch o.Field {
		case domain.SortByAmount:
			c = a.Amount.Cmp(b.Amount)
		case domain.SortByCreatedAt:
			c = a.CreatedAt.Compare(b.CreatedAt)
		default:
			c = a.Date.Compare(b.Date)
		}
		if c != 0 {
			if o.Desc {
				return c > 0
			}
			return c < 0
		}
		return idLess(b.ID, a.ID)
	})
}

// idLess orders numeric IDs numerically.
func idLess(a, b string) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}
