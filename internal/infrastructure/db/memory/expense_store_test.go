package memory

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/expensetracker/expense-api/internal/core/domain"
)

func day(s string) time.Time {
	d, err := domain.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func seed(t *testing.T, s *ExpenseStore, owner, amount, date string, cat domain.Category) *domain.Expense {
	t.Helper()
	e := &domain.Expense{
		UserID:    owner,
		Amount:    decimal.RequireFromString(amount),
		Date:      day(date),
		Category:  cat,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, s.Create(context.Background(), e))
	return e
}

func TestExpenseStore_OwnerScoping(t *testing.T) {
	ctx := context.Background()
	s := NewExpenseStore()
	mine := seed(t, s, "1", "10.00", "2024-05-01", domain.CategoryGroceries)
	seed(t, s, "2", "99.00", "2024-05-01", domain.CategoryGroceries)

	list, err := s.List(ctx, "1", domain.ExpenseFilter{Ordering: domain.DefaultOrdering})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, mine.ID, list[0].ID)

	_, err = s.FindByID(ctx, "2", mine.ID)
	require.ErrorIs(t, err, domain.ErrExpenseNotFound)

	require.ErrorIs(t, s.Delete(ctx, "2", mine.ID), domain.ErrExpenseNotFound)

	hijack := *mine
	hijack.UserID = "2"
	require.ErrorIs(t, s.Update(ctx, &hijack), domain.ErrExpenseNotFound)

	require.NoError(t, s.Delete(ctx, "1", mine.ID))
	_, err = s.FindByID(ctx, "1", mine.ID)
	require.ErrorIs(t, err, domain.ErrExpenseNotFound)
}

func TestExpenseStore_DefaultOrderingBreaksTiesByID(t *testing.T) {
	s := NewExpenseStore()
	a := seed(t, s, "1", "1.00", "2024-05-01", domain.CategoryOthers)
	b := seed(t, s, "1", "2.00", "2024-05-03", domain.CategoryOthers)
	c := seed(t, s, "1", "3.00", "2024-05-01", domain.CategoryOthers)

	list, err := s.List(context.Background(), "1", domain.ExpenseFilter{Ordering: domain.DefaultOrdering})
	require.NoError(t, err)
	require.Equal(t, []string{b.ID, c.ID, a.ID}, ids(list))
}

func TestExpenseStore_OrderByAmountAscending(t *testing.T) {
	s := NewExpenseStore()
	a := seed(t, s, "1", "5.00", "2024-05-01", domain.CategoryOthers)
	b := seed(t, s, "1", "1.50", "2024-05-02", domain.CategoryOthers)
	c := seed(t, s, "1", "12.00", "2024-05-03", domain.CategoryOthers)

	list, err := s.List(context.Background(), "1", domain.ExpenseFilter{Ordering: domain.ParseOrdering("amount")})
	require.NoError(t, err)
	require.Equal(t, []string{b.ID, a.ID, c.ID}, ids(list))
}

func TestExpenseStore_Summarize(t *testing.T) {
	s := NewExpenseStore()
	seed(t, s, "1", "10.25", "2024-05-01", domain.CategoryGroceries)
	seed(t, s, "1", "4.75", "2024-05-02", domain.CategoryGroceries)
	seed(t, s, "1", "100.00", "2024-05-02", domain.CategoryElectronics)
	seed(t, s, "2", "999.00", "2024-05-02", domain.CategoryElectronics)

	sum, err := s.Summarize(context.Background(), "1", domain.ExpenseFilter{})
	require.NoError(t, err)
	require.EqualValues(t, 3, sum.Count)
	require.Equal(t, "115.00", sum.Total.StringFixed(2))
	require.Len(t, sum.ByCategory, 2)
	require.Equal(t, domain.CategoryElectronics, sum.ByCategory[0].Category)
	require.Equal(t, "15.00", sum.ByCategory[1].Total.StringFixed(2))
	require.EqualValues(t, 2, sum.ByCategory[1].Count)
}

func TestSessionStore_ConsumeOnce(t *testing.T) {
	ctx := context.Background()
	s := NewSessionStore()
	require.NoError(t, s.Save(ctx, "jti", "1", time.Hour))

	live, err := s.Consume(ctx, "jti")
	require.NoError(t, err)
	require.True(t, live)

	live, err = s.Consume(ctx, "jti")
	require.NoError(t, err)
	require.False(t, live)
}

func TestSessionStore_Expiry(t *testing.T) {
	ctx := context.Background()
	s := NewSessionStore()
	now := time.Now()
	s.now = func() time.Time { return now }
	require.NoError(t, s.Save(ctx, "jti", "1", time.Minute))

	now = now.Add(2 * time.Minute)
	live, err := s.Consume(ctx, "jti")
	require.NoError(t, err)
	require.False(t, live)
}

func TestUserStore_UniqueUsername(t *testing.T) {
	ctx := context.Background()
	s := NewUserStore()
	u, err := s.Create(ctx, &domain.User{Username: "alice"})
	require.NoError(t, err)
	require.NotEmpty(t, u.ID)

	_, err = s.Create(ctx, &domain.User{Username: "alice"})
	require.ErrorIs(t, err, domain.ErrUserExists)

	found, err := s.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, u.ID, found.ID)

	_, err = s.FindByUsername(ctx, "bob")
	require.ErrorIs(t, err, domain.ErrUserNotFound)
}

func ids(list []*domain.Expense) []string {
	out := make([]string, len(list))
	for i, e := range list {
		out[i] = e.ID
	}
	return out
}
