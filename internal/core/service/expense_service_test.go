package service

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"pgregory.net/rapid"

	"github.com/expensetracker/expense-api/internal/core/domain"
	"github.com/expensetracker/expense-api/internal/core/ports"
	"github.com/expensetracker/expense-api/internal/infrastructure/db/memory"
)

var (
	alice = domain.Identity{UserID: "1", Username: "alice"}
	bob   = domain.Identity{UserID: "2", Username: "bob"}
)

func newTestExpenseService(today time.Time) *ExpenseService {
	svc := NewExpenseService(memory.NewExpenseStore(), domain.Categories, time.UTC, zerolog.Nop())
	svc.now = func() time.Time { return today }
	return svc
}

func ptr[T any](v T) *T { return &v }

func input(amount, date, category string) ports.ExpenseInput {
	return ports.ExpenseInput{
		Amount:   ptr(decimal.RequireFromString(amount)),
		Date:     ptr(date),
		Category: ptr(category),
	}
}

func TestExpenseService_CreateAndGet(t *testing.T) {
	svc := newTestExpenseService(filterToday)
	in := input("12.50", "2024-05-01", "GROCERIES")
	in.Description = ptr("  Weekly shop ")

	e, err := svc.Create(context.Background(), alice, in)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if e.UserID != alice.UserID {
		t.Fatalf("owner must be the caller, got %q", e.UserID)
	}
	if e.Description != "Weekly shop" {
		t.Fatalf("unexpected description %q", e.Description)
	}
	if e.CreatedAt.IsZero() || !e.CreatedAt.Equal(e.UpdatedAt) {
		t.Fatalf("timestamps not initialised: %v %v", e.CreatedAt, e.UpdatedAt)
	}

	got, err := svc.Get(context.Background(), alice, e.ID)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if got.Amount.StringFixed(2) != "12.50" {
		t.Fatalf("unexpected amount %s", got.Amount)
	}
}

func TestExpenseService_CreateValidation(t *testing.T) {
	svc := newTestExpenseService(filterToday)

	tests := []struct {
		name  string
		in    ports.ExpenseInput
		field string
	}{
		{"zero amount", input("0", "2024-05-01", "GROCERIES"), "amount"},
		{"negative amount", input("-3", "2024-05-01", "GROCERIES"), "amount"},
		{"three decimals", input("1.005", "2024-05-01", "GROCERIES"), "amount"},
		{"too many digits", input("123456789.00", "2024-05-01", "GROCERIES"), "amount"},
		{"bad category", input("5", "2024-05-01", "TRAVEL"), "category"},
		{"bad date", input("5", "May 1st", "GROCERIES"), "date"},
		{"missing fields", ports.ExpenseInput{}, "amount"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), alice, tt.in)
			if len(fieldErrors(t, err)[tt.field]) == 0 {
				t.Fatalf("expected error on %s, got %v", tt.field, err)
			}
		})
	}
}

func TestExpenseService_RequiresIdentity(t *testing.T) {
	svc := newTestExpenseService(filterToday)
	if _, err := svc.List(context.Background(), domain.Identity{}, ports.ListExpensesParams{}); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestExpenseService_OwnershipIsolation(t *testing.T) {
	ctx := context.Background()
	svc := newTestExpenseService(filterToday)

	mine, err := svc.Create(ctx, alice, input("10", "2024-05-01", "LEISURE"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.Get(ctx, bob, mine.ID); !errors.Is(err, domain.ErrExpenseNotFound) {
		t.Fatalf("foreign Get must be not found, got %v", err)
	}
	if _, err := svc.Update(ctx, bob, mine.ID, input("99", "2024-05-01", "LEISURE"), false); !errors.Is(err, domain.ErrExpenseNotFound) {
		t.Fatalf("foreign Update must be not found, got %v", err)
	}
	if err := svc.Delete(ctx, bob, mine.ID); !errors.Is(err, domain.ErrExpenseNotFound) {
		t.Fatalf("foreign Delete must be not found, got %v", err)
	}
	if _, err := svc.Get(ctx, alice, "999"); !errors.Is(err, domain.ErrExpenseNotFound) {
		t.Fatalf("missing id must be not found, got %v", err)
	}

	list, err := svc.List(ctx, bob, ports.ListExpensesParams{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("bob must not see alice's expenses, got %d", len(list))
	}

	got, err := svc.Get(ctx, alice, mine.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.Amount.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("foreign update must not change the expense, got %s", got.Amount)
	}
}

func TestExpenseService_UpdatePutAndPatch(t *testing.T) {
	ctx := context.Background()
	svc := newTestExpenseService(filterToday)

	e, err := svc.Create(ctx, alice, input("10", "2024-05-01", "LEISURE"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	createdAt := e.CreatedAt

	_, err = svc.Update(ctx, alice, e.ID, ports.ExpenseInput{Amount: ptr(decimal.NewFromInt(5))}, false)
	fields := fieldErrors(t, err)
	if len(fields["date"]) == 0 || len(fields["category"]) == 0 {
		t.Fatalf("PUT must require date and category, got %v", fields)
	}

	patched, err := svc.Update(ctx, alice, e.ID, ports.ExpenseInput{Amount: ptr(decimal.NewFromInt(5))}, true)
	if err != nil {
		t.Fatalf("patch: %v", err)
	}
	if !patched.Amount.Equal(decimal.NewFromInt(5)) || patched.Category != domain.CategoryLeisure {
		t.Fatalf("unexpected patched expense %+v", patched)
	}
	if patched.UserID != alice.UserID || !patched.CreatedAt.Equal(createdAt) {
		t.Fatalf("owner and created_at must not change")
	}
	if patched.UpdatedAt.Before(createdAt) {
		t.Fatalf("updated_at must move forward")
	}

	_, err = svc.Update(ctx, alice, e.ID, ports.ExpenseInput{Amount: ptr(decimal.NewFromInt(-1))}, true)
	if len(fieldErrors(t, err)["amount"]) == 0 {
		t.Fatalf("patch must validate the merged expense")
	}
}

func TestExpenseService_ListDefaultOrdering(t *testing.T) {
	ctx := context.Background()
	svc := newTestExpenseService(filterToday)
	for _, d := range []string{"2024-05-01", "2024-05-03", "2024-05-02"} {
		if _, err := svc.Create(ctx, alice, input("1", d, "OTHERS")); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	list, err := svc.List(ctx, alice, ports.ListExpensesParams{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var dates []string
	for _, e := range list {
		dates = append(dates, e.Date.Format(domain.DateLayout))
	}
	want := []string{"2024-05-03", "2024-05-02", "2024-05-01"}
	for i := range want {
		if dates[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, dates)
		}
	}
}

func TestExpenseService_SummaryIsOwnerScoped(t *testing.T) {
	ctx := context.Background()
	svc := newTestExpenseService(filterToday)
	for _, in := range []ports.ExpenseInput{
		input("10.10", "2024-06-10", "GROCERIES"),
		input("4.90", "2024-06-11", "GROCERIES"),
		input("30", "2024-01-01", "HEALTH"),
	} {
		if _, err := svc.Create(ctx, alice, in); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	if _, err := svc.Create(ctx, bob, input("500", "2024-06-10", "GROCERIES")); err != nil {
		t.Fatalf("create: %v", err)
	}

	sum, err := svc.Summary(ctx, alice, ports.ListExpensesParams{Filter: FilterPastWeek})
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if sum.Count != 2 || sum.Total.StringFixed(2) != "15.00" {
		t.Fatalf("unexpected summary %+v", sum)
	}
}

func TestExpenseService_SearchMatchesDescriptionOrCategory(t *testing.T) {
	ctx := context.Background()
	svc := newTestExpenseService(filterToday)
	coffee := input("3", "2024-05-01", "LEISURE")
	coffee.Description = ptr("Coffee with Sam")
	if _, err := svc.Create(ctx, alice, coffee); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Create(ctx, alice, input("80", "2024-05-02", "HEALTH")); err != nil {
		t.Fatalf("create: %v", err)
	}

	for search, want := range map[string]int{"coffee": 1, "health": 1, "SAM": 1, "e": 2, "zzz": 0} {
		list, err := svc.List(ctx, alice, ports.ListExpensesParams{Search: search})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(list) != want {
			t.Errorf("search %q: expected %d results, got %d", search, want, len(list))
		}
	}
}

// Every positive amount with at most two decimals below 10^8 is accepted;
// adding a third significant decimal is always rejected.
func TestExpenseService_AmountPrecisionProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		svc := newTestExpenseService(filterToday)
		cents := rapid.Int64Range(1, 9_999_999_999).Draw(t, "cents")
		amount := decimal.New(cents, -2)

		if _, err := svc.Create(context.Background(), alice, ports.ExpenseInput{
			Amount: &amount, Date: ptr("2024-05-01"), Category: ptr("OTHERS"),
		}); err != nil {
			t.Fatalf("amount %s should be accepted: %v", amount, err)
		}

		extra := rapid.Int64Range(1, 9).Draw(t, "extra")
		tooPrecise := amount.Add(decimal.New(extra, -3))
		_, err := svc.Create(context.Background(), alice, ports.ExpenseInput{
			Amount: &tooPrecise, Date: ptr("2024-05-01"), Category: ptr("OTHERS"),
		})
		var verr *domain.ValidationError
		if !errors.As(err, &verr) || !verr.Has("amount") {
			t.Fatalf("amount %s should be rejected, got %v", tooPrecise, err)
		}
	})
}

// Relative windows return exactly the expenses dated within N days of today.
func TestExpenseService_RelativeWindowProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ctx := context.Background()
		svc := newTestExpenseService(filterToday)
		offsets := rapid.SliceOfN(rapid.IntRange(0, 120), 1, 20).Draw(t, "offsets")
		filter := rapid.SampledFrom([]string{FilterPastWeek, FilterPastMonth, FilterLast3Months}).Draw(t, "filter")

		want := 0
		for _, off := range offsets {
			d := filterToday.AddDate(0, 0, -off).Format(domain.DateLayout)
			if _, err := svc.Create(ctx, alice, input("1", d, "OTHERS")); err != nil {
				t.Fatalf("create: %v", err)
			}
			if off <= relativeWindows[filter] {
				want++
			}
		}

		list, err := svc.List(ctx, alice, ports.ListExpensesParams{Filter: filter})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(list) != want {
			t.Fatalf("%s: expected %d expenses, got %d", filter, want, len(list))
		}
	})
}

// No sequence of creates by several users lets one user see another's data.
func TestExpenseService_IsolationProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ctx := context.Background()
		svc := newTestExpenseService(filterToday)
		owners := rapid.SliceOfN(rapid.IntRange(1, 3), 1, 30).Draw(t, "owners")

		created := map[string]int{}
		ids := map[string]string{}
		for _, o := range owners {
			who := domain.Identity{UserID: strconv.Itoa(o)}
			e, err := svc.Create(ctx, who, input("2", "2024-05-01", "OTHERS"))
			if err != nil {
				t.Fatalf("create: %v", err)
			}
			created[who.UserID]++
			ids[e.ID] = who.UserID
		}

		for u := 1; u <= 3; u++ {
			who := domain.Identity{UserID: strconv.Itoa(u)}
			list, err := svc.List(ctx, who, ports.ListExpensesParams{})
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(list) != created[who.UserID] {
				t.Fatalf("user %s: expected %d expenses, got %d", who.UserID, created[who.UserID], len(list))
			}
			for id, owner := range ids {
				_, err := svc.Get(ctx, who, id)
				if owner == who.UserID && err != nil {
					t.Fatalf("owner lookup failed: %v", err)
				}
				if owner != who.UserID && !errors.Is(err, domain.ErrExpenseNotFound) {
					t.Fatalf("user %s reached expense %s of %s", who.UserID, id, owner)
				}
			}
		}
	})
}

func TestExpenseService_TimestampsFollowServiceClock(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2024, 6, 15, 8, 30, 0, 0, time.FixedZone("CEST", 2*3600))
	svc := newTestExpenseService(clock)
	svc.now = func() time.Time { return clock }

	e, err := svc.Create(ctx, alice, input("10", "2024-06-15", "OTHERS"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !e.CreatedAt.Equal(clock) || !e.UpdatedAt.Equal(clock) || e.CreatedAt.Location() != time.UTC {
		t.Fatalf("expected UTC timestamps at %v, got %v / %v", clock, e.CreatedAt, e.UpdatedAt)
	}

	clock = clock.Add(time.Hour)
	updated, err := svc.Update(ctx, alice, e.ID, ports.ExpenseInput{Description: ptr("later")}, true)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !updated.UpdatedAt.Equal(clock) {
		t.Fatalf("updated_at = %v, want %v", updated.UpdatedAt, clock)
	}
	if !updated.CreatedAt.Equal(clock.Add(-time.Hour)) {
		t.Fatalf("created_at changed to %v", updated.CreatedAt)
	}
}
