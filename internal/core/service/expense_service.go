package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/expensetracker/expense-api/internal/core/domain"
	"github.com/expensetracker/expense-api/internal/core/ports"
	"github.com/expensetracker/expense-api/pkg/logger"
)

// ExpenseService implements the owner-scoped expense use cases. Every
// operation narrows to the caller's expenses before it reads or writes.
type ExpenseService struct {
	repo       ports.ExpenseRepository
	categories domain.CategorySet
	loc        *time.Location
	now        func() time.Time
	logger     zerolog.Logger
}

// NewExpenseService returns an ExpenseService. loc decides which calendar day
// "today" is for relative date filters; nil means UTC.
func NewExpenseService(repo ports.ExpenseRepository, categories domain.CategorySet, loc *time.Location, logger zerolog.Logger) *ExpenseService {
	if loc == nil {
		loc = time.UTC
	}
	return &ExpenseService{
		repo:       repo,
		categories: categories,
		loc:        loc,
		now:        time.Now,
		logger:     logger,
	}
}

func (s *ExpenseService) today() time.Time {
	return domain.DateOf(s.now().In(s.loc))
}

func (s *ExpenseService) List(ctx context.Context, who domain.Identity, params ports.ListExpensesParams) ([]*domain.Expense, error) {
	owner, err := ownerOf(who)
	if err != nil {
		return nil, err
	}
	filter, err := ResolveFilter(params, s.today(), s.categories)
	if err != nil {
		return nil, err
	}
	expenses, err := s.repo.List(ctx, owner, filter)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return expenses, nil
}

func (s *ExpenseService) Summary(ctx context.Context, who domain.Identity, params ports.ListExpensesParams) (*domain.ExpenseSummary, error) {
	owner, err := ownerOf(who)
	if err != nil {
		return nil, err
	}
	filter, err := ResolveFilter(params, s.today(), s.categories)
	if err != nil {
		return nil, err
	}
	summary, err := s.repo.Summarize(ctx, owner, filter)
	if err != nil {
		return nil, fmt.Errorf("summarize expenses: %w", err)
	}
	return summary, nil
}

func (s *ExpenseService) Get(ctx context.Context, who domain.Identity, id string) (*domain.Expense, error) {
	owner, err := ownerOf(who)
	if err != nil {
		return nil, err
	}
	return s.resolve(ctx, owner, id)
}

// Create stores a new expense owned by the caller.
func (s *ExpenseService) Create(ctx context.Context, who domain.Identity, in ports.ExpenseInput) (*domain.Expense, error) {
	owner, err := ownerOf(who)
	if err != nil {
		return nil, err
	}

	e := &domain.Expense{UserID: owner}
	if err := s.apply(e, in, false); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	e.CreatedAt, e.UpdatedAt = now, now
	if err := s.repo.Create(ctx, e); err != nil {
		s.logger.Error().Err(err).Str("user", logger.HashID(owner)).Msg("failed to create expense")
		return nil, fmt.Errorf("create expense: %w", err)
	}

	s.logger.Info().Str("user", logger.HashID(owner)).Str("expense_id", e.ID).Msg("expense created")
	return e, nil
}

// Update applies in to an owned expense. The owner and creation time never change.
func (s *ExpenseService) Update(ctx context.Context, who domain.Identity, id string, in ports.ExpenseInput, partial bool) (*domain.Expense, error) {
	owner, err := ownerOf(who)
	if err != nil {
		return nil, err
	}

	e, err := s.resolve(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	if err := s.apply(e, in, partial); err != nil {
		return nil, err
	}

	e.UserID = owner
	e.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, e); err != nil {
		if errors.Is(err, domain.ErrExpenseNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("update expense: %w", err)
	}

	s.logger.Info().Str("user", logger.HashID(owner)).Str("expense_id", e.ID).Msg("expense updated")
	return e, nil
}

func (s *ExpenseService) Delete(ctx context.Context, who domain.Identity, id string) error {
	owner, err := ownerOf(who)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, owner, id); err != nil {
		if errors.Is(err, domain.ErrExpenseNotFound) {
			return err
		}
		return fmt.Errorf("delete expense: %w", err)
	}

	s.logger.Info().Str("user", logger.HashID(owner)).Str("expense_id", id).Msg("expense deleted")
	return nil
}

// resolve looks id up inside the owner's expenses only.
func (s *ExpenseService) resolve(ctx context.Context, owner, id string) (*domain.Expense, error) {
	if strings.TrimSpace(id) == "" {
		return nil, domain.ErrExpenseNotFound
	}
	e, err := s.repo.FindByID(ctx, owner, id)
	if err != nil {
		if errors.Is(err, domain.ErrExpenseNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("find expense: %w", err)
	}
	return e, nil
}

// apply merges in into e and validates the result. When partial is false,
// amount, date and category must be present.
func (s *ExpenseService) apply(e *domain.Expense, in ports.ExpenseInput, partial bool) error {
	verr := domain.NewValidationError()

	if !partial {
		if in.Amount == nil {
			verr.Add("amount", domain.FieldRequired)
		}
		if in.Date == nil {
			verr.Add("date", domain.FieldRequired)
		}
		if in.Category == nil {
			verr.Add("category", domain.FieldRequired)
		}
	}

	if in.Amount != nil {
		e.Amount = *in.Amount
	}
	if in.Date != nil {
		d, err := domain.ParseDate(*in.Date)
		if err != nil {
			verr.Add("date", "Date has wrong format. Use YYYY-MM-DD.")
		} else {
			e.Date = d
		}
	}
	if in.Description != nil {
		e.Description = strings.TrimSpace(*in.Description)
	}
	if in.Category != nil {
		e.Category = domain.Category(strings.TrimSpace(*in.Category))
	}

	if !verr.Empty() {
		return verr
	}
	return e.Validate(s.categories)
}

func ownerOf(who domain.Identity) (string, error) {
	if who.UserID == "" {
		return "", domain.ErrUnauthenticated
	}
	return who.UserID, nil
}
