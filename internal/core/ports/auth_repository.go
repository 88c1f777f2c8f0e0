package ports

import (
	"context"

	"github.com/expensetracker/expense-api/internal/core/domain"
)

// UserRepository defines the persistence operations for user accounts.
type UserRepository interface {
	// Create stores a new user and returns it with its generated ID.
	// It returns domain.ErrUserExists when the username is taken.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	// FindByUsername returns domain.ErrUserNotFound when no user matches.
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
}
