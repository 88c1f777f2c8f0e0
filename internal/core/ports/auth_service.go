package ports

import (
	"context"
	"time"

	"github.com/expensetracker/expense-api/internal/core/domain"
)

// RegisterInput carries the registration form.
type RegisterInput struct {
	Username             string
	Password             string
	PasswordConfirmation string
	Email                string
	FirstName            string
	LastName             string
}

// TokenPair is the credential set handed out on login and refresh.
type TokenPair struct {
	Access           string
	Refresh          string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	Login(ctx context.Context, username, password string) (*TokenPair, *domain.User, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	Verify(ctx context.Context, token string) error
	Logout(ctx context.Context, refreshToken string) error
}

// TokenVerifier resolves a bearer access token into the caller's identity.
type TokenVerifier interface {
	Authenticate(ctx context.Context, accessToken string) (*domain.Identity, error)
}
