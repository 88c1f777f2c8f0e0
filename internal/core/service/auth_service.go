package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/expensetracker/expense-api/internal/core/domain"
	"github.com/expensetracker/expense-api/internal/core/ports"
	"github.com/expensetracker/expense-api/pkg/logger"
)

// AuthService implements registration, login and token lifecycle.
type AuthService struct {
	users    ports.UserRepository
	sessions ports.SessionStore
	tokens   *TokenIssuer
	log      zerolog.Logger
	cost     int

	// dummyHash is compared against when the username is unknown so that a
	// failed login costs the same either way.
	dummyHash []byte
}

func NewAuthService(users ports.UserRepository, sessions ports.SessionStore, tokens *TokenIssuer, log zerolog.Logger) *AuthService {
	return newAuthService(users, sessions, tokens, log, bcrypt.DefaultCost)
}

func newAuthService(users ports.UserRepository, sessions ports.SessionStore, tokens *TokenIssuer, log zerolog.Logger, cost int) *AuthService {
	dummy, err := bcrypt.GenerateFromPassword([]byte("expense-api/dummy-password"), cost)
	if err != nil {
		panic(fmt.Sprintf("auth: generate dummy hash: %v", err))
	}
	return &AuthService{
		users:     users,
		sessions:  sessions,
		tokens:    tokens,
		log:       log,
		cost:      cost,
		dummyHash: dummy,
	}
}

func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)

	if err := validateRegistration(in); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user, err := s.users.Create(ctx, &domain.User{
		Username:     in.Username,
		Email:        in.Email,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			return nil, domain.FieldValidationError("username", "A user with that username already exists.")
		}
		return nil, fmt.Errorf("register: %w", err)
	}

	s.log.Info().Str("user", logger.HashID(user.ID)).Msg("user registered")
	return user, nil
}

// registrationForm mirrors ports.RegisterInput with the rules the validator
// enforces. Errors are keyed by the json tag.
type registrationForm struct {
	Username  string `json:"username"   validate:"required"`
	Password  string `json:"password"   validate:"required"`
	Password2 string `json:"password2"  validate:"required"`
	Email     string `json:"email"      validate:"required,email"`
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name"  validate:"required"`
}

var formValidator = func() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		return name
	})
	return v
}()

func validateRegistration(in ports.RegisterInput) error {
	verr := domain.NewValidationError()

	err := formValidator.Struct(registrationForm{
		Username:  in.Username,
		Password:  in.Password,
		Password2: in.PasswordConfirmation,
		Email:     in.Email,
		FirstName: in.FirstName,
		LastName:  in.LastName,
	})
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		for _, fe := range fieldErrs {
			switch fe.Tag() {
			case "email":
				verr.Add(fe.Field(), "Enter a valid email address.")
			default:
				verr.Add(fe.Field(), domain.FieldRequired)
			}
		}
	} else if err != nil {
		return fmt.Errorf("validate registration: %w", err)
	}

	if in.Password != "" {
		for _, problem := range checkPasswordStrength(in.Password, passwordAttributes{
			Username:  in.Username,
			Email:     in.Email,
			FirstName: in.FirstName,
			LastName:  in.LastName,
		}) {
			verr.Add("password", problem)
		}
		if in.PasswordConfirmation != "" && in.Password != in.PasswordConfirmation {
			verr.Add("password", "Password fields didn't match.")
		}
	}

	return verr.Err()
}

// Login verifies credentials and issues a token pair. Unknown usernames and
// wrong passwords both yield domain.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, username, password string) (*ports.TokenPair, *domain.User, error) {
	username = strings.TrimSpace(username)
	verr := domain.NewValidationError()
	if username == "" {
		verr.Add("username", domain.FieldRequired)
	}
	if password == "" {
		verr.Add("password", domain.FieldRequired)
	}
	if err := verr.Err(); err != nil {
		return nil, nil, err
	}

	user, err := s.users.FindByUsername(ctx, username)
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		return nil, nil, domain.ErrInvalidCredentials
	case err != nil:
		return nil, nil, fmt.Errorf("login: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, nil, domain.ErrInvalidCredentials
	}

	pair, err := s.issue(ctx, user.ID, user.Username)
	if err != nil {
		return nil, nil, fmt.Errorf("login: %w", err)
	}

	s.log.Info().Str("user", logger.HashID(user.ID)).Msg("user logged in")
	return pair, user, nil
}

// Refresh rotates a refresh token: the presented token is consumed and a new
// pair is issued. A token can be used at most once.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*ports.TokenPair, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return nil, domain.FieldValidationError("refresh", domain.FieldRequired)
	}

	claims, err := s.tokens.Parse(refreshToken, TokenTypeRefresh)
	if err != nil {
		return nil, err
	}

	live, err := s.sessions.Consume(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("refresh: consume session: %w", err)
	}
	if !live {
		s.log.Warn().Str("user", logger.HashID(claims.Subject)).Msg("refresh token reuse or revoked token")
		return nil, domain.ErrInvalidToken
	}

	pair, err := s.issue(ctx, claims.Subject, claims.Username)
	if err != nil {
		return nil, fmt.Errorf("refresh: %w", err)
	}
	return pair, nil
}

// Verify reports whether token is a correctly signed, unexpired token of either type.
func (s *AuthService) Verify(_ context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return domain.FieldValidationError("token", domain.FieldRequired)
	}
	_, err := s.tokens.Parse(token, "")
	return err
}

// Logout revokes a refresh token. Revoking an unknown token is not an error.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if strings.TrimSpace(refreshToken) == "" {
		return domain.FieldValidationError("refresh", domain.FieldRequired)
	}
	claims, err := s.tokens.Parse(refreshToken, TokenTypeRefresh)
	if err != nil {
		return err
	}
	if err := s.sessions.Revoke(ctx, claims.ID); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// Authenticate resolves an access token into the caller identity.
func (s *AuthService) Authenticate(_ context.Context, accessToken string) (*domain.Identity, error) {
	claims, err := s.tokens.Parse(accessToken, TokenTypeAccess)
	if err != nil {
		return nil, err
	}
	return &domain.Identity{UserID: claims.Subject, Username: claims.Username}, nil
}

func (s *AuthService) issue(ctx context.Context, userID, username string) (*ports.TokenPair, error) {
	pair, refreshID, err := s.tokens.IssuePair(userID, username)
	if err != nil {
		return nil, fmt.Errorf("issue tokens: %w", err)
	}
	if err := s.sessions.Save(ctx, refreshID, userID, s.tokens.RefreshTTL()); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return pair, nil
}
