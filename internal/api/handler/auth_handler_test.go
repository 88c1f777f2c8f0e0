package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/expensetracker/expense-api/internal/core/domain"
	"github.com/expensetracker/expense-api/internal/core/ports"
)

type stubAuthService struct {
	registerFn func(ctx context.Context, in ports.RegisterInput) (*domain.User, error)
	loginFn    func(ctx context.Context, username, password string) (*ports.TokenPair, *domain.User, error)
	refreshFn  func(ctx context.Context, token string) (*ports.TokenPair, error)
	verifyFn   func(ctx context.Context, token string) error
	logoutFn   func(ctx context.Context, token string) error
}

func (s *stubAuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	return s.registerFn(ctx, in)
}

func (s *stubAuthService) Login(ctx context.Context, username, password string) (*ports.TokenPair, *domain.User, error) {
	return s.loginFn(ctx, username, password)
}

func (s *stubAuthService) Refresh(ctx context.Context, token string) (*ports.TokenPair, error) {
	return s.refreshFn(ctx, token)
}

func (s *stubAuthService) Verify(ctx context.Context, token string) error {
	return s.verifyFn(ctx, token)
}

func (s *stubAuthService) Logout(ctx context.Context, token string) error {
	return s.logoutFn(ctx, token)
}

func newJSONContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

var testPair = &ports.TokenPair{
	Access:           "access-token",
	Refresh:          "refresh-token",
	AccessExpiresAt:  time.Date(2024, 6, 1, 12, 15, 0, 0, time.UTC),
	RefreshExpiresAt: time.Date(2024, 6, 2, 12, 0, 0, 0, time.UTC),
}

func TestAuthHandler_Register_Success(t *testing.T) {
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
			if in.Username != "alice" || in.PasswordConfirmation != "Tr0ub4dor&3x" || in.FirstName != "Alice" {
				t.Fatalf("unexpected input: %+v", in)
			}
			return &domain.User{ID: "7", Username: in.Username, Email: in.Email, FirstName: in.FirstName, LastName: in.LastName}, nil
		},
	}
	handler := NewAuthHandler(stub)

	c, rec := newJSONContext(http.MethodPost, "/api/v1/auth/register",
		`{"username":"alice","password":"Tr0ub4dor&3x","password2":"Tr0ub4dor&3x","email":"alice@example.com","first_name":"Alice","last_name":"Liddell"}`)
	if err := handler.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["message"] != "Registration successful." {
		t.Fatalf("unexpected message: %v", resp["message"])
	}
	user, ok := resp["user"].(map[string]any)
	if !ok {
		t.Fatalf("expected user in response")
	}
	if user["id"] != "7" || user["username"] != "alice" || user["last_name"] != "Liddell" {
		t.Fatalf("unexpected user payload: %+v", user)
	}
	if _, leaked := user["password"]; leaked {
		t.Fatalf("password must never be echoed")
	}
}

func TestAuthHandler_Register_ValidationError(t *testing.T) {
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
			return nil, domain.FieldValidationError("username", "A user with that username already exists.")
		},
	}
	handler := NewAuthHandler(stub)

	c, _ := newJSONContext(http.MethodPost, "/api/v1/auth/register",
		`{"username":"bob","password":"Tr0ub4dor&3x","password2":"Tr0ub4dor&3x","email":"bob@example.com","first_name":"Bob","last_name":"Stone"}`)
	err := handler.Register(c)

	var verr *domain.ValidationError
	if !errors.As(err, &verr) || !verr.Has("username") {
		t.Fatalf("expected username validation error, got %v", err)
	}
}

func TestAuthHandler_Register_RejectsMissingFieldsAndBadEmail(t *testing.T) {
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
			t.Fatalf("service must not be called")
			return nil, nil
		},
	}
	handler := NewAuthHandler(stub)

	c, _ := newJSONContext(http.MethodPost, "/api/v1/auth/register", `{"username":"bob","email":"bob@localhost"}`)
	err := handler.Register(c)

	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if got := verr.Fields["email"]; len(got) != 1 || got[0] != "Enter a valid email address." {
		t.Fatalf("unexpected email errors: %v", got)
	}
	for _, f := range []string{"password", "password2", "first_name", "last_name"} {
		if got := verr.Fields[f]; len(got) != 1 || got[0] != domain.FieldRequired {
			t.Errorf("expected required error on %s, got %v", f, got)
		}
	}
	if verr.Has("username") {
		t.Errorf("username was supplied")
	}
}

func TestAuthHandler_Register_TooLongField(t *testing.T) {
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
			t.Fatalf("service must not be called")
			return nil, nil
		},
	}
	handler := NewAuthHandler(stub)

	c, _ := newJSONContext(http.MethodPost, "/api/v1/auth/register",
		`{"username":"`+strings.Repeat("a", 151)+`"}`)
	err := handler.Register(c)

	var verr *domain.ValidationError
	if !errors.As(err, &verr) || !verr.Has("username") {
		t.Fatalf("expected username length error, got %v", err)
	}
}

func TestAuthHandler_Register_InvalidJSON(t *testing.T) {
	handler := NewAuthHandler(&stubAuthService{})

	c, _ := newJSONContext(http.MethodPost, "/api/v1/auth/register", `{"username":`)
	err := handler.Register(c)

	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 HTTPError, got %v", err)
	}
}

func TestAuthHandler_Login_Success(t *testing.T) {
	stub := &stubAuthService{
		loginFn: func(ctx context.Context, username, password string) (*ports.TokenPair, *domain.User, error) {
			if username != "alice" || password != "secret" {
				t.Fatalf("unexpected credentials: %s %s", username, password)
			}
			return testPair, &domain.User{ID: "7", Username: "alice"}, nil
		},
	}
	handler := NewAuthHandler(stub)

	c, rec := newJSONContext(http.MethodPost, "/api/v1/auth/login", `{"username":"alice","password":"secret"}`)
	if err := handler.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["message"] != "Login successful." || resp["access"] != "access-token" || resp["refresh"] != "refresh-token" {
		t.Fatalf("unexpected payload: %+v", resp)
	}
	if resp["access_expires_at"] != "2024-06-01T12:15:00Z" {
		t.Fatalf("unexpected access expiry: %v", resp["access_expires_at"])
	}
	if user, _ := resp["user"].(map[string]any); user["username"] != "alice" {
		t.Fatalf("unexpected user payload: %+v", resp["user"])
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	stub := &stubAuthService{
		loginFn: func(ctx context.Context, username, password string) (*ports.TokenPair, *domain.User, error) {
			return nil, nil, domain.ErrInvalidCredentials
		},
	}
	handler := NewAuthHandler(stub)

	c, rec := newJSONContext(http.MethodPost, "/api/v1/auth/login", `{"username":"alice","password":"nope"}`)
	err := handler.Login(c)

	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if rec.Body.Len() != 0 {
		t.Fatalf("handler must leave the response to the error handler")
	}
}

func TestAuthHandler_Refresh(t *testing.T) {
	stub := &stubAuthService{
		refreshFn: func(ctx context.Context, token string) (*ports.TokenPair, error) {
			if token != "old-refresh" {
				return nil, domain.ErrInvalidToken
			}
			return testPair, nil
		},
	}
	handler := NewAuthHandler(stub)

	c, rec := newJSONContext(http.MethodPost, "/api/v1/auth/token/refresh", `{"refresh":"old-refresh"}`)
	if err := handler.Refresh(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["refresh"] != "refresh-token" {
		t.Fatalf("unexpected payload: %+v", resp)
	}
	if _, ok := resp["user"]; ok {
		t.Fatalf("refresh response carries no user")
	}

	c, _ = newJSONContext(http.MethodPost, "/api/v1/auth/token/refresh", `{"refresh":"reused"}`)
	if err := handler.Refresh(c); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestAuthHandler_Verify(t *testing.T) {
	stub := &stubAuthService{
		verifyFn: func(ctx context.Context, token string) error {
			if token == "good" {
				return nil
			}
			return domain.ErrInvalidToken
		},
	}
	handler := NewAuthHandler(stub)

	c, rec := newJSONContext(http.MethodPost, "/api/v1/auth/token/verify", `{"token":"good"}`)
	if err := handler.Verify(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Token is valid.") {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}

	c, _ = newJSONContext(http.MethodPost, "/api/v1/auth/token/verify", `{"token":"bad"}`)
	if err := handler.Verify(c); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestAuthHandler_Logout(t *testing.T) {
	var revoked string
	stub := &stubAuthService{
		logoutFn: func(ctx context.Context, token string) error {
			revoked = token
			return nil
		},
	}
	handler := NewAuthHandler(stub)

	c, rec := newJSONContext(http.MethodPost, "/api/v1/auth/logout", `{"refresh":"r1"}`)
	if err := handler.Logout(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNoContent || revoked != "r1" {
		t.Fatalf("expected 204 and revocation of r1, got %d %q", rec.Code, revoked)
	}
}
