package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/expensetracker/expense-api/internal/core/domain"
	"github.com/expensetracker/expense-api/internal/core/ports"
)

const (
	tokenIssuer = "expense-api"

	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"

	defaultAccessTTL  = 15 * time.Minute
	defaultRefreshTTL = 24 * time.Hour
)

// Claims is the JWT payload of both access and refresh tokens.
type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
	Type     string `json:"token_type"`
}

// TokenIssuer signs and parses HS256 tokens.
type TokenIssuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewTokenIssuer(secret string, accessTTL, refreshTTL time.Duration) *TokenIssuer {
	if accessTTL <= 0 {
		accessTTL = defaultAccessTTL
	}
	if refreshTTL <= 0 {
		refreshTTL = defaultRefreshTTL
	}
	return &TokenIssuer{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

func (t *TokenIssuer) RefreshTTL() time.Duration { return t.refreshTTL }

// IssuePair returns a fresh access/refresh pair for user plus the refresh token ID.
func (t *TokenIssuer) IssuePair(userID, username string) (*ports.TokenPair, string, error) {
	now := t.now()

	access, accessExp, err := t.sign(userID, username, TokenTypeAccess, uuid.NewString(), now, t.accessTTL)
	if err != nil {
		return nil, "", err
	}

	refreshID := uuid.NewString()
	refresh, refreshExp, err := t.sign(userID, username, TokenTypeRefresh, refreshID, now, t.refreshTTL)
	if err != nil {
		return nil, "", err
	}

	return &ports.TokenPair{
		Access:           access,
		Refresh:          refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, refreshID, nil
}

func (t *TokenIssuer) sign(userID, username, typ, id string, now time.Time, ttl time.Duration) (string, time.Time, error) {
	exp := now.Add(ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   userID,
			ID:        id,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Username: username,
		Type:     typ,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Parse validates raw and returns its claims. When wantType is non-empty the
// token must be of that type. Every failure maps to domain.ErrInvalidToken.
func (t *TokenIssuer) Parse(raw, wantType string) (*Claims, error) {
	claims := &Claims{}
	tkn, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil || !tkn.Valid {
		return nil, errors.Join(domain.ErrInvalidToken, err)
	}
	if claims.Subject == "" || claims.ID == "" {
		return nil, domain.ErrInvalidToken
	}
	if wantType != "" && claims.Type != wantType {
		return nil, domain.ErrInvalidToken
	}
	return claims, nil
}
