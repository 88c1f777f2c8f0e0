package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/expensetracker/expense-api/internal/api/handler"
	"github.com/expensetracker/expense-api/internal/core/domain"
	"github.com/expensetracker/expense-api/internal/core/ports"
)

func unauthorized(c echo.Context, msg string, cause error) error {
	c.Response().Header().Set(echo.HeaderWWWAuthenticate, `Bearer realm="api"`)
	return echo.NewHTTPError(http.StatusUnauthorized, msg).SetInternal(cause)
}

// Auth resolves the Bearer access token and injects the caller identity into
// the context under handler.CtxUserID and handler.CtxUsername.
func Auth(verifier ports.TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return unauthorized(c, "Authentication credentials were not provided.", domain.ErrUnauthenticated)
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
				return unauthorized(c, "Authorization header must be 'Bearer <token>'.", domain.ErrUnauthenticated)
			}

			who, err := verifier.Authenticate(c.Request().Context(), strings.TrimSpace(parts[1]))
			if err != nil {
				return unauthorized(c, "Given token not valid for any token type.", err)
			}

			c.Set(handler.CtxUserID, who.UserID)
			c.Set(handler.CtxUsername, who.Username)

			return next(c)
		}
	}
}
