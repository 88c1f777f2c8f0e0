package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/expensetracker/expense-api/internal/core/domain"
)

// Context keys set by middleware.Auth.
const (
	CtxUserID   = "user_id"
	CtxUsername = "username"
)

// ctxIdentity returns the caller identity injected by the Auth middleware.
// A missing user id means the middleware did not run.
func ctxIdentity(c echo.Context) (domain.Identity, error) {
	userID, _ := c.Get(CtxUserID).(string)
	if userID == "" {
		return domain.Identity{}, domain.ErrUnauthenticated
	}
	username, _ := c.Get(CtxUsername).(string)
	return domain.Identity{UserID: userID, Username: username}, nil
}
