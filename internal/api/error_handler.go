package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/expensetracker/expense-api/internal/api/handler"
	"github.com/expensetracker/expense-api/internal/core/domain"
)

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that maps domain errors
// to status codes and renders handler.ErrorBody. Unexpected errors are logged
// with their cause and reported as a generic 500.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, body := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, body)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, handler.ErrorBody) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return http.StatusBadRequest, handler.ErrorBody{Error: "Invalid input.", Fields: verr.Fields}
	}

	// Echo's own errors (bind failures, 404 from router, middleware rejections).
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, handler.ErrorBody{Error: fmt.Sprintf("%v", he.Message)}
	}

	switch {
	case errors.Is(err, domain.ErrExpenseNotFound):
		return http.StatusNotFound, handler.ErrorBody{Error: "Not found."}
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusBadRequest, handler.ErrorBody{Error: "Wrong credentials."}
	case errors.Is(err, domain.ErrInvalidToken):
		return http.StatusUnauthorized, handler.ErrorBody{Error: "Token is invalid or expired."}
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized, handler.ErrorBody{Error: "Authentication credentials were not provided."}
	}

	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, handler.ErrorBody{Error: "A server error occurred."}
}
