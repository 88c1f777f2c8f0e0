package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/expensetracker/expense-api/internal/api/metrics"
	"github.com/expensetracker/expense-api/internal/core/domain"
	"github.com/expensetracker/expense-api/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func errInvalidBody() error {
	return echo.NewHTTPError(http.StatusBadRequest, "Request body is not valid JSON.")
}

// Register creates a new user account.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Registration form"
// @Success      201   {object}  registerResponse
// @Failure      400   {object}  ErrorBody
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return errInvalidBody()
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	user, err := h.authService.Register(c.Request().Context(), ports.RegisterInput{
		Username:             req.Username,
		Password:             req.Password,
		PasswordConfirmation: req.Password2,
		Email:                req.Email,
		FirstName:            req.FirstName,
		LastName:             req.LastName,
	})
	if err != nil {
		return err
	}

	metrics.RegistrationsTotal.Inc()
	return c.JSON(http.StatusCreated, registerResponse{
		Message: "Registration successful.",
		User:    toUserResponse(user),
	})
}

// Login authenticates a user and returns an access/refresh token pair.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Credentials"
// @Success      200   {object}  loginResponse
// @Failure      400   {object}  ErrorBody
// @Failure      429   {object}  ErrorBody
// @Router       /auth/login [post]
// @Router       /auth/token [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return errInvalidBody()
	}

	pair, user, err := h.authService.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			metrics.LoginsTotal.WithLabelValues("failure").Inc()
		}
		return err
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	return c.JSON(http.StatusOK, loginResponse{
		Message:       "Login successful.",
		tokenResponse: toTokenResponse(pair),
		User:          toUserResponse(user),
	})
}

// Refresh exchanges a refresh token for a new pair. The old refresh token
// stops working.
//
// @Summary      Rotate refresh token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      refreshRequest  true  "Refresh token"
// @Success      200   {object}  tokenResponse
// @Failure      400   {object}  ErrorBody
// @Failure      401   {object}  ErrorBody
// @Router       /auth/token/refresh [post]
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshRequest
	if err := c.Bind(&req); err != nil {
		return errInvalidBody()
	}

	pair, err := h.authService.Refresh(c.Request().Context(), req.Refresh)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toTokenResponse(pair))
}

// Verify checks a token's signature and expiry.
//
// @Summary      Verify token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      verifyRequest  true  "Token"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  ErrorBody
// @Failure      401   {object}  ErrorBody
// @Router       /auth/token/verify [post]
func (h *AuthHandler) Verify(c echo.Context) error {
	var req verifyRequest
	if err := c.Bind(&req); err != nil {
		return errInvalidBody()
	}

	if err := h.authService.Verify(c.Request().Context(), req.Token); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "Token is valid."})
}

// Logout revokes a refresh token.
//
// @Summary      Logout
// @Tags         auth
// @Accept       json
// @Param        body  body  refreshRequest  true  "Refresh token"
// @Success      204
// @Failure      400   {object}  ErrorBody
// @Failure      401   {object}  ErrorBody
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshRequest
	if err := c.Bind(&req); err != nil {
		return errInvalidBody()
	}

	if err := h.authService.Logout(c.Request().Context(), req.Refresh); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
