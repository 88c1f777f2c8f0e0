package api

import (
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/expensetracker/expense-api/docs"
	"github.com/expensetracker/expense-api/internal/api/handler"
	"github.com/expensetracker/expense-api/internal/api/middleware"
	"github.com/expensetracker/expense-api/internal/core/domain"
	"github.com/expensetracker/expense-api/internal/core/ports"
)

const basePath = "/api/v1"

// Dependencies are the collaborators the HTTP layer needs.
type Dependencies struct {
	Logger         zerolog.Logger
	AuthService    ports.AuthService
	TokenVerifier  ports.TokenVerifier
	ExpenseService ports.ExpenseService
	Categories     domain.CategorySet
	// Checks are pinged by the readiness probe.
	Checks []handler.DependencyCheck
	// LoginRateLimit and LoginRateBurst throttle the credential endpoints per
	// client IP. A zero rate disables throttling.
	LoginRateLimit float64
	LoginRateBurst int
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.Metrics())
	e.Use(middleware.RequestLogger(deps.Logger))

	authHandler := handler.NewAuthHandler(deps.AuthService)
	expenseHandler := handler.NewExpenseHandler(deps.ExpenseService, deps.Categories)

	v1 := e.Group(basePath)

	// --- Auth routes ---
	auth := v1.Group("/auth")
	credentials := []echo.MiddlewareFunc{}
	if deps.LoginRateLimit > 0 && deps.LoginRateBurst > 0 {
		credentials = append(credentials, middleware.RateLimit(deps.LoginRateLimit, deps.LoginRateBurst))
	}
	auth.POST("/register", authHandler.Register, credentials...)
	auth.POST("/login", authHandler.Login, credentials...)
	auth.POST("/token", authHandler.Login, credentials...)
	auth.POST("/token/refresh", authHandler.Refresh)
	auth.POST("/token/verify", authHandler.Verify)
	auth.POST("/logout", authHandler.Logout)

	// --- Expense routes (bearer token required) ---
	expenses := v1.Group("/expenses", middleware.Auth(deps.TokenVerifier))
	expenses.GET("", expenseHandler.List)
	expenses.POST("", expenseHandler.Create)
	expenses.GET("/summary", expenseHandler.Summary)
	expenses.GET("/:id", expenseHandler.Get)
	expenses.PUT("/:id", expenseHandler.Update)
	expenses.PATCH("/:id", expenseHandler.Update)
	expenses.DELETE("/:id", expenseHandler.Delete)

	// --- Operational routes ---
	e.GET("/health", handler.NewHealthHandler().Liveness)
	e.GET("/health/ready", handler.NewReadinessHandler(deps.Checks...).Readiness)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/docs/*", echoSwagger.WrapHandler)

	return e
}
