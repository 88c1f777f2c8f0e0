// @title                       Expense Tracker API
// @version                     1.0
// @description                 Personal expense tracking: registration, token auth and per-user expense CRUD with filtering.
// @BasePath                    /api/v1
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @description                 Type "Bearer" followed by a space and the access token.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/expensetracker/expense-api/internal/api"
	"github.com/expensetracker/expense-api/internal/api/handler"
	"github.com/expensetracker/expense-api/internal/core/domain"
	"github.com/expensetracker/expense-api/internal/core/ports"
	"github.com/expensetracker/expense-api/internal/core/service"
	"github.com/expensetracker/expense-api/internal/infrastructure/db/memory"
	mongodb "github.com/expensetracker/expense-api/internal/infrastructure/db/mongo"
	"github.com/expensetracker/expense-api/internal/infrastructure/db/postgres"
	redisdb "github.com/expensetracker/expense-api/internal/infrastructure/db/redis"
	"github.com/expensetracker/expense-api/internal/pkg/config"
	"github.com/expensetracker/expense-api/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

// storage bundles the repositories of the selected driver.
type storage struct {
	users    ports.UserRepository
	expenses ports.ExpenseRepository
	check    handler.DependencyCheck
	close    func(context.Context)
}

func main() {
	envErr := godotenv.Load()

	cfg, err := config.Load(context.Background())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "expense-api",
	})
	logger.SetHashSalt(cfg.LogHashSalt)
	if envErr != nil {
		log.Debug().Msg("no .env file found, using environment variables")
	}

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx := context.Background()

	store, err := openStorage(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer store.close(context.Background())

	sessions, sessionCheck, closeSessions, err := openSessions(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeSessions()

	tokens := service.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL, cfg.Auth.RefreshTokenTTL)
	authService := service.NewAuthService(store.users, sessions, tokens, log.With().Str("component", "auth").Logger())
	expenseService := service.NewExpenseService(store.expenses, domain.Categories, cfg.Location(),
		log.With().Str("component", "expenses").Logger())

	e := api.NewRouter(api.Dependencies{
		Logger:         log,
		AuthService:    authService,
		TokenVerifier:  authService,
		ExpenseService: expenseService,
		Categories:     domain.Categories,
		Checks:         []handler.DependencyCheck{store.check, sessionCheck},
		LoginRateLimit: cfg.Auth.LoginRateLimit,
		LoginRateBurst: cfg.Auth.LoginRateBurst,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           e,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Str("storage", cfg.Storage.Driver).
			Str("sessions", cfg.Session.Store).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}

	log.Info().Msg("server stopped")
	return nil
}

func openStorage(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*storage, error) {
	switch cfg.Storage.Driver {
	case config.StorageMongo:
		client, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return nil, err
		}
		if err := mongodb.EnsureIndexes(ctx, db); err != nil {
			_ = client.Disconnect(ctx)
			return nil, err
		}
		log.Info().Str("database", cfg.Mongo.Database).Msg("connected to mongodb")
		return &storage{
			users:    mongodb.NewUserRepository(db),
			expenses: mongodb.NewExpenseRepository(db),
			check: handler.DependencyCheck{Name: "mongodb", Ping: func(ctx context.Context) error {
				return client.Ping(ctx, nil)
			}},
			close: func(ctx context.Context) { _ = client.Disconnect(ctx) },
		}, nil

	case config.StoragePostgres:
		pool, err := postgres.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, err
		}
		if err := postgres.RunMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		log.Info().Msg("connected to postgres")
		return &storage{
			users:    postgres.NewUserRepository(pool),
			expenses: postgres.NewExpenseRepository(pool),
			check:    handler.DependencyCheck{Name: "postgres", Ping: pool.Ping},
			close:    func(context.Context) { pool.Close() },
		}, nil

	default:
		log.Warn().Msg("using in-memory storage, data is lost on restart")
		return &storage{
			users:    memory.NewUserStore(),
			expenses: memory.NewExpenseStore(),
			check:    handler.DependencyCheck{Name: "memory", Ping: func(context.Context) error { return nil }},
			close:    func(context.Context) {},
		}, nil
	}
}

func openSessions(ctx context.Context, cfg *config.Config) (ports.SessionStore, handler.DependencyCheck, func(), error) {
	if cfg.Session.Store == config.SessionMemory {
		s := memory.NewSessionStore()
		return s, handler.DependencyCheck{Name: "sessions", Ping: s.Ping}, func() {}, nil
	}

	client, err := redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
	if err != nil {
		return nil, handler.DependencyCheck{}, nil, err
	}
	s := redisdb.NewSessionStore(client)
	return s, handler.DependencyCheck{Name: "redis", Ping: s.Ping}, func() { _ = client.Close() }, nil
}
