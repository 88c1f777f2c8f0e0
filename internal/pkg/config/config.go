package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

const (
	EnvProduction = "production"

	StorageMongo    = "mongo"
	StoragePostgres = "postgres"
	StorageMemory   = "memory"

	SessionRedis  = "redis"
	SessionMemory = "memory"

	// DevJWTSecret is the placeholder shipped in .env.example.
	DevJWTSecret = "change-me-in-production"

	minProductionSecretLen = 32
)

type Config struct {
	Port        string `env:"PORT,          default=8080"`
	Env         string `env:"ENV,           default=development"`
	LogLevel    string `env:"LOG_LEVEL,     default=info"`
	LogHashSalt string `env:"LOG_HASH_SALT"`
	TimeZone    string `env:"TIME_ZONE,     default=UTC"`

	Auth     AuthConfig
	Storage  StorageConfig
	Mongo    MongoConfig
	Postgres PostgresConfig
	Session  SessionConfig
	Redis    RedisConfig
}

type AuthConfig struct {
	JWTSecret       string        `env:"JWT_SECRET, required"`
	AccessTokenTTL  time.Duration `env:"ACCESS_TOKEN_TTL,  default=15m"`
	RefreshTokenTTL time.Duration `env:"REFRESH_TOKEN_TTL, default=24h"`
	// LoginRateLimit is the sustained number of login attempts per second per
	// client IP. Zero, or a zero burst, turns throttling off.
	LoginRateLimit float64 `env:"LOGIN_RATE_LIMIT, default=0.2"`
	LoginRateBurst int     `env:"LOGIN_RATE_BURST, default=5"`
}

type StorageConfig struct {
	Driver string `env:"STORAGE_DRIVER, default=mongo"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=expenses"`
}

type PostgresConfig struct {
	URL string `env:"DATABASE_URL"`
}

type SessionConfig struct {
	Store string `env:"SESSION_STORE, default=redis"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

// Load reads configuration from the process environment.
func Load(ctx context.Context) (*Config, error) {
	return LoadWith(ctx, envconfig.OsLookuper())
}

// LoadWith reads configuration from l and validates it.
func LoadWith(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg.Storage.Driver = strings.ToLower(strings.TrimSpace(cfg.Storage.Driver))
	cfg.Session.Store = strings.ToLower(strings.TrimSpace(cfg.Session.Store))

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, EnvProduction)
}

// Location returns the zone "today" is computed in for relative filters.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) validate() error {
	var errs []string

	switch c.Storage.Driver {
	case StorageMongo:
		if c.Mongo.URI == "" {
			errs = append(errs, "MONGO_URI is required when STORAGE_DRIVER=mongo")
		}
	case StoragePostgres:
		if c.Postgres.URL == "" {
			errs = append(errs, "DATABASE_URL is required when STORAGE_DRIVER=postgres")
		}
	case StorageMemory:
	default:
		errs = append(errs, fmt.Sprintf("STORAGE_DRIVER %q is not one of mongo, postgres, memory", c.Storage.Driver))
	}

	switch c.Session.Store {
	case SessionRedis:
		if c.Redis.Addr == "" {
			errs = append(errs, "REDIS_ADDR is required when SESSION_STORE=redis")
		}
	case SessionMemory:
	default:
		errs = append(errs, fmt.Sprintf("SESSION_STORE %q is not one of redis, memory", c.Session.Store))
	}

	if _, err := time.LoadLocation(c.TimeZone); err != nil {
		errs = append(errs, fmt.Sprintf("TIME_ZONE %q is not a known location", c.TimeZone))
	}

	if c.Auth.AccessTokenTTL <= 0 || c.Auth.RefreshTokenTTL <= 0 {
		errs = append(errs, "token TTLs must be positive")
	}
	if c.Auth.LoginRateLimit < 0 || c.Auth.LoginRateBurst < 0 {
		errs = append(errs, "LOGIN_RATE_LIMIT and LOGIN_RATE_BURST must not be negative")
	}

	if c.IsProduction() {
		if c.Auth.JWTSecret == DevJWTSecret || len(c.Auth.JWTSecret) < minProductionSecretLen {
			errs = append(errs, fmt.Sprintf("JWT_SECRET must be at least %d characters and not the development placeholder in production", minProductionSecretLen))
		}
		if c.LogHashSalt == "" {
			errs = append(errs, "LOG_HASH_SALT is required in production")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
