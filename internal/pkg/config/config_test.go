package config

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
)

func load(t *testing.T, env map[string]string) (*Config, error) {
	t.Helper()
	return LoadWith(context.Background(), envconfig.MapLookuper(env))
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(t, map[string]string{"JWT_SECRET": "secret"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("expected port 8080, got %q", cfg.Port)
	}
	if cfg.Storage.Driver != StorageMongo {
		t.Errorf("expected mongo driver, got %q", cfg.Storage.Driver)
	}
	if cfg.Session.Store != SessionRedis {
		t.Errorf("expected redis session store, got %q", cfg.Session.Store)
	}
	if cfg.Auth.AccessTokenTTL != 15*time.Minute || cfg.Auth.RefreshTokenTTL != 24*time.Hour {
		t.Errorf("unexpected TTLs: %v / %v", cfg.Auth.AccessTokenTTL, cfg.Auth.RefreshTokenTTL)
	}
	if cfg.Location() != time.UTC {
		t.Errorf("expected UTC location, got %v", cfg.Location())
	}
}

func TestLoad_MissingSecret(t *testing.T) {
	if _, err := load(t, map[string]string{}); err == nil {
		t.Fatal("expected error when JWT_SECRET is missing")
	}
}

func TestLoad_Rejections(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{
			name: "unknown storage driver",
			env:  map[string]string{"JWT_SECRET": "s", "STORAGE_DRIVER": "cassandra"},
			want: "STORAGE_DRIVER",
		},
		{
			name: "postgres without dsn",
			env:  map[string]string{"JWT_SECRET": "s", "STORAGE_DRIVER": "postgres"},
			want: "DATABASE_URL",
		},
		{
			name: "unknown session store",
			env:  map[string]string{"JWT_SECRET": "s", "SESSION_STORE": "memcached"},
			want: "SESSION_STORE",
		},
		{
			name: "unknown time zone",
			env:  map[string]string{"JWT_SECRET": "s", "TIME_ZONE": "Mars/Olympus"},
			want: "TIME_ZONE",
		},
		{
			name: "development secret in production",
			env: map[string]string{
				"JWT_SECRET":    DevJWTSecret,
				"ENV":           "production",
				"LOG_HASH_SALT": "salt",
			},
			want: "JWT_SECRET",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := load(t, tt.env)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error mentioning %s, got %v", tt.want, err)
			}
		})
	}
}

func TestLoad_MemoryDrivers(t *testing.T) {
	cfg, err := load(t, map[string]string{
		"JWT_SECRET":     "secret",
		"STORAGE_DRIVER": "Memory",
		"SESSION_STORE":  "memory",
		"TIME_ZONE":      "Asia/Singapore",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Storage.Driver != StorageMemory {
		t.Errorf("expected driver to be normalised to memory, got %q", cfg.Storage.Driver)
	}
	if cfg.Location().String() != "Asia/Singapore" {
		t.Errorf("unexpected location %v", cfg.Location())
	}
}

func TestLoad_LoginRateLimit(t *testing.T) {
	cfg, err := load(t, map[string]string{"JWT_SECRET": "s", "LOGIN_RATE_LIMIT": "0"})
	if err != nil {
		t.Fatalf("a zero rate disables throttling and must load: %v", err)
	}
	if cfg.Auth.LoginRateLimit != 0 || cfg.Auth.LoginRateBurst != 5 {
		t.Fatalf("unexpected rate settings: %v / %d", cfg.Auth.LoginRateLimit, cfg.Auth.LoginRateBurst)
	}

	_, err = load(t, map[string]string{"JWT_SECRET": "s", "LOGIN_RATE_BURST": "-1"})
	if err == nil || !strings.Contains(err.Error(), "LOGIN_RATE_BURST") {
		t.Fatalf("expected negative burst to be rejected, got %v", err)
	}
}
