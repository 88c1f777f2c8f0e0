package ports

import (
	"context"
	"time"
)

// SessionStore tracks live refresh tokens by their token ID.
type SessionStore interface {
	Save(ctx context.Context, tokenID, userID string, ttl time.Duration) error
	// Consume atomically removes tokenID and reports whether it was live.
	Consume(ctx context.Context, tokenID string) (bool, error)
	Revoke(ctx context.Context, tokenID string) error
	Ping(ctx context.Context) error
}
