package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "session:refresh:"

// SessionStore records live refresh tokens in Redis.
// Key format: session:refresh:<token_id>, value: user ID, TTL: token lifetime.
type SessionStore struct {
	client *redis.Client
}

func NewSessionStore(client *redis.Client) *SessionStore {
	return &SessionStore{client: client}
}

func (s *SessionStore) Save(ctx context.Context, tokenID, userID string, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.key(tokenID), userID, ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Consume deletes the session with GETDEL, so concurrent refreshes with the
// same token cannot both succeed.
func (s *SessionStore) Consume(ctx context.Context, tokenID string) (bool, error) {
	_, err := s.client.GetDel(ctx, s.key(tokenID)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("consume session: %w", err)
	}
	return true, nil
}

func (s *SessionStore) Revoke(ctx context.Context, tokenID string) error {
	if err := s.client.Del(ctx, s.key(tokenID)).Err(); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

func (s *SessionStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *SessionStore) key(tokenID string) string {
	return sessionKeyPrefix + tokenID
}
