package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// newTestStore connects to TEST_REDIS_ADDR or skips.
func newTestStore(t *testing.T) *SessionStore {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set, skipping redis integration test")
	}
	client, err := Connect(context.Background(), Config{Addr: addr})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return NewSessionStore(client)
}

func TestSessionStore_ConsumeIsSingleUse(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	id := uuid.NewString()

	require.NoError(t, s.Save(ctx, id, "42", time.Minute))

	live, err := s.Consume(ctx, id)
	require.NoError(t, err)
	require.True(t, live)

	live, err = s.Consume(ctx, id)
	require.NoError(t, err)
	require.False(t, live)
}

func TestSessionStore_Revoke(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	id := uuid.NewString()

	require.NoError(t, s.Save(ctx, id, "42", time.Minute))
	require.NoError(t, s.Revoke(ctx, id))

	live, err := s.Consume(ctx, id)
	require.NoError(t, err)
	require.False(t, live)
}

func TestSessionStore_Key(t *testing.T) {
	s := &SessionStore{}
	require.Equal(t, "session:refresh:abc", s.key("abc"))
}
