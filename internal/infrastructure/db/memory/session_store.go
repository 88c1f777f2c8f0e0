package memory

import (
	"context"
	"sync"
	"time"
)

type session struct {
	userID  string
	expires time.Time
}

// SessionStore tracks refresh-token IDs with their expiry. Expired entries
// are pruned lazily on access.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]session
	now      func() time.Time
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]session), now: time.Now}
}

func (s *SessionStore) Save(_ context.Context, tokenID, userID string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prune()
	s.sessions[tokenID] = session{userID: userID, expires: s.now().Add(ttl)}
	return nil
}

func (s *SessionStore) Consume(_ context.Context, tokenID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[tokenID]
	if !ok {
		return false, nil
	}
	delete(s.sessions, tokenID)
	return s.now().Before(sess.expires), nil
}

func (s *SessionStore) Revoke(_ context.Context, tokenID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, tokenID)
	return nil
}

func (s *SessionStore) Ping(context.Context) error { return nil }

func (s *SessionStore) prune() {
	now := s.now()
	for id, sess := range s.sessions {
		if !now.Before(sess.expires) {
			delete(s.sessions, id)
		}
	}
}
