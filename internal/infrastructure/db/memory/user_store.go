package memory

import (
	"context"
	"strconv"
	"sync"

	"github.com/expensetracker/expense-api/internal/core/domain"
)

type UserStore struct {
	mu         sync.RWMutex
	nextID     int64
	byUsername map[string]domain.User
}

func NewUserStore() *UserStore {
	return &UserStore{byUsername: make(map[string]domain.User)}
}

func (s *UserStore) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.byUsername[user.Username]; taken {
		return nil, domain.ErrUserExists
	}
	s.nextID++
	u := *user
	u.ID = strconv.FormatInt(s.nextID, 10)
	s.byUsername[u.Username] = u
	return &u, nil
}

func (s *UserStore) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.byUsername[username]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &u, nil
}
