package auth

import (
	"context"
	"strings"
	"sync"

	dErrors "trustd/pkg/domain-errors"
)

// UserStore persists registered users.
type UserStore interface {
	Create(ctx context.Context, user User) error
	ByUsername(ctx context.Context, username string) (*User, error)
	ByID(ctx context.Context, id string) (*User, error)
}

// InMemoryUserStore keeps users in process memory, keyed by lowercased
// username.
type InMemoryUserStore struct {
	mu     sync.RWMutex
	byName map[string]User
	byID   map[string]string
}

func NewInMemoryUserStore() *InMemoryUserStore {
	return &InMemoryUserStore{
		byName: make(map[string]User),
		byID:   make(map[string]string),
	}
}

func (s *InMemoryUserStore) Create(_ context.Context, user User) error {
	key := strings.ToLower(user.Username)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byName[key]; exists {
		return dErrors.New(dErrors.CodeConflict, "username already taken")
	}
	s.byName[key] = user
	s.byID[user.ID] = key
	return nil
}

func (s *InMemoryUserStore) ByUsername(_ context.Context, username string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.byName[strings.ToLower(username)]
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
	}
	u := user
	return &u, nil
}

func (s *InMemoryUserStore) ByID(_ context.Context, id string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	key, ok := s.byID[id]
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
	}
	u := s.byName[key]
	return &u, nil
}
