package users

import (
	"context"
	"sync"
	"time"
)

// InMemoryStore is a map-backed store for tests and local development.
type InMemoryStore struct {
	mu      sync.RWMutex
	byID    map[string]User
	byEmail map[string]string
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		byID:    make(map[string]User),
		byEmail: make(map[string]string),
	}
}

func (s *InMemoryStore) FindByEmail(ctx context.Context, email string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[email]
	if !ok {
		return User{}, ErrNotFound
	}
	return s.byID[id], nil
}

func (s *InMemoryStore) FindByID(ctx context.Context, id string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.byID[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (s *InMemoryStore) Insert(ctx context.Context, u User) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byEmail[u.Email]; exists && u.Email != "" {
		return User{}, ErrDuplicateEmail
	}
	s.byID[u.ID] = u
	if u.Email != "" {
		s.byEmail[u.Email] = u.ID
	}
	return u, nil
}

func (s *InMemoryStore) Update(ctx context.Context, u User) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.byID[u.ID]
	if !ok {
		return User{}, ErrNotFound
	}
	existing.Profile = u.Profile
	existing.UpdatedAt = u.UpdatedAt
	s.byID[u.ID] = existing
	return existing, nil
}

func (s *InMemoryStore) UpdatePassword(ctx context.Context, id, passwordHash string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}
	existing.PasswordHash = passwordHash
	existing.UpdatedAt = at
	s.byID[id] = existing
	return nil
}

// Count reports the number of stored users.
func (s *InMemoryStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID), nil
}
