// Package user provides user account storage.
package user

import (
	"context"
	"strings"
	"sync"

	"saathi/internal/auth/models"
	id "saathi/pkg/domain"
	"saathi/pkg/platform/sentinel"
)

// InMemory is a thread-safe in-memory user store for development and tests.
type InMemory struct {
	mu      sync.RWMutex
	users   map[id.UserID]*models.User
	byEmail map[string]id.UserID
}

func NewInMemory() *InMemory {
	return &InMemory{
		users:   make(map[id.UserID]*models.User),
		byEmail: make(map[string]id.UserID),
	}
}

// Create inserts a new user. Returns sentinel.ErrConflict if the email is
// already registered.
func (s *InMemory) Create(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := normalizeEmail(user.Email)
	if _, exists := s.byEmail[email]; exists {
		return sentinel.ErrConflict
	}
	if _, exists := s.users[user.ID]; exists {
		return sentinel.ErrConflict
	}

	copied := *user
	s.users[user.ID] = &copied
	s.byEmail[email] = user.ID
	return nil
}

func (s *InMemory) FindByID(_ context.Context, userID id.UserID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[userID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (s *InMemory) FindByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	userID, ok := s.byEmail[normalizeEmail(email)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *s.users[userID]
	return &copied, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
