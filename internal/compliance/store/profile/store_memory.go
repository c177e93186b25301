// Package profile persists user business profiles.
package profile

import (
	"context"
	"sync"

	"saathi/internal/compliance/models"
	id "saathi/pkg/domain"
	"saathi/pkg/platform/sentinel"
)

// InMemory keeps profiles in memory, one per user.
type InMemory struct {
	mu       sync.RWMutex
	profiles map[id.UserID]*models.UserProfile
}

// NewInMemory constructs an empty in-memory profile store.
func NewInMemory() *InMemory {
	return &InMemory{profiles: make(map[id.UserID]*models.UserProfile)}
}

// Upsert creates or replaces the profile for its user.
func (s *InMemory) Upsert(_ context.Context, profile *models.UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *profile
	if existing, ok := s.profiles[profile.UserID]; ok {
		copied.CreatedAt = existing.CreatedAt
	}
	s.profiles[profile.UserID] = &copied
	return nil
}

// FindByUser returns the profile for a user, or sentinel.ErrNotFound.
func (s *InMemory) FindByUser(_ context.Context, userID id.UserID) (*models.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	profile, ok := s.profiles[userID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *profile
	return &copied, nil
}
