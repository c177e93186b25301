// Package status persists per-user compliance status rows.
package status

import (
	"context"
	"sort"
	"sync"

	"saathi/internal/compliance/models"
	id "saathi/pkg/domain"
	"saathi/pkg/platform/sentinel"
)

type userRuleKey struct {
	userID id.UserID
	ruleID id.RuleID
}

// InMemory keeps status rows in memory. The (user, rule) uniqueness
// constraint is enforced under the store mutex, mirroring the unique index
// the PostgreSQL store relies on.
type InMemory struct {
	mu       sync.RWMutex
	statuses map[id.StatusID]*models.Status
	byPair   map[userRuleKey]id.StatusID
}

// NewInMemory constructs an empty in-memory status store.
func NewInMemory() *InMemory {
	return &InMemory{
		statuses: make(map[id.StatusID]*models.Status),
		byPair:   make(map[userRuleKey]id.StatusID),
	}
}

// Create inserts a new status row. Returns sentinel.ErrConflict when a row
// for the same (user, rule) pair already exists; concurrent synchronizers
// treat that as losing the race, not as a failure.
func (s *InMemory) Create(_ context.Context, status *models.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := userRuleKey{userID: status.UserID, ruleID: status.RuleID}
	if _, exists := s.byPair[key]; exists {
		return sentinel.ErrConflict
	}
	copied := *status
	s.statuses[status.ID] = &copied
	s.byPair[key] = status.ID
	return nil
}

// Update persists a mutated status row.
func (s *InMemory) Update(_ context.Context, status *models.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.statuses[status.ID]; !ok {
		return sentinel.ErrNotFound
	}
	copied := *status
	s.statuses[status.ID] = &copied
	return nil
}

// FindByID returns a status row by ID.
func (s *InMemory) FindByID(_ context.Context, statusID id.StatusID) (*models.Status, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	status, ok := s.statuses[statusID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *status
	return &copied, nil
}

// FindByUserAndRule returns the status row for the composite key.
func (s *InMemory) FindByUserAndRule(_ context.Context, userID id.UserID, ruleID id.RuleID) (*models.Status, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	statusID, ok := s.byPair[userRuleKey{userID: userID, ruleID: ruleID}]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *s.statuses[statusID]
	return &copied, nil
}

// ListByUser returns all status rows for a user ordered by due date
// ascending, rows without a due date last.
func (s *InMemory) ListByUser(_ context.Context, userID id.UserID) ([]*models.Status, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var statuses []*models.Status
	for _, status := range s.statuses {
		if status.UserID == userID {
			copied := *status
			statuses = append(statuses, &copied)
		}
	}
	sort.SliceStable(statuses, func(i, j int) bool {
		a, b := statuses[i].DueDate, statuses[j].DueDate
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.Before(*b)
		}
	})
	return statuses, nil
}
