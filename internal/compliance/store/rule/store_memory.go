// Package rule persists the compliance rule catalog.
package rule

import (
	"context"
	"sync"

	"saathi/internal/compliance/models"
	id "saathi/pkg/domain"
	"saathi/pkg/platform/sentinel"
)

// InMemory keeps the rule catalog in memory. The catalog is reference data
// seeded at startup, so insertion order is preserved and returned by List.
type InMemory struct {
	mu    sync.RWMutex
	rules map[id.RuleID]*models.Rule
	order []id.RuleID
}

// NewInMemory constructs an empty in-memory rule store.
func NewInMemory() *InMemory {
	return &InMemory{rules: make(map[id.RuleID]*models.Rule)}
}

// UpsertByCode inserts the rule or replaces the existing rule with the same
// code, keeping the original ID and catalog position.
func (s *InMemory) UpsertByCode(_ context.Context, rule *models.Rule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existingID := range s.order {
		existing := s.rules[existingID]
		if existing.Code == rule.Code {
			updated := *rule
			updated.ID = existing.ID
			s.rules[existingID] = &updated
			return nil
		}
	}
	stored := *rule
	s.rules[rule.ID] = &stored
	s.order = append(s.order, rule.ID)
	return nil
}

// List returns the full catalog in seed order.
func (s *InMemory) List(_ context.Context) ([]*models.Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rules := make([]*models.Rule, 0, len(s.order))
	for _, ruleID := range s.order {
		copied := *s.rules[ruleID]
		rules = append(rules, &copied)
	}
	return rules, nil
}

// FindByID returns a single rule by its surrogate ID.
func (s *InMemory) FindByID(_ context.Context, ruleID id.RuleID) (*models.Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rule, ok := s.rules[ruleID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *rule
	return &copied, nil
}
