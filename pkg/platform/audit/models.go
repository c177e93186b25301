// Package audit captures structured domain events for the compliance trail.
// Events stay transport-agnostic so stores and sinks can fan out.
package audit

import (
	"time"

	id "saathi/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose.
// This enables different retention policies, storage backends, and routing.
type EventCategory string

const (
	// CategoryCompliance covers events with legal/regulatory significance
	// that need long retention.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers events relevant to security monitoring.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers events useful for debugging and operational
	// visibility; these can be sampled.
	CategoryOperations EventCategory = "operations"
)

// Action names what happened.
type Action string

const (
	// Onboarding events
	EventProfileSubmitted Action = "profile_submitted"

	// Compliance status events
	EventStatusCreated   Action = "status_created"
	EventStatusCompleted Action = "status_completed"
	EventStatusExcused   Action = "status_marked_not_applicable"

	// Auth events
	EventUserRegistered Action = "user_registered"
	EventAuthFailed     Action = "auth_failed"
)

var eventCategories = map[Action]EventCategory{
	EventProfileSubmitted: CategoryCompliance,
	EventStatusCreated:    CategoryOperations,
	EventStatusCompleted:  CategoryCompliance,
	EventStatusExcused:    CategoryCompliance,
	EventUserRegistered:   CategoryCompliance,
	EventAuthFailed:       CategorySecurity,
}

// Category returns the EventCategory for this action.
// Unknown actions default to CategoryOperations.
func (a Action) Category() EventCategory {
	if cat, ok := eventCategories[a]; ok {
		return cat
	}
	return CategoryOperations
}

// Event is emitted from domain logic to capture key actions.
type Event struct {
	Category  EventCategory
	Timestamp time.Time
	Action    Action
	UserID    id.UserID
	// RuleCode identifies the compliance rule involved, when one is.
	RuleCode string
	// SubjectID identifies the entity acted on (status row, profile).
	SubjectID string
	// Reason records why this happened (e.g. "invalid_password").
	Reason string
	// RequestID is the correlation ID from the HTTP request context.
	RequestID string
}
