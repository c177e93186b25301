package models

import (
	"time"

	id "saathi/pkg/domain"
	dErrors "saathi/pkg/domain-errors"
)

// StatusState is the lifecycle state of a per-user compliance obligation.
type StatusState string

const (
	StatusPending       StatusState = "pending"
	StatusCompleted     StatusState = "completed"
	StatusNotApplicable StatusState = "not_applicable"
)

// Terminal reports whether the state permits no further transitions.
// Completed and not_applicable are both terminal; there is no way back to
// pending once an obligation instance has been resolved.
func (s StatusState) Terminal() bool {
	return s == StatusCompleted || s == StatusNotApplicable
}

// CanTransitionTo validates the status state machine:
// pending → completed | not_applicable, nothing else.
func (s StatusState) CanTransitionTo(next StatusState) bool {
	if s != StatusPending {
		return false
	}
	return next == StatusCompleted || next == StatusNotApplicable
}

// Status is the per-(user, rule) tracking record for one obligation instance.
//
// Invariants:
//   - exactly one Status exists per (UserID, RuleID) pair; the stores enforce
//     this with a uniqueness constraint on the composite key
//   - DueDate is set once at creation and never recalculated
//   - CompletedDate is set only on the transition to completed
//   - terminal states are never left (see StatusState.CanTransitionTo)
type Status struct {
	ID            id.StatusID `json:"id"`
	UserID        id.UserID   `json:"user_id"`
	RuleID        id.RuleID   `json:"rule_id"`
	State         StatusState `json:"status"`
	DueDate       *time.Time  `json:"due_date,omitempty"`
	CompletedDate *time.Time  `json:"completed_date,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// NewPendingStatus materializes a fresh obligation instance for a user.
func NewPendingStatus(statusID id.StatusID, userID id.UserID, ruleID id.RuleID, dueDate time.Time, now time.Time) *Status {
	return &Status{
		ID:        statusID,
		UserID:    userID,
		RuleID:    ruleID,
		State:     StatusPending,
		DueDate:   &dueDate,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// CanComplete checks whether the status may transition to completed.
// Use with ApplyCompletion in Execute callbacks; Complete combines both.
func (s *Status) CanComplete() error {
	if !s.State.CanTransitionTo(StatusCompleted) {
		return dErrors.New(dErrors.CodeInvariantViolation, "status is already "+string(s.State))
	}
	return nil
}

// ApplyCompletion transitions the status to completed and stamps the
// completion date. Call CanComplete first to validate the transition.
func (s *Status) ApplyCompletion(now time.Time) {
	s.State = StatusCompleted
	s.CompletedDate = &now
	s.UpdatedAt = now
}

// Complete validates and applies the completed transition in one call.
func (s *Status) Complete(now time.Time) error {
	if err := s.CanComplete(); err != nil {
		return err
	}
	s.ApplyCompletion(now)
	return nil
}

// CanExcuse checks whether the status may transition to not_applicable.
func (s *Status) CanExcuse() error {
	if !s.State.CanTransitionTo(StatusNotApplicable) {
		return dErrors.New(dErrors.CodeInvariantViolation, "status is already "+string(s.State))
	}
	return nil
}

// ApplyExcusal transitions the status to not_applicable. CompletedDate stays
// untouched: the obligation was excused, not fulfilled.
func (s *Status) ApplyExcusal(now time.Time) {
	s.State = StatusNotApplicable
	s.UpdatedAt = now
}

// Excuse validates and applies the not_applicable transition in one call.
func (s *Status) Excuse(now time.Time) error {
	if err := s.CanExcuse(); err != nil {
		return err
	}
	s.ApplyExcusal(now)
	return nil
}

// Overdue reports whether a pending obligation's due date has passed.
// Terminal states are never overdue.
func (s *Status) Overdue(now time.Time) bool {
	return s.State == StatusPending && s.DueDate != nil && s.DueDate.Before(now)
}
