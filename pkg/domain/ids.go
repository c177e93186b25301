// Package domain defines typed identifiers shared across modules.
//
// Each ID is a distinct type wrapping uuid.UUID so the compiler rejects
// cross-assignment (a UserID can never be passed where a RuleID is expected).
// Parse helpers enforce the invariant that IDs are valid, non-empty, non-nil
// UUIDs at trust boundaries.
package domain

import (
	"github.com/google/uuid"

	dErrors "saathi/pkg/domain-errors"
)

// UserID identifies an account holder.
type UserID uuid.UUID

// RuleID identifies a compliance rule definition.
type RuleID uuid.UUID

// StatusID identifies a per-user compliance status row.
type StatusID uuid.UUID

func (id UserID) String() string   { return uuid.UUID(id).String() }
func (id RuleID) String() string   { return uuid.UUID(id).String() }
func (id StatusID) String() string { return uuid.UUID(id).String() }

// IsZero reports whether the ID is the nil UUID.
func (id UserID) IsZero() bool   { return uuid.UUID(id) == uuid.Nil }
func (id RuleID) IsZero() bool   { return uuid.UUID(id) == uuid.Nil }
func (id StatusID) IsZero() bool { return uuid.UUID(id) == uuid.Nil }

// MarshalText renders IDs as canonical UUID strings in JSON and logs.
func (id UserID) MarshalText() ([]byte, error)   { return []byte(id.String()), nil }
func (id RuleID) MarshalText() ([]byte, error)   { return []byte(id.String()), nil }
func (id StatusID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *UserID) UnmarshalText(text []byte) error {
	parsed, err := ParseUserID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *RuleID) UnmarshalText(text []byte) error {
	parsed, err := ParseRuleID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *StatusID) UnmarshalText(text []byte) error {
	parsed, err := ParseStatusID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// NewUserID generates a fresh user ID.
func NewUserID() UserID { return UserID(uuid.New()) }

// NewRuleID generates a fresh rule ID.
func NewRuleID() RuleID { return RuleID(uuid.New()) }

// NewStatusID generates a fresh status ID.
func NewStatusID() StatusID { return StatusID(uuid.New()) }

// ParseUserID parses and validates a user ID from its string form.
func ParseUserID(raw string) (UserID, error) {
	parsed, err := parseUUID(raw, "user id")
	return UserID(parsed), err
}

// ParseRuleID parses and validates a rule ID from its string form.
func ParseRuleID(raw string) (RuleID, error) {
	parsed, err := parseUUID(raw, "rule id")
	return RuleID(parsed), err
}

// ParseStatusID parses and validates a status ID from its string form.
func ParseStatusID(raw string) (StatusID, error) {
	parsed, err := parseUUID(raw, "status id")
	return StatusID(parsed), err
}

func parseUUID(raw, label string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" is required")
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" is not a valid UUID")
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" must not be the nil UUID")
	}
	return parsed, nil
}
