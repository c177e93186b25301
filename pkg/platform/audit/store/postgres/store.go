package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	id "saathi/pkg/domain"
	audit "saathi/pkg/platform/audit"
)

// Store implements audit.Store on PostgreSQL. Rows are append-only; nothing
// in the application updates or deletes them.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Append(ctx context.Context, event audit.Event) error {
	query := `
		INSERT INTO audit_events (
			id, category, timestamp, action, user_id,
			rule_code, subject_id, reason, request_id
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	var userID *uuid.UUID
	if !event.UserID.IsZero() {
		uid := uuid.UUID(event.UserID)
		userID = &uid
	}

	ts := event.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, query,
		uuid.New(),
		string(event.Category),
		ts,
		string(event.Action),
		userID,
		event.RuleCode,
		event.SubjectID,
		event.Reason,
		event.RequestID,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

func (s *Store) ListByUser(ctx context.Context, userID id.UserID) ([]audit.Event, error) {
	query := `
		SELECT category, timestamp, action, user_id,
			   rule_code, subject_id, reason, request_id
		FROM audit_events
		WHERE user_id = $1
		ORDER BY timestamp DESC
	`

	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(userID))
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	var events []audit.Event
	for rows.Next() {
		var (
			event          audit.Event
			category       string
			action         string
			userIDNullable *uuid.UUID
		)
		err := rows.Scan(
			&category,
			&event.Timestamp,
			&action,
			&userIDNullable,
			&event.RuleCode,
			&event.SubjectID,
			&event.Reason,
			&event.RequestID,
		)
		if err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event.Category = audit.EventCategory(category)
		event.Action = audit.Action(action)
		if userIDNullable != nil {
			event.UserID = id.UserID(*userIDNullable)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}
