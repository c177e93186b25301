package status

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"saathi/internal/compliance/models"
	id "saathi/pkg/domain"
	"saathi/pkg/platform/sentinel"
)

// Unique-violation code from the PostgreSQL error table.
const uniqueViolation = "23505"

// PostgresStore persists status rows in PostgreSQL.
//
// Expected schema:
//
//	user_compliance_statuses(id uuid pk, user_id uuid, rule_id uuid,
//	  status text, due_date timestamptz null, completed_date timestamptz null,
//	  created_at, updated_at timestamptz,
//	  UNIQUE (user_id, rule_id))
//
// The unique index on (user_id, rule_id) is what makes concurrent
// synchronization safe: the losing writer's insert fails with a unique
// violation, surfaced here as sentinel.ErrConflict.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed status store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Create inserts a new status row, returning sentinel.ErrConflict when the
// (user, rule) pair already has one.
func (s *PostgresStore) Create(ctx context.Context, status *models.Status) error {
	if status == nil {
		return fmt.Errorf("status is required")
	}
	query := `
		INSERT INTO user_compliance_statuses (
			id, user_id, rule_id, status, due_date, completed_date,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(status.ID), uuid.UUID(status.UserID), uuid.UUID(status.RuleID),
		string(status.State), nullTime(status.DueDate), nullTime(status.CompletedDate),
		status.CreatedAt, status.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create status: %w", err)
	}
	return nil
}

// Update persists a mutated status row.
func (s *PostgresStore) Update(ctx context.Context, status *models.Status) error {
	if status == nil {
		return fmt.Errorf("status is required")
	}
	query := `
		UPDATE user_compliance_statuses
		SET status = $2, due_date = $3, completed_date = $4, updated_at = $5
		WHERE id = $1
	`
	result, err := s.db.ExecContext(ctx, query,
		uuid.UUID(status.ID), string(status.State),
		nullTime(status.DueDate), nullTime(status.CompletedDate), status.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// FindByID returns a status row by ID.
func (s *PostgresStore) FindByID(ctx context.Context, statusID id.StatusID) (*models.Status, error) {
	row := s.db.QueryRowContext(ctx, selectStatuses+` WHERE id = $1`, uuid.UUID(statusID))
	status, err := scanStatus(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find status: %w", err)
	}
	return status, nil
}

// FindByUserAndRule returns the status row for the composite key.
func (s *PostgresStore) FindByUserAndRule(ctx context.Context, userID id.UserID, ruleID id.RuleID) (*models.Status, error) {
	row := s.db.QueryRowContext(ctx,
		selectStatuses+` WHERE user_id = $1 AND rule_id = $2`,
		uuid.UUID(userID), uuid.UUID(ruleID),
	)
	status, err := scanStatus(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find status by user and rule: %w", err)
	}
	return status, nil
}

// ListByUser returns all status rows for a user ordered by due date
// ascending, rows without a due date last.
func (s *PostgresStore) ListByUser(ctx context.Context, userID id.UserID) ([]*models.Status, error) {
	rows, err := s.db.QueryContext(ctx,
		selectStatuses+` WHERE user_id = $1 ORDER BY due_date ASC NULLS LAST`,
		uuid.UUID(userID),
	)
	if err != nil {
		return nil, fmt.Errorf("list statuses: %w", err)
	}
	defer rows.Close()

	var statuses []*models.Status
	for rows.Next() {
		status, err := scanStatus(rows)
		if err != nil {
			return nil, fmt.Errorf("scan status: %w", err)
		}
		statuses = append(statuses, status)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list statuses: %w", err)
	}
	return statuses, nil
}

const selectStatuses = `
	SELECT id, user_id, rule_id, status, due_date, completed_date,
	       created_at, updated_at
	FROM user_compliance_statuses`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStatus(row rowScanner) (*models.Status, error) {
	var (
		status        models.Status
		statusID      uuid.UUID
		userID        uuid.UUID
		ruleID        uuid.UUID
		dueDate       sql.NullTime
		completedDate sql.NullTime
	)
	err := row.Scan(
		&statusID, &userID, &ruleID, (*string)(&status.State),
		&dueDate, &completedDate, &status.CreatedAt, &status.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	status.ID = id.StatusID(statusID)
	status.UserID = id.UserID(userID)
	status.RuleID = id.RuleID(ruleID)
	if dueDate.Valid {
		status.DueDate = &dueDate.Time
	}
	if completedDate.Valid {
		status.CompletedDate = &completedDate.Time
	}
	return &status, nil
}

func nullTime(value *time.Time) sql.NullTime {
	if value == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *value, Valid: true}
}
