package rule

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"saathi/internal/compliance/models"
	id "saathi/pkg/domain"
	"saathi/pkg/platform/sentinel"
)

// PostgresStore persists the rule catalog in PostgreSQL.
//
// Expected schema (see pkg/testutil/containers for the canonical DDL):
//
//	compliance_rules(id uuid pk, code text unique, name, description,
//	  category, penalty_description text, work_types text[], min_income,
//	  max_income text, requires_gst boolean null, states text[],
//	  frequency text, deadline_day int null, deadline_month int null)
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed rule store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// UpsertByCode inserts or refreshes a catalog entry keyed by its stable code.
// The surrogate ID of an existing row is preserved.
func (s *PostgresStore) UpsertByCode(ctx context.Context, rule *models.Rule) error {
	if rule == nil {
		return fmt.Errorf("rule is required")
	}
	query := `
		INSERT INTO compliance_rules (
			id, code, name, description, category, penalty_description,
			work_types, min_income, max_income, requires_gst, states,
			frequency, deadline_day, deadline_month
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (code) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			category = EXCLUDED.category,
			penalty_description = EXCLUDED.penalty_description,
			work_types = EXCLUDED.work_types,
			min_income = EXCLUDED.min_income,
			max_income = EXCLUDED.max_income,
			requires_gst = EXCLUDED.requires_gst,
			states = EXCLUDED.states,
			frequency = EXCLUDED.frequency,
			deadline_day = EXCLUDED.deadline_day,
			deadline_month = EXCLUDED.deadline_month
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(rule.ID), rule.Code, rule.Name, rule.Description,
		rule.Category, rule.PenaltyDescription,
		pq.Array(rule.WorkTypes), rule.MinIncome, rule.MaxIncome,
		nullBool(rule.RequiresGST), pq.Array(rule.States),
		string(rule.Frequency), nullInt(rule.DeadlineDay), nullInt(rule.DeadlineMonth),
	)
	if err != nil {
		return fmt.Errorf("upsert rule: %w", err)
	}
	return nil
}

// List returns the full catalog ordered by code for a stable result.
func (s *PostgresStore) List(ctx context.Context) ([]*models.Rule, error) {
	rows, err := s.db.QueryContext(ctx, selectRules+` ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}
	defer rows.Close()

	var rules []*models.Rule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan rule: %w", err)
		}
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}
	return rules, nil
}

// FindByID returns a single rule by its surrogate ID.
func (s *PostgresStore) FindByID(ctx context.Context, ruleID id.RuleID) (*models.Rule, error) {
	row := s.db.QueryRowContext(ctx, selectRules+` WHERE id = $1`, uuid.UUID(ruleID))
	rule, err := scanRule(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find rule: %w", err)
	}
	return rule, nil
}

const selectRules = `
	SELECT id, code, name, description, category, penalty_description,
	       work_types, min_income, max_income, requires_gst, states,
	       frequency, deadline_day, deadline_month
	FROM compliance_rules`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRule(row rowScanner) (*models.Rule, error) {
	var (
		rule        models.Rule
		ruleID      uuid.UUID
		workTypes   pq.StringArray
		states      pq.StringArray
		requiresGST sql.NullBool
		day, month  sql.NullInt64
	)
	err := row.Scan(
		&ruleID, &rule.Code, &rule.Name, &rule.Description, &rule.Category,
		&rule.PenaltyDescription, &workTypes, &rule.MinIncome, &rule.MaxIncome,
		&requiresGST, &states, (*string)(&rule.Frequency), &day, &month,
	)
	if err != nil {
		return nil, err
	}
	rule.ID = id.RuleID(ruleID)
	rule.WorkTypes = workTypes
	rule.States = states
	if requiresGST.Valid {
		rule.RequiresGST = &requiresGST.Bool
	}
	if day.Valid {
		v := int(day.Int64)
		rule.DeadlineDay = &v
	}
	if month.Valid {
		v := int(month.Int64)
		rule.DeadlineMonth = &v
	}
	return &rule, nil
}

func nullBool(value *bool) sql.NullBool {
	if value == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *value, Valid: true}
}

func nullInt(value *int) sql.NullInt64 {
	if value == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*value), Valid: true}
}
