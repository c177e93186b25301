package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"saathi/internal/compliance/models"
	id "saathi/pkg/domain"
	"saathi/pkg/platform/sentinel"
)

// PostgresStore persists user profiles in PostgreSQL.
//
// Expected schema:
//
//	user_profiles(user_id uuid pk, work_type text, monthly_income text,
//	  is_gst_registered boolean, state text, city text,
//	  onboarding_completed boolean, created_at, updated_at timestamptz)
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed profile store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Upsert creates or replaces the profile for its user. created_at is
// preserved on resubmission.
func (s *PostgresStore) Upsert(ctx context.Context, profile *models.UserProfile) error {
	if profile == nil {
		return fmt.Errorf("profile is required")
	}
	query := `
		INSERT INTO user_profiles (
			user_id, work_type, monthly_income, is_gst_registered,
			state, city, onboarding_completed, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (user_id) DO UPDATE SET
			work_type = EXCLUDED.work_type,
			monthly_income = EXCLUDED.monthly_income,
			is_gst_registered = EXCLUDED.is_gst_registered,
			state = EXCLUDED.state,
			city = EXCLUDED.city,
			onboarding_completed = EXCLUDED.onboarding_completed,
			updated_at = EXCLUDED.updated_at
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(profile.UserID), profile.WorkType, profile.MonthlyIncome,
		profile.IsGSTRegistered, profile.State, profile.City,
		profile.OnboardingCompleted, profile.CreatedAt, profile.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

// FindByUser returns the profile for a user, or sentinel.ErrNotFound.
func (s *PostgresStore) FindByUser(ctx context.Context, userID id.UserID) (*models.UserProfile, error) {
	query := `
		SELECT user_id, work_type, monthly_income, is_gst_registered,
		       state, city, onboarding_completed, created_at, updated_at
		FROM user_profiles WHERE user_id = $1
	`
	var (
		profile models.UserProfile
		uid     uuid.UUID
	)
	err := s.db.QueryRowContext(ctx, query, uuid.UUID(userID)).Scan(
		&uid, &profile.WorkType, &profile.MonthlyIncome, &profile.IsGSTRegistered,
		&profile.State, &profile.City, &profile.OnboardingCompleted,
		&profile.CreatedAt, &profile.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find profile: %w", err)
	}
	profile.UserID = id.UserID(uid)
	return &profile, nil
}
