package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"saathi/internal/auth/models"
	id "saathi/pkg/domain"
	"saathi/pkg/platform/sentinel"
)

// Unique-violation code from the PostgreSQL error table.
const uniqueViolation = "23505"

// PostgresStore persists users in PostgreSQL.
//
// Expected schema:
//
//	users(id uuid pk, email text UNIQUE, name text, password_hash text,
//	  created_at, updated_at timestamptz)
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed user store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Create inserts a new user, returning sentinel.ErrConflict when the email is
// already registered.
func (s *PostgresStore) Create(ctx context.Context, user *models.User) error {
	if user == nil {
		return fmt.Errorf("user is required")
	}
	query := `
		INSERT INTO users (id, email, name, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(user.ID), user.Email, user.Name, user.PasswordHash,
		user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// FindByID loads a user by primary key.
func (s *PostgresStore) FindByID(ctx context.Context, userID id.UserID) (*models.User, error) {
	query := `
		SELECT id, email, name, password_hash, created_at, updated_at
		FROM users
		WHERE id = $1
	`
	return s.scanUser(s.db.QueryRowContext(ctx, query, uuid.UUID(userID)))
}

// FindByEmail loads a user by email.
func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `
		SELECT id, email, name, password_hash, created_at, updated_at
		FROM users
		WHERE email = lower($1)
	`
	return s.scanUser(s.db.QueryRowContext(ctx, query, email))
}

func (s *PostgresStore) scanUser(row *sql.Row) (*models.User, error) {
	var (
		user   models.User
		userID uuid.UUID
	)
	err := row.Scan(&userID, &user.Email, &user.Name, &user.PasswordHash,
		&user.CreatedAt, &user.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	user.ID = id.UserID(userID)
	return &user, nil
}
