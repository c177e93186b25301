//go:build integration

package containers

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// schema is the canonical DDL for integration tests. Kept in one place so
// store tests and the expected-schema comments in the stores stay honest.
const schema = `
CREATE TABLE IF NOT EXISTS compliance_rules (
	id uuid PRIMARY KEY,
	code text NOT NULL UNIQUE,
	name text NOT NULL,
	description text NOT NULL DEFAULT '',
	category text NOT NULL DEFAULT '',
	penalty_description text NOT NULL DEFAULT '',
	work_types text[] NOT NULL DEFAULT '{}',
	min_income text NOT NULL DEFAULT '',
	max_income text NOT NULL DEFAULT '',
	requires_gst boolean,
	states text[] NOT NULL DEFAULT '{}',
	frequency text NOT NULL,
	deadline_day integer,
	deadline_month integer
);

CREATE TABLE IF NOT EXISTS user_profiles (
	user_id uuid PRIMARY KEY,
	work_type text NOT NULL,
	monthly_income text NOT NULL,
	is_gst_registered boolean NOT NULL,
	state text NOT NULL,
	city text NOT NULL DEFAULT '',
	onboarding_completed boolean NOT NULL DEFAULT false,
	created_at timestamptz NOT NULL,
	updated_at timestamptz NOT NULL
);

CREATE TABLE IF NOT EXISTS user_compliance_statuses (
	id uuid PRIMARY KEY,
	user_id uuid NOT NULL,
	rule_id uuid NOT NULL,
	status text NOT NULL,
	due_date timestamptz,
	completed_date timestamptz,
	created_at timestamptz NOT NULL,
	updated_at timestamptz NOT NULL,
	UNIQUE (user_id, rule_id)
);

CREATE TABLE IF NOT EXISTS users (
	id uuid PRIMARY KEY,
	email text NOT NULL UNIQUE,
	name text NOT NULL DEFAULT '',
	password_hash text NOT NULL,
	created_at timestamptz NOT NULL,
	updated_at timestamptz NOT NULL
);

CREATE TABLE IF NOT EXISTS audit_events (
	id uuid PRIMARY KEY,
	category text NOT NULL,
	timestamp timestamptz NOT NULL,
	action text NOT NULL,
	user_id uuid,
	rule_code text NOT NULL DEFAULT '',
	subject_id text NOT NULL DEFAULT '',
	reason text NOT NULL DEFAULT '',
	request_id text NOT NULL DEFAULT ''
);
`

// PostgresContainer wraps a testcontainers PostgreSQL instance with an open
// database handle and the schema applied.
type PostgresContainer struct {
	Container testcontainers.Container
	DSN       string
	DB        *sql.DB
}

// NewPostgresContainer starts a PostgreSQL container and applies the schema.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("saathi_test"),
		tcpostgres.WithUsername("saathi"),
		tcpostgres.WithPassword("saathi"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to get postgres connection string: %v", err)
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to open postgres connection: %v", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("failed to ping postgres: %v", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("failed to apply schema: %v", err)
	}

	return &PostgresContainer{Container: container, DSN: dsn, DB: db}
}

// TruncateTables empties the given tables. Use between tests for isolation.
func (p *PostgresContainer) TruncateTables(ctx context.Context, tables ...string) error {
	if len(tables) == 0 {
		return nil
	}
	query := fmt.Sprintf("TRUNCATE TABLE %s CASCADE", strings.Join(tables, ", "))
	if _, err := p.DB.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("truncate tables: %w", err)
	}
	return nil
}
