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

const schema = `
CREATE TABLE IF NOT EXISTS leases (
    id                     UUID PRIMARY KEY,
    owner_id               UUID NOT NULL,
    tenant_id              UUID NOT NULL,
    property_id            UUID NOT NULL,
    start_date             DATE NOT NULL,
    end_date               DATE,
    monthly_rent           DOUBLE PRECISION NOT NULL,
    charges_provision      DOUBLE PRECISION NOT NULL,
    deposit_amount         DOUBLE PRECISION NOT NULL,
    status                 TEXT NOT NULL,
    signature_method       TEXT NOT NULL,
    signatures             JSONB NOT NULL,
    anchor_month           INT NOT NULL,
    anchor_day             INT NOT NULL,
    envelope_id            TEXT NOT NULL DEFAULT '',
    signature_round_failed BOOLEAN NOT NULL DEFAULT FALSE,
    version                INT NOT NULL,
    created_at             TIMESTAMPTZ NOT NULL,
    updated_at             TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS revision_records (
    id                  UUID PRIMARY KEY,
    lease_id            UUID NOT NULL,
    revision_year       INT NOT NULL,
    irl_quarter         TEXT NOT NULL,
    reference_irl_value DOUBLE PRECISION NOT NULL,
    new_irl_value       DOUBLE PRECISION NOT NULL,
    old_rent_amount     DOUBLE PRECISION NOT NULL,
    new_rent_amount     DOUBLE PRECISION NOT NULL,
    increase_amount     DOUBLE PRECISION NOT NULL,
    increase_percentage DOUBLE PRECISION NOT NULL,
    superseded          BOOLEAN NOT NULL DEFAULT FALSE,
    created_at          TIMESTAMPTZ NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS revision_records_live_year
    ON revision_records (lease_id, revision_year) WHERE NOT superseded;

CREATE TABLE IF NOT EXISTS notices (
    id                   UUID PRIMARY KEY,
    lease_id             UUID NOT NULL,
    notice_date          DATE NOT NULL,
    notice_period_months INT NOT NULL,
    move_out_date        DATE NOT NULL,
    issued_by            TEXT NOT NULL,
    created_at           TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS regularizations (
    lease_id                   UUID NOT NULL,
    year                       INT NOT NULL,
    period_start               DATE NOT NULL,
    period_end                 DATE NOT NULL,
    occupation_days            INT NOT NULL,
    total_provisions_collected DOUBLE PRECISION NOT NULL,
    total_real_charges         DOUBLE PRECISION NOT NULL,
    recoverable_charges        DOUBLE PRECISION NOT NULL,
    non_recoverable_charges    DOUBLE PRECISION NOT NULL,
    tenant_balance             DOUBLE PRECISION NOT NULL,
    balance_type               TEXT NOT NULL,
    lines                      JSONB NOT NULL,
    created_at                 TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS settlements (
    id                        UUID PRIMARY KEY,
    lease_id                  UUID NOT NULL,
    deposit_amount            DOUBLE PRECISION NOT NULL,
    retained_amount           DOUBLE PRECISION NOT NULL,
    retained_reasons          TEXT[] NOT NULL DEFAULT '{}',
    refund_amount             DOUBLE PRECISION NOT NULL,
    restitution_deadline_days INT NOT NULL,
    deadline_date             DATE NOT NULL,
    move_out_date             DATE NOT NULL,
    supersedes                UUID,
    created_at                TIMESTAMPTZ NOT NULL
);
`

// PostgresContainer wraps a testcontainers PostgreSQL instance with the
// schema applied.
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
		tcpostgres.WithDatabase("locatio_test"),
		tcpostgres.WithUsername("locatio"),
		tcpostgres.WithPassword("locatio"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
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

	return &PostgresContainer{
		Container: container,
		DSN:       dsn,
		DB:        db,
	}
}

// TruncateTables empties the named tables. Use between tests for isolation.
func (p *PostgresContainer) TruncateTables(ctx context.Context, tables ...string) error {
	if len(tables) == 0 {
		return nil
	}
	_, err := p.DB.ExecContext(ctx, fmt.Sprintf("TRUNCATE TABLE %s", strings.Join(tables, ", ")))
	return err
}
