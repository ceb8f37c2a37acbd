package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"locatio/internal/lease/models"
	"locatio/pkg/domain"
	"locatio/pkg/platform/sentinel"
)

// PostgresStore persists leases in PostgreSQL.
//
// Schema:
//
//	CREATE TABLE leases (
//	    id                     UUID PRIMARY KEY,
//	    owner_id               UUID NOT NULL,
//	    tenant_id              UUID NOT NULL,
//	    property_id            UUID NOT NULL,
//	    start_date             DATE NOT NULL,
//	    end_date               DATE,
//	    monthly_rent           DOUBLE PRECISION NOT NULL,
//	    charges_provision      DOUBLE PRECISION NOT NULL,
//	    deposit_amount         DOUBLE PRECISION NOT NULL,
//	    status                 TEXT NOT NULL,
//	    signature_method       TEXT NOT NULL,
//	    signatures             JSONB NOT NULL,
//	    anchor_month           INT NOT NULL,
//	    anchor_day             INT NOT NULL,
//	    envelope_id            TEXT NOT NULL DEFAULT '',
//	    signature_round_failed BOOLEAN NOT NULL DEFAULT FALSE,
//	    version                INT NOT NULL,
//	    created_at             TIMESTAMPTZ NOT NULL,
//	    updated_at             TIMESTAMPTZ NOT NULL
//	);
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const leaseColumns = `id, owner_id, tenant_id, property_id, start_date, end_date,
	monthly_rent, charges_provision, deposit_amount, status, signature_method,
	signatures, anchor_month, anchor_day, envelope_id, signature_round_failed,
	version, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, lease *models.Lease) error {
	signatures, err := json.Marshal(lease.Signatures)
	if err != nil {
		return fmt.Errorf("marshal signatures: %w", err)
	}
	query := `
		INSERT INTO leases (` + leaseColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	`
	_, err = s.db.ExecContext(ctx, query,
		uuid.UUID(lease.ID), uuid.UUID(lease.OwnerID), uuid.UUID(lease.TenantID), uuid.UUID(lease.PropertyID),
		lease.StartDate, lease.EndDate,
		lease.MonthlyRent, lease.ChargesProvision, lease.DepositAmount,
		string(lease.Status), string(lease.SignatureMethod),
		signatures, int(lease.RevisionAnchor.Month), lease.RevisionAnchor.Day,
		lease.EnvelopeID, lease.SignatureRoundFailed,
		lease.Version, lease.CreatedAt, lease.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert lease: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, leaseID domain.LeaseID) (*models.Lease, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+leaseColumns+` FROM leases WHERE id = $1`, uuid.UUID(leaseID))
	lease, err := scanLease(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("lease %s not found: %w", leaseID, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find lease: %w", err)
	}
	return lease, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]*models.Lease, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+leaseColumns+` FROM leases ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list leases: %w", err)
	}
	defer rows.Close()

	var out []*models.Lease
	for rows.Next() {
		lease, err := scanLease(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lease: %w", err)
		}
		out = append(out, lease)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list leases: %w", err)
	}
	return out, nil
}

// Execute loads the lease under SELECT ... FOR UPDATE, validates,
// mutates, and writes it back with a version bump, all in one
// transaction. The row lock serializes concurrent writers per lease;
// the version check turns an unexpected interleaving into
// sentinel.ErrVersionConflict instead of a silent lost update.
func (s *PostgresStore) Execute(ctx context.Context, leaseID domain.LeaseID,
	validate func(*models.Lease) error,
	mutate func(*models.Lease)) (*models.Lease, error) {

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx, `SELECT `+leaseColumns+` FROM leases WHERE id = $1 FOR UPDATE`, uuid.UUID(leaseID))
	lease, err := scanLease(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("lease %s not found: %w", leaseID, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("lock lease: %w", err)
	}

	if err := validate(lease); err != nil {
		return nil, err
	}
	previousVersion := lease.Version
	mutate(lease)
	lease.Version = previousVersion + 1

	signatures, err := json.Marshal(lease.Signatures)
	if err != nil {
		return nil, fmt.Errorf("marshal signatures: %w", err)
	}
	result, err := tx.ExecContext(ctx, `
		UPDATE leases SET
			start_date = $2, end_date = $3,
			monthly_rent = $4, charges_provision = $5, deposit_amount = $6,
			status = $7, signature_method = $8, signatures = $9,
			anchor_month = $10, anchor_day = $11,
			envelope_id = $12, signature_round_failed = $13,
			version = $14, updated_at = $15
		WHERE id = $1 AND version = $16
	`,
		uuid.UUID(lease.ID), lease.StartDate, lease.EndDate,
		lease.MonthlyRent, lease.ChargesProvision, lease.DepositAmount,
		string(lease.Status), string(lease.SignatureMethod), signatures,
		int(lease.RevisionAnchor.Month), lease.RevisionAnchor.Day,
		lease.EnvelopeID, lease.SignatureRoundFailed,
		lease.Version, lease.UpdatedAt, previousVersion,
	)
	if err != nil {
		return nil, fmt.Errorf("update lease: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("update lease: %w", err)
	}
	if affected == 0 {
		return nil, fmt.Errorf("lease %s was modified concurrently: %w", leaseID, sentinel.ErrVersionConflict)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return lease, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLease(row rowScanner) (*models.Lease, error) {
	var (
		lease       models.Lease
		id          uuid.UUID
		ownerID     uuid.UUID
		tenantID    uuid.UUID
		propertyID  uuid.UUID
		endDate     sql.NullTime
		status      string
		method      string
		signatures  []byte
		anchorMonth int
	)
	err := row.Scan(
		&id, &ownerID, &tenantID, &propertyID,
		&lease.StartDate, &endDate,
		&lease.MonthlyRent, &lease.ChargesProvision, &lease.DepositAmount,
		&status, &method,
		&signatures, &anchorMonth, &lease.RevisionAnchor.Day,
		&lease.EnvelopeID, &lease.SignatureRoundFailed,
		&lease.Version, &lease.CreatedAt, &lease.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	lease.ID = domain.LeaseID(id)
	lease.OwnerID = domain.OwnerID(ownerID)
	lease.TenantID = domain.TenantID(tenantID)
	lease.PropertyID = domain.PropertyID(propertyID)
	if endDate.Valid {
		end := endDate.Time.UTC()
		lease.EndDate = &end
	}
	lease.StartDate = lease.StartDate.UTC()
	lease.Status = models.LeaseStatus(status)
	lease.SignatureMethod = models.SignatureMethod(method)
	lease.RevisionAnchor.Month = time.Month(anchorMonth)
	if err := json.Unmarshal(signatures, &lease.Signatures); err != nil {
		return nil, fmt.Errorf("unmarshal signatures: %w", err)
	}
	return &lease, nil
}
