package revision

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	id "locatio/pkg/domain"
	"locatio/pkg/platform/sentinel"
)

// PostgresStore persists revision records in PostgreSQL. This store is pure
// I/O; the indexation formula and year invariants belong to the calculator
// and service.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Create supersedes any live record for the same lease and year, then inserts
// the new one, in a single transaction. A partial unique index on
// (lease_id, revision_year) WHERE NOT superseded backs the invariant.
func (s *PostgresStore) Create(ctx context.Context, record *Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin revision tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	_, err = tx.ExecContext(ctx, `
		UPDATE revision_records
		SET superseded = TRUE
		WHERE lease_id = $1 AND revision_year = $2 AND NOT superseded
	`, uuid.UUID(record.LeaseID), record.RevisionYear)
	if err != nil {
		return fmt.Errorf("supersede revision records: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO revision_records (
			id, lease_id, revision_year, irl_quarter,
			reference_irl_value, new_irl_value,
			old_rent_amount, new_rent_amount, increase_amount, increase_percentage,
			superseded, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, FALSE, $11)
	`,
		uuid.UUID(record.ID),
		uuid.UUID(record.LeaseID),
		record.RevisionYear,
		record.IRLQuarter,
		record.ReferenceIRLValue,
		record.NewIRLValue,
		record.OldRentAmount,
		record.NewRentAmount,
		record.IncreaseAmount,
		record.IncreasePercentage,
		record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert revision record: %w", err)
	}

	return tx.Commit()
}

func (s *PostgresStore) ListByLease(ctx context.Context, leaseID id.LeaseID) ([]*Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, lease_id, revision_year, irl_quarter,
		       reference_irl_value, new_irl_value,
		       old_rent_amount, new_rent_amount, increase_amount, increase_percentage,
		       superseded, created_at
		FROM revision_records
		WHERE lease_id = $1
		ORDER BY revision_year, created_at
	`, uuid.UUID(leaseID))
	if err != nil {
		return nil, fmt.Errorf("list revision records: %w", err)
	}
	defer rows.Close()

	var out []*Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, record)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Current(ctx context.Context, leaseID id.LeaseID, year int) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, lease_id, revision_year, irl_quarter,
		       reference_irl_value, new_irl_value,
		       old_rent_amount, new_rent_amount, increase_amount, increase_percentage,
		       superseded, created_at
		FROM revision_records
		WHERE lease_id = $1 AND revision_year = $2 AND NOT superseded
	`, uuid.UUID(leaseID), year)

	record, err := scanRecord(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get current revision record: %w", err)
	}
	return record, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var (
		record            Record
		recordID, leaseID uuid.UUID
	)
	err := row.Scan(
		&recordID,
		&leaseID,
		&record.RevisionYear,
		&record.IRLQuarter,
		&record.ReferenceIRLValue,
		&record.NewIRLValue,
		&record.OldRentAmount,
		&record.NewRentAmount,
		&record.IncreaseAmount,
		&record.IncreasePercentage,
		&record.Superseded,
		&record.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	record.ID = id.RevisionID(recordID)
	record.LeaseID = id.LeaseID(leaseID)
	return &record, nil
}
