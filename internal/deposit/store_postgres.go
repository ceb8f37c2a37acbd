package deposit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	domain "locatio/pkg/domain"
	"locatio/pkg/platform/sentinel"
)

// PostgresStore persists settlements in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const settlementColumns = `id, lease_id, deposit_amount, retained_amount, retained_reasons,
	refund_amount, restitution_deadline_days, deadline_date, move_out_date,
	supersedes, created_at`

func (s *PostgresStore) Create(ctx context.Context, settlement *Settlement) error {
	var supersedes any
	if settlement.Supersedes != nil {
		supersedes = uuid.UUID(*settlement.Supersedes)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settlements (`+settlementColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`,
		uuid.UUID(settlement.ID), uuid.UUID(settlement.LeaseID),
		settlement.DepositAmount, settlement.RetainedAmount, pq.Array(settlement.RetainedReasons),
		settlement.RefundAmount, settlement.RestitutionDeadlineDays,
		settlement.DeadlineDate, settlement.MoveOutDate,
		supersedes, settlement.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert settlement: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByLease(ctx context.Context, leaseID domain.LeaseID) ([]*Settlement, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+settlementColumns+` FROM settlements
		WHERE lease_id = $1
		ORDER BY created_at
	`, uuid.UUID(leaseID))
	if err != nil {
		return nil, fmt.Errorf("list settlements: %w", err)
	}
	defer rows.Close()

	var out []*Settlement
	for rows.Next() {
		settlement, err := scanSettlement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan settlement: %w", err)
		}
		out = append(out, settlement)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Current(ctx context.Context, leaseID domain.LeaseID) (*Settlement, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+settlementColumns+` FROM settlements
		WHERE lease_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`, uuid.UUID(leaseID))
	settlement, err := scanSettlement(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("no settlement for lease %s: %w", leaseID, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("get current settlement: %w", err)
	}
	return settlement, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSettlement(row rowScanner) (*Settlement, error) {
	var (
		settlement   Settlement
		settlementID uuid.UUID
		leaseID      uuid.UUID
		supersedes   uuid.NullUUID
		reasons      pq.StringArray
	)
	err := row.Scan(
		&settlementID, &leaseID,
		&settlement.DepositAmount, &settlement.RetainedAmount, &reasons,
		&settlement.RefundAmount, &settlement.RestitutionDeadlineDays,
		&settlement.DeadlineDate, &settlement.MoveOutDate,
		&supersedes, &settlement.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	settlement.ID = domain.SettlementID(settlementID)
	settlement.LeaseID = domain.LeaseID(leaseID)
	settlement.RetainedReasons = []string(reasons)
	settlement.DeadlineDate = settlement.DeadlineDate.UTC()
	settlement.MoveOutDate = settlement.MoveOutDate.UTC()
	if supersedes.Valid {
		prev := domain.SettlementID(supersedes.UUID)
		settlement.Supersedes = &prev
	}
	return &settlement, nil
}
