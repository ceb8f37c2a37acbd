package regularization

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	domain "locatio/pkg/domain"
)

// PostgresStore persists regularizations in PostgreSQL. Charge lines are
// stored as JSONB alongside the computed figures.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, record *Regularization) error {
	lines, err := json.Marshal(record.Lines)
	if err != nil {
		return fmt.Errorf("marshal charge lines: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO regularizations (
			lease_id, year, period_start, period_end, occupation_days,
			total_provisions_collected, total_real_charges,
			recoverable_charges, non_recoverable_charges,
			tenant_balance, balance_type, lines, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`,
		uuid.UUID(record.LeaseID), record.Year,
		record.PeriodStart, record.PeriodEnd, record.OccupationDays,
		record.TotalProvisionsCollected, record.TotalRealCharges,
		record.RecoverableCharges, record.NonRecoverableCharges,
		record.TenantBalance, string(record.BalanceType), lines, record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert regularization: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByLease(ctx context.Context, leaseID domain.LeaseID) ([]*Regularization, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT lease_id, year, period_start, period_end, occupation_days,
		       total_provisions_collected, total_real_charges,
		       recoverable_charges, non_recoverable_charges,
		       tenant_balance, balance_type, lines, created_at
		FROM regularizations
		WHERE lease_id = $1
		ORDER BY year, created_at
	`, uuid.UUID(leaseID))
	if err != nil {
		return nil, fmt.Errorf("list regularizations: %w", err)
	}
	defer rows.Close()

	var out []*Regularization
	for rows.Next() {
		var (
			record      Regularization
			leaseUID    uuid.UUID
			balanceType string
			lines       []byte
		)
		err := rows.Scan(
			&leaseUID, &record.Year,
			&record.PeriodStart, &record.PeriodEnd, &record.OccupationDays,
			&record.TotalProvisionsCollected, &record.TotalRealCharges,
			&record.RecoverableCharges, &record.NonRecoverableCharges,
			&record.TenantBalance, &balanceType, &lines, &record.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan regularization: %w", err)
		}
		record.LeaseID = domain.LeaseID(leaseUID)
		record.BalanceType = BalanceType(balanceType)
		record.PeriodStart = record.PeriodStart.UTC()
		record.PeriodEnd = record.PeriodEnd.UTC()
		if err := json.Unmarshal(lines, &record.Lines); err != nil {
			return nil, fmt.Errorf("unmarshal charge lines: %w", err)
		}
		out = append(out, &record)
	}
	return out, rows.Err()
}
