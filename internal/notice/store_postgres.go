package notice

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	id "locatio/pkg/domain"
)

// PostgresStore persists notices in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, n *Notice) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notices (id, lease_id, notice_date, notice_period_months, move_out_date, issued_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		uuid.UUID(n.ID), uuid.UUID(n.LeaseID),
		n.NoticeDate, n.PeriodMonths, n.MoveOutDate,
		string(n.IssuedBy), n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert notice: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByLease(ctx context.Context, leaseID id.LeaseID) ([]*Notice, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, lease_id, notice_date, notice_period_months, move_out_date, issued_by, created_at
		FROM notices
		WHERE lease_id = $1
		ORDER BY created_at
	`, uuid.UUID(leaseID))
	if err != nil {
		return nil, fmt.Errorf("list notices: %w", err)
	}
	defer rows.Close()

	var out []*Notice
	for rows.Next() {
		var (
			n                  Notice
			noticeID, leaseUID uuid.UUID
			issuedBy           string
		)
		if err := rows.Scan(&noticeID, &leaseUID, &n.NoticeDate, &n.PeriodMonths, &n.MoveOutDate, &issuedBy, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notice: %w", err)
		}
		n.ID = id.NoticeID(noticeID)
		n.LeaseID = id.LeaseID(leaseUID)
		n.IssuedBy = IssuedBy(issuedBy)
		n.NoticeDate = n.NoticeDate.UTC()
		n.MoveOutDate = n.MoveOutDate.UTC()
		out = append(out, &n)
	}
	return out, rows.Err()
}
