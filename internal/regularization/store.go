package regularization

import (
	"context"

	domain "locatio/pkg/domain"
)

// Store persists charge regularizations. Records are append-only; a
// recomputation for the same year inserts a newer record, and readers
// take the latest per year.
type Store interface {
	Create(ctx context.Context, record *Regularization) error
	ListByLease(ctx context.Context, leaseID domain.LeaseID) ([]*Regularization, error)
}
