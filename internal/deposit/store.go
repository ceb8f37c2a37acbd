package deposit

import (
	"context"

	domain "locatio/pkg/domain"
)

// Store persists deposit settlements. Settlements are append-only: a
// correction is a new record whose Supersedes points at the old one, and
// Current returns the newest record for a lease.
type Store interface {
	Create(ctx context.Context, settlement *Settlement) error
	ListByLease(ctx context.Context, leaseID domain.LeaseID) ([]*Settlement, error)
	// Current returns the most recent settlement for a lease, or
	// sentinel.ErrNotFound.
	Current(ctx context.Context, leaseID domain.LeaseID) (*Settlement, error)
}
