package notice

import (
	"context"

	id "locatio/pkg/domain"
)

// Store persists termination notices. Notices are immutable: there is no
// update operation, a correction is a new Notice.
type Store interface {
	Create(ctx context.Context, n *Notice) error
	ListByLease(ctx context.Context, leaseID id.LeaseID) ([]*Notice, error)
}
