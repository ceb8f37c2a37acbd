package store

import (
	"context"

	"locatio/internal/lease/models"
	"locatio/pkg/domain"
)

// Error Contract:
// All store methods follow this error pattern:
// - Return sentinel.ErrNotFound when the requested lease does not exist
// - Return sentinel.ErrVersionConflict when a concurrent writer won the race
// - Return nil for successful operations
// - Return wrapped errors with context for infrastructure failures

// Store persists lease aggregates.
//
// Execute is the single-writer-per-lease primitive: it loads the lease,
// runs validate, and if validate passes runs mutate and persists the
// result, all while holding the per-lease lock (a mutex in memory,
// SELECT ... FOR UPDATE in PostgreSQL). Two concurrent signature
// submissions therefore cannot both observe "not yet active" and
// independently skip the activation transition. The version increments
// on every persisted mutation.
type Store interface {
	Create(ctx context.Context, lease *models.Lease) error
	FindByID(ctx context.Context, leaseID domain.LeaseID) (*models.Lease, error)
	List(ctx context.Context) ([]*models.Lease, error)
	Execute(ctx context.Context, leaseID domain.LeaseID,
		validate func(*models.Lease) error,
		mutate func(*models.Lease)) (*models.Lease, error)
}
