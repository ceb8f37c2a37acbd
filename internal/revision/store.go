package revision

import (
	"context"

	id "locatio/pkg/domain"
)

// Store persists revision records. Create must atomically supersede any
// previous record for the same lease and revision year so the
// one-non-superseded-record-per-year invariant holds under concurrent writes.
type Store interface {
	Create(ctx context.Context, record *Record) error
	ListByLease(ctx context.Context, leaseID id.LeaseID) ([]*Record, error)
	// Current returns the non-superseded record for a lease and year, or
	// sentinel.ErrNotFound.
	Current(ctx context.Context, leaseID id.LeaseID, year int) (*Record, error)
}

// DedupStore remembers which reminders were already emitted. MarkSent returns
// true exactly once per key; a second call for the same key returns false.
// Unmark releases a claimed key when the reminder could not actually be
// emitted, so a later scan retries it.
type DedupStore interface {
	MarkSent(ctx context.Context, key string) (bool, error)
	Unmark(ctx context.Context, key string) error
}
