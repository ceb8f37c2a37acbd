package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"locatio/internal/lease/models"
	"locatio/pkg/domain"
	"locatio/pkg/platform/sentinel"
)

// InMemoryStore keeps leases in memory for tests and development.
// A single mutex serializes Execute calls, which satisfies the
// single-writer-per-lease guarantee trivially. Reads and writes hand
// out clones so callers never share mutable state with the store.
type InMemoryStore struct {
	mu     sync.RWMutex
	leases map[domain.LeaseID]*models.Lease
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		leases: make(map[domain.LeaseID]*models.Lease),
	}
}

func (s *InMemoryStore) Create(_ context.Context, lease *models.Lease) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.leases[lease.ID]; ok {
		return fmt.Errorf("lease %s already exists: %w", lease.ID, sentinel.ErrInvalidState)
	}
	s.leases[lease.ID] = lease.Clone()
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, leaseID domain.LeaseID) (*models.Lease, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	lease, ok := s.leases[leaseID]
	if !ok {
		return nil, fmt.Errorf("lease %s not found: %w", leaseID, sentinel.ErrNotFound)
	}
	return lease.Clone(), nil
}

func (s *InMemoryStore) List(_ context.Context) ([]*models.Lease, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Lease, 0, len(s.leases))
	for _, lease := range s.leases {
		out = append(out, lease.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *InMemoryStore) Execute(_ context.Context, leaseID domain.LeaseID,
	validate func(*models.Lease) error,
	mutate func(*models.Lease)) (*models.Lease, error) {

	s.mu.Lock()
	defer s.mu.Unlock()

	lease, ok := s.leases[leaseID]
	if !ok {
		return nil, fmt.Errorf("lease %s not found: %w", leaseID, sentinel.ErrNotFound)
	}

	// Validate and mutate a clone so a validation failure leaves the
	// stored lease untouched.
	working := lease.Clone()
	if err := validate(working); err != nil {
		return nil, err
	}
	mutate(working)
	working.Version = lease.Version + 1

	s.leases[leaseID] = working
	return working.Clone(), nil
}
