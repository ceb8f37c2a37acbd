package regularization

import (
	"context"
	"sort"
	"sync"

	domain "locatio/pkg/domain"
)

// InMemoryStore keeps regularizations in memory for tests and development.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[domain.LeaseID][]*Regularization
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		records: make(map[domain.LeaseID][]*Regularization),
	}
}

func (s *InMemoryStore) Create(_ context.Context, record *Regularization) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.LeaseID] = append(s.records[record.LeaseID], clone(record))
	return nil
}

func (s *InMemoryStore) ListByLease(_ context.Context, leaseID domain.LeaseID) ([]*Regularization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Regularization, 0, len(s.records[leaseID]))
	for _, record := range s.records[leaseID] {
		out = append(out, clone(record))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func clone(record *Regularization) *Regularization {
	cp := *record
	cp.Lines = append([]ChargeLine(nil), record.Lines...)
	return &cp
}
