package notice

import (
	"context"
	"sort"
	"sync"

	id "locatio/pkg/domain"
)

// InMemoryStore keeps notices in memory for tests and development.
type InMemoryStore struct {
	mu      sync.RWMutex
	notices map[id.LeaseID][]*Notice
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		notices: make(map[id.LeaseID][]*Notice),
	}
}

func (s *InMemoryStore) Create(_ context.Context, n *Notice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *n
	s.notices[n.LeaseID] = append(s.notices[n.LeaseID], &cp)
	return nil
}

func (s *InMemoryStore) ListByLease(_ context.Context, leaseID id.LeaseID) ([]*Notice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Notice, 0, len(s.notices[leaseID]))
	for _, n := range s.notices[leaseID] {
		cp := *n
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}
