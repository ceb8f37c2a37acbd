package deposit

import (
	"context"
	"fmt"
	"sort"
	"sync"

	domain "locatio/pkg/domain"
	"locatio/pkg/platform/sentinel"
)

// InMemoryStore keeps settlements in memory for tests and development.
type InMemoryStore struct {
	mu          sync.RWMutex
	settlements map[domain.LeaseID][]*Settlement
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		settlements: make(map[domain.LeaseID][]*Settlement),
	}
}

func (s *InMemoryStore) Create(_ context.Context, settlement *Settlement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settlements[settlement.LeaseID] = append(s.settlements[settlement.LeaseID], cloneSettlement(settlement))
	return nil
}

func (s *InMemoryStore) ListByLease(_ context.Context, leaseID domain.LeaseID) ([]*Settlement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Settlement, 0, len(s.settlements[leaseID]))
	for _, settlement := range s.settlements[leaseID] {
		out = append(out, cloneSettlement(settlement))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *InMemoryStore) Current(_ context.Context, leaseID domain.LeaseID) (*Settlement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records := s.settlements[leaseID]
	if len(records) == 0 {
		return nil, fmt.Errorf("no settlement for lease %s: %w", leaseID, sentinel.ErrNotFound)
	}
	// Later insert wins CreatedAt ties: a recomputation within the same
	// instant is still the current settlement.
	latest := records[0]
	for _, settlement := range records[1:] {
		if !settlement.CreatedAt.Before(latest.CreatedAt) {
			latest = settlement
		}
	}
	return cloneSettlement(latest), nil
}

func cloneSettlement(settlement *Settlement) *Settlement {
	cp := *settlement
	cp.RetainedReasons = append([]string(nil), settlement.RetainedReasons...)
	if settlement.Supersedes != nil {
		supersedes := *settlement.Supersedes
		cp.Supersedes = &supersedes
	}
	return &cp
}
