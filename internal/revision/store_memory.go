package revision

import (
	"context"
	"sync"

	id "locatio/pkg/domain"
	"locatio/pkg/platform/sentinel"
)

// InMemoryStore keeps revision records per lease. It favors clarity over
// performance and backs unit tests and local development.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[id.LeaseID][]*Record
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[id.LeaseID][]*Record)}
}

func (s *InMemoryStore) Create(_ context.Context, record *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.records[record.LeaseID] {
		if existing.RevisionYear == record.RevisionYear && !existing.Superseded {
			existing.Superseded = true
		}
	}
	cp := *record
	s.records[record.LeaseID] = append(s.records[record.LeaseID], &cp)
	return nil
}

func (s *InMemoryStore) ListByLease(_ context.Context, leaseID id.LeaseID) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Record, 0, len(s.records[leaseID]))
	for _, r := range s.records[leaseID] {
		cp := *r
		out = append(out, &cp)
	}
	return out, nil
}

func (s *InMemoryStore) Current(_ context.Context, leaseID id.LeaseID, year int) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.records[leaseID] {
		if r.RevisionYear == year && !r.Superseded {
			cp := *r
			return &cp, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

// InMemoryDedupStore is the process-local DedupStore used in tests and when
// Redis is not configured. Keys are never evicted; the Redis implementation
// applies a TTL instead.
type InMemoryDedupStore struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewInMemoryDedupStore() *InMemoryDedupStore {
	return &InMemoryDedupStore{seen: make(map[string]struct{})}
}

func (s *InMemoryDedupStore) MarkSent(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.seen[key]; ok {
		return false, nil
	}
	s.seen[key] = struct{}{}
	return true, nil
}

func (s *InMemoryDedupStore) Unmark(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.seen, key)
	return nil
}
