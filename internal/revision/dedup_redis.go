package revision

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisDedupStore deduplicates reminder emission across processes using
// SET NX. The TTL keeps the keyspace bounded; it only needs to exceed the
// window in which the same (lease, anchor date, type) key can recur.
type RedisDedupStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisDedupStore(client *redis.Client, ttl time.Duration) *RedisDedupStore {
	return &RedisDedupStore{client: client, ttl: ttl}
}

func (s *RedisDedupStore) MarkSent(ctx context.Context, key string) (bool, error) {
	ok, err := s.client.SetNX(ctx, "revision-reminder:"+key, 1, s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("mark reminder sent: %w", err)
	}
	return ok, nil
}

func (s *RedisDedupStore) Unmark(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, "revision-reminder:"+key).Err(); err != nil {
		return fmt.Errorf("unmark reminder: %w", err)
	}
	return nil
}
