package idempotency

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store marks messages as handled using a redis SETNX with a TTL. The outbox
// relay delivers at-least-once, so consumers ask Seen before acting.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl}
}

// EventKey keys on the outbox event id rather than topic/partition/offset, so
// a redelivery after a partition rebalance still dedups.
func (s *Store) EventKey(consumer string, eventID int64) string {
	return fmt.Sprintf("idem:%s:%d", consumer, eventID)
}

// Seen reports whether key was already claimed, claiming it if not.
func (s *Store) Seen(ctx context.Context, key string) (bool, error) {
	ok, err := s.rdb.SetNX(ctx, key, "1", s.ttl).Result()
	if err != nil {
		return false, err
	}
	return !ok, nil
}
