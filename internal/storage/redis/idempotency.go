package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/tidex114/est-backend/internal/app"
)

// IdempotencyStore keeps reservation idempotency state in Redis. The lock key
// fences a request in flight; the map key remembers the committed result.
type IdempotencyStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewIdempotencyStore(rdb *redis.Client, ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{rdb: rdb, ttl: ttl}
}

func (s *IdempotencyStore) TryLock(ctx context.Context, scope, key string) (bool, error) {
	return s.rdb.SetNX(ctx, "resv:lock:"+scope+":"+key, "1", s.ttl).Result()
}

func (s *IdempotencyStore) Remember(ctx context.Context, scope, key, value string) error {
	return s.rdb.Set(ctx, "resv:map:"+scope+":"+key, value, s.ttl).Err()
}

func (s *IdempotencyStore) Recall(ctx context.Context, scope, key string) (string, bool, error) {
	val, err := s.rdb.Get(ctx, "resv:map:"+scope+":"+key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

var _ app.IdempotencyStore = (*IdempotencyStore)(nil)
