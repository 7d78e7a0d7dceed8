package cache

import (
	"context"
	"encoding/json"
	"errors"
	"ev-charge-planner/internal/resilience"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type redisEntry struct {
	Value    json.RawMessage `json:"v"`
	StoredAt time.Time       `json:"t"`
}

// RedisStore shares cache entries between planner instances.
// Keys expire in Redis after their TTL.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(k string) string {
	return fmt.Sprintf("%s:%s", s.prefix, k)
}

func (s *RedisStore) Load(ctx context.Context, key string) (resilience.Entry, bool, error) {
	raw, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return resilience.Entry{}, false, nil
	}
	if err != nil {
		return resilience.Entry{}, false, fmt.Errorf("redis store get %q: %w", key, err)
	}

	var e redisEntry
	if err := json.Unmarshal(raw, &e); err != nil {
		return resilience.Entry{}, false, fmt.Errorf("redis store decode %q: %w", key, err)
	}

	return resilience.Entry{Value: e.Value, StoredAt: e.StoredAt}, true, nil
}

func (s *RedisStore) Save(ctx context.Context, key string, e resilience.Entry, ttl time.Duration) error {
	raw, err := json.Marshal(redisEntry{Value: e.Value, StoredAt: e.StoredAt})
	if err != nil {
		return fmt.Errorf("redis store encode %q: %w", key, err)
	}

	if err := s.client.Set(ctx, s.key(key), raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis store set %q: %w", key, err)
	}

	return nil
}
