package cache

import (
	"context"
	"ev-charge-planner/internal/resilience"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryStore keeps entries in process memory. Expired items are reclaimed
// by the go-cache janitor; there is no size bound.
type MemoryStore struct {
	c *gocache.Cache
}

func NewMemoryStore(cleanupInterval time.Duration) *MemoryStore {
	return &MemoryStore{c: gocache.New(gocache.NoExpiration, cleanupInterval)}
}

func (s *MemoryStore) Load(ctx context.Context, key string) (resilience.Entry, bool, error) {
	v, ok := s.c.Get(key)
	if !ok {
		return resilience.Entry{}, false, nil
	}

	e, ok := v.(resilience.Entry)
	if !ok {
		return resilience.Entry{}, false, nil
	}

	return e, true, nil
}

func (s *MemoryStore) Save(ctx context.Context, key string, e resilience.Entry, ttl time.Duration) error {
	s.c.Set(key, e, ttl)
	return nil
}

// Len reports the number of stored items, including expired ones not yet reclaimed.
func (s *MemoryStore) Len() int {
	return s.c.ItemCount()
}
