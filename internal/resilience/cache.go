package resilience

import (
	"context"
	"encoding/json"
	"ev-charge-planner/internal/platform/obs"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Entry is a stored value together with the instant it was written.
type Entry struct {
	Value    []byte
	StoredAt time.Time
}

// Store is the storage behind a Cache. Implementations may drop entries
// after ttl, but liveness is always decided by the Cache from StoredAt.
type Store interface {
	Load(ctx context.Context, key string) (Entry, bool, error)
	Save(ctx context.Context, key string, e Entry, ttl time.Duration) error
}

// Cache is a time-bound read-through cache whose loader runs under a retry Policy.
//
// A value written at T is served for reads before T+ttl; a read at or after
// T+ttl invokes the loader again. There is no size bound: entries are only
// reclaimed by TTL expiry in the underlying store.
type Cache[T any] struct {
	name   string
	ttl    time.Duration
	store  Store
	policy Policy
	logger *zap.Logger
	now    func() time.Time
	group  singleflight.Group
}

type CacheOption func(*cacheOptions)

type cacheOptions struct {
	now func() time.Time
}

// WithClock replaces time.Now, used to test TTL boundaries.
func WithClock(now func() time.Time) CacheOption {
	return func(o *cacheOptions) { o.now = now }
}

func NewCache[T any](name string, ttl time.Duration, store Store, policy Policy, logger *zap.Logger, opts ...CacheOption) *Cache[T] {
	o := cacheOptions{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Cache[T]{
		name:   name,
		ttl:    ttl,
		store:  store,
		policy: policy,
		logger: logger,
		now:    o.now,
	}
}

func (c *Cache[T]) TTL() time.Duration { return c.ttl }

// GetOrCompute returns the live value for key, or runs loader, stores its
// result and returns it. Concurrent misses on the same key share one load.
func (c *Cache[T]) GetOrCompute(ctx context.Context, key string, loader func(ctx context.Context) (T, error)) (T, error) {
	fullKey := c.name + ":" + key

	if v, ok := c.lookup(ctx, fullKey); ok {
		return v, nil
	}

	// The shared load must not inherit one caller's cancellation; each caller
	// still stops waiting when its own ctx ends.
	loadCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(fullKey, func() (any, error) {
		if v, ok := c.lookup(loadCtx, fullKey); ok {
			return v, nil
		}
		return c.load(loadCtx, fullKey, loader)
	})

	var zero T
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return zero, r.Err
		}
		return r.Val.(T), nil
	}
}

func (c *Cache[T]) lookup(ctx context.Context, key string) (T, bool) {
	var zero T

	e, ok, err := c.store.Load(ctx, key)
	if err != nil {
		c.logger.Warn("cache read failed", zap.String("cache", c.name), zap.String("key", key), zap.Error(err))
		return zero, false
	}
	if !ok || c.now().Sub(e.StoredAt) >= c.ttl {
		return zero, false
	}

	var v T
	if err := json.Unmarshal(e.Value, &v); err != nil {
		c.logger.Warn("cache decode failed", zap.String("cache", c.name), zap.String("key", key), zap.Error(err))
		return zero, false
	}

	return v, true
}

func (c *Cache[T]) load(ctx context.Context, key string, loader func(ctx context.Context) (T, error)) (_ T, err error) {
	defer obs.Time(ctx, c.logger, "cache.load."+c.name)(&err)

	var v T
	err = c.policy.Do(ctx, func(ctx context.Context) error {
		var e error
		v, e = loader(ctx)
		return e
	})
	if err != nil {
		var zero T
		return zero, err
	}

	payload, err := json.Marshal(v)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("cache %s: encode value: %w", c.name, err)
	}

	// A failed write only costs a future miss.
	if err := c.store.Save(ctx, key, Entry{Value: payload, StoredAt: c.now()}, c.ttl); err != nil {
		c.logger.Warn("cache write failed", zap.String("cache", c.name), zap.String("key", key), zap.Error(err))
	}

	return v, nil
}
