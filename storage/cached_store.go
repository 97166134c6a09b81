package storage

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"scooper-dashboard/metrics"
)

// CachedStore serves snapshots from memory for up to ttl after they were
// fetched, then goes back to the wrapped store.
type CachedStore struct {
	inner FeedStore
	cache *expirable.LRU[string, []byte]
}

// NewCachedStore wraps inner with a bounded freshness cache.
func NewCachedStore(inner FeedStore, size int, ttl time.Duration) *CachedStore {
	if size <= 0 {
		size = 64
	}
	return &CachedStore{
		inner: inner,
		cache: expirable.NewLRU[string, []byte](size, nil, ttl),
	}
}

func (c *CachedStore) Fetch(ctx context.Context, key string) ([]byte, error) {
	if b, ok := c.cache.Get(key); ok {
		metrics.CacheRequests.WithLabelValues("hit").Inc()
		return b, nil
	}
	metrics.CacheRequests.WithLabelValues("miss").Inc()

	b, err := c.inner.Fetch(ctx, key)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, b)
	return b, nil
}

// Invalidate forgets key so the next Fetch reads through.
func (c *CachedStore) Invalidate(key string) {
	c.cache.Remove(key)
}

// Purge empties the cache.
func (c *CachedStore) Purge() {
	c.cache.Purge()
}
