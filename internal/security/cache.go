package security

import (
	"context"
	"errors"
	"time"

	"github.com/patrickmn/go-cache"
)

// notFoundEntry marks a cached miss so repeated rows for an unknown
// instrument do not hit the lookup service again.
type notFoundEntry struct{}

// CachedResolver memoizes hits and misses of the wrapped resolver. Lookup
// failures are never cached.
type CachedResolver struct {
	next  Resolver
	cache *cache.Cache
}

func NewCachedResolver(next Resolver, ttl time.Duration) *CachedResolver {
	return &CachedResolver{
		next:  next,
		cache: cache.New(ttl, 2*ttl),
	}
}

func (c *CachedResolver) Resolve(ctx context.Context, q Query) (*Security, error) {
	key := q.Key()

	if v, ok := c.cache.Get(key); ok {
		switch entry := v.(type) {
		case notFoundEntry:
			return nil, ErrNotFound
		case Security:
			return &entry, nil
		}
	}

	sec, err := c.next.Resolve(ctx, q)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			c.cache.SetDefault(key, notFoundEntry{})
		}

		return nil, err
	}

	c.cache.SetDefault(key, *sec)

	return sec, nil
}

// Len returns the number of cached entries, expired ones included until the janitor runs.
func (c *CachedResolver) Len() int {
	return c.cache.ItemCount()
}
