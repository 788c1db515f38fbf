package catalogs

import (
	"context"
	"fmt"

	"github.com/jonathan/career-roadmap/internal/cache"
)

// Cached memoizes successful searches of a catalog
type Cached struct {
	inner Catalog
	cache *cache.Cache
}

// NewCached wraps inner with c. A nil cache disables caching.
func NewCached(inner Catalog, c *cache.Cache) *Cached {
	return &Cached{inner: inner, cache: c}
}

func (c *Cached) Name() string { return c.inner.Name() }

func (c *Cached) Search(ctx context.Context, query string, maxResults int) ([]Resource, error) {
	key := cache.Key("catalog", c.inner.Name(), query, fmt.Sprint(maxResults))
	var hit []Resource
	if c.cache.Get(ctx, key, &hit) {
		return hit, nil
	}
	res, err := c.inner.Search(ctx, query, maxResults)
	if err != nil {
		return nil, err
	}
	c.cache.Set(ctx, key, res)
	return res, nil
}
