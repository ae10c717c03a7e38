package todo

import (
	"context"

	domain "github.com/KamilBuksa/SimpleTodo/domain/todo"
	"github.com/KamilBuksa/SimpleTodo/modules/cache"
	"github.com/go-monolith/mono/pkg/types"
	"golang.org/x/sync/singleflight"
)

// itemCache is a cache-aside layer for single-task reads. A nil cache
// service turns every call into a pass-through.
type itemCache struct {
	cache   cache.CacheService
	logger  types.Logger
	sfGroup singleflight.Group
}

func newItemCache(c cache.CacheService, logger types.Logger) *itemCache {
	return &itemCache{cache: c, logger: logger}
}

func itemKey(userID, id string) string {
	return "item:" + userID + ":" + id
}

// get returns the cached task or loads it. Concurrent misses for the same
// key share one load.
func (c *itemCache) get(ctx context.Context, userID, id string, load func() (*domain.Todo, error)) (*domain.Todo, error) {
	if c == nil || c.cache == nil {
		return load()
	}

	key := itemKey(userID, id)
	var cached domain.Todo
	found, err := c.cache.Get(ctx, key, &cached)
	if err != nil {
		c.logger.Warn("Cache read failed", "key", key, "error", err)
	}
	if found {
		c.logger.Debug("Cache hit", "key", key)
		return &cached, nil
	}

	val, err, _ := c.sfGroup.Do(key, func() (any, error) {
		return load()
	})
	if err != nil {
		return nil, err
	}
	t := val.(*domain.Todo)

	if err := c.cache.Set(ctx, key, t); err != nil {
		c.logger.Warn("Cache write failed", "key", key, "error", err)
	}
	return t, nil
}

// invalidate drops the cached copy after a write.
func (c *itemCache) invalidate(ctx context.Context, userID, id string) {
	if c == nil || c.cache == nil {
		return
	}
	key := itemKey(userID, id)
	if err := c.cache.Delete(ctx, key); err != nil {
		c.logger.Warn("Cache invalidation failed", "key", key, "error", err)
	}
}
