package assets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/osama1998H/frappe/internal/domain"
)

// redisCache keeps one hash per page, with a field per language, so a page
// is invalidated with a single DEL.
type redisCache struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
}

// NewRedisCache returns a Cache backed by client. Keys are "{prefix}{page}".
func NewRedisCache(client redis.Cmdable, prefix string, ttl time.Duration) Cache {
	return &redisCache{client: client, prefix: prefix, ttl: ttl}
}

// cachedAssets is the stored form; Dynamic assets are never cached.
type cachedAssets struct {
	Script string `json:"script"`
	Style  string `json:"style"`
}

func (c *redisCache) key(page string) string {
	return c.prefix + page
}

func (c *redisCache) Get(ctx context.Context, page, lang string) (domain.PageAssets, bool, error) {
	b, err := c.client.HGet(ctx, c.key(page), lang).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.PageAssets{}, false, nil
	}
	if err != nil {
		return domain.PageAssets{}, false, fmt.Errorf("assets.redisCache.Get: %w", err)
	}
	var v cachedAssets
	if err := json.Unmarshal(b, &v); err != nil {
		return domain.PageAssets{}, false, fmt.Errorf("assets.redisCache.Get: decode: %w", err)
	}
	return domain.PageAssets{Script: v.Script, Style: v.Style}, true, nil
}

func (c *redisCache) Set(ctx context.Context, page, lang string, assets domain.PageAssets) error {
	b, err := json.Marshal(cachedAssets{Script: assets.Script, Style: assets.Style})
	if err != nil {
		return fmt.Errorf("assets.redisCache.Set: %w", err)
	}
	key := c.key(page)
	_, err = c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, lang, b)
		if c.ttl > 0 {
			pipe.Expire(ctx, key, c.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("assets.redisCache.Set: %w", err)
	}
	return nil
}

func (c *redisCache) Invalidate(ctx context.Context, page string) error {
	if err := c.client.Del(ctx, c.key(page)).Err(); err != nil {
		return fmt.Errorf("assets.redisCache.Invalidate: %w", err)
	}
	return nil
}
