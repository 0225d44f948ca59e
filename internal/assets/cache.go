package assets

import (
	"context"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/osama1998H/frappe/internal/domain"
)

// Cache stores rendered page assets per page and language.
type Cache interface {
	// Get returns the cached assets. ok is false on a miss.
	Get(ctx context.Context, page, lang string) (assets domain.PageAssets, ok bool, err error)

	// Set stores assets for page and lang.
	Set(ctx context.Context, page, lang string, assets domain.PageAssets) error

	// Invalidate drops the assets of page in every language.
	Invalidate(ctx context.Context, page string) error
}

// memoryCache is an in-process LRU with per-entry expiry.
type memoryCache struct {
	lru *expirable.LRU[string, domain.PageAssets]
}

// NewMemoryCache returns a Cache holding up to size entries for ttl each.
func NewMemoryCache(size int, ttl time.Duration) Cache {
	return &memoryCache{lru: expirable.NewLRU[string, domain.PageAssets](size, nil, ttl)}
}

func memoryKey(page, lang string) string {
	return page + "\x00" + lang
}

func (c *memoryCache) Get(_ context.Context, page, lang string) (domain.PageAssets, bool, error) {
	v, ok := c.lru.Get(memoryKey(page, lang))
	return v, ok, nil
}

func (c *memoryCache) Set(_ context.Context, page, lang string, assets domain.PageAssets) error {
	c.lru.Add(memoryKey(page, lang), assets)
	return nil
}

func (c *memoryCache) Invalidate(_ context.Context, page string) error {
	prefix := page + "\x00"
	for _, k := range c.lru.Keys() {
		if strings.HasPrefix(k, prefix) {
			c.lru.Remove(k)
		}
	}
	return nil
}
