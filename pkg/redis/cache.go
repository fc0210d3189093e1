package redis

import (
	"context"
	"time"
)

// Cache hash-per-scope read-through cache. Every view cached for an outlet or floor is a field
// of one hash, so a single DEL drops all of them. Each hash has a generation counter; a reader
// that loaded from the database before an invalidation cannot write its result back.
type Cache struct {
	c *Client
}

// NewCache wraps the client as a view cache
func NewCache(c *Client) *Cache {
	return &Cache{c: c}
}

// Get one cached view
func (k *Cache) Get(ctx context.Context, key, field string) (string, bool, error) {
	return k.c.HGet(ctx, key, field)
}

// Generation read before loading the view from the database
func (k *Cache) Generation(ctx context.Context, key string) (int64, error) {
	return k.c.CacheGeneration(ctx, key)
}

// Set stores one view if key is still at gen; a stale write is silently dropped
func (k *Cache) Set(ctx context.Context, key, field, value string, gen int64, ttl time.Duration) error {
	_, err := k.c.HSetIfGeneration(ctx, key, field, value, gen, ttl)
	return err
}

// Invalidate drops every view under keys
func (k *Cache) Invalidate(ctx context.Context, keys ...string) error {
	return k.c.InvalidateCache(ctx, keys...)
}
