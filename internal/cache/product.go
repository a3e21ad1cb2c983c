package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/flicky/hortifruti-api/internal/model"
)

const productKeyPrefix = "product:"

// ProductCache is a read-through cache for single products. A nil
// *ProductCache is valid and caches nothing.
type ProductCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewProductCache(client *redis.Client, ttl time.Duration) *ProductCache {
	if client == nil {
		return nil
	}
	return &ProductCache{client: client, ttl: ttl}
}

func productKey(id uuid.UUID) string { return productKeyPrefix + id.String() }

func (c *ProductCache) Get(ctx context.Context, id uuid.UUID) (*model.Product, bool) {
	if c == nil {
		return nil, false
	}
	cached, err := c.client.Get(ctx, productKey(id)).Bytes()
	if err != nil {
		return nil, false
	}
	var p model.Product
	if err := json.Unmarshal(cached, &p); err != nil {
		return nil, false
	}
	return &p, true
}

func (c *ProductCache) Set(ctx context.Context, p *model.Product) {
	if c == nil || p == nil {
		return
	}
	if data, err := json.Marshal(p); err == nil {
		c.client.Set(ctx, productKey(p.ID), data, c.ttl)
	}
}

func (c *ProductCache) Invalidate(ctx context.Context, ids ...uuid.UUID) {
	if c == nil || len(ids) == 0 {
		return
	}
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, productKey(id))
	}
	c.client.Del(ctx, keys...)
}
