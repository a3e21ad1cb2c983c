package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Deduper records processed message ids so redelivered messages are skipped.
type Deduper struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewDeduper(client *redis.Client, prefix string, ttl time.Duration) *Deduper {
	return &Deduper{client: client, prefix: prefix, ttl: ttl}
}

// Claim reports whether the caller is the first to see key.
func (d *Deduper) Claim(ctx context.Context, key string) (bool, error) {
	ok, err := d.client.SetNX(ctx, d.prefix+key, "1", d.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("claim %s: %w", key, err)
	}
	return ok, nil
}

// Release forgets key so a failed message can be retried.
func (d *Deduper) Release(ctx context.Context, key string) error {
	if err := d.client.Del(ctx, d.prefix+key).Err(); err != nil {
		return fmt.Errorf("release %s: %w", key, err)
	}
	return nil
}
