package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/flicky/hortifruti-api/internal/model"
)

const (
	notificationsKey    = "notifications"
	maxNotificationKeep = 100
)

type NotificationRepository interface {
	Push(ctx context.Context, n model.Notification) error
	List(ctx context.Context, limit int) ([]model.Notification, error)
}

// redisNotificationRepo keeps a capped, newest-first feed in a Redis list.
type redisNotificationRepo struct{ client *redis.Client }

func NewNotificationRepository(client *redis.Client) NotificationRepository {
	return &redisNotificationRepo{client: client}
}

func (r *redisNotificationRepo) Push(ctx context.Context, n model.Notification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, notificationsKey, data)
		pipe.LTrim(ctx, notificationsKey, 0, maxNotificationKeep-1)
		return nil
	})
	if err != nil {
		return fmt.Errorf("push notification: %w", err)
	}
	return nil
}

func (r *redisNotificationRepo) List(ctx context.Context, limit int) ([]model.Notification, error) {
	if limit <= 0 || limit > maxNotificationKeep {
		limit = maxNotificationKeep
	}
	raw, err := r.client.LRange(ctx, notificationsKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	out := make([]model.Notification, 0, len(raw))
	for _, s := range raw {
		var n model.Notification
		if err := json.Unmarshal([]byte(s), &n); err != nil {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}
