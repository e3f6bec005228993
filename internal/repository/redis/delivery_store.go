package redis

import (
	"context"
	"time"

	"expert-backend/internal/domain"

	goredis "github.com/redis/go-redis/v9"
)

const deliveryKeyPrefix = "webhook:delivery:"

type deliveryStore struct {
	client *goredis.Client
}

// NewDeliveryStore returns a Redis-backed store, or nil when client is nil
// so webhook processing runs without deduplication.
func NewDeliveryStore(client *goredis.Client) domain.DeliveryStore {
	if client == nil {
		return nil
	}
	return &deliveryStore{client: client}
}

func (s *deliveryStore) MarkProcessed(ctx context.Context, id string, ttl time.Duration) (bool, error) {
	return s.client.SetNX(ctx, deliveryKeyPrefix+id, time.Now().Unix(), ttl).Result()
}

func (s *deliveryStore) Forget(ctx context.Context, id string) error {
	return s.client.Del(ctx, deliveryKeyPrefix+id).Err()
}
