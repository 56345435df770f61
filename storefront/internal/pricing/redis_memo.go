package pricing

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const memoKeyPrefix = "price:"

// RedisMemo shares pseudo-prices between storefront replicas so a volume gets
// the same price whichever instance served it first.
type RedisMemo struct {
	client *redis.Client
}

func NewRedisMemo(client *redis.Client) *RedisMemo {
	return &RedisMemo{client: client}
}

func (m *RedisMemo) Get(ctx context.Context, seed string) (string, bool, error) {
	val, err := m.client.Get(ctx, memoKeyPrefix+seed).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get failed: %w", err)
	}
	return val, true, nil
}

func (m *RedisMemo) PutIfAbsent(ctx context.Context, seed, price string) (string, error) {
	key := memoKeyPrefix + seed
	set, err := m.client.SetNX(ctx, key, price, 0).Result()
	if err != nil {
		return "", fmt.Errorf("redis setnx failed: %w", err)
	}
	if set {
		return price, nil
	}
	existing, err := m.client.Get(ctx, key).Result()
	if err != nil {
		return "", fmt.Errorf("redis get failed: %w", err)
	}
	return existing, nil
}
