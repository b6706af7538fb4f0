package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/relatosdepapel/storefront/internal/domain"
)

// storageKey is the single named record holding the serialized cart.
const storageKey = "cart-storage"

const redisTimeout = 3 * time.Second

// RedisStorage persists the cart as one JSON record in redis.
type RedisStorage struct {
	client *redis.Client
}

// NewRedisStorage connects to redis using a connection URL
// (redis://host:port/db) and verifies the connection.
func NewRedisStorage(ctx context.Context, url string) (*RedisStorage, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return &RedisStorage{client: client}, nil
}

func (r *RedisStorage) Load(ctx context.Context) ([]domain.LineItem, error) {
	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()

	raw, err := r.client.Get(ctx, storageKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load cart record: %w", err)
	}

	var items []domain.LineItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("failed to decode cart record: %w", err)
	}
	return items, nil
}

func (r *RedisStorage) Save(ctx context.Context, items []domain.LineItem) error {
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to encode cart record: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()

	if err := r.client.Set(ctx, storageKey, raw, 0).Err(); err != nil {
		return fmt.Errorf("failed to save cart record: %w", err)
	}
	return nil
}

// Close releases the redis connection.
func (r *RedisStorage) Close() error {
	return r.client.Close()
}
