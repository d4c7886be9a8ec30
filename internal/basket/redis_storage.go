package basket

import (
	"context"
	"time"
)

type redisKV interface {
	Lookup(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	BasketKey(storageKey string) string
}

// RedisStorage persists baskets in Redis. Each write refreshes the TTL.
type RedisStorage struct {
	client redisKV
	ttl    time.Duration
}

func NewRedisStorage(client redisKV, ttl time.Duration) *RedisStorage {
	return &RedisStorage{client: client, ttl: ttl}
}

func (r *RedisStorage) Get(ctx context.Context, key string) (string, bool, error) {
	return r.client.Lookup(ctx, r.client.BasketKey(key))
}

func (r *RedisStorage) Set(ctx context.Context, key, value string) error {
	return r.client.Set(ctx, r.client.BasketKey(key), value, r.ttl)
}
