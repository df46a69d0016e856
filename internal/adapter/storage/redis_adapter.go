package storage

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	idempotencyKeyPrefix = "idem:"
	idempotencyKeyTTL    = 24 * time.Hour
)

// RedisAdapter stores the cart blob and checkout idempotency keys. Keys are
// namespaced so several storefront processes can share one Redis.
type RedisAdapter struct {
	client    *redis.Client
	namespace string
}

func NewRedisAdapter(client *redis.Client, namespace string) *RedisAdapter {
	return &RedisAdapter{client: client, namespace: namespace}
}

func (r *RedisAdapter) key(k string) string {
	if r.namespace == "" {
		return k
	}
	return r.namespace + ":" + k
}

func (r *RedisAdapter) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := r.client.Get(ctx, r.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}

	return val, true, nil
}

func (r *RedisAdapter) Set(ctx context.Context, key, value string) error {
	return r.client.Set(ctx, r.key(key), value, 0).Err()
}

func (r *RedisAdapter) SetIdempotency(ctx context.Context, key string) (bool, error) {
	ok, err := r.client.SetNX(ctx, r.key(idempotencyKeyPrefix+key), 1, idempotencyKeyTTL).Result()
	if err != nil {
		return false, err
	}

	return ok, nil
}

func (r *RedisAdapter) ReleaseIdempotency(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.key(idempotencyKeyPrefix+key)).Err()
}
