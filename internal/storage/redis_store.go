package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "catalog:seen:"

// redisStore keeps fingerprints as keys with a native TTL; no manual cleanup is needed.
type redisStore struct {
	client redis.Cmdable
	closer func() error
	ttl    time.Duration
}

func openRedis(opts Options) (Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.RedisAddr,
		Password: opts.RedisPassword,
		DB:       opts.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", opts.RedisAddr, err)
	}

	return newRedisStore(client, client.Close, opts.TTL), nil
}

func newRedisStore(client redis.Cmdable, closer func() error, ttl time.Duration) *redisStore {
	return &redisStore{client: client, closer: closer, ttl: ttl}
}

func (r *redisStore) Close() error {
	if r == nil || r.closer == nil {
		return nil
	}
	return r.closer()
}

func (r *redisStore) SeenProduct(ctx context.Context, key string) (bool, error) {
	n, err := r.client.Exists(ctx, redisKeyPrefix+key).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return false, fmt.Errorf("redis exists: %w", err)
	}
	return n > 0, nil
}

func (r *redisStore) MarkProduct(ctx context.Context, key string) error {
	if err := r.client.Set(ctx, redisKeyPrefix+key, "1", r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}
