package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// RedisStore persists session state as plain redis strings.
type RedisStore struct {
	rdb *redis.Client
	log *slog.Logger
}

// NewRedisStore connects to redis using a redis:// URL and verifies
// connectivity with a ping.
func NewRedisStore(ctx context.Context, url string, log *slog.Logger) (*RedisStore, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	rdb := redis.NewClient(opt)
	if err = rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &RedisStore{rdb: rdb, log: log}, nil
}

// NewRedisStoreWithClient creates a RedisStore over an existing client.
// Useful for tests against miniredis.
func NewRedisStoreWithClient(rdb *redis.Client, log *slog.Logger) *RedisStore {
	return &RedisStore{rdb: rdb, log: log}
}

func (rs *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := rs.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get session value: %w", err)
	}

	rs.log.DebugContext(ctx, "Loaded session value", "key", key)

	return value, true, nil
}

func (rs *RedisStore) Set(ctx context.Context, key string, value string) error {
	if err := rs.rdb.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("failed to set session value: %w", err)
	}

	return nil
}
