package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisCache struct {
	cli    *redis.Client
	prefix string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

func NewRedisCache(cfg RedisConfig) *RedisCache {
	rdb := redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB})
	return &RedisCache{cli: rdb, prefix: cfg.Prefix}
}

// Ping verifies the connection.
func (r *RedisCache) Ping(ctx context.Context) error {
	if err := r.cli.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

func (r *RedisCache) GetBytes(ctx context.Context, key string) ([]byte, bool, error) {
    b, err := r.cli.Get(ctx, r.prefix+key).Bytes()
    if err != nil {
        if errors.Is(err, redis.Nil) {
            return nil, false, nil
        }
        return nil, false, fmt.Errorf("redis get: %w", err)
    }
    return b, true, nil
}

func (r *RedisCache) SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) error {
    if err := r.cli.Set(ctx, r.prefix+key, value, ttl).Err(); err != nil {
        return fmt.Errorf("redis set: %w", err)
    }
    return nil
}

func (r *RedisCache) Close() error { return r.cli.Close() }
