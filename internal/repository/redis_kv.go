package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"travel-docs/internal/domain"

	"github.com/redis/go-redis/v9"
)

const redisKeyNamespace = "traveldocs"

type redisCmdable interface {
	Ping(context.Context) *redis.StatusCmd
	Get(context.Context, string) *redis.StringCmd
	Set(context.Context, string, any, time.Duration) *redis.StatusCmd
}

// RedisKV keeps blobs in Redis under a namespaced key with no expiry.
type RedisKV struct {
	store  redisCmdable
	raw    *redis.Client
	logger domain.Logger
}

// NewRedisKV connects using a redis:// URL or a host:port address and
// verifies the connection.
func NewRedisKV(ctx context.Context, redisURL, addr string, logger domain.Logger) (*RedisKV, error) {
	var opts *redis.Options
	switch {
	case redisURL != "":
		parsed, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("parsing redis url: %w", err)
		}
		opts = parsed
	case addr != "":
		opts = &redis.Options{Addr: addr}
	default:
		return nil, errors.New("redis url or address is required")
	}

	raw := redis.NewClient(opts)
	if err := raw.Ping(ctx).Err(); err != nil {
		raw.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	logger.Info("Redis connection established", "addr", opts.Addr)
	return &RedisKV{store: raw, raw: raw, logger: logger}, nil
}

func (r *RedisKV) key(key string) string {
	return redisKeyNamespace + ":" + key
}

func (r *RedisKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if r.store == nil {
		return nil, false, errors.New("redis client not initialized")
	}
	data, err := r.store.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return data, true, nil
}

func (r *RedisKV) Set(ctx context.Context, key string, blob []byte) error {
	if r.store == nil {
		return errors.New("redis client not initialized")
	}
	if err := r.store.Set(ctx, r.key(key), blob, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Close releases the connection pool
func (r *RedisKV) Close() error {
	if r.raw == nil {
		return nil
	}
	return r.raw.Close()
}
