// Package rdx holds the Redis connection and the small string key-value
// view used for per-user recommendation and photo caches.
package rdx

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Connect creates a client for addr and pings it.
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	conn := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := conn.Ping(ctx).Err(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	log.Info().Str("addr", addr).Msg("connected to Redis")
	return conn, nil
}

// KV stores string values under a key prefix.
type KV struct {
	conn   redis.Cmdable
	prefix string
	ttl    time.Duration
}

// NewKV returns a KV whose keys are prefixed with prefix. A zero ttl keeps
// entries until overwritten.
func NewKV(conn redis.Cmdable, prefix string, ttl time.Duration) *KV {
	return &KV{conn: conn, prefix: prefix, ttl: ttl}
}

func (k *KV) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := k.conn.Get(ctx, k.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (k *KV) Set(ctx context.Context, key, value string) error {
	return k.conn.Set(ctx, k.prefix+key, value, k.ttl).Err()
}

func (k *KV) Delete(ctx context.Context, key string) error {
	return k.conn.Del(ctx, k.prefix+key).Err()
}

// Discard is a KV stand-in that never stores anything. It is used when
// Redis is not reachable and the caches degrade to misses.
type Discard struct{}

func (Discard) Get(context.Context, string) (string, bool, error) { return "", false, nil }
func (Discard) Set(context.Context, string, string) error { return nil }
func (Discard) Delete(context.Context, string) error { return nil }
