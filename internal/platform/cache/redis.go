package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds Redis connection settings for the cache store.
type Config struct {
	Addr      string
	Password  string
	DB        int
	OpTimeout time.Duration
}

// Redis is the production cache store. Every operation is bounded by
// OpTimeout; a slow or unreachable Redis degrades to cache misses instead
// of failing requests.
type Redis struct {
	client    *redis.Client
	opTimeout time.Duration
}

// NewRedis connects and pings the server so misconfiguration surfaces at
// startup rather than as silent misses.
func NewRedis(cfg Config) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	opTimeout := cfg.OpTimeout
	if opTimeout == 0 {
		opTimeout = 250 * time.Millisecond
	}
	return &Redis{client: client, opTimeout: opTimeout}, nil
}

// Get returns the cached payload, or absent on miss, timeout, or transport
// error. Errors other than a plain miss are logged.
func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool) {
	ctx, cancel := context.WithTimeout(ctx, r.opTimeout)
	defer cancel()

	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		slog.Warn("cache get failed", slog.String("key", key), slog.Any("error", err))
		return nil, false
	}
	return data, true
}

// Set stores the payload with a TTL. Best-effort: the caller already holds
// the authoritative write, so failures are logged and swallowed.
func (r *Redis) Set(ctx context.Context, key string, payload []byte, ttl time.Duration) {
	ctx, cancel := context.WithTimeout(ctx, r.opTimeout)
	defer cancel()

	if err := r.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		slog.Warn("cache set failed", slog.String("key", key), slog.Any("error", err))
	}
}

// Delete removes a key. Best-effort, same policy as Set.
func (r *Redis) Delete(ctx context.Context, key string) {
	ctx, cancel := context.WithTimeout(ctx, r.opTimeout)
	defer cancel()

	if err := r.client.Del(ctx, key).Err(); err != nil {
		slog.Warn("cache delete failed", slog.String("key", key), slog.Any("error", err))
	}
}

// Health reports whether the Redis connection is usable.
func (r *Redis) Health(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close releases the underlying connection pool.
func (r *Redis) Close() error {
	return r.client.Close()
}

// Noop is the cache used when Redis is not configured: every read is a miss
// and writes vanish. Absence of a cache is always a legal state.
type Noop struct{}

func (Noop) Get(context.Context, string) ([]byte, bool)              { return nil, false }
func (Noop) Set(context.Context, string, []byte, time.Duration)      {}
func (Noop) Delete(context.Context, string)                          {}
