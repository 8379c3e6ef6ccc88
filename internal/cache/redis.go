package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces every key this package writes
const DefaultPrefix = "trainload:"

// Redis keeps reports in redis. Keys embed a generation number, so
// invalidation is a single INCR and stale entries simply age out.
// A Set for an old generation writes a key no Get will read again.
type Redis struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedis connects to addr; the connection is checked with PING
func NewRedis(ctx context.Context, addr string, ttl time.Duration) (*Redis, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", addr, err)
	}
	return NewRedisWithClient(client, ttl), nil
}

// NewRedisWithClient wraps an existing client
func NewRedisWithClient(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, prefix: DefaultPrefix, ttl: ttl}
}

// Close releases the redis connection
func (r *Redis) Close() error {
	return r.client.Close()
}

func (r *Redis) generationKey() string {
	return r.prefix + "gen"
}

func (r *Redis) Generation(ctx context.Context) (int64, error) {
	gen, err := r.client.Get(ctx, r.generationKey()).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading cache generation: %w", err)
	}
	return gen, nil
}

func (r *Redis) key(gen int64, key string) string {
	return r.prefix + strconv.FormatInt(gen, 10) + ":" + key
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	gen, err := r.Generation(ctx)
	if err != nil {
		return nil, false, err
	}
	b, err := r.client.Get(ctx, r.key(gen, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading %s: %w", key, err)
	}
	return b, true, nil
}

func (r *Redis) Set(ctx context.Context, gen int64, key string, val []byte) error {
	if err := r.client.Set(ctx, r.key(gen, key), val, r.ttl).Err(); err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}

func (r *Redis) Invalidate(ctx context.Context) error {
	if err := r.client.Incr(ctx, r.generationKey()).Err(); err != nil {
		return fmt.Errorf("bumping cache generation: %w", err)
	}
	return nil
}
