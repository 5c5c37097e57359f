// Package cache is a thin key-value wrapper over Redis.
package cache

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrCache wraps every failure reported by the Redis client.
var ErrCache = errors.New("cache failure")

type Options struct {
	Host     string
	Port     int
	DB       int
	Password string
}

func (o Options) Addr() string {
	return net.JoinHostPort(o.Host, strconv.Itoa(o.Port))
}

type Cache struct {
	client *redis.Client
}

// New does not dial; the client connects on first use.
func New(opts Options) *Cache {
	return &Cache{client: redis.NewClient(&redis.Options{
		Addr:     opts.Addr(),
		Password: opts.Password,
		DB:       opts.DB,
	})}
}

// Get returns the stored value and false when key is absent.
func (c *Cache) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: get %q: %w", ErrCache, key, err)
	}
	return value, true, nil
}

func (c *Cache) Set(ctx context.Context, key string, value string) error {
	if err := c.client.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("%w: set %q: %w", ErrCache, key, err)
	}
	return nil
}

func (c *Cache) SetWithExpire(ctx context.Context, key string, value string, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("%w: set %q: ttl must be positive", ErrCache, key)
	}
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("%w: set %q with expire: %w", ErrCache, key, err)
	}
	return nil
}

func (c *Cache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("%w: delete %q: %w", ErrCache, key, err)
	}
	return nil
}

func (c *Cache) Health(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: ping: %w", ErrCache, err)
	}
	return nil
}

func (c *Cache) Close() error {
	return c.client.Close()
}
