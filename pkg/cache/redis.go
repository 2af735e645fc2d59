package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache stores entries in Redis, so that reports computed on one
// machine are reused on others. Connection failures are retried with
// [RetryWithBackoff]; errors returned by the server are not.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache connects to the server at url (redis:// or rediss://) and
// pings it. The ping is retried like any other operation.
func NewRedisCache(ctx context.Context, url string) (*RedisCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}
	opts.DialTimeout = 2 * time.Second
	opts.ReadTimeout = time.Second
	opts.WriteTimeout = time.Second

	c := &RedisCache{client: redis.NewClient(opts)}
	if err := c.do(ctx, func() error { return c.client.Ping(ctx).Err() }); err != nil {
		_ = c.client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return c, nil
}

// Get retrieves a value. A missing key is a miss, not an error.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var data []byte
	err := c.do(ctx, func() error {
		var err error
		data, err = c.client.Get(ctx, key).Bytes()
		return err
	})
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Set stores a value. Redis treats a zero ttl as no expiry.
func (c *RedisCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return c.do(ctx, func() error { return c.client.Set(ctx, key, data, ttl).Err() })
}

// Delete removes a key.
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.do(ctx, func() error { return c.client.Del(ctx, key).Err() })
}

// Close closes the connection pool.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

func (c *RedisCache) do(ctx context.Context, op func() error) error {
	return RetryWithBackoff(ctx, func() error {
		return classify(op())
	})
}

// classify marks transport failures retryable. Server replies, redis.Nil
// and context errors pass through unchanged.
func classify(err error) error {
	var reply redis.Error
	switch {
	case err == nil, errors.Is(err, redis.Nil), errors.As(err, &reply):
		return err
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	}
	return Retryable(fmt.Errorf("%w: %w", ErrNetwork, err))
}

var _ Cache = (*RedisCache)(nil)
