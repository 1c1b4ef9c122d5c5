package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultLimitMax    = 60
	defaultLimitWindow = time.Minute
	keyPrefix          = "auth_limit:"
)

type Client struct {
	cli    *redis.Client
	max    int64
	window time.Duration
}

func New(ctx context.Context, url string) (*Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis parse url: %w", err)
	}
	cli := redis.NewClient(opts)
	if err := cli.Ping(ctx).Err(); err != nil {
		if closeErr := cli.Close(); closeErr != nil {
			return nil, fmt.Errorf("redis ping: %w (close: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Client{cli: cli, max: defaultLimitMax, window: defaultLimitWindow}, nil
}

// WithLimit задаёт максимум попыток за окно. max <= 0 оставляет значение по умолчанию.
func (c *Client) WithLimit(max int, window time.Duration) *Client {
	if max > 0 {
		c.max = int64(max)
	}
	if window > 0 {
		c.window = window
	}
	return c
}

func (c *Client) Close() error {
	return c.cli.Close()
}

// CheckRateLimit: INCR auth_limit:{key}; первая попытка окна ставит EXPIRE.
func (c *Client) CheckRateLimit(ctx context.Context, key string) (bool, error) {
	k := keyPrefix + key
	n, err := c.cli.Incr(ctx, k).Result()
	if err != nil {
		return false, fmt.Errorf("redis rate limit: %w", err)
	}
	if n == 1 {
		if err := c.cli.Expire(ctx, k, c.window).Err(); err != nil {
			return false, fmt.Errorf("redis rate limit expire: %w", err)
		}
	}
	return n <= c.max, nil
}

// Reset удаляет счётчик ключа.
func (c *Client) Reset(ctx context.Context, key string) error {
	return c.cli.Del(ctx, keyPrefix+key).Err()
}
