package memory

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const sweepEvery = 5 * time.Minute

type limiter struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// Client — лимит попыток в памяти процесса (token bucket: max попыток за window).
type Client struct {
	mu        sync.Mutex
	limiters  map[string]*limiter
	rate      rate.Limit
	burst     int
	lastSweep time.Time
	now       func() time.Time
}

func New(max int, window time.Duration) *Client {
	if max <= 0 {
		max = 60
	}
	if window <= 0 {
		window = time.Minute
	}
	return &Client{
		limiters:  make(map[string]*limiter),
		rate:      rate.Every(window / time.Duration(max)),
		burst:     max,
		lastSweep: time.Now(),
		now:       time.Now,
	}
}

func (c *Client) Close() error { return nil }

func (c *Client) CheckRateLimit(ctx context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	if now.Sub(c.lastSweep) > sweepEvery {
		for k, l := range c.limiters {
			if now.Sub(l.lastSeen) > sweepEvery {
				delete(c.limiters, k)
			}
		}
		c.lastSweep = now
	}
	l, ok := c.limiters[key]
	if !ok {
		l = &limiter{lim: rate.NewLimiter(c.rate, c.burst)}
		c.limiters[key] = l
	}
	l.lastSeen = now
	return l.lim.AllowN(now, 1), nil
}
