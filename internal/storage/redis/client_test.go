package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c, err := New(ctx, url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestCheckRateLimit(t *testing.T) {
	c := newTestClient(t).WithLimit(2, time.Minute)
	ctx := context.Background()
	key := "test-" + uuid.NewString()
	t.Cleanup(func() { _ = c.Reset(ctx, key) })

	for i := 0; i < 2; i++ {
		ok, err := c.CheckRateLimit(ctx, key)
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, err := c.CheckRateLimit(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	ttl, err := c.cli.TTL(ctx, keyPrefix+key).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
	assert.LessOrEqual(t, ttl, time.Minute)

	require.NoError(t, c.Reset(ctx, key))
	ok, err = c.CheckRateLimit(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestNew_BadURL(t *testing.T) {
	_, err := New(context.Background(), "not-a-url")
	assert.Error(t, err)
}
