package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// needs a live server: REDIS_TEST_ADDR=localhost:6379 go test ./internal/cache
func TestRedisCache_Integration(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}

	ctx := context.Background()
	c, err := NewRedisCache(ctx, addr)
	require.NoError(t, err)
	defer c.Close()

	key := "test:" + time.Now().Format(time.RFC3339Nano)

	_, ok, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, key, []byte(`[{"date":"2026-04-01"}]`), time.Minute))

	val, ok, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `[{"date":"2026-04-01"}]`, string(val))
}

func TestNewRedisCache_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := NewRedisCache(ctx, "127.0.0.1:1")
	assert.Error(t, err)
}
