package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanKey(t *testing.T) {
	assert.Equal(t, "contablebot:firm_plan:42", planKey(42))
}

func TestConnect_URLInvalida(t *testing.T) {
	_, err := Connect(context.Background(), "no-es-una-url")
	require.Error(t, err)
}

func TestRedisPlanCache_ErrorDeBackend(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()
	c := NewRedisPlanCache(client)

	_, ok, err := c.Get(context.Background(), 1)
	require.Error(t, err)
	assert.False(t, ok)
	assert.Error(t, c.Set(context.Background(), 1, "pro", time.Minute))
	assert.Error(t, c.Invalidate(context.Background(), 1))
}
