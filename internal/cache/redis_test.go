package cache

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bedrock_usage/internal/config"
	"bedrock_usage/internal/models"
)

func newTestRedisCache(t *testing.T, ttl time.Duration) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)

	c, err := NewRedisCache(config.RedisConfig{
		Address:     mr.Addr(),
		DialTimeout: time.Second,
	}, ttl, "bedrock_usage")
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })

	return c, mr
}

func TestRedisCacheRoundTrip(t *testing.T) {
	c, _ := newTestRedisCache(t, 10*time.Minute)
	var calls int32

	compute := func(ctx context.Context) (*models.AggregateResult, error) {
		atomic.AddInt32(&calls, 1)
		return resultWithCost(2.5), nil
	}

	first, err := c.GetOrCompute(context.Background(), "usage:30", compute)
	require.NoError(t, err)
	assert.Equal(t, 2.5, first.TotalCost)

	second, err := c.GetOrCompute(context.Background(), "usage:30", compute)
	require.NoError(t, err)
	assert.Equal(t, 2.5, second.TotalCost)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestRedisCacheTTLExpiry(t *testing.T) {
	c, mr := newTestRedisCache(t, 10*time.Minute)
	var calls int32

	compute := func(ctx context.Context) (*models.AggregateResult, error) {
		atomic.AddInt32(&calls, 1)
		return resultWithCost(float64(atomic.LoadInt32(&calls))), nil
	}

	_, err := c.GetOrCompute(context.Background(), "usage:30", compute)
	require.NoError(t, err)

	mr.FastForward(11 * time.Minute)

	result, err := c.GetOrCompute(context.Background(), "usage:30", compute)
	require.NoError(t, err)
	assert.Equal(t, 2.0, result.TotalCost)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestRedisCacheErrorNotCached(t *testing.T) {
	c, _ := newTestRedisCache(t, 10*time.Minute)

	_, err := c.GetOrCompute(context.Background(), "usage:30", func(ctx context.Context) (*models.AggregateResult, error) {
		return nil, errors.New("backend down")
	})
	assert.Error(t, err)

	result, err := c.GetOrCompute(context.Background(), "usage:30", func(ctx context.Context) (*models.AggregateResult, error) {
		return resultWithCost(4), nil
	})
	require.NoError(t, err)
	assert.Equal(t, 4.0, result.TotalCost)
}

func TestRedisCacheClear(t *testing.T) {
	c, _ := newTestRedisCache(t, 10*time.Minute)
	var calls int32

	compute := func(ctx context.Context) (*models.AggregateResult, error) {
		atomic.AddInt32(&calls, 1)
		return resultWithCost(1), nil
	}

	_, err := c.GetOrCompute(context.Background(), "usage:30", compute)
	require.NoError(t, err)

	c.Clear()

	_, err = c.GetOrCompute(context.Background(), "usage:30", compute)
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestRedisCacheDegradesWhenRedisDown(t *testing.T) {
	c, mr := newTestRedisCache(t, 10*time.Minute)
	mr.Close()

	result, err := c.GetOrCompute(context.Background(), "usage:30", func(ctx context.Context) (*models.AggregateResult, error) {
		return resultWithCost(9), nil
	})
	require.NoError(t, err)
	assert.Equal(t, 9.0, result.TotalCost)
}
