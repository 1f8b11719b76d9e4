package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"bedrock_usage/internal/config"
	"bedrock_usage/internal/models"
	"bedrock_usage/internal/utils"
)

// inflight tracks a compute in progress so concurrent misses on the
// same key share one result.
type inflight struct {
	done  chan struct{}
	value *models.AggregateResult
	err   error
}

// RedisCache is a ResultCache backed by Redis, for deployments running
// more than one dashboard pod. Values are stored as JSON with a TTL.
// Redis failures degrade to computing fresh rather than erroring.
type RedisCache struct {
	client    *redis.Client
	ttl       time.Duration
	keyPrefix string
	logger    *utils.Logger

	mu    sync.Mutex
	calls map[string]*inflight
}

// NewRedisCache connects to Redis and returns a cache with the given
// TTL. Keys are namespaced under keyPrefix.
func NewRedisCache(cfg config.RedisConfig, ttl time.Duration, keyPrefix string) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	return &RedisCache{
		client:    client,
		ttl:       ttl,
		keyPrefix: keyPrefix,
		logger:    utils.NewLogger("redis-cache"),
		calls:     make(map[string]*inflight),
	}, nil
}

// GetOrCompute returns the cached value for key, or runs compute,
// stores the result and returns it. Only one local caller computes per
// key; the rest wait.
func (c *RedisCache) GetOrCompute(ctx context.Context, key string, compute ComputeFunc) (*models.AggregateResult, error) {
	fullKey := c.keyPrefix + ":" + key

	data, err := c.client.Get(ctx, fullKey).Bytes()
	if err == nil {
		var result models.AggregateResult
		if unmarshalErr := json.Unmarshal(data, &result); unmarshalErr == nil {
			return &result, nil
		}
		c.logger.Warn("dropping undecodable cache entry", "key", fullKey)
	} else if err != redis.Nil {
		c.logger.Warn("cache read failed, computing fresh", "key", fullKey, "error", err)
	}

	c.mu.Lock()
	if call, ok := c.calls[key]; ok {
		c.mu.Unlock()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-call.done:
		}
		if call.err != nil {
			return nil, call.err
		}
		return call.value, nil
	}
	call := &inflight{done: make(chan struct{})}
	c.calls[key] = call
	c.mu.Unlock()

	value, err := compute(ctx)
	call.value = value
	call.err = err

	c.mu.Lock()
	delete(c.calls, key)
	c.mu.Unlock()
	close(call.done)

	if err != nil {
		return nil, err
	}

	if data, marshalErr := json.Marshal(value); marshalErr == nil {
		if setErr := c.client.Set(ctx, fullKey, data, c.ttl).Err(); setErr != nil {
			c.logger.Warn("cache write failed", "key", fullKey, "error", setErr)
		}
	}

	return value, nil
}

// Clear deletes every key under the cache's prefix.
func (c *RedisCache) Clear() {
	ctx := context.Background()
	iter := c.client.Scan(ctx, 0, c.keyPrefix+":*", 100).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			c.logger.Warn("failed to delete cache key", "key", iter.Val(), "error", err)
		}
	}
	if err := iter.Err(); err != nil {
		c.logger.Warn("cache clear scan failed", "error", err)
	}
}

// Close releases the Redis connection pool.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
