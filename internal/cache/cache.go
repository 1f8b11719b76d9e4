package cache

import (
	"context"

	"bedrock_usage/internal/models"
)

// ComputeFunc produces a fresh result on a cache miss.
type ComputeFunc func(ctx context.Context) (*models.AggregateResult, error)

// ResultCache caches aggregate results under string keys with a TTL.
// Concurrent misses on the same key collapse into a single compute;
// the other callers wait for its result. Errors are never cached.
type ResultCache interface {
	GetOrCompute(ctx context.Context, key string, compute ComputeFunc) (*models.AggregateResult, error)
	Clear()
	Close() error
}
