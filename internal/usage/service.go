package usage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"bedrock_usage/internal/archive"
	"bedrock_usage/internal/cache"
	"bedrock_usage/internal/insights"
	"bedrock_usage/internal/models"
	"bedrock_usage/internal/utils"
)

// Service answers usage queries: it runs the log query, aggregates the
// rows, caches results and archives fresh snapshots.
type Service struct {
	client      insights.QueryClient
	agg         *Aggregator
	cache       cache.ResultCache
	sink        archive.Sink
	keyPrefix   string
	defaultDays int
	maxDays     int
	logger      *utils.Logger
	now         func() time.Time
}

// NewService creates a usage service.
func NewService(client insights.QueryClient, agg *Aggregator, resultCache cache.ResultCache, sink archive.Sink, keyPrefix string, defaultDays, maxDays int) *Service {
	if sink == nil {
		sink = archive.NoopSink{}
	}
	return &Service{
		client:      client,
		agg:         agg,
		cache:       resultCache,
		sink:        sink,
		keyPrefix:   keyPrefix,
		defaultDays: defaultDays,
		maxDays:     maxDays,
		logger:      utils.NewLogger("usage"),
		now:         time.Now,
	}
}

// DefaultDays returns the window used when a request does not name one.
func (s *Service) DefaultDays() int {
	return s.defaultDays
}

// ComputeUsage returns the usage breakdown for the last days days.
// days == 0 means the default window. Results come from cache when a
// fresh enough one exists; groupByDay controls whether the result
// carries per-day series and is part of the cache key.
func (s *Service) ComputeUsage(ctx context.Context, days int, groupByDay bool) (*models.AggregateResult, error) {
	if days == 0 {
		days = s.defaultDays
	}
	if days < 1 || days > s.maxDays {
		return nil, fmt.Errorf("%w: days must be between 1 and %d, got %d", ErrInvalidTimeRange, s.maxDays, days)
	}

	key := fmt.Sprintf("%s:%d:%t", s.keyPrefix, days, groupByDay)
	return s.cache.GetOrCompute(ctx, key, func(ctx context.Context) (*models.AggregateResult, error) {
		return s.computeFresh(ctx, days, groupByDay)
	})
}

// ComputeCostMatrix returns the user-by-model cost grid for the last
// days days.
func (s *Service) ComputeCostMatrix(ctx context.Context, days int) (*models.MatrixView, error) {
	result, err := s.ComputeUsage(ctx, days, false)
	if err != nil {
		return nil, err
	}
	return BuildMatrix(result), nil
}

// InvalidateCache drops all cached results, e.g. after a pricing or
// alias change.
func (s *Service) InvalidateCache() {
	s.cache.Clear()
}

func (s *Service) computeFresh(ctx context.Context, days int, groupByDay bool) (*models.AggregateResult, error) {
	end := s.now()
	start := end.AddDate(0, 0, -days)

	s.logger.Info("running usage query", "days", days)
	rows, err := s.client.RunAggregatedQuery(ctx, start, end)
	if err != nil {
		return nil, err
	}

	result := s.agg.Aggregate(rows, start, end)
	if !groupByDay {
		result.DailyTrend = nil
		result.DailyCosts = nil
		result.UserDailyCosts = nil
		result.UserModelDailyCosts = nil
	}

	s.sink.Enqueue(archive.Snapshot{
		ID:                uuid.NewString(),
		CreatedAt:         end,
		Days:              days,
		DateRange:         result.DateRange,
		TotalInvocations:  result.TotalInvocations,
		TotalInputTokens:  result.TotalInputTokens,
		TotalOutputTokens: result.TotalOutputTokens,
		TotalCost:         result.TotalCost,
		UserCosts:         result.UserCosts,
		ModelCosts:        result.ModelCosts,
		UnpricedModels:    result.UnpricedModels,
	})

	return result, nil
}
