package usage

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bedrock_usage/internal/models"
)

func newTestAggregator(aliases map[string]string) *Aggregator {
	norm := newTestNormalizer(aliases)
	pricing := models.NewPricingTable(map[string]models.PricingEntry{
		"anthropic.claude-sonnet-4-20250514-v1:0": {InputPerMTok: 3.0, OutputPerMTok: 15.0},
		"amazon.nova-lite-v1:0":                   {InputPerMTok: 0.06, OutputPerMTok: 0.015},
	})
	return NewAggregator(norm, pricing)
}

func testWindow() (time.Time, time.Time) {
	end := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	return end.AddDate(0, 0, -7), end
}

func TestAggregateCosts(t *testing.T) {
	agg := newTestAggregator(nil)
	start, end := testWindow()

	rows := []models.UsageRow{
		{
			UserIdentity: "arn:aws:iam::123456789012:user/bedrock-alice",
			ModelID:      "us.anthropic.claude-sonnet-4-20250514-v1:0",
			Date:         "2026-08-28",
			Invocations:  10,
			InputTokens:  900_000,
			// cache writes bill at the input rate
			CacheWriteTokens: 100_000,
			OutputTokens:     1_000_000,
		},
	}

	result := agg.Aggregate(rows, start, end)

	require.Contains(t, result.UserCosts, "alice")
	// (1M / 1M) * 3.0 + (1M / 1M) * 15.0
	assert.InDelta(t, 18.0, result.UserCosts["alice"], 1e-9)
	assert.InDelta(t, 18.0, result.TotalCost, 1e-9)
	assert.Equal(t, int64(10), result.UserInvocations["alice"])
	assert.Equal(t, models.TokenTotals{Input: 1_000_000, Output: 1_000_000}, result.UserTokens["alice"])

	model := "anthropic.claude-sonnet-4-20250514-v1:0"
	assert.InDelta(t, 18.0, result.ModelCosts[model], 1e-9)
	assert.InDelta(t, 18.0, result.UserModelCosts["alice"][model], 1e-9)
	assert.Equal(t, "Claude Sonnet 4", result.ModelDisplayNames[model])

	assert.Equal(t, int64(10), result.DailyTrend["2026-08-28"])
	assert.InDelta(t, 18.0, result.DailyCosts["2026-08-28"], 1e-9)
	assert.InDelta(t, 18.0, result.UserDailyCosts["alice"]["2026-08-28"], 1e-9)
	assert.InDelta(t, 18.0, result.UserModelDailyCosts["alice"][model]["2026-08-28"], 1e-9)

	assert.Equal(t, "2026-08-23", result.DateRange.Start)
	assert.Equal(t, "2026-08-30", result.DateRange.End)
	assert.Empty(t, result.UnpricedModels)
}

func TestAggregateEmpty(t *testing.T) {
	agg := newTestAggregator(nil)
	start, end := testWindow()

	result := agg.Aggregate(nil, start, end)

	assert.NotNil(t, result.UserCosts)
	assert.Empty(t, result.UserCosts)
	assert.Zero(t, result.TotalCost)
	assert.Zero(t, result.TotalInvocations)
	assert.Equal(t, "2026-08-23", result.DateRange.Start)
}

func TestAggregateOrderIndependent(t *testing.T) {
	agg := newTestAggregator(map[string]string{"aider": "peterdir"})
	start, end := testWindow()

	rows := []models.UsageRow{
		{UserIdentity: "arn:aws:iam::1:user/bedrock-alice", ModelID: "us.anthropic.claude-sonnet-4-20250514-v1:0", Date: "2026-08-25", Invocations: 3, InputTokens: 1000, OutputTokens: 500},
		{UserIdentity: "arn:aws:iam::1:user/aider", ModelID: "amazon.nova-lite-v1:0", Date: "2026-08-26", Invocations: 7, InputTokens: 9000, OutputTokens: 100},
		{UserIdentity: "arn:aws:iam::1:user/bedrock-alice", ModelID: "amazon.nova-lite-v1:0", Date: "2026-08-26", Invocations: 2, InputTokens: 50, CacheWriteTokens: 25, OutputTokens: 10},
		{UserIdentity: "arn:aws:iam::1:root", ModelID: "us.anthropic.claude-sonnet-4-20250514-v1:0", Date: "2026-08-27", Invocations: 1, InputTokens: 42, OutputTokens: 0},
	}

	baseline := agg.Aggregate(rows, start, end)

	for i := 0; i < 10; i++ {
		shuffled := make([]models.UsageRow, len(rows))
		copy(shuffled, rows)
		rand.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

		result := agg.Aggregate(shuffled, start, end)
		// grand total accumulates in row order, so allow float noise
		assert.InDelta(t, baseline.TotalCost, result.TotalCost, 1e-9)
		result.TotalCost = baseline.TotalCost
		assert.Equal(t, baseline, result)
	}
}

func TestAggregateUnknownModel(t *testing.T) {
	agg := newTestAggregator(nil)
	start, end := testWindow()

	rows := []models.UsageRow{
		{UserIdentity: "arn:aws:iam::1:user/alice", ModelID: "mistral.mixtral-8x7b-v0:1", Date: "2026-08-25", Invocations: 5, InputTokens: 1_000_000, OutputTokens: 1_000_000},
		{UserIdentity: "arn:aws:iam::1:user/bob", ModelID: "mistral.mixtral-8x7b-v0:1", Date: "2026-08-26", Invocations: 2, InputTokens: 100, OutputTokens: 100},
	}

	result := agg.Aggregate(rows, start, end)

	// unknown models still count, at zero cost
	assert.Equal(t, int64(5), result.UserInvocations["alice"])
	assert.Zero(t, result.UserCosts["alice"])
	assert.Zero(t, result.TotalCost)
	assert.Equal(t, []string{"mistral.mixtral-8x7b-v0:1"}, result.UnpricedModels)
}

func TestAggregateAliasesCollapse(t *testing.T) {
	agg := newTestAggregator(map[string]string{"aider": "peterdir", "dirkcli": "peterdir"})
	start, end := testWindow()

	rows := []models.UsageRow{
		{UserIdentity: "arn:aws:iam::1:user/aider", ModelID: "amazon.nova-lite-v1:0", Invocations: 1, InputTokens: 100},
		{UserIdentity: "arn:aws:iam::1:user/dirkcli", ModelID: "amazon.nova-lite-v1:0", Invocations: 2, InputTokens: 200},
	}

	result := agg.Aggregate(rows, start, end)

	require.Len(t, result.UserInvocations, 1)
	assert.Equal(t, int64(3), result.UserInvocations["peterdir"])
}

func TestAggregateSetPricing(t *testing.T) {
	agg := newTestAggregator(nil)
	start, end := testWindow()

	rows := []models.UsageRow{
		{UserIdentity: "arn:aws:iam::1:user/alice", ModelID: "amazon.nova-lite-v1:0", Invocations: 1, InputTokens: 1_000_000},
	}

	before := agg.Aggregate(rows, start, end)
	assert.InDelta(t, 0.06, before.TotalCost, 1e-9)

	agg.SetPricing(models.NewPricingTable(map[string]models.PricingEntry{
		"amazon.nova-lite-v1:0": {InputPerMTok: 1.0, OutputPerMTok: 1.0},
	}))

	after := agg.Aggregate(rows, start, end)
	assert.InDelta(t, 1.0, after.TotalCost, 1e-9)
}
