package usage

import (
	"sort"
	"sync"
	"time"

	"bedrock_usage/internal/models"
	"bedrock_usage/internal/utils"
)

// Aggregator folds usage rows into per-user, per-model and per-day
// breakdowns with costs attached. The pricing table can be swapped at
// runtime.
type Aggregator struct {
	norm   *Normalizer
	logger *utils.Logger

	mu      sync.RWMutex
	pricing *models.PricingTable
}

// NewAggregator creates an aggregator over the given normalizer and
// pricing table.
func NewAggregator(norm *Normalizer, pricing *models.PricingTable) *Aggregator {
	return &Aggregator{
		norm:    norm,
		pricing: pricing,
		logger:  utils.NewLogger("aggregator"),
	}
}

// SetPricing replaces the pricing table.
func (a *Aggregator) SetPricing(pricing *models.PricingTable) {
	a.mu.Lock()
	a.pricing = pricing
	a.mu.Unlock()
}

// Normalizer returns the normalizer the aggregator resolves users and
// models with.
func (a *Aggregator) Normalizer() *Normalizer {
	return a.norm
}

// Pricing returns the current pricing table.
func (a *Aggregator) Pricing() *models.PricingTable {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.pricing
}

// Aggregate folds rows into a result for the [start, end) window.
// Input tokens include cache-write tokens, which bill at the input
// rate. Models with no pricing entry contribute zero cost and are
// listed once in UnpricedModels.
func (a *Aggregator) Aggregate(rows []models.UsageRow, start, end time.Time) *models.AggregateResult {
	a.mu.RLock()
	pricing := a.pricing
	a.mu.RUnlock()

	result := models.NewAggregateResult()
	result.DateRange = models.DateRange{
		Start: start.Format("2006-01-02"),
		End:   end.Format("2006-01-02"),
	}

	unpriced := make(map[string]struct{})

	for _, row := range rows {
		user := a.norm.NormalizeUser(row.UserIdentity)
		model := a.norm.StripModelPrefix(row.ModelID)
		inputTokens := row.InputTokens + row.CacheWriteTokens

		entry, priced := pricing.Lookup(model, row.ModelID)
		if !priced {
			if _, seen := unpriced[model]; !seen {
				unpriced[model] = struct{}{}
				a.logger.Warn("no pricing for model", "model", model, "raw", row.ModelID)
			}
		}
		cost := entry.Cost(inputTokens, row.OutputTokens)

		result.UserInvocations[user] += row.Invocations
		userTokens := result.UserTokens[user]
		userTokens.Input += inputTokens
		userTokens.Output += row.OutputTokens
		result.UserTokens[user] = userTokens
		result.UserCosts[user] += cost

		result.ModelInvocations[model] += row.Invocations
		modelTokens := result.ModelTokens[model]
		modelTokens.Input += inputTokens
		modelTokens.Output += row.OutputTokens
		result.ModelTokens[model] = modelTokens
		result.ModelCosts[model] += cost

		if result.UserModelCosts[user] == nil {
			result.UserModelCosts[user] = make(map[string]float64)
		}
		result.UserModelCosts[user][model] += cost

		if _, ok := result.ModelDisplayNames[model]; !ok {
			result.ModelDisplayNames[model] = ModelDisplayName(model)
		}

		if row.Date != "" {
			result.DailyTrend[row.Date] += row.Invocations
			result.DailyCosts[row.Date] += cost
			if result.UserDailyCosts[user] == nil {
				result.UserDailyCosts[user] = make(map[string]float64)
			}
			result.UserDailyCosts[user][row.Date] += cost
			if result.UserModelDailyCosts[user] == nil {
				result.UserModelDailyCosts[user] = make(map[string]map[string]float64)
			}
			if result.UserModelDailyCosts[user][model] == nil {
				result.UserModelDailyCosts[user][model] = make(map[string]float64)
			}
			result.UserModelDailyCosts[user][model][row.Date] += cost
		}

		result.TotalInvocations += row.Invocations
		result.TotalInputTokens += inputTokens
		result.TotalOutputTokens += row.OutputTokens
		result.TotalCost += cost
	}

	for model := range unpriced {
		result.UnpricedModels = append(result.UnpricedModels, model)
	}
	sort.Strings(result.UnpricedModels)

	return result
}
