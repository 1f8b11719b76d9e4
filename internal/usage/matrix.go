package usage

import (
	"math"
	"sort"

	"bedrock_usage/internal/models"
)

// BuildMatrix turns an aggregate result into a dense user-by-model
// cost grid. Users and models are ordered by descending total cost,
// ties broken lexicographically. Cells and totals are rounded to four
// decimal places; the totals are summed from the grid itself.
func BuildMatrix(agg *models.AggregateResult) *models.MatrixView {
	users := sortedByCost(agg.UserCosts)
	modelNames := sortedByCost(agg.ModelCosts)

	data := make([][]float64, len(users))
	userTotals := make(map[string]float64, len(users))
	modelTotals := make(map[string]float64, len(modelNames))
	var total float64

	for i, user := range users {
		row := make([]float64, len(modelNames))
		for j, model := range modelNames {
			cost := round4(agg.UserModelCosts[user][model])
			row[j] = cost
			userTotals[user] += cost
			modelTotals[model] += cost
			total += cost
		}
		data[i] = row
	}
	for user, t := range userTotals {
		userTotals[user] = round4(t)
	}
	for model, t := range modelTotals {
		modelTotals[model] = round4(t)
	}
	total = round4(total)

	displayNames := make(map[string]string, len(modelNames))
	for _, model := range modelNames {
		displayNames[model] = agg.ModelDisplayNames[model]
	}

	return &models.MatrixView{
		Users:             users,
		Models:            modelNames,
		ModelDisplayNames: displayNames,
		Data:              data,
		UserTotals:        userTotals,
		ModelTotals:       modelTotals,
		DateRange:         agg.DateRange,
		TotalCost:         total,
	}
}

// round4 rounds a dollar amount to 4 decimal places, the precision the
// matrix reports.
func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

func sortedByCost(costs map[string]float64) []string {
	keys := make([]string, 0, len(costs))
	for k := range costs {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if costs[keys[i]] != costs[keys[j]] {
			return costs[keys[i]] > costs[keys[j]]
		}
		return keys[i] < keys[j]
	})
	return keys
}
