package models

// MatrixView is a dense user-by-model cost grid. Data is row-major:
// Data[i][j] is the cost for Users[i] on Models[j]. Row and column
// totals are computed from the grid, so they always sum to TotalCost.
type MatrixView struct {
	Users             []string           `json:"users"`
	Models            []string           `json:"models"`
	ModelDisplayNames map[string]string  `json:"model_display_names"`
	Data              [][]float64        `json:"data"`
	UserTotals        map[string]float64 `json:"user_totals"`
	ModelTotals       map[string]float64 `json:"model_totals"`
	DateRange         DateRange          `json:"date_range"`
	TotalCost         float64            `json:"total_cost"`
}
