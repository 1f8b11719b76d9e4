package httpapi

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"bedrock_usage/internal/utils"
)

// PricingRow is one model's price in the public pricing listing.
type PricingRow struct {
	Vendor      string  `json:"vendor"`
	ModelID     string  `json:"model_id"`
	InputPrice  string  `json:"input_price"`
	OutputPrice string  `json:"output_price"`
	TotalPrice  string  `json:"total_price"`
	InputRaw    float64 `json:"input_price_raw"`
	OutputRaw   float64 `json:"output_price_raw"`
	TotalRaw    float64 `json:"total_price_raw"`
}

// handlePricing serves GET /api/pricing: the current price list,
// most expensive input price first.
func (d *Dependencies) handlePricing(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		utils.RespondWithError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
		return
	}

	entries := d.Aggregator.Pricing().Entries()
	rows := make([]PricingRow, 0, len(entries))
	for modelID, entry := range entries {
		vendor := "Unknown"
		if prefix, _, ok := strings.Cut(modelID, "."); ok && prefix != "" {
			vendor = strings.ToUpper(prefix[:1]) + prefix[1:]
		}

		total := entry.InputPerMTok + entry.OutputPerMTok
		rows = append(rows, PricingRow{
			Vendor:      vendor,
			ModelID:     modelID,
			InputPrice:  formatPrice(entry.InputPerMTok),
			OutputPrice: formatPrice(entry.OutputPerMTok),
			TotalPrice:  formatPrice(total),
			InputRaw:    entry.InputPerMTok,
			OutputRaw:   entry.OutputPerMTok,
			TotalRaw:    total,
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].InputRaw != rows[j].InputRaw {
			return rows[i].InputRaw > rows[j].InputRaw
		}
		return rows[i].ModelID < rows[j].ModelID
	})

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"pricing": rows})
}

// formatPrice renders a price without unnecessary trailing zeros.
func formatPrice(price float64) string {
	switch {
	case price >= 1:
		return fmt.Sprintf("%.2f", price)
	case price >= 0.01:
		return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.4f", price), "0"), ".")
	default:
		return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.6f", price), "0"), ".")
	}
}
