package models

import (
	"encoding/json"
	"strings"
)

// UsageRow is one aggregated row returned by the log backend: token and
// invocation totals for a (raw identity, model, day) group.
type UsageRow struct {
	UserIdentity     string
	ModelID          string
	Date             string // YYYY-MM-DD
	Invocations      int64
	InputTokens      int64
	CacheWriteTokens int64
	OutputTokens     int64
}

// TokenTotals holds input and output token counts. Input includes
// cache-write tokens, which Bedrock bills at the input rate.
type TokenTotals struct {
	Input  int64 `json:"input"`
	Output int64 `json:"output"`
}

// DateRange is the half-open window a result was computed over,
// rendered as calendar dates. It serializes as a single
// "start to end" string, the format the dashboard consumers expect.
type DateRange struct {
	Start string
	End   string
}

func (r DateRange) String() string {
	return r.Start + " to " + r.End
}

func (r DateRange) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

func (r *DateRange) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	r.Start, r.End, _ = strings.Cut(s, " to ")
	return nil
}

// AggregateResult is the full usage breakdown for a time window.
// All maps are keyed by canonical username or cleaned model identifier.
type AggregateResult struct {
	UserInvocations  map[string]int64       `json:"user_invocations"`
	UserTokens       map[string]TokenTotals `json:"user_tokens"`
	UserCosts        map[string]float64     `json:"user_costs"`
	ModelInvocations map[string]int64       `json:"model_invocations"`
	ModelTokens      map[string]TokenTotals `json:"model_tokens"`
	ModelCosts       map[string]float64     `json:"model_costs"`

	// UserModelCosts feeds the cost matrix: user -> model -> cost.
	UserModelCosts map[string]map[string]float64 `json:"user_model_costs"`

	// Daily series, present only when the result was computed with a
	// per-day breakdown.
	DailyTrend          map[string]int64                         `json:"daily_trend,omitempty"`
	DailyCosts          map[string]float64                       `json:"daily_costs,omitempty"`
	UserDailyCosts      map[string]map[string]float64            `json:"user_daily_costs,omitempty"`
	UserModelDailyCosts map[string]map[string]map[string]float64 `json:"user_model_daily_costs,omitempty"`

	ModelDisplayNames map[string]string `json:"model_display_names"`
	UnpricedModels    []string          `json:"unpriced_models,omitempty"`

	DateRange         DateRange `json:"date_range"`
	TotalInvocations  int64     `json:"total_invocations"`
	TotalInputTokens  int64     `json:"total_input_tokens"`
	TotalOutputTokens int64     `json:"total_output_tokens"`
	TotalCost         float64   `json:"total_cost"`
}

// NewAggregateResult returns an AggregateResult with every map
// initialized, so an empty window serializes as {} rather than null.
func NewAggregateResult() *AggregateResult {
	return &AggregateResult{
		UserInvocations:     make(map[string]int64),
		UserTokens:          make(map[string]TokenTotals),
		UserCosts:           make(map[string]float64),
		ModelInvocations:    make(map[string]int64),
		ModelTokens:         make(map[string]TokenTotals),
		ModelCosts:          make(map[string]float64),
		UserModelCosts:      make(map[string]map[string]float64),
		DailyTrend:          make(map[string]int64),
		DailyCosts:          make(map[string]float64),
		UserDailyCosts:      make(map[string]map[string]float64),
		UserModelDailyCosts: make(map[string]map[string]map[string]float64),
		ModelDisplayNames:   make(map[string]string),
	}
}
