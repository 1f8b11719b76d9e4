package archive

import (
	"time"

	"bedrock_usage/internal/models"
)

// Snapshot is a summary of one fresh usage computation, archived for
// offline analysis of spend over time.
type Snapshot struct {
	ID                string             `json:"id"`
	CreatedAt         time.Time          `json:"created_at"`
	Days              int                `json:"days"`
	DateRange         models.DateRange   `json:"date_range"`
	TotalInvocations  int64              `json:"total_invocations"`
	TotalInputTokens  int64              `json:"total_input_tokens"`
	TotalOutputTokens int64              `json:"total_output_tokens"`
	TotalCost         float64            `json:"total_cost"`
	UserCosts         map[string]float64 `json:"user_costs"`
	ModelCosts        map[string]float64 `json:"model_costs"`
	UnpricedModels    []string           `json:"unpriced_models,omitempty"`
}

// Sink receives snapshots. Enqueue must not block the request path.
type Sink interface {
	Enqueue(snapshot Snapshot)
}

// NoopSink discards snapshots. Used when archiving is disabled.
type NoopSink struct{}

func (NoopSink) Enqueue(Snapshot) {}
