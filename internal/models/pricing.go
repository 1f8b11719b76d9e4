package models

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// PricingEntry is a model's on-demand price in USD per million tokens.
// Cache-write tokens bill at the input rate.
type PricingEntry struct {
	InputPerMTok  float64 `json:"input_per_mtok"`
	OutputPerMTok float64 `json:"output_per_mtok"`
}

// Cost returns the USD cost for the given token counts.
func (p PricingEntry) Cost(inputTokens, outputTokens int64) float64 {
	return float64(inputTokens)/1_000_000*p.InputPerMTok +
		float64(outputTokens)/1_000_000*p.OutputPerMTok
}

// PricingTable maps model identifiers to prices. Tables are immutable
// once built; swapping in new prices means building a new table.
type PricingTable struct {
	entries map[string]PricingEntry
	keys    []string // sorted, for deterministic substring fallback
}

// NewPricingTable builds a table from the given entries.
func NewPricingTable(entries map[string]PricingEntry) *PricingTable {
	copied := make(map[string]PricingEntry, len(entries))
	keys := make([]string, 0, len(entries))
	for k, v := range entries {
		copied[k] = v
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return &PricingTable{entries: copied, keys: keys}
}

// Lookup resolves pricing for a model. It tries the cleaned identifier,
// then the raw identifier, then a substring match against the raw
// identifier in sorted key order. The second return is false when no
// entry matched; callers treat that as a zero price.
func (t *PricingTable) Lookup(cleanID, rawID string) (PricingEntry, bool) {
	if entry, ok := t.entries[cleanID]; ok {
		return entry, true
	}
	if entry, ok := t.entries[rawID]; ok {
		return entry, true
	}
	for _, key := range t.keys {
		if strings.Contains(rawID, key) || strings.Contains(key, rawID) {
			return t.entries[key], true
		}
	}
	return PricingEntry{}, false
}

// Entries returns a copy of the table's contents.
func (t *PricingTable) Entries() map[string]PricingEntry {
	copied := make(map[string]PricingEntry, len(t.entries))
	for k, v := range t.entries {
		copied[k] = v
	}
	return copied
}

// ModelPrice is a database-backed pricing override.
type ModelPrice struct {
	ID            uuid.UUID `db:"id"`
	ModelID       string    `db:"model_id"`
	InputPerMTok  float64   `db:"input_per_mtok"`
	OutputPerMTok float64   `db:"output_per_mtok"`
	Active        bool      `db:"active"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

// DefaultPricing returns the built-in on-demand price list for models
// currently in use, in USD per million tokens.
func DefaultPricing() map[string]PricingEntry {
	return map[string]PricingEntry{
		// Claude 4.5
		"anthropic.claude-sonnet-4-5-20250929-v1:0":     {InputPerMTok: 3.3, OutputPerMTok: 16.5},
		"anthropic.claude-sonnet-4-5-20250929-v1:0[1m]": {InputPerMTok: 6.6, OutputPerMTok: 24.75},
		"anthropic.claude-haiku-4-5-20251001-v1:0":      {InputPerMTok: 1.1, OutputPerMTok: 5.5},

		// Claude 4.x
		"anthropic.claude-sonnet-4-20250514-v1:0": {InputPerMTok: 3.0, OutputPerMTok: 15.0},
		"anthropic.claude-opus-4-20250514-v1:0":   {InputPerMTok: 15.0, OutputPerMTok: 75.0},
		"anthropic.claude-opus-4-1-20250805-v1:0": {InputPerMTok: 15.0, OutputPerMTok: 75.0},

		// Claude 3.x
		"anthropic.claude-3-5-sonnet-20240620-v1:0": {InputPerMTok: 3.0, OutputPerMTok: 15.0},
		"anthropic.claude-3-5-haiku-20241022-v1:0":  {InputPerMTok: 1.0, OutputPerMTok: 5.0},
		"anthropic.claude-3-haiku-20240307-v1:0":    {InputPerMTok: 0.25, OutputPerMTok: 1.25},

		// OpenAI open-weight
		"openai.gpt-oss-20b-1:0":  {InputPerMTok: 0.07, OutputPerMTok: 0.3},
		"openai.gpt-oss-120b-1:0": {InputPerMTok: 0.15, OutputPerMTok: 0.6},

		// DeepSeek
		"deepseek.deepseek-r1":   {InputPerMTok: 1.35, OutputPerMTok: 5.4},
		"deepseek.deepseek-v3.1": {InputPerMTok: 0.58, OutputPerMTok: 1.68},

		// Qwen
		"qwen.qwen3-coder-30b-a3b":   {InputPerMTok: 0.15, OutputPerMTok: 0.6},
		"qwen.qwen3-32b":             {InputPerMTok: 0.15, OutputPerMTok: 0.6},
		"qwen.qwen3-235b-a22b-2507":  {InputPerMTok: 0.22, OutputPerMTok: 0.88},
		"qwen.qwen3-coder-480b-a35b": {InputPerMTok: 0.22, OutputPerMTok: 1.8},

		// Amazon Nova
		"amazon.nova-micro-v1:0":   {InputPerMTok: 0.035, OutputPerMTok: 0.00875},
		"amazon.nova-lite-v1:0":    {InputPerMTok: 0.06, OutputPerMTok: 0.015},
		"amazon.nova-pro-v1:0":     {InputPerMTok: 0.8, OutputPerMTok: 0.2},
		"amazon.nova-premier-v1:0": {InputPerMTok: 2.5, OutputPerMTok: 0.625},
	}
}
