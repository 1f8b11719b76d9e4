package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// PricingFileEntry is one model's price in the pricing override file,
// expressed in USD per million tokens.
type PricingFileEntry struct {
	InputPerMTok  float64 `yaml:"input_per_mtok"`
	OutputPerMTok float64 `yaml:"output_per_mtok"`
}

// LoadPricingFile reads a YAML file mapping model identifiers to prices.
// Entries override the built-in pricing table.
func LoadPricingFile(path string) (map[string]PricingFileEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pricing file: %w", err)
	}

	entries := make(map[string]PricingFileEntry)
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse pricing file: %w", err)
	}
	return entries, nil
}

// LoadAliasFile reads a YAML file mapping a canonical username to the
// list of raw identities that should collapse into it. The returned map
// is inverted: raw identity to canonical username.
func LoadAliasFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read aliases file: %w", err)
	}

	grouped := make(map[string][]string)
	if err := yaml.Unmarshal(data, &grouped); err != nil {
		return nil, fmt.Errorf("failed to parse aliases file: %w", err)
	}

	aliases := make(map[string]string)
	for canonical, raws := range grouped {
		for _, raw := range raws {
			aliases[raw] = canonical
		}
	}
	return aliases, nil
}
