package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadPricingFile(t *testing.T) {
	path := writeTempFile(t, "pricing.yaml", `
anthropic.claude-sonnet-4-20250514-v1:0:
  input_per_mtok: 3.0
  output_per_mtok: 15.0
amazon.nova-lite-v1:0:
  input_per_mtok: 0.06
  output_per_mtok: 0.24
`)

	entries, err := LoadPricingFile(path)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, 3.0, entries["anthropic.claude-sonnet-4-20250514-v1:0"].InputPerMTok)
	assert.Equal(t, 0.24, entries["amazon.nova-lite-v1:0"].OutputPerMTok)
}

func TestLoadPricingFileMissing(t *testing.T) {
	_, err := LoadPricingFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadAliasFileInverts(t *testing.T) {
	path := writeTempFile(t, "aliases.yaml", `
alice:
  - alice-dev
  - alice-staging
bob:
  - robert
`)

	aliases, err := LoadAliasFile(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"alice-dev":     "alice",
		"alice-staging": "alice",
		"robert":        "bob",
	}, aliases)
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, "/aws/bedrock/modelinvocations", cfg.Insights.LogGroup)
	assert.Equal(t, 7, cfg.Insights.DefaultDays)
	assert.Equal(t, []string{"us", "global", "eu", "ap"}, cfg.Pricing.RegionPrefixes)
	assert.Equal(t, "bedrock-", cfg.Aliases.StripPrefix)
	assert.Equal(t, "memory", cfg.Cache.Backend)
}
