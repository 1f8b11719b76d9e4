package usage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestNormalizer(aliases map[string]string) *Normalizer {
	return NewNormalizer(aliases, "bedrock-", []string{"us", "global", "eu", "ap"})
}

func TestNormalizeUser(t *testing.T) {
	norm := newTestNormalizer(map[string]string{
		"aider":   "peterdir",
		"dirkcli": "peterdir",
	})

	tests := []struct {
		name string
		arn  string
		want string
	}{
		{"iam user", "arn:aws:iam::123456789012:user/alice", "alice"},
		{"iam user with prefix", "arn:aws:iam::123456789012:user/bedrock-alice", "alice"},
		{"assumed role", "arn:aws:sts::123456789012:assumed-role/bedrock-ci/session", "ci"},
		{"root credentials", "arn:aws:iam::123456789012:root", "root"},
		{"alias maps to canonical", "arn:aws:iam::123456789012:user/bedrock-aider", "peterdir"},
		{"second alias same canonical", "arn:aws:iam::123456789012:user/dirkcli", "peterdir"},
		{"unparseable arn", "arn:aws:iam::123456789012:something-else", "Other"},
		{"bare name passes through", "carol", "carol"},
		{"leftover colon groups to Other", "a:b", "Other"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, norm.NormalizeUser(tt.arn))
		})
	}
}

func TestNormalizeUserIdempotent(t *testing.T) {
	norm := newTestNormalizer(nil)
	once := norm.NormalizeUser("arn:aws:iam::123456789012:user/bedrock-alice")
	assert.Equal(t, once, norm.NormalizeUser(once))
}

func TestSetAliases(t *testing.T) {
	norm := newTestNormalizer(nil)
	assert.Equal(t, "aider", norm.NormalizeUser("arn:aws:iam::123456789012:user/aider"))

	norm.SetAliases(map[string]string{"aider": "peterdir"})
	assert.Equal(t, "peterdir", norm.NormalizeUser("arn:aws:iam::123456789012:user/aider"))
}

func TestStripModelPrefix(t *testing.T) {
	norm := newTestNormalizer(nil)

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			"region prefix",
			"us.anthropic.claude-3-5-sonnet-20241022-v1:0",
			"anthropic.claude-3-5-sonnet-20241022-v1:0",
		},
		{
			"global prefix",
			"global.amazon.nova-pro-v1:0",
			"amazon.nova-pro-v1:0",
		},
		{
			"inference profile arn",
			"arn:aws:bedrock:us-west-2:405644541454:inference-profile/us.anthropic.claude-sonnet-4-5-20250929-v1:0",
			"anthropic.claude-sonnet-4-5-20250929-v1:0",
		},
		{
			"no prefix",
			"anthropic.claude-3-haiku-20240307-v1:0",
			"anthropic.claude-3-haiku-20240307-v1:0",
		},
		{
			"provider is not a region token",
			"anthropic.claude-v2",
			"anthropic.claude-v2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, norm.StripModelPrefix(tt.in))
		})
	}
}

func TestStripModelPrefixIdempotent(t *testing.T) {
	norm := newTestNormalizer(nil)
	once := norm.StripModelPrefix("us.anthropic.claude-sonnet-4-20250514-v1:0")
	assert.Equal(t, once, norm.StripModelPrefix(once))
}

func TestModelDisplayName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"anthropic.claude-3-5-haiku-20241022-v1:0", "Claude 3 5 Haiku"},
		{"anthropic.claude-sonnet-4-5-20250929-v1:0[1m]", "Claude Sonnet 4 5 (1m)"},
		{"amazon.nova-pro-v1:0", "Nova Pro"},
		{"deepseek.deepseek-r1", "Deepseek R1"},
		{"openai.gpt-oss-120b-1:0", "Gpt Oss 120b"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ModelDisplayName(tt.in))
		})
	}
}
