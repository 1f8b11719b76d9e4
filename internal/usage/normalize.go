package usage

import (
	"regexp"
	"strings"
	"sync"
)

// Normalizer collapses raw invocation identities into canonical
// usernames and strips cross-region routing prefixes off model
// identifiers. Alias tables can be swapped at runtime.
type Normalizer struct {
	mu             sync.RWMutex
	aliases        map[string]string // raw identity -> canonical username
	stripPrefix    string
	regionPrefixes map[string]struct{}
}

// NewNormalizer creates a normalizer. aliases maps raw identities to
// canonical usernames; stripPrefix is removed from the front of raw
// usernames before alias resolution; regionPrefixes are the routing
// prefixes recognized on model identifiers.
func NewNormalizer(aliases map[string]string, stripPrefix string, regionPrefixes []string) *Normalizer {
	prefixes := make(map[string]struct{}, len(regionPrefixes))
	for _, p := range regionPrefixes {
		prefixes[p] = struct{}{}
	}
	if aliases == nil {
		aliases = make(map[string]string)
	}
	return &Normalizer{
		aliases:        aliases,
		stripPrefix:    stripPrefix,
		regionPrefixes: prefixes,
	}
}

// SetAliases replaces the alias table.
func (n *Normalizer) SetAliases(aliases map[string]string) {
	if aliases == nil {
		aliases = make(map[string]string)
	}
	n.mu.Lock()
	n.aliases = aliases
	n.mu.Unlock()
}

// NormalizeUser turns an invocation identity ARN into a canonical
// username. IAM users and assumed roles yield their name segment, root
// credentials yield "root", and anything still ARN-shaped after
// normalization is grouped under "Other".
func (n *Normalizer) NormalizeUser(arn string) string {
	var raw string
	switch {
	case strings.Contains(arn, "user/"):
		raw = strings.SplitN(strings.SplitN(arn, "user/", 2)[1], "/", 2)[0]
	case strings.Contains(arn, "assumed-role/"):
		raw = strings.SplitN(strings.SplitN(arn, "assumed-role/", 2)[1], "/", 2)[0]
	case strings.Contains(arn, ":root"):
		raw = "root"
	default:
		raw = arn
	}

	user := strings.TrimPrefix(raw, n.stripPrefix)

	n.mu.RLock()
	canonical, ok := n.aliases[user]
	n.mu.RUnlock()
	if ok {
		return canonical
	}

	if strings.Contains(user, ":") || strings.HasPrefix(user, "arn") {
		return "Other"
	}
	return user
}

// StripModelPrefix removes the inference-profile ARN wrapper and any
// recognized region routing prefix from a model identifier.
//
//	arn:aws:bedrock:us-west-2:...:inference-profile/us.anthropic.claude-sonnet-4-20250514-v1:0
//	  -> anthropic.claude-sonnet-4-20250514-v1:0
//	global.amazon.nova-pro-v1:0 -> amazon.nova-pro-v1:0
func (n *Normalizer) StripModelPrefix(modelID string) string {
	if idx := strings.Index(modelID, ":inference-profile/"); idx >= 0 {
		modelID = modelID[idx+len(":inference-profile/"):]
	}

	if prefix, rest, ok := strings.Cut(modelID, "."); ok {
		if _, known := n.regionPrefixes[prefix]; known {
			return rest
		}
	}
	return modelID
}

var (
	dateSuffixRe    = regexp.MustCompile(`-\d{8}.*$`)
	dateMarkerRe    = regexp.MustCompile(`-\d{8}`)
	versionSuffixRe = regexp.MustCompile(`(-v\d:0|-\d:0)$`)
)

// ModelDisplayName builds a human-readable name from a cleaned model
// identifier: provider prefix and date or version suffixes are removed,
// words are capitalized, and the extended context marker becomes a
// "(1m)" label.
func ModelDisplayName(modelID string) string {
	cleanID := modelID
	extendedContext := strings.Contains(cleanID, "[1m]")
	if extendedContext {
		cleanID = strings.ReplaceAll(cleanID, "[1m]", "")
	}

	if _, rest, ok := strings.Cut(cleanID, "."); ok {
		cleanID = rest
	}

	cleanID = dateSuffixRe.ReplaceAllString(cleanID, "")
	if !dateMarkerRe.MatchString(modelID) {
		cleanID = versionSuffixRe.ReplaceAllString(cleanID, "")
	}

	cleanID = strings.ReplaceAll(cleanID, "-", " ")
	cleanID = strings.ReplaceAll(cleanID, "_", " ")

	words := strings.Fields(cleanID)
	for i, word := range words {
		words[i] = strings.ToUpper(word[:1]) + strings.ToLower(word[1:])
	}
	name := strings.Join(words, " ")

	if extendedContext {
		name += " (1m)"
	}
	return name
}
