package providers

import (
	"strings"

	"github.com/dshills/sift/internal/diff"
)

// Tier identifies the fast or thorough model.
type Tier string

const (
	Tier1 Tier = "tier1"
	Tier2 Tier = "tier2"
)

// Review modes.
const (
	ModeFast     = "fast"
	ModeBalanced = "balanced"
	ModeThorough = "thorough"
)

// tier2AdditionThreshold is the number of added lines above which a change
// goes to the thorough model regardless of paths.
const tier2AdditionThreshold = 200

var sensitivePathMarkers = []string{
	"auth", "password", "token", "secret", "crypto", "sql", "injection",
}

// Models holds a provider's model per tier.
type Models struct {
	Tier1 string
	Tier2 string
}

// For returns the model for t.
func (m Models) For(t Tier) string {
	if t == Tier2 {
		return m.Tier2
	}
	return m.Tier1
}

var defaultModels = map[string]Models{
	"openai":     {Tier1: "gpt-4o-mini", Tier2: "gpt-4o"},
	"anthropic":  {Tier1: "claude-3-5-haiku-latest", Tier2: "claude-sonnet-4-20250514"},
	"openrouter": {Tier1: "openai/gpt-4o-mini", Tier2: "anthropic/claude-3.5-sonnet"},
	"ollama":     {Tier1: "qwen2.5-coder", Tier2: "qwen2.5-coder:32b"},
}

// DefaultModels returns the built-in tier models for a provider. Unknown
// providers get the OpenAI pair.
func DefaultModels(provider string) Models {
	if m, ok := defaultModels[provider]; ok {
		return m
	}
	return defaultModels["openai"]
}

// SelectTier picks Tier2 when a path looks security-sensitive or the change
// is large.
func SelectTier(files []diff.File) Tier {
	for _, f := range files {
		p := strings.ToLower(f.Path)
		for _, marker := range sensitivePathMarkers {
			if strings.Contains(p, marker) {
				return Tier2
			}
		}
	}
	if diff.TotalAdditions(files) > tier2AdditionThreshold {
		return Tier2
	}
	return Tier1
}

// ResolveModel applies the review mode and an optional override to the
// selected tier. An override wins outright.
func ResolveModel(models Models, selected Tier, mode, override string) (string, Tier) {
	tier := selected
	switch mode {
	case ModeFast:
		tier = Tier1
	case ModeThorough:
		tier = Tier2
	}
	if override != "" {
		return override, tier
	}
	return models.For(tier), tier
}
