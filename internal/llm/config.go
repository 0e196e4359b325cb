// Package llm wraps the text-generation providers used to write CV summaries
// and achievement bullets behind a single Client interface.
package llm

import "fmt"

// ModelTier represents the complexity/capability level of a model
type ModelTier string

const (
	// TierLite is for short texts: skills lists, one-line summaries
	TierLite ModelTier = "lite"
	// TierStandard is for achievement bullets and profile summaries
	TierStandard ModelTier = "standard"
	// TierAdvanced is reserved for regenerating rejected documents
	TierAdvanced ModelTier = "advanced"
)

// Provider represents an LLM provider
type Provider string

const (
	ProviderGemini    Provider = "gemini"
	ProviderAnthropic Provider = "anthropic"
)

// ParseProvider maps a config value to a Provider. The empty string selects
// Gemini.
func ParseProvider(s string) (Provider, error) {
	switch Provider(s) {
	case "", ProviderGemini:
		return ProviderGemini, nil
	case ProviderAnthropic:
		return ProviderAnthropic, nil
	default:
		return "", fmt.Errorf("unknown llm provider %q", s)
	}
}

// Config holds the model configuration for one provider
type Config struct {
	Provider    Provider
	Models      map[ModelTier]string
	Temperature float64
	MaxTokens   int
}

// DefaultConfig returns the default configuration (Gemini)
func DefaultConfig() *Config {
	return DefaultGeminiConfig()
}

// ConfigFor returns the default configuration of provider
func ConfigFor(provider Provider) *Config {
	if provider == ProviderAnthropic {
		return DefaultAnthropicConfig()
	}
	return DefaultGeminiConfig()
}

func DefaultGeminiConfig() *Config {
	return &Config{
		Provider: ProviderGemini,
		Models: map[ModelTier]string{
			TierLite:     "gemini-2.5-flash-lite",
			TierStandard: "gemini-2.5-flash",
			TierAdvanced: "gemini-2.5-pro",
		},
		Temperature: 0.7,
		MaxTokens:   2048,
	}
}

func DefaultAnthropicConfig() *Config {
	return &Config{
		Provider: ProviderAnthropic,
		Models: map[ModelTier]string{
			TierLite:     "claude-3-haiku-20240307",
			TierStandard: "claude-sonnet-4-20250514",
			TierAdvanced: "claude-sonnet-4-5-20250929",
		},
		Temperature: 0.7,
		MaxTokens:   2048,
	}
}

// GetModel returns the model name for a given tier. Unknown tiers fall back
// to standard, then lite.
func (c *Config) GetModel(tier ModelTier) string {
	if model, ok := c.Models[tier]; ok {
		return model
	}
	if model, ok := c.Models[TierStandard]; ok {
		return model
	}
	return c.Models[TierLite]
}

// WithModel returns a copy of c with model set for tier
func (c *Config) WithModel(tier ModelTier, model string) *Config {
	cp := *c
	cp.Models = make(map[ModelTier]string, len(c.Models)+1)
	for k, v := range c.Models {
		cp.Models[k] = v
	}
	cp.Models[tier] = model
	return &cp
}
