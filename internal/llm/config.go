// Package llm provides centralized LLM configuration and client abstractions.
// Model tiers let callers ask for capability without naming a provider model.
package llm

import (
	"time"

	appconfig "github.com/jonathan/career-roadmap/internal/config"
)

// ModelTier represents the complexity/capability level of a model
type ModelTier string

const (
	// TierLite is for simple tasks: probes, classification
	TierLite ModelTier = "lite"
	// TierStandard is for moderate reasoning: critique, structured output
	TierStandard ModelTier = "standard"
	// TierAdvanced is for complex reasoning: roadmap drafting
	TierAdvanced ModelTier = "advanced"
)

// Provider represents an LLM provider
type Provider string

const (
	// ProviderGemini is the Google Gemini provider
	ProviderGemini Provider = "gemini"
	// ProviderOllama is any OpenAI-compatible chat completions endpoint, Ollama by default
	ProviderOllama Provider = "ollama"
)

// Config holds the model configuration for the application
type Config struct {
	Provider    Provider
	Models      map[ModelTier]string
	BaseURL     string // used by ProviderOllama
	Temperature float32
	Timeout     time.Duration // HTTP timeout for ProviderOllama
}

// DefaultConfig returns the default configuration (Gemini)
func DefaultConfig() *Config {
	return DefaultGeminiConfig()
}

// DefaultGeminiConfig returns the default Gemini configuration
func DefaultGeminiConfig() *Config {
	return &Config{
		Provider: ProviderGemini,
		Models: map[ModelTier]string{
			TierLite:     "gemini-2.5-flash-lite",
			TierStandard: "gemini-2.5-flash",
			TierAdvanced: "gemini-2.5-pro",
		},
		Temperature: 0.2,
	}
}

// DefaultOllamaConfig returns the default configuration for a local Ollama host
func DefaultOllamaConfig() *Config {
	return &Config{
		Provider: ProviderOllama,
		Models: map[ModelTier]string{
			TierLite:     "llama3.2",
			TierStandard: "llama3.1",
			TierAdvanced: "llama3.1",
		},
		BaseURL:     "http://127.0.0.1:11434",
		Temperature: 0.2,
		Timeout:     3 * time.Minute,
	}
}

// ConfigFrom builds a Config from the application LLM settings.
// A configured model name overrides every tier.
func ConfigFrom(c appconfig.LLMConfig) *Config {
	var cfg *Config
	switch Provider(c.Provider) {
	case ProviderOllama:
		cfg = DefaultOllamaConfig()
		if c.BaseURL != "" {
			cfg.BaseURL = c.BaseURL
		}
	default:
		cfg = DefaultGeminiConfig()
	}
	if c.Model != "" {
		for _, tier := range []ModelTier{TierLite, TierStandard, TierAdvanced} {
			cfg = cfg.WithModel(tier, c.Model)
		}
	}
	return cfg
}

// GetModel returns the model name for a given tier
func (c *Config) GetModel(tier ModelTier) string {
	if model, ok := c.Models[tier]; ok {
		return model
	}
	// Fallback chain: try standard, then lite
	if model, ok := c.Models[TierStandard]; ok {
		return model
	}
	if model, ok := c.Models[TierLite]; ok {
		return model
	}
	return ""
}

// WithModel returns a new Config with a specific model for a tier
func (c *Config) WithModel(tier ModelTier, model string) *Config {
	next := *c
	next.Models = make(map[ModelTier]string, len(c.Models)+1)
	for k, v := range c.Models {
		next.Models[k] = v
	}
	next.Models[tier] = model
	return &next
}
