package llm

import (
	"fmt"
	"os"
	"time"
)

// Config holds all provider configuration.
type Config struct {
	// Provider is one of "anthropic", "openai", "gemini", "openrouter", "mock".
	Provider string

	Anthropic  AnthropicConfig
	OpenAI     OpenAIConfig
	Gemini     GeminiConfig
	OpenRouter OpenRouterConfig
	Retry      RetryConfig
	Breaker    BreakerConfig
}

// AnthropicConfig holds Anthropic-specific configuration.
type AnthropicConfig struct {
	APIKey string
	Model  string
}

// OpenAIConfig holds OpenAI-specific configuration.
type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string // optional, for OpenAI-compatible APIs
}

// GeminiConfig holds Gemini-specific configuration.
type GeminiConfig struct {
	APIKey string
	Model  string
}

// OpenRouterConfig holds OpenRouter-specific configuration.
type OpenRouterConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// RetryConfig configures retry behavior for transient failures.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// BreakerConfig configures the circuit breaker in front of the provider.
type BreakerConfig struct {
	Enabled bool

	// Failures is the number of consecutive failures that opens the circuit.
	Failures uint32

	// OpenFor is how long the circuit stays open before a trial request.
	OpenFor time.Duration
}

// DefaultConfig returns a Config with sensible defaults. Retries are kept
// short because a battle turn waits on generation under a deadline.
func DefaultConfig() Config {
	return Config{
		Provider:   "anthropic",
		Anthropic:  AnthropicConfig{Model: "claude-haiku"},
		OpenAI:     OpenAIConfig{Model: "gpt-4o-mini"},
		Gemini:     GeminiConfig{Model: "gemini-flash"},
		OpenRouter: OpenRouterConfig{Model: "google/gemini-2.0-flash-001"},
		Retry: RetryConfig{
			MaxAttempts: 2,
			InitialWait: 500 * time.Millisecond,
			MaxWait:     3 * time.Second,
			Multiplier:  2.0,
		},
		Breaker: BreakerConfig{
			Enabled:  true,
			Failures: 3,
			OpenFor:  30 * time.Second,
		},
	}
}

// ConfigFromEnv builds a Config from MATHDUEL_* environment variables,
// falling back to defaults for unset values.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	setFromEnv(&cfg.Provider, "MATHDUEL_LLM_PROVIDER")

	setFromEnv(&cfg.Anthropic.APIKey, "MATHDUEL_ANTHROPIC_API_KEY")
	setFromEnv(&cfg.Anthropic.Model, "MATHDUEL_ANTHROPIC_MODEL")

	setFromEnv(&cfg.OpenAI.APIKey, "MATHDUEL_OPENAI_API_KEY")
	setFromEnv(&cfg.OpenAI.Model, "MATHDUEL_OPENAI_MODEL")
	setFromEnv(&cfg.OpenAI.BaseURL, "MATHDUEL_OPENAI_BASE_URL")

	setFromEnv(&cfg.Gemini.APIKey, "MATHDUEL_GEMINI_API_KEY")
	setFromEnv(&cfg.Gemini.Model, "MATHDUEL_GEMINI_MODEL")

	setFromEnv(&cfg.OpenRouter.APIKey, "MATHDUEL_OPENROUTER_API_KEY")
	setFromEnv(&cfg.OpenRouter.Model, "MATHDUEL_OPENROUTER_MODEL")

	if os.Getenv("MATHDUEL_LLM_BREAKER") == "off" {
		cfg.Breaker.Enabled = false
	}

	return cfg
}

func setFromEnv(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// DiscoverConfig probes the vendors' standard API key variables in priority
// order (Gemini, OpenAI, Anthropic, OpenRouter) and returns a Config for the
// first one found.
func DiscoverConfig() (Config, bool) {
	cfg := DefaultConfig()

	if k := os.Getenv("GEMINI_API_KEY"); k != "" {
		cfg.Provider = "gemini"
		cfg.Gemini.APIKey = k
		return cfg, true
	}
	if k := os.Getenv("OPENAI_API_KEY"); k != "" {
		cfg.Provider = "openai"
		cfg.OpenAI.APIKey = k
		return cfg, true
	}
	if k := os.Getenv("ANTHROPIC_API_KEY"); k != "" {
		cfg.Provider = "anthropic"
		cfg.Anthropic.APIKey = k
		return cfg, true
	}
	if k := os.Getenv("OPENROUTER_API_KEY"); k != "" {
		cfg.Provider = "openrouter"
		cfg.OpenRouter.APIKey = k
		return cfg, true
	}

	return Config{}, false
}

// Validate checks that the selected provider has its required API key set.
func (c Config) Validate() error {
	var key, env string
	switch c.Provider {
	case "anthropic":
		key, env = c.Anthropic.APIKey, "MATHDUEL_ANTHROPIC_API_KEY"
	case "openai":
		key, env = c.OpenAI.APIKey, "MATHDUEL_OPENAI_API_KEY"
	case "gemini":
		key, env = c.Gemini.APIKey, "MATHDUEL_GEMINI_API_KEY"
	case "openrouter":
		key, env = c.OpenRouter.APIKey, "MATHDUEL_OPENROUTER_API_KEY"
	case "mock":
		return nil
	default:
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
	if key == "" {
		return fmt.Errorf("%s is required for the %s provider", env, c.Provider)
	}
	return nil
}
