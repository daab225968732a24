package llm

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/abhisek/mathduel/internal/store"
)

// NewProvider creates a Provider from configuration, wrapped with the
// middleware chain caller → breaker → retry → logging → base. The mock
// provider is returned bare.
func NewProvider(ctx context.Context, cfg Config, events store.LLMEventRepo, logger *slog.Logger) (Provider, error) {
	var base Provider
	var err error

	switch cfg.Provider {
	case "anthropic":
		base, err = NewAnthropicProvider(cfg.Anthropic)
	case "openai":
		base, err = NewOpenAIProvider(cfg.OpenAI)
	case "gemini":
		base, err = NewGeminiProvider(ctx, cfg.Gemini)
	case "openrouter":
		base, err = NewOpenRouterProvider(cfg.OpenRouter)
	case "mock":
		return NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	p := WithLogging(base, events, logger)
	p = WithRetry(p, cfg.Retry)
	if cfg.Breaker.Enabled {
		p = WithCircuitBreaker(p, cfg.Breaker, logger)
	}
	return p, nil
}

// NewProviderFromEnv resolves configuration from MATHDUEL_* variables,
// falling back to vendor key discovery. It returns (nil, nil) when no
// provider is configured, in which case callers generate problems locally.
func NewProviderFromEnv(ctx context.Context, events store.LLMEventRepo, logger *slog.Logger) (Provider, error) {
	cfg := ConfigFromEnv()
	if err := cfg.Validate(); err != nil {
		discovered, ok := DiscoverConfig()
		if !ok {
			return nil, nil
		}
		cfg = discovered
	}
	return NewProvider(ctx, cfg, events, logger)
}
