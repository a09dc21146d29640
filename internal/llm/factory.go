package llm

import (
	"context"
	"fmt"
	"log/slog"
)

// NewProvider builds the configured provider wrapped as
// caller → timeout → retry → logging → provider. It returns ErrDisabled when
// cfg selects no provider.
func NewProvider(ctx context.Context, cfg Config, events EventLogger, logger *slog.Logger) (Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var base Provider
	var err error
	switch cfg.Provider {
	case ProviderAnthropic:
		base, err = NewAnthropicProvider(cfg.Anthropic)
	case ProviderOpenAI:
		base, err = NewOpenAIProvider(cfg.OpenAI)
	case ProviderOpenRouter:
		base, err = NewOpenRouterProvider(cfg.OpenRouter)
	case ProviderGemini:
		base, err = NewGeminiProvider(ctx, cfg.Gemini)
	case ProviderMock:
		base = NewMockProvider()
	default:
		return nil, ErrDisabled
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	p := WithLogging(base, events, logger)
	p = WithRetry(p, cfg.Retry, logger)
	return WithTimeout(p, cfg.Timeout), nil
}

// NewProviderFromEnv builds a provider from MATHQUEST_* variables or the
// first vendor API key found. It returns ErrDisabled when none is set.
func NewProviderFromEnv(ctx context.Context, events EventLogger, logger *slog.Logger) (Provider, error) {
	cfg, err := ConfigFromEnv(DefaultConfig())
	if err != nil {
		return nil, err
	}
	return NewProvider(ctx, cfg, events, logger)
}
