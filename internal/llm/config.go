package llm

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
)

// Provider names accepted in Config.Provider.
const (
	ProviderAnthropic  = "anthropic"
	ProviderOpenAI     = "openai"
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"
	ProviderMock       = "mock"
	ProviderNone       = "none"
)

// Config selects and configures the question-generation model. Every field
// can be set from a MATHQUEST_* environment variable or from the llm section
// of the config file.
type Config struct {
	// Provider is one of anthropic, openai, gemini, openrouter, mock or none.
	// "none" disables LLM generation and leaves only templates.
	Provider string `yaml:"provider" env:"MATHQUEST_LLM_PROVIDER"`

	Anthropic  AnthropicConfig  `yaml:"anthropic"`
	OpenAI     OpenAIConfig     `yaml:"openai"`
	Gemini     GeminiConfig     `yaml:"gemini"`
	OpenRouter OpenRouterConfig `yaml:"openrouter"`
	Retry      RetryConfig      `yaml:"retry"`

	// Timeout bounds one Generate call including retries.
	Timeout time.Duration `yaml:"timeout" env:"MATHQUEST_LLM_TIMEOUT"`
}

// AnthropicConfig configures the Anthropic provider.
type AnthropicConfig struct {
	APIKey string `yaml:"api_key" env:"MATHQUEST_ANTHROPIC_API_KEY"`
	Model  string `yaml:"model" env:"MATHQUEST_ANTHROPIC_MODEL"`
}

// OpenAIConfig configures the OpenAI provider.
type OpenAIConfig struct {
	APIKey  string `yaml:"api_key" env:"MATHQUEST_OPENAI_API_KEY"`
	Model   string `yaml:"model" env:"MATHQUEST_OPENAI_MODEL"`
	BaseURL string `yaml:"base_url" env:"MATHQUEST_OPENAI_BASE_URL"`
}

// GeminiConfig configures the Gemini provider.
type GeminiConfig struct {
	APIKey string `yaml:"api_key" env:"MATHQUEST_GEMINI_API_KEY"`
	Model  string `yaml:"model" env:"MATHQUEST_GEMINI_MODEL"`
}

// OpenRouterConfig configures OpenRouter through its OpenAI-compatible API.
type OpenRouterConfig struct {
	APIKey  string `yaml:"api_key" env:"MATHQUEST_OPENROUTER_API_KEY"`
	Model   string `yaml:"model" env:"MATHQUEST_OPENROUTER_MODEL"`
	BaseURL string `yaml:"base_url" env:"MATHQUEST_OPENROUTER_BASE_URL"`
}

// RetryConfig controls backoff for transient provider failures.
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts" env:"MATHQUEST_LLM_RETRY_ATTEMPTS"`
	InitialWait time.Duration `yaml:"initial_wait" env:"MATHQUEST_LLM_RETRY_INITIAL_WAIT"`
	MaxWait     time.Duration `yaml:"max_wait" env:"MATHQUEST_LLM_RETRY_MAX_WAIT"`
	Multiplier  float64       `yaml:"multiplier"`
}

// DefaultConfig returns the built-in defaults. No provider is selected until
// an API key is found.
func DefaultConfig() Config {
	return Config{
		Provider:   ProviderNone,
		Anthropic:  AnthropicConfig{Model: "claude-haiku"},
		OpenAI:     OpenAIConfig{Model: "gpt-4o-mini"},
		Gemini:     GeminiConfig{Model: "gemini-flash"},
		OpenRouter: OpenRouterConfig{Model: "google/gemini-2.0-flash-001"},
		Retry: RetryConfig{
			MaxAttempts: 3,
			InitialWait: time.Second,
			MaxWait:     10 * time.Second,
			Multiplier:  2,
		},
		Timeout: 30 * time.Second,
	}
}

// ConfigFromEnv overlays MATHQUEST_* environment variables on top of base.
// When no provider was chosen explicitly, the standard vendor key variables
// are probed via DiscoverConfig.
func ConfigFromEnv(base Config) (Config, error) {
	cfg := base
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse llm env: %w", err)
	}
	if cfg.Provider == "" || cfg.Provider == ProviderNone {
		if found, ok := discover(cfg); ok {
			return found, nil
		}
	}
	return cfg, nil
}

// DiscoverConfig probes the vendor API key variables in priority order
// (Gemini, OpenAI, Anthropic, OpenRouter) and returns a Config for the first
// key found.
func DiscoverConfig() (Config, bool) {
	return discover(DefaultConfig())
}

func discover(cfg Config) (Config, bool) {
	probes := []struct {
		envVar   string
		provider string
		set      func(string)
	}{
		{"GEMINI_API_KEY", ProviderGemini, func(k string) { cfg.Gemini.APIKey = k }},
		{"OPENAI_API_KEY", ProviderOpenAI, func(k string) { cfg.OpenAI.APIKey = k }},
		{"ANTHROPIC_API_KEY", ProviderAnthropic, func(k string) { cfg.Anthropic.APIKey = k }},
		{"OPENROUTER_API_KEY", ProviderOpenRouter, func(k string) { cfg.OpenRouter.APIKey = k }},
	}
	for _, p := range probes {
		if k := os.Getenv(p.envVar); k != "" {
			p.set(k)
			cfg.Provider = p.provider
			return cfg, true
		}
	}
	return cfg, false
}

// Validate checks that the selected provider has its API key.
func (c Config) Validate() error {
	var key, envVar string
	switch c.Provider {
	case ProviderAnthropic:
		key, envVar = c.Anthropic.APIKey, "MATHQUEST_ANTHROPIC_API_KEY"
	case ProviderOpenAI:
		key, envVar = c.OpenAI.APIKey, "MATHQUEST_OPENAI_API_KEY"
	case ProviderGemini:
		key, envVar = c.Gemini.APIKey, "MATHQUEST_GEMINI_API_KEY"
	case ProviderOpenRouter:
		key, envVar = c.OpenRouter.APIKey, "MATHQUEST_OPENROUTER_API_KEY"
	case ProviderMock, ProviderNone, "":
		return nil
	default:
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
	if key == "" {
		return fmt.Errorf("%s is required for the %s provider", envVar, c.Provider)
	}
	return nil
}

// Enabled reports whether a real or mock provider is selected.
func (c Config) Enabled() bool {
	return c.Provider != "" && c.Provider != ProviderNone
}
