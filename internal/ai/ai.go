package ai

import (
	"context"
	"errors"
	"fmt"
)

// Supported provider names. Selection is resolved once per job and
// never re-dispatched mid-pipeline.
const (
	ProviderGemini    = "gemini"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderMock      = "mock"
)

// ErrMissingAPIKey means a non-mock provider was requested without an
// API key from either the request or the process configuration.
var ErrMissingAPIKey = errors.New("api key required for llm provider")

// Provider is the single capability the summarization stage needs.
type Provider interface {
	Complete(ctx context.Context, prompt string) (string, error)
	Name() string
	Close() error
}

// Config selects and parameterizes one provider instance.
type Config struct {
	Provider string
	APIKey   string
	Model    string
	BaseURL  string
}

func New(ctx context.Context, cfg Config) (Provider, error) {
	switch cfg.Provider {
	case ProviderMock:
		return MockProvider{}, nil
	case ProviderGemini:
		return NewGeminiProvider(ctx, cfg.APIKey, cfg.Model)
	case ProviderOpenAI:
		if cfg.APIKey == "" {
			return nil, ErrMissingAPIKey
		}
		return &OpenAIProvider{BaseURL: cfg.BaseURL, APIKey: cfg.APIKey, Model: cfg.Model}, nil
	case ProviderAnthropic:
		if cfg.APIKey == "" {
			return nil, ErrMissingAPIKey
		}
		return &AnthropicProvider{BaseURL: cfg.BaseURL, APIKey: cfg.APIKey, Model: cfg.Model}, nil
	default:
		return nil, fmt.Errorf("unsupported llm provider: %q", cfg.Provider)
	}
}
