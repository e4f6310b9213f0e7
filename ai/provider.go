package ai

import (
	"context"
	"fmt"
	"strings"
)

// Provider is the minimal contract shared by embedding/chat backends.
// Implementations must be safe for concurrent use.
type Provider interface {
	// Embed generates an embedding vector for the given text. The raw vector
	// is returned as-is; dimension validation and normalization happen in the
	// pipeline layer.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Chat sends a single-turn prompt and returns the model's reply.
	Chat(ctx context.Context, prompt string) (string, error)

	// Name returns the provider name from the allow-list.
	Name() string
}

// Allowed provider names. The set is closed: configuration naming anything
// else fails at startup.
const (
	ProviderOllama   = "ollama"
	ProviderVLLM     = "vllm"
	ProviderLMStudio = "lmstudio"
	ProviderLocal    = "local"
)

// AllowedProviders lists every provider name the factory accepts.
var AllowedProviders = []string{ProviderOllama, ProviderVLLM, ProviderLMStudio, ProviderLocal}

// NewProvider creates the provider selected by the configuration, validated
// against the allow-list.
func NewProvider(config *Config) (Provider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Provider {
	case ProviderOllama:
		return NewOllamaProvider(config), nil
	case ProviderVLLM, ProviderLMStudio:
		return NewOpenAICompatProvider(config), nil
	case ProviderLocal:
		return NewLocalProvider(config)
	default:
		return nil, fmt.Errorf("%w: %q (allowed: %s)", ErrUnsupportedProvider, config.Provider, strings.Join(AllowedProviders, ", "))
	}
}
