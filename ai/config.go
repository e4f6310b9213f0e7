package ai

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the provider selection and the per-provider connection
// parameters. It is constructed once at startup and passed into every
// component that needs it, there is no ambient lookup.
type Config struct {
	// Provider is the backend name, one of AllowedProviders.
	Provider string

	// BaseURL is the service endpoint for remote providers.
	BaseURL string

	// EmbedModel and ChatModel are provider-specific model identifiers.
	EmbedModel string
	ChatModel  string

	// EmbedDim is the fixed embedding dimension D of the selected model. It
	// must match the vector index dimension in the graph store.
	EmbedDim int

	// Timeouts for the two blocking network operations.
	EmbedTimeout time.Duration
	ChatTimeout  time.Duration
}

type providerDefaults struct {
	baseURL    string
	embedModel string
	chatModel  string
	embedDim   int
}

var defaults = map[string]providerDefaults{
	ProviderOllama: {
		baseURL:    "http://127.0.0.1:11434",
		embedModel: "bge-m3",
		chatModel:  "mistral:7b",
		embedDim:   1024,
	},
	ProviderVLLM: {
		baseURL:    "http://127.0.0.1:8001",
		embedModel: "BAAI/bge-m3",
		chatModel:  "mistralai/Mistral-7B-Instruct-v0.2",
		embedDim:   1024,
	},
	ProviderLMStudio: {
		baseURL:    "http://127.0.0.1:1234",
		embedModel: "nomic-ai/nomic-embed-text-v1.5",
		chatModel:  "Meta-Llama-3-8B-Instruct",
		embedDim:   768,
	},
	ProviderLocal: {
		embedModel: "sentence-transformers/all-MiniLM-L6-v2",
		embedDim:   384,
	},
}

// NewConfigFromEnv builds a Config from environment variables. A .env file is
// loaded first without overriding variables already present. EMBED_PROVIDER
// selects the backend (default ollama); the remaining values come from
// <PROVIDER>_URL, <PROVIDER>_EMBED_MODEL, <PROVIDER>_EMBED_DIM and
// <PROVIDER>_CHAT_MODEL with provider-specific defaults.
func NewConfigFromEnv() (*Config, error) {
	_ = godotenv.Load()

	name := strings.ToLower(strings.TrimSpace(os.Getenv("EMBED_PROVIDER")))
	if name == "" {
		name = ProviderOllama
	}

	def, ok := defaults[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (allowed: %s)", ErrUnsupportedProvider, name, strings.Join(AllowedProviders, ", "))
	}

	prefix := strings.ToUpper(name)

	dim := def.embedDim
	if v := os.Getenv(prefix + "_EMBED_DIM"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid %s_EMBED_DIM %q: %w", prefix, v, err)
		}
		dim = parsed
	}

	config := &Config{
		Provider:     name,
		BaseURL:      envOrDefault(prefix+"_URL", def.baseURL),
		EmbedModel:   envOrDefault(prefix+"_EMBED_MODEL", def.embedModel),
		ChatModel:    envOrDefault(prefix+"_CHAT_MODEL", def.chatModel),
		EmbedDim:     dim,
		EmbedTimeout: 60 * time.Second,
		ChatTimeout:  120 * time.Second,
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Validate checks the configuration for the selected provider.
func (c *Config) Validate() error {
	if !slices.Contains(AllowedProviders, c.Provider) {
		return fmt.Errorf("%w: %q (allowed: %s)", ErrUnsupportedProvider, c.Provider, strings.Join(AllowedProviders, ", "))
	}
	if c.Provider != ProviderLocal && c.BaseURL == "" {
		return fmt.Errorf("unable to resolve service URL for provider %q", c.Provider)
	}
	if c.EmbedModel == "" {
		return fmt.Errorf("embedding model not specified for provider %q", c.Provider)
	}
	if c.EmbedDim <= 0 {
		return fmt.Errorf("embedding dimension must be positive, got %d", c.EmbedDim)
	}
	return nil
}
