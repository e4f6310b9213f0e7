package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// OllamaProvider talks to a local Ollama instance via its native API.
type OllamaProvider struct {
	baseURL    string
	embedModel string
	chatModel  string
	client     *http.Client
}

// NewOllamaProvider creates a provider using the native Ollama API.
// The client timeout covers the longer chat calls, embeds are bounded
// by the caller's context.
func NewOllamaProvider(config *Config) *OllamaProvider {
	return &OllamaProvider{
		baseURL:    config.BaseURL,
		embedModel: config.EmbedModel,
		chatModel:  config.ChatModel,
		client:     &http.Client{Timeout: config.ChatTimeout},
	}
}

// Name returns the provider name.
func (p *OllamaProvider) Name() string { return ProviderOllama }

type ollamaEmbedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaEmbedResponse struct {
	Embedding []float32 `json:"embedding"`
}

// Embed generates an embedding via POST /api/embeddings.
func (p *OllamaProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	body, err := p.post(ctx, "/api/embeddings", ollamaEmbedRequest{
		Model:  p.embedModel,
		Prompt: text,
	})
	if err != nil {
		return nil, err
	}

	var parsed ollamaEmbedResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode ollama embedding response: %w", err)
	}
	if len(parsed.Embedding) == 0 {
		return nil, fmt.Errorf("ollama embedding response missing embedding")
	}

	return parsed.Embedding, nil
}

type ollamaChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatRequest struct {
	Model    string              `json:"model"`
	Messages []ollamaChatMessage `json:"messages"`
	Stream   bool                `json:"stream"`
}

type ollamaChatResponse struct {
	Message ollamaChatMessage `json:"message"`
}

// Chat sends a single-turn prompt via POST /api/chat.
func (p *OllamaProvider) Chat(ctx context.Context, prompt string) (string, error) {
	body, err := p.post(ctx, "/api/chat", ollamaChatRequest{
		Model:    p.chatModel,
		Messages: []ollamaChatMessage{{Role: "user", Content: prompt}},
		Stream:   false,
	})
	if err != nil {
		return "", err
	}

	var parsed ollamaChatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("decode ollama chat response: %w", err)
	}

	return parsed.Message.Content, nil
}

func (p *OllamaProvider) post(ctx context.Context, path string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: ollama not reachable at %s (ensure ollama is running and OLLAMA_URL is correct): %v", ErrProviderUnavailable, p.baseURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading ollama response: %v", ErrProviderUnavailable, err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: ollama reports no such model (pull it with 'ollama pull <model>'): %s", ErrModelNotFound, string(body))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama request failed with status %d: %s", resp.StatusCode, string(body))
	}

	return body, nil
}
