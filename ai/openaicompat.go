package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// OpenAICompatProvider talks to any backend implementing the OpenAI
// embeddings and chat completions API. Both vLLM and LM Studio expose this
// surface, so one client serves both allow-list entries.
type OpenAICompatProvider struct {
	name       string
	baseURL    string
	embedModel string
	chatModel  string
	client     *http.Client
}

// NewOpenAICompatProvider creates a provider for an OpenAI-compatible API.
// The /v1 prefix is appended to the base URL automatically.
func NewOpenAICompatProvider(config *Config) *OpenAICompatProvider {
	return &OpenAICompatProvider{
		name:       config.Provider,
		baseURL:    config.BaseURL,
		embedModel: config.EmbedModel,
		chatModel:  config.ChatModel,
		client:     &http.Client{Timeout: config.ChatTimeout},
	}
}

// Name returns the configured provider name (vllm or lmstudio).
func (p *OpenAICompatProvider) Name() string { return p.name }

type openAIEmbedRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type openAIEmbedResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// Embed generates an embedding via POST /v1/embeddings.
func (p *OpenAICompatProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	body, err := p.post(ctx, "/v1/embeddings", openAIEmbedRequest{
		Model: p.embedModel,
		Input: text,
	})
	if err != nil {
		return nil, err
	}

	var parsed openAIEmbedResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode %s embedding response: %w", p.name, err)
	}
	if len(parsed.Data) == 0 {
		return nil, fmt.Errorf("%s embedding response missing data entries", p.name)
	}

	return parsed.Data[0].Embedding, nil
}

type openAIChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIChatRequest struct {
	Model    string              `json:"model"`
	Messages []openAIChatMessage `json:"messages"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message openAIChatMessage `json:"message"`
	} `json:"choices"`
}

// Chat sends a single-turn prompt via POST /v1/chat/completions.
func (p *OpenAICompatProvider) Chat(ctx context.Context, prompt string) (string, error) {
	body, err := p.post(ctx, "/v1/chat/completions", openAIChatRequest{
		Model:    p.chatModel,
		Messages: []openAIChatMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", err
	}

	var parsed openAIChatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("decode %s chat response: %w", p.name, err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("%s chat response missing choices", p.name)
	}

	return parsed.Choices[0].Message.Content, nil
}

func (p *OpenAICompatProvider) post(ctx context.Context, path string, payload any) ([]byte, error) {
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
		return nil, fmt.Errorf("%w: %s not reachable at %s (ensure the service is running and its URL is correct): %v", ErrProviderUnavailable, p.name, p.baseURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s response: %v", ErrProviderUnavailable, p.name, err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s reports the model does not exist (check the configured model name): %s", ErrModelNotFound, p.name, string(body))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s request failed with status %d: %s", p.name, resp.StatusCode, string(body))
	}

	return body, nil
}
