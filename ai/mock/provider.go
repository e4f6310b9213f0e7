// Package mock provides a deterministic in-memory ai.Provider for tests.
package mock

import (
	"context"
)

// Provider is a deterministic test double for ai.Provider. Embeddings are
// derived from the input text so identical texts always embed identically.
type Provider struct {
	// Dim is the dimension of generated vectors.
	Dim int
	// EmbedErr, when set, is returned by every Embed call.
	EmbedErr error
	// FixedEmbedding, when set, is returned verbatim by every Embed call.
	FixedEmbedding []float32
	// ChatReply is returned by Chat.
	ChatReply string
	// EmbedCalls counts Embed invocations.
	EmbedCalls int
	// Inputs records every text passed to Embed.
	Inputs []string
}

// NewProvider creates a mock provider producing vectors of the given
// dimension.
func NewProvider(dim int) *Provider {
	return &Provider{Dim: dim}
}

// Name returns the mock provider name.
func (p *Provider) Name() string { return "mock" }

// Embed returns a deterministic vector derived from the text content.
func (p *Provider) Embed(ctx context.Context, text string) ([]float32, error) {
	p.EmbedCalls++
	p.Inputs = append(p.Inputs, text)
	if p.EmbedErr != nil {
		return nil, p.EmbedErr
	}
	if p.FixedEmbedding != nil {
		return p.FixedEmbedding, nil
	}

	sum := 0
	for _, r := range text {
		sum += int(r)
	}

	embedding := make([]float32, p.Dim)
	for i := range embedding {
		embedding[i] = float32((sum+i)%100) / 100.0
	}
	return embedding, nil
}

// Chat returns the configured reply.
func (p *Provider) Chat(ctx context.Context, prompt string) (string, error) {
	return p.ChatReply, nil
}
