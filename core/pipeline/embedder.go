package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/siherrmann/texgraph/ai"
)

// Embedder adapts a provider's raw embedding call into a dimension-safe,
// L2-normalized vector. Downstream vector indexes are fixed-dimension, so a
// dimension mismatch is always fatal and never coerced.
type Embedder struct {
	provider ai.Provider
	dim      int
	timeout  time.Duration
}

// NewEmbedder creates an embedder for the given provider and configuration.
func NewEmbedder(provider ai.Provider, config *ai.Config) *Embedder {
	return &Embedder{
		provider: provider,
		dim:      config.EmbedDim,
		timeout:  config.EmbedTimeout,
	}
}

// Dimension returns the configured embedding dimension D.
func (e *Embedder) Dimension() int {
	return e.dim
}

// Embed generates a unit-norm embedding for text. Empty or whitespace-only
// input is replaced by a single space before the provider call, as embedding
// backends require non-empty input.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		text = " "
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	vector, err := e.provider.Embed(ctx, text)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: embedding call timed out after %s", ai.ErrProviderUnavailable, e.timeout)
		}
		return nil, err
	}

	if len(vector) != e.dim {
		return nil, fmt.Errorf("%w: provider returned %d dimensions, expected %d", ai.ErrDimensionMismatch, len(vector), e.dim)
	}

	return normalize(vector), nil
}

// normalize returns an L2-normalized copy of the vector. An all-zero vector
// divides by 1.0 instead of 0 and comes back unchanged.
func normalize(vector []float32) []float32 {
	var sum float64
	for _, x := range vector {
		sum += float64(x) * float64(x)
	}

	norm := math.Sqrt(sum)
	if norm == 0 {
		norm = 1.0
	}

	normalized := make([]float32, len(vector))
	for i, x := range vector {
		normalized[i] = float32(float64(x) / norm)
	}
	return normalized
}
