package pipeline

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/siherrmann/texgraph/ai"
	"github.com/siherrmann/texgraph/ai/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEmbedderConfig(dim int) *ai.Config {
	return &ai.Config{
		Provider:     ai.ProviderOllama,
		BaseURL:      "http://localhost:11434",
		EmbedModel:   "bge-m3",
		EmbedDim:     dim,
		EmbedTimeout: 5 * time.Second,
	}
}

func vectorNorm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

func TestEmbedderEmbed(t *testing.T) {
	t.Run("Returns a unit-norm vector", func(t *testing.T) {
		provider := mock.NewProvider(8)
		embedder := NewEmbedder(provider, testEmbedderConfig(8))

		vector, err := embedder.Embed(context.Background(), "some prose")

		require.NoError(t, err)
		require.Len(t, vector, 8)
		assert.InDelta(t, 1.0, vectorNorm(vector), 1e-6, "Expected an L2-normalized vector")
	})

	t.Run("Whitespace-only input is replaced by a single space", func(t *testing.T) {
		provider := mock.NewProvider(4)
		embedder := NewEmbedder(provider, testEmbedderConfig(4))

		_, err := embedder.Embed(context.Background(), "   \n\t ")

		require.NoError(t, err)
		require.Len(t, provider.Inputs, 1)
		assert.Equal(t, " ", provider.Inputs[0], "Expected the provider to receive the space placeholder")
	})

	t.Run("Empty input is replaced by a single space", func(t *testing.T) {
		provider := mock.NewProvider(4)
		embedder := NewEmbedder(provider, testEmbedderConfig(4))

		_, err := embedder.Embed(context.Background(), "")

		require.NoError(t, err)
		require.Len(t, provider.Inputs, 1)
		assert.Equal(t, " ", provider.Inputs[0])
	})

	t.Run("Dimension mismatch is fatal", func(t *testing.T) {
		provider := mock.NewProvider(8)
		embedder := NewEmbedder(provider, testEmbedderConfig(16))

		_, err := embedder.Embed(context.Background(), "text")

		require.Error(t, err)
		assert.ErrorIs(t, err, ai.ErrDimensionMismatch, "Expected a wrong-length vector to fail with ErrDimensionMismatch")
	})

	t.Run("All-zero vector is returned unchanged", func(t *testing.T) {
		provider := mock.NewProvider(4)
		provider.FixedEmbedding = []float32{0, 0, 0, 0}
		embedder := NewEmbedder(provider, testEmbedderConfig(4))

		vector, err := embedder.Embed(context.Background(), "text")

		require.NoError(t, err)
		assert.Equal(t, []float32{0, 0, 0, 0}, vector, "Expected the zero vector to survive normalization")
	})

	t.Run("Known vector normalizes to known values", func(t *testing.T) {
		provider := mock.NewProvider(2)
		provider.FixedEmbedding = []float32{3, 4}
		embedder := NewEmbedder(provider, testEmbedderConfig(2))

		vector, err := embedder.Embed(context.Background(), "text")

		require.NoError(t, err)
		assert.InDelta(t, 0.6, float64(vector[0]), 1e-6)
		assert.InDelta(t, 0.8, float64(vector[1]), 1e-6)
	})

	t.Run("Provider errors pass through", func(t *testing.T) {
		provider := mock.NewProvider(4)
		provider.EmbedErr = ai.ErrProviderUnavailable
		embedder := NewEmbedder(provider, testEmbedderConfig(4))

		_, err := embedder.Embed(context.Background(), "text")

		require.Error(t, err)
		assert.ErrorIs(t, err, ai.ErrProviderUnavailable)
	})

	t.Run("Dimension accessor reports the configured dimension", func(t *testing.T) {
		embedder := NewEmbedder(mock.NewProvider(4), testEmbedderConfig(4))

		assert.Equal(t, 4, embedder.Dimension())
	})
}
