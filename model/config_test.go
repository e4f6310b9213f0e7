package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultChunkConfig(t *testing.T) {
	t.Run("Returns correct default values", func(t *testing.T) {
		config := DefaultChunkConfig()

		assert.Equal(t, 1000, config.TargetTokens, "Default TargetTokens should be 1000")
		assert.Equal(t, 150, config.OverlapTokens, "Default OverlapTokens should be 150")
	})

	t.Run("Can be modified after creation", func(t *testing.T) {
		config := DefaultChunkConfig()

		config.TargetTokens = 500
		config.OverlapTokens = 50

		assert.Equal(t, 500, config.TargetTokens)
		assert.Equal(t, 50, config.OverlapTokens)
	})
}

func TestDefaultSearchConfig(t *testing.T) {
	t.Run("Returns correct default values", func(t *testing.T) {
		config := DefaultSearchConfig()

		assert.Equal(t, 8, config.TopK, "Default TopK should be 8")
		assert.Equal(t, 40, config.PoolSize, "Default PoolSize should be 40")
	})

	t.Run("Default TopK is within clamp bounds", func(t *testing.T) {
		config := DefaultSearchConfig()

		assert.Equal(t, config.TopK, ClampK(config.TopK), "Default TopK should survive clamping unchanged")
	})
}

func TestClampK(t *testing.T) {
	t.Run("Clamps zero and negative values to 1", func(t *testing.T) {
		assert.Equal(t, 1, ClampK(0))
		assert.Equal(t, 1, ClampK(-5))
	})

	t.Run("Passes through values in range", func(t *testing.T) {
		assert.Equal(t, 1, ClampK(1))
		assert.Equal(t, 8, ClampK(8))
		assert.Equal(t, 20, ClampK(20))
	})

	t.Run("Clamps values above MaxTopK", func(t *testing.T) {
		assert.Equal(t, MaxTopK, ClampK(21))
		assert.Equal(t, MaxTopK, ClampK(1000))
	})
}
