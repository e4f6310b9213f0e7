package database

import (
	"context"
	"testing"

	"github.com/siherrmann/texgraph/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func indexExists(t *testing.T, chunksDbHandler *ChunksDBHandler, name string) bool {
	t.Helper()

	var exists bool
	err := chunksDbHandler.db.Instance.QueryRow(
		"SELECT EXISTS(SELECT 1 FROM pg_indexes WHERE indexname = $1);", name,
	).Scan(&exists)
	require.NoError(t, err)
	return exists
}

func TestEnsureIndexes(t *testing.T) {
	database := initDB(t)
	_, _, chunksDbHandler := initHandlers(t, database)
	ctx := context.Background()

	t.Run("Ensure indexes creates vector and fulltext indexes", func(t *testing.T) {
		err := chunksDbHandler.EnsureIndexes(ctx)
		assert.NoError(t, err)

		assert.True(t, indexExists(t, chunksDbHandler, "idx_chunks_vec_text"), "Expected text vector index")
		assert.True(t, indexExists(t, chunksDbHandler, "idx_chunks_vec_latex"), "Expected latex vector index")
		assert.True(t, indexExists(t, chunksDbHandler, "idx_chunks_latex_fulltext"), "Expected fulltext index")
	})

	t.Run("Ensure indexes is idempotent", func(t *testing.T) {
		err := chunksDbHandler.EnsureIndexes(ctx)
		assert.NoError(t, err)
		err = chunksDbHandler.EnsureIndexes(ctx)
		assert.NoError(t, err)
	})

	t.Run("Drop vector indexes keeps fulltext index", func(t *testing.T) {
		err := chunksDbHandler.DropVectorIndexes(ctx)
		assert.NoError(t, err)

		assert.False(t, indexExists(t, chunksDbHandler, "idx_chunks_vec_text"), "Expected text vector index to be dropped")
		assert.False(t, indexExists(t, chunksDbHandler, "idx_chunks_vec_latex"), "Expected latex vector index to be dropped")
		assert.True(t, indexExists(t, chunksDbHandler, "idx_chunks_latex_fulltext"), "Expected fulltext index to remain")
	})
}

func TestChangeIndexType(t *testing.T) {
	database := initDB(t)
	_, _, chunksDbHandler := initHandlers(t, database)
	ctx := context.Background()

	err := chunksDbHandler.EnsureIndexes(ctx)
	require.NoError(t, err)

	t.Run("Change to ivfflat", func(t *testing.T) {
		err := chunksDbHandler.ChangeIndexType(ctx, "ivfflat", map[string]interface{}{"lists": 10})
		assert.NoError(t, err)

		assert.True(t, indexExists(t, chunksDbHandler, "idx_chunks_vec_text"))
		assert.True(t, indexExists(t, chunksDbHandler, "idx_chunks_vec_latex"))
	})

	t.Run("Change back to hnsw", func(t *testing.T) {
		err := chunksDbHandler.ChangeIndexType(ctx, "hnsw", map[string]interface{}{"m": 8, "ef_construction": 32})
		assert.NoError(t, err)

		assert.True(t, indexExists(t, chunksDbHandler, "idx_chunks_vec_text"))
		assert.True(t, indexExists(t, chunksDbHandler, "idx_chunks_vec_latex"))
	})

	t.Run("Unsupported index type fails", func(t *testing.T) {
		err := chunksDbHandler.ChangeIndexType(ctx, "btree", nil)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported index type")
	})
}

func TestClearAllData(t *testing.T) {
	database := initDB(t)
	documentsDbHandler, sectionsDbHandler, chunksDbHandler := initHandlers(t, database)
	ctx := context.Background()

	insertTestTree(t, documentsDbHandler, sectionsDbHandler, "doc-clear")
	err := chunksDbHandler.UpsertChunk(&model.Chunk{
		ChunkID:    "doc-clear:p1:o0",
		SecID:      "doc-clear:p1",
		VecText:    []float32{1, 0, 0, 0},
		VecLatex:   []float32{0, 1, 0, 0},
		SourceHash: "doc-clear",
		SourceType: model.SourceTypePDF,
	})
	require.NoError(t, err)

	err = chunksDbHandler.ClearAllData(ctx)
	assert.NoError(t, err)

	count, err := chunksDbHandler.CountChunks()
	require.NoError(t, err)
	assert.Equal(t, int64(0), count, "Expected chunks to be cleared")

	docCount, err := documentsDbHandler.CountDocuments()
	require.NoError(t, err)
	assert.Equal(t, int64(0), docCount, "Expected documents to be cleared")
}
