package database

import (
	"fmt"
	"testing"
	"time"

	"github.com/siherrmann/texgraph/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunksNewChunksDBHandler(t *testing.T) {
	database := initDB(t)

	t.Run("Valid call NewChunksDBHandler", func(t *testing.T) {
		_, sectionsDbHandler, chunksDbHandler := initHandlers(t, database)
		require.NotNil(t, sectionsDbHandler)
		require.NotNil(t, chunksDbHandler, "Expected NewChunksDBHandler to return a non-nil instance")
		require.NotNil(t, chunksDbHandler.db, "Expected NewChunksDBHandler to have a non-nil database instance")
	})

	t.Run("Invalid call NewChunksDBHandler with nil database", func(t *testing.T) {
		_, err := NewChunksDBHandler(nil, testEmbeddingDim, false)
		assert.Error(t, err, "Expected error when creating ChunksDBHandler with nil database")
		assert.Contains(t, err.Error(), "database connection is nil", "Expected specific error message for nil database connection")
	})
}

func insertTestTree(t *testing.T, documentsDbHandler *DocumentsDBHandler, sectionsDbHandler *SectionsDBHandler, docID string) {
	t.Helper()

	err := documentsDbHandler.UpsertDocument(&model.Document{
		DocID: docID, Title: "Doc", Path: "/p.pdf", PageCount: 1,
	})
	require.NoError(t, err)

	err = sectionsDbHandler.UpsertSection(&model.Section{
		SecID: docID + ":p1", DocID: docID, Title: "Page 1", PageStart: 1, PageEnd: 1,
	})
	require.NoError(t, err)
}

func TestChunksUpsert(t *testing.T) {
	database := initDB(t)
	documentsDbHandler, sectionsDbHandler, chunksDbHandler := initHandlers(t, database)
	insertTestTree(t, documentsDbHandler, sectionsDbHandler, "doc-chunk-1")

	chunk := &model.Chunk{
		ChunkID:    "doc-chunk-1:p1:o0",
		SecID:      "doc-chunk-1:p1",
		TextNorm:   "energy and mass with ⟨EQ⟩ placeholder",
		LatexRaw:   "$E=mc^2$",
		VecText:    []float32{1, 0, 0, 0},
		VecLatex:   []float32{0, 1, 0, 0},
		PageStart:  1,
		PageEnd:    1,
		SourceHash: "doc-chunk-1",
		SourceType: model.SourceTypePDF,
	}

	t.Run("Upsert new chunk", func(t *testing.T) {
		err := chunksDbHandler.UpsertChunk(chunk)
		assert.NoError(t, err, "Expected Upsert to not return an error")

		stored, err := chunksDbHandler.SelectChunk(chunk.ChunkID)
		require.NoError(t, err)
		assert.Equal(t, chunk.TextNorm, stored.TextNorm)
		assert.Equal(t, chunk.LatexRaw, stored.LatexRaw)
		assert.Equal(t, chunk.VecText, stored.VecText)
		assert.Equal(t, chunk.VecLatex, stored.VecLatex)
		assert.WithinDuration(t, stored.AddedAt, time.Now(), 2*time.Second, "Expected AddedAt to be set")
	})

	t.Run("Upsert existing chunk overwrites content and keeps added_at", func(t *testing.T) {
		stored, err := chunksDbHandler.SelectChunk(chunk.ChunkID)
		require.NoError(t, err)
		firstAddedAt := stored.AddedAt

		updated := &model.Chunk{
			ChunkID:    chunk.ChunkID,
			SecID:      chunk.SecID,
			TextNorm:   "rewritten prose",
			LatexRaw:   "$F=ma$",
			VecText:    []float32{0, 0, 1, 0},
			VecLatex:   []float32{0, 0, 0, 1},
			PageStart:  1,
			PageEnd:    1,
			SourceHash: "doc-chunk-1",
			SourceType: model.SourceTypePDF,
		}
		err = chunksDbHandler.UpsertChunk(updated)
		assert.NoError(t, err)

		stored, err = chunksDbHandler.SelectChunk(chunk.ChunkID)
		require.NoError(t, err)
		assert.Equal(t, "rewritten prose", stored.TextNorm, "Expected content to be overwritten")
		assert.Equal(t, "$F=ma$", stored.LatexRaw, "Expected formula text to be overwritten")
		assert.Equal(t, []float32{0, 0, 1, 0}, stored.VecText, "Expected text embedding to be overwritten")
		assert.Equal(t, firstAddedAt, stored.AddedAt, "Expected added_at to keep its first value")
	})

	t.Run("Upsert chunk for unknown section fails", func(t *testing.T) {
		err := chunksDbHandler.UpsertChunk(&model.Chunk{
			ChunkID:  "orphan:p1:o0",
			SecID:    "orphan:p1",
			VecText:  []float32{1, 0, 0, 0},
			VecLatex: []float32{1, 0, 0, 0},
		})
		assert.Error(t, err, "Expected foreign key violation for unknown section")
	})
}

func TestChunksUpsertRows(t *testing.T) {
	database := initDB(t)
	documentsDbHandler, _, chunksDbHandler := initHandlers(t, database)

	makeRows := func(docID string, count int) (*model.Document, []*model.Row) {
		document := &model.Document{
			DocID: docID, Title: "Batch Doc", Path: "/batch.pdf", PageCount: 1,
		}
		rows := make([]*model.Row, 0, count)
		for i := 0; i < count; i++ {
			rows = append(rows, &model.Row{
				DocID:     docID,
				Title:     document.Title,
				Path:      document.Path,
				PageCount: document.PageCount,
				SecID:     docID + ":p1",
				Section:   "Page 1",
				PageStart: 1,
				PageEnd:   1,
				ChunkID:   fmt.Sprintf("%s:p1:o%d", docID, i*100),
				TextNorm:  fmt.Sprintf("window %d", i),
				LatexRaw:  "",
				VecText:   []float32{1, 0, 0, 0},
				VecLatex:  []float32{0, 1, 0, 0},
			})
		}
		return document, rows
	}

	t.Run("Upsert rows writes document, section and chunks", func(t *testing.T) {
		document, rows := makeRows("doc-rows-1", 5)
		err := chunksDbHandler.UpsertRows(document, rows)
		assert.NoError(t, err)

		chunks, err := chunksDbHandler.SelectChunksBySection("doc-rows-1:p1")
		require.NoError(t, err)
		assert.Len(t, chunks, 5, "Expected all rows to be written")
	})

	t.Run("Upsert rows larger than one batch", func(t *testing.T) {
		document, rows := makeRows("doc-rows-2", UpsertBatchSize+17)
		err := chunksDbHandler.UpsertRows(document, rows)
		assert.NoError(t, err)

		chunks, err := chunksDbHandler.SelectChunksBySection("doc-rows-2:p1")
		require.NoError(t, err)
		assert.Len(t, chunks, UpsertBatchSize+17, "Expected all batches to be written")
	})

	t.Run("Upsert rows is idempotent", func(t *testing.T) {
		document, rows := makeRows("doc-rows-3", 4)
		err := chunksDbHandler.UpsertRows(document, rows)
		require.NoError(t, err)
		err = chunksDbHandler.UpsertRows(document, rows)
		assert.NoError(t, err)

		chunks, err := chunksDbHandler.SelectChunksBySection("doc-rows-3:p1")
		require.NoError(t, err)
		assert.Len(t, chunks, 4, "Expected re-ingest to merge instead of append")
	})

	t.Run("Upsert rows with empty slice writes nothing", func(t *testing.T) {
		document, _ := makeRows("doc-rows-4", 0)
		err := chunksDbHandler.UpsertRows(document, nil)
		assert.NoError(t, err)

		_, err = documentsDbHandler.SelectDocument("doc-rows-4")
		assert.Error(t, err, "Expected no document to be written for an empty plan")
	})

	t.Run("Upsert rows with nil document fails", func(t *testing.T) {
		err := chunksDbHandler.UpsertRows(nil, nil)
		assert.Error(t, err)
	})
}

func TestChunksSimilarity(t *testing.T) {
	database := initDB(t)
	documentsDbHandler, sectionsDbHandler, chunksDbHandler := initHandlers(t, database)
	insertTestTree(t, documentsDbHandler, sectionsDbHandler, "doc-sim")

	// Three chunks with orthogonal text embeddings and distinct latex embeddings.
	vectors := [][2][]float32{
		{{1, 0, 0, 0}, {0, 0, 1, 0}},
		{{0, 1, 0, 0}, {0, 0, 0, 1}},
		{{0.7, 0.7, 0, 0}, {0, 0, 0.7, 0.7}},
	}
	for i, v := range vectors {
		err := chunksDbHandler.UpsertChunk(&model.Chunk{
			ChunkID:    fmt.Sprintf("doc-sim:p1:o%d", i*100),
			SecID:      "doc-sim:p1",
			TextNorm:   fmt.Sprintf("chunk %d", i),
			LatexRaw:   fmt.Sprintf("\\alpha_%d", i),
			VecText:    v[0],
			VecLatex:   v[1],
			PageStart:  1,
			PageEnd:    1,
			SourceHash: "doc-sim",
			SourceType: model.SourceTypePDF,
		})
		require.NoError(t, err)
	}

	t.Run("Similarity on text channel ranks nearest first", func(t *testing.T) {
		chunks, err := chunksDbHandler.SelectChunksBySimilarity(model.ChannelText, []float32{1, 0, 0, 0}, 3)
		assert.NoError(t, err)
		require.Len(t, chunks, 3)
		assert.Equal(t, "doc-sim:p1:o0", chunks[0].ChunkID, "Expected identical vector to rank first")
		assert.InDelta(t, 1.0, chunks[0].Similarity, 0.001, "Expected cosine similarity 1 for identical vectors")
		assert.Greater(t, chunks[0].Similarity, chunks[1].Similarity, "Expected descending similarity")
	})

	t.Run("Similarity on latex channel uses the latex embedding", func(t *testing.T) {
		chunks, err := chunksDbHandler.SelectChunksBySimilarity(model.ChannelLatex, []float32{0, 0, 0, 1}, 1)
		assert.NoError(t, err)
		require.Len(t, chunks, 1)
		assert.Equal(t, "doc-sim:p1:o100", chunks[0].ChunkID)
	})

	t.Run("Similarity respects limit", func(t *testing.T) {
		chunks, err := chunksDbHandler.SelectChunksBySimilarity(model.ChannelText, []float32{1, 0, 0, 0}, 2)
		assert.NoError(t, err)
		assert.Len(t, chunks, 2)
	})

	t.Run("Similarity with unknown channel fails", func(t *testing.T) {
		_, err := chunksDbHandler.SelectChunksBySimilarity(model.Channel("prose"), []float32{1, 0, 0, 0}, 2)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "unknown channel")
	})

	t.Run("Similarity results omit embeddings", func(t *testing.T) {
		chunks, err := chunksDbHandler.SelectChunksBySimilarity(model.ChannelText, []float32{1, 0, 0, 0}, 1)
		assert.NoError(t, err)
		require.Len(t, chunks, 1)
		assert.Nil(t, chunks[0].VecText, "Expected no embeddings in similarity results")
		assert.Nil(t, chunks[0].VecLatex, "Expected no embeddings in similarity results")
	})
}

func TestChunksSearchLatex(t *testing.T) {
	database := initDB(t)
	documentsDbHandler, sectionsDbHandler, chunksDbHandler := initHandlers(t, database)
	insertTestTree(t, documentsDbHandler, sectionsDbHandler, "doc-latex")

	formulas := []string{
		"\\int x dx",
		"\\sum n squared",
		"",
	}
	for i, f := range formulas {
		err := chunksDbHandler.UpsertChunk(&model.Chunk{
			ChunkID:    fmt.Sprintf("doc-latex:p1:o%d", i*100),
			SecID:      "doc-latex:p1",
			TextNorm:   "prose",
			LatexRaw:   f,
			VecText:    []float32{1, 0, 0, 0},
			VecLatex:   []float32{0, 1, 0, 0},
			PageStart:  1,
			PageEnd:    1,
			SourceHash: "doc-latex",
			SourceType: model.SourceTypePDF,
		})
		require.NoError(t, err)
	}

	t.Run("Search matches raw formula text", func(t *testing.T) {
		chunks, err := chunksDbHandler.SearchLatex("int", 10)
		assert.NoError(t, err)
		require.Len(t, chunks, 1)
		assert.Equal(t, "doc-latex:p1:o0", chunks[0].ChunkID)
	})

	t.Run("Search with no matches returns empty", func(t *testing.T) {
		chunks, err := chunksDbHandler.SearchLatex("nabla", 10)
		assert.NoError(t, err)
		assert.Empty(t, chunks)
	})
}

func TestChunksCount(t *testing.T) {
	database := initDB(t)
	documentsDbHandler, sectionsDbHandler, chunksDbHandler := initHandlers(t, database)

	count, err := chunksDbHandler.CountChunks()
	require.NoError(t, err)
	assert.Equal(t, int64(0), count, "Expected empty store after clear")

	insertTestTree(t, documentsDbHandler, sectionsDbHandler, "doc-count")
	err = chunksDbHandler.UpsertChunk(&model.Chunk{
		ChunkID:    "doc-count:p1:o0",
		SecID:      "doc-count:p1",
		VecText:    []float32{1, 0, 0, 0},
		VecLatex:   []float32{0, 1, 0, 0},
		SourceHash: "doc-count",
		SourceType: model.SourceTypePDF,
	})
	require.NoError(t, err)

	count, err = chunksDbHandler.CountChunks()
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
