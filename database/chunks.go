package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/pgvector/pgvector-go"
	"github.com/siherrmann/texgraph/helper"
	"github.com/siherrmann/texgraph/model"
	loadSql "github.com/siherrmann/texgraph/sql"
)

// UpsertBatchSize is the number of rows written per transaction during ingest.
const UpsertBatchSize = 200

// ChunksDBHandlerFunctions defines the interface for Chunks database operations.
type ChunksDBHandlerFunctions interface {
	UpsertChunk(chunk *model.Chunk) error
	UpsertRows(document *model.Document, rows []*model.Row) error
	SelectChunk(chunkID string) (*model.Chunk, error)
	SelectChunksBySection(secID string) ([]*model.Chunk, error)
	SelectChunksBySimilarity(channel model.Channel, embedding []float32, limit int) ([]*model.Chunk, error)
	SearchLatex(query string, limit int) ([]*model.Chunk, error)
	CountChunks() (int64, error)
}

// ChunksDBHandler handles chunk-related database operations
type ChunksDBHandler struct {
	db *helper.Database
}

// NewChunksDBHandler creates a new chunks database handler.
// It initializes the database connection and loads chunk-related SQL functions.
// If force is true, it will reload the SQL functions even if they already exist.
func NewChunksDBHandler(db *helper.Database, embeddingDim int, force bool) (*ChunksDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	chunksDbHandler := &ChunksDBHandler{
		db: db,
	}

	err := loadSql.LoadChunksSql(chunksDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load chunks sql", err)
	}

	err = chunksDbHandler.CreateTable(embeddingDim)
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized ChunksDBHandler")

	return chunksDbHandler, nil
}

// CreateTable creates the 'chunks' table in the database.
// If the table already exists, it does not create it again.
// The sections table must exist first because of the foreign key.
func (h *ChunksDBHandler) CreateTable(embeddingDim int) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_chunks($1);`, embeddingDim)
	if err != nil {
		log.Panicf("error initializing chunks table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table chunks")

	return nil
}

// UpsertChunk merges a chunk by its id. Content and both embedding
// channels are overwritten, added_at keeps its first value.
func (h *ChunksDBHandler) UpsertChunk(chunk *model.Chunk) error {
	_, err := h.db.Instance.Exec(
		`SELECT upsert_chunk($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		chunk.ChunkID,
		chunk.SecID,
		chunk.TextNorm,
		chunk.LatexRaw,
		pgvector.NewVector(chunk.VecText),
		pgvector.NewVector(chunk.VecLatex),
		chunk.PageStart,
		chunk.PageEnd,
		chunk.SourceHash,
		chunk.SourceType,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}

	return nil
}

// UpsertRows writes one planned document into the store in batches.
// Each batch runs in its own transaction and merges the document, the
// distinct sections of the batch and every chunk of the batch by identity.
// An empty plan produces no batches and writes nothing.
func (h *ChunksDBHandler) UpsertRows(document *model.Document, rows []*model.Row) error {
	if document == nil {
		return helper.NewError("upsert rows", fmt.Errorf("document is nil"))
	}

	for start := 0; start < len(rows); start += UpsertBatchSize {
		end := start + UpsertBatchSize
		if end > len(rows) {
			end = len(rows)
		}

		err := h.upsertBatch(document, rows[start:end])
		if err != nil {
			return helper.NewError("upsert batch", err)
		}
	}

	return nil
}

func (h *ChunksDBHandler) upsertBatch(document *model.Document, rows []*model.Row) error {
	tx, err := h.db.Instance.Begin()
	if err != nil {
		return helper.NewError("begin transaction", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`SELECT upsert_document($1, $2, $3, $4)`,
		document.DocID,
		document.Title,
		document.Path,
		document.PageCount,
	)
	if err != nil {
		return helper.NewError("upsert document", err)
	}

	seenSections := map[string]bool{}
	for _, row := range rows {
		if seenSections[row.SecID] {
			continue
		}
		seenSections[row.SecID] = true

		_, err = tx.Exec(
			`SELECT upsert_section($1, $2, $3, $4, $5)`,
			row.SecID,
			row.DocID,
			row.Section,
			row.PageStart,
			row.PageEnd,
		)
		if err != nil {
			return helper.NewError("upsert section", err)
		}
	}

	for _, row := range rows {
		_, err = tx.Exec(
			`SELECT upsert_chunk($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			row.ChunkID,
			row.SecID,
			row.TextNorm,
			row.LatexRaw,
			pgvector.NewVector(row.VecText),
			pgvector.NewVector(row.VecLatex),
			row.PageStart,
			row.PageEnd,
			row.DocID,
			model.SourceTypePDF,
		)
		if err != nil {
			return helper.NewError("upsert chunk", err)
		}
	}

	err = tx.Commit()
	if err != nil {
		return helper.NewError("commit transaction", err)
	}

	return nil
}

// SelectChunk retrieves a chunk by its id including both embedding channels
func (h *ChunksDBHandler) SelectChunk(chunkID string) (*model.Chunk, error) {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_chunk($1)`,
		chunkID,
	)

	chunk := &model.Chunk{}
	var vecText, vecLatex pgvector.Vector
	err := row.Scan(
		&chunk.ChunkID,
		&chunk.SecID,
		&chunk.TextNorm,
		&chunk.LatexRaw,
		&vecText,
		&vecLatex,
		&chunk.PageStart,
		&chunk.PageEnd,
		&chunk.SourceHash,
		&chunk.SourceType,
		&chunk.AddedAt,
	)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	chunk.VecText = vecText.Slice()
	chunk.VecLatex = vecLatex.Slice()

	return chunk, nil
}

// SelectChunksBySection retrieves all chunks of a section
func (h *ChunksDBHandler) SelectChunksBySection(secID string) ([]*model.Chunk, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_chunks_by_section($1)`,
		secID,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var chunks []*model.Chunk
	for rows.Next() {
		chunk := &model.Chunk{}
		var vecText, vecLatex pgvector.Vector
		err := rows.Scan(
			&chunk.ChunkID,
			&chunk.SecID,
			&chunk.TextNorm,
			&chunk.LatexRaw,
			&vecText,
			&vecLatex,
			&chunk.PageStart,
			&chunk.PageEnd,
			&chunk.SourceHash,
			&chunk.SourceType,
			&chunk.AddedAt,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		chunk.VecText = vecText.Slice()
		chunk.VecLatex = vecLatex.Slice()

		chunks = append(chunks, chunk)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return chunks, nil
}

// SelectChunksBySimilarity retrieves the chunks nearest to the given
// embedding on one channel, ordered by cosine similarity descending.
// The embeddings themselves are not returned.
func (h *ChunksDBHandler) SelectChunksBySimilarity(channel model.Channel, embedding []float32, limit int) ([]*model.Chunk, error) {
	var function string
	switch channel {
	case model.ChannelText:
		function = "select_chunks_by_similarity_text"
	case model.ChannelLatex:
		function = "select_chunks_by_similarity_latex"
	default:
		return nil, helper.NewError("similarity search", fmt.Errorf("unknown channel: %s", channel))
	}

	rows, err := h.db.Instance.Query(
		fmt.Sprintf(`SELECT * FROM %s($1, $2)`, function),
		pgvector.NewVector(embedding),
		limit,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	return scanScoredChunks(rows)
}

// SearchLatex retrieves chunks whose raw formula text matches the query,
// ranked by full text relevance.
func (h *ChunksDBHandler) SearchLatex(query string, limit int) ([]*model.Chunk, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM search_chunks_by_latex($1, $2)`,
		query,
		limit,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	return scanScoredChunks(rows)
}

// CountChunks returns the number of stored chunks
func (h *ChunksDBHandler) CountChunks() (int64, error) {
	var count int64
	err := h.db.Instance.QueryRow(`SELECT count_chunks()`).Scan(&count)
	if err != nil {
		return 0, helper.NewError("scan", err)
	}
	return count, nil
}

func scanScoredChunks(rows *sql.Rows) ([]*model.Chunk, error) {
	var chunks []*model.Chunk
	for rows.Next() {
		chunk := &model.Chunk{}
		err := rows.Scan(
			&chunk.ChunkID,
			&chunk.SecID,
			&chunk.TextNorm,
			&chunk.LatexRaw,
			&chunk.PageStart,
			&chunk.PageEnd,
			&chunk.Similarity,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		chunks = append(chunks, chunk)
	}

	err := rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return chunks, nil
}
