package database

import (
	"context"
	"fmt"
	"time"

	"github.com/siherrmann/texgraph/helper"
)

// EnsureIndexes creates the cosine vector indexes for both embedding
// channels and the full text index over the raw formula text.
// Existing indexes are left untouched.
func (h *ChunksDBHandler) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_chunk_indexes();`)
	if err != nil {
		return helper.NewError("create indexes", err)
	}

	h.db.Logger.Info("Checked/created chunk indexes")

	return nil
}

// DropVectorIndexes drops both vector indexes, typically before a bulk
// ingest or an index type change.
func (h *ChunksDBHandler) DropVectorIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT drop_chunk_vector_indexes();`)
	if err != nil {
		return helper.NewError("drop indexes", err)
	}

	h.db.Logger.Info("Dropped vector indexes")

	return nil
}

// ClearAllData truncates documents, sections and chunks.
// The reserved tables are not touched.
func (h *ChunksDBHandler) ClearAllData(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT clear_all_data();`)
	if err != nil {
		return helper.NewError("clear data", err)
	}

	h.db.Logger.Info("Cleared all graph data")

	return nil
}

// ChangeIndexType changes the vector index type between HNSW and IVFFlat
// for both embedding channels.
// indexType: "hnsw" or "ivfflat"
// params: optional parameters for index creation
//   - For HNSW: "m" (int, default 16), "ef_construction" (int, default 64)
//   - For IVFFlat: "lists" (int, default 100)
func (h *ChunksDBHandler) ChangeIndexType(ctx context.Context, indexType string, params map[string]interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	err := h.DropVectorIndexes(ctx)
	if err != nil {
		return err
	}

	columns := map[string]string{
		"idx_chunks_vec_text":  "vec_text",
		"idx_chunks_vec_latex": "vec_latex",
	}

	for indexName, column := range columns {
		var createIndexSQL string

		switch indexType {
		case "hnsw":
			m := 16
			efConstruction := 64

			if mVal, ok := params["m"].(int); ok {
				m = mVal
			}
			if efVal, ok := params["ef_construction"].(int); ok {
				efConstruction = efVal
			}

			createIndexSQL = fmt.Sprintf(
				`CREATE INDEX %s ON chunks USING hnsw (%s vector_cosine_ops) WITH (m = %d, ef_construction = %d);`,
				indexName, column, m, efConstruction,
			)

		case "ivfflat":
			lists := 100
			if listsVal, ok := params["lists"].(int); ok {
				lists = listsVal
			}

			createIndexSQL = fmt.Sprintf(
				`CREATE INDEX %s ON chunks USING ivfflat (%s vector_cosine_ops) WITH (lists = %d);`,
				indexName, column, lists,
			)

		default:
			return helper.NewError("change index type", fmt.Errorf("unsupported index type: %s (use 'hnsw' or 'ivfflat')", indexType))
		}

		_, err = h.db.Instance.ExecContext(ctx, createIndexSQL)
		if err != nil {
			return helper.NewError("create index", err)
		}
	}

	h.db.Logger.Info(fmt.Sprintf("Created %s indexes with params: %v", indexType, params))

	return nil
}
