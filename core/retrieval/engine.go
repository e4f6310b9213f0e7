package retrieval

import (
	"context"
	"sort"
	"sync"

	"github.com/siherrmann/texgraph/database"
	"github.com/siherrmann/texgraph/model"
)

// Engine answers queries against both embedding channels of the chunk store.
type Engine struct {
	chunks *database.ChunksDBHandler
	config *model.SearchConfig
}

// NewEngine creates a new retrieval engine.
// A nil config falls back to the default probe pool and top k.
func NewEngine(chunks *database.ChunksDBHandler, config *model.SearchConfig) *Engine {
	if config == nil {
		defaultConfig := model.DefaultSearchConfig()
		config = &defaultConfig
	}
	return &Engine{
		chunks: chunks,
		config: config,
	}
}

// DualSearch probes the text and latex channels concurrently with the same
// query embedding, merges the candidate pools by max score and returns the
// top k passages. k is clamped to the supported range. An empty store
// yields an empty result, not an error. If either probe fails the whole
// search fails.
func (e *Engine) DualSearch(ctx context.Context, embedding []float32, k int) ([]*model.Passage, error) {
	k = model.ClampK(k)

	var wg sync.WaitGroup
	var textChunks, latexChunks []*model.Chunk
	var textErr, latexErr error

	wg.Add(2)
	go func() {
		defer wg.Done()
		textChunks, textErr = e.chunks.SelectChunksBySimilarity(model.ChannelText, embedding, e.config.PoolSize)
	}()
	go func() {
		defer wg.Done()
		latexChunks, latexErr = e.chunks.SelectChunksBySimilarity(model.ChannelLatex, embedding, e.config.PoolSize)
	}()
	wg.Wait()

	if textErr != nil {
		return nil, textErr
	}
	if latexErr != nil {
		return nil, latexErr
	}

	merged := mergeByMaxScore(textChunks, latexChunks)
	if len(merged) > k {
		merged = merged[:k]
	}

	return toPassages(merged), nil
}

// LatexSearch matches the query against the raw formula text of all chunks.
func (e *Engine) LatexSearch(ctx context.Context, query string, k int) ([]*model.Passage, error) {
	k = model.ClampK(k)

	chunks, err := e.chunks.SearchLatex(query, k)
	if err != nil {
		return nil, err
	}

	return toPassages(chunks), nil
}

// mergeByMaxScore deduplicates candidates from both channels by chunk id,
// keeping the higher similarity per chunk, and orders the result by score
// descending. Ties are broken by chunk id for a stable order.
func mergeByMaxScore(pools ...[]*model.Chunk) []*model.Chunk {
	best := map[string]*model.Chunk{}
	for _, pool := range pools {
		for _, chunk := range pool {
			existing, ok := best[chunk.ChunkID]
			if !ok || chunk.Similarity > existing.Similarity {
				best[chunk.ChunkID] = chunk
			}
		}
	}

	merged := make([]*model.Chunk, 0, len(best))
	for _, chunk := range best {
		merged = append(merged, chunk)
	}

	sort.Slice(merged, func(i, j int) bool {
		if merged[i].Similarity != merged[j].Similarity {
			return merged[i].Similarity > merged[j].Similarity
		}
		return merged[i].ChunkID < merged[j].ChunkID
	})

	return merged
}

func toPassages(chunks []*model.Chunk) []*model.Passage {
	passages := make([]*model.Passage, len(chunks))
	for i, chunk := range chunks {
		passages[i] = &model.Passage{
			ChunkID:   chunk.ChunkID,
			Text:      chunk.TextNorm,
			Latex:     chunk.LatexRaw,
			PageStart: chunk.PageStart,
			PageEnd:   chunk.PageEnd,
			Score:     chunk.Similarity,
		}
	}
	return passages
}
