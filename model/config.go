package model

const (
	// CharsPerToken is the heuristic ratio used to convert token budgets into
	// character counts. Chunking is character based, not tokenizer based.
	CharsPerToken = 4
	// MinWindowChars floors the chunk window so tiny token budgets cannot
	// produce degenerate zero or negative steps.
	MinWindowChars = 200
	// MaxTopK bounds the number of passages a search may return.
	MaxTopK = 20
)

// ChunkConfig holds the sliding-window chunking parameters in
// token-equivalents.
type ChunkConfig struct {
	TargetTokens  int `json:"target_tokens"`
	OverlapTokens int `json:"overlap_tokens"`
}

// DefaultChunkConfig returns the chunking defaults (1000 token windows with
// 150 tokens of overlap).
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{
		TargetTokens:  1000,
		OverlapTokens: 150,
	}
}

// SearchConfig holds the retrieval parameters.
type SearchConfig struct {
	// TopK is the requested result count, clamped to [1, MaxTopK].
	TopK int `json:"top_k"`
	// PoolSize is the candidate pool fetched per channel before merging.
	PoolSize int `json:"pool_size"`
}

// DefaultSearchConfig returns a sensible default configuration
func DefaultSearchConfig() SearchConfig {
	return SearchConfig{
		TopK:     8,
		PoolSize: 40,
	}
}

// ClampK bounds a requested result count to [1, MaxTopK].
func ClampK(k int) int {
	if k < 1 {
		return 1
	}
	if k > MaxTopK {
		return MaxTopK
	}
	return k
}
