package model

// Passage represents a chunk retrieved by a search query
type Passage struct {
	ChunkID   string  `json:"chunk_id"`
	Text      string  `json:"text"`
	Latex     string  `json:"latex,omitempty"`
	PageStart int     `json:"page_start"`
	PageEnd   int     `json:"page_end"`
	Score     float64 `json:"score"`
}
