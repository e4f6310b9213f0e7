package model

import (
	"time"
)

// Channel identifies one of the two embedding spaces maintained per chunk.
type Channel string

const (
	ChannelText  Channel = "text"
	ChannelLatex Channel = "latex"
)

// SourceTypePDF marks chunks produced from PDF ingestion.
const SourceTypePDF = "pdf"

// Chunk represents the smallest retrievable unit (leaf node in the graph).
// ChunkID is derived from the document hash, page number and character offset,
// so re-ingesting identical bytes overwrites the same nodes instead of
// appending new ones.
type Chunk struct {
	ChunkID    string    `json:"chunk_id"`
	SecID      string    `json:"sec_id"`
	TextNorm   string    `json:"text_norm"`
	LatexRaw   string    `json:"latex_raw"`
	VecText    []float32 `json:"vec_text,omitempty"`
	VecLatex   []float32 `json:"vec_latex,omitempty"`
	PageStart  int       `json:"page_start"`
	PageEnd    int       `json:"page_end"`
	SourceHash string    `json:"source_hash"`
	SourceType string    `json:"source_type"`
	AddedAt    time.Time `json:"added_at"`
	// Results
	Similarity float64 `json:"similarity,omitempty"`
}

// Row is the upsert unit produced by the ingestion planner: one chunk plus
// the document and section attributes it belongs to. The upsert path merges
// each part by identity, so repeating rows for the same document/section is
// harmless.
type Row struct {
	DocID     string    `json:"doc_id"`
	Title     string    `json:"title"`
	Path      string    `json:"path"`
	PageCount int       `json:"page_count"`
	SecID     string    `json:"sec_id"`
	Section   string    `json:"section"`
	PageStart int       `json:"page_start"`
	PageEnd   int       `json:"page_end"`
	ChunkID   string    `json:"chunk_id"`
	TextNorm  string    `json:"text_norm"`
	LatexRaw  string    `json:"latex_raw"`
	VecText   []float32 `json:"vec_text"`
	VecLatex  []float32 `json:"vec_latex"`
}
