package model

import (
	"time"
)

// Document represents a source document (root node of the containment tree).
// DocID is the hex SHA-256 of the raw file bytes, so re-ingesting identical
// bytes always resolves to the same node.
type Document struct {
	DocID     string    `json:"doc_id"`
	Title     string    `json:"title"`
	Path      string    `json:"path"`
	PageCount int       `json:"page_count"`
	AddedAt   time.Time `json:"added_at"`
}

// Section represents one page of a document.
type Section struct {
	SecID     string `json:"sec_id"`
	DocID     string `json:"doc_id"`
	Title     string `json:"title"`
	PageStart int    `json:"page_start"`
	PageEnd   int    `json:"page_end"`
}
