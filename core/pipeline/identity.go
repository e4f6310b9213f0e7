package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// DocumentID derives the stable document identifier: the hex SHA-256 of the
// raw file bytes. Identical bytes always yield the same id, any byte change
// yields a different one. This is the sole deduplication mechanism.
func DocumentID(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// SectionID derives the section identifier for one page of a document.
func SectionID(docID string, page int) string {
	return fmt.Sprintf("%s:p%d", docID, page)
}

// ChunkID derives the chunk identifier from the document, page and the
// chunk's starting byte offset within the page. Offsets come from the window
// chunker, which is deterministic for identical input text.
func ChunkID(docID string, page int, offset int) string {
	return fmt.Sprintf("%s:p%d:o%d", docID, page, offset)
}
