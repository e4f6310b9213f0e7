// Package extract provides page-text extraction for document ingestion.
package extract

// Result is the per-page plain text of one document plus its metadata.
// Pages is indexed by zero-based page position; unreadable pages are kept as
// empty strings so page numbering stays stable.
type Result struct {
	Title string
	Pages []string
}

// PageCount returns the number of pages in the document.
func (r Result) PageCount() int {
	return len(r.Pages)
}

// Extractor turns raw document bytes into per-page plain text.
type Extractor interface {
	Extract(content []byte) (Result, error)
}
