package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/siherrmann/texgraph/extract"
	"github.com/siherrmann/texgraph/helper"
	"github.com/siherrmann/texgraph/model"
)

// ErrNotFound is returned when an ingestion path does not resolve to
// readable bytes.
var ErrNotFound = errors.New("document file not found")

// Planner turns one document's raw bytes into a list of upsert rows:
// extraction, chunking, math splitting and dual-channel embedding for every
// chunk of every page.
type Planner struct {
	extractor extract.Extractor
	chunker   *WindowChunker
	embedder  *Embedder
	log       *slog.Logger
}

// NewPlanner creates a planner from its collaborators.
func NewPlanner(extractor extract.Extractor, chunker *WindowChunker, embedder *Embedder, logger *slog.Logger) *Planner {
	return &Planner{
		extractor: extractor,
		chunker:   chunker,
		embedder:  embedder,
		log:       logger,
	}
}

// Plan reads the file at path and produces the document identity plus one
// row per chunk. Any extraction or embedding failure aborts the whole
// document: rows are either complete or absent, never partial.
func (p *Planner) Plan(ctx context.Context, path string) (*model.Document, []*model.Row, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, nil, helper.NewError("read document", err)
	}

	docID := DocumentID(content)

	extracted, err := p.extractor.Extract(content)
	if err != nil {
		return nil, nil, helper.NewError("extract page text", err)
	}

	title := extracted.Title
	if title == "" {
		title = filepath.Base(path)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}

	doc := &model.Document{
		DocID:     docID,
		Title:     title,
		Path:      absPath,
		PageCount: extracted.PageCount(),
	}

	var rows []*model.Row
	for pageIdx, pageText := range extracted.Pages {
		pageNum := pageIdx + 1
		secID := SectionID(docID, pageNum)

		for offset, window := range p.chunker.Windows(pageText) {
			textNorm, latexRaw := SplitLatex(window)

			vecText, err := p.embedder.Embed(ctx, textNorm)
			if err != nil {
				return nil, nil, helper.NewError(fmt.Sprintf("embed prose channel (page %d, offset %d)", pageNum, offset), err)
			}

			// The embedder substitutes a space for the empty latex channel.
			vecLatex, err := p.embedder.Embed(ctx, latexRaw)
			if err != nil {
				return nil, nil, helper.NewError(fmt.Sprintf("embed latex channel (page %d, offset %d)", pageNum, offset), err)
			}

			rows = append(rows, &model.Row{
				DocID:     docID,
				Title:     title,
				Path:      absPath,
				PageCount: extracted.PageCount(),
				SecID:     secID,
				Section:   fmt.Sprintf("Page %d", pageNum),
				PageStart: pageNum,
				PageEnd:   pageNum,
				ChunkID:   ChunkID(docID, pageNum, offset),
				TextNorm:  textNorm,
				LatexRaw:  latexRaw,
				VecText:   vecText,
				VecLatex:  vecLatex,
			})
		}
	}

	p.log.Info("Planned document ingestion",
		slog.String("doc_id", docID),
		slog.String("title", title),
		slog.Int("pages", extracted.PageCount()),
		slog.Int("chunks", len(rows)),
	)

	return doc, rows, nil
}
