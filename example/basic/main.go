package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/siherrmann/texgraph"
	"github.com/siherrmann/texgraph/ai"
	"github.com/siherrmann/texgraph/ai/mock"
	"github.com/siherrmann/texgraph/core/pipeline"
	"github.com/siherrmann/texgraph/helper"
	"github.com/siherrmann/texgraph/model"
)

const samplePage = `The energy of a body at rest is given by $E = mc^2$, where m is
the rest mass and c the speed of light. For a moving body the total energy
follows from the relativistic dispersion relation $$E^2 = (pc)^2 + (mc^2)^2$$
which reduces to the rest energy when the momentum p vanishes.`

const embeddingDim = 64

func main() {
	// Start a test PostgreSQL container
	teardown, dbPort, err := helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	defer teardown(context.Background())

	// Create database configuration using the container port
	dbConfig := &helper.DatabaseConfiguration{
		Host:     "localhost",
		Port:     dbPort,
		Database: "database",
		Username: "user",
		Password: "password",
		Schema:   "public",
		SSLMode:  "disable",
	}

	aiConfig := &ai.Config{
		Provider:     ai.ProviderOllama,
		BaseURL:      "http://localhost:11434",
		EmbedModel:   "bge-m3",
		EmbedDim:     embeddingDim,
		EmbedTimeout: 60 * time.Second,
		ChatTimeout:  120 * time.Second,
	}

	tg, err := texgraph.NewTexGraph(dbConfig, aiConfig, nil)
	if err != nil {
		log.Fatalf("Failed to create texgraph: %v", err)
	}
	defer tg.Close()

	// The example runs offline, so swap in the deterministic mock provider.
	// With a running ollama instance you would skip this call.
	tg.SetProvider(mock.NewProvider(embeddingDim), aiConfig)

	ctx := context.Background()

	// Split one page into prose and formulas, embed both channels and
	// build the upsert rows by hand. IngestFile does the same for a PDF.
	prose, latex := pipeline.SplitLatex(samplePage)
	fmt.Printf("Prose: %s\n\n", prose)
	fmt.Printf("Formulas: %s\n\n", latex)

	embedder := pipeline.NewEmbedder(mock.NewProvider(embeddingDim), aiConfig)
	vecText, err := embedder.Embed(ctx, prose)
	if err != nil {
		log.Fatalf("Failed to embed prose: %v", err)
	}
	vecLatex, err := embedder.Embed(ctx, latex)
	if err != nil {
		log.Fatalf("Failed to embed formulas: %v", err)
	}

	docID := pipeline.DocumentID([]byte(samplePage))
	document := &model.Document{
		DocID:     docID,
		Title:     "Relativistic Energy",
		Path:      "example://relativity",
		PageCount: 1,
	}
	rows := []*model.Row{{
		DocID:     docID,
		Title:     document.Title,
		Path:      document.Path,
		PageCount: document.PageCount,
		SecID:     pipeline.SectionID(docID, 1),
		Section:   "Page 1",
		PageStart: 1,
		PageEnd:   1,
		ChunkID:   pipeline.ChunkID(docID, 1, 0),
		TextNorm:  prose,
		LatexRaw:  latex,
		VecText:   vecText,
		VecLatex:  vecLatex,
	}}

	fmt.Println("Ingesting document...")
	if err := tg.Chunks.UpsertRows(document, rows); err != nil {
		log.Fatalf("Failed to upsert rows: %v", err)
	}
	fmt.Printf("Document inserted with ID: %s\n", docID)

	if err := tg.EnsureIndexes(ctx); err != nil {
		log.Fatalf("Failed to create indexes: %v", err)
	}

	// Dual channel search with a shared query embedding
	queryText := "What is the rest energy of a body?"
	fmt.Printf("\nQuerying: %s\n", queryText)

	passages, err := tg.Search(ctx, queryText, 5)
	if err != nil {
		log.Fatalf("Failed to search: %v", err)
	}

	fmt.Printf("\nFound %d passages:\n", len(passages))
	for i, passage := range passages {
		fmt.Printf("\n--- Passage %d ---\n", i+1)
		fmt.Printf("Score: %.4f\n", passage.Score)
		fmt.Printf("Text: %s\n", passage.Text)
		fmt.Printf("Formulas: %s\n", passage.Latex)
		fmt.Printf("Pages: %d-%d\n", passage.PageStart, passage.PageEnd)
	}

	// Exact formula lookup over the raw latex text
	fmt.Println("\nSearching formulas for \"mc\"...")
	matches, err := tg.SearchLatex(ctx, "mc", 5)
	if err != nil {
		log.Fatalf("Failed to search formulas: %v", err)
	}
	fmt.Printf("Found %d formula matches\n", len(matches))

	fmt.Println("\nBasic example completed successfully!")
}
