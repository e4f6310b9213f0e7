package texgraph

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/siherrmann/texgraph/ai"
	"github.com/siherrmann/texgraph/api"
	"github.com/siherrmann/texgraph/core/pipeline"
	"github.com/siherrmann/texgraph/core/retrieval"
	"github.com/siherrmann/texgraph/database"
	"github.com/siherrmann/texgraph/extract"
	"github.com/siherrmann/texgraph/helper"
	"github.com/siherrmann/texgraph/model"
	loadSql "github.com/siherrmann/texgraph/sql"
)

// ErrNotFound is returned by IngestFile when the path does not resolve to a
// readable file.
var ErrNotFound = pipeline.ErrNotFound

// TexGraph provides a unified interface to ingestion and retrieval.
type TexGraph struct {
	DB        *helper.Database
	Documents *database.DocumentsDBHandler
	Sections  *database.SectionsDBHandler
	Chunks    *database.ChunksDBHandler
	Provider  ai.Provider
	Planner   *pipeline.Planner
	Engine    *retrieval.Engine
	// Logging
	log *slog.Logger
	// Query embedding settings
	embedder *pipeline.Embedder
	chunker  *pipeline.WindowChunker
}

// NewTexGraph creates a new TexGraph instance with all handlers initialized.
// The embedding dimension comes from the provider config, so switching the
// embedding model requires re-initializing the chunk table.
func NewTexGraph(dbConfig *helper.DatabaseConfiguration, aiConfig *ai.Config, chunkConfig *model.ChunkConfig) (*TexGraph, error) {
	// Logger
	opts := helper.PrettyHandlerOptions{
		SlogOpts: slog.HandlerOptions{
			Level: slog.LevelInfo,
		},
	}
	logger := slog.New(helper.NewPrettyHandler(os.Stdout, opts))

	err := aiConfig.Validate()
	if err != nil {
		return nil, helper.NewError("validate provider config", err)
	}

	if chunkConfig == nil {
		defaultConfig := model.DefaultChunkConfig()
		chunkConfig = &defaultConfig
	}

	// Initialize database
	db := helper.NewDatabase("texgraph", dbConfig, logger)
	err = loadSql.Init(db.Instance)
	if err != nil {
		return nil, helper.NewError("initialize database extensions", err)
	}

	// Create all handlers in dependency order (documents, sections, chunks).
	// force=false to not reload if functions already exist.
	documents, err := database.NewDocumentsDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create documents handler", err)
	}

	sections, err := database.NewSectionsDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create sections handler", err)
	}

	chunks, err := database.NewChunksDBHandler(db, aiConfig.EmbedDim, false)
	if err != nil {
		return nil, helper.NewError("create chunks handler", err)
	}

	provider, err := ai.NewProvider(aiConfig)
	if err != nil {
		return nil, helper.NewError("create embedding provider", err)
	}

	embedder := pipeline.NewEmbedder(provider, aiConfig)
	chunker := pipeline.NewWindowChunker(*chunkConfig)
	planner := pipeline.NewPlanner(&extract.PDFExtractor{}, chunker, embedder, logger)
	engine := retrieval.NewEngine(chunks, nil)

	return &TexGraph{
		DB:        db,
		Documents: documents,
		Sections:  sections,
		Chunks:    chunks,
		Provider:  provider,
		Planner:   planner,
		Engine:    engine,
		log:       logger,
		embedder:  embedder,
		chunker:   chunker,
	}, nil
}

// SetProvider swaps the embedding provider and rebuilds the embedder and
// planner around it. The embedding dimension of the config must match the
// chunk table.
func (t *TexGraph) SetProvider(provider ai.Provider, aiConfig *ai.Config) {
	t.Provider = provider
	t.embedder = pipeline.NewEmbedder(provider, aiConfig)
	t.Planner = pipeline.NewPlanner(&extract.PDFExtractor{}, t.chunker, t.embedder, t.log)
}

// Close closes the database connection
func (t *TexGraph) Close() error {
	if t.DB != nil && t.DB.Instance != nil {
		return t.DB.Instance.Close()
	}
	return nil
}

// EnsureIndexes creates the vector and full text indexes.
func (t *TexGraph) EnsureIndexes(ctx context.Context) error {
	return t.Chunks.EnsureIndexes(ctx)
}

// IngestFile plans one PDF into rows and merges them into the store.
// Returns the number of chunks written. Re-ingesting identical bytes
// overwrites the same nodes.
func (t *TexGraph) IngestFile(ctx context.Context, path string) (int, error) {
	runID := uuid.NewString()

	document, rows, err := t.Planner.Plan(ctx, path)
	if err != nil {
		return 0, helper.NewError("plan document", err)
	}

	err = t.Chunks.UpsertRows(document, rows)
	if err != nil {
		return 0, helper.NewError("upsert rows", err)
	}

	t.log.Info("Ingested document",
		slog.String("run_id", runID),
		slog.String("doc_id", document.DocID),
		slog.String("title", document.Title),
		slog.Int("chunks", len(rows)),
	)

	return len(rows), nil
}

// Search embeds the query once and probes both channels with the shared
// embedding, returning the top k passages by max score.
func (t *TexGraph) Search(ctx context.Context, query string, k int) ([]*model.Passage, error) {
	embedding, err := t.embedder.Embed(ctx, query)
	if err != nil {
		return nil, helper.NewError("embed query", err)
	}

	return t.Engine.DualSearch(ctx, embedding, k)
}

// SearchLatex matches the query against the raw formula text of all chunks.
func (t *TexGraph) SearchLatex(ctx context.Context, query string, k int) ([]*model.Passage, error) {
	return t.Engine.LatexSearch(ctx, query, k)
}

// Ask retrieves the top passages for the question and asks the chat model
// to answer from them. Providers without chat support return an error.
func (t *TexGraph) Ask(ctx context.Context, question string, k int) (string, error) {
	passages, err := t.Search(ctx, question, k)
	if err != nil {
		return "", err
	}

	prompt := buildAnswerPrompt(question, passages)
	answer, err := t.Provider.Chat(ctx, prompt)
	if err != nil {
		return "", helper.NewError("chat", err)
	}

	return answer, nil
}

// Serve starts the HTTP retrieval server and blocks until the context is
// cancelled.
func (t *TexGraph) Serve(ctx context.Context, addr string) error {
	server := api.NewServer(t, t.log)
	return server.ListenAndServe(ctx, addr)
}

func buildAnswerPrompt(question string, passages []*model.Passage) string {
	prompt := "Answer the question using only the passages below. Cite page numbers.\n\n"
	for i, passage := range passages {
		prompt += fmt.Sprintf("[%d] (pages %d-%d) %s\n", i+1, passage.PageStart, passage.PageEnd, passage.Text)
		if passage.Latex != "" {
			prompt += fmt.Sprintf("Formulas: %s\n", passage.Latex)
		}
	}
	prompt += fmt.Sprintf("\nQuestion: %s\n", question)
	return prompt
}
