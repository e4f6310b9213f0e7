package main

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/siherrmann/texgraph"
	"github.com/siherrmann/texgraph/ai"
	"github.com/siherrmann/texgraph/helper"
	"github.com/siherrmann/texgraph/model"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "texgraph",
		Usage: "LaTeX-aware document search over a graph store",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "index",
				Usage:  "Create the vector and full text indexes",
				Action: indexCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Drop and recreate the vector indexes",
					},
				},
			},
			{
				Name:      "ingest",
				Usage:     "Ingest a PDF file or every *.pdf in a directory",
				ArgsUsage: "<path>",
				Action:    ingestCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "chunk-tokens",
						Usage: "Approximate chunk size in tokens",
						Value: model.DefaultChunkConfig().TargetTokens,
					},
					&cli.IntFlag{
						Name:  "overlap-tokens",
						Usage: "Approximate overlap between neighboring chunks in tokens",
						Value: model.DefaultChunkConfig().OverlapTokens,
					},
				},
			},
			{
				Name:      "search",
				Usage:     "Search the store and print the top passages",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "top-k",
						Aliases: []string{"k"},
						Usage:   "Number of passages to return",
						Value:   model.DefaultSearchConfig().TopK,
					},
					&cli.BoolFlag{
						Name:  "latex",
						Usage: "Match the query against raw formula text instead of embeddings",
					},
				},
			},
			{
				Name:   "serve",
				Usage:  "Start the HTTP retrieval server",
				Action: serveCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "addr",
						Usage: "Listen address",
						Value: ":8080",
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newTexGraph(chunkConfig *model.ChunkConfig) (*texgraph.TexGraph, error) {
	dbConfig, err := helper.NewDatabaseConfiguration()
	if err != nil {
		return nil, fmt.Errorf("invalid database configuration: %w", err)
	}

	aiConfig, err := ai.NewConfigFromEnv()
	if err != nil {
		return nil, fmt.Errorf("invalid provider configuration: %w", err)
	}

	return texgraph.NewTexGraph(dbConfig, aiConfig, chunkConfig)
}

func indexCommand(c *cli.Context) error {
	tg, err := newTexGraph(nil)
	if err != nil {
		return err
	}
	defer tg.Close()

	ctx := context.Background()

	if c.Bool("force") {
		if err := tg.Chunks.DropVectorIndexes(ctx); err != nil {
			return fmt.Errorf("dropping vector indexes failed: %w", err)
		}
	}

	if err := tg.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("creating indexes failed: %w", err)
	}

	fmt.Fprintln(os.Stderr, "Indexes are in place")
	return nil
}

func ingestCommand(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		return fmt.Errorf("path to a PDF file or directory is required")
	}

	chunkConfig := &model.ChunkConfig{
		TargetTokens:  c.Int("chunk-tokens"),
		OverlapTokens: c.Int("overlap-tokens"),
	}
	if chunkConfig.TargetTokens <= 0 {
		return fmt.Errorf("chunk-tokens must be greater than 0")
	}

	tg, err := newTexGraph(chunkConfig)
	if err != nil {
		return err
	}
	defer tg.Close()

	ctx := context.Background()

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("cannot stat %s: %w", path, err)
	}

	if !info.IsDir() {
		chunks, err := tg.IngestFile(ctx, path)
		if err != nil {
			return fmt.Errorf("ingesting %s failed: %w", path, err)
		}
		fmt.Fprintf(os.Stderr, "Ingested %s (%d chunks)\n", path, chunks)
		return nil
	}

	// Directory walk. A failing document is logged and skipped, the retry
	// unit is the whole document.
	ingested, failed := 0, 0
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(p), ".pdf") {
			return nil
		}

		chunks, err := tg.IngestFile(ctx, p)
		if err != nil {
			slog.Error("Ingest failed", slog.String("path", p), slog.String("error", err.Error()))
			failed++
			return nil
		}

		fmt.Fprintf(os.Stderr, "Ingested %s (%d chunks)\n", p, chunks)
		ingested++
		return nil
	})
	if err != nil {
		return fmt.Errorf("walking %s failed: %w", path, err)
	}

	fmt.Fprintf(os.Stderr, "Done: %d ingested, %d failed\n", ingested, failed)
	return nil
}

func searchCommand(c *cli.Context) error {
	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return fmt.Errorf("query is required")
	}

	tg, err := newTexGraph(nil)
	if err != nil {
		return err
	}
	defer tg.Close()

	ctx := context.Background()
	k := c.Int("top-k")

	var passages []*model.Passage
	if c.Bool("latex") {
		passages, err = tg.SearchLatex(ctx, query, k)
	} else {
		passages, err = tg.Search(ctx, query, k)
	}
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if len(passages) == 0 {
		fmt.Println("No results")
		return nil
	}

	for i, passage := range passages {
		fmt.Printf("%2d. [%.3f] %s (pages %d-%d)\n", i+1, passage.Score, passage.ChunkID, passage.PageStart, passage.PageEnd)
		fmt.Printf("    %s\n", passage.Text)
		if passage.Latex != "" {
			fmt.Printf("    %s\n", passage.Latex)
		}
	}

	return nil
}

func serveCommand(c *cli.Context) error {
	tg, err := newTexGraph(nil)
	if err != nil {
		return err
	}
	defer tg.Close()

	return tg.Serve(context.Background(), c.String("addr"))
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
