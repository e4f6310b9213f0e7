package ai

import (
	"context"
	"fmt"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelines"
	"github.com/siherrmann/texgraph/helper"
)

// LocalProvider runs a sentence-transformer model in-process via hugot.
// It is embed-only: Chat returns ErrChatUnsupported.
type LocalProvider struct {
	session  *hugot.Session
	pipeline *pipelines.FeatureExtractionPipeline
}

// NewLocalProvider downloads the configured model if needed and initializes
// an in-process feature extraction pipeline.
func NewLocalProvider(config *Config) (*LocalProvider, error) {
	modelPath, err := helper.PrepareModel(config.EmbedModel, "onnx/model.onnx")
	if err != nil {
		return nil, err
	}

	session, err := hugot.NewGoSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create hugot session: %w", err)
	}

	pipelineConfig := hugot.FeatureExtractionConfig{
		ModelPath: modelPath,
		Name:      "texgraph-embedder",
	}
	extractionPipeline, err := hugot.NewPipeline(session, pipelineConfig)
	if err != nil {
		if destroyErr := session.Destroy(); destroyErr != nil {
			return nil, fmt.Errorf("failed to create extraction pipeline: %w (cleanup error: %v)", err, destroyErr)
		}
		return nil, fmt.Errorf("failed to create extraction pipeline: %w", err)
	}

	return &LocalProvider{
		session:  session,
		pipeline: extractionPipeline,
	}, nil
}

// Name returns the provider name.
func (p *LocalProvider) Name() string { return ProviderLocal }

// Embed generates an embedding with the in-process model.
func (p *LocalProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	result, err := p.pipeline.RunPipeline([]string{text})
	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding: %w", err)
	}
	if len(result.Embeddings) == 0 {
		return nil, fmt.Errorf("no embedding generated")
	}

	return result.Embeddings[0], nil
}

// Chat is not available for the local provider.
func (p *LocalProvider) Chat(ctx context.Context, prompt string) (string, error) {
	return "", fmt.Errorf("%w: %s", ErrChatUnsupported, ProviderLocal)
}

// Close releases the hugot session.
func (p *LocalProvider) Close() error {
	return p.session.Destroy()
}
