package gemini

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// EmbeddingClient is an implementation of the EmbeddingClient interface
// using Gemini embedding models
type EmbeddingClient struct {
	client    *genai.Client
	model     *genai.EmbeddingModel
	modelName string
	logger    *zap.Logger
}

// NewEmbeddingClient creates a new Gemini embedding client
func NewEmbeddingClient(apiKey, modelName string, logger *zap.Logger) (*EmbeddingClient, error) {
	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &EmbeddingClient{
		client:    client,
		model:     client.EmbeddingModel(modelName),
		modelName: modelName,
		logger:    logger,
	}, nil
}

// Close closes the underlying Gemini client
func (c *EmbeddingClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// EmbedText returns the embedding vector for the given text
func (c *EmbeddingClient) EmbedText(ctx context.Context, text string) ([]float32, error) {
	resp, err := c.model.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, fmt.Errorf("failed to embed content with Gemini: %w", err)
	}
	if resp.Embedding == nil || len(resp.Embedding.Values) == 0 {
		return nil, fmt.Errorf("empty embedding from Gemini model %s", c.modelName)
	}
	return resp.Embedding.Values, nil
}
