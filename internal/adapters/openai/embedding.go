package openai

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// EmbeddingClient is an implementation of the EmbeddingClient interface
// using the OpenAI embeddings API
type EmbeddingClient struct {
	client    *openai.Client
	modelName string
	logger    *zap.Logger
}

// NewEmbeddingClient creates a new OpenAI embedding client
func NewEmbeddingClient(client *openai.Client, modelName string, logger *zap.Logger) *EmbeddingClient {
	return &EmbeddingClient{
		client:    client,
		modelName: modelName,
		logger:    logger,
	}
}

// EmbedText returns the embedding vector for the given text
func (c *EmbeddingClient) EmbedText(ctx context.Context, text string) ([]float32, error) {
	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input: []string{text},
		Model: openai.EmbeddingModel(c.modelName),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding with OpenAI: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("empty embedding response from OpenAI")
	}
	return resp.Data[0].Embedding, nil
}
