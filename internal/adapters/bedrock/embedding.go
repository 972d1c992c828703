package bedrock

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"go.uber.org/zap"
)

// EmbeddingClient is an implementation of the EmbeddingClient interface
// using Amazon Titan embedding models on Bedrock
type EmbeddingClient struct {
	client  *bedrockruntime.Client
	modelID string
	logger  *zap.Logger
}

// NewEmbeddingClient creates a new Bedrock embedding client
func NewEmbeddingClient(client *bedrockruntime.Client, modelID string, logger *zap.Logger) *EmbeddingClient {
	return &EmbeddingClient{
		client:  client,
		modelID: modelID,
		logger:  logger,
	}
}

// EmbedText returns the embedding vector for the given text
func (c *EmbeddingClient) EmbedText(ctx context.Context, text string) ([]float32, error) {
	payload, err := json.Marshal(map[string]interface{}{
		"inputText": text,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal embedding payload: %w", err)
	}

	resp, err := c.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     &c.modelID,
		Body:        payload,
		Accept:      aws.String("application/json"),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to invoke Bedrock embedding model: %w", err)
	}

	var embeddingResp struct {
		Embedding []float32 `json:"embedding"`
	}
	if err := json.Unmarshal(resp.Body, &embeddingResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal embedding response: %w", err)
	}
	if len(embeddingResp.Embedding) == 0 {
		return nil, fmt.Errorf("empty embedding from Bedrock model %s", c.modelID)
	}
	return embeddingResp.Embedding, nil
}
