package bedrock

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"go.uber.org/zap"

	"github.com/mikey/llm-compliance-filter/internal/config"
	"github.com/mikey/llm-compliance-filter/internal/core"
	"github.com/mikey/llm-compliance-filter/internal/utils"
)

// Factory creates Bedrock-backed clients
type Factory struct {
	cfg           *config.Config
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewFactory creates a new Bedrock factory
func NewFactory(cfg *config.Config, logger *zap.Logger, textProcessor *utils.TextProcessor) *Factory {
	return &Factory{
		cfg:           cfg,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// newRuntimeClient loads the AWS configuration for the configured region
func (f *Factory) newRuntimeClient() (*bedrockruntime.Client, error) {
	bedrockCfg := f.cfg.GetBedrock()
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(bedrockCfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}
	return bedrockruntime.NewFromConfig(awsCfg), nil
}

// CreateLLMClient creates a new Bedrock classification client
func (f *Factory) CreateLLMClient() (core.LLMClient, error) {
	client, err := f.newRuntimeClient()
	if err != nil {
		return nil, err
	}

	bedrockCfg := f.cfg.GetBedrock()
	return NewClient(
		client,
		bedrockCfg.ModelID,
		bedrockCfg.MaxTokens,
		bedrockCfg.Temperature,
		bedrockCfg.TopP,
		bedrockCfg.MaxBodySize,
		f.logger,
		f.textProcessor,
	), nil
}

// CreateEmbeddingClient creates a new Titan embedding client
func (f *Factory) CreateEmbeddingClient() (core.EmbeddingClient, error) {
	client, err := f.newRuntimeClient()
	if err != nil {
		return nil, err
	}

	bedrockCfg := f.cfg.GetBedrock()
	return NewEmbeddingClient(client, bedrockCfg.EmbeddingModelID, f.logger), nil
}
