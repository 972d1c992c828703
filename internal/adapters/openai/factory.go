package openai

import (
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/mikey/llm-compliance-filter/internal/config"
	"github.com/mikey/llm-compliance-filter/internal/core"
	"github.com/mikey/llm-compliance-filter/internal/utils"
)

// Factory creates OpenAI-backed clients
type Factory struct {
	cfg           *config.Config
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewFactory creates a new factory for OpenAI clients
func NewFactory(cfg *config.Config, logger *zap.Logger, textProcessor *utils.TextProcessor) *Factory {
	return &Factory{
		cfg:           cfg,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// CreateLLMClient creates a new OpenAI classification client
func (f *Factory) CreateLLMClient() (core.LLMClient, error) {
	openaiCfg := f.cfg.GetOpenAI()
	client := openai.NewClient(openaiCfg.APIKey)

	return NewClient(
		client,
		openaiCfg.ModelName,
		openaiCfg.MaxTokens,
		openaiCfg.Temperature,
		openaiCfg.TopP,
		openaiCfg.MaxBodySize,
		f.logger,
		f.textProcessor,
	), nil
}

// CreateEmbeddingClient creates a new OpenAI embedding client
func (f *Factory) CreateEmbeddingClient() (core.EmbeddingClient, error) {
	openaiCfg := f.cfg.GetOpenAI()
	client := openai.NewClient(openaiCfg.APIKey)

	return NewEmbeddingClient(client, openaiCfg.EmbeddingModel, f.logger), nil
}
