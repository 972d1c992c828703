package gemini

import (
	"go.uber.org/zap"

	"github.com/mikey/llm-compliance-filter/internal/config"
	"github.com/mikey/llm-compliance-filter/internal/core"
	"github.com/mikey/llm-compliance-filter/internal/utils"
)

// Factory creates Gemini-backed clients
type Factory struct {
	cfg           *config.Config
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewFactory creates a new factory for Gemini clients
func NewFactory(cfg *config.Config, logger *zap.Logger, textProcessor *utils.TextProcessor) *Factory {
	return &Factory{
		cfg:           cfg,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// CreateLLMClient creates a new Gemini classification client
func (f *Factory) CreateLLMClient() (core.LLMClient, error) {
	geminiCfg := f.cfg.GetGemini()
	return NewClient(
		geminiCfg.APIKey,
		geminiCfg.ModelName,
		geminiCfg.MaxTokens,
		geminiCfg.Temperature,
		geminiCfg.TopP,
		geminiCfg.MaxBodySize,
		f.logger,
		f.textProcessor,
	)
}

// CreateEmbeddingClient creates a new Gemini embedding client
func (f *Factory) CreateEmbeddingClient() (core.EmbeddingClient, error) {
	geminiCfg := f.cfg.GetGemini()
	return NewEmbeddingClient(geminiCfg.APIKey, geminiCfg.EmbeddingModel, f.logger)
}
