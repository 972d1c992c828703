package factory

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/mikey/llm-compliance-filter/internal/adapters/bedrock"
	"github.com/mikey/llm-compliance-filter/internal/adapters/gemini"
	"github.com/mikey/llm-compliance-filter/internal/adapters/openai"
	"github.com/mikey/llm-compliance-filter/internal/config"
	"github.com/mikey/llm-compliance-filter/internal/core"
	"github.com/mikey/llm-compliance-filter/internal/utils"
)

// LLMFactory creates LLM clients
type LLMFactory struct {
	cfg           *config.Config
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewLLMFactory creates a new LLM factory
func NewLLMFactory(cfg *config.Config, logger *zap.Logger, textProcessor *utils.TextProcessor) *LLMFactory {
	return &LLMFactory{
		cfg:           cfg,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// CreateLLMClient creates a new LLM client based on the configuration
func (f *LLMFactory) CreateLLMClient() (core.LLMClient, error) {
	llmConfig := f.cfg.GetLLM()

	switch llmConfig.Provider {
	case "openai":
		return openai.NewFactory(f.cfg, f.logger, f.textProcessor).CreateLLMClient()
	case "bedrock":
		return bedrock.NewFactory(f.cfg, f.logger, f.textProcessor).CreateLLMClient()
	case "gemini":
		return gemini.NewFactory(f.cfg, f.logger, f.textProcessor).CreateLLMClient()
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", llmConfig.Provider)
	}
}
