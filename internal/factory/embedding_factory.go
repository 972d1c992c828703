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

// EmbeddingFactory creates embedding clients
type EmbeddingFactory struct {
	cfg           *config.Config
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewEmbeddingFactory creates a new embedding factory
func NewEmbeddingFactory(cfg *config.Config, logger *zap.Logger, textProcessor *utils.TextProcessor) *EmbeddingFactory {
	return &EmbeddingFactory{
		cfg:           cfg,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// CreateEmbeddingClient creates a new embedding client based on the configuration
func (f *EmbeddingFactory) CreateEmbeddingClient() (core.EmbeddingClient, error) {
	embeddingConfig := f.cfg.GetEmbeddings()

	switch embeddingConfig.Provider {
	case "openai":
		return openai.NewFactory(f.cfg, f.logger, f.textProcessor).CreateEmbeddingClient()
	case "bedrock":
		return bedrock.NewFactory(f.cfg, f.logger, f.textProcessor).CreateEmbeddingClient()
	case "gemini":
		return gemini.NewFactory(f.cfg, f.logger, f.textProcessor).CreateEmbeddingClient()
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", embeddingConfig.Provider)
	}
}
