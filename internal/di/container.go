package di

import (
	"flag"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/llm-compliance-filter/internal/adapters/csvsource"
	"github.com/mikey/llm-compliance-filter/internal/config"
	"github.com/mikey/llm-compliance-filter/internal/core"
	"github.com/mikey/llm-compliance-filter/internal/factory"
	"github.com/mikey/llm-compliance-filter/internal/logging"
	"github.com/mikey/llm-compliance-filter/internal/retrieval"
	"github.com/mikey/llm-compliance-filter/internal/utils"
)

// CLIFlags contains all command line flags for the CLI applications
type CLIFlags struct {
	// LLM provider flags
	Provider          string
	EmbeddingProvider string
	MaxTokens         int
	Temperature       float64
	TopP              float64
	MaxBodySize       int

	// OpenAI flags
	OpenAIAPIKey    string
	OpenAIModelName string

	// Bedrock flags
	BedrockRegion  string
	BedrockModelID string

	// Gemini flags
	GeminiAPIKey    string
	GeminiModelName string

	// Store flags
	StoreType  string
	SQLitePath string

	// Retrieval flags
	K          int
	SearchType string

	// Batch flags
	Workers int

	ConfigFile string
	Verbose    bool
	JSONLog    bool
}

// ParseFlags parses command line flags and returns a CLIFlags struct
func ParseFlags() *CLIFlags {
	flags := &CLIFlags{}

	flag.StringVar(&flags.Provider, "provider", "openai", "LLM provider (openai, bedrock, gemini)")
	flag.StringVar(&flags.EmbeddingProvider, "embedding-provider", "openai", "Embedding provider (openai, bedrock, gemini)")
	flag.IntVar(&flags.MaxTokens, "max-tokens", 1000, "Maximum tokens for LLM response")
	flag.Float64Var(&flags.Temperature, "temperature", 0.1, "Temperature for LLM generation")
	flag.Float64Var(&flags.TopP, "top-p", 0.9, "Top-p for LLM generation")
	flag.IntVar(&flags.MaxBodySize, "max-body-size", 4096, "Maximum email body size to send to LLM")

	flag.StringVar(&flags.OpenAIAPIKey, "openai-api-key", "", "API key for OpenAI")
	flag.StringVar(&flags.OpenAIModelName, "openai-model", "gpt-4", "OpenAI model name")

	flag.StringVar(&flags.BedrockRegion, "bedrock-region", "us-east-1", "AWS region for Bedrock")
	flag.StringVar(&flags.BedrockModelID, "bedrock-model", "anthropic.claude-v2", "Bedrock model ID")

	flag.StringVar(&flags.GeminiAPIKey, "gemini-api-key", "", "API key for Google Gemini")
	flag.StringVar(&flags.GeminiModelName, "gemini-model", "gemini-pro", "Gemini model name")

	flag.StringVar(&flags.StoreType, "store", "sqlite", "Example store type (memory, sqlite, mysql)")
	flag.StringVar(&flags.SQLitePath, "sqlite-path", "data/compliance_examples.db", "Path to the SQLite example store")

	flag.IntVar(&flags.K, "k", 3, "Number of examples to retrieve per email")
	flag.StringVar(&flags.SearchType, "search-type", "diverse", "Retrieval strategy (similarity, diverse)")
	flag.IntVar(&flags.Workers, "workers", 1, "Concurrent classification workers")

	flag.StringVar(&flags.ConfigFile, "config", "", "Path to config file (overrides command line flags)")
	flag.BoolVar(&flags.Verbose, "verbose", false, "Enable verbose logging")
	flag.BoolVar(&flags.JSONLog, "json-log", false, "Output logs in JSON format")

	flag.Parse()
	return flags
}

// BuildCLIContainer creates and configures a dependency injection
// container for the CLI applications. Everything the classification
// engine depends on (store, retriever, LLM client, rubric) is
// constructed exactly once here and injected explicitly.
func BuildCLIContainer(flags *CLIFlags) (*dig.Container, error) {
	container := dig.New()

	if err := container.Provide(func() *CLIFlags { return flags }); err != nil {
		return nil, err
	}

	if err := container.Provide(func(flags *CLIFlags) (*config.Config, error) {
		if flags.ConfigFile != "" {
			return config.New()
		}
		return createConfigFromFlags(flags), nil
	}); err != nil {
		return nil, err
	}

	// With a config file, the logging section drives the logger; flag
	// runs get the console logger
	if err := container.Provide(func(flags *CLIFlags, cfg *config.Config) (*zap.Logger, error) {
		if flags.ConfigFile == "" {
			return logging.InitConsoleLogger(flags.Verbose, flags.JSONLog)
		}
		logger, err := logging.InitLogger(cfg)
		if err != nil {
			return nil, err
		}
		logger.Info("Loaded configuration from file",
			zap.String("file", cfg.GetViper().ConfigFileUsed()))
		return logger, nil
	}); err != nil {
		return nil, err
	}

	// Register factories
	if err := container.Provide(factory.NewTextProcessorFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(func(f *factory.TextProcessorFactory) *utils.TextProcessor {
		return f.CreateTextProcessor()
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewLLMFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewEmbeddingFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewStoreFactory); err != nil {
		return nil, err
	}

	// Register ports
	if err := container.Provide(func(f *factory.LLMFactory) (core.LLMClient, error) {
		return f.CreateLLMClient()
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(f *factory.EmbeddingFactory) (core.EmbeddingClient, error) {
		return f.CreateEmbeddingClient()
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(f *factory.StoreFactory, embedder core.EmbeddingClient) (core.ExampleStore, error) {
		return f.CreateExampleStore(embedder)
	}); err != nil {
		return nil, err
	}

	// Register rubric and risk scorer
	if err := container.Provide(func(cfg *config.Config) core.Rubric {
		return cfg.GetRubric()
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(core.NewRiskScorer); err != nil {
		return nil, err
	}

	// Register retriever
	if err := container.Provide(func(store core.ExampleStore, cfg *config.Config, logger *zap.Logger) *retrieval.Retriever {
		retrievalCfg := cfg.GetRetrieval()
		return retrieval.NewRetriever(store, logger, retrievalCfg.K, retrievalCfg.SearchType)
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(r *retrieval.Retriever) core.ExampleRetriever {
		return r
	}); err != nil {
		return nil, err
	}

	// Register classification engine
	if err := container.Provide(func(
		store core.ExampleStore,
		retriever core.ExampleRetriever,
		llmClient core.LLMClient,
		riskScorer *core.RiskScorer,
		rubric core.Rubric,
		cfg *config.Config,
		logger *zap.Logger,
	) (*core.ClassificationEngine, error) {
		timeout, err := cfg.GetDuration("llm.timeout")
		if err != nil {
			return nil, err
		}
		return core.NewClassificationEngine(
			store,
			retriever,
			llmClient,
			riskScorer,
			rubric,
			logger,
			cfg.GetClassification().Workers,
			timeout,
		), nil
	}); err != nil {
		return nil, err
	}

	// Register CSV loader
	if err := container.Provide(csvsource.NewLoader); err != nil {
		return nil, err
	}

	return container, nil
}

// createConfigFromFlags creates a configuration from command line flags
func createConfigFromFlags(flags *CLIFlags) *config.Config {
	v := config.NewEmptyViper()

	v.Set("llm.provider", flags.Provider)
	v.Set("embeddings.provider", flags.EmbeddingProvider)

	switch flags.Provider {
	case "openai":
		v.Set("openai.api_key", flags.OpenAIAPIKey)
		v.Set("openai.model_name", flags.OpenAIModelName)
		v.Set("openai.max_tokens", flags.MaxTokens)
		v.Set("openai.temperature", flags.Temperature)
		v.Set("openai.top_p", flags.TopP)
		v.Set("openai.max_body_size", flags.MaxBodySize)
	case "bedrock":
		v.Set("bedrock.region", flags.BedrockRegion)
		v.Set("bedrock.model_id", flags.BedrockModelID)
		v.Set("bedrock.max_tokens", flags.MaxTokens)
		v.Set("bedrock.temperature", flags.Temperature)
		v.Set("bedrock.top_p", flags.TopP)
		v.Set("bedrock.max_body_size", flags.MaxBodySize)
	case "gemini":
		v.Set("gemini.api_key", flags.GeminiAPIKey)
		v.Set("gemini.model_name", flags.GeminiModelName)
		v.Set("gemini.max_tokens", flags.MaxTokens)
		v.Set("gemini.temperature", flags.Temperature)
		v.Set("gemini.top_p", flags.TopP)
		v.Set("gemini.max_body_size", flags.MaxBodySize)
	}

	// API keys still come from the flags of the selected provider; the
	// embedding provider may differ from the LLM provider
	switch flags.EmbeddingProvider {
	case "openai":
		v.Set("openai.api_key", flags.OpenAIAPIKey)
	case "gemini":
		v.Set("gemini.api_key", flags.GeminiAPIKey)
	}

	v.Set("store.type", flags.StoreType)
	v.Set("store.sqlite_path", flags.SQLitePath)

	v.Set("retrieval.k", flags.K)
	v.Set("retrieval.search_type", flags.SearchType)
	v.Set("classification.workers", flags.Workers)

	return config.NewFromViper(v)
}
