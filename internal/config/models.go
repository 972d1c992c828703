package config

import (
	"strconv"

	"github.com/mikey/llm-compliance-filter/internal/core"
)

// LLMConfig represents the configuration for the LLM provider
type LLMConfig struct {
	Provider string
	Timeout  string
}

// EmbeddingConfig represents the configuration for the embedding provider
type EmbeddingConfig struct {
	Provider string
}

// OpenAIConfig represents the configuration for OpenAI
type OpenAIConfig struct {
	APIKey         string
	ModelName      string
	EmbeddingModel string
	MaxTokens      int
	Temperature    float32
	TopP           float32
	MaxBodySize    int
}

// BedrockConfig represents the configuration for Amazon Bedrock
type BedrockConfig struct {
	Region           string
	ModelID          string
	EmbeddingModelID string
	MaxTokens        int
	Temperature      float32
	TopP             float32
	MaxBodySize      int
}

// GeminiConfig represents the configuration for Google Gemini
type GeminiConfig struct {
	APIKey         string
	ModelName      string
	EmbeddingModel string
	MaxTokens      int
	Temperature    float32
	TopP           float32
	MaxBodySize    int
}

// StoreConfig represents the configuration for the example store
type StoreConfig struct {
	Type       string
	SQLitePath string
	MySQLDSN   string
}

// RetrievalConfig represents the configuration for the retrieval layer
type RetrievalConfig struct {
	K          int
	SearchType string
}

// ClassificationConfig represents batch processing configuration
type ClassificationConfig struct {
	Workers int
}

// GetLLM returns the LLM configuration
func (c *Config) GetLLM() LLMConfig {
	return LLMConfig{
		Provider: c.GetString("llm.provider"),
		Timeout:  c.GetString("llm.timeout"),
	}
}

// GetEmbeddings returns the embedding provider configuration
func (c *Config) GetEmbeddings() EmbeddingConfig {
	return EmbeddingConfig{
		Provider: c.GetString("embeddings.provider"),
	}
}

// GetOpenAI returns the OpenAI configuration
func (c *Config) GetOpenAI() OpenAIConfig {
	return OpenAIConfig{
		APIKey:         c.GetString("openai.api_key"),
		ModelName:      c.GetString("openai.model_name"),
		EmbeddingModel: c.GetString("openai.embedding_model"),
		MaxTokens:      c.GetInt("openai.max_tokens"),
		Temperature:    float32(c.GetFloat64("openai.temperature")),
		TopP:           float32(c.GetFloat64("openai.top_p")),
		MaxBodySize:    c.GetInt("openai.max_body_size"),
	}
}

// GetBedrock returns the Bedrock configuration
func (c *Config) GetBedrock() BedrockConfig {
	return BedrockConfig{
		Region:           c.GetString("bedrock.region"),
		ModelID:          c.GetString("bedrock.model_id"),
		EmbeddingModelID: c.GetString("bedrock.embedding_model_id"),
		MaxTokens:        c.GetInt("bedrock.max_tokens"),
		Temperature:      float32(c.GetFloat64("bedrock.temperature")),
		TopP:             float32(c.GetFloat64("bedrock.top_p")),
		MaxBodySize:      c.GetInt("bedrock.max_body_size"),
	}
}

// GetGemini returns the Gemini configuration
func (c *Config) GetGemini() GeminiConfig {
	return GeminiConfig{
		APIKey:         c.GetString("gemini.api_key"),
		ModelName:      c.GetString("gemini.model_name"),
		EmbeddingModel: c.GetString("gemini.embedding_model"),
		MaxTokens:      c.GetInt("gemini.max_tokens"),
		Temperature:    float32(c.GetFloat64("gemini.temperature")),
		TopP:           float32(c.GetFloat64("gemini.top_p")),
		MaxBodySize:    c.GetInt("gemini.max_body_size"),
	}
}

// GetStore returns the example store configuration
func (c *Config) GetStore() StoreConfig {
	return StoreConfig{
		Type:       c.GetString("store.type"),
		SQLitePath: c.GetString("store.sqlite_path"),
		MySQLDSN:   c.GetString("store.mysql_dsn"),
	}
}

// GetRetrieval returns the retrieval configuration
func (c *Config) GetRetrieval() RetrievalConfig {
	return RetrievalConfig{
		K:          c.GetInt("retrieval.k"),
		SearchType: c.GetString("retrieval.search_type"),
	}
}

// GetClassification returns the batch processing configuration
func (c *Config) GetClassification() ClassificationConfig {
	return ClassificationConfig{
		Workers: c.GetInt("classification.workers"),
	}
}

// GetRubric returns the compliance rubric: categories, weights and
// trusted domains. Weight values may arrive from YAML as ints, floats
// or strings; all are coerced to float64.
func (c *Config) GetRubric() core.Rubric {
	raw := c.v.GetStringMap("rubric.weights")
	weights := make(map[string]float64, len(raw))
	for category, value := range raw {
		switch w := value.(type) {
		case float64:
			weights[category] = w
		case int:
			weights[category] = float64(w)
		case int64:
			weights[category] = float64(w)
		case string:
			if parsed, err := strconv.ParseFloat(w, 64); err == nil {
				weights[category] = parsed
			}
		}
	}

	return core.Rubric{
		Categories:     c.GetStringSlice("rubric.categories"),
		Weights:        weights,
		TrustedDomains: c.GetStringSlice("rubric.trusted_domains"),
	}
}
