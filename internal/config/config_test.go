package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikey/llm-compliance-filter/internal/core"
)

func defaultConfig() *Config {
	return NewFromViper(NewEmptyViper())
}

func TestDefaults(t *testing.T) {
	cfg := defaultConfig()

	assert.Equal(t, "openai", cfg.GetLLM().Provider)
	assert.Equal(t, "openai", cfg.GetEmbeddings().Provider)
	assert.Equal(t, "gpt-4", cfg.GetOpenAI().ModelName)
	assert.Equal(t, "text-embedding-3-small", cfg.GetOpenAI().EmbeddingModel)
	assert.Equal(t, "anthropic.claude-v2", cfg.GetBedrock().ModelID)
	assert.Equal(t, "sqlite", cfg.GetStore().Type)
	assert.Equal(t, 3, cfg.GetRetrieval().K)
	assert.Equal(t, "diverse", cfg.GetRetrieval().SearchType)
	assert.Equal(t, 1, cfg.GetClassification().Workers)
}

func TestGetDuration(t *testing.T) {
	cfg := defaultConfig()

	timeout, err := cfg.GetDuration("llm.timeout")
	require.NoError(t, err)
	assert.Equal(t, 60*time.Second, timeout)
}

func TestGetRubricDefaults(t *testing.T) {
	rubric := defaultConfig().GetRubric()

	assert.Contains(t, rubric.Categories, "Secrecy")
	assert.Contains(t, rubric.Categories, "Insider Trading")
	assert.Equal(t, []string{"enron.com"}, rubric.TrustedDomains)
	assert.Len(t, rubric.Weights, 6)
}

func TestGetRubricWeightsUsableByScorer(t *testing.T) {
	// Viper lowercases map keys; the scorer has to resolve the
	// original-cased category names against them regardless
	scorer := core.NewRiskScorer(defaultConfig().GetRubric())

	assert.Equal(t, 10.0, scorer.Score([]string{"Secrecy"}, "a@enron.com", "b@enron.com"))
	assert.Equal(t, 8.0, scorer.Score([]string{"Market Manipulation"}, "a@enron.com", "b@enron.com"))
	assert.Equal(t, 11.0, scorer.Score([]string{"Secrecy"}, "a@enron.com", "b@other.com"))
}

func TestGetRubricCoercesWeightTypes(t *testing.T) {
	v := NewEmptyViper()
	v.Set("rubric.weights", map[string]interface{}{
		"alpha": 3,
		"beta":  2.5,
		"gamma": "4",
		"delta": "not a number",
	})

	weights := NewFromViper(v).GetRubric().Weights
	assert.Equal(t, 3.0, weights["alpha"])
	assert.Equal(t, 2.5, weights["beta"])
	assert.Equal(t, 4.0, weights["gamma"])
	_, ok := weights["delta"]
	assert.False(t, ok)
}

func TestOverrides(t *testing.T) {
	v := NewEmptyViper()
	v.Set("llm.provider", "bedrock")
	v.Set("store.type", "memory")
	v.Set("classification.workers", 8)

	cfg := NewFromViper(v)
	assert.Equal(t, "bedrock", cfg.GetLLM().Provider)
	assert.Equal(t, "memory", cfg.GetStore().Type)
	assert.Equal(t, 8, cfg.GetClassification().Workers)
}
