package vectorstore

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/llm-compliance-filter/internal/core"
)

// mapEmbedder returns fixed vectors for known texts so similarity
// ranking is fully deterministic in tests
type mapEmbedder struct {
	vectors map[string][]float32
	failOn  string
}

func (e *mapEmbedder) EmbedText(_ context.Context, text string) ([]float32, error) {
	if e.failOn != "" && text == e.failOn {
		return nil, fmt.Errorf("embedding service rejected input")
	}
	if vector, ok := e.vectors[text]; ok {
		return vector, nil
	}
	return []float32{1, 1, 1}, nil
}

func testEmbedder() *mapEmbedder {
	return &mapEmbedder{vectors: map[string][]float32{
		bootstrapText:         {1, 0, 0},
		"shred the documents": {0, 1, 0},
		"lunch on friday":     {0, 0.2, 0.9},
		"tip on the merger":   {0.7, 0.1, 0.3},
	}}
}

func record(id, body string, categories ...string) core.ExampleRecord {
	classification := core.ClassificationNonCompliant
	if len(categories) == 0 {
		classification = core.ClassificationCompliant
		categories = []string{core.CategoryCompliant}
	}
	return core.ExampleRecord{
		ID:             id,
		From:           "a@x.com",
		To:             "b@x.com",
		Body:           body,
		Classification: classification,
		Categories:     core.NewCategorySet(categories...),
	}
}

func TestMemoryStoreBootstrap(t *testing.T) {
	store, err := NewMemoryStore(testEmbedder(), zap.NewNop())
	require.NoError(t, err)

	// The placeholder never counts and never surfaces in results
	assert.Equal(t, 0, store.Len())
	assert.Equal(t, uint64(0), store.Generation())

	results, err := store.Search(context.Background(), "anything", 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestMemoryStoreSearchNearestFirst(t *testing.T) {
	store, err := NewMemoryStore(testEmbedder(), zap.NewNop())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, store.Add(ctx, []core.ExampleRecord{
		record("r1", "shred the documents", "Document Destruction"),
		record("r2", "lunch on friday"),
		record("r3", "tip on the merger", "Insider Trading"),
	}))
	assert.Equal(t, 3, store.Len())

	results, err := store.Search(ctx, "shred the documents", 3)
	require.NoError(t, err)
	require.Len(t, results, 3)

	// Exact body match ranks first with similarity 1
	assert.Equal(t, "r1", results[0].Record.ID)
	assert.InDelta(t, 1.0, results[0].Similarity, 1e-9)
	assert.Greater(t, results[0].Similarity, results[1].Similarity)
}

func TestMemoryStoreSearchTruncatesToK(t *testing.T) {
	store, err := NewMemoryStore(testEmbedder(), zap.NewNop())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, store.Add(ctx, []core.ExampleRecord{
		record("r1", "shred the documents", "Document Destruction"),
		record("r2", "lunch on friday"),
	}))

	results, err := store.Search(ctx, "shred the documents", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "r1", results[0].Record.ID)

	results, err = store.Search(ctx, "shred the documents", 0)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestMemoryStoreGenerationAdvances(t *testing.T) {
	store, err := NewMemoryStore(testEmbedder(), zap.NewNop())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, store.Add(ctx, []core.ExampleRecord{record("r1", "lunch on friday")}))
	assert.Equal(t, uint64(1), store.Generation())

	require.NoError(t, store.Add(ctx, []core.ExampleRecord{record("r2", "tip on the merger", "Insider Trading")}))
	assert.Equal(t, uint64(2), store.Generation())
}

func TestMemoryStorePartialIngest(t *testing.T) {
	embedder := testEmbedder()
	embedder.failOn = "lunch on friday"

	store, err := NewMemoryStore(embedder, zap.NewNop())
	require.NoError(t, err)

	ctx := context.Background()
	err = store.Add(ctx, []core.ExampleRecord{
		record("r1", "shred the documents", "Document Destruction"),
		record("r2", "lunch on friday"),
		record("r3", "tip on the merger", "Insider Trading"),
	})
	require.Error(t, err)

	var ingestErr *core.IngestError
	require.ErrorAs(t, err, &ingestErr)
	assert.Equal(t, 3, ingestErr.Attempted)
	require.Len(t, ingestErr.Failures, 1)
	assert.Equal(t, 1, ingestErr.Failures[0].Index)

	// The records that embedded successfully stay in the store
	assert.Equal(t, 2, store.Len())
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, cosineSimilarity([]float32{1, 2, 3}, []float32{2, 4, 6}), 1e-9)
	assert.InDelta(t, 0.0, cosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.Equal(t, 0.0, cosineSimilarity([]float32{1, 0}, []float32{0, 0}))
	assert.Equal(t, 0.0, cosineSimilarity([]float32{1, 0}, []float32{1}))
	assert.Equal(t, 0.0, cosineSimilarity(nil, nil))
}
