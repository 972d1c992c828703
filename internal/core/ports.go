package core

import (
	"context"
)

// LLMClient defines the interface for interacting with LLM services
type LLMClient interface {
	// ClassifyEmail judges one email against the rubric and examples
	ClassifyEmail(ctx context.Context, req *ClassificationRequest) (*Verdict, error)
}

// EmbeddingClient defines the interface for text embedding services
type EmbeddingClient interface {
	// EmbedText returns the embedding vector for the given text.
	// Identical text yields an identical vector.
	EmbedText(ctx context.Context, text string) ([]float32, error)
}

// ExampleStore is the persistent, queryable collection of labeled
// example emails with vector-similarity search
type ExampleStore interface {
	// Add embeds each record's body, appends the records and persists
	// the collection before returning. On mid-batch failure the store
	// keeps the records that succeeded and reports the rest via an
	// *IngestError.
	Add(ctx context.Context, records []ExampleRecord) error

	// Search returns up to k records nearest to the query text,
	// nearest first. The bootstrap placeholder is never returned.
	// Returns ErrStoreUnavailable when the index cannot be read.
	Search(ctx context.Context, query string, k int) ([]ScoredExample, error)

	// Len reports the number of real records in the store
	Len() int

	// Generation is a monotonically increasing counter incremented on
	// every successful Add; derived retrieval handles use it to detect
	// staleness instead of relying on explicit reloads
	Generation() uint64
}

// ExampleRetriever produces the retrieval context the classification
// engine feeds into the prompt
type ExampleRetriever interface {
	ContextForEmail(ctx context.Context, subject, body string) *RetrievalContext
}
