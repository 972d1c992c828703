package vectorstore

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/mikey/llm-compliance-filter/internal/core"
)

// MemoryStore is an in-memory implementation of the ExampleStore
// interface. Nothing survives process exit; it exists for tests and
// one-shot CLI runs.
type MemoryStore struct {
	embedder   core.EmbeddingClient
	logger     *zap.Logger
	mu         sync.RWMutex
	entries    []indexEntry
	generation atomic.Uint64
}

// NewMemoryStore creates a memory store bootstrapped with the
// placeholder entry
func NewMemoryStore(embedder core.EmbeddingClient, logger *zap.Logger) (*MemoryStore, error) {
	vector, err := embedder.EmbedText(context.Background(), bootstrapText)
	if err != nil {
		return nil, fmt.Errorf("failed to bootstrap memory store: %w", err)
	}

	return &MemoryStore{
		embedder: embedder,
		logger:   logger,
		entries:  []indexEntry{{vector: vector, placeholder: true}},
	}, nil
}

// Add embeds and appends each record. Every record is attempted;
// failures are reported together as an *core.IngestError while the
// successes stay in the store.
func (s *MemoryStore) Add(ctx context.Context, records []core.ExampleRecord) error {
	var failures []core.IngestFailure

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, record := range records {
		vector, err := s.embedder.EmbedText(ctx, record.Body)
		if err != nil {
			failures = append(failures, core.IngestFailure{Index: i, Err: err})
			continue
		}
		s.entries = append(s.entries, indexEntry{record: record, vector: vector})
	}
	s.generation.Add(1)

	if len(failures) > 0 {
		return &core.IngestError{Attempted: len(records), Failures: failures}
	}
	return nil
}

// Search returns up to k records nearest to the query text
func (s *MemoryStore) Search(ctx context.Context, query string, k int) ([]core.ScoredExample, error) {
	if k < 1 {
		return nil, nil
	}

	queryVector, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return searchIndex(s.entries, queryVector, k), nil
}

// Len reports the number of real records in the store
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return countReal(s.entries)
}

// Generation reports the store mutation counter
func (s *MemoryStore) Generation() uint64 {
	return s.generation.Load()
}
