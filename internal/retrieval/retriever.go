// Package retrieval turns raw similarity searches into the example
// sets the classification engine needs: plain, filtered, and
// category-diverse selections plus their prompt rendering.
package retrieval

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/mikey/llm-compliance-filter/internal/core"
)

// SearchTypeSimilarity and SearchTypeDiverse select the retrieval
// strategy used by ContextForEmail
const (
	SearchTypeSimilarity = "similarity"
	SearchTypeDiverse    = "diverse"
)

// NoExamplesSentinel is returned by FormatExamples for an empty input,
// instructing the model to classify from general compliance knowledge
const NoExamplesSentinel = "No similar examples found. Classify based on general compliance knowledge."

// Retriever wraps an example store with a configured default k and
// search strategy. Retrieval is best-effort: store failures degrade to
// an empty example set rather than aborting classification.
type Retriever struct {
	store      core.ExampleStore
	logger     *zap.Logger
	defaultK   int
	searchType string

	mu             sync.Mutex
	seenGeneration uint64
}

// NewRetriever creates a new retriever over the given store
func NewRetriever(store core.ExampleStore, logger *zap.Logger, defaultK int, searchType string) *Retriever {
	if defaultK < 1 {
		defaultK = 3
	}
	if searchType != SearchTypeSimilarity && searchType != SearchTypeDiverse {
		searchType = SearchTypeDiverse
	}
	return &Retriever{
		store:      store,
		logger:     logger,
		defaultK:   defaultK,
		searchType: searchType,
	}
}

// checkGeneration notes store growth since the last query so derived
// state never goes stale without a trace in the logs
func (r *Retriever) checkGeneration() {
	generation := r.store.Generation()
	r.mu.Lock()
	defer r.mu.Unlock()
	if generation != r.seenGeneration {
		r.logger.Debug("Example store generation advanced",
			zap.Uint64("previous", r.seenGeneration),
			zap.Uint64("current", generation),
			zap.Int("store_size", r.store.Len()))
		r.seenGeneration = generation
	}
}

// GetSimilar retrieves the k most similar examples for a query. A
// non-positive k falls back to the configured default. On store
// failure it logs and returns an empty slice.
func (r *Retriever) GetSimilar(ctx context.Context, query string, k int) []core.ScoredExample {
	if k < 1 {
		k = r.defaultK
	}
	r.checkGeneration()

	examples, err := r.store.Search(ctx, query, k)
	if err != nil {
		r.logger.Error("Similarity search failed, degrading to empty example set",
			zap.Int("k", k),
			zap.Error(err))
		return nil
	}

	r.logger.Debug("Retrieved similar examples", zap.Int("count", len(examples)))
	return examples
}

// GetSimilarByCategory over-fetches 3k candidates, keeps those whose
// category set contains the given category and truncates to k
func (r *Retriever) GetSimilarByCategory(ctx context.Context, query, category string, k int) []core.ScoredExample {
	return r.overFetchFilter(ctx, query, k, func(record core.ExampleRecord) bool {
		return record.Categories.Contains(category)
	})
}

// GetSimilarByClassification over-fetches 3k candidates, keeps those
// with the given classification (case-insensitive) and truncates to k
func (r *Retriever) GetSimilarByClassification(ctx context.Context, query, classification string, k int) []core.ScoredExample {
	return r.overFetchFilter(ctx, query, k, func(record core.ExampleRecord) bool {
		return strings.EqualFold(record.Classification, classification)
	})
}

// SearchBySenderDomain over-fetches 3k candidates and keeps those
// whose sender address contains the domain substring. This is a loose
// containment match, not domain equality ("enron.com" also matches
// addresses at "fakeenron.com").
func (r *Retriever) SearchBySenderDomain(ctx context.Context, query, domain string, k int) []core.ScoredExample {
	needle := strings.ToLower(domain)
	return r.overFetchFilter(ctx, query, k, func(record core.ExampleRecord) bool {
		return strings.Contains(strings.ToLower(record.From), needle)
	})
}

func (r *Retriever) overFetchFilter(ctx context.Context, query string, k int, keep func(core.ExampleRecord) bool) []core.ScoredExample {
	if k < 1 {
		k = r.defaultK
	}
	candidates := r.GetSimilar(ctx, query, k*3)

	filtered := make([]core.ScoredExample, 0, k)
	for _, candidate := range candidates {
		if !keep(candidate.Record) {
			continue
		}
		filtered = append(filtered, candidate)
		if len(filtered) == k {
			break
		}
	}
	return filtered
}

// GetDiverseExamples selects k examples covering as many distinct
// category sets as possible. Pass 1 greedily takes at most one
// candidate per category-set value in rank order; pass 2 fills any
// remaining slots with the next-ranked unused candidates. Falls back
// to plain similarity on retrieval failure (which GetSimilar already
// absorbs into an empty result).
func (r *Retriever) GetDiverseExamples(ctx context.Context, query string, k int) []core.ScoredExample {
	if k < 1 {
		k = r.defaultK
	}
	candidates := r.GetSimilar(ctx, query, k*2)

	seen := make(map[string]struct{})
	used := make(map[string]struct{})
	diverse := make([]core.ScoredExample, 0, k)

	for _, candidate := range candidates {
		key := candidate.Record.Categories.Key()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		used[candidate.Record.ID] = struct{}{}
		diverse = append(diverse, candidate)
		if len(diverse) == k {
			break
		}
	}

	if len(diverse) < k {
		for _, candidate := range candidates {
			if _, ok := used[candidate.Record.ID]; ok {
				continue
			}
			used[candidate.Record.ID] = struct{}{}
			diverse = append(diverse, candidate)
			if len(diverse) == k {
				break
			}
		}
	}

	r.logger.Debug("Retrieved diverse examples",
		zap.Int("count", len(diverse)),
		zap.Int("distinct_category_sets", len(seen)))
	return diverse
}

// FormatExamples renders retrieved examples for the prompt. An empty
// input yields the no-examples sentinel.
func (r *Retriever) FormatExamples(examples []core.ScoredExample) string {
	if len(examples) == 0 {
		return NoExamplesSentinel
	}

	var b strings.Builder
	for i, example := range examples {
		fmt.Fprintf(&b, "Example %d:\nClassification: %s\nCategory: %s\nBody: %s\n",
			i+1,
			example.Record.Classification,
			example.Record.Categories.String(),
			strings.TrimSpace(example.Record.Body))
		if i < len(examples)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// ContextForEmail combines subject and body into one query, dispatches
// to the configured strategy and tallies a category distribution over
// the retrieved set
func (r *Retriever) ContextForEmail(ctx context.Context, subject, body string) *core.RetrievalContext {
	query := subject + " " + body

	var examples []core.ScoredExample
	if r.searchType == SearchTypeDiverse {
		examples = r.GetDiverseExamples(ctx, query, r.defaultK)
	} else {
		examples = r.GetSimilar(ctx, query, r.defaultK)
	}

	distribution := make(map[string]int)
	for _, example := range examples {
		for _, category := range example.Record.Categories {
			distribution[category]++
		}
	}

	return &core.RetrievalContext{
		Examples:             examples,
		Formatted:            r.FormatExamples(examples),
		CategoryDistribution: distribution,
	}
}

// Stats reports the retriever configuration and current store state
func (r *Retriever) Stats() map[string]interface{} {
	return map[string]interface{}{
		"search_type": r.searchType,
		"k":           r.defaultK,
		"store_size":  r.store.Len(),
		"generation":  r.store.Generation(),
	}
}
