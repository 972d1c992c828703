// Package vectorstore provides example store implementations backed by
// memory, SQLite and MySQL. Vectors are held in memory for search; the
// SQL variants keep a durable copy loaded at startup and appended on
// every add.
package vectorstore

import (
	"math"
	"sort"

	"github.com/mikey/llm-compliance-filter/internal/core"
)

// bootstrapText seeds a fresh index so similarity search never runs
// against a literally empty index. The placeholder entry is excluded
// from every search result.
const bootstrapText = "initialization"

// indexEntry is one stored record with its embedding vector
type indexEntry struct {
	record      core.ExampleRecord
	vector      []float32
	placeholder bool
}

// cosineSimilarity computes the cosine of the angle between two
// vectors; zero-magnitude or mismatched vectors score 0
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// searchIndex ranks real entries by similarity to the query vector,
// nearest first, and returns at most k
func searchIndex(entries []indexEntry, queryVector []float32, k int) []core.ScoredExample {
	scored := make([]core.ScoredExample, 0, len(entries))
	for _, entry := range entries {
		if entry.placeholder {
			continue
		}
		scored = append(scored, core.ScoredExample{
			Record:     entry.record,
			Similarity: cosineSimilarity(queryVector, entry.vector),
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Similarity > scored[j].Similarity
	})

	if len(scored) > k {
		scored = scored[:k]
	}
	return scored
}

// countReal counts non-placeholder entries
func countReal(entries []indexEntry) int {
	count := 0
	for _, entry := range entries {
		if !entry.placeholder {
			count++
		}
	}
	return count
}
