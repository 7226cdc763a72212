// Package vectorstore holds ranking helpers shared by the brute-force stores.
package vectorstore

import (
	"sort"

	"studymate/internal/domain"
)

// DefaultTopK is used when a caller asks for a non-positive number of results.
const DefaultTopK = 5

// Dot returns the dot product of a and b over their common length. For
// L2-normalized vectors it equals cosine similarity.
func Dot(a, b []float64) float64 {
	n := min(len(a), len(b))
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}

// TopK scores every vector against query and returns the best topK chunks in
// descending score order. Ties keep insertion order.
func TopK(chunks []domain.Chunk, vectors [][]float64, query []float64, topK int) []domain.SearchResult {
	if topK <= 0 {
		topK = DefaultTopK
	}
	results := make([]domain.SearchResult, len(vectors))
	for i := range vectors {
		results[i] = domain.SearchResult{Chunk: chunks[i], Score: Dot(vectors[i], query)}
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if topK < len(results) {
		results = results[:topK]
	}
	return results
}
