package cluster

import (
	"math"
	"sort"

	"curator/internal/core"
)

// Confidence component weights. The formula balances topical tightness,
// publisher diversity, cluster size sanity and source trust:
//
//	confidence = 0.25·consistency + 0.10·(1−entropy) + size_score + 0.35·avg_authority
const (
	consistencyWeight = 0.25
	diversityWeight   = 0.10
	authorityWeight   = 0.35

	sizeScoreNominal = 0.30 // size in [2,10]
	sizeScoreTiny    = 0.15 // size < 2
)

// CosineSimilarity computes the cosine similarity of two vectors. Empty or
// mismatched vectors yield 0, never an error: enrichment failures leave
// items with empty embeddings and those must read as zero-similarity.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// semanticConsistency is the mean pairwise cosine similarity across all
// item-embedding pairs, 0 for clusters smaller than two items.
func semanticConsistency(items []core.EnrichedItem) float64 {
	if len(items) < 2 {
		return 0
	}

	var sum float64
	var pairs int
	for i := 0; i < len(items); i++ {
		for j := i + 1; j < len(items); j++ {
			sum += CosineSimilarity(items[i].SummaryEmbedding, items[j].SummaryEmbedding)
			pairs++
		}
	}
	return sum / float64(pairs)
}

// topicEntropy is the Shannon entropy of the publisher-frequency
// distribution, normalized to [0,1] by log2 of the unique publisher count.
// Defined as 0 when only one publisher is present.
func topicEntropy(items []core.EnrichedItem) float64 {
	counts := publisherCounts(items)
	if len(counts) <= 1 {
		return 0
	}

	total := float64(len(items))
	var entropy float64
	for _, count := range counts {
		p := float64(count) / total
		entropy -= p * math.Log2(p)
	}

	normalized := entropy / math.Log2(float64(len(counts)))
	return math.Min(1, math.Max(0, normalized))
}

// sizeScore rewards clusters in the sweet spot of 2-10 items and decays
// hyperbolically beyond it.
func sizeScore(size int) float64 {
	switch {
	case size >= 2 && size <= 10:
		return sizeScoreNominal
	case size > 10:
		return sizeScoreNominal * (10.0 / float64(size))
	default:
		return sizeScoreTiny
	}
}

// avgAuthority is the mean RSS-declared source authority across items.
func avgAuthority(items []core.EnrichedItem) float64 {
	if len(items) == 0 {
		return 0
	}
	var sum float64
	for _, it := range items {
		sum += it.Source.Authority
	}
	return sum / float64(len(items))
}

// confidence combines the four weighted components. Deterministic given
// identical items and embeddings.
func confidence(consistency, entropy float64, size int, authority float64) float64 {
	score := consistencyWeight*consistency +
		diversityWeight*(1-entropy) +
		sizeScore(size) +
		authorityWeight*authority
	return math.Min(1, math.Max(0, score))
}

// publisherCounts tallies items per publisher.
func publisherCounts(items []core.EnrichedItem) map[string]int {
	counts := make(map[string]int, len(items))
	for _, it := range items {
		counts[it.Source.Publisher]++
	}
	return counts
}

// uniquePublishers returns the distinct publishers, sorted.
func uniquePublishers(items []core.EnrichedItem) []string {
	counts := publisherCounts(items)
	publishers := make([]string, 0, len(counts))
	for p := range counts {
		publishers = append(publishers, p)
	}
	sort.Strings(publishers)
	return publishers
}
