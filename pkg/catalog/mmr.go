package catalog

import (
	"math"

	"med-agent-be/internal/repository/contract"
	"med-agent-be/pkg/embedding"
)

// selectMMR picks k candidates by maximal marginal relevance: each step takes
// the candidate maximizing lambda*sim(query) - (1-lambda)*max sim(selected).
// Candidate order breaks ties.
func selectMMR(query []float32, candidates []*contract.ScoredCatalogDocument, k int, lambda float64) []*contract.ScoredCatalogDocument {
	if k <= 0 || len(candidates) == 0 {
		return nil
	}

	relevance := make([]float64, len(candidates))
	for i, c := range candidates {
		relevance[i] = embedding.Cosine(query, c.Embedding)
	}

	picked := make([]bool, len(candidates))
	// redundancy[i] is the max similarity of candidate i to anything selected
	redundancy := make([]float64, len(candidates))
	for i := range redundancy {
		redundancy[i] = math.Inf(-1)
	}

	out := make([]*contract.ScoredCatalogDocument, 0, k)
	for len(out) < k && len(out) < len(candidates) {
		best, bestScore := -1, math.Inf(-1)
		for i := range candidates {
			if picked[i] {
				continue
			}
			score := lambda * relevance[i]
			if len(out) > 0 {
				score -= (1 - lambda) * redundancy[i]
			}
			if score > bestScore {
				best, bestScore = i, score
			}
		}
		picked[best] = true
		out = append(out, candidates[best])

		for i := range candidates {
			if picked[i] {
				continue
			}
			if s := embedding.Cosine(candidates[best].Embedding, candidates[i].Embedding); s > redundancy[i] {
				redundancy[i] = s
			}
		}
	}
	return out
}
