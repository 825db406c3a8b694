// Package search implements the second stage of the retrieve-then-rerank
// pipeline: cosine rescoring of FTS candidates and weighted fusion.
package search

import (
	"sort"

	"github.com/iammorganparry/recall/internal/store"
	"github.com/iammorganparry/recall/internal/vector"
)

// Fusion weights. Semantic similarity is the primary signal when present;
// the lexical score corrects for exact and rare-term matches embeddings
// under-weight; importance is a slow-moving editorial prior; the pinned
// boost is a small deterministic tie-break, never large enough to override
// a genuine relevance gap.
const (
	WeightCosine     = 0.6
	WeightBM25       = 0.3
	WeightImportance = 0.1
	PinnedBoost      = 0.05
)

// Scored is a fused, ranked candidate.
type Scored struct {
	ID       int64
	Cosine   float64
	BM25Norm float64
	Final    float64
}

// Rerank scores candidates against the query vector and fuses the signals
// into a final ranking, descending, truncated to k. Candidates with no
// stored embedding score 0 on the cosine term, as does every candidate of
// a lexical-only query. Ties break on id so identical inputs always
// produce identical output.
func Rerank(candidates []store.Candidate, queryVec []float32, embeddings map[int64][]float32, k int) []Scored {
	scored := make([]Scored, len(candidates))
	for i, c := range candidates {
		var cos float64
		if emb, ok := embeddings[c.ID]; ok {
			cos = vector.Cosine(queryVec, emb)
		}
		scored[i] = Scored{
			ID:       c.ID,
			Cosine:   cos,
			BM25Norm: c.BM25Norm,
			Final:    Fuse(cos, c.BM25Norm, c.Importance, c.Pinned),
		}
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Final != scored[j].Final {
			return scored[i].Final > scored[j].Final
		}
		return scored[i].ID < scored[j].ID
	})

	if len(scored) > k {
		scored = scored[:k]
	}
	return scored
}

// Fuse combines the independent relevance signals into one score.
func Fuse(cosine, bm25Norm, importance float64, pinned bool) float64 {
	score := WeightCosine*cosine + WeightBM25*bm25Norm + WeightImportance*importance
	if pinned {
		score += PinnedBoost
	}
	return score
}
