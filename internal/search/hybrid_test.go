package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iammorganparry/recall/internal/store"
)

func TestFusionMonotonicity(t *testing.T) {
	// Equal lexical, importance, and pinned terms: the candidate with the
	// higher cosine similarity must rank strictly higher.
	candidates := []store.Candidate{
		{ID: 1, BM25Norm: 0.8, Importance: 0.5},
		{ID: 2, BM25Norm: 0.8, Importance: 0.5},
	}
	queryVec := []float32{1.0, 0.0}
	embeddings := map[int64][]float32{
		1: {0.7, 0.7},  // ~45 degrees off
		2: {1.0, 0.05}, // near-identical direction
	}

	ranked := Rerank(candidates, queryVec, embeddings, 2)
	require.Len(t, ranked, 2)
	assert.Equal(t, int64(2), ranked[0].ID)
	assert.Greater(t, ranked[0].Final, ranked[1].Final)
}

func TestPinnedDeterminism(t *testing.T) {
	// Identically-scored candidates except for pinned: the pinned one
	// ranks strictly above, even though its id would lose the tie-break.
	candidates := []store.Candidate{
		{ID: 1, BM25Norm: 0.5, Importance: 0.3, Pinned: false},
		{ID: 2, BM25Norm: 0.5, Importance: 0.3, Pinned: true},
	}

	ranked := Rerank(candidates, nil, nil, 2)
	require.Len(t, ranked, 2)
	assert.Equal(t, int64(2), ranked[0].ID)
	assert.Greater(t, ranked[0].Final, ranked[1].Final)
}

func TestMissingEmbeddingScoresZero(t *testing.T) {
	candidates := []store.Candidate{
		{ID: 1, BM25Norm: 0.4},
		{ID: 2, BM25Norm: 0.4},
	}
	queryVec := []float32{1.0, 0.0}
	embeddings := map[int64][]float32{2: {1.0, 0.0}}

	ranked := Rerank(candidates, queryVec, embeddings, 2)
	require.Len(t, ranked, 2)
	assert.Equal(t, int64(2), ranked[0].ID)
	assert.Equal(t, 0.0, ranked[1].Cosine)
}

func TestTieBreakOnID(t *testing.T) {
	candidates := []store.Candidate{
		{ID: 9, BM25Norm: 0.5},
		{ID: 3, BM25Norm: 0.5},
		{ID: 7, BM25Norm: 0.5},
	}

	ranked := Rerank(candidates, nil, nil, 3)
	require.Len(t, ranked, 3)
	assert.Equal(t, int64(3), ranked[0].ID)
	assert.Equal(t, int64(7), ranked[1].ID)
	assert.Equal(t, int64(9), ranked[2].ID)
}

func TestRerankTruncatesToK(t *testing.T) {
	candidates := make([]store.Candidate, 10)
	for i := range candidates {
		candidates[i] = store.Candidate{ID: int64(i + 1), BM25Norm: float64(i) / 10}
	}

	ranked := Rerank(candidates, nil, nil, 3)
	assert.Len(t, ranked, 3)
}

func TestFuseWeights(t *testing.T) {
	score := Fuse(1.0, 1.0, 1.0, true)
	assert.InDelta(t, 1.05, score, 1e-9)

	unpinned := Fuse(0.5, 0.5, 0.5, false)
	pinned := Fuse(0.5, 0.5, 0.5, true)
	assert.InDelta(t, PinnedBoost, pinned-unpinned, 1e-9)
}
