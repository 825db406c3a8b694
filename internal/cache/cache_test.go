package cache

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iammorganparry/recall/internal/models"
)

func page(ids ...int64) models.SearchPage {
	results := make([]models.SearchResult, len(ids))
	for i, id := range ids {
		results[i] = models.SearchResult{ID: id}
	}
	return models.SearchPage{Results: results, Candidates: len(ids)}
}

func TestGetSetRoundTrip(t *testing.T) {
	c, err := NewLRU(16)
	require.NoError(t, err)

	stored := models.SearchPage{
		Results:    []models.SearchResult{{ID: 1, Title: "a"}, {ID: 2, Title: "b"}},
		Candidates: 40,
		Reranked:   true,
	}
	c.Set("project:1", "query-key", stored)

	got, ok := c.Get("project:1", "query-key")
	require.True(t, ok)
	assert.Equal(t, stored, got)
}

func TestMissOnUnknownKey(t *testing.T) {
	c, err := NewLRU(16)
	require.NoError(t, err)

	_, ok := c.Get("project:1", "never-set")
	assert.False(t, ok)
}

func TestNamespaceIsolation(t *testing.T) {
	c, err := NewLRU(16)
	require.NoError(t, err)

	c.Set("project:1", "k", page(1))
	c.Set("project:2", "k", page(2))

	got, ok := c.Get("project:1", "k")
	require.True(t, ok)
	assert.Equal(t, int64(1), got.Results[0].ID)

	got, ok = c.Get("project:2", "k")
	require.True(t, ok)
	assert.Equal(t, int64(2), got.Results[0].ID)
}

func TestInvalidateDropsNamespaceOnly(t *testing.T) {
	c, err := NewLRU(16)
	require.NoError(t, err)

	c.Set("project:1", "k", page(1))
	c.Set("project:2", "k", page(2))

	require.NoError(t, c.Invalidate("project:1"))

	_, ok := c.Get("project:1", "k")
	assert.False(t, ok)
	_, ok = c.Get("project:2", "k")
	assert.True(t, ok)
}

func TestInvalidateIdempotent(t *testing.T) {
	c, err := NewLRU(16)
	require.NoError(t, err)

	require.NoError(t, c.Invalidate("project:1"))
	require.NoError(t, c.Invalidate("project:1"))
	require.NoError(t, c.Invalidate("project:1"))

	// Writes after invalidation land under the new version and are readable.
	c.Set("project:1", "k", page(7))
	got, ok := c.Get("project:1", "k")
	require.True(t, ok)
	assert.Equal(t, int64(7), got.Results[0].ID)
}

func TestEviction(t *testing.T) {
	c, err := NewLRU(2)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		c.Set("project:1", fmt.Sprintf("k%d", i), page(int64(i)))
	}

	// Only the two most recent entries survive.
	_, ok := c.Get("project:1", "k0")
	assert.False(t, ok)
	_, ok = c.Get("project:1", "k4")
	assert.True(t, ok)
}

func TestZeroSizeUsesDefault(t *testing.T) {
	c, err := NewLRU(0)
	require.NoError(t, err)

	c.Set("project:1", "k", page(1))
	_, ok := c.Get("project:1", "k")
	assert.True(t, ok)
}
