package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iammorganparry/recall/internal/models"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func createTestProject(t *testing.T, db *DB) int64 {
	t.Helper()
	id, err := NewProjectStore(db).Create("test-project", "Test Project")
	require.NoError(t, err)
	return id
}

func testMemory(projectID int64) *models.Memory {
	now := time.Now().Unix()
	return &models.Memory{
		ProjectID:  projectID,
		Kind:       models.KindNote,
		Title:      "connection pooling",
		Body:       "use a single writer connection for sqlite",
		Tags:       []string{"db", "perf"},
		Importance: 0.5,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func TestMemoryRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	projectID := createTestProject(t, db)
	memories := NewMemoryStore(db)

	tokens := int64(42)
	expires := time.Now().Add(time.Hour).Unix()
	m := testMemory(projectID)
	m.Source = "cli"
	m.Author = "morgan"
	m.Tokens = &tokens
	m.Pinned = true
	m.ExpiresAt = &expires

	id, err := memories.Create(m, nil)
	require.NoError(t, err)
	require.Greater(t, id, int64(0))

	got, err := memories.GetByID(id)
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, m.ProjectID, got.ProjectID)
	assert.Equal(t, models.KindNote, got.Kind)
	assert.Equal(t, "cli", got.Source)
	assert.Equal(t, "morgan", got.Author)
	assert.Equal(t, m.Title, got.Title)
	assert.Equal(t, m.Body, got.Body)
	assert.Equal(t, []string{"db", "perf"}, got.Tags)
	require.NotNil(t, got.Tokens)
	assert.Equal(t, tokens, *got.Tokens)
	assert.Equal(t, 0.5, got.Importance)
	assert.True(t, got.Pinned)
	require.NotNil(t, got.ExpiresAt)
	assert.Equal(t, expires, *got.ExpiresAt)
}

func TestGetByIDNotFound(t *testing.T) {
	db := setupTestDB(t)
	got, err := NewMemoryStore(db).GetByID(999)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestShadowIndexConsistency(t *testing.T) {
	db := setupTestDB(t)
	projectID := createTestProject(t, db)
	memories := NewMemoryStore(db)
	fts := NewFTSStore(db)

	m := testMemory(projectID)
	m.Title = "websocket reconnect"
	m.Body = "exponential backoff with jitter"
	id, err := memories.Create(m, nil)
	require.NoError(t, err)

	// Insert: indexed immediately.
	hits, err := fts.Candidates(projectID, `"backoff"`, 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, id, hits[0].ID)

	// Update: old text drops out, new text matches.
	newBody := "fixed retry interval of five seconds"
	_, err = memories.Update(id, &models.UpdateRequest{Body: &newBody})
	require.NoError(t, err)

	hits, err = fts.Candidates(projectID, `"backoff"`, 10)
	require.NoError(t, err)
	assert.Empty(t, hits)

	hits, err = fts.Candidates(projectID, `"retry"`, 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, id, hits[0].ID)

	// Delete: shadow entry removed.
	require.NoError(t, memories.Delete(id))
	hits, err = fts.Candidates(projectID, `"retry"`, 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestCandidatesExcludeExpired(t *testing.T) {
	db := setupTestDB(t)
	projectID := createTestProject(t, db)
	memories := NewMemoryStore(db)
	fts := NewFTSStore(db)

	past := time.Now().Add(-time.Hour).Unix()
	expired := testMemory(projectID)
	expired.Body = "stale deploy checklist"
	expired.ExpiresAt = &past
	_, err := memories.Create(expired, nil)
	require.NoError(t, err)

	live := testMemory(projectID)
	live.Body = "current deploy checklist"
	liveID, err := memories.Create(live, nil)
	require.NoError(t, err)

	hits, err := fts.Candidates(projectID, `"deploy"`, 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, liveID, hits[0].ID)
}

func TestCandidatesScopedToProject(t *testing.T) {
	db := setupTestDB(t)
	projects := NewProjectStore(db)
	memories := NewMemoryStore(db)
	fts := NewFTSStore(db)

	p1, err := projects.Create("alpha", "Alpha")
	require.NoError(t, err)
	p2, err := projects.Create("beta", "Beta")
	require.NoError(t, err)

	m1 := testMemory(p1)
	m1.Body = "shared migration plan"
	id1, err := memories.Create(m1, nil)
	require.NoError(t, err)

	m2 := testMemory(p2)
	m2.Body = "shared migration plan"
	_, err = memories.Create(m2, nil)
	require.NoError(t, err)

	hits, err := fts.Candidates(p1, `"migration"`, 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, id1, hits[0].ID)
}

func TestBM25NormBounds(t *testing.T) {
	db := setupTestDB(t)
	projectID := createTestProject(t, db)
	memories := NewMemoryStore(db)
	fts := NewFTSStore(db)

	bodies := []string{
		"token bucket rate limiting",
		"rate limiting with sliding windows and per-client buckets",
		"notes on limiting request rate at the edge proxy layer with more surrounding text",
	}
	for _, b := range bodies {
		m := testMemory(projectID)
		m.Body = b
		_, err := memories.Create(m, nil)
		require.NoError(t, err)
	}

	hits, err := fts.Candidates(projectID, `"rate" "limiting"`, 10)
	require.NoError(t, err)
	require.Len(t, hits, 3)
	for _, h := range hits {
		assert.Greater(t, h.BM25Norm, 0.0)
		assert.LessOrEqual(t, h.BM25Norm, 1.0)
	}
	// FTS returns best match first; the normalization must preserve that order.
	assert.GreaterOrEqual(t, hits[0].BM25Norm, hits[1].BM25Norm)
	assert.GreaterOrEqual(t, hits[1].BM25Norm, hits[2].BM25Norm)
}

func TestCandidatesQuerySyntaxError(t *testing.T) {
	db := setupTestDB(t)
	projectID := createTestProject(t, db)

	_, err := NewFTSStore(db).Candidates(projectID, `"unclosed`, 10)
	require.Error(t, err)

	var qse *models.QuerySyntaxError
	require.ErrorAs(t, err, &qse)
	assert.Equal(t, `"unclosed`, qse.Query)
}

func TestEmbeddingRoundTripAndCascade(t *testing.T) {
	db := setupTestDB(t)
	projectID := createTestProject(t, db)
	memories := NewMemoryStore(db)
	embeddings := NewEmbeddingStore(db)

	vec := []float32{0.1, 0.2, 0.3, 0.4}
	id, err := memories.Create(testMemory(projectID), vec)
	require.NoError(t, err)

	got, err := embeddings.GetForMemories([]int64{id})
	require.NoError(t, err)
	require.Contains(t, got, id)
	assert.Equal(t, vec, got[id])

	require.NoError(t, memories.Delete(id))

	got, err = embeddings.GetForMemories([]int64{id})
	require.NoError(t, err)
	assert.NotContains(t, got, id)
}

func TestCreateForeignKeyViolation(t *testing.T) {
	db := setupTestDB(t)

	_, err := NewMemoryStore(db).Create(testMemory(9999), nil)
	require.Error(t, err)

	var se *models.StorageError
	require.ErrorAs(t, err, &se)
	assert.False(t, se.Retryable)
}

func TestDuplicateProjectCode(t *testing.T) {
	db := setupTestDB(t)
	projects := NewProjectStore(db)

	_, err := projects.Create("dup", "First")
	require.NoError(t, err)

	_, err = projects.Create("dup", "Second")
	require.Error(t, err)

	var se *models.StorageError
	require.ErrorAs(t, err, &se)
	assert.False(t, se.Retryable)
}

func TestUpdateNotFound(t *testing.T) {
	db := setupTestDB(t)
	title := "new"
	_, err := NewMemoryStore(db).Update(12345, &models.UpdateRequest{Title: &title})
	require.Error(t, err)
}

func TestPurgeExpired(t *testing.T) {
	db := setupTestDB(t)
	projectID := createTestProject(t, db)
	memories := NewMemoryStore(db)

	past := time.Now().Add(-time.Minute).Unix()
	future := time.Now().Add(time.Hour).Unix()

	old := testMemory(projectID)
	old.ExpiresAt = &past
	oldID, err := memories.Create(old, nil)
	require.NoError(t, err)

	fresh := testMemory(projectID)
	fresh.ExpiresAt = &future
	freshID, err := memories.Create(fresh, nil)
	require.NoError(t, err)

	forever := testMemory(projectID)
	foreverID, err := memories.Create(forever, nil)
	require.NoError(t, err)

	n, err := memories.PurgeExpired()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := memories.GetByID(oldID)
	require.NoError(t, err)
	assert.Nil(t, got)
	for _, id := range []int64{freshID, foreverID} {
		got, err := memories.GetByID(id)
		require.NoError(t, err)
		assert.NotNil(t, got)
	}
}

func TestListFiltersAndPagination(t *testing.T) {
	db := setupTestDB(t)
	projectID := createTestProject(t, db)
	memories := NewMemoryStore(db)

	for i := 0; i < 5; i++ {
		m := testMemory(projectID)
		m.CreatedAt = int64(1000 + i)
		m.UpdatedAt = m.CreatedAt
		if i%2 == 0 {
			m.Kind = models.KindDecision
			m.Pinned = true
		}
		_, err := memories.Create(m, nil)
		require.NoError(t, err)
	}

	results, total, err := memories.List(&models.ListRequest{
		ProjectID: projectID, Kind: models.KindDecision,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, results, 3)

	pinned := true
	results, total, err = memories.List(&models.ListRequest{
		ProjectID: projectID, Pinned: &pinned,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	for _, m := range results {
		assert.True(t, m.Pinned)
	}

	results, total, err = memories.List(&models.ListRequest{
		ProjectID: projectID, Limit: 2, Page: 2, Sort: "created_at", Order: "asc",
	})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, results, 2)
	assert.Equal(t, int64(1002), results[0].CreatedAt)
}

func TestProjectStats(t *testing.T) {
	db := setupTestDB(t)
	projects := NewProjectStore(db)
	memories := NewMemoryStore(db)
	projectID := createTestProject(t, db)

	for _, kind := range []models.Kind{models.KindNote, models.KindNote, models.KindSnippet} {
		m := testMemory(projectID)
		m.Kind = kind
		m.Pinned = kind == models.KindSnippet
		_, err := memories.Create(m, nil)
		require.NoError(t, err)
	}

	stats, err := projects.Stats(projectID)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalMemories)
	assert.Equal(t, 1, stats.PinnedCount)
	assert.Equal(t, 2, stats.ByKind[string(models.KindNote)])
	assert.Equal(t, 1, stats.ByKind[string(models.KindSnippet)])
}

func TestNormalizeRank(t *testing.T) {
	// rank 0 (weakest conceivable match) stays strictly positive but near 0.
	weak := normalizeRank(0)
	assert.Greater(t, weak, 0.0)
	assert.Less(t, weak, 0.01)

	// Stronger (more negative) ranks map monotonically toward 1.
	mid := normalizeRank(-1)
	strong := normalizeRank(-20)
	assert.Greater(t, mid, weak)
	assert.Greater(t, strong, mid)
	assert.LessOrEqual(t, strong, 1.0)
	assert.InDelta(t, 0.5, mid, 0.01)

	// A positive rank is clamped, never mapped above a true zero-strength one.
	assert.Equal(t, weak, normalizeRank(5))
}

func TestCandidateLimit(t *testing.T) {
	assert.Equal(t, 150, CandidateLimit(1))
	assert.Equal(t, 150, CandidateLimit(7))
	assert.Equal(t, 160, CandidateLimit(8))
	assert.Equal(t, 2000, CandidateLimit(100))
}

func TestEscapeMatch(t *testing.T) {
	assert.Equal(t, `"rate" "limiter"`, EscapeMatch("rate limiter"))
	assert.Equal(t, `"don""t"`, EscapeMatch(`don"t`))
	assert.Equal(t, "", EscapeMatch("   "))
	// Operator words become plain terms once quoted.
	assert.Equal(t, `"a" "AND" "b"`, EscapeMatch("a AND b"))
}
