// Package memory is the service facade over the storage, search, and
// cache layers: the validated write path and the hybrid read path.
package memory

import (
	"crypto/sha256"
	"fmt"
	"log/slog"
	"time"

	"github.com/iammorganparry/recall/internal/cache"
	"github.com/iammorganparry/recall/internal/models"
	"github.com/iammorganparry/recall/internal/search"
	"github.com/iammorganparry/recall/internal/store"
	"github.com/iammorganparry/recall/internal/vector"
)

// DefaultK is the result count used when a search request leaves k unset.
const DefaultK = 8

// Service coordinates memory operations. All calls are synchronous and
// caller-driven; there are no background workers, and callers own their
// own request-level timeouts.
type Service struct {
	projects   *store.ProjectStore
	memories   *store.MemoryStore
	fts        *store.FTSStore
	embeddings *store.EmbeddingStore
	cache      cache.SearchCache
	logger     *slog.Logger
}

func NewService(
	projects *store.ProjectStore,
	memories *store.MemoryStore,
	fts *store.FTSStore,
	embeddings *store.EmbeddingStore,
	searchCache cache.SearchCache,
	logger *slog.Logger,
) *Service {
	return &Service{
		projects:   projects,
		memories:   memories,
		fts:        fts,
		embeddings: embeddings,
		cache:      searchCache,
		logger:     logger,
	}
}

// Store validates a fact payload, persists it and its optional embedding
// atomically, and invalidates the project's cached search results. The
// write is all-or-nothing; the cache invalidation is best-effort and its
// failure never fails the write.
func (s *Service) Store(req *models.StoreRequest) (int64, error) {
	if verr := ValidatePayload(req); verr != nil {
		return 0, verr
	}

	now := time.Now().Unix()
	mem := &models.Memory{
		ProjectID:  req.ProjectID,
		Kind:       req.Kind,
		Source:     req.Source,
		Author:     req.Author,
		Title:      req.Title,
		Body:       req.Body,
		Tags:       req.Tags,
		Importance: req.Importance,
		Pinned:     req.Pinned,
		CreatedAt:  now,
		UpdatedAt:  now,
		ExpiresAt:  req.ExpiresAt,
	}

	id, err := s.memories.Create(mem, req.Vector)
	if err != nil {
		return 0, err
	}

	s.invalidate(req.ProjectID)
	return id, nil
}

// Search returns the top-k most relevant, non-expired records for a
// project, blending lexical and semantic relevance with editorial priors.
// The query text is passed to the index verbatim; callers must escape raw
// user input (store.EscapeMatch) or accept QuerySyntaxError on malformed
// expressions.
func (s *Service) Search(req *models.SearchRequest) (*models.SearchResponse, error) {
	start := time.Now()

	if req.K <= 0 {
		verr := &models.ValidationError{}
		verr.Add("k", "must be positive")
		return nil, verr
	}
	if req.ProjectID <= 0 {
		verr := &models.ValidationError{}
		verr.Add("projectId", "must be a positive project id")
		return nil, verr
	}

	ns := namespace(req.ProjectID)
	key := cacheKey(req)
	if page, ok := s.cache.Get(ns, key); ok {
		// Write invalidation cannot catch rows whose expiry passed while
		// the entry sat in the cache: expiry is a clock event, not a
		// write. Re-check against the clock before serving.
		results := dropExpired(page.Results, time.Now().Unix())
		return searchResponse(results, page.Candidates, true, page.Reranked, start), nil
	}

	candidates, err := s.fts.Candidates(req.ProjectID, req.Query, store.CandidateLimit(req.K))
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		s.cache.Set(ns, key, models.SearchPage{Results: []models.SearchResult{}})
		return searchResponse([]models.SearchResult{}, 0, false, false, start), nil
	}

	// Vector rescoring only touches embeddings of actual candidates;
	// without a query vector every cosine term is 0 and the ranking
	// reduces to the lexical score plus the editorial priors.
	var embeddings map[int64][]float32
	reranked := false
	if len(req.QueryVector) > 0 {
		ids := make([]int64, len(candidates))
		for i, c := range candidates {
			ids[i] = c.ID
		}
		embeddings, err = s.embeddings.GetForMemories(ids)
		if err != nil {
			return nil, err
		}
		reranked = true
	}

	ranked := search.Rerank(candidates, req.QueryVector, embeddings, req.K)

	results, err := s.hydrate(ranked)
	if err != nil {
		return nil, err
	}

	s.cache.Set(ns, key, models.SearchPage{
		Results:    results,
		Candidates: len(candidates),
		Reranked:   reranked,
	})
	return searchResponse(results, len(candidates), false, reranked, start), nil
}

// dropExpired copies the still-live rows out of a cached result set.
// The cached slice itself is never mutated.
func dropExpired(results []models.SearchResult, now int64) []models.SearchResult {
	kept := make([]models.SearchResult, 0, len(results))
	for _, r := range results {
		if r.Expired(now) {
			continue
		}
		kept = append(kept, r)
	}
	return kept
}

// hydrate reloads full field sets for the winning ids and re-orders the
// rows to the fusion rank, since bulk IN lookups do not preserve order.
func (s *Service) hydrate(ranked []search.Scored) ([]models.SearchResult, error) {
	ids := make([]int64, len(ranked))
	for i, r := range ranked {
		ids[i] = r.ID
	}

	rows, err := s.memories.GetByIDs(ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]*models.Memory, len(rows))
	for _, m := range rows {
		byID[m.ID] = m
	}

	results := make([]models.SearchResult, 0, len(ranked))
	for _, r := range ranked {
		m, ok := byID[r.ID]
		if !ok {
			// Row deleted between candidate generation and hydration.
			continue
		}
		results = append(results, models.SearchResult{
			ID:         m.ID,
			Kind:       m.Kind,
			Title:      m.Title,
			Body:       m.Body,
			Tags:       m.Tags,
			Importance: m.Importance,
			Pinned:     m.Pinned,
			CreatedAt:  m.CreatedAt,
			ExpiresAt:  m.ExpiresAt,
			Score:      r.Final,
		})
	}
	return results, nil
}

// CreateProject registers a new project workspace.
func (s *Service) CreateProject(req *models.CreateProjectRequest) (int64, error) {
	verr := &models.ValidationError{}
	if req.Code == "" {
		verr.Add("code", "is required")
	}
	if req.Name == "" {
		verr.Add("name", "is required")
	}
	if !verr.Empty() {
		return 0, verr
	}
	return s.projects.Create(req.Code, req.Name)
}

// GetProjectByCode returns a project, or nil if unknown.
func (s *Service) GetProjectByCode(code string) (*models.Project, error) {
	return s.projects.GetByCode(code)
}

// ListProjects returns all registered projects.
func (s *Service) ListProjects() ([]models.Project, error) {
	return s.projects.List()
}

// ProjectStats returns memory counts for a project.
func (s *Service) ProjectStats(projectID int64) (*models.ProjectStats, error) {
	return s.projects.Stats(projectID)
}

// GetByID retrieves a memory by id.
func (s *Service) GetByID(id int64) (*models.Memory, error) {
	return s.memories.GetByID(id)
}

// Update applies partial updates to a memory; the shadow index re-syncs
// inside the storage transaction, then cached results are invalidated.
func (s *Service) Update(id int64, req *models.UpdateRequest) (*models.Memory, error) {
	if req.Importance != nil && (*req.Importance < 0 || *req.Importance > 1) {
		verr := &models.ValidationError{}
		verr.Add("importance", "must be within [0, 1]")
		return nil, verr
	}
	if req.Kind != nil && !req.Kind.IsValid() {
		verr := &models.ValidationError{}
		verr.Add("kind", fmt.Sprintf("unknown kind %q", *req.Kind))
		return nil, verr
	}

	mem, err := s.memories.Update(id, req)
	if err != nil {
		return nil, err
	}
	s.invalidate(mem.ProjectID)
	return mem, nil
}

// Delete removes a memory, cascading to its embedding and shadow entry.
func (s *Service) Delete(id int64) error {
	mem, err := s.memories.GetByID(id)
	if err != nil {
		return err
	}
	if mem == nil {
		return fmt.Errorf("memory not found: %d", id)
	}
	if err := s.memories.Delete(id); err != nil {
		return err
	}
	s.invalidate(mem.ProjectID)
	return nil
}

// List returns a paginated list of a project's memories.
func (s *Service) List(req *models.ListRequest) (*models.ListResponse, error) {
	memories, total, err := s.memories.List(req)
	if err != nil {
		return nil, fmt.Errorf("list memories: %w", err)
	}

	limit := req.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	totalPages := total / limit
	if total%limit != 0 {
		totalPages++
	}
	page := req.Page
	if page < 1 {
		page = 1
	}

	return &models.ListResponse{
		Memories: memories,
		Pagination: models.Pagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: totalPages,
		},
	}, nil
}

// PurgeExpired deletes memories whose expiry has passed, project-wide.
func (s *Service) PurgeExpired() (int64, error) {
	return s.memories.PurgeExpired()
}

// invalidate drops every cached search result under the project's
// namespace. Deliberately coarse: deciding which cached queries a new
// fact could affect would mean re-executing every one of them. Failures
// degrade to temporarily stale reads, never data loss.
func (s *Service) invalidate(projectID int64) {
	if err := s.cache.Invalidate(namespace(projectID)); err != nil {
		s.logger.Warn("cache invalidation failed",
			"project_id", projectID,
			"error", err,
		)
	}
}

func namespace(projectID int64) string {
	return fmt.Sprintf("project:%d", projectID)
}

// cacheKey fingerprints a search request. The project version counter is
// handled by the cache itself, so only query shape goes into the key.
func cacheKey(req *models.SearchRequest) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%d|", req.Query, req.K)
	if len(req.QueryVector) > 0 {
		h.Write(vector.Encode(req.QueryVector))
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}

func searchResponse(results []models.SearchResult, candidates int, cached, reranked bool, start time.Time) *models.SearchResponse {
	return &models.SearchResponse{
		Results: results,
		Meta: models.SearchMeta{
			TotalResults: len(results),
			Candidates:   candidates,
			Reranked:     reranked,
			Cached:       cached,
			SearchTimeMs: int(time.Since(start).Milliseconds()),
		},
	}
}
