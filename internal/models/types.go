package models

// StoreRequest is the payload for POST /memories. Vector is the optional
// pre-computed embedding for the fact; this engine never generates one.
type StoreRequest struct {
	ProjectID  int64     `json:"projectId"`
	Kind       Kind      `json:"kind"`
	Source     string    `json:"source,omitempty"`
	Author     string    `json:"author,omitempty"`
	Title      string    `json:"title"`
	Body       string    `json:"body"`
	Tags       []string  `json:"tags,omitempty"`
	Importance float64   `json:"importance"`
	Pinned     bool      `json:"pinned"`
	ExpiresAt  *int64    `json:"expiresAt,omitempty"`
	Vector     []float32 `json:"vector,omitempty"`
}

// StoreResponse is returned from POST /memories.
type StoreResponse struct {
	ID int64 `json:"id"`
}

// SearchRequest is the payload for POST /memories/search. QueryVector is
// optional; without it the search degrades to lexical-only ranking.
type SearchRequest struct {
	ProjectID   int64     `json:"projectId"`
	Query       string    `json:"query"`
	QueryVector []float32 `json:"queryVector,omitempty"`
	K           int       `json:"k"`
}

// SearchResult is a single hydrated, ranked result. ExpiresAt rides along
// so cached result sets can be re-checked against the clock on read.
type SearchResult struct {
	ID         int64    `json:"id"`
	Kind       Kind     `json:"kind"`
	Title      string   `json:"title"`
	Body       string   `json:"body"`
	Tags       []string `json:"tags,omitempty"`
	Importance float64  `json:"importance"`
	Pinned     bool     `json:"pinned"`
	CreatedAt  int64    `json:"createdAt"`
	ExpiresAt  *int64   `json:"expiresAt,omitempty"`
	Score      float64  `json:"score"`
}

// Expired reports whether the result's expiry, if set, is at or before now.
func (r *SearchResult) Expired(now int64) bool {
	return r.ExpiresAt != nil && *r.ExpiresAt <= now
}

// SearchPage is a cacheable search outcome: the ranked results together
// with the pipeline facts they were computed from, so a cache hit can
// report the same metadata as the original execution.
type SearchPage struct {
	Results    []SearchResult
	Candidates int
	Reranked   bool
}

// SearchResponse is returned from POST /memories/search.
type SearchResponse struct {
	Results []SearchResult `json:"results"`
	Meta    SearchMeta     `json:"meta"`
}

type SearchMeta struct {
	TotalResults int  `json:"totalResults"`
	Candidates   int  `json:"candidates"`
	Reranked     bool `json:"reranked"`
	Cached       bool `json:"cached"`
	SearchTimeMs int  `json:"searchTimeMs"`
}

// UpdateRequest is the payload for PATCH /memories/{id}. Nil fields are
// left untouched; text changes re-sync the shadow index via the storage
// layer's triggers.
type UpdateRequest struct {
	Kind       *Kind     `json:"kind,omitempty"`
	Title      *string   `json:"title,omitempty"`
	Body       *string   `json:"body,omitempty"`
	Tags       *[]string `json:"tags,omitempty"`
	Importance *float64  `json:"importance,omitempty"`
	Pinned     *bool     `json:"pinned,omitempty"`
	ExpiresAt  *int64    `json:"expiresAt,omitempty"`
}

// CreateProjectRequest is the payload for POST /projects.
type CreateProjectRequest struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// ListRequest holds parsed query params for GET /memories.
// Sort whitelist: "created_at", "updated_at", "importance".
type ListRequest struct {
	ProjectID int64  `json:"projectId"`
	Kind      Kind   `json:"kind,omitempty"`
	Pinned    *bool  `json:"pinned,omitempty"`
	Page      int    `json:"page"`
	Limit     int    `json:"limit"`
	Sort      string `json:"sort"`
	Order     string `json:"order"`
}

// Pagination holds pagination metadata.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// ListResponse is returned from GET /memories.
type ListResponse struct {
	Memories   []*Memory  `json:"memories"`
	Pagination Pagination `json:"pagination"`
}

// HealthResponse is returned from GET /health.
type HealthResponse struct {
	Status      string `json:"status"`
	DB          string `json:"db"`
	MemoryCount int    `json:"memoryCount"`
}
