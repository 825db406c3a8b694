package models

// Project is a logical workspace that owns memories. Created once and
// immutable afterwards except by explicit admin operation.
type Project struct {
	ID        int64  `json:"id"`
	Code      string `json:"code"`
	Name      string `json:"name"`
	CreatedAt int64  `json:"createdAt"`
}

// Memory is the core domain entity stored in SQLite. The row id is
// assigned on insert and never reused or mutated.
type Memory struct {
	ID         int64    `json:"id"`
	ProjectID  int64    `json:"projectId"`
	Kind       Kind     `json:"kind"`
	Source     string   `json:"source,omitempty"`
	Author     string   `json:"author,omitempty"`
	Title      string   `json:"title"`
	Body       string   `json:"body"`
	Tags       []string `json:"tags,omitempty"`
	Tokens     *int64   `json:"tokens,omitempty"`
	Importance float64  `json:"importance"`
	Pinned     bool     `json:"pinned"`
	CreatedAt  int64    `json:"createdAt"`
	UpdatedAt  int64    `json:"updatedAt"`
	ExpiresAt  *int64   `json:"expiresAt,omitempty"`
}

// Expired reports whether the memory's expiry, if set, is at or before now.
func (m *Memory) Expired(now int64) bool {
	return m.ExpiresAt != nil && *m.ExpiresAt <= now
}

// ProjectStats is returned from GET /projects/{code}/stats.
type ProjectStats struct {
	ProjectID     int64          `json:"projectId"`
	ProjectCode   string         `json:"projectCode"`
	TotalMemories int            `json:"totalMemories"`
	PinnedCount   int            `json:"pinnedCount"`
	ByKind        map[string]int `json:"byKind"`
}
