package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/iammorganparry/recall/internal/models"
)

// ProjectStore handles project registration and lookup.
type ProjectStore struct {
	db *DB
}

func NewProjectStore(db *DB) *ProjectStore {
	return &ProjectStore{db: db}
}

// Create registers a new project. The code must be unique; a duplicate
// aborts with a non-retryable StorageError.
func (s *ProjectStore) Create(code, name string) (int64, error) {
	res, err := s.db.Exec(`
		INSERT INTO projects (code, name, created_at)
		VALUES (?, ?, ?)
	`, code, name, time.Now().Unix())
	if err != nil {
		return 0, &models.StorageError{Op: "create project", Retryable: retryable(err), Err: err}
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("project insert id: %w", err)
	}
	return id, nil
}

// GetByID returns a project by id, or nil if not found.
func (s *ProjectStore) GetByID(id int64) (*models.Project, error) {
	return s.scan(s.db.QueryRow(`
		SELECT id, code, name, created_at FROM projects WHERE id = ?
	`, id))
}

// GetByCode returns a project by its unique code, or nil if not found.
func (s *ProjectStore) GetByCode(code string) (*models.Project, error) {
	return s.scan(s.db.QueryRow(`
		SELECT id, code, name, created_at FROM projects WHERE code = ?
	`, code))
}

// List returns all projects, newest first.
func (s *ProjectStore) List() ([]models.Project, error) {
	rows, err := s.db.Query(`
		SELECT id, code, name, created_at FROM projects ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []models.Project
	for rows.Next() {
		var p models.Project
		if err := rows.Scan(&p.ID, &p.Code, &p.Name, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// Stats returns per-kind memory counts for a project.
func (s *ProjectStore) Stats(projectID int64) (*models.ProjectStats, error) {
	p, err := s.GetByID(projectID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("project not found: %d", projectID)
	}

	stats := &models.ProjectStats{
		ProjectID:   p.ID,
		ProjectCode: p.Code,
		ByKind:      make(map[string]int),
	}

	err = s.db.QueryRow(`SELECT COUNT(*) FROM memories WHERE project_id = ?`, projectID).
		Scan(&stats.TotalMemories)
	if err != nil {
		return nil, fmt.Errorf("count memories: %w", err)
	}
	err = s.db.QueryRow(`SELECT COUNT(*) FROM memories WHERE project_id = ? AND pinned = 1`, projectID).
		Scan(&stats.PinnedCount)
	if err != nil {
		return nil, fmt.Errorf("count pinned: %w", err)
	}

	rows, err := s.db.Query(`
		SELECT kind, COUNT(*) FROM memories WHERE project_id = ? GROUP BY kind
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("count by kind: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var kind string
		var c int
		if err := rows.Scan(&kind, &c); err != nil {
			return nil, fmt.Errorf("scan kind count: %w", err)
		}
		stats.ByKind[kind] = c
	}
	return stats, rows.Err()
}

func (s *ProjectStore) scan(row *sql.Row) (*models.Project, error) {
	var p models.Project
	err := row.Scan(&p.ID, &p.Code, &p.Name, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	return &p, nil
}
