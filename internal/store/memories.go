package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/iammorganparry/recall/internal/models"
	"github.com/iammorganparry/recall/internal/vector"
)

// memoryColumns is the canonical column list for all SELECT queries.
// Order must match scanOne/scanMany.
const memoryColumns = `id, project_id, kind, source, author, title, body, tags,
	tokens, importance, pinned, created_at, updated_at, expires_at`

// MemoryStore handles memory CRUD on SQLite. Every text mutation it makes
// is mirrored to the FTS shadow by the schema triggers, inside the same
// transaction as the base row.
type MemoryStore struct {
	db *DB
}

func NewMemoryStore(db *DB) *MemoryStore {
	return &MemoryStore{db: db}
}

// Create persists a new memory and its optional embedding in one
// transaction and returns the assigned id. The caller must have validated
// the payload; constraint and lock failures surface as StorageError with
// no partial state.
func (s *MemoryStore) Create(m *models.Memory, vec []float32) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, &models.StorageError{Op: "begin", Retryable: retryable(err), Err: err}
	}
	defer tx.Rollback()

	tagsJSON, _ := json.Marshal(m.Tags)
	res, err := tx.Exec(`
		INSERT INTO memories (
			project_id, kind, source, author, title, body, tags,
			tokens, importance, pinned, created_at, updated_at, expires_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		m.ProjectID, string(m.Kind), m.Source, m.Author, m.Title, m.Body,
		string(tagsJSON), m.Tokens, m.Importance, m.Pinned,
		m.CreatedAt, m.UpdatedAt, m.ExpiresAt,
	)
	if err != nil {
		return 0, &models.StorageError{Op: "insert memory", Retryable: retryable(err), Err: err}
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, &models.StorageError{Op: "insert memory id", Retryable: false, Err: err}
	}

	if len(vec) > 0 {
		if _, err := tx.Exec(`
			INSERT INTO embeddings (memory_id, dim, vector)
			VALUES (?, ?, ?)
			ON CONFLICT(memory_id) DO UPDATE SET
				dim = excluded.dim,
				vector = excluded.vector
		`, id, len(vec), vector.Encode(vec)); err != nil {
			return 0, &models.StorageError{Op: "upsert embedding", Retryable: retryable(err), Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, &models.StorageError{Op: "commit", Retryable: retryable(err), Err: err}
	}

	m.ID = id
	return id, nil
}

// GetByID fetches a single memory by id, or nil if not found.
func (s *MemoryStore) GetByID(id int64) (*models.Memory, error) {
	m, err := s.scanOne(s.db.QueryRow(
		fmt.Sprintf(`SELECT %s FROM memories WHERE id = ?`, memoryColumns), id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return m, err
}

// GetByIDs fetches multiple memories in one query. The database does not
// preserve the input order; callers that care must re-order the result.
func (s *MemoryStore) GetByIDs(ids []int64) ([]*models.Memory, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}
	rows, err := s.db.Query(
		fmt.Sprintf(`SELECT %s FROM memories WHERE id IN (%s)`,
			memoryColumns, strings.Join(placeholders, ",")), args...)
	if err != nil {
		return nil, fmt.Errorf("get by ids: %w", err)
	}
	defer rows.Close()
	return s.scanMany(rows)
}

// Update applies partial updates to a memory. Text changes re-sync the
// shadow index via the triggers, within the update's own transaction.
func (s *MemoryStore) Update(id int64, req *models.UpdateRequest) (*models.Memory, error) {
	sets := []string{"updated_at = ?"}
	args := []any{time.Now().Unix()}

	if req.Kind != nil {
		sets = append(sets, "kind = ?")
		args = append(args, string(*req.Kind))
	}
	if req.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *req.Title)
	}
	if req.Body != nil {
		sets = append(sets, "body = ?")
		args = append(args, *req.Body)
	}
	if req.Tags != nil {
		tagsJSON, _ := json.Marshal(*req.Tags)
		sets = append(sets, "tags = ?")
		args = append(args, string(tagsJSON))
	}
	if req.Importance != nil {
		sets = append(sets, "importance = ?")
		args = append(args, *req.Importance)
	}
	if req.Pinned != nil {
		sets = append(sets, "pinned = ?")
		args = append(args, *req.Pinned)
	}
	if req.ExpiresAt != nil {
		sets = append(sets, "expires_at = ?")
		args = append(args, *req.ExpiresAt)
	}

	args = append(args, id)
	query := fmt.Sprintf("UPDATE memories SET %s WHERE id = ?", strings.Join(sets, ", "))
	res, err := s.db.Exec(query, args...)
	if err != nil {
		return nil, &models.StorageError{Op: "update memory", Retryable: retryable(err), Err: err}
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return nil, fmt.Errorf("memory not found: %d", id)
	}

	return s.GetByID(id)
}

// Delete removes a memory. The embedding row cascades and the triggers
// drop the shadow entry in the same transaction.
func (s *MemoryStore) Delete(id int64) error {
	res, err := s.db.Exec("DELETE FROM memories WHERE id = ?", id)
	if err != nil {
		return &models.StorageError{Op: "delete memory", Retryable: retryable(err), Err: err}
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("memory not found: %d", id)
	}
	return nil
}

// PurgeExpired removes all memories whose expires_at has passed.
func (s *MemoryStore) PurgeExpired() (int64, error) {
	res, err := s.db.Exec(`
		DELETE FROM memories WHERE expires_at IS NOT NULL AND expires_at <= ?
	`, time.Now().Unix())
	if err != nil {
		return 0, &models.StorageError{Op: "purge expired", Retryable: retryable(err), Err: err}
	}
	return res.RowsAffected()
}

// List returns a paginated, filtered, sorted page of memories.
func (s *MemoryStore) List(req *models.ListRequest) ([]*models.Memory, int, error) {
	// Whitelist sort columns to prevent injection
	allowedSorts := map[string]string{
		"created_at": "created_at",
		"updated_at": "updated_at",
		"importance": "importance",
	}
	sortCol, ok := allowedSorts[req.Sort]
	if !ok {
		sortCol = "created_at"
	}

	order := "DESC"
	if req.Order == "asc" {
		order = "ASC"
	}

	conditions := []string{"project_id = ?"}
	args := []any{req.ProjectID}

	if req.Kind != "" {
		conditions = append(conditions, "kind = ?")
		args = append(args, string(req.Kind))
	}
	if req.Pinned != nil {
		conditions = append(conditions, "pinned = ?")
		args = append(args, *req.Pinned)
	}

	whereClause := "WHERE " + strings.Join(conditions, " AND ")

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM memories %s", whereClause)
	if err := s.db.QueryRow(countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count memories: %w", err)
	}

	limit := req.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	page := req.Page
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * limit

	selectQuery := fmt.Sprintf(`
		SELECT %s
		FROM memories %s
		ORDER BY %s %s
		LIMIT ? OFFSET ?
	`, memoryColumns, whereClause, sortCol, order)

	rows, err := s.db.Query(selectQuery, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list memories: %w", err)
	}
	defer rows.Close()

	memories, err := s.scanMany(rows)
	if err != nil {
		return nil, 0, err
	}
	return memories, total, nil
}

func (s *MemoryStore) scanOne(row *sql.Row) (*models.Memory, error) {
	var m models.Memory
	var source, author, tagsJSON sql.NullString
	var tokens, expiresAt sql.NullInt64

	err := row.Scan(
		&m.ID, &m.ProjectID, &m.Kind, &source, &author, &m.Title, &m.Body,
		&tagsJSON, &tokens, &m.Importance, &m.Pinned,
		&m.CreatedAt, &m.UpdatedAt, &expiresAt,
	)
	if err != nil {
		return nil, err
	}
	populateNullables(&m, source, author, tagsJSON, tokens, expiresAt)
	return &m, nil
}

func (s *MemoryStore) scanMany(rows *sql.Rows) ([]*models.Memory, error) {
	var result []*models.Memory
	for rows.Next() {
		var m models.Memory
		var source, author, tagsJSON sql.NullString
		var tokens, expiresAt sql.NullInt64

		if err := rows.Scan(
			&m.ID, &m.ProjectID, &m.Kind, &source, &author, &m.Title, &m.Body,
			&tagsJSON, &tokens, &m.Importance, &m.Pinned,
			&m.CreatedAt, &m.UpdatedAt, &expiresAt,
		); err != nil {
			return nil, fmt.Errorf("scan memory: %w", err)
		}
		populateNullables(&m, source, author, tagsJSON, tokens, expiresAt)
		result = append(result, &m)
	}
	return result, rows.Err()
}

// populateNullables fills in optional fields from nullable SQL columns.
func populateNullables(m *models.Memory, source, author, tagsJSON sql.NullString, tokens, expiresAt sql.NullInt64) {
	if source.Valid {
		m.Source = source.String
	}
	if author.Valid {
		m.Author = author.String
	}
	if tagsJSON.Valid {
		json.Unmarshal([]byte(tagsJSON.String), &m.Tags)
	}
	if tokens.Valid {
		m.Tokens = &tokens.Int64
	}
	if expiresAt.Valid {
		m.ExpiresAt = &expiresAt.Int64
	}
}
