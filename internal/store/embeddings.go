package store

import (
	"fmt"
	"strings"

	"github.com/iammorganparry/recall/internal/vector"
)

// EmbeddingStore reads stored embedding vectors. Writes happen inside the
// memory write transaction (MemoryStore.Create); reads here are scoped to
// explicit id sets so the rescoring stage never scans the whole table.
type EmbeddingStore struct {
	db *DB
}

func NewEmbeddingStore(db *DB) *EmbeddingStore {
	return &EmbeddingStore{db: db}
}

// GetForMemories fetches and decodes embeddings for exactly the given ids.
// Memories without a stored embedding are simply absent from the map.
func (s *EmbeddingStore) GetForMemories(ids []int64) (map[int64][]float32, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}

	rows, err := s.db.Query(fmt.Sprintf(`
		SELECT memory_id, dim, vector FROM embeddings WHERE memory_id IN (%s)
	`, strings.Join(placeholders, ",")), args...)
	if err != nil {
		return nil, fmt.Errorf("get embeddings: %w", err)
	}
	defer rows.Close()

	out := make(map[int64][]float32, len(ids))
	for rows.Next() {
		var memoryID int64
		var dim int
		var blob []byte
		if err := rows.Scan(&memoryID, &dim, &blob); err != nil {
			return nil, fmt.Errorf("scan embedding: %w", err)
		}
		vec, err := vector.Decode(blob)
		if err != nil {
			return nil, fmt.Errorf("embedding %d: %w", memoryID, err)
		}
		if len(vec) != dim {
			return nil, fmt.Errorf("embedding %d: stored dim %d but blob holds %d floats", memoryID, dim, len(vec))
		}
		out[memoryID] = vec
	}
	return out, rows.Err()
}
