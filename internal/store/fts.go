package store

import (
	"fmt"
	"strings"
	"time"

	"github.com/iammorganparry/recall/internal/models"
)

// candidateFloor keeps small-k queries stable; overFetchFactor gives the
// reranker enough material to recover from lexical-only ordering errors.
const (
	candidateFloor  = 150
	overFetchFactor = 20
)

// Candidate is one FTS5 match, carrying the editorial priors needed for
// fusion so the reranker never re-reads the base table per candidate.
type Candidate struct {
	ID         int64
	BM25Norm   float64
	Importance float64
	Pinned     bool
}

// FTSStore generates search candidates from the FTS5 shadow index.
type FTSStore struct {
	db *DB
}

func NewFTSStore(db *DB) *FTSStore {
	return &FTSStore{db: db}
}

// CandidateLimit returns the first-stage fetch size for a top-k request.
func CandidateLimit(k int) int {
	if n := k * overFetchFactor; n > candidateFloor {
		return n
	}
	return candidateFloor
}

// Candidates runs a full-text match scoped to one project, excluding
// expired rows, ordered best match first. The query is passed to FTS5
// verbatim: escaping raw user text is the caller's responsibility (see
// EscapeMatch); a malformed expression returns a QuerySyntaxError.
func (s *FTSStore) Candidates(projectID int64, query string, limit int) ([]Candidate, error) {
	if query == "" {
		return nil, nil
	}

	rows, err := s.db.Query(`
		SELECT m.id, memories_fts.rank, m.importance, m.pinned
		FROM memories_fts
		JOIN memories m ON m.id = memories_fts.rowid
		WHERE memories_fts MATCH ?
		  AND m.project_id = ?
		  AND (m.expires_at IS NULL OR m.expires_at > ?)
		ORDER BY memories_fts.rank
		LIMIT ?
	`, query, projectID, time.Now().Unix(), limit)
	if err != nil {
		if isMatchSyntaxErr(err) {
			return nil, &models.QuerySyntaxError{Query: query, Err: err}
		}
		return nil, fmt.Errorf("fts candidates: %w", err)
	}
	defer rows.Close()

	var results []Candidate
	for rows.Next() {
		var c Candidate
		var rank float64
		if err := rows.Scan(&c.ID, &rank, &c.Importance, &c.Pinned); err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		c.BM25Norm = normalizeRank(rank)
		results = append(results, c)
	}
	return results, rows.Err()
}

// rankEpsilon keeps a degenerate zero-strength match strictly positive.
const rankEpsilon = 1e-6

// normalizeRank maps the FTS5 rank onto (0, 1]: weak matches land near 0,
// strong matches approach 1. SQLite's bm25() is <= 0 with more negative
// meaning a stronger match; that sign convention is asserted here by
// clamping -rank at zero.
func normalizeRank(rank float64) float64 {
	strength := -rank
	if strength < 0 {
		strength = 0
	}
	return (strength + rankEpsilon) / (1.0 + strength + rankEpsilon)
}

// isMatchSyntaxErr detects FTS5 query-parse failures, which SQLite reports
// as generic SQL errors with fts5-specific messages.
func isMatchSyntaxErr(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "fts5: syntax error") ||
		strings.Contains(msg, "malformed MATCH") ||
		strings.Contains(msg, "unknown special query") ||
		strings.Contains(msg, "no such column") ||
		strings.Contains(msg, "unterminated string")
}

// EscapeMatch quotes each whitespace-separated token of raw user text so
// FTS5 treats it as a plain term query. Callers that want operator syntax
// (AND, OR, NEAR, prefix*) must build their own expression and own the
// QuerySyntaxError risk.
func EscapeMatch(raw string) string {
	fields := strings.Fields(raw)
	quoted := make([]string, 0, len(fields))
	for _, f := range fields {
		quoted = append(quoted, `"`+strings.ReplaceAll(f, `"`, `""`)+`"`)
	}
	return strings.Join(quoted, " ")
}
