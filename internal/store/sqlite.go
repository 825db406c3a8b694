package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mattn/go-sqlite3"
)

// DB wraps the SQLite connection with initialization logic.
type DB struct {
	*sql.DB
}

// Open creates or opens the SQLite database at the given path, runs schema
// initialization, and configures WAL mode for concurrent reads. The write
// lock wait is bounded at 5 seconds; a write that cannot acquire it within
// that window fails with a retryable StorageError.
func Open(dbPath string) (*DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000&_foreign_keys=ON")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite handles one writer at a time

	if _, err := db.Exec(`PRAGMA temp_store = MEMORY`); err != nil {
		db.Close()
		return nil, fmt.Errorf("set temp_store: %w", err)
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &DB{db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS projects (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  code TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS memories (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  project_id INTEGER NOT NULL,
  kind TEXT NOT NULL,
  source TEXT,
  author TEXT,
  title TEXT NOT NULL DEFAULT '',
  body TEXT NOT NULL,
  tags TEXT,
  tokens INTEGER,
  importance REAL NOT NULL DEFAULT 0.5 CHECK (importance >= 0.0 AND importance <= 1.0),
  pinned INTEGER NOT NULL DEFAULT 0,
  created_at INTEGER NOT NULL,
  updated_at INTEGER NOT NULL,
  expires_at INTEGER,
  FOREIGN KEY (project_id) REFERENCES projects(id)
);

CREATE INDEX IF NOT EXISTS idx_memories_project ON memories(project_id);
CREATE INDEX IF NOT EXISTS idx_memories_expires_at ON memories(expires_at);
CREATE INDEX IF NOT EXISTS idx_memories_created_at ON memories(created_at);

CREATE TABLE IF NOT EXISTS embeddings (
  memory_id INTEGER PRIMARY KEY,
  dim INTEGER NOT NULL,
  vector BLOB NOT NULL,
  FOREIGN KEY (memory_id) REFERENCES memories(id) ON DELETE CASCADE
);
`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}

	// FTS5 virtual table and triggers are created separately since
	// IF NOT EXISTS isn't always supported for virtual tables in older SQLite.
	// The triggers run inside whatever transaction mutates the base row, so
	// the shadow index always reflects the post-write text content.
	fts := `
CREATE VIRTUAL TABLE IF NOT EXISTS memories_fts USING fts5(
  title, body, tags,
  content='memories', content_rowid='id',
  tokenize='unicode61 remove_diacritics 2'
);
`
	if _, err := db.Exec(fts); err != nil {
		return fmt.Errorf("create fts table: %w", err)
	}

	triggers := []string{
		`CREATE TRIGGER IF NOT EXISTS memories_ai AFTER INSERT ON memories BEGIN
  INSERT INTO memories_fts(rowid, title, body, tags)
  VALUES (NEW.id, NEW.title, NEW.body, NEW.tags);
END;`,
		`CREATE TRIGGER IF NOT EXISTS memories_ad AFTER DELETE ON memories BEGIN
  INSERT INTO memories_fts(memories_fts, rowid, title, body, tags)
  VALUES ('delete', OLD.id, OLD.title, OLD.body, OLD.tags);
END;`,
		`CREATE TRIGGER IF NOT EXISTS memories_au AFTER UPDATE ON memories BEGIN
  INSERT INTO memories_fts(memories_fts, rowid, title, body, tags)
  VALUES ('delete', OLD.id, OLD.title, OLD.body, OLD.tags);
  INSERT INTO memories_fts(rowid, title, body, tags)
  VALUES (NEW.id, NEW.title, NEW.body, NEW.tags);
END;`,
	}

	for _, t := range triggers {
		if _, err := db.Exec(t); err != nil {
			return fmt.Errorf("create trigger: %w", err)
		}
	}

	return nil
}

// MemoryCount returns the total number of memories in the database.
func (db *DB) MemoryCount() (int, error) {
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM memories").Scan(&count)
	return count, err
}

// retryable reports whether err is a lock-wait timeout, i.e. the busy
// timeout elapsed without the write lock being acquired.
func retryable(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.Code == sqlite3.ErrBusy || se.Code == sqlite3.ErrLocked
	}
	return false
}
