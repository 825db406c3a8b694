//go:build !sqlite_fts5 && !fts5

package store

// The schema depends on SQLite's FTS5 extension, which mattn/go-sqlite3
// only compiles in behind a build tag. Without it every Open fails at
// schema init with "no such module: fts5", so refuse to build at all:
// pass -tags sqlite_fts5 (see the README or use the Makefile targets).
var _ = buildRequiresTagSqliteFTS5
