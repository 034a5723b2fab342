// Package index provides a SQLite-backed cache of the workspace graph:
// node rows and annotation rows derived from the filesystem. The
// filesystem stays the record of truth; the cache is refreshed by change
// notifier events and serves search and action-item queries.
package index

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS nodes (
	graph_path TEXT NOT NULL,
	id         TEXT NOT NULL,
	title      TEXT NOT NULL DEFAULT '',
	type       TEXT NOT NULL DEFAULT '',
	status     TEXT NOT NULL DEFAULT '',
	story      TEXT NOT NULL DEFAULT '',
	checksum   TEXT NOT NULL DEFAULT '',
	modified   DATETIME,
	PRIMARY KEY (graph_path, id)
);

CREATE TABLE IF NOT EXISTS annotations (
	graph_path TEXT NOT NULL,
	node_id    TEXT NOT NULL,
	filename   TEXT NOT NULL,
	signal     TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT '',
	created    TEXT NOT NULL DEFAULT '',
	target     TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (graph_path, node_id, filename)
);

CREATE INDEX IF NOT EXISTS idx_annotations_node ON annotations(graph_path, node_id);
`

// DB wraps a sql.DB with cache-specific operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("index: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Cache defines the interface for cache operations. Consumers should
// depend on this interface rather than the concrete *DB type.
type Cache interface {
	UpsertNode(row NodeRow, annotations []AnnotationRow) error
	DeleteNode(graphPath, id string) error
	DeleteGraph(graphPath string) error
	NodeChecksums(graphPath string) (map[string]string, error)
	Search(query string, limit int) ([]SearchResult, error)
	ActionItems() ([]ActionItemRow, error)
	Close() error
}

// Verify *DB satisfies Cache at compile time.
var _ Cache = (*DB)(nil)
