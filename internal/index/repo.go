package index

import (
	"fmt"
	"time"
)

// NodeRow represents a row in the nodes table.
type NodeRow struct {
	GraphPath string
	ID        string
	Title     string
	Type      string
	Status    string
	Story     string
	Checksum  string
	Modified  time.Time
}

// AnnotationRow represents a row in the annotations table.
type AnnotationRow struct {
	Filename string
	Signal   string
	Status   string
	Created  string
	Target   string
}

// SearchResult represents one search hit.
type SearchResult struct {
	GraphPath string `json:"graphPath"`
	NodeID    string `json:"nodeId"`
	Title     string `json:"title"`
	Status    string `json:"status,omitempty"`
}

// ActionItemRow is a cached action item.
type ActionItemRow struct {
	GraphPath string `json:"graphPath"`
	NodeID    string `json:"nodeId"`
	Filename  string `json:"filename"`
	Signal    string `json:"signal"`
	Status    string `json:"status"`
	Created   string `json:"created,omitempty"`
	Target    string `json:"target,omitempty"`
}

// UpsertNode replaces a node row and its annotation rows in one
// transaction.
func (db *DB) UpsertNode(row NodeRow, annotations []AnnotationRow) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	_, err = tx.Exec(`
		INSERT INTO nodes (graph_path, id, title, type, status, story, checksum, modified)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(graph_path, id) DO UPDATE SET
			title    = excluded.title,
			type     = excluded.type,
			status   = excluded.status,
			story    = excluded.story,
			checksum = excluded.checksum,
			modified = excluded.modified
	`, row.GraphPath, row.ID, row.Title, row.Type, row.Status, row.Story, row.Checksum, row.Modified)
	if err != nil {
		return fmt.Errorf("index: upsert node: %w", err)
	}

	// Replace annotations: delete old then bulk insert.
	_, _ = tx.Exec(`DELETE FROM annotations WHERE graph_path = ? AND node_id = ?`, row.GraphPath, row.ID)
	if len(annotations) > 0 {
		stmt, err := tx.Prepare(`
			INSERT OR IGNORE INTO annotations (graph_path, node_id, filename, signal, status, created, target)
			VALUES (?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("index: prepare annotation insert: %w", err)
		}
		defer stmt.Close()
		for _, a := range annotations {
			if _, err := stmt.Exec(row.GraphPath, row.ID, a.Filename, a.Signal, a.Status, a.Created, a.Target); err != nil {
				return fmt.Errorf("index: insert annotation: %w", err)
			}
		}
	}

	return tx.Commit()
}

// DeleteNode removes a node row and its annotations.
func (db *DB) DeleteNode(graphPath, id string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, _ = tx.Exec(`DELETE FROM annotations WHERE graph_path = ? AND node_id = ?`, graphPath, id)
	_, _ = tx.Exec(`DELETE FROM nodes WHERE graph_path = ? AND id = ?`, graphPath, id)

	return tx.Commit()
}

// DeleteGraph removes all rows belonging to one graph scope.
func (db *DB) DeleteGraph(graphPath string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, _ = tx.Exec(`DELETE FROM annotations WHERE graph_path = ?`, graphPath)
	_, _ = tx.Exec(`DELETE FROM nodes WHERE graph_path = ?`, graphPath)

	return tx.Commit()
}

// NodeChecksums returns id → checksum for every cached node of a graph.
func (db *DB) NodeChecksums(graphPath string) (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT id, checksum FROM nodes WHERE graph_path = ?`, graphPath)
	if err != nil {
		return nil, fmt.Errorf("index: node checksums: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var id, cs string
		if err := rows.Scan(&id, &cs); err != nil {
			return nil, err
		}
		out[id] = cs
	}
	return out, rows.Err()
}

// Search matches query against node titles and stories.
func (db *DB) Search(query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	pattern := "%" + query + "%"
	rows, err := db.conn.Query(`
		SELECT graph_path, id, title, status
		FROM nodes
		WHERE title LIKE ? OR story LIKE ?
		ORDER BY modified DESC
		LIMIT ?`, pattern, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	defer rows.Close()

	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.GraphPath, &r.NodeID, &r.Title, &r.Status); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ActionItems returns cached proposal/tension annotations still needing
// attention, most recent first.
func (db *DB) ActionItems() ([]ActionItemRow, error) {
	rows, err := db.conn.Query(`
		SELECT graph_path, node_id, filename, signal, status, created, target
		FROM annotations
		WHERE signal IN ('proposal', 'tension')
		  AND status IN ('', 'open', 'accepted')
		ORDER BY created DESC, filename DESC`)
	if err != nil {
		return nil, fmt.Errorf("index: action items: %w", err)
	}
	defer rows.Close()

	var out []ActionItemRow
	for rows.Next() {
		var r ActionItemRow
		if err := rows.Scan(&r.GraphPath, &r.NodeID, &r.Filename, &r.Signal, &r.Status, &r.Created, &r.Target); err != nil {
			return nil, err
		}
		if r.Status == "" {
			r.Status = "open"
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
