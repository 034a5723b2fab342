// Package testutil provides shared test helpers for scaffolding
// workspaces.
package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/qinolabs/qino/internal/storage"
)

// TestWorkspace creates a temporary workspace directory with a root
// graph.json and returns its path plus a storage.Provider.
func TestWorkspace(t *testing.T) (string, storage.Provider) {
	t.Helper()
	dir := t.TempDir()
	WriteJSON(t, filepath.Join(dir, "graph.json"), map[string]any{
		"id":    "workspace",
		"title": "Test Workspace",
		"edges": []any{},
	})
	fs, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, fs
}

// WriteJSON marshals v and writes it to path, creating parent dirs.
func WriteJSON(t *testing.T, path string, v any) {
	t.Helper()
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		t.Fatal(err)
	}
	WriteFile(t, path, append(data, '\n'))
}

// WriteFile writes data to path, creating parent dirs.
func WriteFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

// AddNode scaffolds a minimal node directory under the workspace root.
func AddNode(t *testing.T, root, id, title string) {
	t.Helper()
	nodeDir := filepath.Join(root, "nodes", id)
	WriteJSON(t, filepath.Join(nodeDir, "node.json"), map[string]any{
		"title":  title,
		"status": "active",
	})
	WriteFile(t, filepath.Join(nodeDir, "story.md"), []byte("# "+title+"\n"))
}
