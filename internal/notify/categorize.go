// Package notify categorizes raw workspace file paths into typed change
// events and fans them out to subscribers with per-key debouncing.
package notify

import (
	"path"
	"strings"

	"github.com/qinolabs/qino/internal/models"
)

// Categorize maps a workspace-relative path (forward slashes) to a typed
// change event, or nil when the path is not part of the workspace schema.
func Categorize(relPath string) *models.FileChangeEvent {
	p := path.Clean(strings.TrimPrefix(relPath, "/"))
	if p == "." || p == "" {
		return nil
	}
	segments := strings.Split(p, "/")
	for _, seg := range segments {
		if seg == ".git" || seg == "node_modules" {
			return nil
		}
	}

	if p == ".claude/qino-config.json" {
		return &models.FileChangeEvent{Kind: models.EventConfig}
	}

	base := segments[len(segments)-1]
	parent := ""
	if len(segments) >= 2 {
		parent = segments[len(segments)-2]
	}
	grandparent := ""
	if len(segments) >= 3 {
		grandparent = segments[len(segments)-3]
	}

	switch {
	case base == "graph.json":
		return &models.FileChangeEvent{Kind: models.EventGraph, GraphPath: dirOf(segments)}

	case base == "journal.md":
		if len(segments) <= 2 {
			return &models.FileChangeEvent{Kind: models.EventJournal, GraphPath: dirOf(segments)}
		}
		return &models.FileChangeEvent{Kind: models.EventNode, NodeID: parent}

	case base == "node.json" || base == "view.json" || base == "story.md":
		if parent == "" {
			return nil
		}
		return &models.FileChangeEvent{Kind: models.EventNode, NodeID: parent}

	case parent == "content":
		if grandparent == "" {
			return nil
		}
		return &models.FileChangeEvent{Kind: models.EventNode, NodeID: grandparent}

	case parent == "annotations" && strings.HasSuffix(base, ".md"):
		if grandparent == "" {
			return nil
		}
		return &models.FileChangeEvent{Kind: models.EventAnnotation, NodeID: grandparent}
	}

	return nil
}

// dirOf joins all but the last segment, "" at the root.
func dirOf(segments []string) string {
	if len(segments) <= 1 {
		return ""
	}
	return path.Join(segments[:len(segments)-1]...)
}
