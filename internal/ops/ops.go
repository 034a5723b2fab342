// Package ops defines the single capability boundary over the workspace.
// The direct filesystem store and the remote HTTP client both implement
// it; transports and tools depend only on this interface.
package ops

import (
	"context"

	"github.com/qinolabs/qino/internal/models"
)

// Ops is the operation surface of a workspace. graphDir is a
// forward-slash path relative to the workspace root; "" addresses the
// root graph.
type Ops interface {
	// ReadConfig returns the workspace agent config, or nil when absent.
	ReadConfig(ctx context.Context) (map[string]any, error)
	// ReadGraph assembles the graph at graphDir.
	ReadGraph(ctx context.Context, graphDir string) (*models.GraphDetail, error)
	// ReadNode assembles one node of the graph at graphDir.
	ReadNode(ctx context.Context, graphDir, nodeID string) (*models.NodeDetail, error)
	// CreateNode creates a node directory plus its graph/journal side effects.
	CreateNode(ctx context.Context, graphDir string, spec models.CreateNodeSpec) (*models.NodeDetail, error)
	// WriteAnnotation appends a new annotation file and returns its filename.
	WriteAnnotation(ctx context.Context, graphDir, nodeID string, signal models.Signal, body, target string) (string, error)
	// ResolveAnnotation updates an annotation's status and resolvedAt.
	ResolveAnnotation(ctx context.Context, graphDir, nodeID, filename string, status models.Status) error
	// WriteJournalEntry appends a section to a graph or node journal.
	WriteJournalEntry(ctx context.Context, graphDir string, entry models.JournalEntry) error
	// UpdateView overwrites a node's view and re-syncs its curates edges.
	UpdateView(ctx context.Context, graphDir, nodeID string, view models.ViewData) error
}
