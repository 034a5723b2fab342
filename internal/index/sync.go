package index

import (
	"context"
	"fmt"
	"log/slog"
	"path"

	"github.com/qinolabs/qino/internal/checksum"
	"github.com/qinolabs/qino/internal/models"
	"github.com/qinolabs/qino/internal/notify"
	"github.com/qinolabs/qino/internal/store"
)

// Sync walks the workspace graph (root plus nested sub-graphs) and
// brings the cache up to date. Unchanged nodes are skipped via checksum
// comparison; nodes removed from disk are deleted from the cache.
func Sync(ctx context.Context, db *DB, st *store.Store, logger *slog.Logger) error {
	return syncGraph(ctx, db, st, "", logger)
}

func syncGraph(ctx context.Context, db *DB, st *store.Store, graphDir string, logger *slog.Logger) error {
	g, err := st.ReadGraph(ctx, graphDir)
	if err != nil {
		return err
	}

	cached, err := db.NodeChecksums(graphDir)
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(g.Graph.Nodes))
	for _, entry := range g.Graph.Nodes {
		disk[entry.ID] = struct{}{}

		cs := entryChecksum(entry)
		if cached[entry.ID] != cs {
			if err := indexNode(ctx, db, st, graphDir, entry, cs); err != nil {
				logger.Warn("sync: index node failed",
					slog.String("graph", graphDir),
					slog.String("node", entry.ID),
					slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: indexed", slog.String("node", entry.ID))
			}
		}

		if entry.HasSubGraph {
			subDir := path.Join(graphDir, g.Graph.NodesDir, entry.ID)
			if err := syncGraph(ctx, db, st, subDir, logger); err != nil {
				logger.Warn("sync: sub-graph failed",
					slog.String("graph", subDir),
					slog.String("error", err.Error()))
			}
		}
	}

	// Remove stale entries.
	for id := range cached {
		if _, ok := disk[id]; !ok {
			if err := db.DeleteNode(graphDir, id); err != nil {
				logger.Warn("sync: delete failed", slog.String("node", id), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("node", id))
			}
		}
	}

	return nil
}

// indexNode reads the full node and upserts its row plus annotations.
func indexNode(ctx context.Context, db *DB, st *store.Store, graphDir string, entry models.NodeEntry, cs string) error {
	detail, err := st.ReadNode(ctx, graphDir, entry.ID)
	if err != nil {
		return err
	}
	annotations := make([]AnnotationRow, 0, len(detail.Annotations))
	for _, a := range detail.Annotations {
		annotations = append(annotations, AnnotationRow{
			Filename: a.Filename,
			Signal:   string(a.Meta.Signal),
			Status:   string(a.Meta.Status),
			Created:  a.Meta.Created,
			Target:   a.Meta.Target,
		})
	}
	return db.UpsertNode(NodeRow{
		GraphPath: graphDir,
		ID:        entry.ID,
		Title:     entry.Title,
		Type:      entry.Type,
		Status:    entry.Status,
		Story:     detail.Story,
		Checksum:  cs,
		Modified:  entry.Modified,
	}, annotations)
}

// entryChecksum digests the fields whose change requires a re-index.
// Modified covers every file in the node directory.
func entryChecksum(entry models.NodeEntry) string {
	return checksum.Sum([]byte(fmt.Sprintf("%s|%s|%s|%s|%d",
		entry.ID, entry.Title, entry.Type, entry.Status, entry.Modified.UnixNano())))
}

// Subscriber returns a notifier callback that keeps the cache coherent:
// any workspace change triggers a re-sync pass. The notifier's debounce
// already coalesces event bursts.
func Subscriber(db *DB, st *store.Store, logger *slog.Logger) notify.Subscriber {
	return func(ev models.FileChangeEvent) {
		if err := Sync(context.Background(), db, st, logger); err != nil {
			logger.Warn("index: event sync failed",
				slog.String("key", ev.Key()),
				slog.String("error", err.Error()))
		}
	}
}
