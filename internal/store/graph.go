package store

import (
	"context"
	"path"
	"sort"
	"time"

	"github.com/qinolabs/qino/internal/codec"
	"github.com/qinolabs/qino/internal/models"
)

// ReadGraph assembles the graph at graphDir. Node existence comes from
// filesystem discovery: every <nodesDir> subdirectory carrying a
// node.json is a node. The legacy graph.json nodes array only
// contributes fallback fields per entry and is never treated as a source
// of nodes itself.
func (s *Store) ReadGraph(_ context.Context, graphDir string) (*models.GraphDetail, error) {
	gf, err := s.readGraphFile(graphDir)
	if err != nil {
		return nil, err
	}

	legacy := make(map[string]models.LegacyEntry, len(gf.Nodes))
	for _, le := range gf.Nodes {
		legacy[le.ID] = le
	}

	nodesDir := gf.EffectiveNodesDir()
	entries := s.discoverNodes(graphDir, nodesDir, legacy)

	detail := &models.GraphDetail{
		Graph: models.Graph{
			ID:       gf.ID,
			Title:    gf.Title,
			NodesDir: nodesDir,
			Nodes:    entries,
			Edges:    gf.Edges,
		},
		AgentSignals: make(map[string][]string),
	}

	if data, err := s.fs.Read(path.Join(graphDir, journalFileName)); err == nil {
		detail.Journal = codec.ParseJournalSections(string(data))
	}

	s.deriveAnnotationIndexes(graphDir, nodesDir, entries, detail)

	return detail, nil
}

// discoverNodes lists nodesDir and projects each directory with a
// node.json into a NodeEntry, merging legacy fields where node.json is
// silent.
func (s *Store) discoverNodes(graphDir, nodesDir string, legacy map[string]models.LegacyEntry) []models.NodeEntry {
	dirEntries, err := s.fs.ReadDir(path.Join(graphDir, nodesDir))
	if err != nil {
		return []models.NodeEntry{}
	}

	out := make([]models.NodeEntry, 0, len(dirEntries))
	for _, de := range dirEntries {
		if !de.IsDir() {
			continue
		}
		id := de.Name()
		nodeDir := path.Join(graphDir, nodesDir, id)
		identity, err := s.readIdentity(nodeDir)
		if err != nil || identity == nil {
			continue
		}

		entry := models.NodeEntry{
			ID:     id,
			Dir:    nodeDir,
			Title:  identity.Title,
			Type:   identity.Type,
			Status: identity.Status,
		}
		if le, ok := legacy[id]; ok {
			if entry.Title == "" {
				entry.Title = le.Title
			}
			if entry.Type == "" {
				entry.Type = le.Type
			}
			if entry.Status == "" {
				entry.Status = le.Status
			}
		}
		entry.HasSubGraph = s.exists(path.Join(nodeDir, graphFileName))
		entry.HasView = s.exists(path.Join(nodeDir, viewFileName))
		entry.HasJournal = s.exists(path.Join(nodeDir, journalFileName))
		entry.Modified = s.maxMtime(nodeDir)

		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// deriveAnnotationIndexes fills AgentSignals and ActionItems from every
// discovered node's annotations.
func (s *Store) deriveAnnotationIndexes(graphDir, nodesDir string, entries []models.NodeEntry, detail *models.GraphDetail) {
	for _, entry := range entries {
		nodeDir := path.Join(graphDir, nodesDir, entry.ID)
		annotations := s.readAnnotations(nodeDir)
		if len(annotations) == 0 {
			continue
		}

		seen := make(map[models.Signal]struct{})
		for _, a := range annotations {
			status := a.Meta.Status

			if status.Effective() != models.StatusDismissed {
				if _, dup := seen[a.Meta.Signal]; !dup {
					seen[a.Meta.Signal] = struct{}{}
					detail.AgentSignals[entry.ID] = append(detail.AgentSignals[entry.ID], string(a.Meta.Signal))
				}
			}

			if a.Meta.Signal.Actionable() && status.NeedsAttention() {
				detail.ActionItems = append(detail.ActionItems, models.ActionItem{
					NodeID:    entry.ID,
					NodeTitle: entry.Title,
					Filename:  a.Filename,
					Signal:    a.Meta.Signal,
					Status:    status.Effective(),
					Created:   a.Meta.Created,
					Target:    a.Meta.Target,
					Modified:  s.annotationMtime(nodeDir, a.Filename),
				})
			}
		}
	}

	sortActionItems(detail.ActionItems)
}

// sortActionItems orders by recency: mtime desc, created desc, filename
// desc as the final tiebreak (higher sequence first).
func sortActionItems(items []models.ActionItem) {
	sort.Slice(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if !a.Modified.Equal(b.Modified) {
			return a.Modified.After(b.Modified)
		}
		if a.Created != b.Created {
			return a.Created > b.Created
		}
		if a.NodeID != b.NodeID {
			return a.NodeID < b.NodeID
		}
		return a.Filename > b.Filename
	})
}

func (s *Store) annotationMtime(nodeDir, filename string) time.Time {
	info, err := s.fs.Stat(path.Join(nodeDir, annotationsDir, filename))
	if err != nil {
		return time.Time{}
	}
	return info.ModTime()
}

func (s *Store) exists(p string) bool {
	_, err := s.fs.Stat(p)
	return err == nil
}
