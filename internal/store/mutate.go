package store

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"github.com/qinolabs/qino/internal/apperr"
	"github.com/qinolabs/qino/internal/codec"
	"github.com/qinolabs/qino/internal/models"
)

// Mutations are ordered multi-file writes with no rollback: a failure
// mid-sequence leaves the earlier writes committed. Preconditions are
// validated before the first write.

// CreateNode creates a node directory under the graph at graphDir,
// appends any requested edges, materializes an optional view, and echoes
// the creation into the graph journal.
func (s *Store) CreateNode(ctx context.Context, graphDir string, spec models.CreateNodeSpec) (*models.NodeDetail, error) {
	gf, err := s.readGraphFile(graphDir)
	if err != nil {
		return nil, err
	}
	if spec.ID == "" || spec.Title == "" {
		return nil, apperr.Invalid("node id and title are required")
	}

	nodesDir := gf.EffectiveNodesDir()
	nodeDir := path.Join(graphDir, nodesDir, spec.ID)
	if existing, err := s.readIdentity(nodeDir); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, apperr.NodeExists(spec.ID)
	}
	if spec.View != nil && !spec.View.Contains(spec.View.Focal) {
		return nil, apperr.Invalid("view focal must be a member of includes")
	}

	status := spec.Status
	if status == "" {
		status = models.StatusActive
	}
	identity := models.Identity{
		Title:   spec.Title,
		Type:    spec.Type,
		Status:  status,
		Created: today(),
		Extra:   spec.Extra,
	}
	idData, err := json.MarshalIndent(identity, "", "  ")
	if err != nil {
		return nil, err
	}
	if err := s.fs.Write(path.Join(nodeDir, nodeFileName), append(idData, '\n')); err != nil {
		return nil, err
	}
	if err := s.fs.Write(path.Join(nodeDir, storyFileName), []byte(spec.Story)); err != nil {
		return nil, err
	}

	graphDirty := false
	for _, e := range spec.Edges {
		e.Source = spec.ID
		gf.Edges = append(gf.Edges, e)
		graphDirty = true
	}
	if spec.View != nil {
		if err := s.writeViewFile(nodeDir, *spec.View); err != nil {
			return nil, err
		}
		syncCurates(gf, spec.ID, *spec.View)
		graphDirty = true
	}
	if graphDirty {
		if err := s.writeGraphFile(graphDir, gf); err != nil {
			return nil, err
		}
	}

	echo := models.JournalEntry{
		Context: "node/" + spec.ID,
		Body:    fmt.Sprintf("[%s](%s/)", spec.Title, path.Join(nodesDir, spec.ID)),
	}
	if err := s.appendJournal(path.Join(graphDir, journalFileName), echo); err != nil {
		return nil, err
	}

	s.push(models.FileChangeEvent{Kind: models.EventNode, NodeID: spec.ID})
	s.push(models.FileChangeEvent{Kind: models.EventGraph, GraphPath: graphDir})
	s.push(models.FileChangeEvent{Kind: models.EventJournal, GraphPath: graphDir})

	return s.ReadNode(ctx, graphDir, spec.ID)
}

// WriteAnnotation appends a new annotation file to the node and returns
// its filename. The sequence number is the current annotation count plus
// one; concurrent writers on the same node can race to the same number
// (the store takes no per-node lock).
func (s *Store) WriteAnnotation(_ context.Context, graphDir, nodeID string, signal models.Signal, body, target string) (string, error) {
	gf, err := s.readGraphFile(graphDir)
	if err != nil {
		return "", err
	}
	nodeDir := path.Join(graphDir, gf.EffectiveNodesDir(), nodeID)
	identity, err := s.readIdentity(nodeDir)
	if err != nil {
		return "", err
	}
	if identity == nil {
		return "", apperr.NodeNotFound(nodeID)
	}
	if !signal.Valid() {
		signal = models.SignalReading
	}

	seq := s.countAnnotations(nodeDir) + 1
	filename := fmt.Sprintf("%03d-%s.md", seq, codec.Slugify(body))

	meta := models.AnnotationMeta{
		Author:  "agent",
		Signal:  signal,
		Target:  target,
		Created: today(),
	}
	raw := codec.SerializeAnnotation(meta, body)
	if err := s.fs.Write(path.Join(nodeDir, annotationsDir, filename), []byte(raw)); err != nil {
		return "", err
	}

	s.push(models.FileChangeEvent{Kind: models.EventAnnotation, NodeID: nodeID})
	return filename, nil
}

// ResolveAnnotation sets status and resolvedAt on an existing annotation,
// preserving every other frontmatter field and the body byte for byte.
func (s *Store) ResolveAnnotation(_ context.Context, graphDir, nodeID, filename string, status models.Status) error {
	if !status.Valid() {
		return apperr.Invalid(fmt.Sprintf("invalid status: %s", status))
	}
	gf, err := s.readGraphFile(graphDir)
	if err != nil {
		return err
	}
	nodeDir := path.Join(graphDir, gf.EffectiveNodesDir(), nodeID)
	annPath := path.Join(nodeDir, annotationsDir, filename)

	data, err := s.fs.Read(annPath)
	if err != nil {
		return apperr.AnnotationNotFound(filename)
	}
	a := codec.ParseAnnotation(string(data))
	if a == nil {
		return apperr.AnnotationNotFound(filename)
	}

	a.Meta.Status = status
	a.Meta.ResolvedAt = today()
	if err := s.fs.Write(annPath, []byte(codec.SerializeAnnotation(a.Meta, a.Content))); err != nil {
		return err
	}

	s.push(models.FileChangeEvent{Kind: models.EventAnnotation, NodeID: nodeID})
	return nil
}

// WriteJournalEntry appends a section to the graph journal, or to the
// node's local journal when entry.NodeID is set. The journal file is
// created if absent.
func (s *Store) WriteJournalEntry(_ context.Context, graphDir string, entry models.JournalEntry) error {
	if entry.Context == "" || strings.TrimSpace(entry.Body) == "" {
		return apperr.Invalid("journal entry requires context and body")
	}

	target := path.Join(graphDir, journalFileName)
	ev := models.FileChangeEvent{Kind: models.EventJournal, GraphPath: graphDir}
	if entry.NodeID != "" {
		gf, err := s.readGraphFile(graphDir)
		if err != nil {
			return err
		}
		nodeDir := path.Join(graphDir, gf.EffectiveNodesDir(), entry.NodeID)
		identity, err := s.readIdentity(nodeDir)
		if err != nil {
			return err
		}
		if identity == nil {
			return apperr.NodeNotFound(entry.NodeID)
		}
		target = path.Join(nodeDir, journalFileName)
		ev = models.FileChangeEvent{Kind: models.EventNode, NodeID: entry.NodeID}
	}

	if err := s.appendJournal(target, entry); err != nil {
		return err
	}
	s.push(ev)
	return nil
}

// UpdateView overwrites the node's view.json and re-syncs its curates
// edges in graph.json. The node must already carry a view.
func (s *Store) UpdateView(_ context.Context, graphDir, nodeID string, view models.ViewData) error {
	gf, err := s.readGraphFile(graphDir)
	if err != nil {
		return err
	}
	nodeDir := path.Join(graphDir, gf.EffectiveNodesDir(), nodeID)
	identity, err := s.readIdentity(nodeDir)
	if err != nil {
		return err
	}
	if identity == nil {
		return apperr.NodeNotFound(nodeID)
	}
	if !s.exists(path.Join(nodeDir, viewFileName)) {
		return apperr.Invalid(fmt.Sprintf("not a view: %s", nodeID))
	}
	if !view.Contains(view.Focal) {
		return apperr.Invalid("view focal must be a member of includes")
	}

	if err := s.writeViewFile(nodeDir, view); err != nil {
		return err
	}
	syncCurates(gf, nodeID, view)
	if err := s.writeGraphFile(graphDir, gf); err != nil {
		return err
	}

	s.push(models.FileChangeEvent{Kind: models.EventNode, NodeID: nodeID})
	s.push(models.FileChangeEvent{Kind: models.EventGraph, GraphPath: graphDir})
	return nil
}

// syncCurates makes the curates edges sourced from nodeID equal exactly
// the materialized form of view: one edge per include, context "focal"
// only on the focal target. Stale curates edges from this source are
// removed; everything else is untouched.
func syncCurates(gf *models.GraphFile, nodeID string, view models.ViewData) {
	kept := gf.Edges[:0]
	for _, e := range gf.Edges {
		if e.Type == models.EdgeTypeCurates && e.Source == nodeID {
			continue
		}
		kept = append(kept, e)
	}
	gf.Edges = kept
	for _, target := range view.Includes {
		edge := models.Edge{
			Source: nodeID,
			Target: target,
			Type:   models.EdgeTypeCurates,
		}
		if target == view.Focal {
			edge.Context = models.EdgeContextFocal
		}
		gf.Edges = append(gf.Edges, edge)
	}
}

// appendJournal parses the journal at target, appends entry as a new
// section, and writes the re-serialized whole back.
func (s *Store) appendJournal(target string, entry models.JournalEntry) error {
	var sections []models.JournalSection
	if data, err := s.fs.Read(target); err == nil {
		sections = codec.ParseJournalSections(string(data))
	}
	sections = append(sections, models.JournalSection{Context: entry.Context, Body: entry.Body})
	return s.fs.Write(target, []byte(codec.SectionsToMarkdown(sections)))
}

func (s *Store) writeViewFile(nodeDir string, view models.ViewData) error {
	data, err := json.MarshalIndent(view, "", "  ")
	if err != nil {
		return err
	}
	return s.fs.Write(path.Join(nodeDir, viewFileName), append(data, '\n'))
}

// countAnnotations returns the number of annotation markdown files.
func (s *Store) countAnnotations(nodeDir string) int {
	entries, err := s.fs.ReadDir(path.Join(nodeDir, annotationsDir))
	if err != nil {
		return 0
	}
	n := 0
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".md") {
			n++
		}
	}
	return n
}
