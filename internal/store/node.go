package store

import (
	"context"
	"encoding/json"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/qinolabs/qino/internal/apperr"
	"github.com/qinolabs/qino/internal/codec"
	"github.com/qinolabs/qino/internal/models"
)

// ReadNode assembles one node directory into a NodeDetail. Optional files
// are tolerated individually; only a missing identity makes the node as a
// whole not found.
func (s *Store) ReadNode(_ context.Context, graphDir, nodeID string) (*models.NodeDetail, error) {
	gf, err := s.readGraphFile(graphDir)
	if err != nil {
		return nil, err
	}
	nodeDir := path.Join(graphDir, gf.EffectiveNodesDir(), nodeID)

	identity, err := s.readIdentity(nodeDir)
	if err != nil {
		return nil, err
	}
	if identity == nil {
		return nil, apperr.NodeNotFound(nodeID)
	}

	detail := &models.NodeDetail{
		ID:       nodeID,
		Dir:      nodeDir,
		Identity: *identity,
	}

	if data, err := s.fs.Read(path.Join(nodeDir, storyFileName)); err == nil {
		detail.Story = string(data)
	}
	detail.Content = s.readContentFiles(nodeDir)
	detail.Annotations = s.readAnnotations(nodeDir)

	if data, err := s.fs.Read(path.Join(nodeDir, viewFileName)); err == nil {
		if view := parseView(data); view != nil {
			detail.View = view
		}
	}
	if data, err := s.fs.Read(path.Join(nodeDir, journalFileName)); err == nil {
		detail.Journal = codec.ParseJournalSections(string(data))
	}
	if sub, err := s.readGraphFile(nodeDir); err == nil {
		detail.HasSubGraph = true
		detail.SubGraphTitle = sub.Title
	}

	detail.Modified = s.maxMtime(nodeDir)
	detail.Breadcrumb = s.breadcrumb(graphDir)

	return detail, nil
}

// readContentFiles returns the node's content/*.md files sorted by name.
func (s *Store) readContentFiles(nodeDir string) []models.ContentFile {
	dir := path.Join(nodeDir, contentDirName)
	entries, err := s.fs.ReadDir(dir)
	if err != nil {
		return nil
	}
	var out []models.ContentFile
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		data, err := s.fs.Read(path.Join(dir, e.Name()))
		if err != nil {
			continue
		}
		out = append(out, models.ContentFile{Name: e.Name(), Body: string(data)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// readAnnotations returns the node's parsed annotations in ascending
// filename order, so the numeric prefixes order correctly. Files that
// fail to parse are skipped.
func (s *Store) readAnnotations(nodeDir string) []models.Annotation {
	dir := path.Join(nodeDir, annotationsDir)
	entries, err := s.fs.ReadDir(dir)
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".md") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var out []models.Annotation
	for _, name := range names {
		data, err := s.fs.Read(path.Join(dir, name))
		if err != nil {
			continue
		}
		a := codec.ParseAnnotation(string(data))
		if a == nil {
			continue
		}
		a.Filename = name
		out = append(out, *a)
	}
	return out
}

// maxMtime returns the newest modification time among the node's files.
func (s *Store) maxMtime(nodeDir string) time.Time {
	var max time.Time
	consider := func(p string) {
		if info, err := s.fs.Stat(p); err == nil && info.ModTime().After(max) {
			max = info.ModTime()
		}
	}
	for _, name := range []string{nodeFileName, storyFileName, viewFileName, journalFileName, graphFileName} {
		consider(path.Join(nodeDir, name))
	}
	for _, sub := range []string{contentDirName, annotationsDir} {
		dir := path.Join(nodeDir, sub)
		entries, err := s.fs.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if !e.IsDir() {
				consider(path.Join(dir, e.Name()))
			}
		}
	}
	return max
}

// breadcrumb walks from the workspace root down to (excluding) the node,
// collecting the root graph title and each ancestor node's title.
func (s *Store) breadcrumb(graphDir string) []string {
	root, err := s.readGraphFile("")
	if err != nil {
		return nil
	}
	crumbs := []string{root.Title}
	if graphDir == "" {
		return crumbs
	}

	segments := strings.Split(path.Clean(graphDir), "/")
	cur := ""
	gf := root
	for i := 0; i+1 < len(segments); i += 2 {
		if segments[i] != gf.EffectiveNodesDir() {
			break
		}
		nodeDir := path.Join(cur, segments[i], segments[i+1])
		identity, err := s.readIdentity(nodeDir)
		if err != nil || identity == nil {
			break
		}
		crumbs = append(crumbs, identity.Title)
		cur = nodeDir
		next, err := s.readGraphFile(cur)
		if err != nil {
			break
		}
		gf = next
	}
	return crumbs
}

// parseView decodes view.json, rejecting shapes without a focal member.
func parseView(data []byte) *models.ViewData {
	var v models.ViewData
	if err := json.Unmarshal(data, &v); err != nil {
		return nil
	}
	if v.Focal == "" {
		return nil
	}
	return &v
}
