// Package store implements the protocol store: it reads, derives, and
// mutates the on-disk workspace graph. The filesystem is the record of
// truth; every operation is an explicit parse/serialize pair over the
// workspace layout.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"time"

	"github.com/qinolabs/qino/internal/apperr"
	"github.com/qinolabs/qino/internal/models"
	"github.com/qinolabs/qino/internal/storage"
)

// ConfigPath is the workspace agent config file.
const ConfigPath = ".claude/qino-config.json"

// Workspace file names.
const (
	graphFileName   = "graph.json"
	nodeFileName    = "node.json"
	storyFileName   = "story.md"
	viewFileName    = "view.json"
	journalFileName = "journal.md"
	contentDirName  = "content"
	annotationsDir  = "annotations"
)

// timeNow is stubbed in tests.
var timeNow = time.Now

// Pusher receives mutation events for immediate delivery. It is
// satisfied by notify.FileWatcher.
type Pusher interface {
	Push(ev models.FileChangeEvent)
}

// Store is the direct-filesystem backend of the Ops boundary.
type Store struct {
	fs     storage.Provider
	notify Pusher
}

// Option configures a Store.
type Option func(*Store)

// WithNotifier makes the store push an event after each mutation.
func WithNotifier(p Pusher) Option {
	return func(s *Store) {
		s.notify = p
	}
}

// New creates a Store over the given workspace provider.
func New(fsp storage.Provider, opts ...Option) *Store {
	s := &Store{fs: fsp}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ReadConfig returns the parsed workspace agent config, or nil when the
// file does not exist.
func (s *Store) ReadConfig(_ context.Context) (map[string]any, error) {
	data, err := s.fs.Read(ConfigPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var cfg map[string]any
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("store: parse %s: %w", ConfigPath, err)
	}
	return cfg, nil
}

// readGraphFile loads graph.json at graphDir. A missing file maps to
// ErrNotConfigured.
func (s *Store) readGraphFile(graphDir string) (*models.GraphFile, error) {
	data, err := s.fs.Read(path.Join(graphDir, graphFileName))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperr.NoGraph()
		}
		return nil, err
	}
	var gf models.GraphFile
	if err := json.Unmarshal(data, &gf); err != nil {
		return nil, fmt.Errorf("store: parse graph.json at %q: %w", graphDir, err)
	}
	if gf.Edges == nil {
		gf.Edges = []models.Edge{}
	}
	return &gf, nil
}

// writeGraphFile persists graph.json at graphDir. The legacy nodes array
// is carried through untouched; discovery never writes it.
func (s *Store) writeGraphFile(graphDir string, gf *models.GraphFile) error {
	data, err := json.MarshalIndent(gf, "", "  ")
	if err != nil {
		return err
	}
	return s.fs.Write(path.Join(graphDir, graphFileName), append(data, '\n'))
}

// readIdentity loads a node's node.json, or nil when absent.
func (s *Store) readIdentity(nodeDir string) (*models.Identity, error) {
	data, err := s.fs.Read(path.Join(nodeDir, nodeFileName))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var id models.Identity
	if err := json.Unmarshal(data, &id); err != nil {
		return nil, nil // malformed identity reads as absent
	}
	return &id, nil
}

// push delivers a mutation event when a notifier is attached.
func (s *Store) push(ev models.FileChangeEvent) {
	if s.notify != nil {
		s.notify.Push(ev)
	}
}

// today returns the store's date stamp for created/resolvedAt fields.
func today() string {
	return timeNow().Format("2006-01-02")
}
