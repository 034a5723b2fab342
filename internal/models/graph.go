// Package models defines the domain types for Qino.
package models

import "time"

// DefaultNodesDir is the directory graphs keep their node directories in
// when graph.json does not override it.
const DefaultNodesDir = "nodes"

// GraphFile is the persisted shape of graph.json. The Nodes array is a
// legacy export field: it is read for per-entry merging but never written
// back, and it never decides node existence.
type GraphFile struct {
	ID       string        `json:"id"`
	Title    string        `json:"title"`
	NodesDir string        `json:"nodesDir,omitempty"`
	Edges    []Edge        `json:"edges"`
	Nodes    []LegacyEntry `json:"nodes,omitempty"`
}

// EffectiveNodesDir returns NodesDir or the default.
func (g *GraphFile) EffectiveNodesDir() string {
	if g.NodesDir == "" {
		return DefaultNodesDir
	}
	return g.NodesDir
}

// LegacyEntry is one element of the optional graph.json nodes array.
type LegacyEntry struct {
	ID     string `json:"id"`
	Title  string `json:"title,omitempty"`
	Type   string `json:"type,omitempty"`
	Status string `json:"status,omitempty"`
}

// Edge is a directed, typed relationship between two node ids.
// graph.json is its sole owner.
type Edge struct {
	Source  string `json:"source"`
	Target  string `json:"target"`
	Type    string `json:"type,omitempty"`
	Context string `json:"context,omitempty"`
}

// EdgeTypeCurates marks edges materialized from a node's view.
const EdgeTypeCurates = "curates"

// EdgeContextFocal marks the curates edge pointing at the view's focal node.
const EdgeContextFocal = "focal"

// NodeEntry is one discovered node in a graph listing. The id is the
// directory name; flags and Modified are derived from the filesystem.
type NodeEntry struct {
	ID          string    `json:"id"`
	Dir         string    `json:"dir"`
	Title       string    `json:"title"`
	Type        string    `json:"type,omitempty"`
	Status      string    `json:"status,omitempty"`
	HasSubGraph bool      `json:"hasSubGraph"`
	HasView     bool      `json:"hasView"`
	HasJournal  bool      `json:"hasJournal"`
	Modified    time.Time `json:"modified"`
}

// Graph is the assembled view of one graph.json scope.
type Graph struct {
	ID       string      `json:"id"`
	Title    string      `json:"title"`
	NodesDir string      `json:"nodesDir"`
	Nodes    []NodeEntry `json:"nodes"`
	Edges    []Edge      `json:"edges"`
}

// GraphDetail bundles a graph with its journal and derived indexes.
type GraphDetail struct {
	Graph        Graph               `json:"graph"`
	Journal      []JournalSection    `json:"journal"`
	AgentSignals map[string][]string `json:"agentSignals"`
	ActionItems  []ActionItem        `json:"actionItems"`
}

// ActionItem surfaces a proposal or tension annotation that still needs
// attention, ordered most recent first.
type ActionItem struct {
	NodeID    string    `json:"nodeId"`
	NodeTitle string    `json:"nodeTitle,omitempty"`
	Filename  string    `json:"filename"`
	Signal    Signal    `json:"signal"`
	Status    Status    `json:"status"`
	Created   string    `json:"created,omitempty"`
	Target    string    `json:"target,omitempty"`
	Modified  time.Time `json:"modified"`
}
