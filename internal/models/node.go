package models

import "time"

// Identity is the open-schema content of node.json. Title is the only
// required field; everything else passes through Extra untouched.
type Identity struct {
	Title   string
	Type    string
	Status  string
	Created string
	Extra   map[string]any
}

// StatusActive is the identity status assigned at creation when the
// caller does not pick one.
const StatusActive = "active"

// ContentFile is one markdown file under a node's content directory.
type ContentFile struct {
	Name string `json:"name"`
	Body string `json:"body"`
}

// ViewData is a curated subset of a graph: a focal node plus the set of
// included node ids. Focal must be a member of Includes.
type ViewData struct {
	Focal    string   `json:"focal"`
	Includes []string `json:"includes"`
}

// Contains reports whether id is in Includes.
func (v *ViewData) Contains(id string) bool {
	for _, inc := range v.Includes {
		if inc == id {
			return true
		}
	}
	return false
}

// JournalSection is one context-delimited block of a journal file.
// Context "opening" is the sentinel for text preceding the first marker.
type JournalSection struct {
	Context string `json:"context"`
	Body    string `json:"body"`
}

// OpeningContext is the implicit context of text before the first marker.
const OpeningContext = "opening"

// JournalEntry is a request to append one section to a journal. When
// NodeID is set the entry targets that node's local journal, otherwise
// the journal of the addressed graph.
type JournalEntry struct {
	NodeID  string `json:"nodeId,omitempty"`
	Context string `json:"context"`
	Body    string `json:"body"`
}

// NodeDetail is the full assembly of one node directory.
type NodeDetail struct {
	ID            string           `json:"id"`
	Dir           string           `json:"dir"`
	Identity      Identity         `json:"identity"`
	Story         string           `json:"story,omitempty"`
	Content       []ContentFile    `json:"content,omitempty"`
	Annotations   []Annotation     `json:"annotations,omitempty"`
	View          *ViewData        `json:"view,omitempty"`
	Journal       []JournalSection `json:"journal,omitempty"`
	HasSubGraph   bool             `json:"hasSubGraph"`
	SubGraphTitle string           `json:"subGraphTitle,omitempty"`
	Modified      time.Time        `json:"modified"`
	Breadcrumb    []string         `json:"breadcrumb"`
}

// CreateNodeSpec describes a node to create.
type CreateNodeSpec struct {
	ID     string         `json:"id"`
	Title  string         `json:"title"`
	Type   string         `json:"type,omitempty"`
	Status string         `json:"status,omitempty"`
	Story  string         `json:"story,omitempty"`
	Extra  map[string]any `json:"extra,omitempty"`
	Edges  []Edge         `json:"edges,omitempty"`
	View   *ViewData      `json:"view,omitempty"`
}
