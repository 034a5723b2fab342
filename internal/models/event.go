package models

// EventKind classifies a file change.
type EventKind string

const (
	EventConfig     EventKind = "config"
	EventGraph      EventKind = "graph"
	EventJournal    EventKind = "journal"
	EventNode       EventKind = "node"
	EventAnnotation EventKind = "annotation"
)

// FileChangeEvent is a categorized file change. GraphPath is set for
// graph and journal events ("" for the root graph); NodeID is set for
// node and annotation events.
type FileChangeEvent struct {
	Kind      EventKind `json:"kind"`
	GraphPath string    `json:"graphPath,omitempty"`
	NodeID    string    `json:"nodeId,omitempty"`
}

// Key is the coalescing identity of the event: repeated events with the
// same key within the debounce window collapse to one delivery.
func (e FileChangeEvent) Key() string {
	switch e.Kind {
	case EventConfig:
		return "config"
	case EventGraph:
		return "graph:" + e.GraphPath
	case EventJournal:
		return "journal:" + e.GraphPath
	case EventNode:
		return "node:" + e.NodeID
	case EventAnnotation:
		return "annotation:" + e.NodeID
	}
	return string(e.Kind)
}
