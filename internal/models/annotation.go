package models

// Signal is the annotation category.
type Signal string

// Valid signals. An unknown signal degrades to SignalReading at parse time.
const (
	SignalReading    Signal = "reading"
	SignalConnection Signal = "connection"
	SignalTension    Signal = "tension"
	SignalProposal   Signal = "proposal"
)

// Valid reports whether s is one of the four known signals.
func (s Signal) Valid() bool {
	switch s {
	case SignalReading, SignalConnection, SignalTension, SignalProposal:
		return true
	}
	return false
}

// Actionable reports whether annotations of this signal surface as
// action items.
func (s Signal) Actionable() bool {
	return s == SignalProposal || s == SignalTension
}

// Status is the annotation lifecycle state. The zero value means the
// status field is absent, which reads as open.
type Status string

const (
	StatusOpen      Status = "open"
	StatusAccepted  Status = "accepted"
	StatusResolved  Status = "resolved"
	StatusDismissed Status = "dismissed"
)

// Valid reports whether s is one of the four lifecycle states.
func (s Status) Valid() bool {
	switch s {
	case StatusOpen, StatusAccepted, StatusResolved, StatusDismissed:
		return true
	}
	return false
}

// Effective maps the absent status to open.
func (s Status) Effective() Status {
	if s == "" {
		return StatusOpen
	}
	return s
}

// NeedsAttention reports whether an annotation in this status should be
// surfaced: open or accepted, but not resolved or dismissed. This is the
// single definition of the attention rule; graph assembly, the index, and
// the MCP tools all go through it.
func (s Status) NeedsAttention() bool {
	eff := s.Effective()
	return eff == StatusOpen || eff == StatusAccepted
}

// AnnotationMeta is the frontmatter of an annotation file. Author is
// always "agent"; Created and ResolvedAt are ISO dates kept as strings.
type AnnotationMeta struct {
	Author     string `json:"author" yaml:"author"`
	Signal     Signal `json:"signal" yaml:"signal"`
	Target     string `json:"target,omitempty" yaml:"target,omitempty"`
	Created    string `json:"created,omitempty" yaml:"created,omitempty"`
	Status     Status `json:"status,omitempty" yaml:"status,omitempty"`
	ResolvedAt string `json:"resolvedAt,omitempty" yaml:"resolvedAt,omitempty"`
}

// Annotation is a parsed annotation file. Filename is the NNN-slug.md
// name within the node's annotations directory.
type Annotation struct {
	Filename string         `json:"filename"`
	Meta     AnnotationMeta `json:"meta"`
	Content  string         `json:"content"`
}
