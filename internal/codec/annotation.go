package codec

import (
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/qinolabs/qino/internal/models"
)

const fmDelim = "---\n"

// ParseAnnotation splits an annotation file into normalized frontmatter
// and content. It returns nil unless the file starts with a complete
// "---" fenced block. Author is forced to "agent", an absent or unknown
// signal defaults to "reading", and status is kept only when it is one of
// the four lifecycle values.
func ParseAnnotation(raw string) *models.Annotation {
	if !strings.HasPrefix(raw, fmDelim) {
		return nil
	}
	rest := raw[len(fmDelim):]
	end := strings.Index(rest, "\n"+fmDelim[:3])
	if end < 0 {
		return nil
	}
	block := rest[:end]
	content := rest[end+1+len(fmDelim[:3]):]
	// The closing fence must sit on its own line.
	if content != "" && !strings.HasPrefix(content, "\n") {
		return nil
	}
	content = strings.TrimPrefix(content, "\n")

	var meta models.AnnotationMeta
	if err := yaml.Unmarshal([]byte(block), &meta); err != nil {
		return nil
	}

	meta.Author = "agent"
	if !meta.Signal.Valid() {
		meta.Signal = models.SignalReading
	}
	if meta.Status != "" && !meta.Status.Valid() {
		meta.Status = ""
	}

	return &models.Annotation{Meta: meta, Content: content}
}

// SerializeAnnotation emits frontmatter in stable field order followed by
// the content verbatim. It is the inverse of ParseAnnotation.
func SerializeAnnotation(meta models.AnnotationMeta, content string) string {
	var b strings.Builder
	b.WriteString(fmDelim)
	writeField(&b, "author", "agent")
	signal := meta.Signal
	if !signal.Valid() {
		signal = models.SignalReading
	}
	writeField(&b, "signal", string(signal))
	if meta.Target != "" {
		writeField(&b, "target", meta.Target)
	}
	writeField(&b, "created", meta.Created)
	if meta.Status != "" && meta.Status.Valid() {
		writeField(&b, "status", string(meta.Status))
	}
	if meta.ResolvedAt != "" {
		writeField(&b, "resolvedAt", meta.ResolvedAt)
	}
	b.WriteString(fmDelim)
	b.WriteString(content)
	return b.String()
}

// writeField emits one "key: value" frontmatter line, quoting values that
// would otherwise be misread by YAML.
func writeField(b *strings.Builder, key, value string) {
	b.WriteString(key)
	b.WriteString(": ")
	if needsQuoting(value) {
		out, _ := yaml.Marshal(value)
		b.WriteString(strings.TrimRight(string(out), "\n"))
	} else {
		b.WriteString(value)
	}
	b.WriteString("\n")
}

func needsQuoting(value string) bool {
	return strings.ContainsAny(value, ":#\"'\n") ||
		value != strings.TrimSpace(value)
}
