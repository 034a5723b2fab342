// Package codec implements the lossless text formats of the workspace:
// context-delimited journal markdown and annotation frontmatter. Parsing
// never returns an error; malformed input degrades to nil or defaults.
package codec

import (
	"regexp"
	"strings"

	"github.com/qinolabs/qino/internal/models"
)

// markerRe matches a journal section boundary line, e.g.
// "<!-- context: node/alpha -->".
var markerRe = regexp.MustCompile(`^<!-- context: (.+?) -->\s*$`)

// ParseJournalSections splits raw journal markdown into ordered sections.
// Text before the first marker becomes one "opening" section (omitted when
// empty). Sections with empty bodies are dropped and bodies are trimmed.
func ParseJournalSections(raw string) []models.JournalSection {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	var out []models.JournalSection
	current := models.JournalSection{Context: models.OpeningContext}
	var body []string

	flush := func() {
		current.Body = strings.TrimSpace(strings.Join(body, "\n"))
		if current.Body != "" {
			out = append(out, current)
		}
		body = body[:0]
	}

	for _, line := range strings.Split(raw, "\n") {
		if m := markerRe.FindStringSubmatch(line); m != nil {
			flush()
			current = models.JournalSection{Context: strings.TrimSpace(m[1])}
			continue
		}
		body = append(body, line)
	}
	flush()

	return out
}

// SectionsToMarkdown serializes sections back to journal markdown.
// "opening" emits no marker; other contexts emit a marker line followed by
// a blank line. Sections with empty or whitespace bodies are skipped. The
// output always ends with exactly one trailing newline.
func SectionsToMarkdown(sections []models.JournalSection) string {
	var parts []string
	for _, s := range sections {
		body := strings.TrimSpace(s.Body)
		if body == "" {
			continue
		}
		if s.Context == models.OpeningContext {
			parts = append(parts, body)
		} else {
			parts = append(parts, "<!-- context: "+s.Context+" -->\n\n"+body)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, "\n\n") + "\n"
}
