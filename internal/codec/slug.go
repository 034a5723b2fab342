package codec

import (
	"regexp"
	"strings"
)

const maxSlugLen = 60

var (
	slugStripRe    = regexp.MustCompile(`[^a-z0-9\s-]`)
	slugCollapseRe = regexp.MustCompile(`[\s-]+`)
)

// Slugify derives an annotation filename slug from free text: lowercase,
// stripped to [a-z0-9] and whitespace, whitespace runs collapsed to single
// hyphens, bounded length, trailing hyphens trimmed.
func Slugify(text string) string {
	s := strings.ToLower(text)
	s = slugStripRe.ReplaceAllString(s, "")
	s = slugCollapseRe.ReplaceAllString(strings.TrimSpace(s), "-")
	if len(s) > maxSlugLen {
		s = s[:maxSlugLen]
	}
	s = strings.TrimRight(s, "-")
	if s == "" {
		return "note"
	}
	return s
}
