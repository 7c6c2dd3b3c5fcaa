package mobilecontent

import (
	"html"
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
)

// strict strips every HTML element and attribute, leaving text content only.
var strict = bluemonday.StrictPolicy()

// SanitizeText neutralizes free-text input before persistence: markup is
// stripped, control characters are dropped, runs of whitespace collapse to a
// single space, and the result is trimmed. Semantic content is otherwise left
// alone.
func SanitizeText(s string) string {
	// The policy entity-escapes whatever text survives; undo that so only
	// markup is removed, not character content.
	s = html.UnescapeString(strict.Sanitize(s))

	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			space = true
		case unicode.IsControl(r):
			// drop
		default:
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
		}
	}
	return b.String()
}
