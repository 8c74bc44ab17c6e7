package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// StrictPolicy removes all HTML tags and attributes.
var StrictPolicy = bluemonday.StrictPolicy()

const maxPasses = 8

// Text strips all markup from user-supplied event text and returns it as
// plain, trimmed text. Entities are decoded before the policy runs, and the
// pass repeats until the text is stable, so encoded markup is stripped like
// literal markup. Input that never settles is returned policy-escaped.
func Text(input string) string {
	out := input
	for i := 0; i < maxPasses; i++ {
		next := html.UnescapeString(StrictPolicy.Sanitize(html.UnescapeString(out)))
		if next == out {
			return strings.TrimSpace(out)
		}
		out = next
	}
	return strings.TrimSpace(StrictPolicy.Sanitize(out))
}
