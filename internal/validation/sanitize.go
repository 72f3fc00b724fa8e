package validation

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var policy = bluemonday.StrictPolicy()

// StripHTML removes every tag from s and trims surrounding space. Entities
// the policy escapes are turned back into plain characters.
func StripHTML(s string) string {
	return strings.TrimSpace(html.UnescapeString(policy.Sanitize(s)))
}
