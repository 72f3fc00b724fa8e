package blog

import (
	"regexp"
	"strings"
)

const maxSlugWords = 30

var nonSlugChars = regexp.MustCompile(`[^a-z0-9\s]`)

// GenerateSlug lowercases title, drops everything but letters, digits and
// whitespace, and joins the first 30 words with hyphens.
func GenerateSlug(title string) string {
	cleaned := nonSlugChars.ReplaceAllString(strings.ToLower(title), "")
	words := strings.Fields(cleaned)
	if len(words) > maxSlugWords {
		words = words[:maxSlugWords]
	}
	return strings.Join(words, "-")
}
