package retrieval

import (
	"regexp"
	"strings"
)

var (
	camelBoundary = regexp.MustCompile(`([a-z0-9])([A-Z])`)
	nonWord       = regexp.MustCompile(`[^\p{L}\p{N}_]+`)
)

// Tokenize normalizes text for lexical indexing: camelCase and snake_case
// identifiers are split into their words, punctuation is dropped, and
// everything is lowercased. "restCallConfig" and "rest_call_config" tokenize
// identically.
func Tokenize(text string) []string {
	text = camelBoundary.ReplaceAllString(text, "$1 $2")
	text = nonWord.ReplaceAllString(text, " ")
	text = strings.ReplaceAll(text, "_", " ")

	fields := strings.Fields(strings.ToLower(text))
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if f != "" {
			tokens = append(tokens, f)
		}
	}
	return tokens
}
