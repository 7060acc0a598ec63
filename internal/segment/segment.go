package segment

import (
	"regexp"
	"strings"
)

// Sentence terminators. Runs of terminators (e.g. "?!" or "...") end one
// sentence, not several.
var terminatorRe = regexp.MustCompile(`[.!?]+`)

// Split breaks text into trimmed sentence units at punctuation boundaries.
// Empty units are dropped; the terminators themselves are not kept.
func Split(text string) []string {
	parts := terminatorRe.Split(text, -1)

	sentences := make([]string, 0, len(parts))
	for _, part := range parts {
		s := strings.TrimSpace(part)
		if s != "" {
			sentences = append(sentences, s)
		}
	}
	return sentences
}

// Words tokenizes text into a set of lower-cased whitespace-delimited words.
// Shared by the keyword scanners and the lexical fallback heuristics.
func Words(text string) map[string]struct{} {
	fields := strings.Fields(strings.ToLower(text))
	words := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		words[f] = struct{}{}
	}
	return words
}
