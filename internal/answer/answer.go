// Package answer compares free-text answers typed by a learner against the
// expected side of a flashcard.
package answer

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Normalize trims surrounding whitespace and lower-cases the rest, including
// non-ASCII letters. Letters are not folded: "ß" stays distinct from "ss".
func Normalize(s string) string {
	return cases.Lower(language.Und).String(strings.TrimSpace(s))
}

// Match reports whether submitted equals expected after normalization.
// There is no partial credit.
func Match(submitted, expected string) bool {
	return Normalize(submitted) == Normalize(expected)
}
