package knol

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/conorfennell/flashlearn/internal/answer"
	"github.com/conorfennell/flashlearn/internal/domain"
)

// Normalize joins the question and answer of a draft after folding each the
// way answers are compared, so two cards a learner could not tell apart
// normalize to the same string.
func Normalize(d domain.Draft) string {
	normalizePart := func(part string) string {
		return answer.Normalize(strings.ReplaceAll(part, "\r\n", "\n"))
	}

	// Newline separation keeps "ab"+"c" and "a"+"bc" distinct.
	return normalizePart(d.Question) + "\n" + normalizePart(d.Answer)
}

// Hash returns the hex SHA-256 of the normalized draft.
func Hash(d domain.Draft) string {
	sum := sha256.Sum256([]byte(Normalize(d)))
	return fmt.Sprintf("%x", sum)
}
