// Package generator turns a block of source text into flashcard drafts,
// either through an OpenAI-compatible chat model or a local mock.
package generator

import (
	"context"
	"fmt"
	"strings"

	"github.com/conorfennell/flashlearn/internal/domain"
)

const (
	MinSourceWords = 5
	MaxSourceWords = 1000

	minCards = 3
	maxCards = 10
)

// Generator produces flashcard drafts from source text.
type Generator interface {
	Generate(ctx context.Context, text string) (*Result, error)
	// ModelID returns the model the generator uses.
	ModelID() string
}

type Result struct {
	Drafts []domain.Draft
	Usage  Usage
	Model  string
}

// Usage reports token consumption for a single call.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// WordCount counts whitespace separated words.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// SuggestedCount is the number of cards to ask for, one per thirty words,
// clamped to [3, 10].
func SuggestedCount(words int) int {
	return min(maxCards, max(minCards, words/30))
}

// CheckSource rejects texts outside the accepted word range.
func CheckSource(text string) (int, error) {
	n := WordCount(text)
	switch {
	case n < MinSourceWords:
		return n, &ErrSourceLength{Words: n, Msg: fmt.Sprintf("source text must contain at least %d words", MinSourceWords)}
	case n > MaxSourceWords:
		return n, &ErrSourceLength{Words: n, Msg: fmt.Sprintf("source text cannot contain more than %d words", MaxSourceWords)}
	}
	return n, nil
}

// cleanDrafts trims each draft, drops empty ones and caps the list.
func cleanDrafts(in []domain.Draft) []domain.Draft {
	out := make([]domain.Draft, 0, len(in))
	for _, d := range in {
		q, a := strings.TrimSpace(d.Question), strings.TrimSpace(d.Answer)
		if q == "" || a == "" {
			continue
		}
		out = append(out, domain.Draft{Question: q, Answer: a})
		if len(out) == maxCards {
			break
		}
	}
	return out
}
