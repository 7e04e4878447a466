// Package parser reads flashcards written in Markdown files:
//
//	Q: What is the capital of France?
//	A: Paris
//	C: optional note, ignored
//	---
//
// Blocks may span several lines. A new Q: or a --- line ends the card.
package parser

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/conorfennell/flashlearn/internal/domain"
)

const (
	questionPrefix = "Q:"
	answerPrefix   = "A:"
	notePrefix     = "C:"
	separator      = "---"
)

type state int

const (
	seeking state = iota
	readingQuestion
	readingAnswer
	readingNote
)

// ParseFile reads a file from the given path and extracts all drafts.
func ParseFile(path string) ([]domain.Draft, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return Parse(file)
}

type cardBuilder struct {
	drafts  []domain.Draft
	current domain.Draft
	block   []string
	state   state
	skipped int
}

// flushBlock stores the lines collected so far in the field being read.
func (b *cardBuilder) flushBlock() {
	if len(b.block) == 0 {
		return
	}
	content := strings.TrimRight(strings.Join(b.block, "\n"), "\n ")
	switch b.state {
	case readingQuestion:
		b.current.Question = content
	case readingAnswer:
		b.current.Answer = content
	}
	b.block = nil
}

// finish closes the current card. Cards without both sides are dropped.
func (b *cardBuilder) finish() {
	b.flushBlock()
	switch {
	case b.current.Question != "" && b.current.Answer != "":
		b.drafts = append(b.drafts, b.current)
	case b.current != (domain.Draft{}):
		b.skipped++
	}
	b.current = domain.Draft{}
	b.state = seeking
}

func (b *cardBuilder) start(next state, line, prefix string) {
	b.flushBlock()
	b.state = next
	b.block = append(b.block, strings.TrimPrefix(line[len(prefix):], " "))
}

// Parse reads from an io.Reader and extracts all drafts.
func Parse(r io.Reader) ([]domain.Draft, error) {
	drafts, _, err := parse(r)
	return drafts, err
}

// ParseCounting is Parse that also reports how many incomplete cards were
// dropped.
func ParseCounting(r io.Reader) ([]domain.Draft, int, error) {
	return parse(r)
}

func parse(r io.Reader) ([]domain.Draft, int, error) {
	scanner := bufio.NewScanner(r)
	b := &cardBuilder{}

	for scanner.Scan() {
		line := strings.TrimSuffix(scanner.Text(), "\r")

		switch {
		case strings.TrimSpace(line) == separator:
			b.finish()
		case strings.HasPrefix(line, questionPrefix):
			if b.state != seeking { // A new question always starts a new card
				b.finish()
			}
			b.start(readingQuestion, line, questionPrefix)
		case strings.HasPrefix(line, answerPrefix):
			b.start(readingAnswer, line, answerPrefix)
		case strings.HasPrefix(line, notePrefix):
			b.start(readingNote, line, notePrefix)
		case b.state != seeking:
			b.block = append(b.block, line)
		}
	}

	b.finish() // Finish the very last card in the file

	if err := scanner.Err(); err != nil {
		return nil, 0, err
	}
	return b.drafts, b.skipped, nil
}
