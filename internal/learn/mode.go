package learn

import (
	"errors"
	"fmt"

	"github.com/conorfennell/flashlearn/internal/domain"
)

// Sentinel errors for the learn package.
var (
	ErrUnknownMode    = errors.New("learn: unknown mode")
	ErrCorruptSession = errors.New("learn: corrupt session state")
	ErrExhausted      = errors.New("learn: no flashcard left to present")
)

// Mode selects which side of each flashcard is shown as the prompt.
type Mode int

const (
	QuestionToAnswer Mode = iota + 1
	AnswerToQuestion
	Random
)

var modeNames = [...]string{
	QuestionToAnswer: "question_to_answer",
	AnswerToQuestion: "answer_to_question",
	Random:           "random",
}

// ParseMode converts a mode tag into a Mode. Unrecognized tags are rejected;
// substituting a default is left to the presentation layer.
func ParseMode(s string) (Mode, error) {
	for m, name := range modeNames {
		if m != 0 && name == s {
			return Mode(m), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// IsValid reports whether m is one of the defined modes.
func (m Mode) IsValid() bool {
	return m >= QuestionToAnswer && m <= Random
}

func (m Mode) String() string {
	if m.IsValid() {
		return modeNames[m]
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

func (m Mode) MarshalText() ([]byte, error) {
	if !m.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownMode, int(m))
	}
	return []byte(m.String()), nil
}

func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Direction is the way a single flashcard is asked.
type Direction int

const (
	Forward Direction = iota + 1 // question shown, answer expected
	Reverse                      // answer shown, question expected
)

func (d Direction) String() string {
	switch d {
	case Forward:
		return "question_to_answer"
	case Reverse:
		return "answer_to_question"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// Sides returns the prompt to show and the answer to expect for card.
func (d Direction) Sides(card domain.Flashcard) (prompt, expected string) {
	if d == Reverse {
		return card.Answer, card.Question
	}
	return card.Question, card.Answer
}
