package learn

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/conorfennell/flashlearn/internal/domain"
)

// MaxAttempts is how many answers a learner may give for one card.
const MaxAttempts = 2

// Rand is the source of randomness for deck shuffling and random directions.
// *rand.Rand from math/rand/v2 satisfies it.
type Rand interface {
	Shuffle(n int, swap func(i, j int))
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) Shuffle(n int, swap func(i, j int)) { rand.Shuffle(n, swap) }
func (globalRand) IntN(n int) int { return rand.IntN(n) }

// AttemptResult is what a learner did with one card during a session.
type AttemptResult struct {
	Correct  bool     `json:"correct"`
	Attempts int      `json:"attempts"`
	Answers  []string `json:"answers"`
}

// Session is an in-progress pass over a shuffled deck.
// The zero value is not usable; create sessions with New.
type Session struct {
	mode       Mode
	order      []domain.FlashcardID
	cursor     int
	total      int
	results    map[domain.FlashcardID]AttemptResult
	directions map[domain.FlashcardID]Direction
}

// New starts a session over ids in a random order. An empty ids yields a
// session that is already finished. rnd may be nil.
func New(ids []domain.FlashcardID, mode Mode, rnd Rand) (*Session, error) {
	if !mode.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownMode, int(mode))
	}
	if rnd == nil {
		rnd = globalRand{}
	}

	order := slices.Clone(ids)
	rnd.Shuffle(len(order), func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})

	return &Session{
		mode:       mode,
		order:      order,
		total:      len(order),
		results:    make(map[domain.FlashcardID]AttemptResult),
		directions: make(map[domain.FlashcardID]Direction),
	}, nil
}

func (s *Session) Mode() Mode { return s.mode }

// Total is the number of cards the session started with.
func (s *Session) Total() int { return s.total }

// Position is the zero-based index of the current card.
func (s *Session) Position() int { return s.cursor }

// Order returns a copy of the deck in presentation order.
func (s *Session) Order() []domain.FlashcardID { return slices.Clone(s.order) }

// IsFinished reports whether every card has been advanced past.
func (s *Session) IsFinished() bool {
	return s.cursor >= s.total
}

// Current returns the id of the card being asked, or false once finished.
func (s *Session) Current() (domain.FlashcardID, bool) {
	if s.IsFinished() || len(s.order) == 0 {
		return 0, false
	}
	return s.order[s.cursor], true
}

// DirectionFor returns how id is asked. Fixed modes always give the same
// answer. In Random mode the direction is drawn on first use and kept until
// the session advances past id, so a retry is asked the same way.
func (s *Session) DirectionFor(id domain.FlashcardID, rnd Rand) Direction {
	switch s.mode {
	case QuestionToAnswer:
		return Forward
	case AnswerToQuestion:
		return Reverse
	}

	if d, ok := s.directions[id]; ok {
		return d
	}
	if rnd == nil {
		rnd = globalRand{}
	}
	d := Reverse
	if rnd.IntN(2) == 0 {
		d = Forward
	}
	s.directions[id] = d
	return d
}

// RecordAttempt stores one submitted answer. attemptNumber is trusted as
// given and overwrites the stored count. Correct never reverts to false.
func (s *Session) RecordAttempt(id domain.FlashcardID, correct bool, raw string, attemptNumber int) {
	r := s.results[id]
	r.Attempts = attemptNumber
	r.Answers = append(r.Answers, raw)
	if correct {
		r.Correct = true
	}
	s.results[id] = r
}

// NextAttempt returns the number the next answer for id would carry.
func (s *Session) NextAttempt(id domain.FlashcardID) int {
	return s.results[id].Attempts + 1
}

// Result returns a copy of the recorded attempts for id.
func (s *Session) Result(id domain.FlashcardID) (AttemptResult, bool) {
	r, ok := s.results[id]
	if !ok {
		return AttemptResult{}, false
	}
	r.Answers = slices.Clone(r.Answers)
	return r, true
}

// Advance moves to the next card and forgets the direction of the card left
// behind. It does nothing once the session is finished.
func (s *Session) Advance() {
	if s.IsFinished() {
		return
	}
	delete(s.directions, s.order[s.cursor])
	s.cursor++
}

type sessionState struct {
	Mode       Mode                                 `json:"mode"`
	Order      []domain.FlashcardID                 `json:"order"`
	Cursor     int                                  `json:"cursor"`
	Total      int                                  `json:"total"`
	Results    map[domain.FlashcardID]AttemptResult `json:"results"`
	Directions map[domain.FlashcardID]Direction     `json:"directions,omitempty"`
}

func (s *Session) MarshalJSON() ([]byte, error) {
	order := s.order
	if order == nil {
		order = []domain.FlashcardID{}
	}
	return json.Marshal(sessionState{
		Mode:       s.mode,
		Order:      order,
		Cursor:     s.cursor,
		Total:      s.total,
		Results:    s.results,
		Directions: s.directions,
	})
}

// UnmarshalJSON restores a session and rejects state that breaks the
// session invariants.
func (s *Session) UnmarshalJSON(data []byte) error {
	var st sessionState
	if err := json.Unmarshal(data, &st); err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptSession, err)
	}

	switch {
	case !st.Mode.IsValid():
		return fmt.Errorf("%w: invalid mode", ErrCorruptSession)
	case st.Total != len(st.Order):
		return fmt.Errorf("%w: total %d does not match deck of %d", ErrCorruptSession, st.Total, len(st.Order))
	case st.Cursor < 0 || st.Cursor > st.Total:
		return fmt.Errorf("%w: cursor %d out of range", ErrCorruptSession, st.Cursor)
	}
	for id, d := range st.Directions {
		if d != Forward && d != Reverse {
			return fmt.Errorf("%w: invalid direction for flashcard %d", ErrCorruptSession, id)
		}
	}

	if st.Results == nil {
		st.Results = make(map[domain.FlashcardID]AttemptResult)
	}
	if st.Directions == nil {
		st.Directions = make(map[domain.FlashcardID]Direction)
	}

	*s = Session{
		mode:       st.Mode,
		order:      st.Order,
		cursor:     st.Cursor,
		total:      st.Total,
		results:    st.Results,
		directions: st.Directions,
	}
	return nil
}
