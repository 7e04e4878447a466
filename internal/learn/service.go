package learn

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/conorfennell/flashlearn/internal/answer"
	"github.com/conorfennell/flashlearn/internal/domain"
	"github.com/conorfennell/flashlearn/internal/srs"
)

// FlashcardStore resolves the cards a session is built from.
// FindFlashcard returns nil, nil when the card does not exist.
type FlashcardStore interface {
	FlashcardIDs(ctx context.Context, userID domain.UserID) ([]domain.FlashcardID, error)
	FindFlashcard(ctx context.Context, id domain.FlashcardID) (*domain.Flashcard, error)
}

// ScheduleStore persists review schedules.
// FindSchedule returns nil, nil for a card that was never reviewed.
type ScheduleStore interface {
	FindSchedule(ctx context.Context, id domain.FlashcardID) (*srs.Schedule, error)
	UpsertSchedule(ctx context.Context, id domain.FlashcardID, s srs.Schedule) error
}

// Prompt is what the learner sees for the current card.
type Prompt struct {
	Flashcard domain.Flashcard
	Direction Direction
	Text      string
	Attempt   int
	Position  int // one-based
	Total     int
	Previous  *AttemptResult
}

// Outcome describes the effect of one submitted answer.
type Outcome struct {
	FlashcardID domain.FlashcardID
	Correct     bool
	Attempt     int
	Expected    string
	// Advanced is set when the card is done: answered correctly or out of
	// attempts. Schedule then holds the stored review state.
	Advanced bool
	Schedule *srs.Schedule
}

// Service runs the review loop: it resolves cards, checks answers, applies
// the retry policy and records review schedules. Sessions themselves are
// stored by the caller after every call that takes one.
type Service struct {
	cards     FlashcardStore
	schedules ScheduleStore
	rand      Rand
	now       func() time.Time
	logger    *slog.Logger
}

type Option func(*Service)

// WithRand sets the randomness used for shuffling and random directions.
func WithRand(r Rand) Option {
	return func(s *Service) { s.rand = r }
}

// WithClock sets the time source used for review timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

func NewService(cards FlashcardStore, schedules ScheduleStore, opts ...Option) *Service {
	s := &Service{
		cards:     cards,
		schedules: schedules,
		rand:      globalRand{},
		now:       time.Now,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start builds a session over every flashcard the user owns.
// A user without flashcards gets a finished session.
func (s *Service) Start(ctx context.Context, userID domain.UserID, mode Mode) (*Session, error) {
	ids, err := s.cards.FlashcardIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load flashcards for user %d: %w", userID, err)
	}
	sess, err := New(ids, mode, s.rand)
	if err != nil {
		return nil, err
	}
	s.logger.Info("learn session started", "user_id", userID, "mode", mode, "total", sess.Total())
	return sess, nil
}

// Present returns the prompt for the current card. It returns ErrExhausted
// when the session is finished or the card has been deleted meanwhile.
// In Random mode the first call for a card fixes its direction, so the
// session must be stored afterwards.
func (s *Service) Present(ctx context.Context, sess *Session) (*Prompt, error) {
	card, err := s.current(ctx, sess)
	if err != nil {
		return nil, err
	}

	dir := sess.DirectionFor(card.ID, s.rand)
	text, _ := dir.Sides(*card)
	p := &Prompt{
		Flashcard: *card,
		Direction: dir,
		Text:      text,
		Attempt:   sess.NextAttempt(card.ID),
		Position:  sess.Position() + 1,
		Total:     sess.Total(),
	}
	if r, ok := sess.Result(card.ID); ok {
		p.Previous = &r
	}
	return p, nil
}

// Submit checks an answer for the current card. A correct answer, or any
// answer on the last attempt, ends the card: its schedule is updated once
// with that outcome and the session advances. A wrong first answer leaves
// the card in place for a retry in the same direction.
func (s *Service) Submit(ctx context.Context, sess *Session, raw string) (*Outcome, error) {
	card, err := s.current(ctx, sess)
	if err != nil {
		return nil, err
	}

	dir := sess.DirectionFor(card.ID, s.rand)
	_, expected := dir.Sides(*card)
	correct := answer.Match(raw, expected)
	attempt := sess.NextAttempt(card.ID)
	sess.RecordAttempt(card.ID, correct, raw, attempt)

	out := &Outcome{
		FlashcardID: card.ID,
		Correct:     correct,
		Attempt:     attempt,
		Expected:    expected,
	}
	if !correct && attempt < MaxAttempts {
		return out, nil
	}

	sched, err := s.review(ctx, card.ID, correct)
	if err != nil {
		return nil, err
	}
	sess.Advance()

	out.Advanced = true
	out.Schedule = &sched
	return out, nil
}

func (s *Service) current(ctx context.Context, sess *Session) (*domain.Flashcard, error) {
	id, ok := sess.Current()
	if !ok {
		return nil, ErrExhausted
	}
	card, err := s.cards.FindFlashcard(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load flashcard %d: %w", id, err)
	}
	if card == nil {
		s.logger.Warn("flashcard vanished during session", "flashcard_id", id)
		return nil, ErrExhausted
	}
	return card, nil
}

func (s *Service) review(ctx context.Context, id domain.FlashcardID, correct bool) (srs.Schedule, error) {
	prior, err := s.schedules.FindSchedule(ctx, id)
	if err != nil {
		return srs.Schedule{}, fmt.Errorf("failed to load schedule for flashcard %d: %w", id, err)
	}
	if prior == nil {
		fresh := srs.NewSchedule()
		prior = &fresh
	}

	next := srs.Apply(*prior, correct, s.now())
	if err := s.schedules.UpsertSchedule(ctx, id, next); err != nil {
		return srs.Schedule{}, fmt.Errorf("failed to save schedule for flashcard %d: %w", id, err)
	}

	s.logger.Debug("flashcard reviewed",
		"flashcard_id", id,
		"correct", correct,
		"ease_factor", next.EaseFactor,
		"interval_days", next.IntervalDays,
	)
	return next, nil
}
