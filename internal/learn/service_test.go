package learn

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conorfennell/flashlearn/internal/domain"
	"github.com/conorfennell/flashlearn/internal/srs"
)

type fakeStore struct {
	cards     map[domain.FlashcardID]domain.Flashcard
	schedules map[domain.FlashcardID]srs.Schedule
	upserts   int
	saveErr   error
}

func newFakeStore(cards ...domain.Flashcard) *fakeStore {
	fs := &fakeStore{
		cards:     make(map[domain.FlashcardID]domain.Flashcard),
		schedules: make(map[domain.FlashcardID]srs.Schedule),
	}
	for _, c := range cards {
		fs.cards[c.ID] = c
	}
	return fs
}

func (f *fakeStore) FlashcardIDs(_ context.Context, userID domain.UserID) ([]domain.FlashcardID, error) {
	var out []domain.FlashcardID
	for id, c := range f.cards {
		if c.UserID == userID {
			out = append(out, id)
		}
	}
	return out, nil
}

func (f *fakeStore) FindFlashcard(_ context.Context, id domain.FlashcardID) (*domain.Flashcard, error) {
	c, ok := f.cards[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (f *fakeStore) FindSchedule(_ context.Context, id domain.FlashcardID) (*srs.Schedule, error) {
	s, ok := f.schedules[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (f *fakeStore) UpsertSchedule(_ context.Context, id domain.FlashcardID, s srs.Schedule) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.upserts++
	f.schedules[id] = s
	return nil
}

var clock = time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)

func newTestService(store *fakeStore, rnd Rand) *Service {
	return NewService(store, store,
		WithRand(rnd),
		WithClock(func() time.Time { return clock }),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
}

func capitals() *fakeStore {
	return newFakeStore(
		domain.Flashcard{ID: 1, UserID: 7, Question: "France", Answer: "Paris"},
		domain.Flashcard{ID: 2, UserID: 7, Question: "Poland", Answer: "Warszawa"},
		domain.Flashcard{ID: 3, UserID: 8, Question: "Spain", Answer: "Madrid"},
	)
}

func TestServiceStart(t *testing.T) {
	svc := newTestService(capitals(), &stubRand{draws: []int{0}})

	sess, err := svc.Start(context.Background(), 7, Random)
	require.NoError(t, err)
	assert.ElementsMatch(t, []domain.FlashcardID{1, 2}, sess.Order())

	empty, err := svc.Start(context.Background(), 99, QuestionToAnswer)
	require.NoError(t, err)
	assert.True(t, empty.IsFinished())

	_, err = svc.Start(context.Background(), 7, Mode(0))
	require.ErrorIs(t, err, ErrUnknownMode)
}

func TestServiceCorrectFirstAttempt(t *testing.T) {
	store := capitals()
	svc := newTestService(store, &stubRand{draws: []int{0}})
	sess, err := New([]domain.FlashcardID{1, 2}, QuestionToAnswer, &stubRand{draws: []int{0}})
	require.NoError(t, err)

	p, err := svc.Present(context.Background(), sess)
	require.NoError(t, err)
	assert.Equal(t, "France", p.Text)
	assert.Equal(t, 1, p.Attempt)
	assert.Equal(t, 1, p.Position)
	assert.Equal(t, 2, p.Total)
	assert.Nil(t, p.Previous)

	out, err := svc.Submit(context.Background(), sess, "  paris ")
	require.NoError(t, err)
	assert.True(t, out.Correct)
	assert.True(t, out.Advanced)
	require.NotNil(t, out.Schedule)
	assert.Equal(t, 2.6, out.Schedule.EaseFactor)
	assert.Equal(t, 3, out.Schedule.IntervalDays)
	assert.Equal(t, clock.AddDate(0, 0, 3), out.Schedule.NextReviewAt)
	assert.Equal(t, 1, store.upserts)
	assert.Equal(t, 1, sess.Position())
}

func TestServiceRetryThenCorrect(t *testing.T) {
	store := capitals()
	rnd := &stubRand{draws: []int{1}}
	svc := newTestService(store, rnd)
	sess, err := New([]domain.FlashcardID{2}, Random, rnd)
	require.NoError(t, err)

	p, err := svc.Present(context.Background(), sess)
	require.NoError(t, err)
	assert.Equal(t, Reverse, p.Direction)
	assert.Equal(t, "Warszawa", p.Text)

	out, err := svc.Submit(context.Background(), sess, "Germany")
	require.NoError(t, err)
	assert.False(t, out.Correct)
	assert.False(t, out.Advanced)
	assert.Nil(t, out.Schedule)
	assert.Equal(t, "Poland", out.Expected)
	assert.Equal(t, 0, store.upserts, "no schedule update after a wrong first attempt")
	assert.Equal(t, 0, sess.Position())

	p, err = svc.Present(context.Background(), sess)
	require.NoError(t, err)
	assert.Equal(t, Reverse, p.Direction, "retry keeps the direction")
	assert.Equal(t, 2, p.Attempt)
	require.NotNil(t, p.Previous)
	assert.Equal(t, []string{"Germany"}, p.Previous.Answers)

	out, err = svc.Submit(context.Background(), sess, "POLAND")
	require.NoError(t, err)
	assert.True(t, out.Correct)
	assert.True(t, out.Advanced)
	assert.Equal(t, 1, store.upserts)
	assert.Equal(t, 1, rnd.calls, "direction drawn once for the card")

	r, ok := sess.Result(2)
	require.True(t, ok)
	assert.Equal(t, AttemptResult{Correct: true, Attempts: 2, Answers: []string{"Germany", "POLAND"}}, r)
	assert.Equal(t, 2.6, store.schedules[2].EaseFactor)
	assert.Equal(t, 1, sess.Position())
	assert.True(t, sess.IsFinished())
}

func TestServiceTwoWrongAnswers(t *testing.T) {
	store := capitals()
	store.schedules[1] = srs.Schedule{EaseFactor: 2.5, IntervalDays: 10, RepetitionCount: 3}
	svc := newTestService(store, &stubRand{draws: []int{0}})
	sess, err := New([]domain.FlashcardID{1}, QuestionToAnswer, nil)
	require.NoError(t, err)

	_, err = svc.Submit(context.Background(), sess, "Lyon")
	require.NoError(t, err)
	out, err := svc.Submit(context.Background(), sess, "Nice")
	require.NoError(t, err)

	assert.False(t, out.Correct)
	assert.True(t, out.Advanced)
	assert.Equal(t, 1, store.upserts)
	got := store.schedules[1]
	assert.Equal(t, 2.3, got.EaseFactor)
	assert.Equal(t, 1, got.IntervalDays)
	assert.Equal(t, 4, got.RepetitionCount)
	assert.True(t, sess.IsFinished())

	sum := Summarize(sess)
	assert.Equal(t, Summary{Total: 1, Incorrect: 1}, sum)
}

func TestServiceExhausted(t *testing.T) {
	store := capitals()
	svc := newTestService(store, &stubRand{draws: []int{0}})

	finished, err := New(nil, QuestionToAnswer, nil)
	require.NoError(t, err)
	_, err = svc.Present(context.Background(), finished)
	require.ErrorIs(t, err, ErrExhausted)
	_, err = svc.Submit(context.Background(), finished, "x")
	require.ErrorIs(t, err, ErrExhausted)

	vanished, err := New([]domain.FlashcardID{404}, QuestionToAnswer, nil)
	require.NoError(t, err)
	_, err = svc.Present(context.Background(), vanished)
	require.ErrorIs(t, err, ErrExhausted)
}

func TestServiceScheduleSaveFailureDoesNotAdvance(t *testing.T) {
	store := capitals()
	store.saveErr = errors.New("disk full")
	svc := newTestService(store, &stubRand{draws: []int{0}})
	sess, err := New([]domain.FlashcardID{1}, QuestionToAnswer, nil)
	require.NoError(t, err)

	_, err = svc.Submit(context.Background(), sess, "Paris")
	require.Error(t, err)
	assert.Equal(t, 0, sess.Position())
}
