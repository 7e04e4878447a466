package learn

import (
	"encoding/json"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conorfennell/flashlearn/internal/domain"
)

// stubRand keeps deck order and returns scripted IntN draws.
type stubRand struct {
	draws []int
	calls int
}

func (r *stubRand) Shuffle(int, func(i, j int)) {}

func (r *stubRand) IntN(int) int {
	v := r.draws[r.calls%len(r.draws)]
	r.calls++
	return v
}

func ids(n int) []domain.FlashcardID {
	out := make([]domain.FlashcardID, n)
	for i := range out {
		out[i] = domain.FlashcardID(i + 1)
	}
	return out
}

func TestNewIsPermutation(t *testing.T) {
	rnd := rand.New(rand.NewPCG(7, 11))
	for _, n := range []int{1, 2, 5, 40} {
		input := ids(n)
		sess, err := New(input, QuestionToAnswer, rnd)
		require.NoError(t, err)

		assert.Equal(t, n, sess.Total())
		assert.Equal(t, 0, sess.Position())
		assert.ElementsMatch(t, input, sess.Order())
		assert.False(t, sess.IsFinished())
	}
}

func TestNewKeepsDuplicates(t *testing.T) {
	input := []domain.FlashcardID{3, 3, 9}
	sess, err := New(input, Random, nil)
	require.NoError(t, err)
	assert.ElementsMatch(t, input, sess.Order())
	assert.Equal(t, 3, sess.Total())
}

func TestNewDoesNotAliasInput(t *testing.T) {
	input := ids(10)
	_, err := New(input, QuestionToAnswer, rand.New(rand.NewPCG(1, 2)))
	require.NoError(t, err)
	assert.Equal(t, ids(10), input)
}

func TestNewEmptyDeckIsFinished(t *testing.T) {
	sess, err := New(nil, AnswerToQuestion, nil)
	require.NoError(t, err)

	assert.True(t, sess.IsFinished())
	assert.Equal(t, 0, sess.Total())
	_, ok := sess.Current()
	assert.False(t, ok)

	sess.Advance()
	assert.Equal(t, 0, sess.Position(), "advance on a finished session must not move the cursor")
}

func TestNewRejectsUnknownMode(t *testing.T) {
	_, err := New(ids(3), Mode(42), nil)
	require.ErrorIs(t, err, ErrUnknownMode)
}

func TestAdvanceToCompletion(t *testing.T) {
	const total = 6
	sess, err := New(ids(total), QuestionToAnswer, &stubRand{draws: []int{0}})
	require.NoError(t, err)

	for i := 0; i < total-1; i++ {
		id, ok := sess.Current()
		require.True(t, ok)
		assert.Equal(t, domain.FlashcardID(i+1), id)
		sess.Advance()
	}
	assert.False(t, sess.IsFinished())

	sess.Advance()
	assert.True(t, sess.IsFinished())
	assert.Equal(t, total, sess.Position())

	sess.Advance()
	assert.Equal(t, total, sess.Position())
}

func TestDirectionForFixedModes(t *testing.T) {
	rnd := &stubRand{draws: []int{1}}

	forward, err := New(ids(3), QuestionToAnswer, rnd)
	require.NoError(t, err)
	reverse, err := New(ids(3), AnswerToQuestion, rnd)
	require.NoError(t, err)

	for _, id := range ids(3) {
		for i := 0; i < 3; i++ {
			assert.Equal(t, Forward, forward.DirectionFor(id, rnd))
			assert.Equal(t, Reverse, reverse.DirectionFor(id, rnd))
		}
	}
	assert.Equal(t, 0, rnd.calls, "fixed modes must not draw")
}

func TestDirectionForRandomIsMemoizedUntilAdvance(t *testing.T) {
	rnd := &stubRand{draws: []int{1, 0}}
	sess, err := New(ids(2), Random, rnd)
	require.NoError(t, err)

	first, _ := sess.Current()
	assert.Equal(t, Reverse, sess.DirectionFor(first, rnd))
	sess.RecordAttempt(first, false, "wrong", 1)
	assert.Equal(t, Reverse, sess.DirectionFor(first, rnd), "retry must keep the direction")
	assert.Equal(t, 1, rnd.calls)

	sess.Advance()
	second, _ := sess.Current()
	assert.Equal(t, Forward, sess.DirectionFor(second, rnd))
	assert.Equal(t, 2, rnd.calls)
}

func TestRecordAttempt(t *testing.T) {
	sess, err := New(ids(1), QuestionToAnswer, nil)
	require.NoError(t, err)
	id := domain.FlashcardID(1)

	assert.Equal(t, 1, sess.NextAttempt(id))
	_, ok := sess.Result(id)
	assert.False(t, ok)

	sess.RecordAttempt(id, false, "Lyon", 1)
	assert.Equal(t, 2, sess.NextAttempt(id))

	sess.RecordAttempt(id, true, "Paris", 2)
	r, ok := sess.Result(id)
	require.True(t, ok)
	assert.Equal(t, AttemptResult{Correct: true, Attempts: 2, Answers: []string{"Lyon", "Paris"}}, r)

	sess.RecordAttempt(id, false, "Nice", 3)
	r, _ = sess.Result(id)
	assert.True(t, r.Correct, "correct never reverts to false")
	assert.Equal(t, 3, r.Attempts)

	r.Answers[0] = "mutated"
	again, _ := sess.Result(id)
	assert.Equal(t, "Lyon", again.Answers[0], "Result must return a copy")
}

func TestSessionJSONRoundTrip(t *testing.T) {
	rnd := &stubRand{draws: []int{1}}
	sess, err := New(ids(4), Random, rnd)
	require.NoError(t, err)

	first, _ := sess.Current()
	sess.DirectionFor(first, rnd)
	sess.RecordAttempt(first, true, "ok", 1)
	sess.Advance()
	second, _ := sess.Current()
	sess.DirectionFor(second, rnd)
	sess.RecordAttempt(second, false, "nope", 1)

	data, err := json.Marshal(sess)
	require.NoError(t, err)

	var restored Session
	require.NoError(t, json.Unmarshal(data, &restored))

	assert.Equal(t, sess.Mode(), restored.Mode())
	assert.Equal(t, sess.Order(), restored.Order())
	assert.Equal(t, sess.Position(), restored.Position())
	assert.Equal(t, sess.Total(), restored.Total())
	for _, id := range ids(4) {
		want, wantOK := sess.Result(id)
		got, gotOK := restored.Result(id)
		assert.Equal(t, wantOK, gotOK)
		assert.Equal(t, want, got)
	}

	// The memoized direction survives, so no new draw happens.
	calls := rnd.calls
	assert.Equal(t, Reverse, restored.DirectionFor(second, rnd))
	assert.Equal(t, calls, rnd.calls)
}

func TestSessionJSONEmptyDeck(t *testing.T) {
	sess, err := New(nil, QuestionToAnswer, nil)
	require.NoError(t, err)

	data, err := json.Marshal(sess)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"mode":"question_to_answer"`)

	var restored Session
	require.NoError(t, json.Unmarshal(data, &restored))
	assert.True(t, restored.IsFinished())
}

func TestSessionJSONRejectsBrokenInvariants(t *testing.T) {
	testCases := []struct {
		name string
		data string
	}{
		{name: "unknown mode", data: `{"mode":"sideways","order":[1],"cursor":0,"total":1}`},
		{name: "missing mode", data: `{"order":[1],"cursor":0,"total":1}`},
		{name: "total mismatch", data: `{"mode":"random","order":[1,2],"cursor":0,"total":3}`},
		{name: "cursor past end", data: `{"mode":"random","order":[1],"cursor":2,"total":1}`},
		{name: "negative cursor", data: `{"mode":"random","order":[1],"cursor":-1,"total":1}`},
		{name: "bad direction", data: `{"mode":"random","order":[1],"cursor":0,"total":1,"directions":{"1":7}}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var s Session
			err := json.Unmarshal([]byte(tc.data), &s)
			require.ErrorIs(t, err, ErrCorruptSession)
		})
	}
}

func TestParseMode(t *testing.T) {
	for _, m := range []Mode{QuestionToAnswer, AnswerToQuestion, Random} {
		parsed, err := ParseMode(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, parsed)
	}

	_, err := ParseMode("")
	require.ErrorIs(t, err, ErrUnknownMode)
	_, err = ParseMode("RANDOM")
	require.ErrorIs(t, err, ErrUnknownMode)
}

func TestDirectionSides(t *testing.T) {
	card := domain.Flashcard{Question: "capital of France", Answer: "Paris"}

	prompt, expected := Forward.Sides(card)
	assert.Equal(t, "capital of France", prompt)
	assert.Equal(t, "Paris", expected)

	prompt, expected = Reverse.Sides(card)
	assert.Equal(t, "Paris", prompt)
	assert.Equal(t, "capital of France", expected)
}
