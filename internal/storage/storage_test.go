package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conorfennell/flashlearn/internal/domain"
	"github.com/conorfennell/flashlearn/internal/learn"
	"github.com/conorfennell/flashlearn/internal/srs"
)

var epoch = time.Date(2025, time.March, 3, 9, 30, 0, 0, time.UTC)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(":memory:")
	require.NoError(t, err)
	db.now = func() time.Time { return epoch }
	t.Cleanup(func() { db.Close() })
	return db
}

func createUser(t *testing.T, db *DB, email string) *domain.User {
	t.Helper()
	u, err := db.CreateUser(context.Background(), email, "hash")
	require.NoError(t, err)
	return u
}

func TestUsers(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	u := createUser(t, db, "ada@example.com")
	assert.NotZero(t, u.ID)

	_, err := db.CreateUser(ctx, "ada@example.com", "other")
	require.ErrorIs(t, err, ErrDuplicate)

	found, err := db.FindUserByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, u.ID, found.ID)
	assert.True(t, epoch.Equal(found.CreatedAt))

	byID, err := db.FindUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, "ada@example.com", byID.Email)

	missing, err := db.FindUserByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestFlashcardsCRUD(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	u := createUser(t, db, "ada@example.com")
	other := createUser(t, db, "bob@example.com")

	cards, err := db.InsertFlashcards(ctx, u.ID, domain.SourceManual, "", []domain.Draft{
		{Question: "France", Answer: "Paris"},
		{Question: "Poland", Answer: "Warszawa"},
	})
	require.NoError(t, err)
	require.Len(t, cards, 2)
	assert.NotEqual(t, cards[0].ID, cards[1].ID)
	assert.NotEmpty(t, cards[0].Hash)

	_, err = db.InsertFlashcards(ctx, other.ID, domain.SourceImport, "", []domain.Draft{{Question: "Spain", Answer: "Madrid"}})
	require.NoError(t, err)

	found, err := db.FindFlashcard(ctx, cards[1].ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "Warszawa", found.Answer)
	assert.Equal(t, domain.SourceManual, found.Source)
	assert.Equal(t, u.ID, found.UserID)

	idsOwned, err := db.FlashcardIDs(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []domain.FlashcardID{cards[0].ID, cards[1].ID}, idsOwned)

	n, err := db.CountFlashcards(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	page, err := db.ListFlashcards(ctx, u.ID, 1, 0)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, cards[1].ID, page[0].ID, "newest first")

	empty, err := db.ListFlashcards(ctx, u.ID, 10, 5)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	require.NoError(t, db.UpdateFlashcard(ctx, cards[0].ID, domain.Draft{Question: "France", Answer: "Paryż"}))
	updated, err := db.FindFlashcard(ctx, cards[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "Paryż", updated.Answer)
	assert.NotEqual(t, cards[0].Hash, updated.Hash)

	hashes, err := db.FlashcardHashes(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, hashes, 2)
	assert.True(t, hashes[updated.Hash])

	require.NoError(t, db.DeleteFlashcard(ctx, cards[0].ID))
	gone, err := db.FindFlashcard(ctx, cards[0].ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestSchedules(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	u := createUser(t, db, "ada@example.com")
	cards, err := db.InsertFlashcards(ctx, u.ID, domain.SourceManual, "", []domain.Draft{
		{Question: "q1", Answer: "a1"},
		{Question: "q2", Answer: "a2"},
	})
	require.NoError(t, err)
	id := cards[0].ID

	none, err := db.FindSchedule(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, none)

	due, err := db.CountDue(ctx, u.ID, epoch)
	require.NoError(t, err)
	assert.Equal(t, 2, due, "never reviewed cards are due")

	s := srs.ApplyCorrect(srs.NewSchedule(), epoch)
	require.NoError(t, db.UpsertSchedule(ctx, id, s))

	got, err := db.FindSchedule(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 2.6, got.EaseFactor)
	assert.Equal(t, 3, got.IntervalDays)
	assert.Equal(t, 1, got.RepetitionCount)
	assert.True(t, epoch.AddDate(0, 0, 3).Equal(got.NextReviewAt))

	due, err = db.CountDue(ctx, u.ID, epoch.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, 1, due)
	due, err = db.CountDue(ctx, u.ID, epoch.AddDate(0, 0, 3))
	require.NoError(t, err)
	assert.Equal(t, 2, due)

	s = srs.ApplyIncorrect(*got, epoch.AddDate(0, 0, 3))
	require.NoError(t, db.UpsertSchedule(ctx, id, s))
	got, err = db.FindSchedule(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 2.4, got.EaseFactor)
	assert.Equal(t, 1, got.IntervalDays)
	assert.Equal(t, 2, got.RepetitionCount)

	require.NoError(t, db.DeleteFlashcard(ctx, id))
	got, err = db.FindSchedule(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, got, "schedule is removed with its flashcard")
}

func TestLearnSessions(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	u := createUser(t, db, "ada@example.com")

	none, err := db.LoadLearnSession(ctx, u.ID)
	require.NoError(t, err)
	assert.Nil(t, none)

	sess, err := learn.New([]domain.FlashcardID{4, 5, 6}, learn.AnswerToQuestion, nil)
	require.NoError(t, err)
	first, _ := sess.Current()
	sess.RecordAttempt(first, true, "yes", 1)
	sess.Advance()
	require.NoError(t, db.SaveLearnSession(ctx, u.ID, sess))

	// Saving again replaces the stored state.
	sess.Advance()
	require.NoError(t, db.SaveLearnSession(ctx, u.ID, sess))

	loaded, err := db.LoadLearnSession(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, learn.AnswerToQuestion, loaded.Mode())
	assert.Equal(t, sess.Order(), loaded.Order())
	assert.Equal(t, 2, loaded.Position())
	r, ok := loaded.Result(first)
	require.True(t, ok)
	assert.True(t, r.Correct)

	require.NoError(t, db.DeleteLearnSession(ctx, u.ID))
	none, err = db.LoadLearnSession(ctx, u.ID)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestSources(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	u := createUser(t, db, "ada@example.com")

	id, err := db.InsertSource(ctx, u.ID, "/cards", "local")
	require.NoError(t, err)

	_, err = db.InsertSource(ctx, u.ID, "/cards", "local")
	require.ErrorIs(t, err, ErrDuplicate)

	src, err := db.FindSource(ctx, u.ID, "/cards")
	require.NoError(t, err)
	require.NotNil(t, src)
	assert.Equal(t, id, src.ID)
	assert.False(t, src.LastScanned.Valid)

	require.NoError(t, db.UpdateSourceLastScanned(ctx, id))
	all, err := db.SourcesByUser(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.True(t, all[0].LastScanned.Valid)
	assert.True(t, epoch.Equal(all[0].LastScanned.Time))

	missing, err := db.FindSource(ctx, u.ID, "/elsewhere")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestGenerations(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	u := createUser(t, db, "ada@example.com")

	g := &domain.Generation{
		ID:             "gen-1",
		UserID:         u.ID,
		Model:          "gpt-4o-mini",
		SourceWords:    120,
		GeneratedCount: 4,
		TokensUsed:     900,
		CostUSD:        0.25,
		Status:         domain.GenerationCompleted,
	}
	require.NoError(t, db.InsertGeneration(ctx, g))
	require.NoError(t, db.InsertGeneration(ctx, &domain.Generation{
		ID:        "gen-old",
		UserID:    u.ID,
		Model:     "gpt-4o-mini",
		CostUSD:   5,
		Status:    domain.GenerationFailed,
		Error:     "timeout",
		CreatedAt: epoch.AddDate(0, -2, 0),
	}))

	cards, err := db.InsertFlashcards(ctx, u.ID, domain.SourceAI, g.ID, []domain.Draft{{Question: "q", Answer: "a"}})
	require.NoError(t, err)
	assert.Equal(t, "gen-1", cards[0].GenerationID)
	require.NoError(t, db.AddAcceptedCards(ctx, g.ID, 1))

	found, err := db.FindGeneration(ctx, g.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, 1, found.AcceptedCount)
	assert.Equal(t, domain.GenerationCompleted, found.Status)
	assert.Empty(t, found.Error)

	old, err := db.FindGeneration(ctx, "gen-old")
	require.NoError(t, err)
	assert.Equal(t, "timeout", old.Error)

	cost, err := db.GenerationCostSince(ctx, epoch.AddDate(0, 0, -1))
	require.NoError(t, err)
	assert.InDelta(t, 0.25, cost, 1e-9)

	cost, err = db.GenerationCostSince(ctx, epoch.AddDate(-1, 0, 0))
	require.NoError(t, err)
	assert.InDelta(t, 5.25, cost, 1e-9)

	missing, err := db.FindGeneration(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}
