package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/conorfennell/flashlearn/internal/domain"
	"github.com/conorfennell/flashlearn/internal/srs"
)

// FindSchedule retrieves the review schedule of a flashcard. It returns
// nil, nil for a card that has never been reviewed.
func (db *DB) FindSchedule(ctx context.Context, id domain.FlashcardID) (*srs.Schedule, error) {
	var s srs.Schedule
	var lastReview, nextReview sql.NullTime
	err := db.conn.QueryRowContext(ctx, `
		SELECT last_reviewed_at, next_review_at, ease_factor, interval_days, repetition_count
		FROM schedules WHERE flashcard_id = ?
	`, id).Scan(&lastReview, &nextReview, &s.EaseFactor, &s.IntervalDays, &s.RepetitionCount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Never reviewed
		}
		return nil, fmt.Errorf("failed to find schedule for flashcard %d: %w", id, err)
	}
	s.LastReviewedAt = lastReview.Time
	s.NextReviewAt = nextReview.Time
	return &s, nil
}

// UpsertSchedule creates or replaces the review schedule of a flashcard.
func (db *DB) UpsertSchedule(ctx context.Context, id domain.FlashcardID, s srs.Schedule) error {
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO schedules (flashcard_id, last_reviewed_at, next_review_at, ease_factor, interval_days, repetition_count)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(flashcard_id) DO UPDATE SET
			last_reviewed_at = excluded.last_reviewed_at,
			next_review_at = excluded.next_review_at,
			ease_factor = excluded.ease_factor,
			interval_days = excluded.interval_days,
			repetition_count = excluded.repetition_count
	`,
		id,
		nullTime(s.LastReviewedAt),
		nullTime(s.NextReviewAt),
		s.EaseFactor,
		s.IntervalDays,
		s.RepetitionCount,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert schedule for flashcard %d: %w", id, err)
	}
	return nil
}

// CountDue returns how many of a user's flashcards are due at now.
// Cards that were never reviewed are due.
func (db *DB) CountDue(ctx context.Context, userID domain.UserID, now time.Time) (int, error) {
	var n int
	err := db.conn.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM flashcards f
		LEFT JOIN schedules s ON s.flashcard_id = f.id
		WHERE f.user_id = ? AND (s.next_review_at IS NULL OR s.next_review_at <= ?)
	`, userID, now.UTC()).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count due flashcards for user %d: %w", userID, err)
	}
	return n, nil
}
