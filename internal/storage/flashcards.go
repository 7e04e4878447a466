package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/conorfennell/flashlearn/internal/domain"
	"github.com/conorfennell/flashlearn/internal/knol"
)

const flashcardColumns = `id, user_id, question, answer, source, generation_id, hash, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFlashcard(row rowScanner) (*domain.Flashcard, error) {
	var f domain.Flashcard
	var generationID sql.NullString
	err := row.Scan(
		&f.ID,
		&f.UserID,
		&f.Question,
		&f.Answer,
		&f.Source,
		&generationID,
		&f.Hash,
		&f.CreatedAt,
		&f.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	f.GenerationID = generationID.String
	return &f, nil
}

// InsertFlashcards stores drafts for a user in a single transaction and
// returns the stored cards in the same order.
func (db *DB) InsertFlashcards(ctx context.Context, userID domain.UserID, source domain.Source, generationID string, drafts []domain.Draft) ([]domain.Flashcard, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO flashcards (user_id, question, answer, source, generation_id, hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare flashcard insert: %w", err)
	}
	defer stmt.Close()

	genID := sql.NullString{String: generationID, Valid: generationID != ""}
	now := db.timestamp()
	cards := make([]domain.Flashcard, 0, len(drafts))
	for _, d := range drafts {
		hash := knol.Hash(d)
		res, err := stmt.ExecContext(ctx, userID, d.Question, d.Answer, source, genID, hash, now, now)
		if err != nil {
			return nil, fmt.Errorf("failed to insert flashcard for user %d: %w", userID, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("failed to get last insert ID for flashcard: %w", err)
		}
		cards = append(cards, domain.Flashcard{
			ID:           domain.FlashcardID(id),
			UserID:       userID,
			Question:     d.Question,
			Answer:       d.Answer,
			Source:       source,
			GenerationID: generationID,
			Hash:         hash,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit flashcards for user %d: %w", userID, err)
	}
	return cards, nil
}

// FindFlashcard retrieves a flashcard by ID. It returns nil, nil when the
// card does not exist.
func (db *DB) FindFlashcard(ctx context.Context, id domain.FlashcardID) (*domain.Flashcard, error) {
	row := db.conn.QueryRowContext(ctx, `SELECT `+flashcardColumns+` FROM flashcards WHERE id = ?`, id)
	f, err := scanFlashcard(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Flashcard not found
		}
		return nil, fmt.Errorf("failed to find flashcard %d: %w", id, err)
	}
	return f, nil
}

// FlashcardIDs returns the IDs of every flashcard a user owns.
func (db *DB) FlashcardIDs(ctx context.Context, userID domain.UserID) ([]domain.FlashcardID, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT id FROM flashcards WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get flashcard IDs for user %d: %w", userID, err)
	}
	defer rows.Close()

	var ids []domain.FlashcardID
	for rows.Next() {
		var id domain.FlashcardID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan flashcard ID for user %d: %w", userID, err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListFlashcards returns one page of a user's flashcards, newest first.
func (db *DB) ListFlashcards(ctx context.Context, userID domain.UserID, limit, offset int) ([]domain.Flashcard, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT `+flashcardColumns+`
		FROM flashcards WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?
	`, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list flashcards for user %d: %w", userID, err)
	}
	defer rows.Close()

	cards := []domain.Flashcard{}
	for rows.Next() {
		f, err := scanFlashcard(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan flashcard row for user %d: %w", userID, err)
		}
		cards = append(cards, *f)
	}
	return cards, rows.Err()
}

// CountFlashcards returns how many flashcards a user owns.
func (db *DB) CountFlashcards(ctx context.Context, userID domain.UserID) (int, error) {
	var n int
	err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM flashcards WHERE user_id = ?`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count flashcards for user %d: %w", userID, err)
	}
	return n, nil
}

// FlashcardHashes returns the content hashes of a user's flashcards.
func (db *DB) FlashcardHashes(ctx context.Context, userID domain.UserID) (map[string]bool, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT hash FROM flashcards WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get flashcard hashes for user %d: %w", userID, err)
	}
	defer rows.Close()

	hashes := make(map[string]bool)
	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			return nil, fmt.Errorf("failed to scan flashcard hash for user %d: %w", userID, err)
		}
		hashes[h] = true
	}
	return hashes, rows.Err()
}

// UpdateFlashcard replaces the question and answer of a flashcard.
// The review schedule is kept.
func (db *DB) UpdateFlashcard(ctx context.Context, id domain.FlashcardID, d domain.Draft) error {
	_, err := db.conn.ExecContext(ctx, `
		UPDATE flashcards
		SET question = ?, answer = ?, hash = ?, updated_at = ?
		WHERE id = ?
	`, d.Question, d.Answer, knol.Hash(d), db.timestamp(), id)
	if err != nil {
		return fmt.Errorf("failed to update flashcard %d: %w", id, err)
	}
	return nil
}

// DeleteFlashcard removes a flashcard and, through the foreign key, its schedule.
func (db *DB) DeleteFlashcard(ctx context.Context, id domain.FlashcardID) error {
	_, err := db.conn.ExecContext(ctx, `DELETE FROM flashcards WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete flashcard %d: %w", id, err)
	}
	return nil
}
