package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/conorfennell/flashlearn/internal/domain"
)

// InsertGeneration records one generator call. CreatedAt is set when zero.
func (db *DB) InsertGeneration(ctx context.Context, g *domain.Generation) error {
	if g.CreatedAt.IsZero() {
		g.CreatedAt = db.timestamp()
	}
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO generations (id, user_id, model, source_words, generated_count, accepted_count, tokens_used, cost_usd, status, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		g.ID,
		g.UserID,
		g.Model,
		g.SourceWords,
		g.GeneratedCount,
		g.AcceptedCount,
		g.TokensUsed,
		g.CostUSD,
		g.Status,
		sql.NullString{String: g.Error, Valid: g.Error != ""},
		g.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert generation %s: %w", g.ID, err)
	}
	return nil
}

// FindGeneration retrieves a generation record. It returns nil, nil when
// the record does not exist.
func (db *DB) FindGeneration(ctx context.Context, id string) (*domain.Generation, error) {
	var g domain.Generation
	var errText sql.NullString
	err := db.conn.QueryRowContext(ctx, `
		SELECT id, user_id, model, source_words, generated_count, accepted_count, tokens_used, cost_usd, status, error, created_at
		FROM generations WHERE id = ?
	`, id).Scan(
		&g.ID,
		&g.UserID,
		&g.Model,
		&g.SourceWords,
		&g.GeneratedCount,
		&g.AcceptedCount,
		&g.TokensUsed,
		&g.CostUSD,
		&g.Status,
		&errText,
		&g.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Generation not found
		}
		return nil, fmt.Errorf("failed to find generation %s: %w", id, err)
	}
	g.Error = errText.String
	return &g, nil
}

// AddAcceptedCards adds n to the accepted count of a generation.
func (db *DB) AddAcceptedCards(ctx context.Context, id string, n int) error {
	_, err := db.conn.ExecContext(ctx, `
		UPDATE generations SET accepted_count = accepted_count + ? WHERE id = ?
	`, n, id)
	if err != nil {
		return fmt.Errorf("failed to update accepted count for generation %s: %w", id, err)
	}
	return nil
}

// GenerationCostSince sums the cost of every generation created at or after since.
func (db *DB) GenerationCostSince(ctx context.Context, since time.Time) (float64, error) {
	var total float64
	err := db.conn.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(cost_usd), 0) FROM generations WHERE created_at >= ?
	`, since.UTC()).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum generation cost: %w", err)
	}
	return total, nil
}
