package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/conorfennell/flashlearn/internal/domain"
	"github.com/conorfennell/flashlearn/internal/learn"
)

// SaveLearnSession stores the in-progress session of a user, replacing any
// previous one.
func (db *DB) SaveLearnSession(ctx context.Context, userID domain.UserID, s *learn.Session) error {
	state, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode learn session for user %d: %w", userID, err)
	}
	_, err = db.conn.ExecContext(ctx, `
		INSERT INTO learn_sessions (user_id, state, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET state = excluded.state, updated_at = excluded.updated_at
	`, userID, string(state), db.timestamp())
	if err != nil {
		return fmt.Errorf("failed to save learn session for user %d: %w", userID, err)
	}
	return nil
}

// LoadLearnSession returns the stored session of a user, or nil, nil when
// there is none.
func (db *DB) LoadLearnSession(ctx context.Context, userID domain.UserID) (*learn.Session, error) {
	var state string
	err := db.conn.QueryRowContext(ctx, `SELECT state FROM learn_sessions WHERE user_id = ?`, userID).Scan(&state)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // No session in progress
		}
		return nil, fmt.Errorf("failed to load learn session for user %d: %w", userID, err)
	}

	var s learn.Session
	if err := json.Unmarshal([]byte(state), &s); err != nil {
		return nil, fmt.Errorf("failed to decode learn session for user %d: %w", userID, err)
	}
	return &s, nil
}

// DeleteLearnSession discards the session of a user.
func (db *DB) DeleteLearnSession(ctx context.Context, userID domain.UserID) error {
	_, err := db.conn.ExecContext(ctx, `DELETE FROM learn_sessions WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("failed to delete learn session for user %d: %w", userID, err)
	}
	return nil
}
