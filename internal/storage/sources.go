package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/conorfennell/flashlearn/internal/domain"
)

// Source represents an import source, either a local path or a Git URL.
type Source struct {
	ID          int64
	UserID      domain.UserID
	Path        string
	Type        string
	LastScanned sql.NullTime
}

// InsertSource records a new import source for a user and returns its ID.
func (db *DB) InsertSource(ctx context.Context, userID domain.UserID, path, sourceType string) (int64, error) {
	res, err := db.conn.ExecContext(ctx, `
		INSERT INTO sources (user_id, path, type)
		VALUES (?, ?, ?)
	`, userID, path, sourceType)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("source %s: %w", path, ErrDuplicate)
		}
		return 0, fmt.Errorf("failed to insert source %s: %w", path, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for source %s: %w", path, err)
	}
	return id, nil
}

// FindSource retrieves a user's source by its path.
func (db *DB) FindSource(ctx context.Context, userID domain.UserID, path string) (*Source, error) {
	s := Source{UserID: userID}
	err := db.conn.QueryRowContext(ctx, `
		SELECT id, path, type, last_scanned
		FROM sources WHERE user_id = ? AND path = ?
	`, userID, path).Scan(&s.ID, &s.Path, &s.Type, &s.LastScanned)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Source not found
		}
		return nil, fmt.Errorf("failed to find source by path %s: %w", path, err)
	}
	return &s, nil
}

// SourcesByUser retrieves every source a user has imported from.
func (db *DB) SourcesByUser(ctx context.Context, userID domain.UserID) ([]Source, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, path, type, last_scanned
		FROM sources WHERE user_id = ?
		ORDER BY id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get sources for user %d: %w", userID, err)
	}
	defer rows.Close()

	var sources []Source
	for rows.Next() {
		s := Source{UserID: userID}
		if err := rows.Scan(&s.ID, &s.Path, &s.Type, &s.LastScanned); err != nil {
			return nil, fmt.Errorf("failed to scan source row: %w", err)
		}
		sources = append(sources, s)
	}
	return sources, rows.Err()
}

// UpdateSourceLastScanned updates the last_scanned timestamp for a source.
func (db *DB) UpdateSourceLastScanned(ctx context.Context, sourceID int64) error {
	_, err := db.conn.ExecContext(ctx, `
		UPDATE sources
		SET last_scanned = ?
		WHERE id = ?
	`, db.timestamp(), sourceID)
	if err != nil {
		return fmt.Errorf("failed to update last scanned for source ID %d: %w", sourceID, err)
	}
	return nil
}
