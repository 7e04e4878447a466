package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/conorfennell/flashlearn/internal/domain"
)

// CreateUser inserts a new account. It returns ErrDuplicate when the email
// is already registered.
func (db *DB) CreateUser(ctx context.Context, email, passwordHash string) (*domain.User, error) {
	now := db.timestamp()
	res, err := db.conn.ExecContext(ctx, `
		INSERT INTO users (email, password_hash, created_at)
		VALUES (?, ?, ?)
	`, email, passwordHash, now)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("user %s: %w", email, ErrDuplicate)
		}
		return nil, fmt.Errorf("failed to insert user %s: %w", email, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert ID for user %s: %w", email, err)
	}
	return &domain.User{
		ID:           domain.UserID(id),
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
	}, nil
}

// FindUserByEmail retrieves a user by email.
func (db *DB) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := db.conn.QueryRowContext(ctx, `
		SELECT id, email, password_hash, created_at
		FROM users WHERE email = ?
	`, email)
	u, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email %s: %w", email, err)
	}
	return u, nil
}

// FindUserByID retrieves a user by ID.
func (db *DB) FindUserByID(ctx context.Context, id domain.UserID) (*domain.User, error) {
	row := db.conn.QueryRowContext(ctx, `
		SELECT id, email, password_hash, created_at
		FROM users WHERE id = ?
	`, id)
	u, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("failed to find user %d: %w", id, err)
	}
	return u, nil
}

func scanUser(row *sql.Row) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // User not found
		}
		return nil, err
	}
	return &u, nil
}
