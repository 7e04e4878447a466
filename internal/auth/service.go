// Package auth handles account registration, password checks and the
// signed tokens that identify a logged-in user.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/conorfennell/flashlearn/internal/domain"
	"github.com/conorfennell/flashlearn/internal/storage"
	"github.com/conorfennell/flashlearn/internal/validate"
)

var (
	ErrEmailTaken         = errors.New("auth: email already registered")
	ErrInvalidCredentials = errors.New("auth: invalid email or password")
)

// UserStore is the persistence the auth service needs.
type UserStore interface {
	CreateUser(ctx context.Context, email, passwordHash string) (*domain.User, error)
	FindUserByEmail(ctx context.Context, email string) (*domain.User, error)
}

// Credentials is the input of Register and Login.
type Credentials struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type Service struct {
	users  UserStore
	tokens *Issuer
	logger *slog.Logger
}

func NewService(users UserStore, tokens *Issuer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{users: users, tokens: tokens, logger: logger}
}

// Register creates an account and returns it with a session token.
func (s *Service) Register(ctx context.Context, c Credentials) (*domain.User, string, error) {
	c.Email = normalizeEmail(c.Email)
	if err := validate.Struct(c); err != nil {
		return nil, "", err
	}

	hash, err := HashPassword(c.Password)
	if err != nil {
		return nil, "", err
	}
	user, err := s.users.CreateUser(ctx, c.Email, hash)
	if err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return nil, "", ErrEmailTaken
		}
		return nil, "", fmt.Errorf("failed to register %s: %w", c.Email, err)
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, "", err
	}
	s.logger.Info("user registered", "user_id", user.ID)
	return user, token, nil
}

// Login checks the credentials and returns the user with a session token.
func (s *Service) Login(ctx context.Context, c Credentials) (*domain.User, string, error) {
	email := normalizeEmail(c.Email)
	user, err := s.users.FindUserByEmail(ctx, email)
	if err != nil {
		return nil, "", err
	}
	if user == nil {
		return nil, "", ErrInvalidCredentials
	}
	ok, err := CheckPassword(user.PasswordHash, c.Password)
	if err != nil {
		return nil, "", err
	}
	if !ok {
		s.logger.Debug("login rejected", "user_id", user.ID)
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Authenticate resolves a session token to a user ID.
func (s *Service) Authenticate(token string) (domain.UserID, error) {
	return s.tokens.Parse(token)
}

// Tokens returns the issuer used for session tokens.
func (s *Service) Tokens() *Issuer { return s.tokens }

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
