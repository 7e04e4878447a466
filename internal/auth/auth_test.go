package auth

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/conorfennell/flashlearn/internal/domain"
	"github.com/conorfennell/flashlearn/internal/storage"
)

const secret = "test-secret-with-enough-bytes"

func TestMain(m *testing.M) {
	hashCost = bcrypt.MinCost
	os.Exit(m.Run())
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	db, err := storage.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewService(db, NewIssuer(secret, time.Hour), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", hash)

	ok, err := CheckPassword(hash, "correct horse")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = CheckPassword(hash, "battery staple")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = CheckPassword("not-a-hash", "x")
	require.Error(t, err)
}

func TestIssuer(t *testing.T) {
	now := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	iss := NewIssuer(secret, time.Hour)
	iss.now = func() time.Time { return now }

	token, err := iss.Issue(42)
	require.NoError(t, err)

	id, err := iss.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, domain.UserID(42), id)

	other := NewIssuer("another-secret-of-some-length", time.Hour)
	other.now = iss.now
	_, err = other.Parse(token)
	require.ErrorIs(t, err, ErrInvalidToken)

	iss.now = func() time.Time { return now.Add(2 * time.Hour) }
	_, err = iss.Parse(token)
	require.ErrorIs(t, err, ErrInvalidToken, "expired")

	_, err = iss.Parse("garbage")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	user, token, err := svc.Register(ctx, Credentials{Email: " Ada@Example.com ", Password: "s3cretpass"})
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", user.Email)
	assert.NotEmpty(t, token)

	id, err := svc.Authenticate(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, id)

	_, _, err = svc.Register(ctx, Credentials{Email: "ada@example.com", Password: "anotherpass"})
	require.ErrorIs(t, err, ErrEmailTaken)

	logged, token, err := svc.Login(ctx, Credentials{Email: "ADA@example.com", Password: "s3cretpass"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, logged.ID)
	assert.NotEmpty(t, token)

	_, _, err = svc.Login(ctx, Credentials{Email: "ada@example.com", Password: "wrongpass"})
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.Login(ctx, Credentials{Email: "nobody@example.com", Password: "s3cretpass"})
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegisterValidation(t *testing.T) {
	svc := newTestService(t)
	testCases := []struct {
		name string
		c    Credentials
	}{
		{name: "bad email", c: Credentials{Email: "not-an-email", Password: "longenough"}},
		{name: "short password", c: Credentials{Email: "a@b.io", Password: "short"}},
		{name: "long password", c: Credentials{Email: "a@b.io", Password: strings.Repeat("x", 73)}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := svc.Register(context.Background(), tc.c)
			require.Error(t, err)
		})
	}
}
