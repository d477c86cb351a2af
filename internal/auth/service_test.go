package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/fitcore/fitcore/internal/shared"
)

type memoryUsers struct {
	byEmail map[string]*User
}

func (m *memoryUsers) FindByEmail(ctx context.Context, email string) (*User, error) {
	user, ok := m.byEmail[email]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return user, nil
}

func (m *memoryUsers) FindByID(ctx context.Context, id int64) (*User, error) {
	for _, user := range m.byEmail {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, shared.ErrNotFound
}

func newTestAuth(t *testing.T) (*Service, *TokenStore, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	hash, err := bcrypt.GenerateFromPassword([]byte("open-sesame"), bcrypt.MinCost)
	require.NoError(t, err)

	repo := &memoryUsers{byEmail: map[string]*User{
		"admin@fitcore.local": {
			ID:           1,
			Email:        "admin@fitcore.local",
			PasswordHash: string(hash),
			Role:         shared.RoleAdmin,
			IsActive:     true,
		},
		"former@fitcore.local": {
			ID:           2,
			Email:        "former@fitcore.local",
			PasswordHash: string(hash),
			Role:         shared.RoleStaff,
			IsActive:     false,
		},
	}}
	tokens := NewTokenStore(client, time.Hour)
	return NewService(repo, tokens), tokens, srv
}

func TestAuthenticateIssuesResolvableToken(t *testing.T) {
	ctx := context.Background()
	svc, tokens, _ := newTestAuth(t)

	user, token, err := svc.Authenticate(ctx, "admin@fitcore.local", "open-sesame")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.Equal(t, int64(1), user.ID)

	identity, err := tokens.Resolve(ctx, token)
	require.NoError(t, err)
	require.Equal(t, int64(1), identity.UserID)
	require.Equal(t, shared.RoleAdmin, identity.Role)
}

func TestAuthenticateRejectsWrongPassword(t *testing.T) {
	svc, _, _ := newTestAuth(t)
	_, _, err := svc.Authenticate(context.Background(), "admin@fitcore.local", "guess")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestAuthenticateRejectsUnknownEmail(t *testing.T) {
	svc, _, _ := newTestAuth(t)
	_, _, err := svc.Authenticate(context.Background(), "ghost@fitcore.local", "open-sesame")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestAuthenticateRejectsInactiveUser(t *testing.T) {
	svc, _, _ := newTestAuth(t)
	_, _, err := svc.Authenticate(context.Background(), "former@fitcore.local", "open-sesame")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestLogoutRevokesToken(t *testing.T) {
	ctx := context.Background()
	svc, tokens, _ := newTestAuth(t)

	_, token, err := svc.Authenticate(ctx, "admin@fitcore.local", "open-sesame")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, token))

	_, err = tokens.Resolve(ctx, token)
	require.ErrorIs(t, err, shared.ErrUnauthorized)
}

func TestTokenExpires(t *testing.T) {
	ctx := context.Background()
	svc, tokens, srv := newTestAuth(t)

	_, token, err := svc.Authenticate(ctx, "admin@fitcore.local", "open-sesame")
	require.NoError(t, err)

	srv.FastForward(2 * time.Hour)

	_, err = tokens.Resolve(ctx, token)
	require.ErrorIs(t, err, shared.ErrUnauthorized)
}
