package auth

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/fitcore/fitcore/internal/shared"
)

// TokenStore keeps opaque bearer tokens in Redis.
type TokenStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewTokenStore constructs a TokenStore.
func NewTokenStore(client *redis.Client, ttl time.Duration) *TokenStore {
	return &TokenStore{client: client, ttl: ttl}
}

type tokenPayload struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

// Issue mints a token for the user and stores it with the configured TTL.
func (s *TokenStore) Issue(ctx context.Context, user *User) (string, error) {
	if user == nil {
		return "", errors.New("auth: user required")
	}
	token := uuid.NewString()
	data, err := json.Marshal(tokenPayload{UserID: user.ID, Email: user.Email, Role: user.Role})
	if err != nil {
		return "", err
	}
	if err := s.client.Set(ctx, s.key(token), data, s.ttl).Err(); err != nil {
		return "", err
	}
	return token, nil
}

// Resolve maps a bearer token back to the caller identity.
func (s *TokenStore) Resolve(ctx context.Context, token string) (*shared.Identity, error) {
	if token == "" {
		return nil, shared.ErrUnauthorized
	}
	data, err := s.client.Get(ctx, s.key(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, shared.ErrUnauthorized
		}
		return nil, err
	}
	var payload tokenPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, err
	}
	return &shared.Identity{UserID: payload.UserID, Email: payload.Email, Role: payload.Role}, nil
}

// Revoke deletes a token.
func (s *TokenStore) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	err := s.client.Del(ctx, s.key(token)).Err()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}

// TTL exposes the configured token lifetime.
func (s *TokenStore) TTL() time.Duration {
	return s.ttl
}

func (s *TokenStore) key(token string) string {
	return "token:" + token
}
