package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrTokenInvalid indicates an unknown or expired bearer token.
var ErrTokenInvalid = errors.New("auth: invalid token")

const tokenKeyPrefix = "emstrack_token:"

// TokenStore issues and resolves opaque bearer tokens kept in Redis with a
// sliding TTL.
type TokenStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewTokenStore constructs a TokenStore.
func NewTokenStore(client *redis.Client, ttl time.Duration) *TokenStore {
	return &TokenStore{client: client, ttl: ttl}
}

// Issue creates a fresh token for the user.
func (s *TokenStore) Issue(ctx context.Context, userID int64) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("auth: generate token: %w", err)
	}
	token := hex.EncodeToString(buf)
	if err := s.client.Set(ctx, tokenKeyPrefix+token, userID, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("auth: store token: %w", err)
	}
	return token, nil
}

// Resolve returns the user id for a token, refreshing its TTL.
func (s *TokenStore) Resolve(ctx context.Context, token string) (int64, error) {
	if token == "" {
		return 0, ErrTokenInvalid
	}
	value, err := s.client.Get(ctx, tokenKeyPrefix+token).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, ErrTokenInvalid
		}
		return 0, fmt.Errorf("auth: resolve token: %w", err)
	}
	userID, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, ErrTokenInvalid
	}
	if err := s.client.Expire(ctx, tokenKeyPrefix+token, s.ttl).Err(); err != nil {
		return 0, fmt.Errorf("auth: refresh token ttl: %w", err)
	}
	return userID, nil
}

// Revoke removes a token.
func (s *TokenStore) Revoke(ctx context.Context, token string) error {
	return s.client.Del(ctx, tokenKeyPrefix+token).Err()
}
