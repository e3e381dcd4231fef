package auth

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/shubhamkulkarni01/emstrack/internal/platform/httpx"
)

// Service authenticates users and manages their tokens.
type Service struct {
	repo   Repository
	tokens *TokenStore
}

// NewService constructs a Service.
func NewService(repo Repository, tokens *TokenStore) *Service {
	return &Service{repo: repo, tokens: tokens}
}

// Login verifies credentials and issues a bearer token.
func (s *Service) Login(ctx context.Context, username, password string) (string, *User, error) {
	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", nil, fmt.Errorf("%w: bad credentials", httpx.ErrUnauthorized)
		}
		return "", nil, fmt.Errorf("auth: lookup user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, fmt.Errorf("%w: bad credentials", httpx.ErrUnauthorized)
	}
	token, err := s.tokens.Issue(ctx, user.ID)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// Logout revokes the token.
func (s *Service) Logout(ctx context.Context, token string) error {
	return s.tokens.Revoke(ctx, token)
}

// Resolve turns a bearer token into the user it belongs to.
func (s *Service) Resolve(ctx context.Context, token string) (*User, error) {
	userID, err := s.tokens.Resolve(ctx, token)
	if err != nil {
		if errors.Is(err, ErrTokenInvalid) {
			return nil, fmt.Errorf("%w: invalid token", httpx.ErrUnauthorized)
		}
		return nil, err
	}
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: unknown user", httpx.ErrUnauthorized)
		}
		return nil, err
	}
	return user, nil
}
