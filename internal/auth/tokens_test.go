package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestTokenStore(t *testing.T) (*TokenStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewTokenStore(client, time.Minute), mr
}

func TestIssueAndResolve(t *testing.T) {
	store, _ := newTestTokenStore(t)
	ctx := context.Background()

	token, err := store.Issue(ctx, 42)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}

	userID, err := store.Resolve(ctx, token)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if userID != 42 {
		t.Fatalf("expected user 42 got %d", userID)
	}
}

func TestResolveUnknownToken(t *testing.T) {
	store, _ := newTestTokenStore(t)

	_, err := store.Resolve(context.Background(), "deadbeef")
	if !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid got %v", err)
	}
}

func TestResolveExpiredToken(t *testing.T) {
	store, mr := newTestTokenStore(t)
	ctx := context.Background()

	token, err := store.Issue(ctx, 7)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	mr.FastForward(2 * time.Minute)

	if _, err := store.Resolve(ctx, token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid got %v", err)
	}
}

func TestRevoke(t *testing.T) {
	store, _ := newTestTokenStore(t)
	ctx := context.Background()

	token, err := store.Issue(ctx, 7)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}
	if err := store.Revoke(ctx, token); err != nil {
		t.Fatalf("Revoke returned error: %v", err)
	}
	if _, err := store.Resolve(ctx, token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid after revoke got %v", err)
	}
}
