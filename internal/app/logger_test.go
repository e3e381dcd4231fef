package app

import (
	"context"
	"log/slog"
	"testing"
)

func TestDevelopmentLoggerEmitsDebug(t *testing.T) {
	logger := NewLogger(&Config{AppEnv: "development", LogFormat: "pretty"})
	if !logger.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("expected debug level enabled outside production")
	}
}

func TestProductionLoggerSuppressesDebug(t *testing.T) {
	logger := NewLogger(&Config{AppEnv: "production", LogFormat: "pretty"})
	if logger.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("expected debug level suppressed in production")
	}
}
