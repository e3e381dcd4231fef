package app

import (
	"log/slog"
	"os"
)

// NewLogger returns a slog.Logger configured from the environment. JSON output
// is meant for log shippers; the default text handler is for local runs, where
// it also lowers the level to Debug.
func NewLogger(cfg *Config) *slog.Logger {
	if cfg != nil && cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{AddSource: true}))
	}
	opts := &slog.HandlerOptions{AddSource: true}
	if !cfg.IsProduction() {
		opts.Level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
