// Package observability provides logging initialization.
package observability

import (
	"log/slog"
	"os"

	"golang.org/x/term"

	"github.com/brioso/stockroom/internal/config"
)

// InitSlog initializes a logger with the given config. When running in a
// terminal, it uses a human-readable text format; otherwise it uses JSON for
// structured logging.
func InitSlog(cfg *config.Config) *slog.Logger {
	level, _ := cfg.SlogLevel()
	opts := &slog.HandlerOptions{
		AddSource: cfg.DevMode,
		Level:     level,
	}
	var handler slog.Handler
	if term.IsTerminal(int(os.Stdin.Fd())) {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}
