package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/phrazzld/item-api/internal/config"
)

// ParseLevel converts a configured level name (case-insensitive) into a slog.Level.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level %q", name)
	}
}

// New creates a JSON logger writing to out at the given level.
func New(out io.Writer, level string) (*slog.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}

	handler := slog.NewJSONHandler(out, &slog.HandlerOptions{Level: lvl})
	return slog.New(handler), nil
}

// Setup initializes and configures the application's logging system based on
// the provided configuration. It creates a structured JSON logger on stdout
// with the appropriate log level and sets it as the default logger for the
// application.
//
// An invalid level falls back to info and is reported with a warning instead
// of failing startup.
func Setup(cfg config.ServerConfig) *slog.Logger {
	l, err := New(os.Stdout, cfg.LogLevel)
	if err != nil {
		// Fall back to info and report the bad value on the new logger
		l, _ = New(os.Stdout, "info")
		l.Warn("invalid log level configured, using default level",
			"configured_level", cfg.LogLevel,
			"default_level", "info")
	}

	slog.SetDefault(l)
	return l
}
