package observability

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

type LoggingConfig struct {
	Level  string
	Format string // "json" or "text"
}

// NewLogger creates a structured logger writing to stdout.
func NewLogger(cfg LoggingConfig) zerolog.Logger {
	return NewLoggerTo(os.Stdout, cfg)
}

func NewLoggerTo(w io.Writer, cfg LoggingConfig) zerolog.Logger {
	level := parseLogLevel(cfg.Level)
	zerolog.SetGlobalLevel(level)

	out := w
	if strings.EqualFold(cfg.Format, "text") {
		out = zerolog.ConsoleWriter{Out: w}
	}

	return zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Str("service", "clubhouse-reservations").
		Logger()
}

// parseLogLevel converts string to zerolog level
func parseLogLevel(levelStr string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(levelStr)) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	default:
		return zerolog.InfoLevel
	}
}
