// Package logger builds the zerolog loggers used by the pipeline. The
// console (pterm) stays the user-facing output; these logs go to stderr or
// to a file for later inspection.
package logger

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

type ctxKey struct{}

// New cria um logger legível para terminal no nível indicado ("debug",
// "info", "warn", "error", "disabled"). Nível inválido cai para "info".
func New(level string) zerolog.Logger {
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	return NewWithWriter(out, level)
}

// NewWithWriter writes JSON lines to w.
func NewWithWriter(w io.Writer, level string) zerolog.Logger {
	return zerolog.New(w).Level(ParseLevel(level)).With().Timestamp().Logger()
}

// ParseLevel converts a flag value into a zerolog level.
func ParseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || level == "" {
		return zerolog.InfoLevel
	}
	return lvl
}

// WithContext stores log in ctx.
func WithContext(ctx context.Context, log zerolog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, log)
}

// FromContext returns the logger stored in ctx, or a disabled one.
func FromContext(ctx context.Context) zerolog.Logger {
	if log, ok := ctx.Value(ctxKey{}).(zerolog.Logger); ok {
		return log
	}
	return zerolog.Nop()
}

// ForYear tags every entry with the run id and fiscal year.
func ForYear(log zerolog.Logger, runID string, fiscalYear int) zerolog.Logger {
	return log.With().Str("run_id", runID).Int("fiscal_year", fiscalYear).Logger()
}
