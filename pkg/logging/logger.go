// Package logging provides structured logging for xtsmerge using zerolog.
// Library packages never reach for a global logger: they accept a
// *zerolog.Logger through options and fall back to Nop. The default logger
// here is for the CLI and for code that only has a context.
//
// Example usage:
//
//	logger := logging.NewLoggerFromConfig(&logging.Config{Level: "debug"})
//	ctx := logging.WithLogger(context.Background(), &logger)
//	ctx = logging.WithSuite(ctx, "CTS")
//	logging.FromContext(ctx).Info().Int("runs", 3).Msg("Reconciling suite")
package logging

import (
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	defaultLogger zerolog.Logger

	// Nop logger for discarding output.
	Nop = zerolog.Nop()
)

func init() {
	defaultLogger = createDefaultLogger()
}

func createDefaultLogger() zerolog.Logger {
	var writer io.Writer = os.Stderr
	if isatty.IsTerminal(os.Stderr.Fd()) && os.Getenv("XTSMERGE_LOG_FORMAT") != "json" {
		writer = zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.Kitchen,
			NoColor:    os.Getenv("NO_COLOR") != "",
		}
	}

	level := ParseLevel(os.Getenv("XTSMERGE_LOG_LEVEL"))
	if os.Getenv("XTSMERGE_LOG_LEVEL") == "" && os.Getenv("DEBUG") != "" {
		level = zerolog.DebugLevel
	}

	return zerolog.New(writer).
		Level(level).
		With().
		Timestamp().
		Logger()
}

// Default returns the default global logger.
func Default() *zerolog.Logger {
	return &defaultLogger
}

// SetDefault sets the default global logger.
func SetDefault(logger zerolog.Logger) {
	defaultLogger = logger
	log.Logger = logger
}

// New creates a new JSON logger with the given writer.
func New(w io.Writer) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	return zerolog.New(w).
		With().
		Timestamp().
		Logger()
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l *zerolog.Logger) *zerolog.Logger {
	if l != nil {
		return l
	}
	nop := zerolog.Nop()
	return &nop
}
