package app

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/agentstation/xtsmerge/internal/cmd/globals"
	"github.com/agentstation/xtsmerge/internal/config"
	"github.com/agentstation/xtsmerge/pkg/logging"
)

// NewLogger creates the CLI logger.
// Log level precedence (highest to lowest):
//  1. --log-level flag
//  2. -v/--verbose (debug) and -q/--quiet (warn)
//  3. log.level from the config file or XTSMERGE_LOG_LEVEL
//  4. Default (info)
func NewLogger(cfg *config.Config, flags *globals.Flags) zerolog.Logger {
	level := determineLogLevel(cfg, flags)

	return logging.NewLoggerFromConfig(&logging.Config{
		Level:      level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "kitchen",
		NoColor:    flags.NoColor || os.Getenv("NO_COLOR") != "",
		AddCaller:  level == "debug" || level == "trace",
	})
}

func determineLogLevel(cfg *config.Config, flags *globals.Flags) string {
	if flags.LogLevel != "" {
		validated := validateLogLevel(flags.LogLevel)
		if validated != strings.ToLower(flags.LogLevel) {
			fmt.Fprintf(os.Stderr, "Warning: invalid log level %q, using %q\n", flags.LogLevel, validated)
		}
		return validated
	}

	if flags.Verbose && flags.Quiet {
		fmt.Fprintf(os.Stderr, "Warning: both --verbose and --quiet specified, using --quiet\n")
		return "warn"
	}
	if flags.Verbose {
		return "debug"
	}
	if flags.Quiet {
		return "warn"
	}

	if cfg.Log.Level != "" {
		return validateLogLevel(cfg.Log.Level)
	}
	return "info"
}

// validateLogLevel returns level in canonical form, or info when it is not
// a known level.
func validateLogLevel(level string) string {
	switch l := strings.ToLower(level); l {
	case "trace", "debug", "info", "warn", "error", "off":
		return l
	case "warning":
		return "warn"
	case "none":
		return "off"
	default:
		return "info"
	}
}
