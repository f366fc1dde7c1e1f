// Package main provides the entry point for the xtsmerge CLI tool.
package main

import (
	"context"
	"os"
	"time"

	"github.com/agentstation/xtsmerge/cmd/xtsmerge/app"
	"github.com/agentstation/xtsmerge/pkg/logging"
)

// Version information populated by goreleaser.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
	builtBy = "unknown"
)

func main() {
	// Until a command loads its configuration, only the environment
	// shapes logging.
	logging.ConfigureFromEnv()

	application, err := app.New(version, commit, date, builtBy)
	if err != nil {
		app.ExitOnError(err)
	}

	ctx, cancel := app.ContextWithSignals(context.Background())
	defer cancel()

	err = application.Execute(ctx, os.Args[1:])

	// The signal context may already be cancelled, so shutdown gets its own.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if shutdownErr := application.Shutdown(shutdownCtx); shutdownErr != nil {
		application.Logger().Error().Err(shutdownErr).Msg("Shutdown error")
	}

	app.ExitOnError(err)
}
