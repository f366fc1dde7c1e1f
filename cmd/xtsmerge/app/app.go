// Package app wires configuration, logging and tracing for the xtsmerge CLI
// and hosts its commands.
package app

import (
	"context"
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/agentstation/xtsmerge"
	"github.com/agentstation/xtsmerge/internal/cmd/globals"
	"github.com/agentstation/xtsmerge/internal/config"
	"github.com/agentstation/xtsmerge/internal/observability"
	"github.com/agentstation/xtsmerge/pkg/errors"
	"github.com/agentstation/xtsmerge/pkg/logging"
)

// App holds the dependencies shared by all commands.
type App struct {
	version string
	commit  string
	date    string
	builtBy string

	// config is loaded when a command starts, unless injected with WithConfig.
	config *config.Config
	flags  *globals.Flags
	logger *zerolog.Logger
	tracer *observability.TracerProvider

	stdout io.Writer
	stderr io.Writer

	// command and root describe the running command for error hints.
	command string
	root    string
}

// New creates a new App instance with the given version information.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
		flags:   &globals.Flags{},
		logger:  logging.Default(),
		stdout:  os.Stdout,
		stderr:  os.Stderr,
	}

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}
	return app, nil
}

// Version returns the version information.
func (a *App) Version() string { return a.version }

// Config returns the loaded configuration, nil before a command has run.
func (a *App) Config() *config.Config { return a.config }

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger { return a.logger }

// setup loads configuration and builds the logger and tracer. It runs once
// per command invocation, after flags are parsed.
func (a *App) setup(ctx context.Context) error {
	if a.config == nil {
		cfg, err := config.Load(a.flags.Config)
		if err != nil {
			return err
		}
		a.config = cfg
	}

	logger := NewLogger(a.config, a.flags)
	a.logger = &logger
	logging.SetDefault(logger)
	if a.config.File != "" {
		a.logger.Debug().Str("file", a.config.File).Msg("Loaded config file")
	}

	if a.tracer == nil {
		tp, err := observability.InitTracing(ctx, &observability.TracingConfig{
			ServiceName:    a.config.Tracing.ServiceName,
			ServiceVersion: a.version,
			OTLPEndpoint:   a.config.Tracing.Endpoint,
			Insecure:       a.config.Tracing.Insecure,
			SampleRate:     a.config.Tracing.SampleRate,
		})
		if err != nil {
			return errors.NewConfigError("tracing", "cannot export to "+a.config.Tracing.Endpoint, err)
		}
		a.tracer = tp
	}
	return nil
}

// mergeOptions translates the configuration into merge options.
func (a *App) mergeOptions() []xtsmerge.Option {
	c := a.config
	opts := []xtsmerge.Option{
		xtsmerge.WithLogger(a.logger),
		xtsmerge.WithPrimary(c.PrimarySuite),
		xtsmerge.WithPatchPairs(c.PatchPairs...),
		xtsmerge.WithSharedFields(c.SharedFields...),
		xtsmerge.WithSummaryFields(c.SummaryFields...),
		xtsmerge.WithMatchThreshold(c.MatchThreshold),
		xtsmerge.WithUnpack(c.Unpack),
		xtsmerge.WithWorkers(c.Workers),
		xtsmerge.WithProvenance(c.Provenance),
		xtsmerge.WithHTMLVerification(c.HTMLVerification),
	}
	if c.WorkDir != "" {
		opts = append(opts, xtsmerge.WithWorkDir(c.WorkDir))
	}
	if len(c.Excludes) > 0 {
		opts = append(opts, xtsmerge.WithExcludes(c.Excludes...))
	}
	return opts
}

// Shutdown flushes pending spans.
func (a *App) Shutdown(ctx context.Context) error {
	if a.tracer == nil {
		return nil
	}
	return a.tracer.Shutdown(ctx)
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a configuration and skips loading one.
func WithConfig(cfg *config.Config) Option {
	return func(a *App) error {
		if cfg == nil {
			return &errors.ValidationError{Field: "config", Message: "cannot be nil"}
		}
		a.config = cfg
		return nil
	}
}

// WithOutput redirects command output and alerts.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(a *App) error {
		if stdout == nil || stderr == nil {
			return &errors.ValidationError{Field: "output", Message: "writers cannot be nil"}
		}
		a.stdout = stdout
		a.stderr = stderr
		return nil
	}
}
