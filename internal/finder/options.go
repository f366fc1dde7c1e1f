package finder

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/xtsmerge/pkg/constants"
	"github.com/agentstation/xtsmerge/pkg/errors"
)

// DefaultExcludes skips the scratch directory older tooling left inside
// suite directories.
var DefaultExcludes = []string{".unpack"}

type options struct {
	logger   *zerolog.Logger
	unpack   bool
	workDir  string
	workers  int
	excludes patternSet
	maxDepth int
}

func defaultOptions() *options {
	nop := zerolog.Nop()
	o := &options{
		logger:   &nop,
		workers:  constants.DefaultWorkers,
		maxDepth: defaultArchiveDepth,
	}
	for _, raw := range DefaultExcludes {
		p, _ := CompilePattern(raw)
		o.excludes = append(o.excludes, p)
	}
	return o
}

// Option configures Find.
type Option func(*options) error

func (o *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// WithLogger sets the logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(o *options) error {
		if logger == nil {
			return &errors.ValidationError{Field: "logger", Message: "cannot be nil"}
		}
		o.logger = logger
		return nil
	}
}

// WithUnpack enables extraction of zip archives found during discovery.
func WithUnpack(enabled bool) Option {
	return func(o *options) error {
		o.unpack = enabled
		return nil
	}
}

// WithWorkDir sets where archives are extracted. Without it a temporary
// directory is created and removed by Result.Cleanup.
func WithWorkDir(dir string) Option {
	return func(o *options) error {
		o.workDir = dir
		return nil
	}
}

// WithWorkers bounds how many suite directories are scanned at once.
func WithWorkers(n int) Option {
	return func(o *options) error {
		if n < 1 || n > constants.MaxWorkers {
			return errors.NewValidationError("workers", n, "must be between 1 and 64")
		}
		o.workers = n
		return nil
	}
}

// WithExcludes replaces the patterns of entry names skipped during
// discovery. Patterns are globs unless they use regex syntax.
func WithExcludes(patterns ...string) Option {
	return func(o *options) error {
		set := make(patternSet, 0, len(patterns))
		for _, raw := range patterns {
			p, err := CompilePattern(raw)
			if err != nil {
				return errors.NewValidationError("excludes", raw, err.Error())
			}
			set = append(set, p)
		}
		o.excludes = set
		return nil
	}
}

// WithArchiveDepth bounds how many archives may be nested in each other.
func WithArchiveDepth(n int) Option {
	return func(o *options) error {
		if n < 0 {
			return errors.NewValidationError("archive_depth", n, "cannot be negative")
		}
		o.maxDepth = n
		return nil
	}
}
