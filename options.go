package xtsmerge

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/xtsmerge/pkg/constants"
	"github.com/agentstation/xtsmerge/pkg/errors"
)

// Option is a function that configures a Merger.
type Option func(*config) error

type config struct {
	logger           *zerolog.Logger
	primary          string
	patchPairs       []string
	sharedFields     []string
	summaryFields    []string
	deviceProperties []string
	matchThreshold   int
	unpack           bool
	workDir          string
	workers          int
	excludes         []string
	provenance       bool
	htmlVerification bool
}

func defaultConfig() *config {
	return &config{
		primary:          constants.SuiteCTS,
		patchPairs:       append([]string(nil), constants.DefaultPatchPairs...),
		sharedFields:     append([]string(nil), constants.DefaultSharedFields...),
		summaryFields:    append([]string(nil), constants.DefaultSummaryFields...),
		matchThreshold:   constants.DefaultMatchThreshold,
		unpack:           true,
		workers:          constants.DefaultWorkers,
		htmlVerification: true,
	}
}

func (c *config) apply(opts ...Option) error {
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(c); err != nil {
			return err
		}
	}
	return nil
}

// WithLogger sets the logger. Without it Merge uses the logger carried by
// its context.
func WithLogger(logger *zerolog.Logger) Option {
	return func(c *config) error {
		if logger == nil {
			return &errors.ValidationError{Field: "logger", Message: "cannot be nil"}
		}
		c.logger = logger
		return nil
	}
}

// WithPrimary sets the suite every bundle must contain.
func WithPrimary(suite string) Option {
	return func(c *config) error {
		if suite == "" {
			return &errors.ValidationError{Field: "primary", Message: "cannot be empty"}
		}
		c.primary = suite
		return nil
	}
}

// WithPatchPairs sets the suites whose security patch may not be older than
// the primary suite's.
func WithPatchPairs(suites ...string) Option {
	return func(c *config) error {
		c.patchPairs = append([]string(nil), suites...)
		return nil
	}
}

// WithSharedFields sets the summary fields that must agree across suites.
func WithSharedFields(fields ...string) Option {
	return func(c *config) error {
		c.sharedFields = append([]string(nil), fields...)
		return nil
	}
}

// WithSummaryFields sets the summary fields compared between a main run and
// its reruns.
func WithSummaryFields(fields ...string) Option {
	return func(c *config) error {
		if len(fields) == 0 {
			return &errors.ValidationError{Field: "summary_fields", Message: "at least one field is required"}
		}
		c.summaryFields = append([]string(nil), fields...)
		return nil
	}
}

// WithDeviceProperties replaces the device-info property whitelist.
func WithDeviceProperties(props ...string) Option {
	return func(c *config) error {
		c.deviceProperties = append([]string(nil), props...)
		return nil
	}
}

// WithMatchThreshold sets the similarity a summary key must exceed to match
// a requested field.
func WithMatchThreshold(threshold int) Option {
	return func(c *config) error {
		if threshold < 0 || threshold > 100 {
			return &errors.ValidationError{Field: "match_threshold", Value: threshold, Message: "must be between 0 and 100"}
		}
		c.matchThreshold = threshold
		return nil
	}
}

// WithUnpack controls whether zip archives are extracted during discovery.
func WithUnpack(enabled bool) Option {
	return func(c *config) error {
		c.unpack = enabled
		return nil
	}
}

// WithWorkDir sets where archives are extracted. The directory is kept after
// Merge returns. Without it a temporary directory is used and removed.
func WithWorkDir(dir string) Option {
	return func(c *config) error {
		c.workDir = dir
		return nil
	}
}

// WithWorkers bounds how many suite directories are processed concurrently.
func WithWorkers(n int) Option {
	return func(c *config) error {
		if n < 1 || n > constants.MaxWorkers {
			return &errors.ValidationError{Field: "workers", Value: n, Message: "must be between 1 and 64"}
		}
		c.workers = n
		return nil
	}
}

// WithExcludes adds entry name patterns skipped during discovery.
func WithExcludes(patterns ...string) Option {
	return func(c *config) error {
		c.excludes = append(c.excludes, patterns...)
		return nil
	}
}

// WithProvenance enables per-case provenance on reconciled suites.
func WithProvenance(enabled bool) Option {
	return func(c *config) error {
		c.provenance = enabled
		return nil
	}
}

// WithHTMLVerification controls the cross-check of each result document
// against its failures page.
func WithHTMLVerification(enabled bool) Option {
	return func(c *config) error {
		c.htmlVerification = enabled
		return nil
	}
}
