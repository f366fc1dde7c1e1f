package bundle

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/xtsmerge/pkg/constants"
	"github.com/agentstation/xtsmerge/pkg/errors"
)

type options struct {
	logger       *zerolog.Logger
	primary      string
	patchPairs   []string
	sharedFields []string
}

func defaultOptions() *options {
	nop := zerolog.Nop()
	return &options{
		logger:       &nop,
		primary:      constants.SuiteCTS,
		patchPairs:   append([]string(nil), constants.DefaultPatchPairs...),
		sharedFields: append([]string(nil), constants.DefaultSharedFields...),
	}
}

// Option configures a consistency check.
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

// WithLogger sets the logger used for advisory warnings.
func WithLogger(logger *zerolog.Logger) Option {
	return func(o *options) error {
		if logger == nil {
			return &errors.ValidationError{Field: "logger", Message: "cannot be nil"}
		}
		o.logger = logger
		return nil
	}
}

// WithPrimary sets the baseline suite every bundle must contain.
func WithPrimary(suite string) Option {
	return func(o *options) error {
		if suite == "" {
			return &errors.ValidationError{Field: "primary_suite", Message: "cannot be empty"}
		}
		o.primary = suite
		return nil
	}
}

// WithPatchPairs sets the suites whose security patch must not be older
// than the primary's. An empty list disables the check.
func WithPatchPairs(suites ...string) Option {
	return func(o *options) error {
		for _, s := range suites {
			if s == "" {
				return &errors.ValidationError{Field: "patch_pairs", Value: suites, Message: "suite names cannot be empty"}
			}
		}
		o.patchPairs = append([]string(nil), suites...)
		return nil
	}
}

// WithSharedFields sets the summary fields that must agree across every
// suite. An empty list disables the check.
func WithSharedFields(fields ...string) Option {
	return func(o *options) error {
		for _, f := range fields {
			if f == "" {
				return &errors.ValidationError{Field: "shared_fields", Value: fields, Message: "field names cannot be empty"}
			}
		}
		o.sharedFields = append([]string(nil), fields...)
		return nil
	}
}
