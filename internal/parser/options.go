package parser

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/xtsmerge/pkg/errors"
	"github.com/agentstation/xtsmerge/pkg/matcher"
)

type options struct {
	logger     *zerolog.Logger
	matcher    matcher.Matcher
	source     string
	properties []string
	verifyHTML bool
}

func defaultOptions() *options {
	nop := zerolog.Nop()
	return &options{
		logger:     &nop,
		matcher:    matcher.Default(),
		properties: DefaultDeviceProperties,
		verifyHTML: true,
	}
}

// Option configures ParseDir.
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

// WithMatcher sets the matcher the run uses to resolve summary keys.
func WithMatcher(m matcher.Matcher) Option {
	return func(o *options) error {
		if m == nil {
			return &errors.ValidationError{Field: "matcher", Message: "cannot be nil"}
		}
		o.matcher = m
		return nil
	}
}

// WithSource overrides the source recorded on the run, for reports
// extracted from an archive.
func WithSource(source string) Option {
	return func(o *options) error {
		o.source = source
		return nil
	}
}

// WithDeviceProperties replaces the device property whitelist.
func WithDeviceProperties(props ...string) Option {
	return func(o *options) error {
		o.properties = append([]string(nil), props...)
		return nil
	}
}

// WithHTMLVerification toggles cross-checking the result document against
// the rendered failures page when it exists.
func WithHTMLVerification(enabled bool) Option {
	return func(o *options) error {
		o.verifyHTML = enabled
		return nil
	}
}
