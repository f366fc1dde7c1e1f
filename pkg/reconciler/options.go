package reconciler

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/xtsmerge/pkg/constants"
	"github.com/agentstation/xtsmerge/pkg/errors"
)

type options struct {
	logger        *zerolog.Logger
	summaryFields []string
	tracking      bool
	identity      string
}

func defaultOptions() *options {
	nop := zerolog.Nop()
	return &options{
		logger:        &nop,
		summaryFields: append([]string(nil), constants.DefaultSummaryFields...),
		tracking:      true,
	}
}

// Option is a function that configures a Reconciler.
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

func newOptions(opts ...Option) (*options, error) {
	return defaultOptions().apply(opts...)
}

// WithLogger sets the logger used for advisory warnings.
func WithLogger(logger *zerolog.Logger) Option {
	return func(o *options) error {
		if logger == nil {
			return &errors.ValidationError{
				Field:   "logger",
				Message: "cannot be nil",
			}
		}
		o.logger = logger
		return nil
	}
}

// WithSummaryFields replaces the summary fields compared between the main
// run and its reruns.
func WithSummaryFields(fields ...string) Option {
	return func(o *options) error {
		if len(fields) == 0 {
			return &errors.ValidationError{
				Field:   "summary_fields",
				Message: "at least one field is required",
			}
		}
		for _, f := range fields {
			if f == "" {
				return &errors.ValidationError{
					Field:   "summary_fields",
					Value:   fields,
					Message: "field names cannot be empty",
				}
			}
		}
		o.summaryFields = append([]string(nil), fields...)
		return nil
	}
}

// WithProvenance enables tracking of which run decided each outcome.
func WithProvenance(enabled bool) Option {
	return func(o *options) error {
		o.tracking = enabled
		return nil
	}
}

// WithIdentity restricts reconciliation to runs of the given suite identity
// before the main run is chosen. Without it the main run is chosen among
// all runs and its identity decides which runs take part.
func WithIdentity(identity string) Option {
	return func(o *options) error {
		if identity == "" {
			return &errors.ValidationError{
				Field:   "identity",
				Message: "cannot be empty",
			}
		}
		o.identity = identity
		return nil
	}
}
