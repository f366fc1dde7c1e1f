// Package xtsmerge reconciles compliance test suite reports into one
// authoritative result per suite and checks the suites of a bundle against
// each other.
//
// A bundle is a directory of suite directories, each holding the reports
// of a full run and its reruns, possibly zipped. Merge discovers the
// reports, parses them, reconciles every suite directory concurrently and
// runs the cross-suite checks:
//
//	m, err := xtsmerge.New(xtsmerge.WithWorkers(8))
//	if err != nil {
//		return err
//	}
//	m.OnRunDropped(func(source string, err error) {
//		log.Printf("dropped %s: %v", source, err)
//	})
//	result, err := m.Merge(ctx, "/path/to/bundle")
package xtsmerge

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/agentstation/xtsmerge/pkg/bundle"
	"github.com/agentstation/xtsmerge/pkg/errors"
	"github.com/agentstation/xtsmerge/pkg/logging"
	"github.com/agentstation/xtsmerge/pkg/matcher"
	"github.com/agentstation/xtsmerge/pkg/reconciler"
)

// ErrSuperseded marks a suite directory whose identity a newer directory
// already provided.
var ErrSuperseded = errors.New("superseded by a newer suite directory")

// Merger reconciles bundles of suite reports and notifies hooks
type Merger interface {
	// Merge discovers, parses and reconciles every report under root.
	Merge(ctx context.Context, root string) (*Result, error)

	// OnRunDropped registers a callback for reports excluded as malformed
	OnRunDropped(RunDroppedHook)

	// OnSuiteReconciled registers a callback for suites entering the bundle
	OnSuiteReconciled(SuiteReconciledHook)

	// OnSuiteSkipped registers a callback for suite directories yielding no suite
	OnSuiteSkipped(SuiteSkippedHook)
}

// merger is the internal implementation of the Merger interface
type merger struct {
	*hooks
	config  *config
	matcher matcher.Matcher
}

// New creates a Merger with the given options.
func New(opts ...Option) (Merger, error) {
	cfg := defaultConfig()
	if err := cfg.apply(opts...); err != nil {
		return nil, fmt.Errorf("applying options: %w", err)
	}
	return &merger{
		hooks:   newHooks(),
		config:  cfg,
		matcher: matcher.WithThreshold(cfg.matchThreshold),
	}, nil
}

// Merge is shorthand for New followed by Merge.
func Merge(ctx context.Context, root string, opts ...Option) (*Result, error) {
	m, err := New(opts...)
	if err != nil {
		return nil, err
	}
	return m.Merge(ctx, root)
}

func (m *merger) logger(ctx context.Context) *zerolog.Logger {
	if m.config.logger != nil {
		return m.config.logger
	}
	return logging.FromContext(ctx)
}

// Result is the outcome of one Merge.
type Result struct {
	// Root is the directory that was merged
	Root string `json:"root" yaml:"root"`

	// Bundle holds the reconciled suites and cross-suite flags
	Bundle *bundle.Report `json:"-" yaml:"-"`

	// Dirs describes every suite directory, newest first
	Dirs []DirResult `json:"dirs" yaml:"dirs"`

	// Unreadable lists entries discovery could not use
	Unreadable []Unreadable `json:"unreadable,omitempty" yaml:"unreadable,omitempty"`
}

// DirResult describes what became of one suite directory.
type DirResult struct {
	Path    string    `json:"path" yaml:"path"`
	Suite   string    `json:"suite,omitempty" yaml:"suite,omitempty"`
	Reports int       `json:"reports" yaml:"reports"`
	Runs    int       `json:"runs" yaml:"runs"`
	Dropped []Dropped `json:"dropped,omitempty" yaml:"dropped,omitempty"`
	Skipped string    `json:"skipped,omitempty" yaml:"skipped,omitempty"`

	// Superseded is set when a newer directory provided the same suite
	Superseded bool `json:"superseded,omitempty" yaml:"superseded,omitempty"`
}

// Dropped is a report excluded from reconciliation.
type Dropped struct {
	Source string `json:"source" yaml:"source"`
	Reason string `json:"reason" yaml:"reason"`
	err    error
}

// Err returns the error that excluded the report. A Dropped decoded from
// serialized output only carries its Reason.
func (d Dropped) Err() error {
	if d.err != nil {
		return d.err
	}
	return errors.New(d.Reason)
}

// Unreadable is an entry discovery skipped, such as a broken archive.
type Unreadable struct {
	Path   string `json:"path" yaml:"path"`
	Reason string `json:"reason" yaml:"reason"`
}

// Dropped returns every dropped report across all directories.
func (r *Result) Dropped() []Dropped {
	var out []Dropped
	for _, d := range r.Dirs {
		out = append(out, d.Dropped...)
	}
	return out
}

// Suite returns the reconciled suite with the given identity.
func (r *Result) Suite(id string) (*reconciler.Suite, bool) {
	if r.Bundle == nil {
		return nil, false
	}
	return r.Bundle.Suite(id)
}
