// Package resultstest builds runs for tests.
package resultstest

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/agentstation/xtsmerge/pkg/results"
)

// Epoch is a fixed base time for deterministic run ordering.
var Epoch = time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC)

// At returns Epoch shifted by the given number of hours.
func At(hours int) time.Time {
	return Epoch.Add(time.Duration(hours) * time.Hour)
}

// CaseSpec describes one case for a RunBuilder.
type CaseSpec struct {
	Name    string
	Outcome results.Outcome
}

// Pass returns a PASSED case.
func Pass(name string) CaseSpec { return CaseSpec{Name: name, Outcome: results.Passed} }

// Fail returns a FAILED case.
func Fail(name string) CaseSpec { return CaseSpec{Name: name, Outcome: results.Failed} }

// Assume returns an ASSUMPTION_FAILURE case.
func Assume(name string) CaseSpec { return CaseSpec{Name: name, Outcome: results.AssumptionFailure} }

// Ignore returns an IGNORED case.
func Ignore(name string) CaseSpec { return CaseSpec{Name: name, Outcome: results.Ignored} }

type moduleSpec struct {
	name  string
	done  bool
	cases []CaseSpec
}

// RunBuilder assembles a results.Run fluently.
type RunBuilder struct {
	cfg     results.RunConfig
	modules []moduleSpec
}

// NewRun starts a run for suite starting at start.
func NewRun(suite string, start time.Time) *RunBuilder {
	return &RunBuilder{cfg: results.RunConfig{
		Suite:  suite,
		Start:  start,
		Source: fmt.Sprintf("/reports/%s/%s", suite, start.Format("2006.01.02_15.04.05")),
	}}
}

// Source overrides the default source location.
func (b *RunBuilder) Source(source string) *RunBuilder {
	b.cfg.Source = source
	return b
}

// Summary appends a summary field.
func (b *RunBuilder) Summary(key, value string) *RunBuilder {
	b.cfg.Summary = append(b.cfg.Summary, results.Field{Key: key, Value: value})
	return b
}

// Device appends a device property.
func (b *RunBuilder) Device(property, value string) *RunBuilder {
	b.cfg.DeviceInfo = append(b.cfg.DeviceInfo, results.Field{Key: property, Value: value})
	return b
}

// Module appends a module with the given cases.
func (b *RunBuilder) Module(name string, done bool, cases ...CaseSpec) *RunBuilder {
	b.modules = append(b.modules, moduleSpec{name: name, done: done, cases: cases})
	return b
}

// Build constructs the run and fails the test on any validation error.
func (b *RunBuilder) Build(t testing.TB) *results.Run {
	t.Helper()
	cfg := b.cfg
	cfg.Modules = nil
	for _, ms := range b.modules {
		cases := make([]results.Case, 0, len(ms.cases))
		for _, cs := range ms.cases {
			var detail *string
			if cs.Outcome == results.Failed {
				d := "assertion failed: " + cs.Name
				detail = &d
			}
			c, err := results.NewCase(ms.name, cs.Name, cs.Outcome, detail)
			require.NoError(t, err)
			cases = append(cases, c)
		}
		m, err := results.NewModule(ms.name, ms.done, cases, results.Unknown())
		require.NoError(t, err)
		cfg.Modules = append(cfg.Modules, m)
	}
	r, err := results.NewRun(cfg)
	require.NoError(t, err)
	return r
}
