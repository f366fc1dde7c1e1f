// Package parser turns a compatibility test report directory into a
// validated results.Run.
//
// A report directory holds test_result.xml and, usually, rendered HTML
// pages and a device information dump. Every count the report declares is
// checked against the cases actually listed; a report that contradicts
// itself is malformed and must be dropped rather than merged.
package parser

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/agentstation/xtsmerge/pkg/constants"
	"github.com/agentstation/xtsmerge/pkg/errors"
	"github.com/agentstation/xtsmerge/pkg/results"
)

// Header is what a report says about itself before its cases are read.
type Header struct {
	Suite string
	Start time.Time
}

// Identify reads the suite identity and start time of the report in dir
// without parsing its cases.
func Identify(dir string) (Header, error) {
	path := filepath.Join(dir, constants.ResultXMLFile)
	r, err := peekResult(path)
	if err != nil {
		return Header{}, err
	}
	suite, err := r.identity()
	if err != nil {
		return Header{}, withSource(err, dir)
	}
	start, err := r.startTime()
	if err != nil {
		return Header{}, withSource(err, dir)
	}
	return Header{Suite: suite, Start: start}, nil
}

// ParseDir parses the report in dir.
func ParseDir(dir string, opts ...Option) (*results.Run, error) {
	o, err := defaultOptions().apply(opts...)
	if err != nil {
		return nil, err
	}
	source := o.source
	if source == "" {
		source = dir
	}

	path := filepath.Join(dir, constants.ResultXMLFile)
	doc, err := decodeResult(path)
	if err != nil {
		return nil, err
	}

	run, err := buildRun(doc, source, o)
	if err != nil {
		return nil, withSource(err, source)
	}

	if o.verifyHTML {
		if err := verifyHTML(filepath.Join(dir, constants.FailuresHTMLFile), run); err != nil {
			return nil, withSource(err, source)
		}
	}

	device, err := loadDeviceInfo(dir, o.properties)
	if err != nil {
		return nil, err
	}
	if device != nil {
		cfg := runConfig(run)
		cfg.DeviceInfo = device
		cfg.Matcher = o.matcher
		if run, err = results.NewRun(cfg); err != nil {
			return nil, withSource(err, source)
		}
	}

	o.logger.Debug().
		Str("suite", run.Suite()).
		Str("source", source).
		Int("modules", len(run.ModuleNames())).
		Int("cases", run.TotalCases()).
		Bool("device_info", device != nil).
		Msg("Parsed report")
	return run, nil
}

func buildRun(doc *xmlResult, source string, o *options) (*results.Run, error) {
	suite, err := doc.identity()
	if err != nil {
		return nil, err
	}
	start, err := doc.startTime()
	if err != nil {
		return nil, err
	}
	if doc.Build == nil || doc.Summary == nil {
		return nil, errors.NewMalformedInputError("", "", "Result lacks Build or Summary element")
	}

	modules := make([]*results.Module, 0, len(doc.Modules))
	for _, xm := range doc.Modules {
		m, err := buildModule(xm)
		if err != nil {
			return nil, err
		}
		modules = append(modules, m)
	}

	run, err := results.NewRun(results.RunConfig{
		Suite:   suite,
		Source:  source,
		Start:   start,
		Summary: summaryFields(doc),
		Modules: modules,
		Matcher: o.matcher,
	})
	if err != nil {
		return nil, err
	}
	if err := verifyTotals(doc.Summary, run); err != nil {
		return nil, err
	}
	return run, nil
}

func buildModule(xm xmlModule) (*results.Module, error) {
	name := xm.fullName()
	var cases []results.Case
	for _, tc := range xm.TestCases {
		for _, t := range tc.Tests {
			caseName := tc.Name + "#" + t.Name
			outcome, err := results.ParseOutcome(t.Result)
			if err != nil {
				return nil, errors.NewMalformedInputError(name, caseName, err.Error())
			}
			var detail *string
			if outcome == results.Failed && t.Failure != nil {
				detail = t.Failure.Message
			}
			c, err := results.NewCase(name, caseName, outcome, detail)
			if err != nil {
				return nil, err
			}
			cases = append(cases, c)
		}
	}

	declared := results.Unknown()
	if xm.TotalTests != nil {
		n, err := atoi("Module/@total_tests", *xm.TotalTests)
		if err != nil {
			return nil, errors.NewMalformedInputError(name, "", err.Error())
		}
		declared.Total = n
	}
	if xm.Pass != nil {
		n, err := atoi("Module/@pass", *xm.Pass)
		if err != nil {
			return nil, errors.NewMalformedInputError(name, "", err.Error())
		}
		declared.Passed = n
	}
	return results.NewModule(name, xm.Done == "true", cases, declared)
}

func summaryFields(doc *xmlResult) []results.Field {
	return []results.Field{
		{Key: constants.FieldSuitePlan, Value: doc.SuiteName + " / " + doc.SuitePlan},
		{Key: constants.FieldSuiteBuild, Value: doc.SuiteVersion + " / " + doc.SuiteBuildNumber},
		{Key: constants.FieldHostInfo, Value: fmt.Sprintf("Result/@start %s (%s - %s)", doc.HostName, doc.OSName, doc.OSVersion)},
		{Key: constants.FieldTimeRange, Value: doc.StartDisplay + " / " + doc.EndDisplay},
		{Key: constants.FieldTestsPassed, Value: doc.Summary.Pass},
		{Key: constants.FieldTestsFailed, Value: doc.Summary.Failed},
		{Key: constants.FieldModulesDone, Value: doc.Summary.ModulesDone},
		{Key: constants.FieldModulesTotal, Value: doc.Summary.ModulesTotal},
		{Key: constants.FieldFingerprint, Value: doc.Build.Fingerprint},
		{Key: constants.FieldSecurityPatch, Value: doc.Build.SecurityPatch},
		{Key: constants.FieldReleaseSDK, Value: fmt.Sprintf("%s (%s)", doc.Build.Release, doc.Build.SDK)},
		{Key: constants.FieldABIs, Value: doc.Build.ABIs},
	}
}

// verifyTotals checks the report-level Summary element against the modules.
func verifyTotals(s *xmlSummary, run *results.Run) error {
	checks := []struct {
		field string
		raw   string
		want  int
	}{
		{"Summary/@pass", s.Pass, run.Count(results.Passed)},
		{"Summary/@failed", s.Failed, run.Count(results.Failed)},
		{"Summary/@modules_done", s.ModulesDone, run.DoneModules()},
		{"Summary/@modules_total", s.ModulesTotal, len(run.ModuleNames())},
	}
	for _, c := range checks {
		got, err := atoi(c.field, c.raw)
		if err != nil {
			return err
		}
		if got != c.want {
			return errors.NewMalformedInputError("", "", fmt.Sprintf("%s declares %d, report holds %d", c.field, got, c.want))
		}
	}
	return nil
}

func runConfig(r *results.Run) results.RunConfig {
	return results.RunConfig{
		Suite:      r.Suite(),
		Source:     r.Source(),
		Start:      r.Start(),
		Summary:    r.SummaryFields(),
		Modules:    r.Modules(),
		DeviceInfo: r.DeviceProperties(),
	}
}

// withSource stamps the report location on malformed input errors.
func withSource(err error, source string) error {
	var mi *errors.MalformedInputError
	if errors.As(err, &mi) && mi.Source == "" {
		cp := *mi
		cp.Source = source
		return &cp
	}
	return err
}
