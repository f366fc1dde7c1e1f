package reconciler

import (
	"github.com/agentstation/xtsmerge/pkg/provenance"
	"github.com/agentstation/xtsmerge/pkg/results"
)

// Verdict summarises a reconciled suite.
type Verdict string

// Verdict values.
const (
	VerdictPass       Verdict = "Pass"
	VerdictFail       Verdict = "Fail"
	VerdictIncomplete Verdict = "Incomplete"
)

// DivergentBuild notes a rerun executed with a different suite build than
// the main run, typically a daily build used to retry a few modules.
type DivergentBuild struct {
	Label   string   `json:"label" yaml:"label"`
	Source  string   `json:"source" yaml:"source"`
	Build   string   `json:"build" yaml:"build"`
	Modules []string `json:"modules" yaml:"modules"`
}

// Suite is the reconciliation of all runs sharing one suite identity. It is
// immutable and every accessor returns a copy.
type Suite struct {
	identity     string
	main         LabeledRun
	runs         []LabeledRun
	caseTally    results.CaseTally
	moduleTally  results.ModuleTally
	records      []*CaseRecord
	incomplete   []string
	inconsistent map[string][]string
	divergent    []DivergentBuild
	discarded    []string
	provenance   provenance.Map
}

// Identity returns the suite identity shared by all participating runs.
func (s *Suite) Identity() string { return s.identity }

// Main returns the authoritative run.
func (s *Suite) Main() LabeledRun { return s.main }

// Runs returns the participating runs in chronological order.
func (s *Suite) Runs() []LabeledRun {
	return append([]LabeledRun(nil), s.runs...)
}

// Run returns the participating run with the given label.
func (s *Suite) Run(label string) (LabeledRun, bool) {
	for _, lr := range s.runs {
		if lr.label == label {
			return lr, true
		}
	}
	return LabeledRun{}, false
}

// CaseTally returns the reconciled case counts.
func (s *Suite) CaseTally() results.CaseCounts { return s.caseTally.Counts() }

// ModuleTally returns the reconciled module counts.
func (s *Suite) ModuleTally() results.ModuleCounts { return s.moduleTally.Counts() }

// Records returns a record for every case that failed in at least one run,
// ordered by module then case name.
func (s *Suite) Records() []*CaseRecord {
	return append([]*CaseRecord(nil), s.records...)
}

// StillFailedRecords returns the records no rerun resolved.
func (s *Suite) StillFailedRecords() []*CaseRecord {
	var out []*CaseRecord
	for _, r := range s.records {
		if r.StillFailed() {
			out = append(out, r)
		}
	}
	return out
}

// IncompleteModules returns the sorted names of modules no run completed.
func (s *Suite) IncompleteModules() []string {
	return append([]string(nil), s.incomplete...)
}

// InconsistentFields returns the summary fields on which the labelled run
// disagrees with the main run.
func (s *Suite) InconsistentFields(label string) []string {
	return append([]string(nil), s.inconsistent[label]...)
}

// Inconsistencies returns InconsistentFields for every run that has any.
func (s *Suite) Inconsistencies() map[string][]string {
	out := make(map[string][]string, len(s.inconsistent))
	for k, v := range s.inconsistent {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// DivergentBuilds returns reruns whose suite build differs from the main run.
func (s *Suite) DivergentBuilds() []DivergentBuild {
	out := make([]DivergentBuild, len(s.divergent))
	for i, d := range s.divergent {
		d.Modules = append([]string(nil), d.Modules...)
		out[i] = d
	}
	return out
}

// DiscardedRuns returns the sources of runs dropped because their suite
// identity differed from the main run's.
func (s *Suite) DiscardedRuns() []string {
	return append([]string(nil), s.discarded...)
}

// Provenance returns which run decided each merged value, or nil when
// tracking was disabled.
func (s *Suite) Provenance() provenance.Map {
	if s.provenance == nil {
		return nil
	}
	out := make(provenance.Map, len(s.provenance))
	for k, v := range s.provenance {
		out[k] = append([]provenance.Provenance(nil), v...)
	}
	return out
}

// Verdict is Fail when any case is still failed, Incomplete when any module
// never completed, and Pass otherwise.
func (s *Suite) Verdict() Verdict {
	switch {
	case s.caseTally.Failed() > 0:
		return VerdictFail
	case s.moduleTally.Incomplete() > 0:
		return VerdictIncomplete
	}
	return VerdictPass
}

// MainSummary resolves a summary field on the main run.
func (s *Suite) MainSummary(key string) (string, bool) {
	return s.main.run.Summary(key)
}
