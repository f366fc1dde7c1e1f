package reconciler

import (
	"strings"

	"github.com/agentstation/xtsmerge/pkg/errors"
	"github.com/agentstation/xtsmerge/pkg/results"
)

// Occurrence is one run's result for a case.
type Occurrence struct {
	Label  string       `json:"label" yaml:"label"`
	Source string       `json:"source" yaml:"source"`
	Case   results.Case `json:"-" yaml:"-"`
}

// Outcome returns the case outcome in this run.
func (o Occurrence) Outcome() results.Outcome { return o.Case.Outcome() }

// CaseRecord follows a case that failed in at least one run across every run
// that attempted it.
type CaseRecord struct {
	module      string
	name        string
	occurrences []Occurrence
}

// newCaseRecord gathers the case from runs, which must be the chronological
// list of runs containing module. A run that the join table says holds the
// case but cannot produce it is an invariant violation.
func newCaseRecord(module, name string, runs []LabeledRun, cells []results.Outcome) (*CaseRecord, error) {
	if len(runs) != len(cells) {
		return nil, errors.NewInvariantError("case record columns",
			"module %q has %d runs but %d cells for case %q", module, len(runs), len(cells), name)
	}

	rec := &CaseRecord{module: module, name: name}
	for i, lr := range runs {
		if cells[i] == results.None {
			continue
		}
		c, ok := lr.run.Case(module, name)
		if !ok {
			return nil, errors.WrapInvariant("case record lookup",
				errors.NewNotFoundError("case", results.CaseKey(module, name)+" in run "+lr.label))
		}
		if c.Outcome() != cells[i] {
			return nil, errors.NewInvariantError("case record lookup",
				"case %q in run %s is %s, join table says %s", name, lr.label, c.Outcome(), cells[i])
		}
		rec.occurrences = append(rec.occurrences, Occurrence{Label: lr.label, Source: lr.run.Source(), Case: c})
	}
	if len(rec.occurrences) == 0 {
		return nil, errors.NewInvariantError("case record lookup", "case %q has no occurrence", name)
	}
	return rec, nil
}

// Module returns the module name.
func (r *CaseRecord) Module() string { return r.module }

// Name returns the case name.
func (r *CaseRecord) Name() string { return r.name }

// Key returns the case identity.
func (r *CaseRecord) Key() string { return results.CaseKey(r.module, r.name) }

// Occurrences returns a copy of the occurrences in chronological order.
func (r *CaseRecord) Occurrences() []Occurrence {
	return append([]Occurrence(nil), r.occurrences...)
}

// decider returns the index of the first occurrence that is not FAILED, or
// -1 when every occurrence failed.
func (r *CaseRecord) decider() int {
	for i, o := range r.occurrences {
		if o.Outcome().Resolves() {
			return i
		}
	}
	return -1
}

// MergedOutcome is the first non-FAILED outcome in chronological order, or
// FAILED when the case failed everywhere it ran.
func (r *CaseRecord) MergedOutcome() results.Outcome {
	if i := r.decider(); i >= 0 {
		return r.occurrences[i].Outcome()
	}
	return results.Failed
}

// StillFailed reports whether no rerun resolved the case.
func (r *CaseRecord) StillFailed() bool {
	return r.MergedOutcome() == results.Failed
}

// ResolvedBy returns the label of the run that decided the merged outcome:
// the resolving run, or the latest run when the case is still failed.
func (r *CaseRecord) ResolvedBy() string {
	if i := r.decider(); i >= 0 {
		return r.occurrences[i].Label
	}
	return r.occurrences[len(r.occurrences)-1].Label
}

// Detail returns the failure detail of the latest failing occurrence.
func (r *CaseRecord) Detail() string {
	for i := len(r.occurrences) - 1; i >= 0; i-- {
		if r.occurrences[i].Outcome() == results.Failed {
			d, _ := r.occurrences[i].Case.Detail()
			return d
		}
	}
	return ""
}

// History renders the occurrences as "main(fail), 1(pass)".
func (r *CaseRecord) History() string {
	parts := make([]string, len(r.occurrences))
	for i, o := range r.occurrences {
		parts[i] = o.Label + "(" + o.Outcome().String() + ")"
	}
	return strings.Join(parts, ", ")
}
