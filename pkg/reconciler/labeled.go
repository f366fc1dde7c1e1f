package reconciler

import (
	"github.com/agentstation/xtsmerge/pkg/errors"
	"github.com/agentstation/xtsmerge/pkg/results"
)

// LabeledRun pairs a run with the label it received in one reconciliation:
// "main" for the authoritative run, an ordinal otherwise. The run itself is
// never modified.
type LabeledRun struct {
	run   *results.Run
	label string
}

// Run returns the underlying run.
func (l LabeledRun) Run() *results.Run { return l.run }

// Label returns the run label.
func (l LabeledRun) Label() string { return l.label }

// labeler hands out labels and refuses to label a run twice.
type labeler struct {
	seen map[*results.Run]string
}

func newLabeler() *labeler {
	return &labeler{seen: make(map[*results.Run]string)}
}

func (l *labeler) label(run *results.Run, label string) (LabeledRun, error) {
	if prev, ok := l.seen[run]; ok {
		return LabeledRun{}, errors.NewInvalidArgumentError("label",
			"run %s already labelled %q, cannot relabel as %q", run.Source(), prev, label)
	}
	l.seen[run] = label
	return LabeledRun{run: run, label: label}, nil
}
