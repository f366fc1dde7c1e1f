package results

import (
	"fmt"

	"github.com/agentstation/xtsmerge/pkg/errors"
)

// Row is one case of an outer-join table: the outcome each contributing run
// reported for it, None where the run lacks the case.
type Row struct {
	Case  string
	Cells []Outcome
}

// CaseCounts is a snapshot of a CaseTally.
type CaseCounts struct {
	Total             int `json:"total" yaml:"total"`
	Passed            int `json:"passed" yaml:"passed"`
	Failed            int `json:"failed" yaml:"failed"`
	AssumptionFailure int `json:"assumption_failure" yaml:"assumption_failure"`
	Ignored           int `json:"ignored" yaml:"ignored"`
}

// CaseTally counts reconciled case outcomes. The zero value is ready to use.
type CaseTally struct {
	c CaseCounts
}

// Counts returns a snapshot of the counters.
func (t *CaseTally) Counts() CaseCounts { return t.c }

// Total returns the number of classified rows.
func (t *CaseTally) Total() int { return t.c.Total }

// Passed returns the PASSED bucket.
func (t *CaseTally) Passed() int { return t.c.Passed }

// Failed returns the FAILED bucket.
func (t *CaseTally) Failed() int { return t.c.Failed }

// AssumptionFailure returns the ASSUMPTION_FAILURE bucket.
func (t *CaseTally) AssumptionFailure() int { return t.c.AssumptionFailure }

// Ignored returns the IGNORED bucket.
func (t *CaseTally) Ignored() int { return t.c.Ignored }

// Update classifies every row into one bucket and adds the batch to the
// counters. A row counts as PASSED if any run passed it, else
// ASSUMPTION_FAILURE if any run reported that, else IGNORED likewise; what
// remains must be FAILED or absent in every cell. Counters are left
// untouched when the batch does not classify.
func (t *CaseTally) Update(rows []Row) error {
	next := t.c
	next.Total += len(rows)

	for _, row := range rows {
		switch {
		case row.has(Passed):
			next.Passed++
		case row.has(AssumptionFailure):
			next.AssumptionFailure++
		case row.has(Ignored):
			next.Ignored++
		default:
			if err := row.onlyFailed(); err != nil {
				return err
			}
			next.Failed++
		}
	}

	if next.Total != next.Passed+next.Failed+next.AssumptionFailure+next.Ignored {
		return errors.NewInvariantError("case tally total",
			"total %d != passed %d + failed %d + assumption failure %d + ignored %d",
			next.Total, next.Passed, next.Failed, next.AssumptionFailure, next.Ignored)
	}
	t.c = next
	return nil
}

func (r Row) has(o Outcome) bool {
	for _, cell := range r.Cells {
		if cell == o {
			return true
		}
	}
	return false
}

func (r Row) onlyFailed() error {
	failed := false
	for _, cell := range r.Cells {
		switch cell {
		case Failed:
			failed = true
		case None:
		default:
			return errors.NewInvariantError("case tally classification",
				"case %q holds unclassified outcome %s", r.Case, cell)
		}
	}
	if !failed {
		return errors.NewInvariantError("case tally classification", "case %q is absent from every run", r.Case)
	}
	return nil
}

// ModuleCounts is a snapshot of a ModuleTally.
type ModuleCounts struct {
	Total      int `json:"total" yaml:"total"`
	Done       int `json:"done" yaml:"done"`
	Incomplete int `json:"incomplete" yaml:"incomplete"`
}

type moduleField int

const (
	fieldTotal moduleField = iota
	fieldDone
	fieldIncomplete
)

func (f moduleField) String() string {
	return [...]string{"total", "done", "incomplete"}[f]
}

// ModuleCount is one argument to ModuleTally.Update.
type ModuleCount struct {
	field moduleField
	n     int
}

// Total supplies the total module count.
func Total(n int) ModuleCount { return ModuleCount{field: fieldTotal, n: n} }

// Done supplies the completed module count.
func Done(n int) ModuleCount { return ModuleCount{field: fieldDone, n: n} }

// Incomplete supplies the incomplete module count.
func Incomplete(n int) ModuleCount { return ModuleCount{field: fieldIncomplete, n: n} }

// ModuleTally counts module completion. The zero value is ready to use.
type ModuleTally struct {
	c ModuleCounts
}

// Counts returns a snapshot of the counters.
func (t *ModuleTally) Counts() ModuleCounts { return t.c }

// Total returns the number of modules.
func (t *ModuleTally) Total() int { return t.c.Total }

// Done returns the number of completed modules.
func (t *ModuleTally) Done() int { return t.c.Done }

// Incomplete returns the number of modules never completed.
func (t *ModuleTally) Incomplete() int { return t.c.Incomplete }

// Update adds a batch described by at least two of Total, Done and
// Incomplete; the missing one is derived.
func (t *ModuleTally) Update(counts ...ModuleCount) error {
	const op = "ModuleTally.Update"
	if len(counts) < 2 {
		return errors.NewInvalidArgumentError(op, "need at least 2 of total, done, incomplete; got %d", len(counts))
	}

	var vals [3]int
	var set [3]bool
	for _, c := range counts {
		if c.field < fieldTotal || c.field > fieldIncomplete {
			return errors.NewInvalidArgumentError(op, "unknown count kind %d", int(c.field))
		}
		if set[c.field] {
			return errors.NewInvalidArgumentError(op, "%s supplied twice", c.field)
		}
		if c.n < 0 {
			return errors.NewInvalidArgumentError(op, "%s is negative: %d", c.field, c.n)
		}
		vals[c.field], set[c.field] = c.n, true
	}

	switch {
	case !set[fieldTotal]:
		vals[fieldTotal] = vals[fieldDone] + vals[fieldIncomplete]
	case !set[fieldDone]:
		vals[fieldDone] = vals[fieldTotal] - vals[fieldIncomplete]
	case !set[fieldIncomplete]:
		vals[fieldIncomplete] = vals[fieldTotal] - vals[fieldDone]
	default:
		if vals[fieldTotal] != vals[fieldDone]+vals[fieldIncomplete] {
			return errors.NewInvalidArgumentError(op, "total %d != done %d + incomplete %d",
				vals[fieldTotal], vals[fieldDone], vals[fieldIncomplete])
		}
	}
	for f, v := range vals {
		if v < 0 {
			return errors.NewInvalidArgumentError(op, "derived %s is negative: %d", moduleField(f), v)
		}
	}

	next := ModuleCounts{
		Total:      t.c.Total + vals[fieldTotal],
		Done:       t.c.Done + vals[fieldDone],
		Incomplete: t.c.Incomplete + vals[fieldIncomplete],
	}
	if next.Total != next.Done+next.Incomplete {
		return errors.NewInvariantError("module tally total", "total %d != done %d + incomplete %d",
			next.Total, next.Done, next.Incomplete)
	}
	t.c = next
	return nil
}

// String implements fmt.Stringer.
func (c CaseCounts) String() string {
	return fmt.Sprintf("total=%d passed=%d failed=%d assumption_failure=%d ignored=%d",
		c.Total, c.Passed, c.Failed, c.AssumptionFailure, c.Ignored)
}
