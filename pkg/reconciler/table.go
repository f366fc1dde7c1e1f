package reconciler

import (
	"sort"

	"github.com/agentstation/xtsmerge/pkg/results"
)

// joinTable is the outer join of one module across the runs that contain
// it: one column per run in chronological order, one row per case name.
type joinTable struct {
	module string
	runs   []LabeledRun
	rows   []results.Row
}

// moduleUnion returns the sorted union of module names.
func moduleUnion(runs []LabeledRun) []string {
	seen := make(map[string]struct{})
	for _, lr := range runs {
		for _, name := range lr.run.ModuleNames() {
			seen[name] = struct{}{}
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func buildTable(module string, runs []LabeledRun) joinTable {
	t := joinTable{module: module}

	var mods []*results.Module
	for _, lr := range runs {
		if m, ok := lr.run.Module(module); ok {
			t.runs = append(t.runs, lr)
			mods = append(mods, m)
		}
	}

	seen := make(map[string]struct{})
	var names []string
	for _, m := range mods {
		for _, name := range m.CaseNames() {
			if _, dup := seen[name]; !dup {
				seen[name] = struct{}{}
				names = append(names, name)
			}
		}
	}
	sort.Strings(names)

	t.rows = make([]results.Row, len(names))
	for i, name := range names {
		cells := make([]results.Outcome, len(mods))
		for j, m := range mods {
			if c, ok := m.Case(name); ok {
				cells[j] = c.Outcome()
			}
		}
		t.rows[i] = results.Row{Case: name, Cells: cells}
	}
	return t
}

func (r joinTable) failedRows() []results.Row {
	var out []results.Row
	for _, row := range r.rows {
		for _, cell := range row.Cells {
			if cell == results.Failed {
				out = append(out, row)
				break
			}
		}
	}
	return out
}
