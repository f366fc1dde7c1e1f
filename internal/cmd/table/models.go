// Package table converts merge results into rows for tabular CLI output.
package table

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/agentstation/xtsmerge/internal/finder"
	"github.com/agentstation/xtsmerge/pkg/bundle"
	"github.com/agentstation/xtsmerge/pkg/constants"
)

// Align represents column alignment in tables.
type Align int

const (
	// AlignDefault uses the default alignment (skip).
	AlignDefault Align = iota
	// AlignLeft aligns content to the left.
	AlignLeft
	// AlignCenter centers content.
	AlignCenter
	// AlignRight aligns content to the right.
	AlignRight
)

// Data represents table formatting data to avoid import cycles.
type Data struct {
	Headers         []string
	Rows            [][]string
	ColumnAlignment []Align // Optional: column alignment
}

// NotAvailable fills cells of known suites absent from a bundle.
const NotAvailable = "NA"

// SuitesToTableData lists every suite of a bundle with its reconciled
// counts, known suites first. Known suites missing from the bundle get a
// row of NA cells.
func SuitesToTableData(report *bundle.Report) Data {
	headers := []string{"Suite", "Verdict", "Runs", "Tests", "Passed", "Failed", "Assumption", "Ignored", "Modules", "Done", "Security Patch"}

	order := presentationOrder(report)
	rows := make([][]string, 0, len(order))
	for _, id := range order {
		s, ok := report.Suite(id)
		if !ok {
			row := []string{id}
			for range headers[1:] {
				row = append(row, NotAvailable)
			}
			rows = append(rows, row)
			continue
		}

		cases, modules := s.CaseTally(), s.ModuleTally()
		patch, _ := s.MainSummary(constants.FieldSecurityPatch)
		rows = append(rows, []string{
			id,
			string(s.Verdict()),
			strconv.Itoa(len(s.Runs())),
			strconv.Itoa(cases.Total),
			strconv.Itoa(cases.Passed),
			strconv.Itoa(cases.Failed),
			strconv.Itoa(cases.AssumptionFailure),
			strconv.Itoa(cases.Ignored),
			strconv.Itoa(modules.Total),
			strconv.Itoa(modules.Done),
			patch,
		})
	}

	return Data{
		Headers: headers,
		Rows:    rows,
		ColumnAlignment: []Align{
			AlignLeft, AlignLeft,
			AlignRight, AlignRight, AlignRight, AlignRight, AlignRight, AlignRight, AlignRight, AlignRight,
			AlignLeft,
		},
	}
}

// presentationOrder lists every known suite, present or not, followed by
// the other suites of the bundle.
func presentationOrder(report *bundle.Report) []string {
	known := make(map[string]bool, len(constants.KnownSuites))
	order := make([]string, 0, len(constants.KnownSuites))
	for _, id := range constants.KnownSuites {
		known[id] = true
		order = append(order, id)
	}
	for _, id := range report.Ordered() {
		if !known[id] {
			order = append(order, id)
		}
	}
	return order
}

// RunsToTableData lists the runs that took part in each suite.
func RunsToTableData(report *bundle.Report) Data {
	var rows [][]string
	for _, id := range report.Ordered() {
		s, _ := report.Suite(id)
		for _, lr := range s.Runs() {
			run := lr.Run()
			build, _ := run.Summary(constants.FieldSuiteBuild)
			rows = append(rows, []string{
				id,
				lr.Label(),
				formatTime(run.Start()),
				build,
				run.Source(),
			})
		}
	}
	return Data{
		Headers: []string{"Suite", "Run", "Start", "Build", "Source"},
		Rows:    rows,
	}
}

// FailedToTableData lists the cases no rerun resolved.
func FailedToTableData(report *bundle.Report) Data {
	var rows [][]string
	for _, id := range report.Ordered() {
		s, _ := report.Suite(id)
		for _, rec := range s.StillFailedRecords() {
			rows = append(rows, []string{id, rec.Module(), rec.Name(), rec.History(), truncate(rec.Detail(), 80)})
		}
	}
	return Data{
		Headers: []string{"Suite", "Module", "Test", "History", "Detail"},
		Rows:    rows,
	}
}

// IncompleteToTableData lists the modules no run completed.
func IncompleteToTableData(report *bundle.Report) Data {
	var rows [][]string
	for _, id := range report.Ordered() {
		s, _ := report.Suite(id)
		for _, m := range s.IncompleteModules() {
			rows = append(rows, []string{id, m})
		}
	}
	return Data{
		Headers: []string{"Suite", "Module"},
		Rows:    rows,
	}
}

// DeviceInfoToTableData shows one column per suite for every whitelisted
// device property.
func DeviceInfoToTableData(report *bundle.Report) Data {
	suites := report.Ordered()
	headers := append([]string{"Property"}, suites...)

	var rows [][]string
	for _, dr := range report.DeviceInfo() {
		row := []string{dr.Property}
		for _, id := range suites {
			v, ok := dr.Values[id]
			if !ok {
				v = "-"
			}
			row = append(row, v)
		}
		rows = append(rows, row)
	}
	return Data{Headers: headers, Rows: rows}
}

// AdvisoriesToTableData collects the non-fatal findings of a bundle: flags
// raised by the cross-suite checks and notes from each suite reconciliation.
func AdvisoriesToTableData(report *bundle.Report) Data {
	var rows [][]string
	add := func(suite, kind, detail string) {
		rows = append(rows, []string{suite, kind, detail})
	}

	for _, id := range report.Ordered() {
		if f, ok := report.Flags(id); ok {
			if f.WrongSecurityPatch {
				add(id, "security patch", f.SecurityPatch+": "+f.PatchNote)
			}
			for _, field := range f.DivergentFields {
				consensus, _ := report.Consensus(field)
				add(id, "shared field", field+" differs from "+consensus)
			}
		}

		s, _ := report.Suite(id)
		inconsistencies := s.Inconsistencies()
		labels := make([]string, 0, len(inconsistencies))
		for label := range inconsistencies {
			labels = append(labels, label)
		}
		sort.Strings(labels)
		for _, label := range labels {
			add(id, "summary mismatch", "run "+label+": "+strings.Join(inconsistencies[label], ", "))
		}
		for _, d := range s.DivergentBuilds() {
			add(id, "divergent build", "run "+d.Label+" used "+d.Build+" for "+strings.Join(d.Modules, ", "))
		}
		for _, src := range s.DiscardedRuns() {
			add(id, "discarded run", src)
		}
	}
	return Data{
		Headers: []string{"Suite", "Advisory", "Detail"},
		Rows:    rows,
	}
}

// ReportsToTableData lists discovered reports grouped by suite directory.
func ReportsToTableData(found *finder.Result) Data {
	var rows [][]string
	for _, dir := range found.Dirs {
		for i, r := range dir.Reports {
			dirCell := ""
			if i == 0 {
				dirCell = dir.Path
			}
			missing := make([]string, len(r.Missing))
			for j, a := range r.Missing {
				missing[j] = string(a)
			}
			rows = append(rows, []string{dirCell, r.Suite, formatTime(r.Start), r.Source, dash(strings.Join(missing, ", "))})
		}
	}
	return Data{
		Headers: []string{"Directory", "Suite", "Start", "Source", "Missing"},
		Rows:    rows,
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format("2006-01-02 15:04:05")
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
