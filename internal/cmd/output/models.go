package output

import (
	"io"
	"sort"
	"time"

	"github.com/agentstation/xtsmerge"
	"github.com/agentstation/xtsmerge/internal/cmd/table"
	"github.com/agentstation/xtsmerge/internal/finder"
	"github.com/agentstation/xtsmerge/pkg/bundle"
	"github.com/agentstation/xtsmerge/pkg/constants"
	"github.com/agentstation/xtsmerge/pkg/provenance"
	"github.com/agentstation/xtsmerge/pkg/reconciler"
	"github.com/agentstation/xtsmerge/pkg/results"
)

// MergeView is the serializable form of a merge result.
type MergeView struct {
	Root       string                `json:"root" yaml:"root"`
	Primary    string                `json:"primary" yaml:"primary"`
	Verdict    reconciler.Verdict    `json:"verdict" yaml:"verdict"`
	Suites     []SuiteView           `json:"suites" yaml:"suites"`
	Missing    []string              `json:"missing,omitempty" yaml:"missing,omitempty"`
	DeviceInfo []bundle.DeviceRow    `json:"device_info,omitempty" yaml:"device_info,omitempty"`
	Dirs       []xtsmerge.DirResult  `json:"dirs" yaml:"dirs"`
	Unreadable []xtsmerge.Unreadable `json:"unreadable,omitempty" yaml:"unreadable,omitempty"`
}

// SuiteView is the serializable form of a reconciled suite.
type SuiteView struct {
	Identity        string                      `json:"identity" yaml:"identity"`
	Verdict         reconciler.Verdict          `json:"verdict" yaml:"verdict"`
	Runs            []RunView                   `json:"runs" yaml:"runs"`
	Cases           results.CaseCounts          `json:"cases" yaml:"cases"`
	Modules         results.ModuleCounts        `json:"modules" yaml:"modules"`
	StillFailed     []FailedCase                `json:"still_failed,omitempty" yaml:"still_failed,omitempty"`
	Incomplete      []string                    `json:"incomplete_modules,omitempty" yaml:"incomplete_modules,omitempty"`
	Inconsistencies map[string][]string         `json:"inconsistencies,omitempty" yaml:"inconsistencies,omitempty"`
	DivergentBuilds []reconciler.DivergentBuild `json:"divergent_builds,omitempty" yaml:"divergent_builds,omitempty"`
	Discarded       []string                    `json:"discarded_runs,omitempty" yaml:"discarded_runs,omitempty"`
	Flags           bundle.Flags                `json:"flags" yaml:"flags"`
	Provenance      provenance.Map              `json:"provenance,omitempty" yaml:"provenance,omitempty"`
}

// RunView describes one participating run.
type RunView struct {
	Label  string    `json:"label" yaml:"label"`
	Source string    `json:"source" yaml:"source"`
	Start  time.Time `json:"start" yaml:"start"`
	Build  string    `json:"build,omitempty" yaml:"build,omitempty"`
}

// FailedCase is a case no rerun resolved.
type FailedCase struct {
	Module  string `json:"module" yaml:"module"`
	Test    string `json:"test" yaml:"test"`
	History string `json:"history" yaml:"history"`
	Detail  string `json:"detail,omitempty" yaml:"detail,omitempty"`
}

// Verdict is the worst verdict among the suites of a bundle.
func Verdict(report *bundle.Report) reconciler.Verdict {
	rank := map[reconciler.Verdict]int{
		reconciler.VerdictPass:       0,
		reconciler.VerdictIncomplete: 1,
		reconciler.VerdictFail:       2,
	}
	worst := reconciler.VerdictPass
	for _, id := range report.Suites() {
		s, _ := report.Suite(id)
		if v := s.Verdict(); rank[v] > rank[worst] {
			worst = v
		}
	}
	return worst
}

// NewMergeView builds the serializable view of a merge result.
func NewMergeView(result *xtsmerge.Result, withProvenance bool) MergeView {
	report := result.Bundle
	view := MergeView{
		Root:       result.Root,
		Primary:    report.Primary(),
		Verdict:    Verdict(report),
		Missing:    report.Missing(),
		DeviceInfo: report.DeviceInfo(),
		Dirs:       result.Dirs,
		Unreadable: result.Unreadable,
	}

	for _, id := range report.Ordered() {
		s, _ := report.Suite(id)
		flags, _ := report.Flags(id)
		sv := SuiteView{
			Identity:        id,
			Verdict:         s.Verdict(),
			Cases:           s.CaseTally(),
			Modules:         s.ModuleTally(),
			Incomplete:      s.IncompleteModules(),
			Inconsistencies: s.Inconsistencies(),
			DivergentBuilds: s.DivergentBuilds(),
			Discarded:       s.DiscardedRuns(),
			Flags:           flags,
		}
		if len(sv.Inconsistencies) == 0 {
			sv.Inconsistencies = nil
		}
		if withProvenance {
			sv.Provenance = s.Provenance()
		}
		for _, lr := range s.Runs() {
			build, _ := lr.Run().Summary(constants.FieldSuiteBuild)
			sv.Runs = append(sv.Runs, RunView{
				Label:  lr.Label(),
				Source: lr.Run().Source(),
				Start:  lr.Run().Start(),
				Build:  build,
			})
		}
		for _, rec := range s.StillFailedRecords() {
			sv.StillFailed = append(sv.StillFailed, FailedCase{
				Module:  rec.Module(),
				Test:    rec.Name(),
				History: rec.History(),
				Detail:  rec.Detail(),
			})
		}
		view.Suites = append(view.Suites, sv)
	}
	return view
}

// MergeSections lays out a merge result as titled tables.
func MergeSections(result *xtsmerge.Result, withProvenance bool) Sections {
	report := result.Bundle
	sections := Sections{
		{Title: "Suites", Data: table.SuitesToTableData(report), Always: true},
		{Title: "Runs", Data: table.RunsToTableData(report)},
		{Title: "Still failed", Data: table.FailedToTableData(report)},
		{Title: "Incomplete modules", Data: table.IncompleteToTableData(report)},
		{Title: "Advisories", Data: table.AdvisoriesToTableData(report)},
		{Title: "Device info", Data: table.DeviceInfoToTableData(report)},
		{Title: "Dropped reports", Data: droppedToTableData(result)},
		{Title: "Skipped directories", Data: skippedToTableData(result)},
	}
	if withProvenance {
		for _, id := range report.Ordered() {
			s, _ := report.Suite(id)
			sections = append(sections, Section{
				Title: "Provenance " + id,
				Data:  table.ProvenanceToTableData(s.Provenance(), nil),
			})
		}
	}
	return sections
}

func droppedToTableData(result *xtsmerge.Result) table.Data {
	var rows [][]string
	for _, d := range result.Dropped() {
		rows = append(rows, []string{d.Source, d.Reason})
	}
	for _, u := range result.Unreadable {
		rows = append(rows, []string{u.Path, u.Reason})
	}
	return table.Data{Headers: []string{"Source", "Reason"}, Rows: rows}
}

func skippedToTableData(result *xtsmerge.Result) table.Data {
	var rows [][]string
	for _, d := range result.Dirs {
		if d.Skipped != "" {
			rows = append(rows, []string{d.Path, d.Skipped})
		}
	}
	return table.Data{Headers: []string{"Directory", "Reason"}, Rows: rows}
}

// FormatMerge writes a merge result in the given format.
func FormatMerge(w io.Writer, format Format, result *xtsmerge.Result, withProvenance bool) error {
	formatter := NewFormatter(format)
	switch format {
	case FormatJSON, FormatYAML:
		return formatter.Format(w, NewMergeView(result, withProvenance))
	default:
		return formatter.Format(w, MergeSections(result, withProvenance))
	}
}

// FormatReports writes discovered reports in the given format.
func FormatReports(w io.Writer, format Format, found *finder.Result) error {
	formatter := NewFormatter(format)
	switch format {
	case FormatJSON, FormatYAML:
		return formatter.Format(w, found)
	}

	skipped := make([]finder.Skipped, len(found.Skipped))
	copy(skipped, found.Skipped)
	sort.Slice(skipped, func(i, j int) bool { return skipped[i].Path < skipped[j].Path })

	var rows [][]string
	for _, s := range skipped {
		rows = append(rows, []string{s.Path, s.Reason})
	}
	return formatter.Format(w, Sections{
		{Title: "Reports", Data: table.ReportsToTableData(found), Always: true},
		{Title: "Skipped", Data: table.Data{Headers: []string{"Path", "Reason"}, Rows: rows}},
	})
}
