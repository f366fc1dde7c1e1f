package alerts

import (
	"fmt"
	"strings"

	"github.com/agentstation/xtsmerge"
	"github.com/agentstation/xtsmerge/internal/cmd/output"
	"github.com/agentstation/xtsmerge/pkg/bundle"
	"github.com/agentstation/xtsmerge/pkg/reconciler"
)

// FromMerge summarises a merge result: one alert per dropped report,
// unreadable entry, skipped directory and flagged suite, followed by the
// overall verdict. Superseded directories and reruns on another suite
// build are informational.
func FromMerge(result *xtsmerge.Result) []*Alert {
	var out []*Alert

	for _, d := range result.Dropped() {
		out = append(out, Warnf("Dropped report %s", d.Source).WithError(d.Err()))
	}
	for _, u := range result.Unreadable {
		out = append(out, Warnf("Unreadable entry %s", u.Path).WithDetails(u.Reason))
	}
	for _, d := range result.Dirs {
		switch {
		case d.Superseded:
			out = append(out, Infof("Superseded directory %s", d.Path).WithDetails(d.Skipped))
		case d.Skipped != "":
			out = append(out, Warnf("Skipped directory %s", d.Path).WithDetails(d.Skipped))
		}
	}

	report := result.Bundle
	for _, id := range report.Ordered() {
		if a := attention(report, id); a != nil {
			out = append(out, a)
		}
		if s, ok := report.Suite(id); ok {
			if a := divergentBuilds(id, s.DivergentBuilds()); a != nil {
				out = append(out, a)
			}
		}
	}

	suites := len(report.Suites())
	switch output.Verdict(report) {
	case reconciler.VerdictFail:
		out = append(out, Errorf("%d suites merged, failures remain", suites))
	case reconciler.VerdictIncomplete:
		out = append(out, Warnf("%d suites merged, modules incomplete", suites))
	default:
		out = append(out, Successf("%d suites merged, all passing", suites))
	}
	return out
}

// attention reports the cross-suite flags of id, or nil when it is clean.
func attention(report *bundle.Report, id string) *Alert {
	flags, _ := report.Flags(id)
	if flags.Clean() {
		return nil
	}
	a := Warnf("%s needs attention", id)
	if flags.WrongSecurityPatch {
		note := flags.PatchNote
		if note == "" {
			note = "older than " + report.Primary()
		}
		a.WithDetails(fmt.Sprintf("security patch %s: %s", flags.SecurityPatch, note))
	}
	if len(flags.DivergentFields) > 0 {
		a.WithDetails("differs from the other suites on " + strings.Join(flags.DivergentFields, ", "))
	}
	if len(flags.InconsistentFields) > 0 && len(flags.DivergentFields) == 0 {
		a.WithDetails("bundle disagrees on " + strings.Join(flags.InconsistentFields, ", "))
	}
	return a
}

func divergentBuilds(id string, builds []reconciler.DivergentBuild) *Alert {
	if len(builds) == 0 {
		return nil
	}
	a := Infof("%s reruns used another suite build", id)
	for _, b := range builds {
		build := b.Build
		if build == "" {
			build = "unknown"
		}
		a.WithDetails(fmt.Sprintf("run %s: build %s (%s)", b.Label, build, b.Source))
	}
	return a
}
