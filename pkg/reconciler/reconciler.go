// Package reconciler merges repeated runs of one compliance test suite into
// a single authoritative result.
//
// Reruns are the norm during certification: a full run leaves a handful of
// failures, and targeted reruns retry them. The reconciler picks the main
// run, decides per case whether any rerun resolved an earlier failure,
// decides per module whether any run completed it, and checks that the
// runs agree on the summary fields identifying the device and the suite.
// It is synchronous, performs no I/O, and never mutates its input.
package reconciler

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/xtsmerge/pkg/constants"
	"github.com/agentstation/xtsmerge/pkg/errors"
	"github.com/agentstation/xtsmerge/pkg/provenance"
	"github.com/agentstation/xtsmerge/pkg/results"
)

// Reconciler reconciles the runs of one suite.
type Reconciler interface {
	// Suite reconciles runs into a Suite. It fails with a NoValidRunError
	// when runs is empty, with an InvalidArgumentError when a run is nil or
	// two runs share a source, and returns nothing on any failure.
	Suite(runs []*results.Run) (*Suite, error)
}

type reconciler struct {
	logger        *zerolog.Logger
	summaryFields []string
	tracking      bool
	identity      string
}

// New creates a Reconciler with options.
func New(opts ...Option) (Reconciler, error) {
	o, err := newOptions(opts...)
	if err != nil {
		return nil, err
	}
	return &reconciler{
		logger:        o.logger,
		summaryFields: o.summaryFields,
		tracking:      o.tracking,
		identity:      o.identity,
	}, nil
}

// Reconcile is shorthand for New followed by Suite.
func Reconcile(runs []*results.Run, opts ...Option) (*Suite, error) {
	r, err := New(opts...)
	if err != nil {
		return nil, err
	}
	return r.Suite(runs)
}

// build holds the state of one reconciliation until it succeeds.
type build struct {
	s       *Suite
	tracker provenance.Tracker
	logger  zerolog.Logger
}

func (r *reconciler) Suite(runs []*results.Run) (*Suite, error) {
	if len(runs) == 0 {
		return nil, errors.NewNoValidRunError("")
	}
	seen := make(map[string]int, len(runs))
	for i, run := range runs {
		if run == nil {
			return nil, errors.NewInvalidArgumentError("Reconcile", "run %d is nil", i)
		}
		if j, dup := seen[run.Source()]; dup {
			return nil, errors.NewInvalidArgumentError("Reconcile",
				"runs %d and %d share source %q", j, i, run.Source())
		}
		seen[run.Source()] = i
	}

	b := &build{
		s:       &Suite{inconsistent: make(map[string][]string)},
		tracker: provenance.NewTracker(r.tracking),
	}

	main, kept, err := b.selectRuns(runs, r.identity)
	if err != nil {
		return nil, err
	}
	b.logger = r.logger.With().Str("suite", b.s.identity).Logger()
	b.logger.Debug().
		Str("main", main.Source()).
		Int("runs", len(kept)).
		Int("discarded", len(b.s.discarded)).
		Msg("Selected main run")

	if err := b.labelRuns(main, kept); err != nil {
		return nil, err
	}
	if err := b.mergeCases(); err != nil {
		return nil, err
	}
	if err := b.mergeModules(); err != nil {
		return nil, err
	}
	b.inspectSummary(r.summaryFields)
	b.noteDivergentBuilds()

	if b.s.caseTally.Failed() > 0 && len(b.s.records) == 0 {
		return nil, errors.NewInvariantError("failed cases recorded",
			"%d failed cases but no case records", b.s.caseTally.Failed())
	}

	if r.tracking {
		b.s.provenance = b.tracker.Map()
	}

	b.logger.Info().
		Int("cases", b.s.caseTally.Total()).
		Int("failed", b.s.caseTally.Failed()).
		Int("modules", b.s.moduleTally.Total()).
		Int("incomplete", b.s.moduleTally.Incomplete()).
		Str("verdict", string(b.s.Verdict())).
		Msg("Reconciled suite")
	return b.s, nil
}

// selectRuns orders runs chronologically, picks the earliest run with the
// most cases as main, and keeps the runs sharing its suite identity. With a
// fixed identity, foreign runs are dropped before the main run is picked.
func (b *build) selectRuns(runs []*results.Run, identity string) (*results.Run, []*results.Run, error) {
	sorted := append([]*results.Run(nil), runs...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, c := sorted[i], sorted[j]
		if !a.Start().Equal(c.Start()) {
			return a.Start().Before(c.Start())
		}
		if a.Source() != c.Source() {
			return a.Source() < c.Source()
		}
		return a.Suite() < c.Suite()
	})

	candidates := sorted
	if identity != "" {
		candidates = b.filter(sorted, identity)
		if len(candidates) == 0 {
			return nil, nil, errors.NewNoValidRunError(identity)
		}
	}

	mainIdx, most := 0, -1
	for i, run := range candidates {
		if run.TotalCases() > most {
			mainIdx, most = i, run.TotalCases()
		}
	}
	main := candidates[mainIdx]
	kept := b.filter(candidates, main.Suite())

	b.tracker.Track(provenance.KindSuite, b.s.identity, "main", provenance.Provenance{
		Label:     constants.MainLabel,
		Source:    main.Source(),
		Value:     main.Source(),
		Timestamp: main.Start(),
		Reason:    fmt.Sprintf("earliest run with the most cases (%d)", most),
	})
	return main, kept, nil
}

// filter sets the suite identity and keeps the runs that carry it, noting
// the rest as discarded.
func (b *build) filter(runs []*results.Run, identity string) []*results.Run {
	b.s.identity = identity
	var kept []*results.Run
	for _, run := range runs {
		if run.Suite() == identity {
			kept = append(kept, run)
			continue
		}
		b.s.discarded = append(b.s.discarded, run.Source())
		b.tracker.Track(provenance.KindSuite, identity, "discarded", provenance.Provenance{
			Source:    run.Source(),
			Value:     run.Suite(),
			Timestamp: run.Start(),
			Reason:    "suite identity differs",
		})
	}
	return kept
}

func (b *build) labelRuns(main *results.Run, kept []*results.Run) error {
	l := newLabeler()
	for i, run := range kept {
		label := strconv.Itoa(i)
		if run == main {
			label = constants.MainLabel
		}
		lr, err := l.label(run, label)
		if err != nil {
			return err
		}
		if run == main {
			b.s.main = lr
		}
		b.s.runs = append(b.s.runs, lr)
	}
	return nil
}

func (b *build) mergeCases() error {
	for _, module := range moduleUnion(b.s.runs) {
		table := buildTable(module, b.s.runs)
		if err := b.s.caseTally.Update(table.rows); err != nil {
			return fmt.Errorf("module %s: %w", module, err)
		}

		for _, row := range table.failedRows() {
			rec, err := newCaseRecord(module, row.Case, table.runs, row.Cells)
			if err != nil {
				return err
			}
			b.s.records = append(b.s.records, rec)
			b.trackRecord(rec)
		}
	}

	still := len(b.s.StillFailedRecords())
	if still != b.s.caseTally.Failed() {
		return errors.NewInvariantError("still failed equals failed",
			"%d still-failed records but %d failed cases", still, b.s.caseTally.Failed())
	}
	return nil
}

func (b *build) trackRecord(rec *CaseRecord) {
	occ := rec.occurrences
	reason := "failed in every run"
	deciding := occ[len(occ)-1]
	if i := rec.decider(); i >= 0 {
		deciding = occ[i]
		reason = "first run not reporting a failure"
	}

	var previous any
	if first := occ[0].Outcome(); first != rec.MergedOutcome() {
		previous = first.String()
	}
	b.tracker.Track(provenance.KindCase, rec.Key(), "outcome", provenance.Provenance{
		Label:         deciding.Label,
		Source:        deciding.Source,
		Value:         rec.MergedOutcome().String(),
		Reason:        reason,
		PreviousValue: previous,
		Timestamp:     b.startOf(deciding.Label),
	})
}

func (b *build) startOf(label string) time.Time {
	if lr, ok := b.s.Run(label); ok {
		return lr.run.Start()
	}
	return time.Time{}
}

func (b *build) mergeModules() error {
	modules := moduleUnion(b.s.runs)
	for _, name := range modules {
		doneBy := ""
		for _, lr := range b.s.runs {
			if m, ok := lr.run.Module(name); ok && m.Done() {
				doneBy = lr.label
				break
			}
		}
		if doneBy == "" {
			b.s.incomplete = append(b.s.incomplete, name)
			b.tracker.Track(provenance.KindModule, name, "done", provenance.Provenance{
				Value:  false,
				Reason: "no run completed the module",
			})
			continue
		}
		b.tracker.Track(provenance.KindModule, name, "done", provenance.Provenance{
			Label:     doneBy,
			Value:     true,
			Reason:    "first run completing the module",
			Timestamp: b.startOf(doneBy),
		})
	}

	if err := b.s.moduleTally.Update(results.Total(len(modules)), results.Incomplete(len(b.s.incomplete))); err != nil {
		return errors.WrapInvariant("module tally", err)
	}
	return nil
}

// inspectSummary records, per rerun, the fields that differ from the main
// run. Fields the main run lacks cannot be compared and are skipped.
func (b *build) inspectSummary(fields []string) {
	main := b.s.main.run
	for _, field := range fields {
		want, ok := main.Summary(field)
		if !ok {
			b.logger.Warn().
				Str("field", field).
				Str("run", main.Source()).
				Msg("Summary field missing from main run, skipping consistency check")
			continue
		}
		for _, lr := range b.s.runs {
			if lr.run == main {
				continue
			}
			if got, ok := lr.run.Summary(field); !ok || got != want {
				b.s.inconsistent[lr.label] = append(b.s.inconsistent[lr.label], field)
			}
		}
	}
	for _, lr := range b.s.runs {
		if diff := b.s.inconsistent[lr.label]; len(diff) > 0 {
			b.logger.Warn().Str("run", lr.label).Strs("fields", diff).Msg("Run summary differs from main run")
		}
	}
}

func (b *build) noteDivergentBuilds() {
	mainBuild, ok := b.s.main.run.Summary(constants.FieldSuiteBuild)
	if !ok {
		return
	}
	for _, lr := range b.s.runs {
		if lr.run == b.s.main.run {
			continue
		}
		build, _ := lr.run.Summary(constants.FieldSuiteBuild)
		if build == mainBuild {
			continue
		}
		b.s.divergent = append(b.s.divergent, DivergentBuild{
			Label:   lr.label,
			Source:  lr.run.Source(),
			Build:   build,
			Modules: lr.run.ModuleNames(),
		})
	}
}
