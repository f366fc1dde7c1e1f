package xtsmerge

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/agentstation/xtsmerge/internal/finder"
	"github.com/agentstation/xtsmerge/internal/observability"
	"github.com/agentstation/xtsmerge/internal/parser"
	"github.com/agentstation/xtsmerge/pkg/bundle"
	"github.com/agentstation/xtsmerge/pkg/errors"
	"github.com/agentstation/xtsmerge/pkg/reconciler"
	"github.com/agentstation/xtsmerge/pkg/results"
)

// dirOutcome is what one worker produced for one suite directory.
type dirOutcome struct {
	dir     string
	reports int
	suite   *reconciler.Suite
	dropped []Dropped
	skipErr error
}

func (m *merger) Merge(ctx context.Context, root string) (*Result, error) {
	logger := m.logger(ctx)

	found, err := m.discover(ctx, root, logger)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := found.Cleanup(); err != nil {
			logger.Warn().Err(err).Msg("Failed to remove extracted archives")
		}
	}()

	outcomes, err := m.reconcileDirs(ctx, found.Dirs, logger)
	if err != nil {
		return nil, err
	}

	suites := selectSuites(outcomes, logger)
	m.hooks.trigger(outcomes)

	report, err := m.check(ctx, suites, logger)
	if err != nil {
		return nil, err
	}

	result := &Result{Root: found.Root, Bundle: report}
	for _, out := range outcomes {
		result.Dirs = append(result.Dirs, out.describe())
	}
	for _, s := range found.Skipped {
		result.Unreadable = append(result.Unreadable, Unreadable{Path: s.Path, Reason: s.Reason})
	}

	logger.Info().
		Str("root", found.Root).
		Int("suites", len(suites)).
		Int("dropped", len(result.Dropped())).
		Msg("Merged bundle")
	return result, nil
}

func (m *merger) discover(ctx context.Context, root string, logger *zerolog.Logger) (*finder.Result, error) {
	ctx, span := observability.StartDiscoverSpan(ctx, root)
	defer span.End()

	opts := []finder.Option{
		finder.WithLogger(logger),
		finder.WithUnpack(m.config.unpack),
		finder.WithWorkDir(m.config.workDir),
		finder.WithWorkers(m.config.workers),
	}
	if len(m.config.excludes) > 0 {
		excludes := append(append([]string(nil), finder.DefaultExcludes...), m.config.excludes...)
		opts = append(opts, finder.WithExcludes(excludes...))
	}

	found, err := finder.Find(ctx, root, opts...)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}
	observability.RecordDiscoverResult(span, len(found.Dirs), len(found.Reports()), len(found.Skipped))
	return found, nil
}

// reconcileDirs processes suite directories concurrently. The first error
// other than a dropped run or a suite without valid runs cancels the rest.
func (m *merger) reconcileDirs(ctx context.Context, dirs []finder.SuiteDir, logger *zerolog.Logger) ([]dirOutcome, error) {
	outcomes := make([]dirOutcome, len(dirs))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.config.workers)
	for i, dir := range dirs {
		g.Go(func() error {
			out, err := m.reconcileDir(gctx, dir, logger)
			if err != nil {
				return err
			}
			mu.Lock()
			outcomes[i] = out
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

func (m *merger) reconcileDir(ctx context.Context, dir finder.SuiteDir, logger *zerolog.Logger) (dirOutcome, error) {
	dirLogger := logger.With().Str("suite_dir", dir.Path).Logger()
	out := dirOutcome{dir: dir.Path, reports: len(dir.Reports)}

	runs := make([]*results.Run, 0, len(dir.Reports))
	for _, report := range dir.Reports {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		run, err := m.parse(ctx, report, &dirLogger)
		if err != nil {
			if !errors.IsMalformedInput(err) {
				return out, fmt.Errorf("parse %s: %w", report.Source, err)
			}
			dirLogger.Warn().Err(err).Str("source", report.Source).Msg("Dropping malformed report")
			out.dropped = append(out.dropped, Dropped{Source: report.Source, Reason: err.Error(), err: err})
			continue
		}
		runs = append(runs, run)
	}

	_, span := observability.StartReconcileSpan(ctx, dir.Path, len(runs))
	defer span.End()

	suite, err := reconciler.Reconcile(runs,
		reconciler.WithLogger(&dirLogger),
		reconciler.WithSummaryFields(m.config.summaryFields...),
		reconciler.WithProvenance(m.config.provenance),
	)
	if err != nil {
		observability.RecordError(span, err)
		if errors.IsNoValidRun(err) {
			dirLogger.Warn().Int("dropped", len(out.dropped)).Msg("Skipping suite directory without valid runs")
			out.skipErr = err
			return out, nil
		}
		return out, fmt.Errorf("reconcile %s: %w", dir.Path, err)
	}

	observability.RecordReconcileResult(span, suite.Identity(), len(suite.Runs()),
		len(suite.DiscardedRuns()), suite.CaseTally().Failed)
	out.suite = suite
	return out, nil
}

func (m *merger) parse(ctx context.Context, report finder.Report, logger *zerolog.Logger) (*results.Run, error) {
	_, span := observability.StartParseSpan(ctx, report.Source)
	defer span.End()

	opts := []parser.Option{
		parser.WithLogger(logger),
		parser.WithSource(report.Source),
		parser.WithMatcher(m.matcher),
		parser.WithHTMLVerification(m.config.htmlVerification),
	}
	if len(m.config.deviceProperties) > 0 {
		opts = append(opts, parser.WithDeviceProperties(m.config.deviceProperties...))
	}

	run, err := parser.ParseDir(report.Dir, opts...)
	observability.RecordError(span, err)
	return run, err
}

// selectSuites keeps one suite per identity. Outcomes are ordered newest
// directory first, so the first directory seen for an identity wins.
func selectSuites(outcomes []dirOutcome, logger *zerolog.Logger) map[string]*reconciler.Suite {
	suites := make(map[string]*reconciler.Suite)
	kept := make(map[string]string)
	for i := range outcomes {
		out := &outcomes[i]
		if out.suite == nil {
			continue
		}
		id := out.suite.Identity()
		if winner, ok := kept[id]; ok {
			logger.Warn().
				Str("suite", id).
				Str("suite_dir", out.dir).
				Str("kept", winner).
				Msg("Duplicate suite identity, keeping the newest directory")
			out.skipErr = fmt.Errorf("%w: %s is taken from %s", ErrSuperseded, id, winner)
			continue
		}
		kept[id] = out.dir
		suites[id] = out.suite
	}
	return suites
}

func (m *merger) check(ctx context.Context, suites map[string]*reconciler.Suite, logger *zerolog.Logger) (*bundle.Report, error) {
	_, span := observability.StartCheckSpan(ctx, len(suites))
	defer span.End()

	report, err := bundle.Check(suites,
		bundle.WithLogger(logger),
		bundle.WithPrimary(m.config.primary),
		bundle.WithPatchPairs(m.config.patchPairs...),
		bundle.WithSharedFields(m.config.sharedFields...),
	)
	if err != nil {
		observability.RecordError(span, err)
		return nil, fmt.Errorf("check bundle: %w", err)
	}

	flagged := 0
	for _, id := range report.Suites() {
		if f, ok := report.Flags(id); ok && !f.Clean() {
			flagged++
		}
	}
	observability.RecordCheckResult(span, flagged)
	return report, nil
}

func (o dirOutcome) describe() DirResult {
	d := DirResult{
		Path:    o.dir,
		Reports: o.reports,
		Dropped: append([]Dropped(nil), o.dropped...),
	}
	if o.suite != nil {
		d.Suite = o.suite.Identity()
		d.Runs = len(o.suite.Runs())
	}
	if o.skipErr != nil {
		d.Skipped = o.skipErr.Error()
		d.Superseded = errors.Is(o.skipErr, ErrSuperseded)
	}
	return d
}
