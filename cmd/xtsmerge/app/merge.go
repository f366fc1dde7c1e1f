package app

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/xtsmerge"
	"github.com/agentstation/xtsmerge/internal/cmd/alerts"
	"github.com/agentstation/xtsmerge/internal/cmd/output"
	"github.com/agentstation/xtsmerge/pkg/reconciler"
)

type mergeFlags struct {
	primary    string
	provenance bool
	noUnpack   bool
	workDir    string
	workers    int
	excludes   []string
	threshold  int
}

// NewMergeCommand creates the merge command.
func (a *App) NewMergeCommand() *cobra.Command {
	flags := &mergeFlags{}

	cmd := &cobra.Command{
		Use:   "merge <dir>",
		Short: "Reconcile every suite below a directory",
		Long: `Merge discovers the report directories below <dir>, reconciles the runs
of each suite into one outcome and checks the suites against each other.

Malformed reports are dropped with a warning. The command fails only when
the bundle cannot be built at all, for example when the primary suite is
missing.`,
		Example: `  xtsmerge merge ./reports
  xtsmerge merge ./reports --primary GTS -o json
  xtsmerge merge ./reports --provenance --exclude 'tmp*'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a.applyMergeFlags(cmd, flags)
			return a.runMerge(cmd, args[0])
		},
	}

	cmd.Flags().StringVar(&flags.primary, "primary", "", "Baseline suite for cross-suite checks")
	cmd.Flags().BoolVar(&flags.provenance, "provenance", false, "Record and show which run decided each value")
	cmd.Flags().BoolVar(&flags.noUnpack, "no-unpack", false, "Do not extract zip archives")
	cmd.Flags().StringVar(&flags.workDir, "work-dir", "", "Directory archives are extracted to")
	cmd.Flags().IntVar(&flags.workers, "workers", 0, "Suite directories processed in parallel")
	cmd.Flags().StringSliceVar(&flags.excludes, "exclude", nil, "Skip entries matching the pattern (repeatable)")
	cmd.Flags().IntVar(&flags.threshold, "threshold", 0, "Minimum similarity (0-100) for fuzzy field lookups")
	return cmd
}

// applyMergeFlags lets explicitly set flags override the configuration.
func (a *App) applyMergeFlags(cmd *cobra.Command, flags *mergeFlags) {
	c := a.config
	f := cmd.Flags()
	if f.Changed("primary") {
		c.PrimarySuite = flags.primary
	}
	if f.Changed("provenance") {
		c.Provenance = flags.provenance
	}
	if f.Changed("no-unpack") {
		c.Unpack = !flags.noUnpack
	}
	if f.Changed("work-dir") {
		c.WorkDir = flags.workDir
	}
	if f.Changed("workers") {
		c.Workers = flags.workers
	}
	if f.Changed("exclude") {
		c.Excludes = append(c.Excludes, flags.excludes...)
	}
	if f.Changed("threshold") {
		c.MatchThreshold = flags.threshold
	}
}

func (a *App) runMerge(cmd *cobra.Command, root string) error {
	format, err := a.outputFormat()
	if err != nil {
		return err
	}

	m, err := xtsmerge.New(a.mergeOptions()...)
	if err != nil {
		return err
	}
	m.OnSuiteReconciled(func(dir string, s *reconciler.Suite) {
		a.logger.Debug().
			Str("dir", dir).
			Str("suite", s.Identity()).
			Str("verdict", string(s.Verdict())).
			Msg("Suite reconciled")
	})

	result, err := m.Merge(cmd.Context(), root)
	if err != nil {
		return err
	}

	if err := output.FormatMerge(a.stdout, format, result, a.config.Provenance); err != nil {
		return err
	}

	if a.flags.Quiet {
		return nil
	}
	return alerts.WriteAll(a.alertWriter(format), alerts.FromMerge(result))
}

// alertWriter writes alerts to stderr in the command's output format.
// Verbose runs stamp every alert.
func (a *App) alertWriter(format output.Format) *alerts.FormatWriter {
	w := alerts.NewFormatWriter(a.stderr, format)
	if a.flags.NoColor || a.flags.Verbose {
		w = w.WithConfig(alerts.WriterConfig{
			ShowTimestamp: a.flags.Verbose,
			ShowDetails:   true,
			UseColor:      !a.flags.NoColor && alerts.IsTerminal(a.stderr),
		})
	}
	return w
}
