package app

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/agentstation/xtsmerge/internal/cmd/globals"
	"github.com/agentstation/xtsmerge/internal/cmd/hints"
	"github.com/agentstation/xtsmerge/internal/cmd/output"
)

// Execute runs the CLI with the given arguments.
func (a *App) Execute(ctx context.Context, args []string) error {
	rootCmd := a.createRootCommand()
	rootCmd.SetArgs(args)

	err := rootCmd.ExecuteContext(ctx)
	if err != nil && !a.flags.Quiet {
		_ = hints.Write(a.stderr, hints.For(hints.Context{Command: a.command, Root: a.root, Err: err}))
	}
	return err
}

func (a *App) createRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "xtsmerge",
		Short:   "Merge compliance test suite reruns",
		Version: a.version,
		Long: `xtsmerge reconciles the main run of a compliance test suite (CTS, GTS,
VTS, STS and friends) with its reruns into one authoritative outcome, then
checks the suites of a bundle against each other.

Point it at a directory holding one sub-directory per suite. Zip archives
are unpacked on the fly.`,
		PersistentPreRunE: a.setupCommand,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}
	rootCmd.SetOut(a.stdout)
	rootCmd.SetErr(a.stderr)

	a.flags = globals.AddFlags(rootCmd)
	rootCmd.SetVersionTemplate("xtsmerge {{.Version}}\n")

	rootCmd.AddCommand(a.NewMergeCommand())
	rootCmd.AddCommand(a.NewFindCommand())
	rootCmd.AddCommand(a.NewVersionCommand())
	return rootCmd
}

func (a *App) setupCommand(cmd *cobra.Command, args []string) error {
	flags, err := globals.Parse(cmd)
	if err != nil {
		return err
	}
	a.flags = flags
	a.command = cmd.Name()
	if len(args) > 0 {
		a.root = args[0]
	}
	return a.setup(cmd.Context())
}

// outputFormat resolves the --output flag, falling back to table on a
// terminal and JSON otherwise.
func (a *App) outputFormat() (output.Format, error) {
	if a.flags.Output != "" {
		return output.ParseFormat(a.flags.Output)
	}
	if f, ok := a.stdout.(*os.File); ok && f == os.Stdout {
		return output.DetectFormat(""), nil
	}
	return output.FormatTable, nil
}

// ExitOnError prints an error and exits with status 1.
func ExitOnError(err error) {
	if err != nil {
		_, _ = os.Stderr.WriteString("Error: " + err.Error() + "\n")
		os.Exit(1)
	}
}
