package app

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/xtsmerge/internal/cmd/output"
	"github.com/agentstation/xtsmerge/internal/finder"
)

// NewFindCommand creates the find command.
func (a *App) NewFindCommand() *cobra.Command {
	var noUnpack bool

	cmd := &cobra.Command{
		Use:   "find <dir>",
		Short: "List the report directories merge would use",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("no-unpack") {
				a.config.Unpack = !noUnpack
			}
			return a.runFind(cmd, args[0])
		},
	}
	cmd.Flags().BoolVar(&noUnpack, "no-unpack", false, "Do not extract zip archives")
	return cmd
}

func (a *App) runFind(cmd *cobra.Command, root string) error {
	format, err := a.outputFormat()
	if err != nil {
		return err
	}

	opts := []finder.Option{
		finder.WithLogger(a.logger),
		finder.WithUnpack(a.config.Unpack),
		finder.WithWorkers(a.config.Workers),
	}
	if a.config.WorkDir != "" {
		opts = append(opts, finder.WithWorkDir(a.config.WorkDir))
	}
	if len(a.config.Excludes) > 0 {
		opts = append(opts, finder.WithExcludes(append(append([]string(nil), finder.DefaultExcludes...), a.config.Excludes...)...))
	}

	found, err := finder.Find(cmd.Context(), root, opts...)
	if err != nil {
		return err
	}
	defer func() {
		if err := found.Cleanup(); err != nil {
			a.logger.Warn().Err(err).Msg("Failed to remove extracted archives")
		}
	}()

	return output.FormatReports(a.stdout, format, found)
}
