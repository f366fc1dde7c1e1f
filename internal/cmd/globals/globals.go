// Package globals provides shared flag structures and utilities for CLI commands.
package globals

import "github.com/spf13/cobra"

// Flags holds global common flags across all commands.
type Flags struct {
	Config   string
	Output   string
	Quiet    bool
	Verbose  bool
	NoColor  bool
	LogLevel string
}

// AddFlags adds common flags to the root command.
func AddFlags(cmd *cobra.Command) *Flags {
	flags := &Flags{}

	cmd.PersistentFlags().StringVar(&flags.Config, "config", "",
		"Config file (default is ./.xtsmerge.yaml or $HOME/.xtsmerge.yaml)")
	cmd.PersistentFlags().StringVarP(&flags.Output, "output", "o", "",
		"Output format: table, json, yaml")
	// --format and --fmt are hidden aliases for --output
	cmd.PersistentFlags().StringVar(&flags.Output, "format", "", "")
	cmd.PersistentFlags().StringVar(&flags.Output, "fmt", "", "")
	_ = cmd.PersistentFlags().MarkHidden("format")
	_ = cmd.PersistentFlags().MarkHidden("fmt")

	cmd.PersistentFlags().BoolVarP(&flags.Quiet, "quiet", "q", false,
		"Minimal output")
	cmd.PersistentFlags().BoolVarP(&flags.Verbose, "verbose", "v", false,
		"Verbose output")
	cmd.PersistentFlags().BoolVar(&flags.NoColor, "no-color", false,
		"Disable colored output")
	cmd.PersistentFlags().StringVar(&flags.LogLevel, "log-level", "",
		"Log level: trace, debug, info, warn, error, off")

	return flags
}

// Parse extracts global flags from the command hierarchy.
func Parse(cmd *cobra.Command) (*Flags, error) {
	root := cmd
	for root.Parent() != nil {
		root = root.Parent()
	}
	pf := root.PersistentFlags()

	config, _ := pf.GetString("config")
	output, _ := pf.GetString("output")
	quiet, _ := pf.GetBool("quiet")
	verbose, _ := pf.GetBool("verbose")
	noColor, _ := pf.GetBool("no-color")
	logLevel, _ := pf.GetString("log-level")

	return &Flags{
		Config:   config,
		Output:   output,
		Quiet:    quiet,
		Verbose:  verbose,
		NoColor:  noColor,
		LogLevel: logLevel,
	}, nil
}
