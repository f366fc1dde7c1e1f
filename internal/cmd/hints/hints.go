// Package hints provides actionable user guidance after a failed command.
package hints

import (
	"fmt"
	"io"
	"strings"

	"github.com/agentstation/xtsmerge/pkg/errors"
)

// Hint represents actionable user guidance.
type Hint struct {
	Message string // Human-readable guidance message
	Command string // Optional specific command to run
}

// New creates a new hint with the given message.
func New(message string) *Hint {
	return &Hint{Message: message}
}

// NewCommand creates a new hint with a specific command.
func NewCommand(message, command string) *Hint {
	return &Hint{Message: message, Command: command}
}

// String returns a string representation of the hint.
func (h *Hint) String() string {
	parts := []string{"Hint: " + h.Message}
	if h.Command != "" {
		parts = append(parts, "   Run: "+h.Command)
	}
	return strings.Join(parts, "\n")
}

// Context describes the command that failed.
type Context struct {
	Command string // e.g. "merge"
	Root    string // directory argument, empty when none was given
	Err     error
}

// For returns the hints that apply to a failure, most useful first.
func For(ctx Context) []*Hint {
	if ctx.Err == nil {
		return nil
	}
	root := ctx.Root
	if root == "" {
		root = "<dir>"
	}

	var out []*Hint
	var cfgErr *errors.ConfigError
	switch {
	case errors.As(ctx.Err, &cfgErr):
		out = append(out, New("Check the config file and XTSMERGE_* variables; unknown keys and wrong types are rejected"))
	case errors.IsNotFound(ctx.Err) && ctx.Command == "merge":
		out = append(out,
			NewCommand("See which suites were discovered", "xtsmerge find "+root),
			NewCommand("Choose a suite that is present as the baseline", "xtsmerge merge "+root+" --primary <suite>"),
			New("Reports inside zip archives are only found when unpacking is enabled"),
		)
	case errors.IsValidationError(ctx.Err):
		out = append(out, NewCommand("Review the accepted flag values", fmt.Sprintf("xtsmerge %s --help", ctx.Command)))
	}
	return out
}

// Write prints hints, one block per hint.
func Write(w io.Writer, hints []*Hint) error {
	for _, h := range hints {
		if _, err := fmt.Fprintln(w, h.String()); err != nil {
			return err
		}
	}
	return nil
}
