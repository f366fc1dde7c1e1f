package globals_test

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/xtsmerge/internal/cmd/globals"
)

func TestParse(t *testing.T) {
	root := &cobra.Command{Use: "xtsmerge"}
	globals.AddFlags(root)

	var got *globals.Flags
	child := &cobra.Command{
		Use: "merge",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			got, err = globals.Parse(cmd)
			return err
		},
	}
	root.AddCommand(child)
	root.SetArgs([]string{"merge", "--fmt", "json", "-q", "--log-level", "debug", "--config", "x.yaml"})
	require.NoError(t, root.Execute())

	assert.Equal(t, &globals.Flags{
		Config:   "x.yaml",
		Output:   "json",
		Quiet:    true,
		LogLevel: "debug",
	}, got)
}
