package results_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/xtsmerge/pkg/constants"
	"github.com/agentstation/xtsmerge/pkg/errors"
	"github.com/agentstation/xtsmerge/pkg/results"
)

const netModule = "arm64-v8a CtsNetTestCases"

func ptr(s string) *string { return &s }

func mustCase(t *testing.T, module, name string, o results.Outcome, detail *string) results.Case {
	t.Helper()
	c, err := results.NewCase(module, name, o, detail)
	require.NoError(t, err)
	return c
}

func TestNewCase(t *testing.T) {
	t.Run("passed without detail", func(t *testing.T) {
		c := mustCase(t, netModule, "Dns#lookup", results.Passed, nil)
		assert.Equal(t, netModule, c.Module())
		assert.Equal(t, "Dns#lookup", c.Name())
		assert.Equal(t, results.Passed, c.Outcome())
		assert.Equal(t, netModule+"::Dns#lookup", c.Key())
		_, ok := c.Detail()
		assert.False(t, ok)
	})

	t.Run("failed with detail", func(t *testing.T) {
		c := mustCase(t, netModule, "Dns#lookup", results.Failed, ptr("timeout"))
		detail, ok := c.Detail()
		assert.True(t, ok)
		assert.Equal(t, "timeout", detail)
	})

	t.Run("failed without detail", func(t *testing.T) {
		_, err := results.NewCase(netModule, "Dns#lookup", results.Failed, nil)
		assert.True(t, errors.IsMalformedInput(err))
	})

	t.Run("verifier module exempt", func(t *testing.T) {
		c := mustCase(t, constants.VerifierModule, "AudioTest", results.Failed, nil)
		detail, ok := c.Detail()
		assert.True(t, ok)
		assert.Empty(t, detail)
	})

	t.Run("absent outcome rejected", func(t *testing.T) {
		_, err := results.NewCase(netModule, "x", results.None, nil)
		assert.True(t, errors.IsMalformedInput(err))
	})

	t.Run("empty name rejected", func(t *testing.T) {
		_, err := results.NewCase(netModule, "", results.Passed, nil)
		assert.True(t, errors.IsMalformedInput(err))
	})
}

func TestNewModule(t *testing.T) {
	pass := mustCase(t, netModule, "A#a", results.Passed, nil)
	fail := mustCase(t, netModule, "A#b", results.Failed, ptr("boom"))
	ign := mustCase(t, netModule, "A#c", results.Ignored, nil)

	t.Run("valid", func(t *testing.T) {
		m, err := results.NewModule(netModule, true, []results.Case{pass, fail, ign}, results.Declared{Total: 3, Passed: 1})
		require.NoError(t, err)
		assert.Equal(t, netModule, m.Name())
		assert.True(t, m.Done())
		assert.Equal(t, 3, m.Len())
		assert.Equal(t, []string{"A#a", "A#b", "A#c"}, m.CaseNames())
		assert.Equal(t, 1, m.Count(results.Failed))

		got, ok := m.Case("A#b")
		require.True(t, ok)
		assert.Equal(t, fail, got)
		_, ok = m.Case("missing")
		assert.False(t, ok)
	})

	t.Run("cases are copied", func(t *testing.T) {
		in := []results.Case{pass}
		m, err := results.NewModule(netModule, true, in, results.Unknown())
		require.NoError(t, err)
		in[0] = fail
		out := m.Cases()
		out[0] = ign
		got, _ := m.Case("A#a")
		assert.Equal(t, results.Passed, got.Outcome())
	})

	tests := []struct {
		name     string
		module   string
		cases    []results.Case
		declared results.Declared
	}{
		{"duplicate names", netModule, []results.Case{pass, pass}, results.Unknown()},
		{"foreign case", "x86 CtsOther", []results.Case{pass}, results.Unknown()},
		{"total mismatch", netModule, []results.Case{pass}, results.Declared{Total: 2, Passed: 1}},
		{"passed mismatch", netModule, []results.Case{pass, fail}, results.Declared{Total: 2, Passed: 2}},
		{"empty name", "", nil, results.Unknown()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := results.NewModule(tt.module, false, tt.cases, tt.declared)
			assert.True(t, errors.IsMalformedInput(err), "got %v", err)
		})
	}

	t.Run("verifier total exempt", func(t *testing.T) {
		c := mustCase(t, constants.VerifierModule, "AudioTest", results.Passed, nil)
		_, err := results.NewModule(constants.VerifierModule, true, []results.Case{c}, results.Declared{Total: 40, Passed: 1})
		assert.NoError(t, err)
	})
}
