package results_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/xtsmerge/pkg/errors"
	"github.com/agentstation/xtsmerge/pkg/matcher"
	"github.com/agentstation/xtsmerge/pkg/results"
	rt "github.com/agentstation/xtsmerge/pkg/results/resultstest"
)

func TestRunAccessors(t *testing.T) {
	run := rt.NewRun("CTS", rt.At(0)).
		Summary("Suite / Plan", "cts / cts").
		Summary("Security Patch", "2024-02-05").
		Device("ro.build.fingerprint", "google/oriole/oriole:14").
		Module("arm64-v8a CtsNetTestCases", true, rt.Pass("A#a"), rt.Fail("A#b")).
		Module("arm64-v8a CtsOsTestCases", false, rt.Ignore("B#a")).
		Build(t)

	assert.Equal(t, "CTS", run.Suite())
	assert.Equal(t, rt.At(0), run.Start())
	assert.NotEmpty(t, run.Source())
	assert.Equal(t, 3, run.TotalCases())
	assert.Equal(t, 1, run.DoneModules())
	assert.Equal(t, 1, run.Count(results.Failed))
	assert.Equal(t, []string{"arm64-v8a CtsNetTestCases", "arm64-v8a CtsOsTestCases"}, run.ModuleNames())
	assert.Len(t, run.Modules(), 2)

	m, ok := run.Module("arm64-v8a CtsOsTestCases")
	require.True(t, ok)
	assert.False(t, m.Done())
	_, ok = run.Module("arm64-v8a")
	assert.False(t, ok, "module lookup is exact")

	c, ok := run.Case("arm64-v8a CtsNetTestCases", "A#b")
	require.True(t, ok)
	assert.Equal(t, results.Failed, c.Outcome())
	_, ok = run.Case("arm64-v8a CtsNetTestCases", "A#z")
	assert.False(t, ok)
	_, ok = run.Case("nope", "A#b")
	assert.False(t, ok)
}

func TestRunSummaryLookup(t *testing.T) {
	run := rt.NewRun("CTS", rt.At(0)).
		Summary("Security Patch", "2024-02-05").
		Summary("Release (SDK)", "14 (34)").
		Device("ro.build.version.security_patch", "2024-02-05").
		Build(t)

	v, ok := run.Summary("Security Patch")
	assert.True(t, ok)
	assert.Equal(t, "2024-02-05", v)

	v, ok = run.Summary("security patch")
	assert.True(t, ok, "similarity fallback")
	assert.Equal(t, "2024-02-05", v)

	_, ok = run.Summary("Fingerprint")
	assert.False(t, ok)

	v, ok = run.DeviceInfo("ro.build.version.security_patch")
	assert.True(t, ok)
	assert.Equal(t, "2024-02-05", v)

	_, ok = run.DeviceInfo("ro.oem.key1")
	assert.False(t, ok)

	fields := run.SummaryFields()
	fields[0].Value = "mutated"
	v, _ = run.Summary("Security Patch")
	assert.Equal(t, "2024-02-05", v, "SummaryFields returns a copy")
	assert.Len(t, run.DeviceProperties(), 1)
}

func TestRunExactMatcher(t *testing.T) {
	run, err := results.NewRun(results.RunConfig{
		Suite:   "GTS",
		Summary: []results.Field{{Key: "Fingerprint", Value: "fp"}},
		Matcher: matcher.Exact{},
	})
	require.NoError(t, err)

	_, ok := run.Summary("fingerprint")
	assert.False(t, ok)
	_, ok = run.Summary("Fingerprint")
	assert.True(t, ok)
}

func TestNewRunValidation(t *testing.T) {
	m, err := results.NewModule("x86 CtsA", true, nil, results.Unknown())
	require.NoError(t, err)

	tests := []struct {
		name string
		cfg  results.RunConfig
	}{
		{"empty suite", results.RunConfig{}},
		{"duplicate module", results.RunConfig{Suite: "CTS", Modules: []*results.Module{m, m}}},
		{"nil module", results.RunConfig{Suite: "CTS", Modules: []*results.Module{nil}}},
		{"duplicate summary key", results.RunConfig{Suite: "CTS", Summary: []results.Field{{Key: "ABIs"}, {Key: "ABIs"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := results.NewRun(tt.cfg)
			assert.True(t, errors.IsMalformedInput(err), "got %v", err)
		})
	}
}
