package output_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/goccy/go-yaml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/xtsmerge"
	"github.com/agentstation/xtsmerge/internal/cmd/output"
	"github.com/agentstation/xtsmerge/internal/cmd/table"
	"github.com/agentstation/xtsmerge/internal/finder"
	"github.com/agentstation/xtsmerge/pkg/bundle"
	"github.com/agentstation/xtsmerge/pkg/constants"
	"github.com/agentstation/xtsmerge/pkg/reconciler"
	"github.com/agentstation/xtsmerge/pkg/results"
	rt "github.com/agentstation/xtsmerge/pkg/results/resultstest"
)

const netModule = "arm64-v8a CtsNetTestCases"

func testResult(t *testing.T, provenance bool) *xtsmerge.Result {
	t.Helper()
	cts, err := reconciler.Reconcile([]*results.Run{
		rt.NewRun("CTS", rt.At(0)).
			Summary(constants.FieldSecurityPatch, "2024-03-05").
			Module(netModule, true, rt.Pass("DnsTest#a"), rt.Fail("DnsTest#b"), rt.Fail("DnsTest#c")).
			Build(t),
		rt.NewRun("CTS", rt.At(2)).
			Summary(constants.FieldSecurityPatch, "2024-03-05").
			Module(netModule, true, rt.Pass("DnsTest#b"), rt.Fail("DnsTest#c")).
			Build(t),
	}, reconciler.WithProvenance(provenance))
	require.NoError(t, err)

	report, err := bundle.Check(map[string]*reconciler.Suite{"CTS": cts})
	require.NoError(t, err)

	return &xtsmerge.Result{
		Root:   "/reports",
		Bundle: report,
		Dirs: []xtsmerge.DirResult{
			{Path: "/reports/android-cts", Suite: "CTS", Reports: 3, Runs: 2,
				Dropped: []xtsmerge.Dropped{{Source: "/reports/android-cts/results/broken", Reason: "missing Summary/@pass"}}},
			{Path: "/reports/android-gts", Skipped: "no valid runs"},
		},
	}
}

func TestParseFormat(t *testing.T) {
	for _, s := range []string{"table", "json", "yaml", "JSON"} {
		f, err := output.ParseFormat(s)
		require.NoError(t, err, s)
		assert.Equal(t, output.Format(strings.ToLower(s)), f)
	}
	_, err := output.ParseFormat("xml")
	assert.Error(t, err)
}

func TestDetectFormat(t *testing.T) {
	assert.Equal(t, output.FormatJSON, output.DetectFormat("json"))
}

func TestTableFormatterSections(t *testing.T) {
	var buf bytes.Buffer
	err := output.NewFormatter(output.FormatTable).Format(&buf, output.Sections{
		{Title: "Empty", Data: table.Data{Headers: []string{"A"}}},
		{Title: "Always", Data: table.Data{Headers: []string{"A"}}, Always: true},
		{Title: "Rows", Data: table.Data{Headers: []string{"Name"}, Rows: [][]string{{"alpha"}, {"beta"}}}},
	})
	require.NoError(t, err)

	out := buf.String()
	assert.NotContains(t, out, "Empty")
	assert.Contains(t, out, "Always (0)")
	assert.Contains(t, out, "Rows (2)")
	assert.Contains(t, out, "beta")
}

func TestTableFormatterStructs(t *testing.T) {
	type row struct {
		Name   string `json:"name"`
		Count  int    `json:"count"`
		hidden string
		Skip   string `json:"-"`
	}
	var buf bytes.Buffer
	err := output.NewFormatter(output.FormatTable).Format(&buf, []row{{Name: "alpha", Count: 2, hidden: "x", Skip: "y"}})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, strings.ToUpper(out), "NAME")
	assert.Contains(t, out, "alpha")
	assert.NotContains(t, strings.ToUpper(out), "SKIP")
	assert.NotContains(t, strings.ToUpper(out), "HIDDEN")
}

func TestFormatMergeTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, output.FormatMerge(&buf, output.FormatTable, testResult(t, false), false))

	out := buf.String()
	assert.Contains(t, out, "Suites (")
	assert.Contains(t, out, "Still failed (1)")
	assert.Contains(t, out, "DnsTest#c")
	assert.Contains(t, out, "Dropped reports (1)")
	assert.Contains(t, out, "Skipped directories (1)")
	assert.NotContains(t, out, "Provenance")
}

func TestFormatMergeProvenanceTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, output.FormatMerge(&buf, output.FormatTable, testResult(t, true), true))
	assert.Contains(t, buf.String(), "Provenance CTS")
}

func TestFormatMergeJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, output.FormatMerge(&buf, output.FormatJSON, testResult(t, false), false))

	var view output.MergeView
	require.NoError(t, json.Unmarshal(buf.Bytes(), &view))

	assert.Equal(t, "/reports", view.Root)
	assert.Equal(t, "CTS", view.Primary)
	assert.Equal(t, reconciler.VerdictFail, view.Verdict)
	require.Len(t, view.Suites, 1)

	cts := view.Suites[0]
	assert.Equal(t, "CTS", cts.Identity)
	assert.Equal(t, []string{"main", "2"}, []string{cts.Runs[0].Label, cts.Runs[1].Label})
	assert.Equal(t, 3, cts.Cases.Total)
	assert.Equal(t, 2, cts.Cases.Passed)
	require.Len(t, cts.StillFailed, 1)
	assert.Equal(t, "DnsTest#c", cts.StillFailed[0].Test)
	assert.Equal(t, "main(fail), 2(fail)", cts.StillFailed[0].History)
	assert.Nil(t, cts.Provenance)
	assert.Len(t, view.Dirs, 2)
	assert.Contains(t, view.Missing, "GTS")
}

func TestFormatMergeYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, output.FormatMerge(&buf, output.FormatYAML, testResult(t, true), true))

	var doc map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "Fail", doc["verdict"])

	suites, ok := doc["suites"].([]any)
	require.True(t, ok)
	first, ok := suites[0].(map[string]any)
	require.True(t, ok)
	assert.NotEmpty(t, first["provenance"])
}

func TestVerdict(t *testing.T) {
	assert.Equal(t, reconciler.VerdictFail, output.Verdict(testResult(t, false).Bundle))

	pass, err := reconciler.Reconcile([]*results.Run{
		rt.NewRun("CTS", rt.At(0)).Module(netModule, true, rt.Pass("DnsTest#a")).Build(t),
	})
	require.NoError(t, err)
	report, err := bundle.Check(map[string]*reconciler.Suite{"CTS": pass})
	require.NoError(t, err)
	assert.Equal(t, reconciler.VerdictPass, output.Verdict(report))
}

func TestFormatReports(t *testing.T) {
	found := &finder.Result{
		Root: "/reports",
		Dirs: []finder.SuiteDir{{
			Path: "/reports/android-cts",
			Reports: []finder.Report{
				{Dir: "/reports/android-cts/results/a", Source: "/reports/android-cts/results/a", Suite: "CTS", Start: rt.At(0)},
			},
		}},
		Skipped: []finder.Skipped{
			{Path: "/reports/z.zip", Reason: "not a zip archive"},
			{Path: "/reports/a.zip", Reason: "archive nested too deep"},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, output.FormatReports(&buf, output.FormatTable, found))
	out := buf.String()
	assert.Contains(t, out, "Reports (1)")
	assert.Contains(t, out, "Skipped (2)")
	assert.Less(t, strings.Index(out, "a.zip"), strings.Index(out, "z.zip"))

	buf.Reset()
	require.NoError(t, output.FormatReports(&buf, output.FormatJSON, found))
	var back finder.Result
	require.NoError(t, json.Unmarshal(buf.Bytes(), &back))
	assert.Equal(t, found.Dirs, back.Dirs)
}
