package parser_test

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/xtsmerge/internal/parser"
	"github.com/agentstation/xtsmerge/pkg/constants"
	"github.com/agentstation/xtsmerge/pkg/errors"
)

const failuresPage = `<!DOCTYPE html>
<html><body>
<table class="summary">
  <tr><td class="rowtitle">Suite / Plan</td><td>CTS / cts</td></tr>
  <tr><td class="rowtitle">Suite / Build</td><td>14_r3 / 11228894</td></tr>
  <tr><td class="rowtitle">Security Patch</td><td>
      2024-03-05
  </td></tr>
</table>
<table class="testsummary">
  <tr><th>Module</th><th>Passed</th><th>Failed</th><th>Assumption Failure</th><th>Ignored</th><th>Total Tests</th><th>Done</th></tr>
  <tr><td><a href="#arm64-v8a CtsNetTestCases">arm64-v8a CtsNetTestCases</a></td><td>2</td><td>1</td><td>0</td><td>0</td><td>3</td><td>true</td></tr>
  <tr><td><a href="#arm64-v8a CtsOsTestCases">arm64-v8a CtsOsTestCases</a></td><td>0</td><td>0</td><td>1</td><td>1</td><td>2</td><td>FALSE</td></tr>
</table>
<table class="incompletemodules">
  <tr><th>Incomplete Modules</th></tr>
  <tr><td><a href="#arm64-v8a CtsOsTestCases">arm64-v8a CtsOsTestCases</a></td></tr>
</table>
<table class="testdetails">
  <tr><td class="module" colspan="3"><a name="arm64-v8a CtsNetTestCases">arm64-v8a CtsNetTestCases</a></td></tr>
  <tr><th>Test</th><th>Result</th><th>Details</th></tr>
  <tr><td class="testname">android.net.cts.DnsTest#testTimeout</td><td class="failed">fail</td><td class="failuredetails">expected 1 but was 0</td></tr>
</table>
</body></html>`

func writeFailuresPage(t *testing.T, dir, page string) {
	t.Helper()
	writeFile(t, filepath.Join(dir, constants.FailuresHTMLFile), page)
}

func TestHTMLVerification(t *testing.T) {
	dir := writeReport(t, defaultReport())
	writeFailuresPage(t, dir, failuresPage)

	run, err := parser.ParseDir(dir)
	require.NoError(t, err)
	assert.Equal(t, 5, run.TotalCases())
}

func TestHTMLVerificationMismatch(t *testing.T) {
	tests := []struct {
		name string
		old  string
		new  string
	}{
		{"summary value", "14_r3 / 11228894", "14_r2 / 11228894"},
		{"unknown summary field", "Suite / Plan", "Suite Plan"},
		{"passed count", "<td>2</td><td>1</td>", "<td>1</td><td>1</td>"},
		{"done flag", "<td>3</td><td>true</td>", "<td>3</td><td>false</td>"},
		{"failed case outcome", "android.net.cts.DnsTest#testTimeout", "android.net.cts.DnsTest#testResolve"},
		{"failed case missing", "android.net.cts.DnsTest#testTimeout", "android.net.cts.DnsTest#testGone"},
		{"incomplete module done", `<tr><td><a href="#arm64-v8a CtsOsTestCases">arm64-v8a CtsOsTestCases</a></td></tr>`,
			`<tr><td><a href="#arm64-v8a CtsNetTestCases">arm64-v8a CtsNetTestCases</a></td></tr>`},
		{"unknown module", `<a name="arm64-v8a CtsNetTestCases">arm64-v8a CtsNetTestCases</a>`, `<a>x86 CtsNetTestCases</a>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Contains(t, failuresPage, tt.old)
			dir := writeReport(t, defaultReport())
			writeFailuresPage(t, dir, strings.Replace(failuresPage, tt.old, tt.new, 1))

			_, err := parser.ParseDir(dir)
			require.Error(t, err)
			assert.True(t, errors.IsMalformedInput(err), "got %v", err)

			_, err = parser.ParseDir(dir, parser.WithHTMLVerification(false))
			assert.NoError(t, err)
		})
	}
}
