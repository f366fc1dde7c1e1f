package parser_test

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/xtsmerge/internal/parser"
	"github.com/agentstation/xtsmerge/pkg/constants"
	"github.com/agentstation/xtsmerge/pkg/errors"
	"github.com/agentstation/xtsmerge/pkg/logging"
	"github.com/agentstation/xtsmerge/pkg/matcher"
	"github.com/agentstation/xtsmerge/pkg/results"
)

const startMillis = 1709283600000 // 2024-03-01T09:00:00Z

const netModule = `
  <Module name="CtsNetTestCases" abi="arm64-v8a" runtime="1000" done="true" pass="2" total_tests="3">
    <TestCase name="android.net.cts.DnsTest">
      <Test result="pass" name="testResolve" />
      <Test result="fail" name="testTimeout">
        <Failure message="expected 1 but was 0"><StackTrace>at DnsTest</StackTrace></Failure>
      </Test>
    </TestCase>
    <TestCase name="android.net.cts.SocketTest">
      <Test result="pass" name="testBind" />
    </TestCase>
  </Module>`

const osModule = `
  <Module name="CtsOsTestCases" abi="arm64-v8a" runtime="1000" done="false" pass="0" total_tests="2">
    <TestCase name="android.os.cts.BuildTest">
      <Test result="ASSUMPTION_FAILURE" name="testSku" />
      <Test result="IGNORED" name="testOld" />
    </TestCase>
  </Module>`

type report struct {
	variant string
	summary string
	modules string
}

func defaultReport() report {
	return report{
		variant: `suite_variant="CTS"`,
		summary: `<Summary pass="2" failed="1" modules_done="1" modules_total="2" />`,
		modules: netModule + osModule,
	}
}

func (r report) xml() string {
	return fmt.Sprintf(`<?xml version='1.0' encoding='UTF-8' standalone='no' ?>
<Result start="%d" end="1709290800000" start_display="Fri Mar 01 09:00:00 UTC 2024" end_display="Fri Mar 01 11:00:00 UTC 2024"
    suite_name="CTS" %s suite_plan="cts" suite_version="14_r3" suite_build_number="11228894"
    host_name="lab-07" os_name="Linux" os_version="6.5.0">
  <Build build_fingerprint="google/oriole/oriole:14/AP1A/1:user/release-keys" build_version_security_patch="2024-03-05"
      build_version_release="14" build_version_sdk="34" build_abis="arm64-v8a,armeabi-v7a" />
  %s
  %s
</Result>`, startMillis, r.variant, r.summary, r.modules)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), constants.DirPermissions))
	require.NoError(t, os.WriteFile(path, []byte(content), constants.FilePermissions))
}

func writeReport(t *testing.T, r report) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, constants.ResultXMLFile), r.xml())
	return dir
}

func TestParseDir(t *testing.T) {
	dir := writeReport(t, defaultReport())

	run, err := parser.ParseDir(dir)
	require.NoError(t, err)

	assert.Equal(t, "CTS", run.Suite())
	assert.Equal(t, dir, run.Source())
	assert.True(t, run.Start().Equal(time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC)))
	assert.Equal(t, 5, run.TotalCases())
	assert.Equal(t, 1, run.DoneModules())
	assert.Equal(t, []string{"arm64-v8a CtsNetTestCases", "arm64-v8a CtsOsTestCases"}, run.ModuleNames())

	c, ok := run.Case("arm64-v8a CtsNetTestCases", "android.net.cts.DnsTest#testTimeout")
	require.True(t, ok)
	assert.Equal(t, results.Failed, c.Outcome())
	detail, ok := c.Detail()
	assert.True(t, ok)
	assert.Equal(t, "expected 1 but was 0", detail)

	c, ok = run.Case("arm64-v8a CtsOsTestCases", "android.os.cts.BuildTest#testSku")
	require.True(t, ok)
	assert.Equal(t, results.AssumptionFailure, c.Outcome())

	for key, want := range map[string]string{
		constants.FieldSuitePlan:     "CTS / cts",
		constants.FieldSuiteBuild:    "14_r3 / 11228894",
		constants.FieldHostInfo:      "Result/@start lab-07 (Linux - 6.5.0)",
		constants.FieldReleaseSDK:    "14 (34)",
		constants.FieldSecurityPatch: "2024-03-05",
		constants.FieldModulesTotal:  "2",
	} {
		got, ok := run.Summary(key)
		assert.True(t, ok, key)
		assert.Equal(t, want, got, key)
	}
	assert.Len(t, run.SummaryFields(), 12)
	assert.Empty(t, run.DeviceProperties())
}

func TestParseDirSource(t *testing.T) {
	dir := writeReport(t, defaultReport())
	run, err := parser.ParseDir(dir, parser.WithSource("/archive/cts.zip::android-cts/results/x"))
	require.NoError(t, err)
	assert.Equal(t, "/archive/cts.zip::android-cts/results/x", run.Source())
}

func TestParseDirMalformed(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*report)
	}{
		{"missing suite variant", func(r *report) { r.variant = "" }},
		{"declared passed differs", func(r *report) {
			r.modules = strings.Replace(netModule, `pass="2"`, `pass="3"`, 1) + osModule
		}},
		{"declared total differs", func(r *report) {
			r.modules = strings.Replace(netModule, `total_tests="3"`, `total_tests="4"`, 1) + osModule
		}},
		{"failed case without detail", func(r *report) {
			r.modules = strings.Replace(netModule,
				`<Failure message="expected 1 but was 0"><StackTrace>at DnsTest</StackTrace></Failure>`, "", 1) + osModule
		}},
		{"unknown outcome", func(r *report) {
			r.modules = strings.Replace(netModule, `result="pass" name="testBind"`, `result="flaky" name="testBind"`, 1) + osModule
		}},
		{"duplicate case", func(r *report) {
			r.modules = strings.Replace(netModule, `name="testBind"`, `name="testBind" /><Test result="pass" name="testBind"`, 1) + osModule
		}},
		{"duplicate module", func(r *report) {
			r.modules = netModule + netModule
			r.summary = `<Summary pass="4" failed="2" modules_done="2" modules_total="2" />`
		}},
		{"summary passed differs", func(r *report) {
			r.summary = `<Summary pass="3" failed="1" modules_done="1" modules_total="2" />`
		}},
		{"summary modules done differs", func(r *report) {
			r.summary = `<Summary pass="2" failed="1" modules_done="2" modules_total="2" />`
		}},
		{"summary not numeric", func(r *report) {
			r.summary = `<Summary pass="two" failed="1" modules_done="1" modules_total="2" />`
		}},
		{"no summary", func(r *report) { r.summary = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := defaultReport()
			tt.mutate(&r)
			dir := writeReport(t, r)

			_, err := parser.ParseDir(dir)
			require.Error(t, err)
			assert.True(t, errors.IsMalformedInput(err), "got %v", err)

			var mi *errors.MalformedInputError
			if errors.As(err, &mi) {
				assert.Equal(t, dir, mi.Source)
			}
		})
	}
}

func TestParseDirVerifierExemptions(t *testing.T) {
	r := report{
		variant: "",
		summary: `<Summary pass="1" failed="1" modules_done="1" modules_total="1" />`,
		modules: `
  <Module name="CtsVerifier" abi="noabi" done="true" pass="1" total_tests="9">
    <TestCase name="com.android.cts.verifier.audio">
      <Test result="pass" name="AudioLoopbackTest" />
      <Test result="fail" name="AudioFrequencyTest" />
    </TestCase>
  </Module>`,
	}
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, constants.ResultXMLFile),
		strings.Replace(r.xml(), `suite_name="CTS"`, `suite_name="CTS_VERIFIER"`, 1))

	run, err := parser.ParseDir(dir)
	require.NoError(t, err)
	assert.Equal(t, "CTS_VERIFIER", run.Suite())

	c, ok := run.Case(constants.VerifierModule, "com.android.cts.verifier.audio#AudioFrequencyTest")
	require.True(t, ok)
	detail, ok := c.Detail()
	assert.True(t, ok)
	assert.Empty(t, detail)
}

func TestParseDirErrors(t *testing.T) {
	_, err := parser.ParseDir(t.TempDir())
	require.Error(t, err)
	var ioErr *errors.IOError
	assert.True(t, errors.As(err, &ioErr))

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, constants.ResultXMLFile), "<Result><Module></Result>")
	_, err = parser.ParseDir(dir)
	assert.True(t, errors.IsMalformedInput(err))

	_, err = parser.ParseDir(dir, parser.WithLogger(nil))
	assert.True(t, errors.IsValidationError(err))
	_, err = parser.ParseDir(dir, parser.WithMatcher(nil))
	assert.True(t, errors.IsValidationError(err))
}

func TestParseDirDeviceInfo(t *testing.T) {
	dir := writeReport(t, defaultReport())
	writeFile(t, filepath.Join(dir, constants.DeviceInfoDir, constants.PropertyDeviceInfoFile), `{
  "ro_property": [
    {"name": "ro.build.fingerprint", "value": "google/oriole/oriole:14/AP1A/1:user/release-keys"},
    {"name": "ro.build.version.security_patch", "value": "2024-03-05"},
    {"name": "ro.product.model", "value": "Pixel 6"}
  ]
}`)

	run, err := parser.ParseDir(dir)
	require.NoError(t, err)

	props := run.DeviceProperties()
	require.Len(t, props, len(parser.DefaultDeviceProperties))
	assert.Equal(t, "ro.software.version_id", props[0].Key)
	assert.Equal(t, parser.MissingValue, props[0].Value)

	patch, ok := run.DeviceInfo("ro.build.version.security_patch")
	assert.True(t, ok)
	assert.Equal(t, "2024-03-05", patch)

	_, ok = run.DeviceInfo("ro.product.model")
	assert.False(t, ok, "properties outside the whitelist are dropped")

	run, err = parser.ParseDir(dir, parser.WithDeviceProperties("ro.product.model"))
	require.NoError(t, err)
	model, ok := run.DeviceInfo("ro.product.model")
	assert.True(t, ok)
	assert.Equal(t, "Pixel 6", model)
}

func TestParseDirBadDeviceInfo(t *testing.T) {
	dir := writeReport(t, defaultReport())
	writeFile(t, filepath.Join(dir, constants.DeviceInfoDir, constants.PropertyDeviceInfoFile), `{"ro_property": [`)

	_, err := parser.ParseDir(dir)
	assert.True(t, errors.IsMalformedInput(err))
}

func TestParseDirMatcher(t *testing.T) {
	dir := writeReport(t, defaultReport())

	run, err := parser.ParseDir(dir)
	require.NoError(t, err)
	_, ok := run.Summary("Security patch")
	assert.True(t, ok, "default matcher tolerates case differences")

	run, err = parser.ParseDir(dir, parser.WithMatcher(matcher.Exact{}))
	require.NoError(t, err)
	_, ok = run.Summary("Security patch")
	assert.False(t, ok)
}

func TestParseDirLogs(t *testing.T) {
	tl := logging.NewTestLogger(t)
	_, err := parser.ParseDir(writeReport(t, defaultReport()), parser.WithLogger(tl.Logger))
	require.NoError(t, err)
	tl.AssertContains(t, "Parsed report")
	tl.AssertContains(t, `"suite":"CTS"`)
}

func TestIdentify(t *testing.T) {
	dir := writeReport(t, defaultReport())
	h, err := parser.Identify(dir)
	require.NoError(t, err)
	assert.Equal(t, "CTS", h.Suite)
	assert.Equal(t, int64(startMillis), h.Start.UnixMilli())

	r := defaultReport()
	r.variant = `suite_variant="CTS_ON_GSI"`
	h, err = parser.Identify(writeReport(t, r))
	require.NoError(t, err)
	assert.Equal(t, "CTS_ON_GSI", h.Suite)

	r.variant = ""
	_, err = parser.Identify(writeReport(t, r))
	assert.True(t, errors.IsMalformedInput(err))

	empty := t.TempDir()
	writeFile(t, filepath.Join(empty, constants.ResultXMLFile), "<?xml version='1.0'?><Other/>")
	_, err = parser.Identify(empty)
	assert.True(t, errors.IsMalformedInput(err))
}

func TestMissingArtifacts(t *testing.T) {
	dir := writeReport(t, defaultReport())
	assert.True(t, parser.IsReport(dir))
	assert.False(t, parser.IsReport(t.TempDir()))

	assert.Equal(t, []parser.Artifact{parser.ArtifactFailures, parser.ArtifactHTML, parser.ArtifactDeviceInfo},
		parser.Missing(dir, "CTS"))
	assert.Equal(t, []parser.Artifact{parser.ArtifactFailures, parser.ArtifactHTML}, parser.Missing(dir, "STS"))
	assert.Empty(t, parser.Missing(dir, "CTS_VERIFIER"))

	writeFile(t, filepath.Join(dir, constants.ResultHTMLFile), "<html></html>")
	writeFile(t, filepath.Join(dir, constants.FailuresHTMLFile), "<html></html>")
	writeFile(t, filepath.Join(dir, constants.DeviceInfoDir, constants.PropertyDeviceInfoFile), `{"ro_property": []}`)
	assert.Empty(t, parser.Missing(dir, "CTS"))
}
