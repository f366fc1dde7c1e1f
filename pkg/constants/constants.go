// Package constants provides shared constants used throughout the xtsmerge codebase.
// This includes run labels, report artifact names, matching thresholds, limits
// and file permissions that should be consistent across the application.
package constants

import "time"

// Label constants name runs inside a reconciled suite
const (
	// MainLabel is the label given to the authoritative run of a suite
	MainLabel = "main"
)

// Suite identity constants
const (
	// SuiteCTS is the primary suite every bundle must contain
	SuiteCTS = "CTS"

	// SuiteCTSOnGSI is the CTS variant executed on a generic system image
	SuiteCTSOnGSI = "CTS_ON_GSI"

	// SuiteCTSVerifier is the manual verifier suite
	SuiteCTSVerifier = "CTS_VERIFIER"

	// SuiteGTS is the GMS test suite
	SuiteGTS = "GTS"

	// SuiteSTS is the security test suite
	SuiteSTS = "STS"

	// SuiteTVTS is the TV test suite
	SuiteTVTS = "TVTS"

	// SuiteVTS is the vendor test suite
	SuiteVTS = "VTS"
)

// KnownSuites lists the suites in presentation order.
var KnownSuites = []string{
	SuiteCTS,
	SuiteCTSOnGSI,
	SuiteCTSVerifier,
	SuiteGTS,
	SuiteSTS,
	SuiteTVTS,
	SuiteVTS,
}

// Summary field keys produced by the report parser
const (
	FieldSuitePlan     = "Suite / Plan"
	FieldSuiteBuild    = "Suite / Build"
	FieldHostInfo      = "Host Info"
	FieldTimeRange     = "Start time / End Time"
	FieldTestsPassed   = "Tests Passed"
	FieldTestsFailed   = "Tests Failed"
	FieldModulesDone   = "Modules Done"
	FieldModulesTotal  = "Modules Total"
	FieldFingerprint   = "Fingerprint"
	FieldSecurityPatch = "Security Patch"
	FieldReleaseSDK    = "Release (SDK)"
	FieldABIs          = "ABIs"
)

// DefaultSummaryFields are compared between the main run and every rerun.
var DefaultSummaryFields = []string{
	FieldSuitePlan,
	FieldSuiteBuild,
	FieldHostInfo,
	FieldFingerprint,
	FieldSecurityPatch,
	FieldReleaseSDK,
	FieldABIs,
}

// DefaultSharedFields must agree across all suites of a bundle.
var DefaultSharedFields = []string{
	FieldFingerprint,
	FieldReleaseSDK,
	FieldABIs,
}

// DefaultPatchPairs are suites whose security patch must not be older than
// the primary suite's.
var DefaultPatchPairs = []string{
	SuiteCTSOnGSI,
	SuiteVTS,
}

// Report artifact constants
const (
	// ResultXMLFile is the mandatory result document of a report directory
	ResultXMLFile = "test_result.xml"

	// ResultHTMLFile is the rendered result page
	ResultHTMLFile = "test_result.html"

	// FailuresHTMLFile is the rendered failures page
	FailuresHTMLFile = "test_result_failures_suite.html"

	// DeviceInfoDir holds collected device information
	DeviceInfoDir = "device-info-files"

	// PropertyDeviceInfoFile holds the device property dump
	PropertyDeviceInfoFile = "PropertyDeviceInfo.deviceinfo.json"

	// ZipExtension marks archives that may contain report directories
	ZipExtension = ".zip"
)

// Module constants
const (
	// VerifierModule is the legacy verifier module. Failed cases there may
	// omit failure detail and its declared total is not checked.
	VerifierModule = "noabi CtsVerifier"
)

// Matching constants
const (
	// DefaultMatchThreshold is the similarity score a summary key must
	// strictly exceed to be accepted as a fuzzy match (0-100)
	DefaultMatchThreshold = 90
)

// Limit constants define various limits and capacities
const (
	// DefaultWorkers is the number of suite directories reconciled concurrently
	DefaultWorkers = 4

	// MaxWorkers bounds the configured worker count
	MaxWorkers = 64

	// MaxArchiveFileSize bounds a single extracted archive member (2 GiB)
	MaxArchiveFileSize = 2 << 30
)

// Timeout constants define various timeout durations used in the application
const (
	// CommandTimeout is the default timeout for CLI commands
	CommandTimeout = 10 * time.Minute

	// ShutdownTimeout bounds flushing of telemetry on exit
	ShutdownTimeout = 5 * time.Second
)

// File permission constants define standard Unix file permissions
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644
)
