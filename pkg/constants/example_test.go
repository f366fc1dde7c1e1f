package constants_test

import (
	"fmt"
	"path/filepath"

	"github.com/agentstation/xtsmerge/pkg/constants"
)

// Example demonstrates locating report artifacts
func Example() {
	dir := filepath.Join("reports", "2024.01.01_10.00.00")

	fmt.Println(filepath.ToSlash(filepath.Join(dir, constants.ResultXMLFile)))
	fmt.Println(filepath.ToSlash(filepath.Join(dir, constants.DeviceInfoDir, constants.PropertyDeviceInfoFile)))
	// Output:
	// reports/2024.01.01_10.00.00/test_result.xml
	// reports/2024.01.01_10.00.00/device-info-files/PropertyDeviceInfo.deviceinfo.json
}

// Example_knownSuites shows the presentation order of suites
func Example_knownSuites() {
	for _, s := range constants.KnownSuites {
		fmt.Println(s)
	}
	// Output:
	// CTS
	// CTS_ON_GSI
	// CTS_VERIFIER
	// GTS
	// STS
	// TVTS
	// VTS
}
