package parser

import (
	"os"
	"path/filepath"

	"github.com/agentstation/xtsmerge/pkg/constants"
)

// Artifact is a file a complete report directory is expected to hold.
type Artifact string

// Report artifacts relative to the report directory.
var (
	ArtifactXML        = Artifact(constants.ResultXMLFile)
	ArtifactHTML       = Artifact(constants.ResultHTMLFile)
	ArtifactFailures   = Artifact(constants.FailuresHTMLFile)
	ArtifactDeviceInfo = Artifact(filepath.Join(constants.DeviceInfoDir, constants.PropertyDeviceInfoFile))
)

var artifacts = []Artifact{ArtifactFailures, ArtifactHTML, ArtifactXML, ArtifactDeviceInfo}

// onlyXML suites ship nothing but the result document.
var onlyXML = map[string]bool{
	constants.SuiteCTSVerifier: true,
}

// noDeviceInfo suites never collect device information.
var noDeviceInfo = map[string]bool{
	constants.SuiteCTSVerifier: true,
	constants.SuiteSTS:         true,
}

// IsReport reports whether dir holds a result document.
func IsReport(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, constants.ResultXMLFile))
	return err == nil && !info.IsDir()
}

// Missing lists the artifacts a report of suite lacks, honouring the
// suites that are exempt from some of them.
func Missing(dir, suite string) []Artifact {
	var missing []Artifact
	for _, a := range artifacts {
		if onlyXML[suite] && a != ArtifactXML {
			continue
		}
		if noDeviceInfo[suite] && a == ArtifactDeviceInfo {
			continue
		}
		if _, err := os.Stat(filepath.Join(dir, string(a))); err != nil {
			missing = append(missing, a)
		}
	}
	return missing
}
