package parser

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/agentstation/xtsmerge/pkg/constants"
	"github.com/agentstation/xtsmerge/pkg/errors"
	"github.com/agentstation/xtsmerge/pkg/results"
)

// MissingValue stands in for a whitelisted property the device did not report.
const MissingValue = "/"

// DefaultDeviceProperties are the device properties kept from the device
// info dump, in display order.
var DefaultDeviceProperties = []string{
	"ro.software.version_id",
	"ro.build.fingerprint",
	"ro.oem.key1",
	"ro.build.representative.fingerprint",
	"ro.com.google.clientidbase",
	"ro.vendor.build.fingerprint",
	"ro.build.date",
	"ro.build.version.security_patch",
	"ro.build.version.incremental",
}

type deviceInfoFile struct {
	Properties []struct {
		Name  string `json:"name"`
		Value string `json:"value"`
	} `json:"ro_property"`
}

func deviceInfoPath(dir string) string {
	return filepath.Join(dir, constants.DeviceInfoDir, constants.PropertyDeviceInfoFile)
}

// loadDeviceInfo reads the property dump of a report and keeps the
// whitelisted properties. It returns nil when the report has no dump.
func loadDeviceInfo(dir string, whitelist []string) ([]results.Field, error) {
	path := deviceInfoPath(dir)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}

	var dump deviceInfoFile
	if err := json.Unmarshal(data, &dump); err != nil {
		return nil, errors.WrapParse("json", path, err)
	}

	values := make(map[string]string, len(dump.Properties))
	for _, p := range dump.Properties {
		values[p.Name] = p.Value
	}

	fields := make([]results.Field, len(whitelist))
	for i, prop := range whitelist {
		v, ok := values[prop]
		if !ok {
			v = MissingValue
		}
		fields[i] = results.Field{Key: prop, Value: v}
	}
	return fields, nil
}
