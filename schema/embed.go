// Package schema provides the embedded JSON schema for xtsmerge
// configuration files.
package schema

import "embed"

// FS contains the embedded schema files.
//
//go:embed *.schema.json
var FS embed.FS

// ConfigSchema is the name of the configuration schema inside FS.
const ConfigSchema = "config.schema.json"
