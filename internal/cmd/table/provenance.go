package table

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/agentstation/xtsmerge/pkg/provenance"
)

// ProvenanceToTableData converts a suite's provenance into one row per
// decision, grouped by resource and field. Patterns restrict the fields
// shown, see MatchField.
func ProvenanceToTableData(prov provenance.Map, patterns []string) Data {
	report := provenance.GenerateReport(prov)

	keys := make([]string, 0, len(report.Resources))
	for key := range report.Resources {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var rows [][]string
	for _, key := range keys {
		resource := report.Resources[key]

		fields := make([]string, 0, len(resource.Fields))
		for field := range resource.Fields {
			if MatchField(string(resource.Kind)+"."+field, patterns) {
				fields = append(fields, field)
			}
		}
		sort.Strings(fields)

		for _, field := range fields {
			for _, entry := range resource.Fields[field] {
				rows = append(rows, []string{
					string(resource.Kind),
					resource.ID,
					field,
					formatValueAsYAML(entry.Value),
					entry.Label,
					formatTime(entry.Timestamp),
					entry.Reason,
				})
			}
		}
	}

	return Data{
		Headers: []string{"Kind", "Resource", "Field", "Value", "Run", "Start", "Reason"},
		Rows:    rows,
		ColumnAlignment: []Align{
			AlignLeft,   // Kind
			AlignLeft,   // Resource
			AlignLeft,   // Field
			AlignLeft,   // Value
			AlignCenter, // Run
			AlignLeft,   // Start
			AlignLeft,   // Reason
		},
	}
}

// MatchField checks if "kind.field" matches any of the provided patterns.
// Supports wildcards ("case.*" matches every case field). Matching is
// case-insensitive.
func MatchField(field string, patterns []string) bool {
	if len(patterns) == 0 {
		return true
	}

	fieldLower := strings.ToLower(field)
	for _, pattern := range patterns {
		patternLower := strings.ToLower(pattern)

		if matched, err := filepath.Match(patternLower, fieldLower); err == nil && matched {
			return true
		}
		if prefix, ok := strings.CutSuffix(patternLower, ".*"); ok {
			if strings.HasPrefix(fieldLower, prefix+".") || fieldLower == prefix {
				return true
			}
		}
	}
	return false
}

// formatValueAsYAML keeps scalars as-is and renders anything else as
// single-line YAML.
func formatValueAsYAML(val any) string {
	if val == nil {
		return "<nil>"
	}

	switch v := val.(type) {
	case string:
		if v == "" {
			return "<empty>"
		}
		return v
	case fmt.Stringer:
		return v.String()
	case int, int64, bool:
		return fmt.Sprintf("%v", v)
	}

	out, err := yaml.MarshalWithOptions(val, yaml.Flow(true))
	if err != nil {
		return fmt.Sprintf("%v", val)
	}
	return strings.TrimSuffix(string(out), "\n")
}
