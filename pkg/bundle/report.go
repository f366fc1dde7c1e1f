package bundle

import (
	"sort"

	"github.com/agentstation/xtsmerge/pkg/constants"
	"github.com/agentstation/xtsmerge/pkg/reconciler"
)

// Flags are the advisory findings attached to one suite. None of them is
// fatal; they exist so a renderer can highlight the affected values.
type Flags struct {
	// WrongSecurityPatch is set when the suite's security patch is older
	// than the primary's, or cannot be read.
	WrongSecurityPatch bool   `json:"wrong_security_patch" yaml:"wrong_security_patch"`
	SecurityPatch      string `json:"security_patch,omitempty" yaml:"security_patch,omitempty"`
	PatchNote          string `json:"patch_note,omitempty" yaml:"patch_note,omitempty"`

	// InconsistentFields lists the shared fields that are not identical
	// across the bundle. Every suite carries the same list.
	InconsistentFields []string `json:"inconsistent_fields,omitempty" yaml:"inconsistent_fields,omitempty"`

	// DivergentFields lists the shared fields on which this suite differs
	// from the value most suites report.
	DivergentFields []string `json:"divergent_fields,omitempty" yaml:"divergent_fields,omitempty"`
}

// Clean reports whether no advisory applies.
func (f Flags) Clean() bool {
	return !f.WrongSecurityPatch && len(f.InconsistentFields) == 0 && len(f.DivergentFields) == 0
}

func (f Flags) clone() Flags {
	f.InconsistentFields = append([]string(nil), f.InconsistentFields...)
	f.DivergentFields = append([]string(nil), f.DivergentFields...)
	return f
}

// DeviceRow is one device property across the suites of a bundle.
type DeviceRow struct {
	Property string            `json:"property" yaml:"property"`
	Values   map[string]string `json:"values" yaml:"values"` // keyed by suite
}

// Report is the outcome of a cross-suite check. It is immutable and every
// accessor returns a copy.
type Report struct {
	primary string
	suites  map[string]*reconciler.Suite
	flags   map[string]Flags
	shared  map[string]string // plurality value per shared field
	devices []DeviceRow
}

// Primary returns the baseline suite identity.
func (r *Report) Primary() string { return r.primary }

// Suites returns the suite identities in the bundle, sorted.
func (r *Report) Suites() []string {
	ids := make([]string, 0, len(r.suites))
	for id := range r.suites {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Suite returns the reconciled suite with the given identity.
func (r *Report) Suite(id string) (*reconciler.Suite, bool) {
	s, ok := r.suites[id]
	return s, ok
}

// Flags returns the advisories for a suite.
func (r *Report) Flags(suite string) (Flags, bool) {
	f, ok := r.flags[suite]
	if !ok {
		return Flags{}, false
	}
	return f.clone(), true
}

// Ordered returns the suite identities in presentation order: known suites
// first in their customary order, then any others sorted.
func (r *Report) Ordered() []string {
	var out []string
	known := make(map[string]struct{}, len(constants.KnownSuites))
	for _, id := range constants.KnownSuites {
		known[id] = struct{}{}
		if _, ok := r.suites[id]; ok {
			out = append(out, id)
		}
	}
	for _, id := range r.Suites() {
		if _, ok := known[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}

// Missing returns the known suites absent from the bundle.
func (r *Report) Missing() []string {
	var out []string
	for _, id := range constants.KnownSuites {
		if _, ok := r.suites[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}

// Consensus returns the value most suites report for a shared field.
func (r *Report) Consensus(field string) (string, bool) {
	v, ok := r.shared[field]
	return v, ok
}

// DeviceInfo returns the device properties of every suite's main run,
// joined by property name.
func (r *Report) DeviceInfo() []DeviceRow {
	out := make([]DeviceRow, len(r.devices))
	for i, row := range r.devices {
		values := make(map[string]string, len(row.Values))
		for k, v := range row.Values {
			values[k] = v
		}
		out[i] = DeviceRow{Property: row.Property, Values: values}
	}
	return out
}
