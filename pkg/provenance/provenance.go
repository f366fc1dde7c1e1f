// Package provenance records which run decided each reconciled value and why.
package provenance

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Kind names the type of thing a provenance entry describes.
type Kind string

// Kinds tracked by the reconciler.
const (
	KindSuite  Kind = "suite"
	KindCase   Kind = "case"
	KindModule Kind = "module"
)

// Provenance tracks the origin of a reconciled value.
type Provenance struct {
	Label         string    `json:"label" yaml:"label"`                                       // Run label, e.g. "main" or "2"
	Source        string    `json:"source" yaml:"source"`                                     // Report location of the run
	Field         string    `json:"field" yaml:"field"`                                       // Field path
	Value         any       `json:"value" yaml:"value"`                                       // The decided value
	Timestamp     time.Time `json:"timestamp" yaml:"timestamp"`                               // Start of the deciding run
	Reason        string    `json:"reason" yaml:"reason"`                                     // Why this run decided
	PreviousValue any       `json:"previous_value,omitempty" yaml:"previous_value,omitempty"` // Value the decision replaced
}

// Map tracks provenance for multiple resources.
type Map map[string][]Provenance // key is "kind:id:field"

// Tracker collects provenance during one reconciliation.
type Tracker interface {
	// Track records provenance for a field
	Track(kind Kind, id string, field string, p Provenance)

	// FindByField retrieves provenance for a specific field
	FindByField(kind Kind, id string, field string) []Provenance

	// FindByResource retrieves all provenance for a resource, keyed by field
	FindByResource(kind Kind, id string) map[string][]Provenance

	// Map returns a copy of the complete provenance map
	Map() Map

	// Clear removes all provenance data
	Clear()
}

type tracker struct {
	provenance Map
	enabled    bool
}

// NewTracker creates a new provenance tracker. A disabled tracker accepts
// and discards everything.
func NewTracker(enabled bool) Tracker {
	return &tracker{
		provenance: make(Map),
		enabled:    enabled,
	}
}

func (p *tracker) Track(kind Kind, id string, field string, entry Provenance) {
	if !p.enabled {
		return
	}
	if entry.Field == "" {
		entry.Field = field
	}
	key := makeKey(kind, id, field)
	p.provenance[key] = append(p.provenance[key], entry)
}

func (p *tracker) FindByField(kind Kind, id string, field string) []Provenance {
	if !p.enabled {
		return nil
	}
	return append([]Provenance(nil), p.provenance[makeKey(kind, id, field)]...)
}

func (p *tracker) FindByResource(kind Kind, id string) map[string][]Provenance {
	if !p.enabled {
		return nil
	}

	result := make(map[string][]Provenance)
	prefix := string(kind) + ":" + id + ":"
	for key, entries := range p.provenance {
		if field, found := strings.CutPrefix(key, prefix); found {
			result[field] = append([]Provenance(nil), entries...)
		}
	}
	return result
}

func (p *tracker) Map() Map {
	if !p.enabled {
		return nil
	}

	result := make(Map, len(p.provenance))
	for k, v := range p.provenance {
		result[k] = append([]Provenance(nil), v...)
	}
	return result
}

func (p *tracker) Clear() {
	p.provenance = make(Map)
}

// Fields never contain a colon, so SplitKey cuts at the last one.
func makeKey(kind Kind, id string, field string) string {
	return fmt.Sprintf("%s:%s:%s", kind, id, field)
}

// SplitKey breaks a Map key into kind, id and field.
func SplitKey(key string) (Kind, string, string, bool) {
	kind, rest, ok := strings.Cut(key, ":")
	if !ok {
		return "", "", "", false
	}
	i := strings.LastIndex(rest, ":")
	if i < 0 {
		return "", "", "", false
	}
	return Kind(kind), rest[:i], rest[i+1:], true
}

// Report is a human-readable view of a Map.
type Report struct {
	Resources map[string]ResourceProvenance // key is "kind:id"
}

// ResourceProvenance contains provenance for a single resource.
type ResourceProvenance struct {
	Kind   Kind
	ID     string
	Fields map[string][]Provenance
}

// GenerateReport groups a Map by resource.
func GenerateReport(provenance Map) *Report {
	report := &Report{Resources: make(map[string]ResourceProvenance)}

	for key, entries := range provenance {
		kind, id, field, ok := SplitKey(key)
		if !ok {
			continue
		}

		resourceKey := string(kind) + ":" + id
		resource, exists := report.Resources[resourceKey]
		if !exists {
			resource = ResourceProvenance{Kind: kind, ID: id, Fields: make(map[string][]Provenance)}
		}
		resource.Fields[field] = append([]Provenance(nil), entries...)
		report.Resources[resourceKey] = resource
	}
	return report
}

// String renders the report sorted by resource and field.
func (r *Report) String() string {
	var sb strings.Builder

	sb.WriteString("Provenance Report\n")
	sb.WriteString("=================\n\n")

	keys := make([]string, 0, len(r.Resources))
	for key := range r.Resources {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		resource := r.Resources[key]
		fmt.Fprintf(&sb, "%s: %s\n", resource.Kind, resource.ID)

		fields := make([]string, 0, len(resource.Fields))
		for field := range resource.Fields {
			fields = append(fields, field)
		}
		sort.Strings(fields)

		for _, field := range fields {
			for _, p := range resource.Fields[field] {
				fmt.Fprintf(&sb, "  %s: %v from %s (%s)\n", field, p.Value, p.Label, p.Reason)
			}
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
