package results

import (
	"fmt"
	"time"

	"github.com/agentstation/xtsmerge/pkg/errors"
	"github.com/agentstation/xtsmerge/pkg/matcher"
)

// Field is one ordered key/value pair from a report summary or device dump.
type Field struct {
	Key   string `json:"key" yaml:"key"`
	Value string `json:"value" yaml:"value"`
}

// RunConfig carries everything NewRun needs.
type RunConfig struct {
	// Suite is the suite identity, e.g. "CTS" or "CTS_ON_GSI".
	Suite string
	// Source locates the report the run was parsed from.
	Source string
	// Start is when the run began.
	Start time.Time
	// Summary holds the report header fields in display order.
	Summary []Field
	// Modules in report order.
	Modules []*Module
	// DeviceInfo holds whitelisted device properties, if collected.
	DeviceInfo []Field
	// Matcher resolves summary and device keys; defaults to matcher.Default.
	Matcher matcher.Matcher
}

// Run is one parsed execution of a test suite. It is immutable.
type Run struct {
	suite   string
	source  string
	start   time.Time
	summary []Field
	modules []*Module
	index   map[string]int
	device  []Field
	match   matcher.Matcher
	cases   int
	done    int
}

// NewRun validates cfg and builds a Run.
func NewRun(cfg RunConfig) (*Run, error) {
	if cfg.Suite == "" {
		return nil, &errors.MalformedInputError{Source: cfg.Source, Message: "suite identity is empty"}
	}

	r := &Run{
		suite:   cfg.Suite,
		source:  cfg.Source,
		start:   cfg.Start,
		summary: append([]Field(nil), cfg.Summary...),
		modules: make([]*Module, 0, len(cfg.Modules)),
		index:   make(map[string]int, len(cfg.Modules)),
		device:  append([]Field(nil), cfg.DeviceInfo...),
		match:   cfg.Matcher,
	}
	if r.match == nil {
		r.match = matcher.Default()
	}

	seen := make(map[string]bool, len(r.summary))
	for _, f := range r.summary {
		if seen[f.Key] {
			return nil, &errors.MalformedInputError{Source: cfg.Source, Message: fmt.Sprintf("duplicate summary field %q", f.Key)}
		}
		seen[f.Key] = true
	}

	for _, m := range cfg.Modules {
		if m == nil {
			return nil, &errors.MalformedInputError{Source: cfg.Source, Message: "nil module"}
		}
		if _, dup := r.index[m.name]; dup {
			return nil, &errors.MalformedInputError{Source: cfg.Source, Module: m.name, Message: "duplicate module"}
		}
		r.index[m.name] = len(r.modules)
		r.modules = append(r.modules, m)
		r.cases += m.Len()
		if m.done {
			r.done++
		}
	}
	return r, nil
}

// Suite returns the suite identity.
func (r *Run) Suite() string { return r.suite }

// Source returns the report location.
func (r *Run) Source() string { return r.source }

// Start returns the run start time.
func (r *Run) Start() time.Time { return r.start }

// Summary resolves key against the summary fields with the run's matcher.
func (r *Run) Summary(key string) (string, bool) {
	return lookup(r.match, r.summary, key)
}

// SummaryFields returns a copy of the summary in display order.
func (r *Run) SummaryFields() []Field {
	return append([]Field(nil), r.summary...)
}

// DeviceInfo resolves a device property with the run's matcher.
func (r *Run) DeviceInfo(property string) (string, bool) {
	return lookup(r.match, r.device, property)
}

// DeviceProperties returns a copy of the collected device properties.
func (r *Run) DeviceProperties() []Field {
	return append([]Field(nil), r.device...)
}

// Module looks a module up by exact name.
func (r *Run) Module(name string) (*Module, bool) {
	i, ok := r.index[name]
	if !ok {
		return nil, false
	}
	return r.modules[i], true
}

// Modules returns the modules in report order. The slice is a copy; the
// modules themselves are immutable.
func (r *Run) Modules() []*Module {
	return append([]*Module(nil), r.modules...)
}

// ModuleNames returns module names in report order.
func (r *Run) ModuleNames() []string {
	names := make([]string, len(r.modules))
	for i, m := range r.modules {
		names[i] = m.name
	}
	return names
}

// Case looks a case up by exact module and case name.
func (r *Run) Case(module, name string) (Case, bool) {
	m, ok := r.Module(module)
	if !ok {
		return Case{}, false
	}
	return m.Case(name)
}

// TotalCases returns the number of cases across all modules.
func (r *Run) TotalCases() int { return r.cases }

// DoneModules returns how many modules the run completed.
func (r *Run) DoneModules() int { return r.done }

// Count returns how many cases across all modules have outcome o.
func (r *Run) Count(o Outcome) int {
	n := 0
	for _, m := range r.modules {
		n += m.Count(o)
	}
	return n
}

func lookup(m matcher.Matcher, fields []Field, key string) (string, bool) {
	if len(fields) == 0 {
		return "", false
	}
	keys := make([]string, len(fields))
	for i, f := range fields {
		keys[i] = f.Key
	}
	hit, ok := m.Match(key, keys)
	if !ok {
		return "", false
	}
	for _, f := range fields {
		if f.Key == hit {
			return f.Value, true
		}
	}
	return "", false
}
