package results

import (
	"fmt"

	"github.com/agentstation/xtsmerge/pkg/constants"
	"github.com/agentstation/xtsmerge/pkg/errors"
)

// UnknownCount marks a declared count the report did not provide.
const UnknownCount = -1

// Declared holds the counts a report states for a module.
type Declared struct {
	Total  int
	Passed int
}

// Unknown returns a Declared with both counts unknown.
func Unknown() Declared {
	return Declared{Total: UnknownCount, Passed: UnknownCount}
}

// Module is an ordered, immutable set of cases.
type Module struct {
	name  string
	done  bool
	cases []Case
	index map[string]int
}

// NewModule builds a Module and checks it against the counts the report
// declared for it.
func NewModule(name string, done bool, cases []Case, declared Declared) (*Module, error) {
	if name == "" {
		return nil, errors.NewMalformedInputError("", "", "module name is empty")
	}

	m := &Module{
		name:  name,
		done:  done,
		cases: make([]Case, len(cases)),
		index: make(map[string]int, len(cases)),
	}
	copy(m.cases, cases)

	passed := 0
	for i, c := range m.cases {
		if c.module != name {
			return nil, errors.NewMalformedInputError(name, c.name, fmt.Sprintf("case belongs to module %q", c.module))
		}
		if _, dup := m.index[c.name]; dup {
			return nil, errors.NewMalformedInputError(name, c.name, "duplicate case name")
		}
		m.index[c.name] = i
		if c.outcome == Passed {
			passed++
		}
	}

	if declared.Total != UnknownCount && name != constants.VerifierModule && declared.Total != len(m.cases) {
		return nil, errors.NewMalformedInputError(name, "",
			fmt.Sprintf("declared %d cases, found %d", declared.Total, len(m.cases)))
	}
	if declared.Passed != UnknownCount && declared.Passed != passed {
		return nil, errors.NewMalformedInputError(name, "",
			fmt.Sprintf("declared %d passed, found %d", declared.Passed, passed))
	}
	return m, nil
}

// Name returns the module name, conventionally "<abi> <module>".
func (m *Module) Name() string { return m.name }

// Done reports whether the run completed the module.
func (m *Module) Done() bool { return m.done }

// Len returns the number of cases.
func (m *Module) Len() int { return len(m.cases) }

// Cases returns a copy of the cases in report order.
func (m *Module) Cases() []Case {
	out := make([]Case, len(m.cases))
	copy(out, m.cases)
	return out
}

// Case looks a case up by exact name.
func (m *Module) Case(name string) (Case, bool) {
	i, ok := m.index[name]
	if !ok {
		return Case{}, false
	}
	return m.cases[i], true
}

// CaseNames returns case names in report order.
func (m *Module) CaseNames() []string {
	names := make([]string, len(m.cases))
	for i, c := range m.cases {
		names[i] = c.name
	}
	return names
}

// Count returns how many cases have the given outcome.
func (m *Module) Count(o Outcome) int {
	n := 0
	for _, c := range m.cases {
		if c.outcome == o {
			n++
		}
	}
	return n
}
