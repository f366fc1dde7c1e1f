package results

import (
	"fmt"

	"github.com/agentstation/xtsmerge/pkg/constants"
	"github.com/agentstation/xtsmerge/pkg/errors"
)

// Case is one test case outcome inside a module.
type Case struct {
	module    string
	name      string
	outcome   Outcome
	detail    string
	hasDetail bool
}

// NewCase validates and builds a Case. A FAILED case must carry failure
// detail unless it belongs to the verifier module, where missing detail is
// recorded as an empty one.
func NewCase(module, name string, outcome Outcome, detail *string) (Case, error) {
	if name == "" {
		return Case{}, errors.NewMalformedInputError(module, "", "case name is empty")
	}
	if !outcome.Valid() {
		return Case{}, errors.NewMalformedInputError(module, name, fmt.Sprintf("invalid outcome %s", outcome))
	}

	c := Case{module: module, name: name, outcome: outcome}
	if detail != nil {
		c.detail, c.hasDetail = *detail, true
	}

	if outcome == Failed && !c.hasDetail {
		if module != constants.VerifierModule {
			return Case{}, errors.NewMalformedInputError(module, name, "failed case without failure detail")
		}
		c.hasDetail = true
	}
	return c, nil
}

// Module returns the owning module name.
func (c Case) Module() string { return c.module }

// Name returns the case name, conventionally "TestClass#testMethod".
func (c Case) Name() string { return c.name }

// Outcome returns the case outcome.
func (c Case) Outcome() Outcome { return c.outcome }

// Detail returns the failure detail and whether one was recorded.
func (c Case) Detail() (string, bool) { return c.detail, c.hasDetail }

// Key identifies the case across runs.
func (c Case) Key() string { return CaseKey(c.module, c.name) }

// CaseKey builds the identity used by Case.Key.
func CaseKey(module, name string) string {
	return module + "::" + name
}
