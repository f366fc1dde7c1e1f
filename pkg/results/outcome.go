// Package results models the parsed content of compliance test runs: case
// outcomes, modules, immutable runs, and the tallies that count them.
//
// Everything here is a value or read-only view. Runs are built once by the
// parser and never change afterwards, so they can be shared between
// goroutines without locking.
package results

import (
	"fmt"

	"github.com/agentstation/xtsmerge/pkg/errors"
)

// Outcome is the result of a single test case.
//
// The zero value None means "absent" and only appears in join tables; the
// parser never produces it.
type Outcome int

// Outcome values.
const (
	None Outcome = iota
	Passed
	Failed
	AssumptionFailure
	Ignored
)

// Wire tokens used in test_result.xml.
const (
	tokenPassed            = "pass"
	tokenFailed            = "fail"
	tokenAssumptionFailure = "ASSUMPTION_FAILURE"
	tokenIgnored           = "IGNORED"
)

// ParseOutcome maps a result token to an Outcome.
func ParseOutcome(token string) (Outcome, error) {
	switch token {
	case tokenPassed:
		return Passed, nil
	case tokenFailed:
		return Failed, nil
	case tokenAssumptionFailure:
		return AssumptionFailure, nil
	case tokenIgnored:
		return Ignored, nil
	}
	return None, errors.NewMalformedInputError("", "", fmt.Sprintf("unknown result token %q", token))
}

// String returns the wire token, or "absent" for None.
func (o Outcome) String() string {
	switch o {
	case None:
		return "absent"
	case Passed:
		return tokenPassed
	case Failed:
		return tokenFailed
	case AssumptionFailure:
		return tokenAssumptionFailure
	case Ignored:
		return tokenIgnored
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// MarshalText implements encoding.TextMarshaler.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// Valid reports whether o is one of the four parsed outcomes.
func (o Outcome) Valid() bool {
	return o >= Passed && o <= Ignored
}

// Priority ranks outcomes for tally classification; lower wins.
// PASSED beats ASSUMPTION_FAILURE beats IGNORED beats FAILED, and absent or
// unknown values rank last.
func (o Outcome) Priority() int {
	switch o {
	case Passed:
		return 0
	case AssumptionFailure:
		return 1
	case Ignored:
		return 2
	case Failed:
		return 3
	}
	return 4
}

// Resolves reports whether o settles a case that failed elsewhere, that is
// whether it is present and not FAILED.
func (o Outcome) Resolves() bool {
	return o.Valid() && o != Failed
}

// Compare orders outcomes by Priority. It returns a negative number when a
// takes precedence over b, zero when they rank equally, and a positive
// number otherwise.
func Compare(a, b Outcome) int {
	return a.Priority() - b.Priority()
}
