// Package matcher resolves a requested key against the keys a report
// actually carries. Report generators drift in how they spell summary
// labels, so lookups try an exact hit first and fall back to a similarity
// score.
package matcher

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/cases"

	"github.com/agentstation/xtsmerge/pkg/constants"
)

// Matcher picks the candidate that answers a query.
type Matcher interface {
	// Match returns the accepted candidate, or false when none qualifies.
	// It must be deterministic and never fail.
	Match(query string, candidates []string) (string, bool)
}

// Exact accepts only a byte-identical candidate.
type Exact struct{}

// Match implements Matcher.
func (Exact) Match(query string, candidates []string) (string, bool) {
	for _, c := range candidates {
		if c == query {
			return c, true
		}
	}
	return "", false
}

// Similarity accepts the best scoring candidate whose score strictly
// exceeds Threshold. Ties keep the earliest candidate.
type Similarity struct {
	// Threshold on a 0-100 scale
	Threshold int
}

// NewSimilarity returns a Similarity matcher; thresholds outside 0-100
// fall back to the default.
func NewSimilarity(threshold int) Similarity {
	if threshold < 0 || threshold > 100 {
		threshold = constants.DefaultMatchThreshold
	}
	return Similarity{Threshold: threshold}
}

// Match implements Matcher.
func (s Similarity) Match(query string, candidates []string) (string, bool) {
	best, bestScore := -1, -1
	for i, c := range candidates {
		if score := Score(query, c); score > bestScore {
			best, bestScore = i, score
		}
	}
	if best < 0 || bestScore <= s.Threshold {
		return "", false
	}
	return candidates[best], true
}

// Chain consults each matcher in turn and returns the first hit.
type Chain []Matcher

// Match implements Matcher.
func (c Chain) Match(query string, candidates []string) (string, bool) {
	for _, m := range c {
		if m == nil {
			continue
		}
		if hit, ok := m.Match(query, candidates); ok {
			return hit, true
		}
	}
	return "", false
}

// Default returns exact matching followed by similarity at the default
// threshold.
func Default() Matcher {
	return Chain{Exact{}, NewSimilarity(constants.DefaultMatchThreshold)}
}

// WithThreshold returns the default chain with a custom similarity threshold.
func WithThreshold(threshold int) Matcher {
	return Chain{Exact{}, NewSimilarity(threshold)}
}

// Score rates how alike two keys are on a 0-100 scale after case folding.
// Punctuation counts as a space and runs of spaces collapse to one, so
// "Suite/Build" and "Suite / Build" are the same key. Identical keys
// score 100.
func Score(a, b string) int {
	a, b = normalize(a), normalize(b)
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	longest := max(la, lb)
	if longest == 0 {
		return 100
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 100 * (longest - dist) / longest
}

func normalize(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return ' '
	}, cases.Fold().String(s))
	return strings.Join(strings.Fields(s), " ")
}
