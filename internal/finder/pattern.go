package finder

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// PatternType says how an exclude pattern is interpreted.
type PatternType int

const (
	// Glob uses shell-style patterns (*, ?, []).
	Glob PatternType = iota
	// Regex uses regular expressions.
	Regex
)

// String returns the pattern type name.
func (pt PatternType) String() string {
	switch pt {
	case Glob:
		return "glob"
	case Regex:
		return "regex"
	}
	return "unknown"
}

// Pattern matches entry names during discovery.
type Pattern struct {
	raw  string
	kind PatternType
	re   *regexp.Regexp
}

// CompilePattern compiles pattern, detecting whether it is a glob or a
// regular expression.
func CompilePattern(pattern string) (Pattern, error) {
	p := Pattern{raw: pattern, kind: detectPatternType(pattern)}
	switch p.kind {
	case Regex:
		re, err := regexp.Compile(pattern)
		if err != nil {
			return Pattern{}, fmt.Errorf("invalid regex pattern %q: %w", pattern, err)
		}
		p.re = re
	default:
		if _, err := filepath.Match(pattern, ""); err != nil {
			return Pattern{}, fmt.Errorf("invalid glob pattern %q: %w", pattern, err)
		}
	}
	return p, nil
}

// Match reports whether name matches the pattern.
func (p Pattern) Match(name string) bool {
	if p.kind == Regex {
		return p.re.MatchString(name)
	}
	ok, _ := filepath.Match(p.raw, name)
	return ok
}

// String returns the pattern as written.
func (p Pattern) String() string { return p.raw }

// Type returns how the pattern is interpreted.
func (p Pattern) Type() PatternType { return p.kind }

// detectPatternType treats a pattern as a regex when it uses syntax glob
// does not have.
func detectPatternType(pattern string) PatternType {
	regexIndicators := []string{
		"^", "$", "\\d", "\\w", "\\s", "\\D", "\\W", "\\S",
		"(?:", "(?i)", "{", "}", "+", "|", "(", ")",
	}
	for _, indicator := range regexIndicators {
		if strings.Contains(pattern, indicator) {
			return Regex
		}
	}
	return Glob
}

// patternSet matches when any of its patterns does.
type patternSet []Pattern

func (s patternSet) Match(name string) bool {
	for _, p := range s {
		if p.Match(name) {
			return true
		}
	}
	return false
}
